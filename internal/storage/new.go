package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/billbot/core/config"
)

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Client, error) {
	switch cfg.Backend {
	case config.StorageYandex:
		return NewYandex(YandexOptions{
			BaseURL: cfg.Yandex.BaseURL,
			Token:   cfg.Yandex.Token,
			Timeout: time.Duration(cfg.Yandex.TimeoutSeconds) * time.Second,
		}), nil
	case config.StorageS3:
		return NewS3(ctx, S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
