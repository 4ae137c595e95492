package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/billbot/core/config"
)

type steps []string

func (s *steps) options(cfg *coreconfig.Config) Options {
	return Options{
		Config: cfg,
		LoggerInit: func(*coreconfig.Config) error {
			*s = append(*s, "logger")
			return nil
		},
		WaitForDB: func(context.Context, string, time.Duration) error {
			*s = append(*s, "wait")
			return nil
		},
		Migrate: func(context.Context, coreconfig.DatabaseConfig) error {
			*s = append(*s, "migrate")
			return nil
		},
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			*s = append(*s, "connect")
			return nil, nil
		},
	}
}

func TestRunWithoutDatabase(t *testing.T) {
	var s steps
	cfg := &coreconfig.Config{Journal: coreconfig.JournalConfig{Backend: coreconfig.JournalBolt}}
	res, err := Run(context.Background(), s.options(cfg))
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.Equal(t, steps{"logger"}, s)
	assert.NoError(t, res.Close())
}

func TestRunWithPostgresJournal(t *testing.T) {
	var s steps
	cfg := &coreconfig.Config{Journal: coreconfig.JournalConfig{Backend: coreconfig.JournalPostgres}}
	_, err := Run(context.Background(), s.options(cfg))
	require.NoError(t, err)
	assert.Equal(t, steps{"logger", "wait", "migrate", "connect"}, s)
}

func TestRunStopsOnMigrationError(t *testing.T) {
	var s steps
	cfg := &coreconfig.Config{Journal: coreconfig.JournalConfig{Backend: coreconfig.JournalPostgres}}
	opts := s.options(cfg)
	opts.Migrate = func(context.Context, coreconfig.DatabaseConfig) error { return errors.New("dirty") }
	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations failed")
	assert.NotContains(t, s, "connect")
}

func TestRunNilConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
