package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// AllowedUserIDs is a comma separated allow-list; empty permits everyone.
	AllowedUserIDs string `yaml:"allowed_user_ids" envconfig:"TELEGRAM_ALLOWED_USER_IDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages and documents
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// YandexConfig configures the Yandex Disk REST backend.
type YandexConfig struct {
	Token          string `yaml:"token" envconfig:"YANDEX_DISK_TOKEN"`
	BaseURL        string `yaml:"base_url" envconfig:"YANDEX_DISK_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"YANDEX_DISK_TIMEOUT_SECONDS"`
}

// S3Config configures the S3-compatible backend. Empty credentials fall back
// to the default AWS credential chain.
type S3Config struct {
	Bucket          string `yaml:"bucket" envconfig:"S3_BUCKET"`
	Region          string `yaml:"region" envconfig:"S3_REGION"`
	Endpoint        string `yaml:"endpoint" envconfig:"S3_ENDPOINT"`
	PathStyle       bool   `yaml:"path_style" envconfig:"S3_PATH_STYLE"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"S3_SECRET_ACCESS_KEY"`
}

// StorageConfig selects and configures the remote storage backend.
type StorageConfig struct {
	Backend string       `yaml:"backend" envconfig:"STORAGE_BACKEND"`
	Root    string       `yaml:"root" envconfig:"STORAGE_ROOT"`
	Yandex  YandexConfig `yaml:"yandex"`
	S3      S3Config     `yaml:"s3"`
}

// JournalConfig controls where upload outcomes are recorded.
type JournalConfig struct {
	Backend      string `yaml:"backend" envconfig:"JOURNAL_BACKEND"`
	BoltPath     string `yaml:"bolt_path" envconfig:"JOURNAL_BOLT_PATH"`
	HistoryLimit int    `yaml:"history_limit" envconfig:"JOURNAL_HISTORY_LIMIT"`
}

// DatabaseConfig holds postgres connection settings for the journal.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

const (
	StorageYandex = "yandex"
	StorageS3     = "s3"
	StorageMemory = "memory"
)

const (
	JournalNone     = "none"
	JournalPostgres = "postgres"
	JournalBolt     = "bolt"
)

const (
	defaultStorageRoot   = "Bills"
	defaultHistoryLimit  = 5
	defaultBoltPath      = "data/journal.db"
	defaultYandexBaseURL = "https://cloud-api.yandex.net/v1/disk/resources"
)

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Journal   JournalConfig   `yaml:"journal"`
	Database  DatabaseConfig  `yaml:"database"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if err := normalizeRunMode(cfg); err != nil {
		return err
	}
	if _, err := ParseUserIDs(cfg.Telegram.AllowedUserIDs); err != nil {
		return fmt.Errorf("telegram.allowed_user_ids: %w", err)
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if err := normalizeStorage(&cfg.Storage); err != nil {
		return err
	}
	return normalizeJournal(cfg)
}

func normalizeRunMode(cfg *Config) error {
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeStorage(s *StorageConfig) error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend == "" {
		backend = StorageYandex
	}
	s.Backend = backend

	s.Root = strings.TrimRight(strings.TrimSpace(s.Root), "/")
	if s.Root == "" {
		s.Root = defaultStorageRoot
	}

	switch backend {
	case StorageYandex:
		if strings.TrimSpace(s.Yandex.Token) == "" {
			return fmt.Errorf("storage.yandex.token is required for the yandex backend")
		}
		if strings.TrimSpace(s.Yandex.BaseURL) == "" {
			s.Yandex.BaseURL = defaultYandexBaseURL
		}
		if s.Yandex.TimeoutSeconds < 0 {
			return fmt.Errorf("storage.yandex.timeout_seconds must be >= 0")
		}
	case StorageS3:
		if strings.TrimSpace(s.S3.Bucket) == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: yandex, s3, memory", s.Backend)
	}
	return nil
}

func normalizeJournal(cfg *Config) error {
	j := &cfg.Journal
	backend := strings.ToLower(strings.TrimSpace(j.Backend))
	if backend == "" {
		backend = JournalNone
	}
	j.Backend = backend
	if j.HistoryLimit <= 0 {
		j.HistoryLimit = defaultHistoryLimit
	}

	switch backend {
	case JournalNone:
	case JournalBolt:
		if strings.TrimSpace(j.BoltPath) == "" {
			j.BoltPath = defaultBoltPath
		}
	case JournalPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" || strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres journal")
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	default:
		return fmt.Errorf("invalid journal.backend %q; allowed: none, postgres, bolt", j.Backend)
	}
	return nil
}

// ParseUserIDs parses a comma separated list of Telegram user IDs.
func ParseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
