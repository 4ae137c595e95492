package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/billbot/core/config"
	coredatabase "github.com/m3rciful/billbot/core/database"
	"github.com/m3rciful/billbot/core/logger"
)

const defaultDBWait = 30 * time.Second

// Options control the bootstrap pipeline. Nil hooks fall back to the real
// implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	WaitForDB  func(ctx context.Context, dsn string, timeout time.Duration) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.DatabaseConfig) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is set only when the postgres journal is enabled.
	DB *sqlx.DB
}

// Close releases what Run opened.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, for the postgres journal, waits for the
// database, applies migrations and connects.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if cfg.Journal.Backend != coreconfig.JournalPostgres {
		return &Result{}, nil
	}

	wait := opts.WaitForDB
	if wait == nil {
		wait = coredatabase.WaitForPostgres
	}
	if err := wait(ctx, coredatabase.DSN(cfg.Database), defaultDBWait); err != nil {
		return nil, fmt.Errorf("bootstrap: database unavailable: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, cfg.Database); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	return &Result{DB: db}, nil
}
