// Package app assembles the intake bot from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m3rciful/billbot/core/bootstrap"
	coreconfig "github.com/m3rciful/billbot/core/config"
	tg "github.com/m3rciful/billbot/core/telegram"
	tghelpers "github.com/m3rciful/billbot/core/telegram/helpers"
	"github.com/m3rciful/billbot/core/telegram/state"
	"github.com/m3rciful/billbot/internal/bot"
	"github.com/m3rciful/billbot/internal/flow"
	"github.com/m3rciful/billbot/internal/journal"
	"github.com/m3rciful/billbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

// RateLimitedText is sent to users who hit the rate limit.
const RateLimitedText = "⏳ Too many requests. Please slow down."

// App owns the long-lived components of a running bot.
type App struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	journal  journal.Recorder
	machine  *flow.Machine
	handlers *bot.Handlers
}

// BuildOptions overrides pieces of the default wiring, mainly for tests.
type BuildOptions struct {
	Bootstrap bootstrap.Options
	Storage   storage.Client
	Now       func() time.Time
}

// Build runs the bootstrap pipeline and wires storage, journal and the
// conversation machine.
func Build(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	return BuildWith(ctx, cfg, BuildOptions{})
}

// BuildWith is Build with overrides.
func BuildWith(ctx context.Context, cfg *coreconfig.Config, opts BuildOptions) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	bopts := opts.Bootstrap
	bopts.Config = cfg
	infra, err := bootstrap.Run(ctx, bopts)
	if err != nil {
		return nil, err
	}

	client := opts.Storage
	if client == nil {
		client, err = storage.New(ctx, cfg.Storage)
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("app: storage: %w", err)
		}
	}

	rec, err := journal.New(cfg.Journal, infra.DB)
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: journal: %w", err)
	}

	sessions := state.NewStore[flow.Session]()
	mcfg := flow.MachineConfig{
		Sessions:     sessions,
		Uploader:     flow.NewUploader(sessions, client, rec, cfg.Storage.Root),
		HistoryLimit: cfg.Journal.HistoryLimit,
		Now:          opts.Now,
	}
	if cfg.Journal.Backend != coreconfig.JournalNone {
		mcfg.History = rec
	}
	machine := flow.NewMachine(mcfg)

	return &App{
		cfg:      cfg,
		infra:    infra,
		journal:  rec,
		machine:  machine,
		handlers: bot.New(machine),
	}, nil
}

// Machine exposes the conversation machine.
func (a *App) Machine() *flow.Machine { return a.machine }

// TelegramRunOptions registers the bot's commands and callbacks and returns
// the options for tg.RunTelegram.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	routes, err := a.handlers.Routes(reg)
	if err != nil {
		return tg.RunOptions{}, err
	}
	mws, err := tg.DefaultMiddlewares(a.cfg, rateLimited)
	if err != nil {
		return tg.RunOptions{}, err
	}
	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: mws,
		Routes:      routes,
	}, nil
}

// Close releases the journal and database connection.
func (a *App) Close() error {
	var errs []error
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.infra != nil {
		errs = append(errs, a.infra.Close())
	}
	return errors.Join(errs...)
}

func rateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: RateLimitedText})
	}
	return tghelpers.SendText(c, RateLimitedText)
}
