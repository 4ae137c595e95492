package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/billbot/core/logger"
	tg "github.com/m3rciful/billbot/core/telegram"
	"github.com/m3rciful/billbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes prepares one route per registered command, each wrapped
// with recovery, logging and a handler summary line.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		name, h := name, def.Handler
		summary := normalizeHandlerName(name)
		wrapped := func(c tele.Context) error {
			return handleWithSummary(c, summary, time.Now(), "", "", h)
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(wrapped)),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
