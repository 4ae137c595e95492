package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/billbot/core/telegram"
	"github.com/m3rciful/billbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the single OnCallback route that dispatches raw
// callback payloads through the registry by prefix.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		// Stop the client spinner before any slow work.
		_ = c.Respond()

		prefix, cbHandler, ok := reg.MatchCallback(cb.Data)
		if !ok {
			extras := []slog.Attr{slog.String("reason", "not_found")}
			return handleWithSummary(c, "callback.unknown", start, "skip", "", reg.CallbackNotFound(), extras...)
		}
		name := "callback." + normalizeHandlerName(prefix)
		return handleWithSummary(c, name, start, "", "", cbHandler, slog.String("cb_key", prefix))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
