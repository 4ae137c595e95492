package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/billbot/core/telegram"
	"github.com/m3rciful/billbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions supplies handlers for free text and document updates.
type TextOptions struct {
	// Text handles plain text that is not a command.
	Text tele.HandlerFunc
	// Document handles any incoming document.
	Document tele.HandlerFunc
	// UnknownCommand handles slash commands the registry does not know.
	UnknownCommand tele.HandlerFunc
}

// TextRoutes builds the OnText and OnDocument routes. Text that names a
// registered command (for example via an alias) is routed to that command.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if strings.HasPrefix(text, "/") {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
					return handleWithSummary(c, normalizeHandlerName(key), start, "", "", cmd.Handler)
				}
			}
			return handleWithSummary(c, "unknown_command", start, "", "", opts.UnknownCommand)
		}
		return handleWithSummary(c, "text", start, "", "", opts.Text)
	}

	docHandler := func(c tele.Context) error {
		return handleWithSummary(c, "document", time.Now(), "", "", opts.Document)
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
