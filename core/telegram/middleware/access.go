package middleware

import (
	"log/slog"

	"github.com/m3rciful/billbot/core/logger"
	tghelpers "github.com/m3rciful/billbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AccessDeniedText is the notice shown to users outside the allow-list.
const AccessDeniedText = "⛔ Access denied. This bot is private."

// AllowListOptions defines who may reach downstream handlers.
type AllowListOptions struct {
	// UserIDs is the allow-list. Empty permits everyone.
	UserIDs []int64
	// OnReject overrides the default denial notice.
	OnReject tele.HandlerFunc
}

// AllowListMiddleware stops updates from users outside a non-empty
// allow-list before any handler runs.
func AllowListMiddleware(opts AllowListOptions) tele.MiddlewareFunc {
	allowed := make(map[int64]struct{}, len(opts.UserIDs))
	for _, id := range opts.UserIDs {
		allowed[id] = struct{}{}
	}
	reject := opts.OnReject
	if reject == nil {
		reject = denyNotice
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if len(allowed) == 0 {
			return next
		}
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil {
				if _, ok := allowed[user.ID]; ok {
					return next(c)
				}
			}
			ctx := tghelpers.BuildContext(c)
			attrs := []slog.Attr{slog.String("status", "denied")}
			if user != nil {
				attrs = append(attrs, slog.Int64("user_id", user.ID))
			}
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelWarn, "access.denied", attrs...)
			return reject(c)
		}
	}
}

func denyNotice(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: AccessDeniedText, ShowAlert: true})
	}
	if c.Sender() == nil {
		return nil
	}
	return tghelpers.SendText(c, AccessDeniedText)
}
