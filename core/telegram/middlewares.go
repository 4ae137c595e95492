package telegram

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/billbot/core/config"
	"github.com/m3rciful/billbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain: panic recovery,
// allow-list, optional rate limit, update logging and reply counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) ([]Middleware, error) {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}
	if cfg == nil {
		return mws, nil
	}

	ids, err := coreconfig.ParseUserIDs(cfg.Telegram.AllowedUserIDs)
	if err != nil {
		return nil, fmt.Errorf("telegram: allow-list: %w", err)
	}
	mws = append(mws, Middleware{
		Name: "allow_list",
		Use:  middleware.AllowListMiddleware(middleware.AllowListOptions{UserIDs: ids}),
	})

	if interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond; interval > 0 {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, t := range cfg.RateLimit.ExcludeUpdates {
			ex[t] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  interval,
				Exclude:   ex,
				OnLimited: onLimited,
			}),
		})
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
	return mws, nil
}
