package telegram

import (
	"time"

	coreconfig "github.com/gomida/gamebot/core/config"
	"github.com/gomida/gamebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// ChainOptions customises DefaultMiddlewares.
type ChainOptions struct {
	// OnLimited runs instead of the handler when a user is rate limited.
	OnLimited tele.HandlerFunc
	// TrackedUsers bounds the rate limiter's memory; 0 uses the default.
	TrackedUsers int
}

// DefaultMiddlewares builds the global chain: recover, rate limit (when
// configured), update logging and message metrics, outermost first.
func DefaultMiddlewares(cfg *coreconfig.Config, opts ChainOptions) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}

	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[kind] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:     time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:      exclude,
				OnLimited:    opts.OnLimited,
				TrackedUsers: opts.TrackedUsers,
			}),
		})
	}

	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
