package middleware

import (
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gomida/gamebot/core/logger"
	tghelpers "github.com/gomida/gamebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// defaultTrackedUsers bounds the number of senders remembered by the limiter.
const defaultTrackedUsers = 50_000

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval     time.Duration
	Exclude      map[string]struct{}
	OnLimited    tele.HandlerFunc
	TrackedUsers int
}

// UpdateKind classifies an update for rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user. The least recently seen users are
// forgotten once TrackedUsers is exceeded.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	size := opts.TrackedUsers
	if size <= 0 {
		size = defaultTrackedUsers
	}
	lastSeen, _ := lru.New[int64, time.Time](size)
	var mu sync.Mutex
	now := time.Now

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}

			t := now()
			mu.Lock()
			if last, ok := lastSeen.Get(user.ID); ok && t.Sub(last) < opts.Interval {
				mu.Unlock()
				attrs := []slog.Attr{
					slog.String("status", "skip"),
					slog.String("outcome", "rate_limited"),
					slog.Int64("user_id", user.ID),
				}
				if chat := c.Chat(); chat != nil {
					attrs = append(attrs, slog.Int64("chat_id", chat.ID))
				}
				logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit", attrs...)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen.Add(user.ID, t)
			mu.Unlock()
			return next(c)
		}
	}
}
