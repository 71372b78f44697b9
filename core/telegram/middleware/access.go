package middleware

import (
	"log/slog"

	"github.com/gomida/gamebot/core/logger"
	tghelpers "github.com/gomida/gamebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminIDs []int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether userID is one of the configured admins.
func (o AdminOptions) IsAdmin(userID int64) bool {
	for _, id := range o.AdminIDs {
		if id != 0 && id == userID {
			return true
		}
	}
	return false
}

func (o AdminOptions) enabled() bool {
	for _, id := range o.AdminIDs {
		if id != 0 {
			return true
		}
	}
	return false
}

// WithAdminCheck wraps a handler so that only admins may run it. With no admins
// configured, admin-only handlers are rejected for everyone.
func WithAdminCheck(opts AdminOptions, adminOnly bool, h tele.HandlerFunc) tele.HandlerFunc {
	if !adminOnly {
		return h
	}
	return func(c tele.Context) error {
		var userID int64
		if u := c.Sender(); u != nil {
			userID = u.ID
		}
		if !opts.enabled() || !opts.IsAdmin(userID) {
			logger.Info(tghelpers.BuildContext(c), "tg", "tg.admin_reject",
				slog.String("status", "skip"),
				slog.Int64("user_id", userID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
		return h(c)
	}
}
