package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/gomida/gamebot/core/logger"
	tg "github.com/gomida/gamebot/core/telegram"
	"github.com/gomida/gamebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminIDs      []int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
// Every command logs one handler summary.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminIDs: opts.AdminIDs,
		OnReject: opts.OnAdminReject,
	}

	names := reg.CommandNames()
	routes := make([]tg.Route, 0, len(names))
	for _, cmd := range names {
		def, _ := reg.Command(cmd)
		name := normalizeHandlerName(cmd)
		inner := middleware.WithAdminCheck(adminOpts, def.AdminOnly, def.Handler)
		h := func(c tele.Context) error {
			return handleWithSummary(c, name, time.Now(), "", "", func() error {
				return inner(c)
			})
		}
		wrapped := middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
		for _, endpoint := range def.Endpoints(cmd) {
			routes = append(routes, tg.Route{Endpoint: endpoint, Handler: wrapped})
		}
	}

	logger.Info(context.Background(), "tg.wire", "tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(names)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
