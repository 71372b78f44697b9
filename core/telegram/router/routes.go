package router

import (
	tg "github.com/gomida/gamebot/core/telegram"
	"github.com/gomida/gamebot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// RouteOptions configures Routes.
type RouteOptions struct {
	AdminIDs      []int64
	OnAdminReject tele.HandlerFunc
	Contact       tele.HandlerFunc
	Game          tele.HandlerFunc
}

// Routes assembles command, text and callback routes for reg with the
// fallbacks of fb.
func Routes(reg *tg.Registry, fb ui.FallbackProvider, opts RouteOptions) []tg.Route {
	routes := CommandRoutes(reg, CommandRouteOptions{
		AdminIDs:      opts.AdminIDs,
		OnAdminReject: opts.OnAdminReject,
	})
	text := TextOptions{Contact: opts.Contact}
	cb := CallbackOptions{Game: opts.Game}
	if fb != nil {
		text.UnknownText = fb.UnknownText()
		text.UnknownDocument = fb.UnknownDocument()
		cb.NotFound = fb.UnknownCallback()
	}
	routes = append(routes, TextRoutes(reg, text)...)
	return append(routes, CallbackRoute(reg, cb))
}
