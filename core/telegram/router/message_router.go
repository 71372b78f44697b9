package router

import (
	"strings"
	"time"

	tg "github.com/gomida/gamebot/core/telegram"
	"github.com/gomida/gamebot/core/telegram/commands"
	"github.com/gomida/gamebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text, contact and document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
	// Contact handles shared contact cards. Without it contacts are ignored.
	Contact tele.HandlerFunc
}

// TextRoutes builds handlers for text, contact and document routing.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := lookupSlashCommand(reg, text); ok {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	contactHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.Contact == nil {
			logHandlerSummary(c, "contact", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "contact", start, "", "", func() error {
			return opts.Contact(c)
		})
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(handler)},
		{Endpoint: tele.OnContact, Handler: wrap(contactHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler)},
	}
}

// lookupSlashCommand resolves command aliases typed as text. Admin-only
// commands are reachable through their registered route only.
func lookupSlashCommand(reg *tg.Registry, text string) (string, commands.Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", commands.Command{}, false
	}
	key, cmd, ok := reg.LookupCommand(strings.Fields(text)[0])
	if !ok || cmd.Handler == nil || cmd.AdminOnly {
		return "", commands.Command{}, false
	}
	return key, cmd, true
}
