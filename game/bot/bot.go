// Package bot adapts the dispatcher to Telegram: it registers commands and
// routes and turns replies into Telegram calls.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gomida/gamebot/core/logger"
	tg "github.com/gomida/gamebot/core/telegram"
	"github.com/gomida/gamebot/core/telegram/callbacks"
	"github.com/gomida/gamebot/core/telegram/commands"
	tghelpers "github.com/gomida/gamebot/core/telegram/helpers"
	"github.com/gomida/gamebot/core/telegram/router"
	"github.com/gomida/gamebot/core/telegram/ui"
	"github.com/gomida/gamebot/game/dispatch"
	"github.com/gomida/gamebot/game/leaderboard"
	"github.com/gomida/gamebot/game/profile"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.bot"

// MsgInactiveButton answers presses of buttons nothing handles anymore.
const MsgInactiveButton = "This button is no longer active."

// MsgSlowDown answers updates dropped by the rate limiter.
const MsgSlowDown = "⏳ Too fast. Please wait a moment."

// Tester sends a test notification to every admin and returns how many were queued.
type Tester interface {
	Test(ctx context.Context, from profile.Identity) int
}

// Options wires optional collaborators.
type Options struct {
	AdminIDs []int64
	Notifier Tester
}

// Bot binds a Dispatcher to the Telegram runtime.
type Bot struct {
	d        *dispatch.Dispatcher
	adminIDs []int64
	tester   Tester
}

var _ ui.FallbackProvider = (*Bot)(nil)

// New builds a Bot.
func New(d *dispatch.Dispatcher, opts Options) *Bot {
	return &Bot{d: d, adminIDs: opts.AdminIDs, tester: opts.Notifier}
}

// Register adds the commands, the leaderboard callback and the text fallback to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Start the bot",
		Aliases:     []string{"/menu"},
	})
	reg.RegisterCommand("/stop", commands.Command{Handler: b.handleStop, Description: "Stop the bot and forget this chat"})
	reg.RegisterCommand("/refresh", commands.Command{Handler: b.handleRefresh, Description: "Reload your profile from the server"})
	if b.tester != nil {
		reg.RegisterCommand("/notifytest", commands.Command{
			Handler:     b.handleNotifyTest,
			Description: "Send a test notification to admins",
			AdminOnly:   true,
		})
	}
	reg.SetTextFallback(b.handleText)
	reg.SetCallbackNotFound(b.UnknownCallback())
	return reg.RegisterCallback(leaderboard.TokenPrefix, b.handleLeaderboard)
}

// Routes returns every route of the bot, built on reg.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	return router.Routes(reg, b, router.RouteOptions{
		AdminIDs: b.adminIDs,
		Contact:  b.handleContact,
		Game:     b.handleGame,
	})
}

// UnknownText re-renders the menu.
func (b *Bot) UnknownText() tele.HandlerFunc { return b.handleText }

// UnknownDocument answers uploads the bot does not accept.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I can't process files. Please use the menu buttons.")
	}
}

// UnknownCallback answers stale or foreign buttons.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: MsgInactiveButton, ShowAlert: true})
	}
}

// OnRateLimited tells a throttled user to slow down. Callbacks get a toast
// so the button spinner stops; messages are dropped silently.
func (b *Bot) OnRateLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: MsgSlowDown})
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx, chatID, id, ok := b.event(c)
	if !ok {
		return nil
	}
	return b.deliver(c, b.d.OnStart(ctx, chatID, id))
}

func (b *Bot) handleStop(c tele.Context) error {
	ctx, chatID, id, ok := b.event(c)
	if !ok {
		return nil
	}
	return b.deliver(c, b.d.OnStop(ctx, chatID, id))
}

func (b *Bot) handleRefresh(c tele.Context) error {
	ctx, chatID, id, ok := b.event(c)
	if !ok {
		return nil
	}
	return b.deliver(c, b.d.OnRefresh(ctx, chatID, id))
}

func (b *Bot) handleText(c tele.Context) error {
	ctx, chatID, id, ok := b.event(c)
	if !ok {
		return nil
	}
	return b.deliver(c, b.d.OnText(ctx, chatID, id, c.Text()))
}

func (b *Bot) handleContact(c tele.Context) error {
	ctx, chatID, id, ok := b.event(c)
	if !ok {
		return nil
	}
	msg := c.Message()
	if msg == nil || msg.Contact == nil {
		return nil
	}
	return b.deliver(c, b.d.OnContactShared(ctx, chatID, id, msg.Contact.PhoneNumber, msg.Contact.UserID))
}

func (b *Bot) handleLeaderboard(c tele.Context) error {
	ctx, chatID, id, ok := b.event(c)
	if !ok {
		return c.Respond()
	}
	return b.deliver(c, b.d.OnInlineAction(ctx, chatID, id, callbacks.Token(c.Callback())))
}

func (b *Bot) handleGame(c tele.Context) error {
	ctx, chatID, id, ok := b.event(c)
	if !ok {
		return c.Respond()
	}
	return b.deliver(c, b.d.OnGameLaunch(ctx, chatID, id, c.Callback().GameShortName))
}

func (b *Bot) handleNotifyTest(c tele.Context) error {
	ctx, _, id, ok := b.event(c)
	if !ok {
		return nil
	}
	n := b.tester.Test(ctx, id)
	text := fmt.Sprintf("✅ Test notification queued for %d admin(s).", n)
	if n == 0 {
		text = "⚠️ No admin chats are configured."
	}
	return tghelpers.SendText(c, text)
}

// event extracts the chat and the sender. Updates without both are ignored.
func (b *Bot) event(c tele.Context) (context.Context, int64, profile.Identity, bool) {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	chat := c.Chat()
	if user == nil || chat == nil {
		logger.Debug(ctx, component, "bot.skip",
			slog.String("status", "skip"),
			slog.String("reason", "no_sender_or_chat"),
		)
		return ctx, 0, profile.Identity{}, false
	}
	return ctx, chat.ID, identityOf(user), true
}

func identityOf(u *tele.User) profile.Identity {
	return profile.Identity{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Locale:    u.LanguageCode,
	}
}
