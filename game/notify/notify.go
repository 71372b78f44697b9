// Package notify tells the bot admins about registrations and shared contacts.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/gomida/gamebot/core/logger"
	"github.com/gomida/gamebot/game/profile"
)

const component = "service.notify"

// Notifier receives onboarding events. Implementations must not block the caller.
type Notifier interface {
	Registered(ctx context.Context, id profile.Identity, p profile.Profile, confirmed bool)
	ContactShared(ctx context.Context, id profile.Identity, phone string, confirmed bool)
}

// Queue runs send jobs in the background, as core/telegram/sender.Dispatcher does.
type Queue interface {
	Enqueue(ctx context.Context, action, endpoint string, run func() error) error
}

// SendFunc delivers an HTML message to one chat.
type SendFunc func(chatID int64, html string) error

// Telegram sends notifications to admin chats through a Queue.
type Telegram struct {
	queue  Queue
	send   SendFunc
	admins []int64
}

// NewTelegram builds a Telegram notifier. Duplicate and zero admin ids are dropped.
func NewTelegram(queue Queue, send SendFunc, admins ...int64) *Telegram {
	seen := make(map[int64]struct{}, len(admins))
	uniq := make([]int64, 0, len(admins))
	for _, id := range admins {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	return &Telegram{queue: queue, send: send, admins: uniq}
}

// Admins returns the recipients.
func (t *Telegram) Admins() []int64 {
	return append([]int64(nil), t.admins...)
}

// Registered implements Notifier.
func (t *Telegram) Registered(ctx context.Context, id profile.Identity, p profile.Profile, confirmed bool) {
	t.broadcast(ctx, "notify.registered", RegistrationText(id, p, confirmed))
}

// ContactShared implements Notifier.
func (t *Telegram) ContactShared(ctx context.Context, id profile.Identity, phone string, confirmed bool) {
	t.broadcast(ctx, "notify.contact", ContactText(id, phone, confirmed))
}

// Test sends a probe message to every admin.
func (t *Telegram) Test(ctx context.Context, from profile.Identity) int {
	text := fmt.Sprintf("🔔 Test notification requested by %s", html.EscapeString(from.Handle()))
	return t.broadcast(ctx, "notify.test", text)
}

func (t *Telegram) broadcast(ctx context.Context, action, text string) int {
	if len(t.admins) == 0 {
		logger.Debug(ctx, component, action, slog.String("status", "skip"))
		return 0
	}
	queued := 0
	for _, admin := range t.admins {
		chatID := admin
		err := t.queue.Enqueue(ctx, action, "sendMessage", func() error {
			return t.send(chatID, text)
		})
		if err != nil {
			logger.Warn(ctx, component, action,
				slog.String("status", "fail"),
				slog.Int64("admin_id", chatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		queued++
	}
	return queued
}

// RegistrationText is the admin message for a new user.
func RegistrationText(id profile.Identity, p profile.Profile, confirmed bool) string {
	var b strings.Builder
	b.WriteString("📱 <b>New User Registration</b>\n\n")
	fmt.Fprintf(&b, "👤 Username: %s\n", html.EscapeString(p.Username))
	if name := id.DisplayName(); name != "" {
		fmt.Fprintf(&b, "🪪 Name: %s\n", html.EscapeString(name))
	}
	fmt.Fprintf(&b, "🆔 ID: <code>%d</code>\n", id.ID)
	b.WriteString(phoneLine(p.Phone))
	if !confirmed {
		b.WriteString("\n⚠️ Saved locally only, backend did not confirm.")
	}
	return b.String()
}

// ContactText is the admin message for a shared contact.
func ContactText(id profile.Identity, phone string, confirmed bool) string {
	var b strings.Builder
	b.WriteString("📞 <b>Contact Shared</b>\n\n")
	fmt.Fprintf(&b, "👤 Username: %s\n", html.EscapeString(id.Handle()))
	fmt.Fprintf(&b, "🆔 ID: <code>%d</code>\n", id.ID)
	b.WriteString(phoneLine(phone))
	if !confirmed {
		b.WriteString("\n⚠️ Saved locally only, backend did not confirm.")
	}
	return b.String()
}

func phoneLine(phone string) string {
	if phone == "" {
		return "Phone: Not shared"
	}
	return "Phone: <code>" + html.EscapeString(phone) + "</code>"
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Registered(context.Context, profile.Identity, profile.Profile, bool) {}
func (Nop) ContactShared(context.Context, profile.Identity, string, bool)      {}
