// Package dispatch routes chat events through the onboarding state machine and
// turns each outcome into replies.
package dispatch

import (
	"context"
	_ "embed"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gomida/gamebot/core/logger"
	"github.com/gomida/gamebot/core/telegram/format"
	"github.com/gomida/gamebot/game/leaderboard"
	"github.com/gomida/gamebot/game/menu"
	"github.com/gomida/gamebot/game/notify"
	"github.com/gomida/gamebot/game/play"
	"github.com/gomida/gamebot/game/profile"
	"github.com/gomida/gamebot/game/reconcile"
	"github.com/gomida/gamebot/game/session"
)

const component = "service.dispatch"

// DefaultAppName is used in greetings when none is configured.
const DefaultAppName = "Gomida Games"

//go:embed terms.md
var termsSource string

var termsText = format.MarkdownV2Document(termsSource)

// Backend is everything the dispatcher needs from the game backend.
type Backend interface {
	reconcile.Backend
	leaderboard.Source
}

// Config carries the optional collaborators and presentation settings.
type Config struct {
	Linker   *play.Linker
	Notifier notify.Notifier
	PageSize int
	// PlayRequiresUnlock gates Play behind a shared contact.
	PlayRequiresUnlock bool
	// NativeGames sends platform game messages instead of URL buttons.
	NativeGames bool
	AppName     string
	// InviteURL is the bot link referral params are appended to.
	InviteURL string
}

// Dispatcher owns the per-chat state machine. Handlers of one chat never overlap.
type Dispatcher struct {
	store    session.Store
	backend  Backend
	rec      *reconcile.Reconciler
	board    *leaderboard.Renderer
	linker   *play.Linker
	notifier notify.Notifier
	cfg      Config
	locks    *chatLocks
}

// New wires a Dispatcher to its session store and backend.
func New(store session.Store, be Backend, cfg Config) *Dispatcher {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Linker == nil {
		cfg.Linker, _ = play.NewLinker(play.Options{})
	}
	if strings.TrimSpace(cfg.AppName) == "" {
		cfg.AppName = DefaultAppName
	}
	return &Dispatcher{
		store:    store,
		backend:  be,
		rec:      reconcile.New(be),
		board:    leaderboard.NewRenderer(be, cfg.PageSize),
		linker:   cfg.Linker,
		notifier: cfg.Notifier,
		cfg:      cfg,
		locks:    newChatLocks(),
	}
}

// Linker exposes the game link builder.
func (d *Dispatcher) Linker() *play.Linker {
	return d.linker
}

func (d *Dispatcher) menuOpts() menu.Options {
	return menu.Options{PlayRequiresUnlock: d.cfg.PlayRequiresUnlock}
}

func (d *Dispatcher) currentMenu(sess *session.Session) menu.Layout {
	return menu.Select(sess.Unlocked(), false, d.menuOpts())
}

// withSession runs fn under the chat lock with the chat's session and saves
// the session afterwards unless fn cleared it.
func (d *Dispatcher) withSession(ctx context.Context, event string, chatID int64, id profile.Identity, fn func(*session.Session) []Reply) []Reply {
	unlock := d.locks.lock(chatID)
	defer unlock()

	sess := d.load(ctx, chatID, id)
	before := sess.State()
	replies := fn(sess)
	if sess.ChatID != 0 {
		d.save(ctx, sess)
	}
	logger.Debug(ctx, component, "dispatch."+event,
		slog.String("status", "ok"),
		slog.String("state", string(sess.State())),
		slog.String("from", string(before)),
		slog.Int("messages", len(replies)),
	)
	return replies
}

func (d *Dispatcher) load(ctx context.Context, chatID int64, id profile.Identity) *session.Session {
	sess, found, err := d.store.Load(ctx, chatID)
	if err != nil {
		logger.Warn(ctx, component, "session.load",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	if err != nil || !found || sess == nil || sess.IdentityID != id.ID {
		return session.New(chatID, id.ID)
	}
	return sess
}

func (d *Dispatcher) save(ctx context.Context, sess *session.Session) {
	if err := d.store.Save(ctx, sess); err != nil {
		logger.Warn(ctx, component, "session.save",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

// OnStart resolves the chat's profile and greets the user.
func (d *Dispatcher) OnStart(ctx context.Context, chatID int64, id profile.Identity) []Reply {
	return d.withSession(ctx, "start", chatID, id, func(sess *session.Session) []Reply {
		res := d.rec.Ensure(ctx, sess, id)
		if res.Outcome == reconcile.OutcomeCreated {
			d.notifier.Registered(ctx, id, res.Profile, res.Confirmed)
		}
		name := html.EscapeString(firstName(id))
		app := html.EscapeString(d.cfg.AppName)

		switch {
		case sess.Unlocked():
			return []Reply{withMenu(Reply{Text: fmt.Sprintf("Welcome back to %s! 🎮", app), Format: FormatHTML}, menu.Unlocked())}
		case res.Outcome == reconcile.OutcomeCreated:
			return []Reply{withMenu(Reply{
				Text:   fmt.Sprintf("Welcome to %s, %s! 🎉\n\nWould you like to share your contact for a better experience?", app, name),
				Format: FormatHTML,
			}, menu.Select(false, true, d.menuOpts()))}
		case res.Outcome == reconcile.OutcomeLocal:
			return []Reply{withMenu(Reply{
				Text:   fmt.Sprintf("Welcome to %s, %s! 🎮\n\nNote: Some features might be limited due to server connection.", app, name),
				Format: FormatHTML,
			}, menu.Locked(d.menuOpts()))}
		default:
			return []Reply{withMenu(Reply{
				Text:   fmt.Sprintf("Welcome back %s! 👋\n\nWould you like to share your contact for a better experience?", name),
				Format: FormatHTML,
			}, menu.Select(false, true, d.menuOpts()))}
		}
	})
}

// OnStop clears the chat's session.
func (d *Dispatcher) OnStop(ctx context.Context, chatID int64, id profile.Identity) []Reply {
	return d.withSession(ctx, "stop", chatID, id, func(sess *session.Session) []Reply {
		if err := d.store.Clear(ctx, chatID); err != nil {
			logger.Warn(ctx, component, "session.clear",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
		*sess = session.Session{}
		return []Reply{{
			Text:       fmt.Sprintf("%s has been stopped! To start again, type /start.", d.cfg.AppName),
			RemoveMenu: true,
		}}
	})
}

// OnRefresh refetches the profile, superseding the cached one.
func (d *Dispatcher) OnRefresh(ctx context.Context, chatID int64, id profile.Identity) []Reply {
	return d.withSession(ctx, "refresh", chatID, id, func(sess *session.Session) []Reply {
		res := d.rec.Refresh(ctx, sess, id)
		text := "✅ Your data has been refreshed from the server!"
		if res.Err != nil {
			text = "❌ Could not refresh data. Please try again later."
		}
		return []Reply{withMenu(Reply{Text: text}, d.currentMenu(sess))}
	})
}

// OnText handles menu captions and free text.
func (d *Dispatcher) OnText(ctx context.Context, chatID int64, id profile.Identity, text string) []Reply {
	return d.withSession(ctx, "text", chatID, id, func(sess *session.Session) []Reply {
		res := d.rec.Ensure(ctx, sess, id)
		action, ok := menu.ActionFor(text)
		if !ok {
			return []Reply{withMenu(Reply{Text: "What would you like to do?"}, d.currentMenu(sess))}
		}
		switch action {
		case menu.ActionAccount:
			return []Reply{d.account(ctx, sess, id, res)}
		case menu.ActionPlay:
			return d.play(sess, id)
		case menu.ActionInvite:
			return []Reply{d.invite(id)}
		case menu.ActionLeaderboard:
			return []Reply{d.renderBoard(ctx, sess, id, 1, false)}
		case menu.ActionTerms:
			return []Reply{{Text: termsText, Format: FormatMarkdownV2}}
		case menu.ActionSettings:
			return []Reply{{Text: "Settings menu:\n1. Change username\n2. Change notifications\n3. Back"}}
		case menu.ActionSkipContact:
			if sess.Unlocked() {
				return []Reply{withMenu(Reply{Text: "Your contact is already shared. 👍"}, menu.Unlocked())}
			}
			return []Reply{withMenu(Reply{
				Text: "✅ You can still play games! Share contact anytime to unlock additional features.",
			}, menu.Locked(d.menuOpts()))}
		}
		return []Reply{withMenu(Reply{Text: "What would you like to do?"}, d.currentMenu(sess))}
	})
}

// OnContactShared merges a shared phone number into the profile. contactUserID
// is the platform user the contact card belongs to, 0 when unknown.
func (d *Dispatcher) OnContactShared(ctx context.Context, chatID int64, id profile.Identity, phone string, contactUserID int64) []Reply {
	return d.withSession(ctx, "contact", chatID, id, func(sess *session.Session) []Reply {
		if contactUserID != 0 && contactUserID != id.ID {
			d.rec.Ensure(ctx, sess, id)
			return []Reply{withMenu(Reply{
				Text: "⚠️ Please share your own contact using the button below.",
			}, menu.Select(sess.Unlocked(), true, d.menuOpts()))}
		}
		if strings.TrimSpace(phone) == "" {
			d.rec.Ensure(ctx, sess, id)
			return []Reply{withMenu(Reply{Text: "That contact has no phone number."}, d.currentMenu(sess))}
		}

		res := d.rec.ApplyContactShare(ctx, sess, id, phone)
		d.notifier.ContactShared(ctx, id, res.Profile.Phone, res.Confirmed)

		name := html.EscapeString(firstName(id))
		text := fmt.Sprintf("✅ Thank you %s!\n\nYour contact has been saved successfully!\nYou now have access to all features!", name)
		if !res.Confirmed {
			text = fmt.Sprintf("✅ Thank you %s!\n\nYour contact has been saved locally!\nSome features may be limited.", name)
		}
		return []Reply{withMenu(Reply{Text: text, Format: FormatHTML}, menu.Unlocked())}
	})
}

// OnInlineAction replays a leaderboard control token.
func (d *Dispatcher) OnInlineAction(ctx context.Context, chatID int64, id profile.Identity, token string) []Reply {
	ctrl, ok := leaderboard.ParseToken(token)
	if !ok {
		logger.Debug(ctx, component, "dispatch.inline",
			slog.String("status", "skip"),
			slog.String("payload", logger.SanitizeLimit(token, 64)),
		)
		return []Reply{{Notice: "This button is no longer active.", Alert: true}}
	}
	return d.withSession(ctx, "inline", chatID, id, func(sess *session.Session) []Reply {
		d.rec.Ensure(ctx, sess, id)
		return []Reply{d.renderBoard(ctx, sess, id, ctrl.Page, true)}
	})
}

// OnGameLaunch answers a platform game button with the launch URL.
func (d *Dispatcher) OnGameLaunch(ctx context.Context, chatID int64, id profile.Identity, shortName string) []Reply {
	if _, ok := d.linker.Find(shortName); !ok {
		return []Reply{{Notice: "Game not found!", Alert: true}}
	}
	return d.withSession(ctx, "game", chatID, id, func(sess *session.Session) []Reply {
		p := d.rec.EnsureProfile(ctx, sess, id)
		u, err := d.linker.URL(shortName, id, p)
		if err != nil {
			logger.Warn(ctx, component, "play.link",
				slog.String("status", "fail"),
				slog.String("game", shortName),
				slog.String("err", err.Error()),
			)
			return []Reply{{Notice: "Game not found!", Alert: true}}
		}
		return []Reply{{URL: u}}
	})
}

func (d *Dispatcher) account(ctx context.Context, sess *session.Session, id profile.Identity, res reconcile.Result) Reply {
	p := res.Profile
	rank := "N/A"
	// A local-only profile has no backend row to rank.
	if sess.Confirmed {
		if entries, err := d.backend.FetchLeaderboard(ctx); err == nil {
			if r := profile.Rank(entries, id.ID); r > 0 {
				rank = "#" + strconv.Itoa(r)
			}
		}
	}
	phone := "Not shared"
	if p.HasPhone() {
		phone = p.Phone
	}
	username := id.Username
	if username == "" {
		username = "No username"
	}
	shared := "❌ No"
	if sess.Unlocked() {
		shared = "✅ Yes"
	}

	var b strings.Builder
	b.WriteString("👤 <b>Your Account Info</b>\n\n")
	fmt.Fprintf(&b, "• <b>Name:</b> %s\n", html.EscapeString(id.DisplayName()))
	fmt.Fprintf(&b, "• <b>Username:</b> @%s\n", html.EscapeString(username))
	fmt.Fprintf(&b, "• <b>Phone:</b> <code>%s</code>\n", html.EscapeString(phone))
	fmt.Fprintf(&b, "• <b>Global Rank:</b> %s\n", rank)
	fmt.Fprintf(&b, "• <b>Score:</b> %d points\n", p.Score)
	fmt.Fprintf(&b, "• <b>Levels:</b> Flags %d · Maps %d · Attires %d\n", p.FlagsLevel, p.MapsLevel, p.AttiresLevel)
	fmt.Fprintf(&b, "• <b>Contact Shared:</b> %s", shared)
	return Reply{Text: b.String(), Format: FormatHTML}
}

func (d *Dispatcher) play(sess *session.Session, id profile.Identity) []Reply {
	if d.cfg.PlayRequiresUnlock && !sess.Unlocked() {
		return []Reply{withMenu(Reply{
			Text: "🔒 Share your contact to unlock the games.",
		}, menu.Select(false, true, d.menuOpts()))}
	}

	var out []Reply
	if !sess.Unlocked() {
		out = append(out, withMenu(Reply{
			Text: "🎮 You can play games without sharing contact!\nHowever, sharing contact unlocks additional features.",
		}, menu.Locked(d.menuOpts())))
	}

	games := d.linker.Games()
	if len(games) == 0 {
		return append(out, Reply{Text: "No games are available right now. Please check back later."})
	}
	if d.cfg.NativeGames {
		return append(out, Reply{Games: games})
	}
	links, err := d.linker.Links(id, *sess.Profile)
	if err != nil {
		return append(out, Reply{Text: "No games are available right now. Please check back later."})
	}
	return append(out, Reply{Text: "🎮 Choose a game:", Links: links})
}

func (d *Dispatcher) invite(id profile.Identity) Reply {
	base := strings.TrimSpace(d.cfg.InviteURL)
	if base == "" {
		return Reply{Text: "Invites are not available right now."}
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	link := base + sep + "start=ref_" + strconv.FormatInt(id.ID, 10)
	return Reply{Text: "Share this link to invite friends: " + link}
}

func (d *Dispatcher) renderBoard(ctx context.Context, sess *session.Session, id profile.Identity, page int, edit bool) Reply {
	p := d.board.RenderPage(ctx, sess, id, page)
	format := FormatHTML
	if len(p.Controls) == 0 {
		format = FormatPlain
	}
	return Reply{Text: p.Text, Format: format, Controls: p.Controls, Edit: edit}
}

func firstName(id profile.Identity) string {
	if n := strings.TrimSpace(id.FirstName); n != "" {
		return n
	}
	return id.Handle()
}
