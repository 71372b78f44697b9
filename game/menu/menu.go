// Package menu maps a chat's unlock state to one of the static reply keyboards
// and maps keyboard captions back to actions.
package menu

import "strings"

// Kind identifies a layout.
type Kind string

const (
	// KindContact asks a new user to share the contact.
	KindContact Kind = "contact"
	// KindLocked is the full menu of a chat without a shared contact.
	KindLocked Kind = "locked"
	// KindUnlocked is the full menu after the contact was shared.
	KindUnlocked Kind = "unlocked"
)

// Action is what a keyboard caption asks for.
type Action string

const (
	ActionAccount      Action = "account"
	ActionPlay         Action = "play"
	ActionInvite       Action = "invite"
	ActionLeaderboard  Action = "leaderboard"
	ActionTerms        Action = "terms"
	ActionSettings     Action = "settings"
	ActionSkipContact  Action = "skip_contact"
	ActionShareContact Action = "share_contact"
)

// Captions.
const (
	BtnAccount      = "👤 Account"
	BtnPlay         = "🎮 Play"
	BtnInvite       = "✉️ Invite"
	BtnLeaderboard  = "👥🏅 Leaderboard"
	BtnTerms        = "📜 Terms & Conditions"
	BtnSettings     = "⚙️ Settings"
	BtnShareContact = "📞 Share Contact"
	BtnSkipContact  = "Skip Contact"
)

// Button is one reply keyboard key.
type Button struct {
	Text           string
	RequestContact bool
}

// Layout is a static reply keyboard.
type Layout struct {
	Kind Kind
	Rows [][]Button
}

// Options tunes the layouts.
type Options struct {
	// PlayRequiresUnlock hides Play from the locked layout.
	PlayRequiresUnlock bool
}

var actions = map[string]Action{
	BtnAccount:     ActionAccount,
	BtnPlay:        ActionPlay,
	BtnInvite:      ActionInvite,
	BtnLeaderboard: ActionLeaderboard,
	BtnTerms:       ActionTerms,
	BtnSettings:    ActionSettings,
	BtnSkipContact: ActionSkipContact,
	// captions of older keyboards still present in users' clients
	"👥🏅 Refferal Leaderboard": ActionLeaderboard,
	"📜Terms & Conditions":      ActionTerms,
}

// Select picks the layout for a chat. onboarding is true right after a start
// that left the chat without a contact.
func Select(unlocked, onboarding bool, opts Options) Layout {
	switch {
	case unlocked:
		return Unlocked()
	case onboarding:
		return Contact()
	default:
		return Locked(opts)
	}
}

// Contact is the onboarding keyboard.
func Contact() Layout {
	return Layout{Kind: KindContact, Rows: [][]Button{
		{{Text: BtnShareContact, RequestContact: true}},
		{{Text: BtnSkipContact}},
	}}
}

// Locked is the feature keyboard shown until the contact is shared.
func Locked(opts Options) Layout {
	first := []Button{{Text: BtnAccount}}
	if !opts.PlayRequiresUnlock {
		first = append(first, Button{Text: BtnPlay})
	}
	return Layout{Kind: KindLocked, Rows: [][]Button{
		first,
		{{Text: BtnInvite}, {Text: BtnLeaderboard}},
		{{Text: BtnTerms}, {Text: BtnSettings}},
		{{Text: BtnShareContact, RequestContact: true}},
	}}
}

// Unlocked is the keyboard with every feature available.
func Unlocked() Layout {
	return Layout{Kind: KindUnlocked, Rows: [][]Button{
		{{Text: BtnAccount}, {Text: BtnPlay}},
		{{Text: BtnInvite}, {Text: BtnLeaderboard}},
		{{Text: BtnTerms}, {Text: BtnSettings}},
	}}
}

// ActionFor resolves a caption typed or tapped by the user.
func ActionFor(text string) (Action, bool) {
	a, ok := actions[strings.TrimSpace(text)]
	return a, ok
}

// Has reports whether the layout shows a caption.
func (l Layout) Has(text string) bool {
	for _, row := range l.Rows {
		for _, b := range row {
			if b.Text == text {
				return true
			}
		}
	}
	return false
}
