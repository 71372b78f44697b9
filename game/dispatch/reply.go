package dispatch

import (
	"github.com/gomida/gamebot/game/leaderboard"
	"github.com/gomida/gamebot/game/menu"
	"github.com/gomida/gamebot/game/play"
)

// Format selects the parse mode of a reply.
type Format string

const (
	FormatPlain      Format = ""
	FormatHTML       Format = "HTML"
	FormatMarkdownV2 Format = "MarkdownV2"
)

// Reply is one outbound render instruction. The transport decides how each
// field maps to platform calls.
type Reply struct {
	Text   string
	Format Format
	// Menu replaces the reply keyboard when set.
	Menu *menu.Layout
	// RemoveMenu hides the reply keyboard.
	RemoveMenu bool
	// Controls are inline buttons carrying leaderboard tokens.
	Controls []leaderboard.Control
	// Links are inline URL buttons, one per game.
	Links []play.Link
	// Games are sent as native game messages.
	Games []play.Game
	// Edit replaces the message that carried the pressed inline button.
	Edit bool
	// Notice answers a button press with a toast, or an alert when Alert is set.
	Notice string
	Alert  bool
	// URL answers a game button press by opening the URL.
	URL string
}

func withMenu(r Reply, l menu.Layout) Reply {
	r.Menu = &l
	return r
}
