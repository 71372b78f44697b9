package bot

import (
	"strings"

	"github.com/gomida/gamebot/core/telegram/keyboard"
	"github.com/gomida/gamebot/game/dispatch"
	"github.com/gomida/gamebot/game/leaderboard"
	"github.com/gomida/gamebot/game/menu"
	"github.com/gomida/gamebot/game/play"

	tele "gopkg.in/telebot.v4"
)

// controlsPerRow keeps prev/refresh/next on one row and the jump below.
const controlsPerRow = 3

func parseMode(f dispatch.Format) tele.ParseMode {
	switch f {
	case dispatch.FormatHTML:
		return tele.ModeHTML
	case dispatch.FormatMarkdownV2:
		return tele.ModeMarkdownV2
	}
	return tele.ModeDefault
}

func menuMarkup(l menu.Layout) *tele.ReplyMarkup {
	rows := make([][]keyboard.ReplyBtn, 0, len(l.Rows))
	for _, row := range l.Rows {
		r := make([]keyboard.ReplyBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.ReplyBtn{Text: b.Text, RequestContact: b.RequestContact})
		}
		rows = append(rows, r)
	}
	return keyboard.ReplyRows(rows...)
}

func controlsMarkup(controls []leaderboard.Control) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(controls))
	for _, c := range controls {
		unique, data, _ := strings.Cut(c.Token(), "|")
		btns = append(btns, keyboard.InlineBtn{Text: c.Label(), Unique: unique, Data: data})
	}
	return keyboard.InlineButtonsNPerRow(btns, controlsPerRow)
}

func linksMarkup(links []play.Link) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(links))
	for _, l := range links {
		btns = append(btns, keyboard.InlineBtn{Text: "🎮 " + l.Game.Title, URL: l.URL})
	}
	return keyboard.InlineButtons(btns)
}

// sendOptions maps the presentation fields of a reply to Telegram options.
// Inline markups take precedence over the reply keyboard: a message carries
// one markup only.
func sendOptions(r dispatch.Reply) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: parseMode(r.Format)}
	switch {
	case len(r.Controls) > 0:
		opts.ReplyMarkup = controlsMarkup(r.Controls)
	case len(r.Links) > 0:
		opts.ReplyMarkup = linksMarkup(r.Links)
	case r.Menu != nil:
		opts.ReplyMarkup = menuMarkup(*r.Menu)
	case r.RemoveMenu:
		opts.ReplyMarkup = keyboard.RemoveKeyboard()
	}
	return opts
}

// callbackAnswer reports whether r answers a button press, and how.
func callbackAnswer(r dispatch.Reply) (*tele.CallbackResponse, bool) {
	if r.Notice == "" && r.URL == "" {
		return nil, false
	}
	return &tele.CallbackResponse{Text: r.Notice, ShowAlert: r.Alert, URL: r.URL}, true
}
