package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomida/gamebot/game/dispatch"
	"github.com/gomida/gamebot/game/leaderboard"
	"github.com/gomida/gamebot/game/menu"
	"github.com/gomida/gamebot/game/play"
	"github.com/gomida/gamebot/game/profile"

	tele "gopkg.in/telebot.v4"
)

func TestParseMode(t *testing.T) {
	assert.Equal(t, tele.ModeHTML, parseMode(dispatch.FormatHTML))
	assert.Equal(t, tele.ModeMarkdownV2, parseMode(dispatch.FormatMarkdownV2))
	assert.Equal(t, tele.ModeDefault, parseMode(dispatch.FormatPlain))
}

func TestContactMenuRequestsContact(t *testing.T) {
	l := menu.Contact()
	opts := sendOptions(dispatch.Reply{Text: "hi", Menu: &l})
	require.NotNil(t, opts.ReplyMarkup)
	kb := opts.ReplyMarkup.ReplyKeyboard
	require.NotEmpty(t, kb)
	assert.True(t, kb[0][0].Contact)
	assert.Equal(t, menu.BtnShareContact, kb[0][0].Text)
}

func TestControlsBecomeInlineButtons(t *testing.T) {
	opts := sendOptions(dispatch.Reply{
		Text:   "board",
		Format: dispatch.FormatHTML,
		Controls: []leaderboard.Control{
			{Kind: leaderboard.ControlPrev, Page: 1},
			{Kind: leaderboard.ControlRefresh, Page: 2},
			{Kind: leaderboard.ControlNext, Page: 3},
			{Kind: leaderboard.ControlMe, Page: 5},
		},
	})
	inline := opts.ReplyMarkup.InlineKeyboard
	require.Len(t, inline, 2)
	assert.Len(t, inline[0], 3)
	me := inline[1][0]
	assert.Equal(t, leaderboard.TokenPrefix, me.Unique)
	assert.Equal(t, "me|5", me.Data)

	ctrl, ok := leaderboard.ParseToken(me.Unique + "|" + me.Data)
	require.True(t, ok)
	assert.Equal(t, 5, ctrl.Page)
}

func TestLinksBecomeURLButtons(t *testing.T) {
	opts := sendOptions(dispatch.Reply{Links: []play.Link{
		{Game: play.Game{ShortName: "flags", Title: "Flags"}, URL: "https://g.example.com/flags?user_id=1"},
	}})
	inline := opts.ReplyMarkup.InlineKeyboard
	require.Len(t, inline, 1)
	assert.Equal(t, "https://g.example.com/flags?user_id=1", inline[0][0].URL)
	assert.Equal(t, "🎮 Flags", inline[0][0].Text)
}

func TestRemoveMenu(t *testing.T) {
	opts := sendOptions(dispatch.Reply{Text: "bye", RemoveMenu: true})
	assert.True(t, opts.ReplyMarkup.RemoveKeyboard)
}

func TestCallbackAnswer(t *testing.T) {
	_, ok := callbackAnswer(dispatch.Reply{Text: "x"})
	assert.False(t, ok)

	resp, ok := callbackAnswer(dispatch.Reply{Notice: "Game not found!", Alert: true})
	require.True(t, ok)
	assert.True(t, resp.ShowAlert)

	resp, ok = callbackAnswer(dispatch.Reply{URL: "https://g.example.com"})
	require.True(t, ok)
	assert.Equal(t, "https://g.example.com", resp.URL)
}

func TestIdentityOf(t *testing.T) {
	id := identityOf(&tele.User{ID: 5, FirstName: "Abebe", Username: "abebe", LanguageCode: "am"})
	assert.Equal(t, profile.Identity{ID: 5, FirstName: "Abebe", Username: "abebe", Locale: "am"}, id)
}
