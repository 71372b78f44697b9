package play

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomida/gamebot/game/profile"
)

var games = []Game{
	{ShortName: "flags", Title: "Flags", URL: "https://games.example.com/flags/?v=2"},
	{ShortName: "maps", URL: "https://games.example.com/maps/"},
}

func TestLinksCarryIdentityAndProfile(t *testing.T) {
	l, err := NewLinker(Options{Games: games})
	require.NoError(t, err)

	id := profile.Identity{ID: 42, FirstName: "Abebe", LastName: "Bikila", Username: "abebe", Locale: "am-ET"}
	p := profile.Profile{ID: 42, Score: 120, FlagsLevel: 2, MapsLevel: 1, AttiresLevel: 3, Phone: "+251911000000"}

	links, err := l.Links(id, p)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "maps", links[1].Game.Title)

	u, err := url.Parse(links[0].URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "2", q.Get("v"), "existing params survive")
	assert.Equal(t, "42", q.Get("tg_user_id"))
	assert.Equal(t, "Abebe", q.Get("tg_first_name"))
	assert.Equal(t, "Bikila", q.Get("tg_last_name"))
	assert.Equal(t, "abebe", q.Get("tg_username"))
	assert.Equal(t, "am", q.Get("tg_language"))
	assert.Equal(t, "120", q.Get("user_score"))
	assert.Equal(t, "42", q.Get("user_id"))
	assert.Equal(t, "2", q.Get("flags_level"))
	assert.Equal(t, "3", q.Get("attires_level"))
	assert.Equal(t, "+251911000000", q.Get("phone"))
	assert.Equal(t, "flags", q.Get("game"))
	assert.False(t, q.Has("token"))
}

func TestEmptyValuesAreSkipped(t *testing.T) {
	l, err := NewLinker(Options{Games: games})
	require.NoError(t, err)

	raw, err := l.URL("maps", profile.Identity{ID: 7}, profile.Default(profile.Identity{ID: 7}))
	require.NoError(t, err)
	u, _ := url.Parse(raw)
	q := u.Query()
	assert.False(t, q.Has("phone"))
	assert.False(t, q.Has("tg_first_name"))
	assert.False(t, q.Has("tg_username"))
	assert.Equal(t, "en", q.Get("tg_language"))
	assert.Equal(t, "0", q.Get("user_score"))
}

func TestUnknownGame(t *testing.T) {
	l, err := NewLinker(Options{Games: games})
	require.NoError(t, err)
	_, err = l.URL("chess", profile.Identity{ID: 1}, profile.Profile{})
	assert.ErrorIs(t, err, ErrUnknownGame)

	_, ok := l.Find("maps")
	assert.True(t, ok)
}

func TestNewLinkerValidates(t *testing.T) {
	_, err := NewLinker(Options{Games: []Game{{ShortName: "x", URL: "ftp://nope"}}})
	assert.Error(t, err)
	_, err = NewLinker(Options{Games: []Game{{URL: "https://ok.example.com"}}})
	assert.Error(t, err)
	_, err = NewLinker(Options{Games: []Game{games[0], games[0]}})
	assert.Error(t, err)
}

func TestSignedTokenVerifies(t *testing.T) {
	l, err := NewLinker(Options{Games: games, SigningSecret: "s3cret", TokenTTL: time.Hour})
	require.NoError(t, err)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	raw, err := l.URL("flags", profile.Identity{ID: 42}, profile.Profile{ID: 42, Score: 9, FlagsLevel: 4})
	require.NoError(t, err)
	u, _ := url.Parse(raw)
	tok := u.Query().Get("token")
	require.NotEmpty(t, tok)

	claims, err := l.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "flags", claims.Game)
	assert.Equal(t, 4, claims.FlagsLevel)
	assert.Equal(t, "42", claims.Subject)

	l.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = l.Verify(tok)
	assert.Error(t, err, "expired token")

	other, _ := NewLinker(Options{Games: games, SigningSecret: "different"})
	other.now = func() time.Time { return now }
	_, err = other.Verify(tok)
	assert.Error(t, err, "wrong key")
}
