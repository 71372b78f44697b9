package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomida/gamebot/game/backend/backendtest"
	"github.com/gomida/gamebot/game/profile"
	"github.com/gomida/gamebot/game/session"
)

func snapshot(n int) []profile.Entry {
	out := make([]profile.Entry, n)
	for i := range out {
		out[i] = profile.Entry{ID: int64(i + 1), Username: fmt.Sprintf("player%02d", i+1), Score: int64(1000 - i)}
	}
	return out
}

func kinds(cs []Control) []ControlKind {
	out := make([]ControlKind, len(cs))
	for i, c := range cs {
		out[i] = c.Kind
	}
	return out
}

func TestCallerOnPageIsMarked(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = []profile.Entry{{ID: 1, Username: "one", Score: 100}, {ID: 2, Username: "two", Score: 90}}
	r := NewRenderer(fake, 15)

	p := r.RenderPage(context.Background(), session.New(2, 2), profile.Identity{ID: 2}, 1)
	assert.Equal(t, 1, p.Pages)
	assert.Equal(t, 2, p.Rank)
	assert.Contains(t, p.Text, "🥇 @one - 100 pts\n")
	assert.Contains(t, p.Text, "🥈 <b>@two - 90 pts 👈 YOU</b>")
	assert.NotContains(t, p.Text, "Your Position")
	assert.Equal(t, []ControlKind{ControlRefresh, ControlMe}, kinds(p.Controls))
}

func TestFetchFailureIsTerminal(t *testing.T) {
	fake := backendtest.New()
	fake.LeaderboardErr = errors.New("boom")
	r := NewRenderer(fake, 15)

	p := r.RenderPage(context.Background(), session.New(2, 2), profile.Identity{ID: 2}, 1)
	assert.Equal(t, MsgUnavailable, p.Text)
	assert.Empty(t, p.Controls)
}

func TestEmptySnapshotIsTerminal(t *testing.T) {
	r := NewRenderer(backendtest.New(), 15)
	p := r.RenderPage(context.Background(), nil, profile.Identity{ID: 2}, 1)
	assert.Equal(t, MsgEmpty, p.Text)
	assert.Empty(t, p.Controls)
}

func TestPagesPartitionSnapshot(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = snapshot(37)
	r := NewRenderer(fake, 15)

	seen := map[string]int{}
	for page := 1; page <= 3; page++ {
		p := r.RenderPage(context.Background(), nil, profile.Identity{ID: 999}, page)
		require.Equal(t, page, p.Page)
		for _, e := range fake.Leaderboard {
			if strings.Contains(p.Text, "@"+e.Username+" ") {
				seen[e.Username]++
			}
		}
	}
	assert.Len(t, seen, 37)
	for name, n := range seen {
		assert.Equal(t, 1, n, name)
	}
}

func TestBadgesUseAbsoluteRank(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = snapshot(12)
	r := NewRenderer(fake, 5)

	p := r.RenderPage(context.Background(), nil, profile.Identity{ID: 999}, 2)
	assert.Contains(t, p.Text, "6️⃣ @player06")
	assert.Contains(t, p.Text, "🔟 @player10")
	p = r.RenderPage(context.Background(), nil, profile.Identity{ID: 999}, 3)
	assert.Contains(t, p.Text, "11. @player11")
}

func TestPageIsClamped(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = snapshot(20)
	r := NewRenderer(fake, 15)
	sess := session.New(1, 1)

	p := r.RenderPage(context.Background(), sess, profile.Identity{ID: 1}, 9)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 2, sess.LeaderboardPage)
	assert.Equal(t, []ControlKind{ControlPrev, ControlRefresh, ControlMe}, kinds(p.Controls))

	p = r.RenderPage(context.Background(), sess, profile.Identity{ID: 1}, -4)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, []ControlKind{ControlRefresh, ControlNext, ControlMe}, kinds(p.Controls))
}

func TestOffPageCallerGetsFooterAndJump(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = snapshot(40)
	r := NewRenderer(fake, 15)

	p := r.RenderPage(context.Background(), nil, profile.Identity{ID: 33}, 1)
	assert.Contains(t, p.Text, "<b>Your Position:</b> #33 - 968 pts")
	me := p.Controls[len(p.Controls)-1]
	assert.Equal(t, ControlMe, me.Kind)
	assert.Equal(t, JumpPage(33, 15), me.Page)
	assert.Equal(t, 3, me.Page)
}

func TestUnrankedCallerFooterUsesLocalScore(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = snapshot(3)
	r := NewRenderer(fake, 15)

	sess := session.New(77, 77)
	require.NoError(t, sess.SetProfile(profile.Profile{ID: 77, Score: 12}, false))
	p := r.RenderPage(context.Background(), sess, profile.Identity{ID: 77}, 1)
	assert.Contains(t, p.Text, "<b>Not ranked yet</b> - 12 pts")
	assert.NotContains(t, kinds(p.Controls), ControlMe)

	p = r.RenderPage(context.Background(), session.New(77, 77), profile.Identity{ID: 77}, 1)
	assert.NotContains(t, p.Text, "Not ranked yet")
}

func TestRenderIsIdempotent(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = snapshot(31)
	r := NewRenderer(fake, 15)

	a := r.RenderPage(context.Background(), nil, profile.Identity{ID: 20}, 2)
	b := r.RenderPage(context.Background(), nil, profile.Identity{ID: 20}, 2)
	assert.Equal(t, a, b)
	assert.Equal(t, 2, fake.Leaderboards, "every render fetches a fresh snapshot")
}

func TestLongNamesAreTruncatedAndEscaped(t *testing.T) {
	fake := backendtest.New()
	fake.Leaderboard = []profile.Entry{{ID: 1, Username: "<script>alert_long_name", Score: 5}, {ID: 2, Score: 1}}
	r := NewRenderer(fake, 15)

	p := r.RenderPage(context.Background(), nil, profile.Identity{ID: 9}, 1)
	assert.Contains(t, p.Text, "@&lt;script&gt;aler... - 5 pts")
	assert.Contains(t, p.Text, "@Unknown - 1 pts")
}

func TestTokensRoundTrip(t *testing.T) {
	for _, c := range []Control{{ControlPrev, 1}, {ControlRefresh, 4}, {ControlNext, 2}, {ControlMe, 7}} {
		got, ok := ParseToken(c.Token())
		require.True(t, ok, c.Token())
		assert.Equal(t, c, got)
	}
	for _, bad := range []string{"", "lb|next", "lb|jump|2", "lb|next|0", "xx|next|2", "lb|next|two"} {
		_, ok := ParseToken(bad)
		assert.False(t, ok, bad)
	}
}

func TestJumpPage(t *testing.T) {
	assert.Equal(t, 1, JumpPage(1, 15))
	assert.Equal(t, 1, JumpPage(15, 15))
	assert.Equal(t, 2, JumpPage(16, 15))
	assert.Equal(t, 1, JumpPage(0, 15))
}
