// Package leaderboard renders paginated views of a fresh leaderboard snapshot.
package leaderboard

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/gomida/gamebot/core/logger"
	"github.com/gomida/gamebot/game/profile"
	"github.com/gomida/gamebot/game/session"
)

const (
	component = "service.leaderboard"

	// DefaultPageSize is used when no page size is configured.
	DefaultPageSize = 15

	maxNameRunes  = 15
	keepNameRunes = 12

	// MsgUnavailable is shown when the snapshot cannot be fetched.
	MsgUnavailable = "❌ Could not load leaderboard. Please try again later."
	// MsgEmpty is shown when nobody has scored yet.
	MsgEmpty = "🏆 Leaderboard is empty. Be the first to score points!"

	header = "<b>🏆 Global Leaderboard</b>"
	footer = "Play more games to climb the ranks! 🎮"
)

var badges = []string{"🥇", "🥈", "🥉", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

// Source supplies the rank-ordered snapshot.
type Source interface {
	FetchLeaderboard(ctx context.Context) ([]profile.Entry, error)
}

// Page is one rendered view. Controls is empty for terminal renders.
type Page struct {
	Text     string
	Controls []Control
	Page     int
	Pages    int
	// Rank is the caller's absolute rank in the snapshot, 0 when unranked.
	Rank int
}

// Renderer fetches and formats leaderboard pages. It keeps no snapshot between calls.
type Renderer struct {
	src      Source
	pageSize int
}

// NewRenderer builds a Renderer; pageSize <= 0 selects DefaultPageSize.
func NewRenderer(src Source, pageSize int) *Renderer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Renderer{src: src, pageSize: pageSize}
}

// PageSize returns the configured page size.
func (r *Renderer) PageSize() int {
	return r.pageSize
}

// RenderPage fetches the snapshot and renders page for the caller. The page is
// clamped into range and stored as the session's cursor.
func (r *Renderer) RenderPage(ctx context.Context, sess *session.Session, id profile.Identity, page int) Page {
	start := time.Now()
	entries, err := r.src.FetchLeaderboard(ctx)
	if err != nil {
		logger.Warn(ctx, component, "leaderboard.render",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return Page{Text: MsgUnavailable}
	}
	if len(entries) == 0 {
		logger.Debug(ctx, component, "leaderboard.render",
			slog.String("status", "skip"),
			slog.Int("count", 0),
		)
		return Page{Text: MsgEmpty}
	}

	var local *profile.Profile
	if sess != nil {
		local = sess.Profile
	}
	out := r.format(entries, id.ID, local, page)
	if sess != nil {
		sess.LeaderboardPage = out.Page
	}

	logger.Debug(ctx, component, "leaderboard.render",
		slog.String("status", "ok"),
		slog.Int("page", out.Page),
		slog.Int("pages", out.Pages),
		slog.Int("rank", out.Rank),
		slog.Int("count", len(entries)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return out
}

func (r *Renderer) format(entries []profile.Entry, callerID int64, local *profile.Profile, page int) Page {
	total := len(entries)
	pages := (total + r.pageSize - 1) / r.pageSize
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	lo := (page - 1) * r.pageSize
	hi := min(lo+r.pageSize, total)
	rank := profile.Rank(entries, callerID)

	var b strings.Builder
	b.WriteString(header)
	if pages > 1 {
		fmt.Fprintf(&b, "\n<i>Page %d of %d</i>", page, pages)
	}
	b.WriteString("\n\n")

	for i := lo; i < hi; i++ {
		e := entries[i]
		line := fmt.Sprintf("@%s - %d pts", displayName(e.Username), e.Score)
		if e.ID == callerID {
			fmt.Fprintf(&b, "%s <b>%s 👈 YOU</b>\n", badge(i+1), line)
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", badge(i+1), line)
	}

	switch {
	case rank > 0 && (rank <= lo || rank > hi):
		fmt.Fprintf(&b, "\n<b>Your Position:</b> #%d - %d pts\n", rank, entries[rank-1].Score)
	case rank == 0 && local != nil:
		fmt.Fprintf(&b, "\n<b>Not ranked yet</b> - %d pts\n", local.Score)
	}
	b.WriteString("\n")
	b.WriteString(footer)

	controls := make([]Control, 0, 4)
	if page > 1 {
		controls = append(controls, Control{Kind: ControlPrev, Page: page - 1})
	}
	controls = append(controls, Control{Kind: ControlRefresh, Page: page})
	if page < pages {
		controls = append(controls, Control{Kind: ControlNext, Page: page + 1})
	}
	if rank > 0 {
		controls = append(controls, Control{Kind: ControlMe, Page: JumpPage(rank, r.pageSize)})
	}

	return Page{Text: b.String(), Controls: controls, Page: page, Pages: pages, Rank: rank}
}

// badge labels an absolute rank.
func badge(rank int) string {
	if rank >= 1 && rank <= len(badges) {
		return badges[rank-1]
	}
	return fmt.Sprintf("%d.", rank)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown"
	}
	if r := []rune(name); len(r) > maxNameRunes {
		name = string(r[:keepNameRunes]) + "..."
	}
	return html.EscapeString(name)
}
