package leaderboard

import (
	"strconv"
	"strings"
)

// ControlKind names a navigation action under a rendered page.
type ControlKind string

const (
	ControlPrev    ControlKind = "prev"
	ControlRefresh ControlKind = "refresh"
	ControlNext    ControlKind = "next"
	ControlMe      ControlKind = "me"
)

// TokenPrefix marks leaderboard action tokens.
const TokenPrefix = "lb"

var labels = map[ControlKind]string{
	ControlPrev:    "⬅️ Prev",
	ControlRefresh: "🔄 Refresh",
	ControlNext:    "Next ➡️",
	ControlMe:      "📍 My rank",
}

// Control is one navigation button. Page is the page the action renders, so
// a token can be replayed without any other state.
type Control struct {
	Kind ControlKind
	Page int
}

// Label is the button caption.
func (c Control) Label() string {
	return labels[c.Kind]
}

// Token encodes the control as "lb|<kind>|<page>".
func (c Control) Token() string {
	return TokenPrefix + "|" + string(c.Kind) + "|" + strconv.Itoa(c.Page)
}

// ParseToken decodes a token produced by Control.Token.
func ParseToken(token string) (Control, bool) {
	parts := strings.Split(strings.TrimSpace(token), "|")
	if len(parts) != 3 || parts[0] != TokenPrefix {
		return Control{}, false
	}
	kind := ControlKind(parts[1])
	if _, ok := labels[kind]; !ok {
		return Control{}, false
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil || page < 1 {
		return Control{}, false
	}
	return Control{Kind: kind, Page: page}, true
}

// JumpPage returns the page holding the 1-based rank.
func JumpPage(rank, pageSize int) int {
	if rank < 1 || pageSize < 1 {
		return 1
	}
	return (rank-1)/pageSize + 1
}
