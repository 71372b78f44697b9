// Package format escapes text for Telegram parse modes.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

var (
	mdV1Re = regexp.MustCompile(`([_*\[` + "`" + `])`)
	mdV2Re = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// MarkdownV2Document renders a plain outline as MarkdownV2. Lines starting with
// "# " become bold headings; everything else is escaped verbatim.
func MarkdownV2Document(src string) string {
	lines := strings.Split(strings.TrimSpace(src), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \r")
		if heading, ok := strings.CutPrefix(line, "# "); ok {
			esc, _ := EscapeMarkdown(heading, MarkdownV2)
			out = append(out, "*"+esc+"*")
			continue
		}
		esc, _ := EscapeMarkdown(line, MarkdownV2)
		out = append(out, esc)
	}
	return strings.Join(out, "\n")
}
