// Package commands describes slash commands registered with the core registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and never appear
	// in the public command menu.
	AdminOnly bool
	// Hidden commands work but are left out of the command menu.
	Hidden bool
	// Aliases route to the same handler, e.g. "/menu" for "/start".
	Aliases []string
}

// Endpoints returns the canonical name followed by every alias, each with a
// leading slash.
func (c Command) Endpoints(name string) []string {
	out := []string{withSlash(name)}
	for _, a := range c.Aliases {
		if a = withSlash(a); a != "/" {
			out = append(out, a)
		}
	}
	return out
}

func withSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s
	}
	return "/" + s
}
