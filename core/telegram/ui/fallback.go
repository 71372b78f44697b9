// Package ui holds the contracts between the core router and bot-specific
// presentation.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider supplies the handlers used when an update matches no
// command, callback or expected input. UnknownCallback must answer the
// callback query.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
