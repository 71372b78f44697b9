package bot

import (
	"errors"
	"log/slog"

	"github.com/gomida/gamebot/core/logger"
	tghelpers "github.com/gomida/gamebot/core/telegram/helpers"
	"github.com/gomida/gamebot/game/dispatch"

	tele "gopkg.in/telebot.v4"
)

// deliver answers the pressed button, if any, then sends the remaining
// replies in order as one outbound job.
func (b *Bot) deliver(c tele.Context, replies []dispatch.Reply) error {
	answered := false
	var messages []dispatch.Reply
	for _, r := range replies {
		if resp, ok := callbackAnswer(r); ok {
			if c.Callback() != nil {
				if !answered {
					if err := c.Respond(resp); err != nil {
						return err
					}
					answered = true
				}
				continue
			}
			if r.Notice == "" {
				continue
			}
			r = dispatch.Reply{Text: r.Notice}
		}
		messages = append(messages, r)
	}
	if c.Callback() != nil && !answered {
		if err := c.Respond(); err != nil {
			logger.Debug(tghelpers.BuildContext(c), component, "bot.respond",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return tghelpers.Async(c, "send.replies", "sendMessage", func() error {
		return sendAll(c, messages)
	})
}

func sendAll(c tele.Context, replies []dispatch.Reply) error {
	var errs []error
	for _, r := range replies {
		for _, g := range r.Games {
			if err := c.Send(&tele.Game{Name: g.ShortName}); err != nil {
				errs = append(errs, err)
			}
		}
		if r.Text == "" {
			continue
		}
		opts := sendOptions(r)
		var err error
		if r.Edit && c.Callback() != nil {
			err = c.EditOrSend(r.Text, opts)
			if errors.Is(err, tele.ErrMessageNotModified) {
				err = nil
			}
		} else {
			err = c.Send(r.Text, opts)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
