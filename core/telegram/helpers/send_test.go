package helpers

import (
	"testing"

	"github.com/gomida/gamebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type sendContext struct {
	tele.Context
	store map[string]any
	sent  []string
	opts  []*tele.SendOptions
}

func newSendContext() *sendContext { return &sendContext{store: map[string]any{}} }

func (s *sendContext) Update() tele.Update   { return tele.Update{ID: 1} }
func (s *sendContext) Sender() *tele.User    { return &tele.User{ID: 7} }
func (s *sendContext) Chat() *tele.Chat      { return &tele.Chat{ID: 7} }
func (s *sendContext) Get(key string) any    { return s.store[key] }
func (s *sendContext) Set(key string, v any) { s.store[key] = v }

func (s *sendContext) Send(what any, opts ...any) error {
	s.sent = append(s.sent, what.(string))
	if len(opts) > 0 {
		s.opts = append(s.opts, opts[0].(*tele.SendOptions))
	}
	return nil
}

func TestSendTextInlineWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	c := newSendContext()
	if err := SendText(c, "hello", &tele.SendOptions{ParseMode: tele.ModeHTML}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != "hello" {
		t.Fatalf("sent = %v", c.sent)
	}
	if len(c.opts) != 1 || c.opts[0].ParseMode != tele.ModeHTML {
		t.Fatal("send options must be forwarded")
	}
}

func TestAsyncUsesDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 4})
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	var ran int
	if err := Async(newSendContext(), "send.text", "sendMessage", func() error {
		ran++
		return nil
	}); err != nil {
		t.Fatalf("async: %v", err)
	}
	d.Close()
	if ran != 1 {
		t.Fatalf("ran = %d, want 1", ran)
	}
}

func TestAsyncFallsBackInlineWhenQueueClosed(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{})
	d.Close()
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	var ran int
	if err := Async(newSendContext(), "send.text", "sendMessage", func() error {
		ran++
		return nil
	}); err != nil {
		t.Fatalf("async: %v", err)
	}
	if ran != 1 {
		t.Fatalf("closed queue must run the job inline, ran = %d", ran)
	}
}
