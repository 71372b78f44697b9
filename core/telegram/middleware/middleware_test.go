package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middlewares touch.
type fakeContext struct {
	tele.Context
	update tele.Update
	sender *tele.User
	store  map[string]any
}

func newFake(userID int64, upd tele.Update) *fakeContext {
	return &fakeContext{update: upd, sender: &tele.User{ID: userID}, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update   { return f.update }
func (f *fakeContext) Sender() *tele.User    { return f.sender }
func (f *fakeContext) Chat() *tele.Chat      { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

func counting(n *int) tele.HandlerFunc {
	return func(tele.Context) error {
		*n++
		return nil
	}
}

func TestRateLimit(t *testing.T) {
	var calls, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: counting(&limited),
	})
	h := mw(counting(&calls))
	msg := tele.Update{Message: &tele.Message{}}

	_ = h(newFake(1, msg))
	_ = h(newFake(1, msg))
	_ = h(newFake(2, msg))
	if calls != 2 || limited != 1 {
		t.Fatalf("calls=%d limited=%d, want 2 and 1", calls, limited)
	}

	_ = h(newFake(1, tele.Update{Callback: &tele.Callback{}}))
	if calls != 3 {
		t.Fatal("excluded update kinds must pass")
	}
}

func TestRateLimitForgetsOldestUsers(t *testing.T) {
	var calls int
	h := RateLimitMiddleware(RateLimitOptions{Interval: time.Hour, TrackedUsers: 1})(counting(&calls))
	msg := tele.Update{Message: &tele.Message{}}

	_ = h(newFake(1, msg))
	_ = h(newFake(2, msg))
	_ = h(newFake(1, msg))
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 once user 1 was evicted", calls)
	}
}

func TestWithAdminCheck(t *testing.T) {
	var calls, rejected int
	opts := AdminOptions{AdminIDs: []int64{7}, OnReject: counting(&rejected)}

	h := WithAdminCheck(opts, true, counting(&calls))
	_ = h(newFake(7, tele.Update{}))
	_ = h(newFake(8, tele.Update{}))
	if calls != 1 || rejected != 1 {
		t.Fatalf("calls=%d rejected=%d", calls, rejected)
	}

	open := WithAdminCheck(AdminOptions{}, false, counting(&calls))
	_ = open(newFake(8, tele.Update{}))
	if calls != 2 {
		t.Fatal("non-admin handlers must run for everyone")
	}

	closed := WithAdminCheck(AdminOptions{}, true, counting(&calls))
	_ = closed(newFake(8, tele.Update{}))
	if calls != 2 {
		t.Fatal("admin handlers must be closed when no admin is configured")
	}
}

func TestUpdateKind(t *testing.T) {
	if got := UpdateKind(tele.Update{Query: &tele.Query{}}); got != "inline_query" {
		t.Fatalf("got %q", got)
	}
	if got := UpdateKind(tele.Update{}); got != "other" {
		t.Fatalf("got %q", got)
	}
}
