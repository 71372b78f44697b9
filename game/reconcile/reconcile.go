// Package reconcile decides when a chat's cached profile is fetched, created or
// refreshed, and merges shared contacts into it.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gomida/gamebot/core/logger"
	"github.com/gomida/gamebot/game/backend"
	"github.com/gomida/gamebot/game/profile"
	"github.com/gomida/gamebot/game/session"
)

const component = "service.profiles"

// Backend is the subset of the backend client the reconciler needs.
type Backend interface {
	CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
	UpdateProfile(ctx context.Context, id int64, p profile.Profile) (profile.Profile, error)
	FetchProfile(ctx context.Context, id int64) (profile.Profile, error)
}

// Outcome tells how the cached profile was obtained.
type Outcome string

const (
	OutcomeCached  Outcome = "cached"
	OutcomeFetched Outcome = "fetched"
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	// OutcomeKept means a refresh failed and the previous snapshot was retained.
	OutcomeKept Outcome = "kept"
	// OutcomeLocal means the profile exists only in the session.
	OutcomeLocal Outcome = "local"
)

// ErrIdentityMismatch marks a backend record whose id is not the requested identity.
var ErrIdentityMismatch = errors.New("reconcile: backend returned a profile of another identity")

// Result is the profile now cached in the session and how it got there.
type Result struct {
	Profile   profile.Profile
	Outcome   Outcome
	Confirmed bool
	// Err is the backend failure that forced a degraded outcome, if any.
	Err error
}

// Reconciler owns every fetch-or-create decision.
type Reconciler struct {
	backend Backend
}

// New builds a Reconciler around b.
func New(b Backend) *Reconciler {
	return &Reconciler{backend: b}
}

// EnsureProfile returns the cached profile or resolves one. It never fails:
// backend errors degrade to a local default profile.
func (r *Reconciler) EnsureProfile(ctx context.Context, sess *session.Session, id profile.Identity) profile.Profile {
	return r.Ensure(ctx, sess, id).Profile
}

// Ensure is EnsureProfile with the resolution details.
func (r *Reconciler) Ensure(ctx context.Context, sess *session.Session, id profile.Identity) Result {
	if sess.Profile != nil && sess.Profile.ID == id.ID {
		return Result{Profile: sess.Profile.Clone(), Outcome: OutcomeCached, Confirmed: sess.Confirmed}
	}
	return r.resolve(ctx, sess, id, "ensure")
}

// Refresh refetches the profile and supersedes the cached snapshot. When the
// backend fails the cached snapshot is kept. A locally known phone is never
// dropped, so a refresh cannot lock an unlocked chat.
func (r *Reconciler) Refresh(ctx context.Context, sess *session.Session, id profile.Identity) Result {
	return r.resolve(ctx, sess, id, "refresh")
}

func (r *Reconciler) resolve(ctx context.Context, sess *session.Session, id profile.Identity, op string) Result {
	start := time.Now()
	var (
		prev *profile.Profile
		res  Result
	)
	if sess.Profile != nil && sess.Profile.ID == id.ID {
		cp := sess.Profile.Clone()
		prev = &cp
	}

	fetched, err := r.backend.FetchProfile(ctx, id.ID)
	if err == nil && fetched.ID != id.ID {
		err = ErrIdentityMismatch
	}

	switch {
	case err == nil:
		res = Result{Profile: fetched, Outcome: OutcomeFetched, Confirmed: true}
	case errors.Is(err, backend.ErrNotFound):
		res = r.create(ctx, id, prev)
	case prev != nil:
		res = Result{Profile: *prev, Outcome: OutcomeKept, Confirmed: sess.Confirmed, Err: err}
	default:
		// Fetch failed without telling us the record is absent; creating here
		// could overwrite an existing remote record.
		res = Result{Profile: profile.Default(id), Outcome: OutcomeLocal, Err: err}
	}

	if prev != nil && prev.HasPhone() && !res.Profile.HasPhone() {
		res.Profile.Phone = prev.Phone
		res.Confirmed = false
	}

	r.store(ctx, sess, &res)
	logReconcile(ctx, op, sess, res, time.Since(start))
	return res
}

func (r *Reconciler) create(ctx context.Context, id profile.Identity, prev *profile.Profile) Result {
	def := profile.Default(id)
	if prev != nil && prev.HasPhone() {
		def.Phone = prev.Phone
	}
	created, err := r.backend.CreateProfile(ctx, def)
	if err != nil {
		return Result{Profile: def, Outcome: OutcomeLocal, Err: err}
	}
	created.ID = id.ID
	return Result{Profile: created, Outcome: OutcomeCreated, Confirmed: true}
}

// ApplyContactShare merges phone into the chat's profile and pushes it to the
// backend. The chat is unlocked as soon as a non-empty phone is supplied,
// whether or not the backend accepts the write.
//
// The write replaces the whole remote record, so it is only issued on top of
// a snapshot read from the backend. An unconfirmed cached profile is fetched
// again first; if the backend still cannot be read the phone stays local.
func (r *Reconciler) ApplyContactShare(ctx context.Context, sess *session.Session, id profile.Identity, phone string) Result {
	phone = strings.TrimSpace(phone)
	base := r.Ensure(ctx, sess, id)
	if phone == "" {
		return base
	}
	if base.Outcome == OutcomeCached && !base.Confirmed {
		base = r.Refresh(ctx, sess, id)
	}

	start := time.Now()
	merged := base.Profile.Clone()
	merged.ID = id.ID
	merged.Phone = phone

	res := Result{Profile: merged, Outcome: OutcomeLocal}
	if !base.backed() {
		res.Err = base.Err
		r.store(ctx, sess, &res)
		logReconcile(ctx, "contact", sess, res, time.Since(start))
		return res
	}
	updated, err := r.backend.UpdateProfile(ctx, id.ID, merged)
	if err != nil {
		res.Err = err
	} else {
		updated.ID = id.ID
		res = Result{Profile: updated, Outcome: OutcomeUpdated, Confirmed: true}
		if !updated.HasPhone() {
			res.Profile.Phone = phone
			res.Confirmed = false
		}
	}

	r.store(ctx, sess, &res)
	logReconcile(ctx, "contact", sess, res, time.Since(start))
	return res
}

// backed reports whether res.Profile mirrors a record read from or written to
// the backend, as opposed to a local stand-in.
func (res Result) backed() bool {
	switch res.Outcome {
	case OutcomeFetched, OutcomeCreated, OutcomeUpdated:
		return true
	case OutcomeCached:
		return res.Confirmed
	}
	return false
}

func (r *Reconciler) store(ctx context.Context, sess *session.Session, res *Result) {
	if err := sess.SetProfile(res.Profile, res.Confirmed); err != nil {
		// Only reachable when the session belongs to another identity.
		logger.Error(ctx, component, "profile.store",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func logReconcile(ctx context.Context, op string, sess *session.Session, res Result, took time.Duration) {
	status, level := "ok", slog.LevelDebug
	if res.Err != nil {
		status, level = "fail", slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("op", op),
		slog.String("outcome", string(res.Outcome)),
		slog.Bool("confirmed", res.Confirmed),
		slog.String("state", string(sess.State())),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if res.Profile.HasPhone() {
		attrs = append(attrs, slog.String("phone", res.Profile.Phone))
	}
	if res.Err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(res.Err.Error(), 256)))
	}
	logger.Event(ctx, component, level, "profile.reconcile", attrs...)
}
