package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that the backend has no profile for the requested id.
// It is a valid outcome, not a failure.
var ErrNotFound = errors.New("backend: profile not found")

// Kind classifies a backend failure.
type Kind string

const (
	// KindUnavailable covers network errors and timeouts.
	KindUnavailable Kind = "unavailable"
	// KindRejected covers non-success HTTP statuses.
	KindRejected Kind = "rejected"
	// KindMalformed covers payloads that cannot be decoded.
	KindMalformed Kind = "malformed"
)

// Error is the uniform failure returned by Client.
type Error struct {
	Op     string
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("backend ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Code is picked up by the router when deriving err_code for handler summaries.
func (e *Error) Code() string {
	return "backend_" + string(e.Kind)
}

// IsFailure reports whether err is anything other than success or ErrNotFound.
func IsFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound)
}
