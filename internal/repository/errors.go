// Package repository defines error values reused across multiple
// repositories.  These sentinels let handlers distinguish failure
// scenarios: ErrForbidden signals an operation on another tenant's
// resource, ErrConflict a state transition that already happened, and
// ErrNoteQuota a sender table that exhausted its lifetime note budget.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another establishment.  Handlers translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation cannot proceed because the
// record is no longer in the required state, such as responding to a
// note that was already accepted or ignored.
var ErrConflict = errors.New("conflict")

// ErrNoteQuota is returned when a table has already sent its maximum
// number of notes.  Handlers translate this into HTTP 429.
var ErrNoteQuota = errors.New("note quota exceeded")
