package contract

import "errors"

// ErrRevisionConflict is returned by compare-and-set updates when the row was
// changed since it was read.
var ErrRevisionConflict = errors.New("revision conflict")

// ErrDuplicate is returned when a unique key (such as a session-scoped
// document index) is already taken.
var ErrDuplicate = errors.New("duplicate key")

// ErrNotFound is returned by writes that address a missing row.
var ErrNotFound = errors.New("record not found")
