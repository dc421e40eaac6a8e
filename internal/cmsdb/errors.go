package cmsdb

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by the public API wraps one of these.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a payload or argument the store cannot apply.
	// The store does not schema-validate records; this covers malformed
	// patches, empty passwords and similar.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness violation (page slug, user email).
	ErrConflict = errors.New("conflict")

	// ErrIO indicates the backing file could not be read or written.
	ErrIO = errors.New("io failure")

	// ErrClosed indicates an operation was attempted on a closed DB.
	ErrClosed = errors.New("cmsdb closed")

	// ErrInvalidToken indicates a reset token that matches no user or has
	// expired. It wraps [ErrNotFound].
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", ErrNotFound)

	// ErrCorrupt indicates a collection file that is not valid JSON for its
	// collection. It wraps [ErrIO]. The file is never overwritten.
	ErrCorrupt = fmt.Errorf("%w: corrupt collection file", ErrIO)

	// ErrLockTimeout indicates the collection lock could not be acquired in
	// time. It wraps [ErrIO].
	ErrLockTimeout = fmt.Errorf("%w: lock timeout", ErrIO)
)

// Error is the error type returned by all public cmsdb APIs.
//
// The underlying error message appears first, followed by context:
//
//	read pages.json: input/output error (op=get_pages collection=pages)
//
// Use [errors.As] to extract the structured fields:
//
//	var cErr *cmsdb.Error
//	if errors.As(err, &cErr) {
//	    fmt.Printf("%s failed on %s/%s\n", cErr.Op, cErr.Collection, cErr.ID)
//	}
type Error struct {
	// Op is the public operation that failed, e.g. "update_page".
	Op string

	// Collection is the collection the operation touched.
	Collection Collection

	// ID is the record id or lookup key involved, if any.
	ID string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (op=X collection=Y id=Z)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, "op="+e.Op)
	}

	if e.Collection != "" {
		parts = append(parts, "collection="+string(e.Collection))
	}

	if e.ID != "" {
		parts = append(parts, "id="+e.ID)
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	if len(parts) == 0 {
		return cause
	}

	suffix := "(" + strings.Join(parts, " ") + ")"
	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// withContext attaches operation context at API boundaries.
// If err is already *Error, missing fields are filled in place.
func withContext(err error, op string, c Collection, id string) error {
	if err == nil {
		return nil
	}

	existing := &Error{}
	if errors.As(err, &existing) {
		if existing.Op == "" {
			existing.Op = op
		}

		if existing.Collection == "" {
			existing.Collection = c
		}

		if existing.ID == "" && id != "" {
			existing.ID = id
		}

		return existing
	}

	return &Error{Op: op, Collection: c, ID: id, Err: err}
}
