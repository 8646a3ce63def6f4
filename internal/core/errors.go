package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrIngestion  = errors.New("ingestion failed")
)

// Store-level sentinels returned by persistence adapters.
// The Registry translates them into typed errors.
var (
	ErrRowNotFound      = errors.New("row not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrRestricted       = errors.New("delete restricted by dependent rows")
	ErrMissingReference = errors.New("referenced row does not exist")
)

// Entity names used in error context.
const (
	EntityMimeType      = "mime type"
	EntityFileExtension = "file extension"
)

// Error is the single typed failure of the registry. Context is attached
// where the failure is detected and is not re-wrapped on the way up.
type Error struct {
	Kind   error  // one of ErrValidation, ErrNotFound, ErrConflict, ErrIngestion
	Op     string // operation, e.g. "add", "update", "lookup"
	Entity string // EntityMimeType or EntityFileExtension
	Key    string // offending identity, e.g. "image/png" or ".png"
	Field  string // offending field, if any
	Msg    string // human-readable detail
	Err    error  // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Entity != "" {
		b.WriteString(" ")
		b.WriteString(e.Entity)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}
	b.WriteString(": ")
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil && e.Msg == "" {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationErr(op, entity, key, field, msg string) *Error {
	return &Error{Kind: ErrValidation, Op: op, Entity: entity, Key: key, Field: field, Msg: msg}
}

func notFoundErr(op, entity, key string) *Error {
	return &Error{Kind: ErrNotFound, Op: op, Entity: entity, Key: key}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// AsError returns the typed registry error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
