package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error as one of the caller-recoverable conditions.
// Anything that is not one of these kinds is treated as an internal fault.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalid
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid_request"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is a caller-visible error with a kind and a human-readable reason.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return e.kind
}

func NotFound(msg string) error {
	return &Error{kind: KindNotFound, msg: msg}
}

func Invalid(format string, args ...interface{}) error {
	return &Error{kind: KindInvalid, msg: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) error {
	return &Error{kind: KindConflict, msg: msg}
}

func Unauthorized(msg string) error {
	return &Error{kind: KindUnauthorized, msg: msg}
}

// KindOf returns the kind of err, unwrapping as needed.
// KindUnknown means the error is not a classified application error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
