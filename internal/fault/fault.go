package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure so handlers can map it to an HTTP status
// without string matching.
type Kind int

const (
	// Validation covers malformed or out-of-range input.
	Validation Kind = iota
	// Conflict covers overlap, duplicates, already-signed-up, slot-full.
	Conflict
	// Precondition covers comment-required, lead-time and capacity-shrink rules.
	Precondition
	// NotFound covers absent courses, sheets, slots and members.
	NotFound
	// DependencyBlocked covers deletions refused due to dependent records.
	DependencyBlocked
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...interface{}) *Error {
	return New(Validation, format, args...)
}

func Conflicting(format string, args ...interface{}) *Error {
	return New(Conflict, format, args...)
}

func Unmet(format string, args ...interface{}) *Error {
	return New(Precondition, format, args...)
}

func Missing(format string, args ...interface{}) *Error {
	return New(NotFound, format, args...)
}

func Blocked(format string, args ...interface{}) *Error {
	return New(DependencyBlocked, format, args...)
}

// HTTPStatus maps a domain error to a response status. Anything that is not
// a *Error is an infrastructure failure and gets a 500.
func HTTPStatus(err error) int {
	var fe *Error
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError
	}
	switch fe.Kind {
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// IsDomain reports whether err is a classified domain failure rather than an
// infrastructure one.
func IsDomain(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
