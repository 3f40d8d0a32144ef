// Package common provides shared infrastructure for the journal services:
// the domain error vocabulary and structured logging built on logrus.
//
// Error Handling:
//
//	Domain errors carry a Kind from a closed set. Every layer returns them
//	unchanged; the transport layer maps kinds to HTTP status codes. Storage
//	failures and unreachable cases are wrapped as KindInternal.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindInternal covers storage failures and unreachable cases.
	KindInternal Kind = iota

	// KindInvalidArgument covers validation failures, illegal actions for
	// the current state, duplicate referees, and missing parameters.
	KindInvalidArgument

	// KindNotFound means the target manuscript, person, page, or comment
	// does not exist.
	KindNotFound

	// KindConflict means a uniqueness constraint was violated, such as a
	// duplicate email on registration or a duplicate page number.
	KindConflict

	// KindUnauthenticated means credentials are missing or rejected.
	KindUnauthenticated

	// KindForbidden means the caller is authenticated but denied by policy.
	KindForbidden
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a domain error with a kind and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a domain error with the given kind and formatted message.
func E(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error wrapping an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain.
// Errors that are not domain errors classify as KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a domain error to the status code the transport layer
// returns for it. Invalid arguments map to 406, which is what API clients
// already expect for domain-rejected input.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusNotAcceptable
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
