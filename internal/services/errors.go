package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind classifies domain failures for the HTTP error handler
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a domain failure raised where it is detected and translated to a
// status code in one place
type Error struct {
	Kind    ErrorKind
	Message string
	// Details holds every message of a validation failure
	Details []string
}

func (e *Error) Error() string {
	if e.Kind == KindValidation && len(e.Details) > 0 {
		return strings.Join(e.Details, "; ")
	}
	return e.Message
}

func Validation(details ...string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Details: details}
}

func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// IsKind reports whether err is a domain error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// validator collects validation messages
type validator []string

func (v *validator) check(ok bool, msg string) {
	if !ok {
		*v = append(*v, msg)
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return Validation(v...)
}

// notFoundOr maps gorm.ErrRecordNotFound to a not-found error and wraps anything else
func notFoundOr(err error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("%s %v not found", what, id)
	}
	return fmt.Errorf("failed to fetch %s: %w", what, err)
}
