package api

import "errors"

// Kind classifies a remote failure into the categories the UI layer branches
// on. Every Error carries a human-readable message suitable for direct
// display; callers never see raw transport strings.
type Kind string

const (
	// KindUnauthenticated means the session is invalid; the caller should
	// clear local session state and redirect to login.
	KindUnauthenticated Kind = "unauthenticated"
	// KindConflict means a referential constraint was violated, e.g. deleting
	// a location that still has items.
	KindConflict Kind = "conflict"
	KindNotFound Kind = "not_found"
	// KindValidation means the server rejected one or more fields.
	KindValidation Kind = "validation_failed"
	// KindUnavailable covers transport-level failures and timeouts, distinct
	// from application errors. The operation did not observably complete.
	KindUnavailable Kind = "unavailable"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func errKind(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

func IsUnauthenticated(err error) bool { k, ok := errKind(err); return ok && k == KindUnauthenticated }
func IsConflict(err error) bool        { k, ok := errKind(err); return ok && k == KindConflict }
func IsNotFound(err error) bool        { k, ok := errKind(err); return ok && k == KindNotFound }
func IsValidation(err error) bool      { k, ok := errKind(err); return ok && k == KindValidation }
func IsUnavailable(err error) bool     { k, ok := errKind(err); return ok && k == KindUnavailable }

// UserMessage extracts the displayable message from a remote error, falling
// back to the raw error text for unexpected failures.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
