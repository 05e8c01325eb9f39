package services

import (
	"errors"
	"fmt"
)

// Kind groups error codes by how a caller should react.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindTransient  Kind = "transient" // store trouble, retryable
)

// Error is the tagged failure returned by every service operation.
type Error struct {
	Kind    Kind
	Code    string // machine-readable, e.g. "TEAM_FULL"
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by code so wrapped copies still equal their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// withMessage copies a sentinel with a more specific message.
func withMessage(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// storeError wraps an unexpected persistence failure as transient.
func storeError(op string, err error) *Error {
	return &Error{Kind: KindTransient, Code: "STORE_UNAVAILABLE", Message: op + " failed", Cause: err}
}

// KindOf returns the kind of a service error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

var (
	// Not found
	ErrEventNotFound        = newError(KindNotFound, "EVENT_NOT_FOUND", "event not found")
	ErrRegistrationNotFound = newError(KindNotFound, "REGISTRATION_NOT_FOUND", "registration not found")
	ErrCheckpointNotFound   = newError(KindNotFound, "CHECKPOINT_NOT_FOUND", "checkpoint not found")
	ErrUserNotFound         = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrTeamNotFound         = newError(KindNotFound, "TEAM_NOT_FOUND", "team not found")

	// Conflict
	ErrAlreadyRegistered  = newError(KindConflict, "ALREADY_REGISTERED", "already registered for this event")
	ErrInvalidJoinCode    = newError(KindConflict, "INVALID_JOIN_CODE", "no team with this join code in this event")
	ErrTeamFull           = newError(KindConflict, "TEAM_FULL", "team is full")
	ErrRegistrationClosed = newError(KindConflict, "REGISTRATION_CLOSED", "registration is closed for this event")
	ErrInvalidTransition  = newError(KindConflict, "INVALID_TRANSITION", "event status can only move forward")
	ErrForbiddenRole      = newError(KindConflict, "ROLE_NOT_GRANTABLE", "cannot grant a role above your own")
	ErrNotPendingReview   = newError(KindConflict, "NOT_PENDING_REVIEW", "checkpoint is not awaiting review")

	// Validation
	ErrNotRegistered   = newError(KindValidation, "NOT_REGISTERED", "no registration for this event")
	ErrInvalidWeek     = newError(KindValidation, "INVALID_WEEK", "week number must be 1 or greater")
	ErrMissingContent  = newError(KindValidation, "MISSING_CONTENT", "checkpoint content is required")
	ErrMissingFeedback = newError(KindValidation, "MISSING_FEEDBACK", "feedback is required when requesting changes")
	ErrInvalidDomain   = newError(KindValidation, "INVALID_DOMAIN", "domain is not offered by this event")
	ErrMissingField    = newError(KindValidation, "MISSING_FIELD", "a required registration field is missing")
	ErrTeamRequired    = newError(KindValidation, "TEAM_REQUIRED", "this event requires creating or joining a team")
	ErrInvalidInput    = newError(KindValidation, "INVALID_INPUT", "invalid input")

	// Transient
	ErrJoinCodeExhausted = newError(KindTransient, "JOIN_CODE_EXHAUSTED", "could not allocate a unique join code")
)
