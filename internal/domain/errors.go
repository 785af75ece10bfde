package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned to a caller wraps exactly one of them.
var (
	ErrValidation     = errors.New("validation error")
	ErrGuardViolation = errors.New("guard violation")
	ErrRoleViolation  = errors.New("role violation")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

var (
	// Lookups
	ErrBookingNotFound       = fmt.Errorf("%w: booking not found", ErrNotFound)
	ErrAvailabilityNotFound  = fmt.Errorf("%w: seller has no availability configured", ErrNotFound)
	ErrStoreSettingsNotFound = fmt.Errorf("%w: store settings are not configured", ErrNotFound)

	// Input
	ErrEmptyReason   = fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	ErrUnknownAction = fmt.Errorf("%w: unknown action", ErrValidation)
	ErrSlotInPast    = fmt.Errorf("%w: slot is in the past", ErrValidation)

	// Roles
	ErrNotParticipant = fmt.Errorf("%w: actor is not a participant of this booking", ErrRoleViolation)
	ErrSellerOnly     = fmt.Errorf("%w: only the seller may perform this action", ErrRoleViolation)

	// Guards
	ErrBookingFinished    = fmt.Errorf("%w: booking is already finished", ErrGuardViolation)
	ErrNotAwaitingConfirm = fmt.Errorf("%w: booking is not awaiting confirmation", ErrGuardViolation)
	ErrCheckInTooEarly    = fmt.Errorf("%w: check-in window is not open yet", ErrGuardViolation)
	ErrCheckInUnavailable = fmt.Errorf("%w: booking is not open for check-in", ErrGuardViolation)
	ErrAlreadyCheckedIn   = fmt.Errorf("%w: already checked in", ErrGuardViolation)
	ErrNotInProgress      = fmt.Errorf("%w: visit is not in progress", ErrGuardViolation)
	ErrVisitInProgress    = fmt.Errorf("%w: a visit in progress cannot be cancelled", ErrGuardViolation)

	// Conflicts
	ErrSlotUnavailable = fmt.Errorf("%w: slot is not available", ErrConflict)
	ErrSlotTaken       = fmt.Errorf("%w: slot is already booked", ErrConflict)
	ErrStaleBooking    = fmt.Errorf("%w: booking was modified concurrently", ErrConflict)
)

// ValidationError carries per-field messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Stable codes used by transports.
const (
	CodeValidation = "validation_error"
	CodeGuard      = "guard_violation"
	CodeRole       = "role_violation"
	CodeNotFound   = "not_found"
	CodeConflict   = "conflict"
	CodeInternal   = "internal"
)

func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrGuardViolation):
		return CodeGuard
	case errors.Is(err, ErrRoleViolation):
		return CodeRole
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return CodeInternal
	}
}
