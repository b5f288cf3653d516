// Package errs defines the engine's error taxonomy. Every failure mode is a
// distinct type or sentinel so callers and handlers never have to collapse
// causes into a generic message.
package errs

import (
	"errors"
	"fmt"

	"goflare.io/redemption/models/enum"
)

var (
	// ErrNotFound means the code, reward or redemption does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means an atomic check-and-increment lost the race: the cap
	// was reached between read and commit. An expected outcome under
	// concurrency, not a system fault, and never retried by the engine.
	ErrConflict = errors.New("conflict: cap reached concurrently")
)

// ValidationError rejects malformed input before any side effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConstraintViolation is an eligibility rejection carrying the exact rule
// that failed.
type ConstraintViolation struct {
	Reason enum.RejectReason
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation: %s", e.Reason)
}

func Violation(reason enum.RejectReason) *ConstraintViolation {
	return &ConstraintViolation{Reason: reason}
}

// IllegalTransition is a state-machine violation, e.g. refunding a USED
// redemption.
type IllegalTransition struct {
	From enum.RedemptionStatus
	To   enum.RedemptionStatus
}

func (e *IllegalTransition) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

func NewIllegalTransition(from, to enum.RedemptionStatus) *IllegalTransition {
	return &IllegalTransition{From: from, To: to}
}

// ReasonOf extracts the rejection reason when err is a ConstraintViolation.
func ReasonOf(err error) (enum.RejectReason, bool) {
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv.Reason, true
	}
	return "", false
}
