package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the simple failure kinds. Callers wrap them with
// fmt.Errorf("...: %w", ...) to add context.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a request that failed field validation before
// reaching any workflow logic.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientQuantityError reports that available stock is below the
// requested amount. The message always embeds both counts.
type InsufficientQuantityError struct {
	Available int
	Requested int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity: available %d, requested %d", e.Available, e.Requested)
}

// InvalidStateTransitionError reports an operation applied to an entity whose
// status does not permit it, e.g. approving an already-approved transfer.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %s", e.Action, e.Entity, e.From)
}

// InvariantViolationError reports a ledger mutation that would break
// available + assigned <= quantity or push a counter negative.
type InvariantViolationError struct {
	Msg string
}

func (e *InvariantViolationError) Error() string {
	return e.Msg
}

// HTTPStatus maps an error to the status code the API contract prescribes.
// Anything unrecognized is a 500.
func HTTPStatus(err error) int {
	var (
		validation   *ValidationError
		insufficient *InsufficientQuantityError
		transition   *InvalidStateTransitionError
		invariant    *InvariantViolationError
	)

	switch {
	case errors.As(err, &validation),
		errors.As(err, &insufficient),
		errors.As(err, &transition),
		errors.As(err, &invariant):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether the error should be surfaced verbatim to the
// caller. Internal errors get a generic message instead.
func IsClientError(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
