package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for the billing core. Financial calculation errors are
// always surfaced synchronously to the caller; nothing in this package
// defaults a charge to zero.
var (
	ErrNotFound                  = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists             = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation                = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation          = new(ErrCodeInvalidOperation, "invalid operation")
	ErrInvalidStateTransition    = new(ErrCodeInvalidStateTransition, "invalid subscription state transition")
	ErrPriceNotConfigured        = new(ErrCodePriceNotConfigured, "plan pricing not configured")
	ErrContactSalesRequired      = new(ErrCodeContactSalesRequired, "seat count exceeds self-serve tier")
	ErrPaymentNotConfirmed       = new(ErrCodePaymentNotConfirmed, "payment not confirmed by gateway")
	ErrPaymentVerificationFailed = new(ErrCodePaymentVerificationFailed, "payment verification failed")
	ErrDatabase                  = new(ErrCodeDatabase, "database error")
	ErrSystem                    = new(ErrCodeSystemError, "system error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:                  http.StatusNotFound,
		ErrAlreadyExists:             http.StatusConflict,
		ErrValidation:                http.StatusBadRequest,
		ErrInvalidOperation:          http.StatusBadRequest,
		ErrInvalidStateTransition:    http.StatusConflict,
		ErrPriceNotConfigured:        http.StatusUnprocessableEntity,
		ErrContactSalesRequired:      http.StatusUnprocessableEntity,
		ErrPaymentNotConfirmed:       http.StatusPaymentRequired,
		ErrPaymentVerificationFailed: http.StatusBadRequest,
		ErrDatabase:                  http.StatusInternalServerError,
		ErrSystem:                    http.StatusInternalServerError,
	}
)

const (
	ErrCodeNotFound                  = "not_found"
	ErrCodeAlreadyExists             = "already_exists"
	ErrCodeValidation                = "validation_error"
	ErrCodeInvalidOperation          = "invalid_operation"
	ErrCodeInvalidStateTransition    = "invalid_state_transition"
	ErrCodePriceNotConfigured        = "price_not_configured"
	ErrCodeContactSalesRequired      = "contact_sales_required"
	ErrCodePaymentNotConfirmed       = "payment_not_confirmed"
	ErrCodePaymentVerificationFailed = "payment_verification_failed"
	ErrCodeDatabase                  = "database_error"
	ErrCodeSystemError               = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsInvalidStateTransition checks if an error is a state transition error
func IsInvalidStateTransition(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition)
}

// IsContactSalesRequired checks if an error carries the contact-sales
// outcome. Callers should surface it as a flagged response, not a failure.
func IsContactSalesRequired(err error) bool {
	return errors.Is(err, ErrContactSalesRequired)
}

// IsPaymentNotConfirmed checks if an error is a payment not confirmed error
func IsPaymentNotConfirmed(err error) bool {
	return errors.Is(err, ErrPaymentNotConfirmed)
}

// IsPaymentVerificationFailed checks if an error is a verification error
func IsPaymentVerificationFailed(err error) bool {
	return errors.Is(err, ErrPaymentVerificationFailed)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
