package rating

import (
	"errors"
	"fmt"
)

// CarrierError represents a failed carrier rating call. The aggregator
// isolates these per carrier; they never abort the other carriers.
type CarrierError struct {
	Carrier    CarrierID
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *CarrierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CarrierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CarrierError.
func (e *CarrierError) Is(target error) bool {
	t, ok := target.(*CarrierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCarrierError creates a new CarrierError.
func NewCarrierError(carrier CarrierID, code, message string) *CarrierError {
	return &CarrierError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *CarrierError) WithCause(err error) *CarrierError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *CarrierError) WithStatusCode(code int) *CarrierError {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *CarrierError) WithRetryable(retryable bool) *CarrierError {
	e.Retryable = retryable
	return e
}

// Sentinel errors for common rating scenarios.
var (
	// ErrMissingPostalCode indicates the request has no destination postal code.
	ErrMissingPostalCode = errors.New("missing postal code")

	// ErrMissingCountryCode indicates the request has no destination country.
	ErrMissingCountryCode = errors.New("missing country code")

	// ErrInvalidWeight indicates the package weight is zero or negative.
	ErrInvalidWeight = errors.New("invalid weight")

	// ErrAuthenticationFailed indicates carrier authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrServiceUnavailable indicates the carrier service is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")
)

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var carrierErr *CarrierError
	if errors.As(err, &carrierErr) {
		return carrierErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable)
}

// ValidateRequest rejects requests missing mandatory fields before any
// carrier is invoked.
func ValidateRequest(req *QuoteRequest) error {
	if req.PostalCode == "" {
		return ErrMissingPostalCode
	}
	if req.CountryCode == "" {
		return ErrMissingCountryCode
	}
	if req.Weight <= 0 {
		return ErrInvalidWeight
	}
	return nil
}
