package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when an order id resolves to nothing.
	ErrOrderNotFound = errors.New("order not found")
	// ErrPlanNotFound is returned when a plan id/name resolves to nothing.
	ErrPlanNotFound = errors.New("plan not found")
)

// ValidationError reports malformed or missing caller input. It is surfaced
// as a 400 and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a caller input error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GatewayError reports a failure communicating with the payment gateway:
// auth failure, non-2xx response, or transport error/timeout.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway error (status=%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway error: %s", e.Message)
}

// IsGatewayError reports whether err originated from the payment gateway.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
