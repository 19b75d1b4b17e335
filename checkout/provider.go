package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider is the hosted payment provider client used by the Flow. The
// provider owns every payment decision; the Flow only correlates requests.
type Provider interface {
	// PaymentMethods lists the payment methods available for the merchant.
	PaymentMethods(ctx context.Context, req *PaymentMethodsRequest) (*PaymentMethods, error)
	// Payments submits a payment.
	Payments(ctx context.Context, req *PaymentRequest) (*PaymentResult, error)
	// PaymentDetails submits the additional details collected after an
	// action to complete a payment.
	PaymentDetails(ctx context.Context, req *DetailsRequest) (*DetailsResult, error)
}

// ProviderError is returned when a provider call fails. Status is the HTTP
// status reported by the provider, or the one that best describes the
// failure when the provider could not be reached.
type ProviderError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment provider error [%d %s]: %s - %v", e.Status, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("payment provider error [%d %s]: %s", e.Status, e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Temporary returns true if the failure is not caused by the request itself,
// so a later identical call may succeed.
func (e *ProviderError) Temporary() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// ErrProviderUnavailable is returned without calling the provider while the
// circuit breaker is open.
var ErrProviderUnavailable = &ProviderError{
	Status:  http.StatusServiceUnavailable,
	Code:    "provider_unavailable",
	Message: "payment provider temporarily unavailable",
}

// AsProviderError returns err as a *ProviderError. Errors of other types are
// wrapped as a bad gateway error, and context deadlines as a gateway timeout.
func AsProviderError(err error) *ProviderError {
	if err == nil {
		return nil
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{
			Status:  http.StatusGatewayTimeout,
			Code:    "provider_timeout",
			Message: "payment provider did not answer in time",
			Err:     err,
		}
	}
	return &ProviderError{
		Status:  http.StatusBadGateway,
		Code:    "provider_failure",
		Message: "payment provider call failed",
		Err:     err,
	}
}
