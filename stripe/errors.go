package stripe

import (
	"errors"
	"fmt"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/vocdoni/checkout-demo/checkout"
)

// StripeError represents a Stripe-specific error
type StripeError struct {
	Code    string
	Message string
	Err     error
}

func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stripe error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("stripe error [%s]: %s", e.Code, e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.Err
}

// NewStripeError creates a new StripeError with the given code, message, and underlying error
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// providerError converts an error returned by the Stripe API into a
// checkout.ProviderError that keeps the HTTP status and message reported by
// Stripe.
func providerError(message string, err error) *checkout.ProviderError {
	status := http.StatusBadGateway
	code := "api_call_failed"
	msg := message
	var apiErr *stripeapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode != 0 {
			status = apiErr.HTTPStatusCode
		}
		if apiErr.Code != "" {
			code = string(apiErr.Code)
		} else if apiErr.Type != "" {
			code = string(apiErr.Type)
		}
		if apiErr.Msg != "" {
			msg = apiErr.Msg
		}
	}
	return &checkout.ProviderError{
		Status:  status,
		Code:    code,
		Message: msg,
		Err:     NewStripeError(code, message, err),
	}
}

// cardError returns the Stripe error if err is a card decline, which the
// checkout treats as a refused payment rather than a failure.
func cardError(err error) (*stripeapi.Error, bool) {
	var apiErr *stripeapi.Error
	if errors.As(err, &apiErr) && apiErr.Type == stripeapi.ErrorTypeCard {
		return apiErr, true
	}
	return nil, false
}
