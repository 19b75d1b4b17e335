// Package errors provides custom error types and definitions for the application.
//
//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the shopper's (or the widget's)
// fault and return HTTP Status 400 or 404, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault and return HTTP Status 500
// or 503, or the status reported by the payment provider.
//
// NEVER change any of the current error codes, only append new errors after
// the current last 4XXX or 5XXX. Gaps in the sequence are codes that were used
// in the past and shouldn't be reused.
var (
	// Validation errors (400)
	ErrMalformedBody        = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrInvalidPaymentMethod = Error{Code: 40040, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid payment method"), LogLevel: "info"}
	ErrInvalidDetails       = Error{Code: 40041, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid payment details"), LogLevel: "info"}

	// Not found errors (404)
	ErrNotFound = Error{Code: 40400, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}

	// Server errors (500)
	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("failed to marshal server response")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
	ErrSessionStore               = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("session store failure")}
	// ErrPaymentProvider is answered with the HTTP status the provider reported.
	ErrPaymentProvider = Error{Code: 50005, HTTPstatus: http.StatusBadGateway, Err: fmt.Errorf("payment provider failed"), LogLevel: "warn"}

	// Service unavailable (503)
	ErrProviderUnavailable = Error{Code: 50301, HTTPstatus: http.StatusServiceUnavailable, Err: fmt.Errorf("payment provider unavailable"), LogLevel: "warn"}
)
