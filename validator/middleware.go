package validator

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vocdoni/checkout-demo/errors"
	"go.vocdoni.io/dvote/log"
)

// maxBodySize bounds the request bodies decoded by the middleware.
const maxBodySize = 1 << 20

// ValidatedModelKey is the context key of the validated request model.
type ValidatedModelKey struct{}

// ValidationError represents an individual validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a slice of ValidationError.
type ValidationErrors []ValidationError

// Error returns a string representation of the validation errors.
func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return sb.String()
}

// ValidateMiddleware decodes the JSON request body into a new instance of
// the model type and validates it. On success the instance (a pointer) is
// stored in the request context and can be retrieved with GetValidatedModel.
// Decoding failures are answered with ErrMalformedBody and validation
// failures with onInvalid.
func (v *Validator) ValidateMiddleware(model any, onInvalid errors.Error) func(next http.Handler) http.Handler {
	modelType := reflect.TypeOf(model)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			instance := reflect.New(modelType).Interface()

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
			if err != nil {
				errors.ErrMalformedBody.WithErr(err).Write(w)
				return
			}
			// Restore the body for downstream handlers.
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			if err := json.Unmarshal(body, instance); err != nil {
				errors.ErrMalformedBody.WithErr(err).Write(w)
				return
			}

			if err := v.validator.Struct(instance); err != nil {
				validationErrors := toValidationErrors(err)
				log.Debugw("validation errors", "path", r.URL.Path, "errors", validationErrors)
				onInvalid.WithErr(validationErrors).WithData(validationErrors).Write(w)
				return
			}
			ctx := context.WithValue(r.Context(), ValidatedModelKey{}, instance)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetValidatedModel retrieves the validated model from the context.
func GetValidatedModel[T any](ctx context.Context) (*T, bool) {
	model, ok := ctx.Value(ValidatedModelKey{}).(*T)
	return model, ok
}

func toValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}
	var validationErrors ValidationErrors
	for _, fieldErr := range fieldErrs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldErr.Field(),
			Message: getErrorMessage(fieldErr),
		})
	}
	return validationErrors
}

// getErrorMessage returns a human-readable error message for a validation error.
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "jsonobject":
		return "Must be a JSON object"
	case "currency":
		return "Invalid currency code (e.g. EUR)"
	case "url":
		return "Invalid URL format"
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", err.Param())
	default:
		return fmt.Sprintf("Invalid value: %s", err.Tag())
	}
}
