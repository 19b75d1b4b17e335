package validator

import (
	"bytes"
	"encoding/json"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// currencyRegex matches ISO 4217 alphabetic currency codes.
var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Validator is a wrapper around the go-playground/validator package.
type Validator struct {
	validator *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("jsonobject", validateJSONObject)
	_ = v.RegisterValidation("currency", validateCurrency)

	return &Validator{
		validator: v,
	}
}

// Validate validates a struct using the validator package.
func (v *Validator) Validate(s any) error {
	return v.validator.Struct(s)
}

// validateJSONObject checks that a raw JSON field holds a JSON object. Widget
// payloads are forwarded to the provider untouched, so only their shape is
// checked here.
func validateJSONObject(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.Uint8 {
		return false
	}
	data := bytes.TrimSpace(field.Bytes())
	if len(data) == 0 {
		// use required if the field is mandatory
		return true
	}
	return data[0] == '{' && json.Valid(data)
}

// validateCurrency validates an ISO 4217 currency code.
func validateCurrency(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	return currencyRegex.MatchString(fl.Field().String())
}
