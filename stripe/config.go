package stripe

import (
	"fmt"
	"strings"
)

// DefaultPaymentMethodTypes are offered when no payment method types are
// configured.
var DefaultPaymentMethodTypes = []string{"card"}

// Config holds the Stripe configuration
type Config struct {
	APIKey string `yaml:"api_key" json:"api_key"`
	// PaymentMethodTypes are the Stripe payment method types offered to the
	// shopper. Stripe decides per PaymentIntent whether a method is eligible,
	// so the list comes from configuration rather than from an API call.
	PaymentMethodTypes []string `yaml:"payment_method_types" json:"payment_method_types"`
}

// NewConfig validates and normalizes the Stripe configuration.
func NewConfig(apiKey string, paymentMethodTypes []string) (*Config, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe API key is required")
	}
	if !strings.HasPrefix(apiKey, "sk_") && !strings.HasPrefix(apiKey, "rk_") {
		return nil, fmt.Errorf("stripe API key must be a secret or restricted key")
	}
	var types []string
	for _, t := range paymentMethodTypes {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, strings.ToLower(t))
		}
	}
	if len(types) == 0 {
		types = DefaultPaymentMethodTypes
	}
	return &Config{
		APIKey:             apiKey,
		PaymentMethodTypes: types,
	}, nil
}
