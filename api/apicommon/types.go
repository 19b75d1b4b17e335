package apicommon

import (
	"encoding/json"

	"github.com/vocdoni/checkout-demo/checkout"
)

// InitiatePaymentRequest is the payload posted by the widget once the shopper
// submits the payment form.
// swagger:model InitiatePaymentRequest
type InitiatePaymentRequest struct {
	// The payment method data produced by the widget
	PaymentMethod json.RawMessage `json:"paymentMethod" validate:"required,jsonobject" swaggertype:"object"`

	// Browser data used by the provider for 3-D Secure 2
	BrowserInfo json.RawMessage `json:"browserInfo,omitempty" validate:"omitempty,jsonobject" swaggertype:"object"`

	// The origin of the checkout page, required by some native 3-D Secure flows
	Origin string `json:"origin,omitempty" validate:"omitempty,url,max=256"`
}

// InitiatePaymentResponse is the answer to a payment initiation. A null action
// means the payment already reached its result.
// swagger:model InitiatePaymentResponse
type InitiatePaymentResponse = checkout.InitiateResponse

// SubmitDetailsRequest is the payload posted by the widget after an in-page
// action such as a native 3-D Secure 2 challenge.
// swagger:model SubmitDetailsRequest
type SubmitDetailsRequest struct {
	// Details collected by the widget
	Details map[string]string `json:"details" validate:"required,min=1"`

	// Opaque continuation data returned by the provider with the action
	PaymentData string `json:"paymentData,omitempty"`
}

// SubmitDetailsResponse is the result of a details submission.
// swagger:model SubmitDetailsResponse
type SubmitDetailsResponse = checkout.DetailsResult

// ProviderErrorData is included in the data field of the error returned when
// the payment provider fails.
// swagger:model ProviderErrorData
type ProviderErrorData struct {
	// HTTP status reported by the provider
	Status int `json:"status"`

	// Provider error code
	Code string `json:"code,omitempty"`
}
