package checkout

import "encoding/json"

// ResultCode is the provider's outcome of a payment or a details submission.
type ResultCode string

const (
	ResultAuthorised       ResultCode = "Authorised"
	ResultPending          ResultCode = "Pending"
	ResultReceived         ResultCode = "Received"
	ResultRefused          ResultCode = "Refused"
	ResultCancelled        ResultCode = "Cancelled"
	ResultError            ResultCode = "Error"
	ResultRedirectShopper  ResultCode = "RedirectShopper"
	ResultIdentifyShopper  ResultCode = "IdentifyShopper"
	ResultChallengeShopper ResultCode = "ChallengeShopper"
	ResultPresentToShopper ResultCode = "PresentToShopper"
)

// DefaultChannel is the channel reported to the provider for browser
// payments.
const DefaultChannel = "Web"

// Amount is a money amount in minor units of the currency.
type Amount struct {
	Currency string `json:"currency" validate:"required,currency"`
	Value    int64  `json:"value" validate:"gt=0"`
}

// PaymentMethod describes one of the methods the widget can offer.
type PaymentMethod struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Brands []string `json:"brands,omitempty"`
}

// PaymentMethods is the provider answer to a payment methods request. It is
// rendered as-is into the checkout page for the widget.
type PaymentMethods struct {
	Methods []PaymentMethod `json:"paymentMethods"`
}

// PaymentMethodsRequest holds the parameters to list the payment methods.
type PaymentMethodsRequest struct {
	Channel         string
	MerchantAccount string
	Amount          Amount
}

// PaymentRequest holds everything the provider needs to submit a payment.
// BrowserInfo and PaymentMethod are widget payloads forwarded untouched.
type PaymentRequest struct {
	Amount          Amount
	Reference       string
	MerchantAccount string
	Channel         string
	ReturnURL       string
	Origin          string
	BrowserInfo     json.RawMessage
	PaymentMethod   json.RawMessage
	// AllowThreeDS2 lets the provider run a native 3-D Secure 2 flow instead
	// of falling back to the redirect based 3-D Secure 1.
	AllowThreeDS2 bool
}

// PaymentResult is the provider answer to a payment submission. When Action
// is set the shopper must perform an additional step and PaymentData must be
// kept to complete the payment later.
type PaymentResult struct {
	ResultCode    ResultCode
	Action        json.RawMessage
	PaymentData   string
	PSPReference  string
	RefusalReason string
}

// HasAction returns true if the payment requires an additional shopper
// action.
func (r *PaymentResult) HasAction() bool {
	return r != nil && len(r.Action) > 0 && string(r.Action) != "null"
}

// DetailsRequest holds the data to complete a payment after an additional
// action.
type DetailsRequest struct {
	Details     map[string]string
	PaymentData string
}

// DetailsResult is the provider answer to a details submission.
type DetailsResult struct {
	ResultCode    ResultCode `json:"resultCode"`
	PSPReference  string     `json:"pspReference,omitempty"`
	RefusalReason string     `json:"refusalReason,omitempty"`
}
