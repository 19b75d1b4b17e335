// Package stripe implements the checkout payment provider on top of Stripe
// PaymentIntents. A payment is created and confirmed in a single call; when
// Stripe requires 3-D Secure the intent carries a redirect_to_url next action
// and the shopper comes back with the payment_intent query parameter.
package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripepaymentintent "github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/vocdoni/checkout-demo/checkout"
	"go.vocdoni.io/dvote/log"
)

// redirectIntentParam is the query parameter Stripe appends to the return URL
// with the PaymentIntent ID.
const redirectIntentParam = "payment_intent"

// Client wraps the Stripe API client and implements checkout.Provider.
type Client struct {
	config *Config

	newIntent func(*stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
	getIntent func(string, *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) *Client {
	stripeapi.Key = config.APIKey

	return &Client{
		config:    config,
		newIntent: stripepaymentintent.New,
		getIntent: stripepaymentintent.Get,
	}
}

// widgetPaymentMethod is the payment method payload sent by Stripe.js once
// the shopper has entered the payment details.
type widgetPaymentMethod struct {
	ID            string `json:"id"`
	PaymentMethod string `json:"paymentMethod"`
	Type          string `json:"type"`
}

// redirectAction is the action returned to the page when Stripe asks to
// redirect the shopper to the issuer.
type redirectAction struct {
	Type              string `json:"type"`
	Method            string `json:"method"`
	URL               string `json:"url"`
	PaymentMethodType string `json:"paymentMethodType,omitempty"`
}

// sdkAction is returned when the next action must be handled by Stripe.js.
type sdkAction struct {
	Type         string `json:"type"`
	ClientSecret string `json:"clientSecret"`
}

// PaymentMethods returns the configured payment method types.
func (c *Client) PaymentMethods(_ context.Context, _ *checkout.PaymentMethodsRequest) (*checkout.PaymentMethods, error) {
	methods := &checkout.PaymentMethods{}
	for _, t := range c.config.PaymentMethodTypes {
		methods.Methods = append(methods.Methods, checkout.PaymentMethod{
			Type: t,
			Name: displayName(t),
		})
	}
	return methods, nil
}

// Payments creates and confirms a PaymentIntent for the request. Card
// declines are returned as a Refused result.
func (c *Client) Payments(ctx context.Context, req *checkout.PaymentRequest) (*checkout.PaymentResult, error) {
	pm := &widgetPaymentMethod{}
	if err := json.Unmarshal(req.PaymentMethod, pm); err != nil {
		return nil, &checkout.ProviderError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_request_error",
			Message: "malformed payment method",
			Err:     err,
		}
	}
	pmID := pm.ID
	if pmID == "" {
		pmID = pm.PaymentMethod
	}
	if pmID == "" {
		return nil, &checkout.ProviderError{
			Status:  http.StatusBadRequest,
			Code:    string(stripeapi.ErrorCodeParameterMissing),
			Message: "payment method id is required",
		}
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:        stripeapi.Int64(req.Amount.Value),
		Currency:      stripeapi.String(strings.ToLower(req.Amount.Currency)),
		PaymentMethod: stripeapi.String(pmID),
		Confirm:       stripeapi.Bool(true),
		ReturnURL:     stripeapi.String(req.ReturnURL),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.Reference)
	params.AddMetadata("reference", req.Reference)
	params.AddMetadata("merchant_account", req.MerchantAccount)
	params.AddMetadata("channel", req.Channel)
	if req.AllowThreeDS2 {
		// let Stripe decide when 3-D Secure is needed
		params.PaymentMethodOptions = &stripeapi.PaymentIntentPaymentMethodOptionsParams{
			Card: &stripeapi.PaymentIntentPaymentMethodOptionsCardParams{
				RequestThreeDSecure: stripeapi.String("automatic"),
			},
		}
	}

	intent, err := c.newIntent(params)
	if err != nil {
		if apiErr, ok := cardError(err); ok {
			log.Debugw("stripe card declined", "reference", req.Reference, "declineCode", apiErr.DeclineCode)
			return &checkout.PaymentResult{
				ResultCode:    checkout.ResultRefused,
				RefusalReason: apiErr.Msg,
			}, nil
		}
		return nil, providerError("failed to create payment intent", err)
	}
	return intentResult(intent, pm.Type), nil
}

// PaymentDetails retrieves the PaymentIntent once the shopper is back. The
// intent ID is the stored payment data or, if the pending record was lost,
// the payment_intent parameter Stripe adds to the return URL.
func (c *Client) PaymentDetails(ctx context.Context, req *checkout.DetailsRequest) (*checkout.DetailsResult, error) {
	intentID := req.PaymentData
	if intentID == "" {
		intentID = req.Details[redirectIntentParam]
	}
	if intentID == "" {
		return nil, &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    string(stripeapi.ErrorCodeParameterMissing),
			Message: "payment intent is required",
		}
	}
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx
	intent, err := c.getIntent(intentID, params)
	if err != nil {
		return nil, providerError("failed to get payment intent", err)
	}
	res := intentResult(intent, "")
	return &checkout.DetailsResult{
		ResultCode:    res.ResultCode,
		PSPReference:  res.PSPReference,
		RefusalReason: res.RefusalReason,
	}, nil
}

// intentResult maps the status of a PaymentIntent to a checkout result.
func intentResult(intent *stripeapi.PaymentIntent, methodType string) *checkout.PaymentResult {
	res := &checkout.PaymentResult{PSPReference: intent.ID}
	switch intent.Status {
	case stripeapi.PaymentIntentStatusSucceeded, stripeapi.PaymentIntentStatusRequiresCapture:
		res.ResultCode = checkout.ResultAuthorised
	case stripeapi.PaymentIntentStatusProcessing:
		res.ResultCode = checkout.ResultReceived
	case stripeapi.PaymentIntentStatusRequiresAction:
		res.PaymentData = intent.ID
		if intent.NextAction != nil && intent.NextAction.RedirectToURL != nil {
			res.ResultCode = checkout.ResultRedirectShopper
			res.Action = mustMarshal(&redirectAction{
				Type:              "redirect",
				Method:            http.MethodGet,
				URL:               intent.NextAction.RedirectToURL.URL,
				PaymentMethodType: methodType,
			})
		} else {
			res.ResultCode = checkout.ResultChallengeShopper
			res.Action = mustMarshal(&sdkAction{Type: "sdk", ClientSecret: intent.ClientSecret})
		}
	case stripeapi.PaymentIntentStatusRequiresPaymentMethod:
		res.ResultCode = checkout.ResultRefused
		if intent.LastPaymentError != nil {
			res.RefusalReason = intent.LastPaymentError.Msg
		}
	case stripeapi.PaymentIntentStatusCanceled:
		res.ResultCode = checkout.ResultCancelled
	default:
		res.ResultCode = checkout.ResultError
	}
	return res
}

func displayName(methodType string) string {
	switch methodType {
	case "card":
		return "Credit Card"
	case "sepa_debit":
		return "SEPA Direct Debit"
	case "ideal":
		return "iDEAL"
	default:
		if methodType == "" {
			return ""
		}
		return strings.ToUpper(methodType[:1]) + strings.ReplaceAll(methodType[1:], "_", " ")
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
