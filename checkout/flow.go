// Package checkout drives a payment from its initiation through the optional
// shopper redirect to a terminal outcome. The payment logic itself belongs to
// the Provider; the Flow generates order references, keeps the continuation
// data of payments that need a shopper action and maps result codes to the
// pages shown to the shopper.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/vocdoni/checkout-demo/sessions"
	"go.vocdoni.io/dvote/log"
)

// ShopperRedirectPath is the endpoint the provider sends the shopper back to
// after an additional action. The order reference travels as a query
// parameter named OrderRefParam.
const (
	ShopperRedirectPath = "/api/handleShopperRedirect"
	OrderRefParam       = "orderRef"
)

var (
	// ErrInvalidPaymentMethod is returned when the payment method payload is
	// not a JSON object.
	ErrInvalidPaymentMethod = fmt.Errorf("invalid payment method")
	// ErrInvalidDetails is returned when a details submission carries no
	// details.
	ErrInvalidDetails = fmt.Errorf("invalid payment details")
	// ErrEmptyResponse is returned when the provider answers a payment or a
	// details submission without a result.
	ErrEmptyResponse = fmt.Errorf("empty provider response")
)

// Config holds the merchant data used to build every payment. The amount is
// fixed for the demo shop; a real shop would compute it from the order.
type Config struct {
	MerchantAccount string
	Amount          Amount
	Channel         string
	// ServerURL is the public base URL of this service, used to build the
	// return URL handed to the provider.
	ServerURL string
}

// Flow is the payment orchestration flow.
type Flow struct {
	provider Provider
	store    sessions.Store
	conf     Config
	newRef   func() string
}

// NewFlow creates the flow for the provider and session store provided.
func NewFlow(provider Provider, store sessions.Store, conf *Config) (*Flow, error) {
	if provider == nil {
		return nil, fmt.Errorf("payment provider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if conf == nil || conf.MerchantAccount == "" {
		return nil, fmt.Errorf("merchant account is required")
	}
	if conf.Amount.Currency == "" || conf.Amount.Value <= 0 {
		return nil, fmt.Errorf("invalid payment amount %+v", conf.Amount)
	}
	if _, err := url.ParseRequestURI(conf.ServerURL); err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", conf.ServerURL, err)
	}
	c := *conf
	c.ServerURL = strings.TrimSuffix(c.ServerURL, "/")
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	return &Flow{
		provider: provider,
		store:    store,
		conf:     c,
		newRef:   func() string { return uuid.New().String() },
	}, nil
}

// ReturnURL returns the URL the shopper comes back to after completing an
// action for the order reference provided.
func (f *Flow) ReturnURL(orderRef string) string {
	q := url.Values{}
	q.Set(OrderRefParam, orderRef)
	return f.conf.ServerURL + ShopperRedirectPath + "?" + q.Encode()
}

// PaymentMethods returns the payment methods the provider offers for the
// merchant account.
func (f *Flow) PaymentMethods(ctx context.Context) (*PaymentMethods, error) {
	return f.provider.PaymentMethods(ctx, &PaymentMethodsRequest{
		Channel:         f.conf.Channel,
		MerchantAccount: f.conf.MerchantAccount,
		Amount:          f.conf.Amount,
	})
}

// InitiateRequest is the shopper data collected by the widget.
type InitiateRequest struct {
	PaymentMethod json.RawMessage
	BrowserInfo   json.RawMessage
	Origin        string
}

// InitiateResponse is returned to the widget. A nil Action means the payment
// already reached its result.
type InitiateResponse struct {
	ResultCode    ResultCode      `json:"resultCode"`
	Action        json.RawMessage `json:"action"`
	OrderRef      string          `json:"orderRef"`
	RefusalReason string          `json:"refusalReason,omitempty"`
}

// Initiate submits a new payment. If the provider asks for an additional
// action its continuation data is stored under a fresh order reference,
// which is also embedded in the return URL. Provider failures are returned
// as *ProviderError and leave the session store untouched.
func (f *Flow) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	if req == nil || !isJSONObject(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	orderRef := f.newRef()
	res, err := f.provider.Payments(ctx, &PaymentRequest{
		Amount:          f.conf.Amount,
		Reference:       orderRef,
		MerchantAccount: f.conf.MerchantAccount,
		Channel:         f.conf.Channel,
		ReturnURL:       f.ReturnURL(orderRef),
		Origin:          req.Origin,
		BrowserInfo:     req.BrowserInfo,
		PaymentMethod:   req.PaymentMethod,
		AllowThreeDS2:   true,
	})
	if err != nil {
		log.Warnw("payment submission failed", "orderRef", orderRef, "error", err)
		return nil, AsProviderError(err)
	}
	if res == nil {
		log.Warnw("payment submission returned no result", "orderRef", orderRef)
		return nil, AsProviderError(ErrEmptyResponse)
	}
	resp := &InitiateResponse{
		ResultCode:    res.ResultCode,
		OrderRef:      orderRef,
		RefusalReason: res.RefusalReason,
	}
	if !res.HasAction() {
		log.Infow("payment submitted", "orderRef", orderRef, "resultCode", res.ResultCode)
		return resp, nil
	}
	if err := f.store.Put(ctx, orderRef, sessions.Record{
		PaymentData: res.PaymentData,
		Action:      res.Action,
	}); err != nil {
		return nil, fmt.Errorf("cannot store pending action for %s: %w", orderRef, err)
	}
	resp.Action = res.Action
	log.Infow("payment requires shopper action", "orderRef", orderRef, "resultCode", res.ResultCode)
	return resp, nil
}

// SubmitDetails forwards the details collected by the widget after an
// in-page action (e.g. a native 3-D Secure 2 challenge) to the provider.
func (f *Flow) SubmitDetails(ctx context.Context, req *DetailsRequest) (*DetailsResult, error) {
	if req == nil || len(req.Details) == 0 {
		return nil, ErrInvalidDetails
	}
	res, err := f.provider.PaymentDetails(ctx, req)
	if err != nil {
		log.Warnw("payment details submission failed", "error", err)
		return nil, AsProviderError(err)
	}
	if res == nil {
		return nil, AsProviderError(ErrEmptyResponse)
	}
	return res, nil
}

// Redirect completes a payment after the shopper comes back from the
// provider. The pending record is consumed; a missing record is not an error
// since some flows do not store one. Redirect never fails: every problem
// ends in OutcomeError.
func (f *Flow) Redirect(ctx context.Context, orderRef string, details map[string]string) Outcome {
	rec, err := f.store.Take(ctx, orderRef)
	if err != nil {
		log.Warnw("cannot take pending action, continuing without it", "orderRef", orderRef, "error", err)
		rec = nil
	}
	req := &DetailsRequest{Details: details}
	if rec != nil {
		req.PaymentData = rec.PaymentData
	} else {
		log.Debugw("no pending action for shopper redirect", "orderRef", orderRef)
	}
	res, err := f.provider.PaymentDetails(ctx, req)
	if err != nil {
		log.Warnw("shopper redirect details submission failed", "orderRef", orderRef, "error", err)
		return OutcomeError
	}
	if res == nil {
		log.Warnw("shopper redirect details submission returned no result", "orderRef", orderRef)
		return OutcomeError
	}
	outcome := OutcomeFor(res.ResultCode)
	log.Infow("shopper redirect handled", "orderRef", orderRef, "resultCode", res.ResultCode, "outcome", outcome)
	return outcome
}

func isJSONObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) < 2 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}
