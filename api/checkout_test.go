package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/checkout-demo/checkout"
	"github.com/vocdoni/checkout-demo/errors"
	"github.com/vocdoni/checkout-demo/sessions"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	Data  struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	} `json:"data"`
}

func TestPaymentMethods(t *testing.T) {
	c := qt.New(t)
	provider := &testProvider{methods: &checkout.PaymentMethods{Methods: []checkout.PaymentMethod{
		{Type: "scheme", Name: "Credit Card", Brands: []string{"visa", "mc"}},
	}}}
	srv, _ := startScriptedAPI(c, provider)

	status, body := postJSON(c, srv.URL+paymentMethodsEndpoint, "")
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.JSONEquals, provider.methods)

	provider.methodsErr = &checkout.ProviderError{Status: http.StatusUnauthorized, Code: "000", Message: "Unauthorized"}
	status, body = postJSON(c, srv.URL+paymentMethodsEndpoint, "")
	c.Assert(status, qt.Equals, http.StatusUnauthorized)
	resp := &errorResponse{}
	c.Assert(json.Unmarshal(body, resp), qt.IsNil)
	c.Assert(resp.Code, qt.Equals, errors.ErrPaymentProvider.Code)
	c.Assert(resp.Data.Status, qt.Equals, http.StatusUnauthorized)

	// the checkout page fails the same way
	res, err := http.Get(srv.URL + checkoutPageEndpoint)
	c.Assert(err, qt.IsNil)
	_ = res.Body.Close()
	c.Assert(res.StatusCode, qt.Equals, http.StatusUnauthorized)
}

func TestCheckoutPage(t *testing.T) {
	c := qt.New(t)
	provider := &testProvider{methods: &checkout.PaymentMethods{Methods: []checkout.PaymentMethod{
		{Type: "ideal", Name: "iDEAL"},
	}}}
	srv, _ := startScriptedAPI(c, provider)

	res, err := http.Get(srv.URL + checkoutPageEndpoint)
	c.Assert(err, qt.IsNil)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	c.Assert(res.StatusCode, qt.Equals, http.StatusOK)
	c.Assert(res.Header.Get("Content-Type"), qt.Equals, "text/html; charset=utf-8")
	c.Assert(string(body), qt.Contains, `data-client-key="`+testClientKey+`"`)
	c.Assert(string(body), qt.Contains, `data-environment="test"`)
	c.Assert(string(body), qt.Contains, "iDEAL")
}

func TestInitiatePayment(t *testing.T) {
	c := qt.New(t)
	provider := &testProvider{}
	srv, store := startScriptedAPI(c, provider)
	ctx := context.Background()
	endpoint := srv.URL + initiatePaymentEndpoint

	c.Run("with action", func(c *qt.C) {
		provider.payment = &checkout.PaymentResult{
			ResultCode:  checkout.ResultRedirectShopper,
			Action:      json.RawMessage(`{"type":"redirect","url":"https://issuer.example/3ds","method":"GET"}`),
			PaymentData: "opaque-data",
		}
		provider.paymentErr = nil
		status, body := postJSON(c, endpoint, `{"paymentMethod":{"type":"scheme"}}`)
		c.Assert(status, qt.Equals, http.StatusOK)
		resp := &checkout.InitiateResponse{}
		c.Assert(json.Unmarshal(body, resp), qt.IsNil)
		c.Assert(resp.ResultCode, qt.Equals, checkout.ResultRedirectShopper)
		c.Assert(string(resp.Action), qt.JSONEquals, map[string]string{
			"type": "redirect", "url": "https://issuer.example/3ds", "method": "GET",
		})
		rec, err := store.Take(ctx, resp.OrderRef)
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.Not(qt.IsNil))
		c.Assert(rec.PaymentData, qt.Equals, "opaque-data")
	})

	c.Run("without action", func(c *qt.C) {
		provider.payment = &checkout.PaymentResult{ResultCode: checkout.ResultAuthorised}
		provider.paymentErr = nil
		status, body := postJSON(c, endpoint, `{"paymentMethod":{"type":"scheme"}}`)
		c.Assert(status, qt.Equals, http.StatusOK)
		c.Assert(string(body), qt.Contains, `"action":null`)
		resp := &checkout.InitiateResponse{}
		c.Assert(json.Unmarshal(body, resp), qt.IsNil)
		c.Assert(resp.ResultCode, qt.Equals, checkout.ResultAuthorised)
		rec, err := store.Take(ctx, resp.OrderRef)
		c.Assert(err, qt.IsNil)
		c.Assert(rec == nil, qt.IsTrue)
	})

	c.Run("provider failure", func(c *qt.C) {
		provider.payment = nil
		provider.paymentErr = &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "101",
			Message: "Invalid card number",
		}
		before, err := store.Len(ctx)
		c.Assert(err, qt.IsNil)
		status, body := postJSON(c, endpoint, `{"paymentMethod":{"type":"scheme"}}`)
		c.Assert(status, qt.Equals, http.StatusUnprocessableEntity)
		resp := &errorResponse{}
		c.Assert(json.Unmarshal(body, resp), qt.IsNil)
		c.Assert(resp.Code, qt.Equals, errors.ErrPaymentProvider.Code)
		c.Assert(resp.Error, qt.Contains, "Invalid card number")
		c.Assert(resp.Data.Status, qt.Equals, http.StatusUnprocessableEntity)
		c.Assert(resp.Data.Code, qt.Equals, "101")
		after, err := store.Len(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(after, qt.Equals, before)
	})

	c.Run("provider unavailable", func(c *qt.C) {
		provider.paymentErr = checkout.ErrProviderUnavailable
		status, body := postJSON(c, endpoint, `{"paymentMethod":{"type":"scheme"}}`)
		c.Assert(status, qt.Equals, http.StatusServiceUnavailable)
		c.Assert(string(body), qt.Contains, fmt.Sprintf(`"code":%d`, errors.ErrProviderUnavailable.Code))
	})

	c.Run("invalid requests", func(c *qt.C) {
		for body, code := range map[string]int{
			`{"paymentMethod":`:          errors.ErrMalformedBody.Code,
			`{}`:                         errors.ErrInvalidPaymentMethod.Code,
			`{"paymentMethod":"scheme"}`: errors.ErrInvalidPaymentMethod.Code,
			`{"paymentMethod":{},"browserInfo":"ff"}`: errors.ErrInvalidPaymentMethod.Code,
		} {
			status, resp := postJSON(c, endpoint, body)
			c.Assert(status, qt.Equals, http.StatusBadRequest, qt.Commentf("body %s", body))
			c.Assert(string(resp), qt.Contains, fmt.Sprintf(`"code":%d`, code))
		}
	})
}

func TestSubmitAdditionalDetails(t *testing.T) {
	c := qt.New(t)
	provider := &testProvider{details: &checkout.DetailsResult{
		ResultCode:   checkout.ResultAuthorised,
		PSPReference: "PSP1",
	}}
	srv, _ := startScriptedAPI(c, provider)
	endpoint := srv.URL + submitDetailsEndpoint

	status, body := postJSON(c, endpoint, `{"details":{"threeDSResult":"abc"},"paymentData":"opaque"}`)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.JSONEquals, map[string]string{"resultCode": "Authorised", "pspReference": "PSP1"})
	c.Assert(provider.lastDetails(), qt.DeepEquals, &checkout.DetailsRequest{
		Details:     map[string]string{"threeDSResult": "abc"},
		PaymentData: "opaque",
	})

	status, body = postJSON(c, endpoint, `{"details":{}}`)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(string(body), qt.Contains, fmt.Sprintf(`"code":%d`, errors.ErrInvalidDetails.Code))

	provider.detailsErr = &checkout.ProviderError{Status: http.StatusUnprocessableEntity, Message: "Invalid payload"}
	status, _ = postJSON(c, endpoint, `{"details":{"threeDSResult":"abc"}}`)
	c.Assert(status, qt.Equals, http.StatusUnprocessableEntity)
}

func TestShopperRedirect(t *testing.T) {
	c := qt.New(t)
	provider := &testProvider{}
	srv, store := startScriptedAPI(c, provider)
	ctx := context.Background()
	client := noRedirectClient()
	endpoint := srv.URL + shopperRedirectEndpoint

	location := func(res *http.Response, err error) string {
		c.Assert(err, qt.IsNil)
		_ = res.Body.Close()
		c.Assert(res.StatusCode, qt.Equals, http.StatusSeeOther)
		return res.Header.Get("Location")
	}

	c.Run("outcomes", func(c *qt.C) {
		for code, outcome := range map[checkout.ResultCode]checkout.Outcome{
			checkout.ResultAuthorised: checkout.OutcomeSuccess,
			checkout.ResultPending:    checkout.OutcomePending,
			checkout.ResultReceived:   checkout.OutcomePending,
			checkout.ResultRefused:    checkout.OutcomeFailed,
			checkout.ResultCancelled:  checkout.OutcomeError,
			"SomethingNew":            checkout.OutcomeError,
		} {
			provider.details = &checkout.DetailsResult{ResultCode: code}
			provider.detailsErr = nil
			got := location(client.Get(endpoint + "?orderRef=unknown&redirectResult=x"))
			c.Assert(got, qt.Equals, outcome.Path(), qt.Commentf("result code %s", code))
		}
	})

	c.Run("get consumes the record", func(c *qt.C) {
		provider.details = &checkout.DetailsResult{ResultCode: checkout.ResultAuthorised}
		provider.detailsErr = nil
		c.Assert(store.Put(ctx, "ref-get", pendingRecord("data-get")), qt.IsNil)

		got := location(client.Get(endpoint + "?orderRef=ref-get&redirectResult=token%3D%3D"))
		c.Assert(got, qt.Equals, checkout.OutcomeSuccess.Path())
		c.Assert(provider.lastDetails(), qt.DeepEquals, &checkout.DetailsRequest{
			Details:     map[string]string{"redirectResult": "token=="},
			PaymentData: "data-get",
		})
		rec, err := store.Take(ctx, "ref-get")
		c.Assert(err, qt.IsNil)
		c.Assert(rec == nil, qt.IsTrue)

		// a second redirect finds no record and continues without payment data
		location(client.Get(endpoint + "?orderRef=ref-get&redirectResult=token"))
		c.Assert(provider.lastDetails().PaymentData, qt.Equals, "")
	})

	c.Run("post form", func(c *qt.C) {
		provider.details = &checkout.DetailsResult{ResultCode: checkout.ResultRefused}
		provider.detailsErr = nil
		c.Assert(store.Put(ctx, "ref-post", pendingRecord("data-post")), qt.IsNil)

		got := location(client.PostForm(endpoint+"?orderRef=ref-post", url.Values{
			"MD":    {"md-value"},
			"PaRes": {"pares-value"},
		}))
		c.Assert(got, qt.Equals, checkout.OutcomeFailed.Path())
		c.Assert(provider.lastDetails(), qt.DeepEquals, &checkout.DetailsRequest{
			Details:     map[string]string{"MD": "md-value", "PaRes": "pares-value"},
			PaymentData: "data-post",
		})
	})

	c.Run("post json", func(c *qt.C) {
		provider.details = &checkout.DetailsResult{ResultCode: checkout.ResultPending}
		provider.detailsErr = nil
		got := location(client.Post(endpoint+"?orderRef=ref-json", "application/json",
			strings.NewReader(`{"redirectResult":"abc","orderRef":"ignored"}`)))
		c.Assert(got, qt.Equals, checkout.OutcomePending.Path())
		c.Assert(provider.lastDetails().Details, qt.DeepEquals, map[string]string{"redirectResult": "abc"})
	})

	c.Run("provider failure", func(c *qt.C) {
		provider.details = nil
		provider.detailsErr = &checkout.ProviderError{Status: http.StatusUnprocessableEntity, Message: "Invalid redirect result"}
		got := location(client.Get(endpoint + "?orderRef=ref-fail&redirectResult=x"))
		c.Assert(got, qt.Equals, checkout.OutcomeError.Path())
	})

	c.Run("empty provider answer", func(c *qt.C) {
		provider.details = nil
		provider.detailsErr = nil
		got := location(client.Get(endpoint + "?orderRef=ref-empty&redirectResult=x"))
		c.Assert(got, qt.Equals, checkout.OutcomeError.Path())
	})

	c.Run("malformed json body", func(c *qt.C) {
		got := location(client.Post(endpoint+"?orderRef=ref-bad", "application/json", strings.NewReader(`{`)))
		c.Assert(got, qt.Equals, checkout.OutcomeError.Path())
	})
}

func TestResultPages(t *testing.T) {
	c := qt.New(t)
	srv, _ := startScriptedAPI(c, &testProvider{})
	for _, outcome := range checkout.Outcomes {
		res, err := http.Get(srv.URL + outcome.Path())
		c.Assert(err, qt.IsNil)
		body, _ := io.ReadAll(res.Body)
		_ = res.Body.Close()
		c.Assert(res.StatusCode, qt.Equals, http.StatusOK)
		c.Assert(string(body), qt.Contains, resultPages[outcome].Title)
		c.Assert(string(body), qt.Contains, "result-"+string(outcome))
	}
}

func TestFormatAmount(t *testing.T) {
	c := qt.New(t)
	c.Assert(formatAmount(checkout.Amount{Currency: "EUR", Value: 1000}), qt.Equals, "10.00 EUR")
	c.Assert(formatAmount(checkout.Amount{Currency: "USD", Value: 5}), qt.Equals, "0.05 USD")
	c.Assert(formatAmount(checkout.Amount{Currency: "EUR", Value: -250}), qt.Equals, "-2.50 EUR")
}

func pendingRecord(paymentData string) sessions.Record {
	return sessions.Record{
		PaymentData: paymentData,
		Action:      json.RawMessage(`{"type":"redirect","method":"GET","url":"https://issuer.example/3ds"}`),
	}
}
