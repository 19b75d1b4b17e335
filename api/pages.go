package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vocdoni/checkout-demo/checkout"
	"github.com/vocdoni/checkout-demo/errors"
	"github.com/vocdoni/checkout-demo/pages"
)

// checkoutPageData fills the checkout page template.
type checkoutPageData struct {
	Provider    string
	ClientKey   string
	Environment string
	Amount      string
	// PaymentMethods is the JSON encoded provider answer handed to the widget
	PaymentMethods string
}

// resultPageData fills the result page template.
type resultPageData struct {
	Outcome checkout.Outcome
	Title   string
	Message string
}

var resultPages = map[checkout.Outcome]resultPageData{
	checkout.OutcomeSuccess: {
		Title:   "Payment successful",
		Message: "Your order has been paid. Thank you for your purchase!",
	},
	checkout.OutcomePending: {
		Title:   "Payment pending",
		Message: "Your payment is being processed. You will be notified once it completes.",
	},
	checkout.OutcomeFailed: {
		Title:   "Payment refused",
		Message: "Your payment was refused. Please try again with a different payment method.",
	},
	checkout.OutcomeError: {
		Title:   "Payment error",
		Message: "Something went wrong while processing your payment. Please try again.",
	},
}

// checkoutPageHandler godoc
//
//	@Summary		Checkout page
//	@Description	Render the checkout page with the payment methods offered by the provider
//	@Tags			pages
//	@Produce		html
//	@Success		200
//	@Failure		502	{object}	errors.Error	"Payment provider failure"
//	@Router			/ [get]
func (a *API) checkoutPageHandler(w http.ResponseWriter, r *http.Request) {
	methods, err := a.flow.PaymentMethods(r.Context())
	if err != nil {
		writeProviderError(w, err)
		return
	}
	data, err := json.Marshal(methods)
	if err != nil {
		errors.ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	pages.CheckoutPage.Write(w, http.StatusOK, &checkoutPageData{
		Provider:       a.provider,
		ClientKey:      a.clientKey,
		Environment:    a.environment,
		Amount:         formatAmount(a.amount),
		PaymentMethods: string(data),
	})
}

// resultPageHandler returns the handler of the result page of the outcome.
func (*API) resultPageHandler(outcome checkout.Outcome) http.HandlerFunc {
	data := resultPages[outcome]
	data.Outcome = outcome
	return func(w http.ResponseWriter, _ *http.Request) {
		pages.ResultPage.Write(w, http.StatusOK, &data)
	}
}

// formatAmount renders an amount in minor units with two decimals.
func formatAmount(amount checkout.Amount) string {
	sign := ""
	value := amount.Value
	if value < 0 {
		sign, value = "-", -value
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, value/100, value%100, amount.Currency)
}
