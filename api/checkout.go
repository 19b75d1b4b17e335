package api

import (
	stderrors "errors"
	"net/http"

	"github.com/vocdoni/checkout-demo/api/apicommon"
	"github.com/vocdoni/checkout-demo/checkout"
	"github.com/vocdoni/checkout-demo/errors"
	"github.com/vocdoni/checkout-demo/validator"
	"go.vocdoni.io/dvote/log"
)

// paymentMethodsHandler godoc
//
//	@Summary		List payment methods
//	@Description	Get the payment methods the provider offers for the merchant account
//	@Tags			checkout
//	@Produce		json
//	@Success		200	{object}	checkout.PaymentMethods
//	@Failure		502	{object}	errors.Error	"Payment provider failure"
//	@Failure		503	{object}	errors.Error	"Payment provider unavailable"
//	@Router			/api/getPaymentMethods [post]
func (a *API) paymentMethodsHandler(w http.ResponseWriter, r *http.Request) {
	methods, err := a.flow.PaymentMethods(r.Context())
	if err != nil {
		writeProviderError(w, err)
		return
	}
	apicommon.HTTPWriteJSON(w, methods)
}

// initiatePaymentHandler godoc
//
//	@Summary		Initiate a payment
//	@Description	Submit the payment method collected by the widget. If the provider requires an
//	@Description	additional shopper action, the action is returned and the continuation data is
//	@Description	kept under the returned order reference until the shopper comes back.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.InitiatePaymentRequest	true	"Widget payment data"
//	@Success		200		{object}	apicommon.InitiatePaymentResponse
//	@Failure		400		{object}	errors.Error	"Invalid payment method"
//	@Failure		422		{object}	errors.Error	"Payment rejected by the provider"
//	@Failure		500		{object}	errors.Error	"Internal server error"
//	@Failure		503		{object}	errors.Error	"Payment provider unavailable"
//	@Router			/api/initiatePayment [post]
func (a *API) initiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.GetValidatedModel[apicommon.InitiatePaymentRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	resp, err := a.flow.Initiate(r.Context(), &checkout.InitiateRequest{
		PaymentMethod: req.PaymentMethod,
		BrowserInfo:   req.BrowserInfo,
		Origin:        req.Origin,
	})
	if err != nil {
		var perr *checkout.ProviderError
		switch {
		case stderrors.Is(err, checkout.ErrInvalidPaymentMethod):
			errors.ErrInvalidPaymentMethod.Write(w)
		case stderrors.As(err, &perr):
			writeProviderError(w, perr)
		default:
			errors.ErrSessionStore.WithErr(err).Write(w)
		}
		return
	}
	apicommon.HTTPWriteJSON(w, resp)
}

// submitDetailsHandler godoc
//
//	@Summary		Submit additional payment details
//	@Description	Forward the details collected by the widget after an in-page action to the provider
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apicommon.SubmitDetailsRequest	true	"Widget details"
//	@Success		200		{object}	apicommon.SubmitDetailsResponse
//	@Failure		400		{object}	errors.Error	"Invalid payment details"
//	@Failure		422		{object}	errors.Error	"Details rejected by the provider"
//	@Failure		503		{object}	errors.Error	"Payment provider unavailable"
//	@Router			/api/submitAdditionalDetails [post]
func (a *API) submitDetailsHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := validator.GetValidatedModel[apicommon.SubmitDetailsRequest](r.Context())
	if !ok {
		errors.ErrMalformedBody.Write(w)
		return
	}
	res, err := a.flow.SubmitDetails(r.Context(), &checkout.DetailsRequest{
		Details:     req.Details,
		PaymentData: req.PaymentData,
	})
	if err != nil {
		if stderrors.Is(err, checkout.ErrInvalidDetails) {
			errors.ErrInvalidDetails.Write(w)
			return
		}
		writeProviderError(w, err)
		return
	}
	apicommon.HTTPWriteJSON(w, res)
}

// shopperRedirectHandler godoc
//
//	@Summary		Handle the shopper redirect
//	@Description	Complete a payment once the shopper comes back from the provider after an
//	@Description	additional action, and redirect the shopper to the result page. The redirect
//	@Description	parameters are read from the query string or, for POST redirects, from the body.
//	@Tags			checkout
//	@Param			orderRef	query	string	true	"Order reference returned by initiatePayment"
//	@Success		303
//	@Router			/api/handleShopperRedirect [get]
//	@Router			/api/handleShopperRedirect [post]
func (a *API) shopperRedirectHandler(w http.ResponseWriter, r *http.Request) {
	orderRef := r.URL.Query().Get(checkout.OrderRefParam)
	outcome := checkout.OutcomeError
	details, err := apicommon.RedirectDetails(r, checkout.OrderRefParam)
	if err != nil {
		log.Warnw("invalid shopper redirect", "orderRef", orderRef, "error", err)
	} else {
		outcome = a.flow.Redirect(r.Context(), orderRef, details)
	}
	http.Redirect(w, r, outcome.Path(), http.StatusSeeOther)
}

// writeProviderError answers with the status reported by the payment provider.
func writeProviderError(w http.ResponseWriter, err error) {
	perr := checkout.AsProviderError(err)
	if stderrors.Is(perr, checkout.ErrProviderUnavailable) {
		errors.ErrProviderUnavailable.Write(w)
		return
	}
	apiErr := errors.ErrPaymentProvider.With(perr.Message).
		WithStatus(perr.Status).
		WithData(&apicommon.ProviderErrorData{Status: perr.Status, Code: perr.Code})
	if perr.Status < http.StatusInternalServerError {
		// the provider rejected the shopper input
		apiErr = apiErr.WithLogLevel("info")
	}
	apiErr.Write(w)
}
