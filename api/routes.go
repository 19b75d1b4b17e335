package api

import (
	"github.com/vocdoni/checkout-demo/checkout"
	"github.com/vocdoni/checkout-demo/sandbox"
)

const (
	// GET /ping to check the service is up
	pingEndpoint = "/ping"

	// page routes

	// GET / to render the checkout page with the available payment methods
	checkoutPageEndpoint = "/"
	// GET /static/* to get the scripts and styles of the pages
	staticEndpoint = staticPrefix + "*"
	staticPrefix   = "/static/"
	// GET /success, /pending, /failed and /error are the result pages,
	// registered from checkout.Outcomes

	// checkout routes

	// POST /api/getPaymentMethods to list the available payment methods
	paymentMethodsEndpoint = "/api/getPaymentMethods"
	// POST /api/initiatePayment to submit a payment
	initiatePaymentEndpoint = "/api/initiatePayment"
	// POST /api/submitAdditionalDetails to submit the details of an in-page action
	submitDetailsEndpoint = "/api/submitAdditionalDetails"
	// GET|POST /api/handleShopperRedirect?orderRef={orderRef} to complete a
	// payment once the shopper comes back from the provider
	shopperRedirectEndpoint = checkout.ShopperRedirectPath

	// sandbox routes

	// GET|POST /sandbox/challenge to complete a simulated 3-D Secure challenge
	sandboxChallengeEndpoint = sandbox.ChallengePath
)
