// Package sandbox provides a simulated payment provider so the checkout can
// be run and tested without provider credentials. The scenario of every
// payment is selected by the brand of the payment method, and payments that
// need 3-D Secure send the shopper to a local challenge page that redirects
// back to the checkout like a real issuer would.
package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vocdoni/checkout-demo/checkout"
	"github.com/vocdoni/checkout-demo/internal"
	"go.vocdoni.io/dvote/log"
)

// Scenarios selected by the payment method brand (or scenario field).
const (
	ScenarioAuthorised = "authorised"
	ScenarioRefused    = "refused"
	ScenarioPending    = "pending"
	ScenarioReceived   = "received"
	ScenarioChallenge  = "3ds"
	// ScenarioChallengePost sends the shopper back with a POST form instead
	// of a GET redirect.
	ScenarioChallengePost = "3ds-post"
	ScenarioError         = "error"
	ScenarioInvalid       = "invalid"
)

const (
	// ChallengePath is the path of the simulated issuer challenge page.
	ChallengePath = "/sandbox/challenge"
	// RedirectResultParam carries the challenge result back to the checkout.
	RedirectResultParam = "redirectResult"
	// challengeTTL bounds how long a challenge can be completed.
	challengeTTL = 15 * time.Minute
)

// challenge tracks a 3-D Secure challenge from its creation until its result
// is submitted to PaymentDetails.
type challenge struct {
	paymentData string
	returnURL   string
	method      string
	created     time.Time
	// approved is set once the shopper completes the challenge page
	completed bool
	approved  bool
}

// expired returns true once the challenge can no longer be completed.
func (ch *challenge) expired(now time.Time) bool {
	return now.Sub(ch.created) > challengeTTL
}

// Provider is a deterministic in-process checkout.Provider.
type Provider struct {
	baseURL string

	mtx        sync.Mutex
	challenges map[string]*challenge // by payment data
	results    map[string]string     // redirect result -> payment data
}

// New creates a sandbox provider. baseURL is the public URL of the service
// serving the challenge handler.
func New(baseURL string) *Provider {
	return &Provider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		challenges: make(map[string]*challenge),
		results:    make(map[string]string),
	}
}

// PaymentMethods implements checkout.Provider.
func (*Provider) PaymentMethods(_ context.Context, _ *checkout.PaymentMethodsRequest) (*checkout.PaymentMethods, error) {
	return &checkout.PaymentMethods{Methods: []checkout.PaymentMethod{
		{
			Type: "scheme",
			Name: "Credit Card",
			Brands: []string{
				ScenarioAuthorised, ScenarioChallenge, ScenarioChallengePost,
				ScenarioPending, ScenarioReceived, ScenarioRefused, ScenarioError,
			},
		},
	}}, nil
}

type paymentMethod struct {
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Scenario string `json:"scenario"`
}

func (pm *paymentMethod) scenario() string {
	if pm.Scenario != "" {
		return strings.ToLower(pm.Scenario)
	}
	return strings.ToLower(pm.Brand)
}

// Payments implements checkout.Provider.
func (p *Provider) Payments(ctx context.Context, req *checkout.PaymentRequest) (*checkout.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pm := &paymentMethod{}
	if err := json.Unmarshal(req.PaymentMethod, pm); err != nil {
		return nil, &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "14_004",
			Message: "Missing payment method details",
			Err:     err,
		}
	}
	if req.Amount.Value <= 0 {
		return nil, &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "137",
			Message: "Invalid amount specified",
		}
	}
	pspRef := newReference()
	switch pm.scenario() {
	case ScenarioRefused:
		return &checkout.PaymentResult{ResultCode: checkout.ResultRefused, PSPReference: pspRef, RefusalReason: "Refused"}, nil
	case ScenarioPending:
		return &checkout.PaymentResult{ResultCode: checkout.ResultPending, PSPReference: pspRef}, nil
	case ScenarioReceived:
		return &checkout.PaymentResult{ResultCode: checkout.ResultReceived, PSPReference: pspRef}, nil
	case ScenarioError:
		return nil, &checkout.ProviderError{
			Status:  http.StatusInternalServerError,
			Code:    "905",
			Message: "Payment details are not supported",
		}
	case ScenarioInvalid:
		return nil, &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "101",
			Message: "Invalid card number",
		}
	case ScenarioChallenge, ScenarioChallengePost:
		if req.ReturnURL == "" {
			return nil, &checkout.ProviderError{
				Status:  http.StatusUnprocessableEntity,
				Code:    "14_006",
				Message: "Required field 'returnUrl' is not provided",
			}
		}
		method := http.MethodGet
		if pm.scenario() == ScenarioChallengePost {
			method = http.MethodPost
		}
		return p.newChallenge(req.ReturnURL, method, pm.Type), nil
	default:
		return &checkout.PaymentResult{ResultCode: checkout.ResultAuthorised, PSPReference: pspRef}, nil
	}
}

// newChallenge registers a challenge and returns the redirect action that
// sends the shopper to the challenge page.
func (p *Provider) newChallenge(returnURL, method, methodType string) *checkout.PaymentResult {
	paymentData := newReference()
	p.mtx.Lock()
	p.purgeLocked()
	p.challenges[paymentData] = &challenge{
		paymentData: paymentData,
		returnURL:   returnURL,
		method:      method,
		created:     time.Now(),
	}
	p.mtx.Unlock()

	q := url.Values{}
	q.Set("paymentData", paymentData)
	action, err := json.Marshal(map[string]string{
		"type":              "redirect",
		"method":            http.MethodGet,
		"url":               p.baseURL + ChallengePath + "?" + q.Encode(),
		"paymentMethodType": methodType,
	})
	if err != nil {
		panic(err)
	}
	return &checkout.PaymentResult{
		ResultCode:  checkout.ResultRedirectShopper,
		Action:      action,
		PaymentData: paymentData,
	}
}

// complete records the shopper decision and returns the redirect result
// token that identifies it.
func (p *Provider) complete(paymentData string, approved bool) (*challenge, string, bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	ch, ok := p.challenges[paymentData]
	if !ok || ch.completed {
		return nil, "", false
	}
	if ch.expired(time.Now()) {
		delete(p.challenges, paymentData)
		return nil, "", false
	}
	ch.completed = true
	ch.approved = approved
	token := internal.RandomHex(16)
	p.results[token] = paymentData
	return ch, token, true
}

// PaymentDetails implements checkout.Provider. The redirect result can be
// used once. If payment data is provided it must belong to the same
// challenge.
func (p *Provider) PaymentDetails(ctx context.Context, req *checkout.DetailsRequest) (*checkout.DetailsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token := req.Details[RedirectResultParam]
	if token == "" {
		return nil, &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "14_018",
			Message: "Invalid payload provided",
		}
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	paymentData, ok := p.results[token]
	if !ok {
		return nil, &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "14_002",
			Message: "Invalid redirect result",
		}
	}
	if req.PaymentData != "" && req.PaymentData != paymentData {
		return nil, &checkout.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "14_003",
			Message: "Payment data does not match the redirect result",
		}
	}
	ch := p.challenges[paymentData]
	delete(p.results, token)
	delete(p.challenges, paymentData)
	if ch == nil {
		return &checkout.DetailsResult{ResultCode: checkout.ResultError}, nil
	}
	log.Debugw("sandbox challenge resolved", "paymentData", paymentData, "approved", ch.approved)
	if !ch.approved {
		return &checkout.DetailsResult{
			ResultCode:    checkout.ResultRefused,
			PSPReference:  paymentData,
			RefusalReason: "3D Not Authenticated",
		}, nil
	}
	return &checkout.DetailsResult{ResultCode: checkout.ResultAuthorised, PSPReference: paymentData}, nil
}

// purgeLocked drops challenges older than challengeTTL.
func (p *Provider) purgeLocked() {
	now := time.Now()
	for paymentData, ch := range p.challenges {
		if ch.expired(now) {
			delete(p.challenges, paymentData)
		}
	}
	for token, paymentData := range p.results {
		if _, ok := p.challenges[paymentData]; !ok {
			delete(p.results, token)
		}
	}
}

func newReference() string {
	return internal.RandomReference(8)
}
