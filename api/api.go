// Package api provides the HTTP API and the pages of the checkout demo
//
//	@title						Checkout Demo API
//	@version					1.0
//	@description				Hosted payment provider checkout integration
//
//	@license.name				Apache 2.0
//	@license.url				http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host						localhost:8080
//	@BasePath					/
//	@schemes					http https
//
//	@tag.name					checkout
//	@tag.description			Payment operations used by the widget
//
//	@tag.name					pages
//	@tag.description			Pages shown to the shopper
package api

import (
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	root "github.com/vocdoni/checkout-demo"
	"github.com/vocdoni/checkout-demo/api/apicommon"
	"github.com/vocdoni/checkout-demo/checkout"
	"github.com/vocdoni/checkout-demo/errors"
	"github.com/vocdoni/checkout-demo/pages"
	"github.com/vocdoni/checkout-demo/sandbox"
	"github.com/vocdoni/checkout-demo/validator"
	"go.vocdoni.io/dvote/log"
)

// Config holds the configuration of the API server.
type Config struct {
	Host string
	Port int
	Flow *checkout.Flow
	// Provider is the name of the payment provider, used by the checkout
	// page to mount the matching widget.
	Provider string
	// ClientKey is the public key handed to the widget.
	ClientKey string
	// Environment is the widget environment (test or live).
	Environment string `validate:"omitempty,oneof=test live"`
	// Amount is displayed on the checkout page.
	Amount checkout.Amount
	// Sandbox serves the simulated issuer challenge when the sandbox
	// provider is used.
	Sandbox *sandbox.Provider
}

// API type represents the API HTTP server.
type API struct {
	host        string
	port        int
	router      *chi.Mux
	flow        *checkout.Flow
	validator   *validator.Validator
	provider    string
	clientKey   string
	environment string
	amount      checkout.Amount
	sandbox     *sandbox.Provider
	static      fs.FS
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) (*API, error) {
	if conf == nil || conf.Flow == nil {
		return nil, fmt.Errorf("checkout flow is required")
	}
	v := validator.New()
	if err := v.Validate(conf); err != nil {
		return nil, fmt.Errorf("invalid API configuration: %w", err)
	}
	assets, err := fs.Sub(root.Assets, "assets")
	if err != nil {
		return nil, err
	}
	if err := pages.Load(assets); err != nil {
		return nil, fmt.Errorf("cannot load page templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}
	environment := conf.Environment
	if environment == "" {
		environment = apicommon.EnvironmentTest
	}
	return &API{
		host:        conf.Host,
		port:        conf.Port,
		flow:        conf.Flow,
		validator:   v,
		provider:    conf.Provider,
		clientKey:   conf.ClientKey,
		environment: environment,
		amount:      conf.Amount,
		sandbox:     conf.Sandbox,
		static:      static,
	}, nil
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.initRouter()); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// router creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-CSRF-Token"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(45 * time.Second))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.ErrNotFound.Withf("%s", r.URL.Path).Write(w)
	})

	r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(".")); err != nil {
			log.Warnw("failed to write ping response", "error", err)
		}
	})

	// pages
	log.Infow("new route", "method", "GET", "path", checkoutPageEndpoint)
	r.Get(checkoutPageEndpoint, a.checkoutPageHandler)
	log.Infow("new route", "method", "GET", "path", staticEndpoint)
	r.Handle(staticEndpoint, http.StripPrefix(staticPrefix, http.FileServer(http.FS(a.static))))
	for _, outcome := range checkout.Outcomes {
		log.Infow("new route", "method", "GET", "path", outcome.Path())
		r.Get(outcome.Path(), a.resultPageHandler(outcome))
	}

	// checkout API used by the widget
	log.Infow("new route", "method", "POST", "path", paymentMethodsEndpoint)
	r.Post(paymentMethodsEndpoint, a.paymentMethodsHandler)
	log.Infow("new route", "method", "POST", "path", initiatePaymentEndpoint)
	r.With(a.validator.ValidateMiddleware(apicommon.InitiatePaymentRequest{}, errors.ErrInvalidPaymentMethod)).
		Post(initiatePaymentEndpoint, a.initiatePaymentHandler)
	log.Infow("new route", "method", "POST", "path", submitDetailsEndpoint)
	r.With(a.validator.ValidateMiddleware(apicommon.SubmitDetailsRequest{}, errors.ErrInvalidDetails)).
		Post(submitDetailsEndpoint, a.submitDetailsHandler)
	// the provider sends the shopper back with a GET redirect or a form POST
	log.Infow("new route", "method", "GET", "path", shopperRedirectEndpoint)
	r.Get(shopperRedirectEndpoint, a.shopperRedirectHandler)
	log.Infow("new route", "method", "POST", "path", shopperRedirectEndpoint)
	r.Post(shopperRedirectEndpoint, a.shopperRedirectHandler)

	if a.sandbox != nil {
		log.Infow("new route", "method", "GET", "path", sandboxChallengeEndpoint)
		r.Get(sandboxChallengeEndpoint, a.sandbox.ChallengeHandler)
		log.Infow("new route", "method", "POST", "path", sandboxChallengeEndpoint)
		r.Post(sandboxChallengeEndpoint, a.sandbox.ChallengeHandler)
	}
	a.router = r
	return r
}
