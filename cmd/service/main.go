package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/checkout-demo/api"
	"github.com/vocdoni/checkout-demo/checkout"
	"github.com/vocdoni/checkout-demo/sandbox"
	"github.com/vocdoni/checkout-demo/sessions"
	"github.com/vocdoni/checkout-demo/stripe"
	"go.vocdoni.io/dvote/log"
)

const (
	providerSandbox = "sandbox"
	providerStripe  = "stripe"

	storeMemory = "memory"
	storeRedis  = "redis"
	storeMongo  = "mongo"
)

func main() {
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.String("serverURL", "", "public URL of the service, used to build the shopper return URL (defaults to http://localhost:<port>)")
	flag.String("provider", providerSandbox, "payment provider (sandbox or stripe)")
	flag.String("apiKey", "", "payment provider secret API key")
	flag.String("clientKey", "", "payment provider public key handed to the widget")
	flag.String("environment", "test", "widget environment (test or live)")
	flag.String("merchantAccount", "", "merchant account the payments are made to")
	flag.String("currency", "EUR", "currency of the demo payment")
	flag.Int64("amount", 1000, "amount of the demo payment in minor units")
	flag.StringSlice("paymentMethods", nil, "payment method types offered by the stripe provider")
	flag.Duration("providerTimeout", checkout.DefaultProviderTimeout, "timeout of every payment provider call")
	flag.String("sessionStore", storeMemory, "pending payment session store (memory, redis or mongo)")
	flag.Duration("sessionTTL", sessions.DefaultTTL, "time a pending payment can be completed")
	flag.Int("sessionCapacity", sessions.DefaultCapacity, "maximum pending payments kept by the memory store")
	flag.String("redisURL", "redis://localhost:6379/0", "Redis URL of the redis session store")
	flag.String("mongoURL", "", "MongoDB URL of the mongo session store")
	flag.String("mongoDB", sessions.DefaultMongoDatabase, "MongoDB database of the mongo session store")
	flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("CHECKOUT")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	log.Init(viper.GetString("logLevel"), "stdout", nil)
	host := viper.GetString("host")
	port := viper.GetInt("port")
	serverURL := viper.GetString("serverURL")
	if serverURL == "" {
		serverURL = "http://localhost:" + viper.GetString("port")
	}
	providerName := strings.ToLower(viper.GetString("provider"))
	merchantAccount := viper.GetString("merchantAccount")
	amount := checkout.Amount{
		Currency: strings.ToUpper(viper.GetString("currency")),
		Value:    viper.GetInt64("amount"),
	}

	// create the payment provider
	var provider checkout.Provider
	var sandboxProvider *sandbox.Provider
	switch providerName {
	case providerSandbox:
		sandboxProvider = sandbox.New(serverURL)
		provider = sandboxProvider
		if merchantAccount == "" {
			merchantAccount = "SandboxMerchant"
		}
	case providerStripe:
		conf, err := stripe.NewConfig(viper.GetString("apiKey"), viper.GetStringSlice("paymentMethods"))
		if err != nil {
			log.Fatalf("invalid stripe configuration: %v", err)
		}
		if viper.GetString("clientKey") == "" {
			log.Fatal("clientKey is required by the stripe provider")
		}
		if merchantAccount == "" {
			log.Fatal("merchantAccount is required")
		}
		provider = stripe.NewClient(conf)
	default:
		log.Fatalf("unknown payment provider %q", providerName)
	}
	guarded := checkout.NewGuardedProvider(provider, checkout.GuardOptions{
		Timeout: viper.GetDuration("providerTimeout"),
	})

	// create the session store
	store, err := newSessionStore(viper.GetString("sessionStore"), viper.GetDuration("sessionTTL"))
	if err != nil {
		log.Fatalf("could not create the session store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnw("could not close the session store", "error", err)
		}
	}()

	flow, err := checkout.NewFlow(guarded, store, &checkout.Config{
		MerchantAccount: merchantAccount,
		Amount:          amount,
		ServerURL:       serverURL,
	})
	if err != nil {
		log.Fatalf("could not create the checkout flow: %v", err)
	}

	// create the local API server
	server, err := api.New(&api.Config{
		Host:        host,
		Port:        port,
		Flow:        flow,
		Provider:    providerName,
		ClientKey:   viper.GetString("clientKey"),
		Environment: viper.GetString("environment"),
		Amount:      amount,
		Sandbox:     sandboxProvider,
	})
	if err != nil {
		log.Fatalf("could not create the API server: %v", err)
	}
	server.Start()
	// wait forever, as the server is running in a goroutine
	log.Infow("server started", "host", host, "port", port, "serverURL", serverURL,
		"provider", providerName, "sessionStore", viper.GetString("sessionStore"))
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if pending, err := store.Len(ctx); err == nil {
		log.Infow("shutting down", "pendingSessions", pending)
	}
}

// newSessionStore creates the session store of the kind provided.
func newSessionStore(kind string, ttl time.Duration) (sessions.Store, error) {
	switch strings.ToLower(kind) {
	case storeMemory:
		return sessions.NewMemory(viper.GetInt("sessionCapacity"), ttl), nil
	case storeRedis:
		return sessions.NewRedis(viper.GetString("redisURL"), ttl)
	case storeMongo:
		mongoURL := viper.GetString("mongoURL")
		if mongoURL == "" {
			log.Fatal("mongoURL is required by the mongo session store")
		}
		return sessions.NewMongo(mongoURL, viper.GetString("mongoDB"), ttl)
	default:
		log.Fatalf("unknown session store %q", kind)
		return nil, nil
	}
}
