package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.vocdoni.io/dvote/log"
)

const instrumentationName = "github.com/vocdoni/checkout-demo/checkout"

const (
	// DefaultProviderTimeout bounds every provider call.
	DefaultProviderTimeout = 30 * time.Second
	// DefaultBreakerFailures is the number of consecutive temporary
	// failures that open the circuit.
	DefaultBreakerFailures = 5
	// DefaultBreakerCooldown is how long the circuit stays open before a
	// probe call is let through.
	DefaultBreakerCooldown = 30 * time.Second
)

// GuardOptions configures a GuardedProvider. Zero values use the defaults.
type GuardOptions struct {
	Timeout  time.Duration
	Failures uint32
	Cooldown time.Duration
}

// GuardedProvider wraps a Provider with a per call timeout, a circuit
// breaker and tracing. Only temporary failures count against the breaker:
// validation errors and refused payments are answers, not outages.
type GuardedProvider struct {
	next    Provider
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	calls   metric.Int64Counter
}

// NewGuardedProvider wraps next.
func NewGuardedProvider(next Provider, opts GuardOptions) *GuardedProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultProviderTimeout
	}
	if opts.Failures == 0 {
		opts.Failures = DefaultBreakerFailures
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultBreakerCooldown
	}
	calls, err := otel.Meter(instrumentationName).Int64Counter("checkout.provider.calls",
		metric.WithDescription("Payment provider calls by operation and status"))
	if err != nil {
		log.Warnw("cannot create provider calls counter", "error", err)
	}
	failures := opts.Failures
	return &GuardedProvider{
		next:    next,
		timeout: opts.Timeout,
		calls:   calls,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "payment-provider",
			MaxRequests: 1,
			Timeout:     opts.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !AsProviderError(err).Temporary()
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnw("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// State returns the current state of the circuit breaker.
func (g *GuardedProvider) State() gobreaker.State {
	return g.breaker.State()
}

// PaymentMethods implements Provider.
func (g *GuardedProvider) PaymentMethods(ctx context.Context, req *PaymentMethodsRequest) (*PaymentMethods, error) {
	return guard(ctx, g, "paymentMethods", func(ctx context.Context) (*PaymentMethods, ResultCode, error) {
		res, err := g.next.PaymentMethods(ctx, req)
		return res, "", err
	})
}

// Payments implements Provider.
func (g *GuardedProvider) Payments(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	return guard(ctx, g, "payments", func(ctx context.Context) (*PaymentResult, ResultCode, error) {
		res, err := g.next.Payments(ctx, req)
		if err != nil {
			return res, "", err
		}
		if res == nil {
			return nil, "", ErrEmptyResponse
		}
		return res, res.ResultCode, nil
	})
}

// PaymentDetails implements Provider.
func (g *GuardedProvider) PaymentDetails(ctx context.Context, req *DetailsRequest) (*DetailsResult, error) {
	return guard(ctx, g, "paymentDetails", func(ctx context.Context) (*DetailsResult, ResultCode, error) {
		res, err := g.next.PaymentDetails(ctx, req)
		if err != nil {
			return res, "", err
		}
		if res == nil {
			return nil, "", ErrEmptyResponse
		}
		return res, res.ResultCode, nil
	})
}

// guard runs fn through the breaker within a span and a bounded context.
func guard[T any](ctx context.Context, g *GuardedProvider, op string,
	fn func(context.Context) (T, ResultCode, error),
) (T, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "provider."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("checkout.operation", op)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var code ResultCode
	out, err := g.breaker.Execute(func() (interface{}, error) {
		res, c, err := fn(ctx)
		code = c
		return res, err
	})
	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		err = ErrProviderUnavailable
		status = "rejected"
	case err != nil:
		err = AsProviderError(err)
		status = "error"
	}
	if g.calls != nil {
		g.calls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("status", status),
		))
	}
	var zero T
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}
	if code != "" {
		span.SetAttributes(attribute.String("checkout.result_code", string(code)))
	}
	res, ok := out.(T)
	if !ok {
		return zero, nil
	}
	return res, nil
}
