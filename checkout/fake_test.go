package checkout

import (
	"context"
	"sync"
)

// fakeProvider returns scripted answers and records the requests received.
type fakeProvider struct {
	mu sync.Mutex

	methods    *PaymentMethods
	payment    *PaymentResult
	paymentErr error
	details    *DetailsResult
	detailsErr error

	paymentReqs []*PaymentRequest
	detailsReqs []*DetailsRequest
}

func (f *fakeProvider) PaymentMethods(_ context.Context, _ *PaymentMethodsRequest) (*PaymentMethods, error) {
	return f.methods, nil
}

func (f *fakeProvider) Payments(_ context.Context, req *PaymentRequest) (*PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paymentReqs = append(f.paymentReqs, req)
	return f.payment, f.paymentErr
}

func (f *fakeProvider) PaymentDetails(_ context.Context, req *DetailsRequest) (*DetailsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsReqs = append(f.detailsReqs, req)
	return f.details, f.detailsErr
}
