// Package sessions keeps the provider continuation data of in-flight payments
// between the request that starts a payment and the shopper redirect that
// finishes it. Every backend guarantees that a record is returned by Take at
// most once.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTTL is the lifetime of a pending record when the backend is created
// without an explicit TTL. Records older than this are treated as absent.
const DefaultTTL = 15 * time.Minute

// ErrInvalidOrderRef is returned when a store operation receives an empty
// order reference.
var ErrInvalidOrderRef = fmt.Errorf("invalid order reference")

// Record is the pending action data associated to an order reference. The
// PaymentData and Action contents are opaque provider payloads.
type Record struct {
	PaymentData string          `json:"paymentData" bson:"paymentData"`
	Action      json.RawMessage `json:"action,omitempty" bson:"action,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
}

// Expired returns true if the record was created more than ttl ago. A zero
// ttl never expires.
func (r *Record) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 || r.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(r.CreatedAt) > ttl
}

// Store correlates the continuation data of a payment with its order
// reference across two otherwise stateless HTTP requests.
type Store interface {
	// Put inserts or overwrites the record for the order reference.
	Put(ctx context.Context, orderRef string, rec Record) error
	// Take returns the record stored for the order reference and removes it
	// atomically. It returns nil and no error if there is no record.
	Take(ctx context.Context, orderRef string) (*Record, error)
	// Len returns the number of records currently stored.
	Len(ctx context.Context) (int, error)
	// Close releases the resources held by the store.
	Close() error
}

// stamp fills the creation time of the record if it is not set yet.
func stamp(rec Record) Record {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return rec
}
