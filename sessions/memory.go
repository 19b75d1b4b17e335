package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.vocdoni.io/dvote/log"
)

// DefaultCapacity is the maximum number of pending records kept by the memory
// store when no capacity is provided. The least recently stored record is
// evicted once the store is full.
const DefaultCapacity = 10000

// Memory is a process local Store. Records are lost on restart, which is
// acceptable for a single instance deployment since they are short lived.
type Memory struct {
	// mtx makes peek+remove a single atomic take
	mtx   sync.Mutex
	cache *expirable.LRU[string, Record]
	ttl   time.Duration
}

// NewMemory creates a memory store that keeps at most capacity records for
// ttl each. Zero values fall back to DefaultCapacity and DefaultTTL.
func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	onEvict := func(orderRef string, _ Record) {
		log.Debugw("pending payment session removed", "orderRef", orderRef)
	}
	return &Memory{
		cache: expirable.NewLRU(capacity, onEvict, ttl),
		ttl:   ttl,
	}
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, orderRef string, rec Record) error {
	if orderRef == "" {
		return ErrInvalidOrderRef
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.cache.Add(orderRef, stamp(rec))
	return nil
}

// Take implements Store.
func (m *Memory) Take(_ context.Context, orderRef string) (*Record, error) {
	if orderRef == "" {
		return nil, nil
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	rec, ok := m.cache.Peek(orderRef)
	if !ok {
		return nil, nil
	}
	m.cache.Remove(orderRef)
	if rec.Expired(m.ttl, time.Now()) {
		return nil, nil
	}
	return &rec, nil
}

// Len implements Store.
func (m *Memory) Len(_ context.Context) (int, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.cache.Len(), nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.cache.Purge()
	return nil
}
