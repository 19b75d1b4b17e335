package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

var testAction = json.RawMessage(`{"type":"redirect","url":"https://provider.test/3ds","method":"GET"}`)

// testStoreContract runs the behaviour every Store backend must share.
func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("PutTake", func(t *testing.T) {
		c := qt.New(t)
		c.Assert(store.Put(ctx, "ref-put-take", Record{PaymentData: "pd-1", Action: testAction}), qt.IsNil)

		rec, err := store.Take(ctx, "ref-put-take")
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.Not(qt.IsNil))
		c.Assert(rec.PaymentData, qt.Equals, "pd-1")
		c.Assert(string(rec.Action), qt.JSONEquals, json.RawMessage(testAction))
		c.Assert(rec.CreatedAt.IsZero(), qt.IsFalse)
	})

	t.Run("TakeIsSingleUse", func(t *testing.T) {
		c := qt.New(t)
		c.Assert(store.Put(ctx, "ref-single", Record{PaymentData: "pd-2"}), qt.IsNil)

		rec, err := store.Take(ctx, "ref-single")
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.Not(qt.IsNil))

		rec, err = store.Take(ctx, "ref-single")
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.IsNil)
	})

	t.Run("TakeUnknown", func(t *testing.T) {
		c := qt.New(t)
		rec, err := store.Take(ctx, "never-stored")
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.IsNil)

		rec, err = store.Take(ctx, "")
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.IsNil)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		c := qt.New(t)
		c.Assert(store.Put(ctx, "ref-overwrite", Record{PaymentData: "old"}), qt.IsNil)
		c.Assert(store.Put(ctx, "ref-overwrite", Record{PaymentData: "new"}), qt.IsNil)

		rec, err := store.Take(ctx, "ref-overwrite")
		c.Assert(err, qt.IsNil)
		c.Assert(rec.PaymentData, qt.Equals, "new")

		rec, err = store.Take(ctx, "ref-overwrite")
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.IsNil)
	})

	t.Run("PutEmptyRef", func(t *testing.T) {
		c := qt.New(t)
		c.Assert(store.Put(ctx, "", Record{}), qt.ErrorIs, ErrInvalidOrderRef)
	})

	t.Run("ExpiredRecordIsAbsent", func(t *testing.T) {
		c := qt.New(t)
		old := Record{PaymentData: "stale", CreatedAt: time.Now().Add(-24 * time.Hour)}
		c.Assert(store.Put(ctx, "ref-expired", old), qt.IsNil)

		rec, err := store.Take(ctx, "ref-expired")
		c.Assert(err, qt.IsNil)
		c.Assert(rec, qt.IsNil)
	})

	t.Run("ConcurrentTakeReturnsOnce", func(t *testing.T) {
		c := qt.New(t)
		c.Assert(store.Put(ctx, "ref-race", Record{PaymentData: "pd-race"}), qt.IsNil)

		var wg sync.WaitGroup
		var mu sync.Mutex
		found := 0
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, err := store.Take(ctx, "ref-race")
				if err != nil || rec == nil {
					return
				}
				mu.Lock()
				found++
				mu.Unlock()
			}()
		}
		wg.Wait()
		c.Assert(found, qt.Equals, 1)
	})

	t.Run("Len", func(t *testing.T) {
		c := qt.New(t)
		before, err := store.Len(ctx)
		c.Assert(err, qt.IsNil)
		for i := 0; i < 3; i++ {
			c.Assert(store.Put(ctx, fmt.Sprintf("ref-len-%d", i), Record{PaymentData: "pd"}), qt.IsNil)
		}
		after, err := store.Len(ctx)
		c.Assert(err, qt.IsNil)
		c.Assert(after, qt.Equals, before+3)
	})
}
