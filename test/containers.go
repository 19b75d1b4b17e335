// Package test provides helpers to run the storage backends used by the
// tests in containers.
package test

import (
	"context"

	"github.com/testcontainers/testcontainers-go"
	"go.vocdoni.io/dvote/log"
)

// TerminateContainer stops a container started by the helpers of this
// package, logging the failure instead of failing the test.
func TerminateContainer(ctx context.Context, ctr testcontainers.Container) {
	if err := ctr.Terminate(ctx); err != nil {
		log.Warnw("failed to terminate test container", "error", err)
	}
}
