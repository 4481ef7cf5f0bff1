// Package probe provides readiness probes and the waiter that sequences them.
//
// A probe answers one boolean question about an instance (power state,
// agent registration, installer completion, path presence) without side
// effects beyond the query itself. Probes are stateless and safe to call
// repeatedly. The Waiter polls an ordered chain of probes with per-step
// policies until all succeed, a step times out, or the caller cancels.
package probe

import (
	"context"
	"time"

	"github.com/dmcp718/ll-win-client/internal/resource"
)

// Result is the outcome of one probe invocation. It is consumed
// immediately by the waiter and never persisted.
type Result struct {
	Ready     bool
	Detail    string
	Timestamp time.Time
}

// Probe checks one readiness dimension of an instance.
//
// Check returns a TransientError when the underlying cloud query failed
// and should be retried, and a PermanentError when the resource no longer
// exists and polling must stop.
type Probe interface {
	Name() string
	Check(ctx context.Context, h resource.Handle) (Result, error)
}

// Logger is the minimal logging surface the waiter and probes need.
// lifecycle.Observer satisfies it.
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}
