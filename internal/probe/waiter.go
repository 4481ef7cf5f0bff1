package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/dmcp718/ll-win-client/internal/resource"
)

// Policy configures how one probe is polled.
type Policy struct {
	// PollInterval is the delay between probe invocations.
	PollInterval time.Duration

	// Timeout bounds the whole step. Expiry is a normal outcome, not an
	// error.
	Timeout time.Duration

	// StabilizationDelay is slept once after the final step of a chain
	// succeeds. A freshly booted OS reports ready before commands are
	// reliable; operators tune this per image.
	StabilizationDelay time.Duration
}

// DefaultPolicy returns conservative polling defaults for Windows guests.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:       15 * time.Second,
		Timeout:            10 * time.Minute,
		StabilizationDelay: 90 * time.Second,
	}
}

// Step pairs a probe with its polling policy.
type Step struct {
	Probe  Probe
	Policy Policy
}

// Outcome reports how a wait ended. A timeout yields Succeeded=false with
// FailedAt set; only cancellation and permanent errors surface as errors.
type Outcome struct {
	Succeeded  bool
	Elapsed    time.Duration
	FailedAt   int // index of the step that timed out or failed; -1 when none
	LastDetail string
}

// Waiter polls probe chains with strict sequential gating: step k+1 is
// never attempted before step k has reported ready.
type Waiter struct {
	Log Logger

	// Now and Sleep exist so tests can drive a fake clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewWaiter returns a Waiter logging through log. A nil log discards.
func NewWaiter(log Logger) *Waiter {
	if log == nil {
		log = nopLogger{}
	}
	return &Waiter{
		Now:   time.Now,
		Sleep: sleepCtx,
		Log:   log,
	}
}

// Wait evaluates steps in order against h.
//
// Each step is probed immediately and then at its PollInterval until it
// reports ready or its Timeout elapses. Transient probe errors consume
// the step's budget but do not abort. Permanent errors abort with the
// error. Cancellation is checked once per tick and returns immediately.
// After the final step succeeds, the last step's StabilizationDelay is
// slept once.
func (w *Waiter) Wait(ctx context.Context, h resource.Handle, steps ...Step) (Outcome, error) {
	start := w.Now()

	for i, step := range steps {
		outcome, err := w.waitStep(ctx, h, i, step, start)
		if err != nil || !outcome.Succeeded {
			return outcome, err
		}
	}

	if n := len(steps); n > 0 {
		if d := steps[n-1].Policy.StabilizationDelay; d > 0 {
			w.Log.Printf("all probes ready on %s, stabilizing for %v", h, d)
			if err := w.Sleep(ctx, d); err != nil {
				return Outcome{Succeeded: false, Elapsed: w.Now().Sub(start), FailedAt: n - 1, LastDetail: "cancelled during stabilization"}, err
			}
		}
	}

	return Outcome{Succeeded: true, Elapsed: w.Now().Sub(start), FailedAt: -1}, nil
}

func (w *Waiter) waitStep(ctx context.Context, h resource.Handle, idx int, step Step, start time.Time) (Outcome, error) {
	deadline := w.Now().Add(step.Policy.Timeout)
	lastDetail := ""

	w.Log.Printf("probe %s starting on %s (timeout %v)", step.Probe.Name(), h, step.Policy.Timeout)

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{Succeeded: false, Elapsed: w.Now().Sub(start), FailedAt: idx, LastDetail: lastDetail}, err
		}

		res, err := step.Probe.Check(ctx, h)
		switch {
		case err == nil:
			lastDetail = res.Detail
			if res.Ready {
				w.Log.Printf("probe %s ready on %s: %s", step.Probe.Name(), h, res.Detail)
				return Outcome{Succeeded: true, Elapsed: w.Now().Sub(start), FailedAt: -1, LastDetail: res.Detail}, nil
			}
		case IsPermanent(err):
			return Outcome{Succeeded: false, Elapsed: w.Now().Sub(start), FailedAt: idx, LastDetail: err.Error()},
				fmt.Errorf("probe %s on %s: %w", step.Probe.Name(), h, err)
		default:
			// Transient query failures spend the step budget and retry.
			lastDetail = err.Error()
			w.Log.Printf("probe %s transient error on %s: %v", step.Probe.Name(), h, err)
		}

		if !w.Now().Before(deadline) {
			w.Log.Printf("probe %s timed out on %s after %v", step.Probe.Name(), h, step.Policy.Timeout)
			return Outcome{Succeeded: false, Elapsed: w.Now().Sub(start), FailedAt: idx, LastDetail: lastDetail}, nil
		}

		if err := w.Sleep(ctx, step.Policy.PollInterval); err != nil {
			return Outcome{Succeeded: false, Elapsed: w.Now().Sub(start), FailedAt: idx, LastDetail: lastDetail}, err
		}
	}
}

// sleepCtx sleeps for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
