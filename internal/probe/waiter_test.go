package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcp718/ll-win-client/internal/resource"
)

func testHandle(t *testing.T) resource.Handle {
	t.Helper()
	h, err := resource.NewHandle(resource.AWS, "i-0abc123", "us-east-1", "")
	require.NoError(t, err)
	return h
}

// scriptedProbe becomes ready on its readyOn-th invocation. readyOn <= 0
// means never ready. errs, when set, is returned for the matching call
// number before ready is considered.
type scriptedProbe struct {
	name    string
	readyOn int
	calls   int
	errs    map[int]error
	trace   *[]string
}

func (p *scriptedProbe) Name() string { return p.name }

func (p *scriptedProbe) Check(_ context.Context, _ resource.Handle) (Result, error) {
	p.calls++
	if p.trace != nil {
		*p.trace = append(*p.trace, p.name)
	}
	if err, ok := p.errs[p.calls]; ok {
		return Result{}, err
	}
	if p.readyOn > 0 && p.calls >= p.readyOn {
		return Result{Ready: true, Detail: "ready", Timestamp: time.Now()}, nil
	}
	return Result{Ready: false, Detail: "not yet", Timestamp: time.Now()}, nil
}

// fakeClock drives Waiter.Now/Sleep so polls advance virtual time only.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) apply(w *Waiter) {
	w.Now = func() time.Time { return c.now }
	w.Sleep = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.now = c.now.Add(d)
		return nil
	}
}

func TestWait_NeverReadyReturnsWithinTimeout(t *testing.T) {
	t.Parallel()
	w := NewWaiter(nil)
	clk := &fakeClock{now: time.Unix(0, 0)}
	clk.apply(w)

	p := &scriptedProbe{name: "power-state"}
	policy := Policy{PollInterval: 15 * time.Second, Timeout: 2 * time.Minute}

	outcome, err := w.Wait(context.Background(), testHandle(t), Step{Probe: p, Policy: policy})
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, 0, outcome.FailedAt)
	// Bounded by timeout plus at most one poll interval of virtual time.
	assert.LessOrEqual(t, outcome.Elapsed, policy.Timeout+policy.PollInterval)
	assert.GreaterOrEqual(t, outcome.Elapsed, policy.Timeout)
}

func TestWait_SequentialGating(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 3} {
		t.Run(string(rune('0'+n)), func(t *testing.T) {
			t.Parallel()
			w := NewWaiter(nil)
			clk := &fakeClock{now: time.Unix(0, 0)}
			clk.apply(w)

			var trace []string
			names := []string{"power-state", "agent-online", "extensions"}[:n]
			steps := make([]Step, 0, n)
			for _, name := range names {
				steps = append(steps, Step{
					Probe:  &scriptedProbe{name: name, readyOn: 2, trace: &trace},
					Policy: Policy{PollInterval: time.Second, Timeout: time.Minute},
				})
			}

			outcome, err := w.Wait(context.Background(), testHandle(t), steps...)
			require.NoError(t, err)
			assert.True(t, outcome.Succeeded)

			// A later probe must never appear before its predecessor's
			// final (ready) invocation.
			firstSeen := map[string]int{}
			lastSeen := map[string]int{}
			for i, name := range trace {
				if _, ok := firstSeen[name]; !ok {
					firstSeen[name] = i
				}
				lastSeen[name] = i
			}
			for i := 1; i < n; i++ {
				assert.Greater(t, firstSeen[names[i]], lastSeen[names[i-1]],
					"probe %s ran before %s was ready", names[i], names[i-1])
			}
		})
	}
}

func TestWait_CancellationStopsProbing(t *testing.T) {
	t.Parallel()
	w := NewWaiter(nil)

	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProbe{name: "power-state"}
	callsWhenCancelled := 0

	// Cancel from inside Sleep so the next tick observes it.
	w.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		callsWhenCancelled = p.calls
		return ctx.Err()
	}

	outcome, err := w.Wait(ctx, testHandle(t), Step{
		Probe:  p,
		Policy: Policy{PollInterval: time.Second, Timeout: time.Minute},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, callsWhenCancelled, p.calls, "no probe calls may happen after cancellation")
}

func TestWait_ElapsedScenario(t *testing.T) {
	t.Parallel()
	w := NewWaiter(nil)
	clk := &fakeClock{now: time.Unix(0, 0)}
	clk.apply(w)

	// Power state ready after three 15s polls (45s of virtual time),
	// agent after two more 30s polls (60s), then 90s stabilization.
	power := &scriptedProbe{name: "power-state", readyOn: 4}
	agent := &scriptedProbe{name: "agent-online", readyOn: 3}

	outcome, err := w.Wait(context.Background(), testHandle(t),
		Step{Probe: power, Policy: Policy{PollInterval: 15 * time.Second, Timeout: 10 * time.Minute}},
		Step{Probe: agent, Policy: Policy{PollInterval: 30 * time.Second, Timeout: 10 * time.Minute, StabilizationDelay: 90 * time.Second}},
	)
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, -1, outcome.FailedAt)
	assert.Equal(t, 105*time.Second+90*time.Second, outcome.Elapsed)
}

func TestWait_TransientErrorsConsumeBudget(t *testing.T) {
	t.Parallel()
	w := NewWaiter(nil)
	clk := &fakeClock{now: time.Unix(0, 0)}
	clk.apply(w)

	p := &scriptedProbe{
		name:    "agent-online",
		readyOn: 3,
		errs: map[int]error{
			1: Transient(errors.New("throttled")),
		},
	}

	outcome, err := w.Wait(context.Background(), testHandle(t), Step{
		Probe:  p,
		Policy: Policy{PollInterval: time.Second, Timeout: time.Minute},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Equal(t, 3, p.calls)
}

func TestWait_PermanentErrorAborts(t *testing.T) {
	t.Parallel()
	w := NewWaiter(nil)
	clk := &fakeClock{now: time.Unix(0, 0)}
	clk.apply(w)

	p := &scriptedProbe{
		name: "power-state",
		errs: map[int]error{
			1: Permanent(errors.New("instance not found")),
		},
	}

	outcome, err := w.Wait(context.Background(), testHandle(t), Step{
		Probe:  p,
		Policy: Policy{PollInterval: time.Second, Timeout: time.Minute},
	})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, 0, outcome.FailedAt)
	assert.Equal(t, 1, p.calls)
}

func TestWait_FailedAtReportsStepIndex(t *testing.T) {
	t.Parallel()
	w := NewWaiter(nil)
	clk := &fakeClock{now: time.Unix(0, 0)}
	clk.apply(w)

	ok := &scriptedProbe{name: "power-state", readyOn: 1}
	stuck := &scriptedProbe{name: "agent-online"}

	outcome, err := w.Wait(context.Background(), testHandle(t),
		Step{Probe: ok, Policy: Policy{PollInterval: time.Second, Timeout: time.Minute}},
		Step{Probe: stuck, Policy: Policy{PollInterval: time.Second, Timeout: 5 * time.Second}},
	)
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, 1, outcome.FailedAt)
}
