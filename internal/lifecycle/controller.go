// Package lifecycle drives a cloud instance through provision, readiness
// waiting, verification, stop/start and destroy as a guarded state machine.
//
// One Controller manages exactly one instance. Fleet deployments run one
// controller per instance concurrently; controllers share nothing.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/remote"
	"github.com/dmcp718/ll-win-client/internal/resource"
	"github.com/dmcp718/ll-win-client/internal/util/retry"
)

// Compute is the provider capability set the controller mutates instances
// through. Provider adapters in internal/platform implement it.
type Compute interface {
	probe.StateReader

	StartInstance(ctx context.Context, h resource.Handle) error
	StopInstance(ctx context.Context, h resource.Handle) error
	TerminateInstance(ctx context.Context, h resource.Handle) error
	PublicAddress(ctx context.Context, h resource.Handle) (string, error)
}

// ProvisionFunc reports the handle of an instance once the external
// infrastructure provisioner (terraform) has created it.
type ProvisionFunc func(ctx context.Context) (resource.Handle, error)

// Hooks are caller-supplied callbacks at lifecycle boundaries.
type Hooks struct {
	// OnStarted runs exactly once after a successful Start, with the
	// instance's current public address. Public addresses change across
	// stop/start, so address-dependent artifacts (connection files) are
	// regenerated here.
	OnStarted func(ctx context.Context, h resource.Handle, address string) error
}

// VerifySpec configures the verification command and its retry budget.
type VerifySpec struct {
	// Script is an opaque, caller-authored idempotent command. Exit code
	// zero means verified.
	Script  string
	Timeout time.Duration

	// Attempts is the total attempt budget (default 3).
	Attempts int

	// Backoff is the linear delay between attempts (default 10s).
	Backoff time.Duration
}

// Config wires a Controller. Compute, Runner, Waiter and ReadyChain are
// required; Handle is required unless Provision is set.
type Config struct {
	Handle   resource.Handle
	Compute  Compute
	Runner   remote.Runner
	Waiter   *probe.Waiter
	Observer Observer

	// ReadyChain is the ordered probe chain for WaitReady and Start
	// (power state, then agent, then extensions where the provider has
	// them).
	ReadyChain []probe.Step

	// StopPolicy polls for the terminal stopped/deallocated power state
	// after a stop is issued. Stop is not done when the API call returns.
	StopPolicy probe.Policy

	Verify VerifySpec

	// GracefulStopScript, when set, is sent best-effort before the stop
	// API call so Windows shuts down cleanly.
	GracefulStopScript  string
	GracefulStopTimeout time.Duration

	Provision ProvisionFunc
	Hooks     Hooks
}

// Status is a point-in-time snapshot of a controller.
type Status struct {
	State         State
	DestroyFailed bool
	Handle        resource.Handle
}

// Controller owns the lifecycle state of one instance. All exported
// methods are safe for concurrent use; long-running operations do not
// hold the state lock.
type Controller struct {
	cfg Config
	obs Observer

	mu            sync.Mutex
	state         State
	handle        resource.Handle
	destroyFailed bool
}

// NewController validates cfg and returns a controller in the
// provisioning state.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Compute == nil {
		return nil, fmt.Errorf("compute cannot be nil")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if cfg.Waiter == nil {
		return nil, fmt.Errorf("waiter cannot be nil")
	}
	if len(cfg.ReadyChain) == 0 {
		return nil, fmt.Errorf("ready chain cannot be empty")
	}
	if cfg.Provision == nil && cfg.Handle.ID == "" {
		return nil, fmt.Errorf("handle required when no provision func is given")
	}
	if cfg.Verify.Attempts <= 0 {
		cfg.Verify.Attempts = 3
	}
	if cfg.Verify.Backoff <= 0 {
		cfg.Verify.Backoff = 10 * time.Second
	}
	if cfg.Verify.Timeout <= 0 {
		cfg.Verify.Timeout = 5 * time.Minute
	}
	if cfg.GracefulStopTimeout <= 0 {
		cfg.GracefulStopTimeout = time.Minute
	}
	obs := cfg.Observer
	if obs == nil {
		obs = NewConsoleObserver()
	}

	return &Controller{
		cfg:    cfg,
		obs:    obs,
		state:  StateProvisioning,
		handle: cfg.Handle,
	}, nil
}

// CurrentState returns the controller's state.
func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a snapshot including the destroy-failed substatus, which
// is tracked separately from the destroyed state so a failed cleanup is
// surfaced rather than hidden.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, DestroyFailed: c.destroyFailed, Handle: c.handle}
}

// Handle returns the instance identity the controller manages.
func (c *Controller) Handle() resource.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Provision records the externally created instance and moves to
// waiting-ready. Infrastructure failures move the controller to failed.
func (c *Controller) Provision(ctx context.Context) error {
	if err := c.require(StateProvisioning); err != nil {
		return err
	}

	start := time.Now()
	c.stageStarted(StateProvisioning)

	if c.cfg.Provision != nil {
		h, err := c.cfg.Provision(ctx)
		if err != nil {
			return c.fail(StateProvisioning, "", start, err)
		}
		c.mu.Lock()
		c.handle = h
		c.mu.Unlock()
	}

	c.stageCompleted(StateProvisioning, start)
	return c.transition(StateWaitingReady)
}

// WaitReady polls the configured probe chain until all probes succeed. A
// timeout or a permanent query error moves the controller to failed;
// cancellation leaves the state unchanged so the operator decides.
func (c *Controller) WaitReady(ctx context.Context) error {
	if err := c.require(StateWaitingReady); err != nil {
		return err
	}

	start := time.Now()
	c.stageStarted(StateWaitingReady)

	if err := c.waitChain(ctx, StateWaitingReady, start); err != nil {
		return err
	}

	c.stageCompleted(StateWaitingReady, start)
	return c.transition(StateVerifying)
}

// Verify runs the caller-supplied verification command with the configured
// retry budget. Verifying an already-ready instance is permitted and does
// not change state: the command is read-only by contract.
func (c *Controller) Verify(ctx context.Context) error {
	c.mu.Lock()
	current := c.state
	c.mu.Unlock()
	if current != StateVerifying && current != StateReady {
		return &InvalidTransitionError{From: current, To: StateReady}
	}
	if c.cfg.Verify.Script == "" {
		// Verification explicitly bypassed by configuration.
		if current == StateVerifying {
			return c.transition(StateReady)
		}
		return nil
	}

	start := time.Now()
	c.stageStarted(StateVerifying)

	var lastRes remote.Result
	err := retry.Do(ctx, func() error {
		res, err := c.cfg.Runner.Run(ctx, c.Handle(), c.cfg.Verify.Script, c.cfg.Verify.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Fatal(fmt.Errorf("%w: verification command outcome unknown", ErrCancelled))
			}
			return fmt.Errorf("verification dispatch: %w", err)
		}
		lastRes = res
		if res.ExitCode != 0 {
			return fmt.Errorf("verification exited %d: %s", res.ExitCode, res.Stderr)
		}
		return nil
	},
		retry.WithMaxRetries(c.cfg.Verify.Attempts-1),
		retry.WithLinearBackoff(),
		retry.WithInitialDelay(c.cfg.Verify.Backoff),
	)
	if err != nil {
		if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
			return fmt.Errorf("%w: verify interrupted", ErrCancelled)
		}
		return c.fail(StateVerifying, lastRes.Stderr, start, err)
	}

	c.stageCompleted(StateVerifying, start)
	if current == StateVerifying {
		return c.transition(StateReady)
	}
	return nil
}

// Stop shuts the instance down: a best-effort graceful shutdown script,
// the provider stop call, then a probe confirming the power state reached
// its terminal stopped or deallocated value.
func (c *Controller) Stop(ctx context.Context) error {
	if err := c.require(StateReady); err != nil {
		return err
	}
	if err := c.transition(StateStopping); err != nil {
		return err
	}

	start := time.Now()
	c.stageStarted(StateStopping)
	h := c.Handle()

	if c.cfg.GracefulStopScript != "" {
		if _, err := c.cfg.Runner.Run(ctx, h, c.cfg.GracefulStopScript, c.cfg.GracefulStopTimeout); err != nil {
			// Graceful shutdown is best-effort; the stop API call follows
			// regardless.
			c.obs.Printf("graceful shutdown on %s unavailable: %v", h, err)
		}
	}

	if err := c.cfg.Compute.StopInstance(ctx, h); err != nil {
		return c.fail(StateStopping, "", start, err)
	}

	stopped := probe.Step{
		Probe:  probe.PowerState(c.cfg.Compute, resource.PowerStopped, resource.PowerDeallocated),
		Policy: c.cfg.StopPolicy,
	}
	outcome, err := c.cfg.Waiter.Wait(ctx, h, stopped)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: stop in progress, final power state unknown", ErrCancelled)
		}
		return c.fail(StateStopping, outcome.LastDetail, start, err)
	}
	if !outcome.Succeeded {
		return c.fail(StateStopping, outcome.LastDetail, start,
			fmt.Errorf("instance did not reach stopped state"))
	}

	c.stageCompleted(StateStopping, start)
	return c.transition(StateStopped)
}

// Start powers the instance back on and re-runs the full readiness chain:
// the public address may have changed and the guest needs to settle again.
// The OnStarted hook runs exactly once after readiness.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.require(StateStopped); err != nil {
		return err
	}
	if err := c.transition(StateStarting); err != nil {
		return err
	}

	start := time.Now()
	c.stageStarted(StateStarting)
	h := c.Handle()

	if err := c.cfg.Compute.StartInstance(ctx, h); err != nil {
		return c.fail(StateStarting, "", start, err)
	}

	if err := c.waitChain(ctx, StateStarting, start); err != nil {
		return err
	}

	c.stageCompleted(StateStarting, start)
	if err := c.transition(StateReady); err != nil {
		return err
	}

	if c.cfg.Hooks.OnStarted != nil {
		addr, err := c.cfg.Compute.PublicAddress(ctx, h)
		if err != nil {
			return fmt.Errorf("instance ready but address lookup failed: %w", err)
		}
		if err := c.cfg.Hooks.OnStarted(ctx, h, addr); err != nil {
			return fmt.Errorf("instance ready but post-start hook failed: %w", err)
		}
	}
	return nil
}

// Destroy terminates the instance. It is attempted from every state
// including failed, so cleanup is never skipped. A failed destroy is
// recorded as a distinct substatus and can be retried.
func (c *Controller) Destroy(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateDestroyed {
		c.mu.Unlock()
		return nil
	}
	from := c.state
	c.state = StateDestroying
	c.mu.Unlock()
	if from != StateDestroying {
		c.stateChanged(from, StateDestroying)
	}

	start := time.Now()
	c.stageStarted(StateDestroying)
	h := c.Handle()

	if err := c.cfg.Compute.TerminateInstance(ctx, h); err != nil {
		c.mu.Lock()
		c.destroyFailed = true
		c.mu.Unlock()
		c.obs.Event(Event{
			Type:     EventStageFailed,
			Stage:    string(StateDestroying),
			Resource: h.String(),
			Message:  fmt.Sprintf("destroy failed: %v", err),
		})
		return &StageError{Stage: StateDestroying, Elapsed: time.Since(start), Err: err}
	}

	c.mu.Lock()
	c.destroyFailed = false
	c.mu.Unlock()
	c.stageCompleted(StateDestroying, start)
	return c.transition(StateDestroyed)
}

// Adopt aligns a fresh controller with the live power state of an
// already-deployed instance: running adopts as ready, stopped or
// deallocated as stopped, terminated as destroyed. CLI invocations are
// separate processes, so stop/start/status re-derive state this way.
func (c *Controller) Adopt(ctx context.Context) error {
	state, err := c.cfg.Compute.PowerState(ctx, c.Handle())
	if err != nil {
		return fmt.Errorf("adopt %s: %w", c.Handle(), err)
	}

	c.mu.Lock()
	from := c.state
	switch state {
	case resource.PowerRunning:
		c.state = StateReady
	case resource.PowerStopped, resource.PowerDeallocated:
		c.state = StateStopped
	case resource.PowerTerminated:
		c.state = StateDestroyed
	default:
		c.state = StateWaitingReady
	}
	to := c.state
	c.mu.Unlock()

	if from != to {
		c.stateChanged(from, to)
	}
	return nil
}

// waitChain runs the ready chain and translates outcomes into stage
// failures. Used by both WaitReady and Start.
func (c *Controller) waitChain(ctx context.Context, stage State, start time.Time) error {
	h := c.Handle()
	c.obs.Event(Event{Type: EventProbeWaiting, Stage: string(stage), Resource: h.String(),
		Message: fmt.Sprintf("polling %d probes", len(c.cfg.ReadyChain))})

	outcome, err := c.cfg.Waiter.Wait(ctx, h, c.cfg.ReadyChain...)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: readiness unknown", ErrCancelled)
		}
		return c.fail(stage, outcome.LastDetail, start, err)
	}
	if !outcome.Succeeded {
		name := "unknown"
		if outcome.FailedAt >= 0 && outcome.FailedAt < len(c.cfg.ReadyChain) {
			name = c.cfg.ReadyChain[outcome.FailedAt].Probe.Name()
		}
		return c.fail(stage, outcome.LastDetail, start,
			fmt.Errorf("probe %s did not become ready within its timeout", name))
	}

	c.obs.Event(Event{Type: EventProbeReady, Stage: string(stage), Resource: h.String(),
		Message: fmt.Sprintf("all probes ready in %v", outcome.Elapsed.Round(time.Second))})
	return nil
}

// require checks the controller is in the expected state for an operation.
func (c *Controller) require(want State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != want {
		return &InvalidTransitionError{From: c.state, To: want}
	}
	return nil
}

// transition moves to a new state after validating the edge.
func (c *Controller) transition(to State) error {
	c.mu.Lock()
	from := c.state
	if !canTransition(from, to) {
		c.mu.Unlock()
		return &InvalidTransitionError{From: from, To: to}
	}
	c.state = to
	c.mu.Unlock()
	c.stateChanged(from, to)
	return nil
}

// fail records a stage failure, moves to failed and returns the
// structured error carrying the last diagnostic.
func (c *Controller) fail(stage State, diagnostic string, start time.Time, err error) error {
	c.mu.Lock()
	from := c.state
	c.state = StateFailed
	c.mu.Unlock()
	c.stateChanged(from, StateFailed)

	stageErr := &StageError{
		Stage:      stage,
		Diagnostic: diagnostic,
		Elapsed:    time.Since(start),
		Err:        err,
	}
	c.obs.Event(Event{
		Type:     EventStageFailed,
		Stage:    string(stage),
		Resource: c.Handle().String(),
		Message:  stageErr.Error(),
	})
	return stageErr
}

func (c *Controller) stageStarted(stage State) {
	c.obs.Event(Event{Type: EventStageStarted, Stage: string(stage), Resource: c.Handle().String(), Message: "starting"})
}

func (c *Controller) stageCompleted(stage State, start time.Time) {
	c.obs.Event(Event{Type: EventStageCompleted, Stage: string(stage), Resource: c.Handle().String(),
		Message: fmt.Sprintf("completed in %v", time.Since(start).Round(time.Millisecond))})
}

func (c *Controller) stateChanged(from, to State) {
	c.obs.Event(Event{Type: EventStateChanged, Resource: c.Handle().String(),
		Message: fmt.Sprintf("%s -> %s", from, to)})
}
