package remote

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmcp718/ll-win-client/internal/resource"
)

// Logger is the minimal logging surface the audit decorator needs.
type Logger interface {
	Printf(format string, v ...interface{})
}

// AuditRunner wraps a Runner and logs every invocation: command text,
// start and end time, exit code and command ID. Remote scripts mutate
// system state with no other record, so this log is the audit trail.
type AuditRunner struct {
	Inner Runner
	Log   Logger
}

// NewAuditRunner wraps inner so every dispatch is logged.
func NewAuditRunner(inner Runner, log Logger) *AuditRunner {
	return &AuditRunner{Inner: inner, Log: log}
}

// Run implements Runner.
func (a *AuditRunner) Run(ctx context.Context, h resource.Handle, script string, timeout time.Duration) (Result, error) {
	start := time.Now()
	a.Log.Printf("remote command starting on %s: %s", h, summarize(script))

	res, err := a.Inner.Run(ctx, h, script, timeout)
	if err != nil {
		a.Log.Printf("remote command on %s failed after %v: %v", h, time.Since(start).Round(time.Millisecond), err)
		return res, err
	}

	if res.CommandID == "" {
		res.CommandID = uuid.NewString()
	}
	a.Log.Printf("remote command %s on %s finished in %v with exit code %d",
		res.CommandID, h, time.Since(start).Round(time.Millisecond), res.ExitCode)
	return res, nil
}

// Start implements Runner. Completion is logged when the caller's
// Poll/Wait observes it.
func (a *AuditRunner) Start(ctx context.Context, h resource.Handle, script string) (Invocation, error) {
	a.Log.Printf("remote command dispatching on %s: %s", h, summarize(script))
	inv, err := a.Inner.Start(ctx, h, script)
	if err != nil {
		a.Log.Printf("remote command dispatch on %s failed: %v", h, err)
		return nil, err
	}
	a.Log.Printf("remote command %s dispatched on %s", inv.ID(), h)
	return &auditInvocation{inner: inv, log: a.Log, handle: h, started: time.Now()}, nil
}

type auditInvocation struct {
	inner   Invocation
	log     Logger
	handle  resource.Handle
	started time.Time
	logged  bool
}

func (i *auditInvocation) ID() string { return i.inner.ID() }

func (i *auditInvocation) Poll(ctx context.Context) (Result, bool, error) {
	res, done, err := i.inner.Poll(ctx)
	if done && err == nil {
		i.logDone(res)
	}
	return res, done, err
}

func (i *auditInvocation) Wait(ctx context.Context, timeout time.Duration) (Result, error) {
	res, err := i.inner.Wait(ctx, timeout)
	if err == nil {
		i.logDone(res)
	}
	return res, err
}

func (i *auditInvocation) logDone(res Result) {
	if i.logged {
		return
	}
	i.logged = true
	i.log.Printf("remote command %s on %s finished in %v with exit code %d",
		i.inner.ID(), i.handle, time.Since(i.started).Round(time.Millisecond), res.ExitCode)
}

// summarize truncates long scripts so the audit log stays readable.
func summarize(script string) string {
	const max = 120
	if len(script) <= max {
		return script
	}
	return script[:max] + "..."
}
