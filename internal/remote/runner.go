// Package remote abstracts provider remote-execution channels (SSM run
// command on AWS, Run Command on Azure) behind one Runner contract.
//
// Idempotence is not guaranteed here: callers must supply idempotent
// scripts. Installers are expected to check "already installed" before
// acting.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/dmcp718/ll-win-client/internal/resource"
)

// ErrTransportUnavailable indicates the remote-execution channel itself
// could not be reached. It is distinct from the command failing, which is
// reported through a non-zero ExitCode.
var ErrTransportUnavailable = errors.New("remote execution transport unavailable")

// Result is the structured output of one remote command. Ownership is
// transient: callers inspect it and discard it.
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	CommandID string
}

// Invocation is a dispatched command that has not necessarily finished.
// Long-running installers use Start plus Poll/Wait; short commands use
// Runner.Run directly.
type Invocation interface {
	// ID returns the transport's identifier for this invocation.
	ID() string

	// Poll checks completion once. done is false while the command is
	// still executing remotely.
	Poll(ctx context.Context) (res Result, done bool, err error)

	// Wait polls until the command completes or the timeout elapses.
	// Cancellation stops the polling only; the remote command keeps
	// running with an unknown outcome.
	Wait(ctx context.Context, timeout time.Duration) (Result, error)
}

// Runner executes a script on an instance through whatever channel its
// provider supports.
type Runner interface {
	// Run dispatches the script and waits for completion.
	Run(ctx context.Context, h resource.Handle, script string, timeout time.Duration) (Result, error)

	// Start dispatches the script and returns without waiting.
	Start(ctx context.Context, h resource.Handle, script string) (Invocation, error)
}
