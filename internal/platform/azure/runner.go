package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"

	"github.com/dmcp718/ll-win-client/internal/remote"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

// Run implements remote.Runner: dispatch and wait for completion.
func (c *Client) Run(ctx context.Context, h resource.Handle, script string, timeout time.Duration) (remote.Result, error) {
	inv, err := c.Start(ctx, h, script)
	if err != nil {
		return remote.Result{}, err
	}
	return inv.Wait(ctx, timeout)
}

// Start implements remote.Runner: dispatch via Run Command without
// waiting.
func (c *Client) Start(ctx context.Context, h resource.Handle, script string) (remote.Invocation, error) {
	poller, err := c.api.BeginRunCommand(ctx, h.ResourceGroup, h.ID, script)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", remote.ErrTransportUnavailable, err)
	}
	return &runCommandInvocation{poller: poller}, nil
}

type runCommandInvocation struct {
	poller CommandPoller
}

func (i *runCommandInvocation) ID() string { return i.poller.ID() }

func (i *runCommandInvocation) Poll(ctx context.Context) (remote.Result, bool, error) {
	raw, done, err := i.poller.Poll(ctx)
	if err != nil {
		return remote.Result{CommandID: i.ID()}, done, fmt.Errorf("%w: %v", remote.ErrTransportUnavailable, err)
	}
	if !done {
		return remote.Result{CommandID: i.ID()}, false, nil
	}
	return i.toResult(raw), true, nil
}

func (i *runCommandInvocation) Wait(ctx context.Context, timeout time.Duration) (remote.Result, error) {
	raw, err := i.poller.Wait(ctx, timeout)
	if err != nil {
		return remote.Result{CommandID: i.ID()}, fmt.Errorf("%w: %v", remote.ErrTransportUnavailable, err)
	}
	return i.toResult(raw), nil
}

// toResult maps a Run Command result onto the exit-code contract. Run
// Command flattens the script's exit code: a script that exits non-zero
// still reports ProvisioningState/succeeded. Scripts therefore signal
// failure by writing to the error stream (throw, Write-Error), and any
// stderr output is treated as a failure here.
func (i *runCommandInvocation) toResult(raw armcompute.RunCommandResult) remote.Result {
	res := remote.Result{CommandID: i.ID()}
	succeeded := false
	for _, st := range raw.Value {
		if st == nil {
			continue
		}
		if st.Code != nil && strings.EqualFold(*st.Code, "ProvisioningState/succeeded") {
			succeeded = true
		}
		if st.Message != nil {
			stdout, stderr := splitRunCommandMessage(*st.Message)
			res.Stdout += stdout
			res.Stderr += stderr
		}
	}
	if !succeeded || strings.TrimSpace(res.Stderr) != "" {
		res.ExitCode = 1
	}
	return res
}

// splitRunCommandMessage separates the [stdout] and [stderr] sections Run
// Command concatenates into a single status message.
func splitRunCommandMessage(message string) (stdout, stderr string) {
	const outMark, errMark = "[stdout]", "[stderr]"
	outIdx := strings.Index(message, outMark)
	errIdx := strings.Index(message, errMark)
	if outIdx < 0 && errIdx < 0 {
		return message, ""
	}
	if outIdx >= 0 {
		end := len(message)
		if errIdx > outIdx {
			end = errIdx
		}
		stdout = strings.TrimSpace(message[outIdx+len(outMark) : end])
	}
	if errIdx >= 0 {
		stderr = strings.TrimSpace(message[errIdx+len(errMark):])
	}
	return stdout, stderr
}
