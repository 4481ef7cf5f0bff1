package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/dmcp718/ll-win-client/internal/remote"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

const (
	// runPowerShellDocument is the managed SSM document used for all
	// remote scripts on Windows guests.
	runPowerShellDocument = "AWS-RunPowerShellScript"

	// commandPollInterval matches the cadence the deployment scripts
	// polled invocations at.
	commandPollInterval = 2 * time.Second
)

// Run implements remote.Runner: dispatch and wait for completion.
func (c *Client) Run(ctx context.Context, h resource.Handle, script string, timeout time.Duration) (remote.Result, error) {
	inv, err := c.Start(ctx, h, script)
	if err != nil {
		return remote.Result{}, err
	}
	return inv.Wait(ctx, timeout)
}

// Start implements remote.Runner: dispatch via SSM without waiting.
func (c *Client) Start(ctx context.Context, h resource.Handle, script string) (remote.Invocation, error) {
	out, err := c.ssm.SendCommand(ctx, &ssm.SendCommandInput{
		InstanceIds:  []string{h.ID},
		DocumentName: aws.String(runPowerShellDocument),
		Parameters: map[string][]string{
			"commands": {script},
		},
	})
	if err != nil {
		// Dispatch failures mean the channel itself is unreachable: the
		// agent is not registered yet or the API rejected the target.
		return nil, fmt.Errorf("%w: %v", remote.ErrTransportUnavailable, err)
	}
	if out.Command == nil || out.Command.CommandId == nil {
		return nil, fmt.Errorf("%w: send command returned no command id", remote.ErrTransportUnavailable)
	}
	return &ssmInvocation{
		ssm:        c.ssm,
		commandID:  *out.Command.CommandId,
		instanceID: h.ID,
	}, nil
}

type ssmInvocation struct {
	ssm        SSMAPI
	commandID  string
	instanceID string
}

func (i *ssmInvocation) ID() string { return i.commandID }

// Poll implements remote.Invocation. An invocation that SSM has not
// registered yet reports not-done rather than an error; registration lags
// dispatch by a few seconds.
func (i *ssmInvocation) Poll(ctx context.Context) (remote.Result, bool, error) {
	out, err := i.ssm.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
		CommandId:  aws.String(i.commandID),
		InstanceId: aws.String(i.instanceID),
	})
	if err != nil {
		var notYet *ssmtypes.InvocationDoesNotExist
		if errors.As(err, &notYet) {
			return remote.Result{CommandID: i.commandID}, false, nil
		}
		return remote.Result{CommandID: i.commandID}, false, fmt.Errorf("%w: %v", remote.ErrTransportUnavailable, err)
	}

	switch out.Status {
	case ssmtypes.CommandInvocationStatusPending,
		ssmtypes.CommandInvocationStatusInProgress,
		ssmtypes.CommandInvocationStatusDelayed:
		return remote.Result{CommandID: i.commandID}, false, nil
	}

	res := remote.Result{
		ExitCode:  int(out.ResponseCode),
		CommandID: i.commandID,
	}
	if out.StandardOutputContent != nil {
		res.Stdout = *out.StandardOutputContent
	}
	if out.StandardErrorContent != nil {
		res.Stderr = *out.StandardErrorContent
	}
	// SSM reports -1 when the script never produced an exit code
	// (cancelled or timed out remotely). Normalize so callers can rely on
	// non-zero meaning failure.
	if out.Status != ssmtypes.CommandInvocationStatusSuccess && res.ExitCode == 0 {
		res.ExitCode = 1
		res.Stderr = fmt.Sprintf("command %s: %s", i.commandID, out.Status)
	}
	return res, true, nil
}

// Wait implements remote.Invocation.
func (i *ssmInvocation) Wait(ctx context.Context, timeout time.Duration) (remote.Result, error) {
	deadline := time.Now().Add(timeout)
	for {
		res, done, err := i.Poll(ctx)
		if err != nil {
			return res, err
		}
		if done {
			return res, nil
		}
		if time.Now().After(deadline) {
			return res, fmt.Errorf("command %s still running after %v", i.commandID, timeout)
		}

		timer := time.NewTimer(commandPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return res, ctx.Err()
		case <-timer.C:
		}
	}
}
