package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/dmcp718/ll-win-client/internal/remote"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

// AgentStatus is the normalized registration state of the remote-execution
// agent (SSM agent on AWS, VM agent on Azure).
type AgentStatus string

const (
	AgentOnline         AgentStatus = "online"
	AgentNotRegistered  AgentStatus = "not-registered"
	AgentConnectionLost AgentStatus = "connection-lost"
	AgentInactive       AgentStatus = "inactive"
	AgentUnknown        AgentStatus = "unknown"
)

// StateReader queries the power state of an instance.
type StateReader interface {
	PowerState(ctx context.Context, h resource.Handle) (resource.PowerState, error)
}

// AgentReader queries the remote-execution agent registration.
type AgentReader interface {
	AgentStatus(ctx context.Context, h resource.Handle) (AgentStatus, error)
}

// ExtensionStatus summarizes post-provisioning installer steps.
type ExtensionStatus struct {
	Complete bool
	Detail   string
}

// ExtensionReader queries post-provisioning extension/installer status.
type ExtensionReader interface {
	ExtensionStatus(ctx context.Context, h resource.Handle) (ExtensionStatus, error)
}

// PowerState returns a probe that is ready when the instance reports one
// of the wanted power states.
func PowerState(r StateReader, want ...resource.PowerState) Probe {
	return &powerStateProbe{reader: r, want: want}
}

type powerStateProbe struct {
	reader StateReader
	want   []resource.PowerState
}

func (p *powerStateProbe) Name() string { return "power-state" }

func (p *powerStateProbe) Check(ctx context.Context, h resource.Handle) (Result, error) {
	state, err := p.reader.PowerState(ctx, h)
	if err != nil {
		return Result{}, err
	}
	for _, w := range p.want {
		if state == w {
			return ready(fmt.Sprintf("power state %s", state)), nil
		}
	}
	return notReady(fmt.Sprintf("power state %s, waiting for %v", state, p.want)), nil
}

// AgentReady returns a probe that is ready once the remote-execution
// agent has registered and responds.
func AgentReady(r AgentReader) Probe {
	return &agentOnlineProbe{reader: r}
}

type agentOnlineProbe struct {
	reader AgentReader
}

func (p *agentOnlineProbe) Name() string { return "agent-online" }

func (p *agentOnlineProbe) Check(ctx context.Context, h resource.Handle) (Result, error) {
	status, err := p.reader.AgentStatus(ctx, h)
	if err != nil {
		return Result{}, err
	}
	if status == AgentOnline {
		return ready("agent online"), nil
	}
	return notReady(fmt.Sprintf("agent %s", status)), nil
}

// Extensions returns a probe that is ready once all post-provisioning
// install steps report success.
func Extensions(r ExtensionReader) Probe {
	return &extensionsProbe{reader: r}
}

type extensionsProbe struct {
	reader ExtensionReader
}

func (p *extensionsProbe) Name() string { return "extensions" }

func (p *extensionsProbe) Check(ctx context.Context, h resource.Handle) (Result, error) {
	status, err := p.reader.ExtensionStatus(ctx, h)
	if err != nil {
		return Result{}, err
	}
	if status.Complete {
		return ready(status.Detail), nil
	}
	return notReady(status.Detail), nil
}

// PathExists returns a probe that is ready when the given path is present
// on the instance. Used to verify a mount or install landed. The check
// runs a read-only PowerShell test through the remote-execution channel.
func PathExists(r remote.Runner, path string, timeout time.Duration) Probe {
	return &pathExistsProbe{runner: r, path: path, timeout: timeout}
}

type pathExistsProbe struct {
	runner  remote.Runner
	path    string
	timeout time.Duration
}

func (p *pathExistsProbe) Name() string { return "path-exists" }

func (p *pathExistsProbe) Check(ctx context.Context, h resource.Handle) (Result, error) {
	script := fmt.Sprintf("if (Test-Path -Path '%s') { exit 0 } else { exit 1 }", p.path)
	res, err := p.runner.Run(ctx, h, script, p.timeout)
	if err != nil {
		// Transport failures are retryable; the path may appear once the
		// channel is back.
		return Result{}, Transient(err)
	}
	if res.ExitCode == 0 {
		return ready(fmt.Sprintf("path %s present", p.path)), nil
	}
	return notReady(fmt.Sprintf("path %s absent", p.path)), nil
}

func ready(detail string) Result {
	return Result{Ready: true, Detail: detail, Timestamp: time.Now()}
}

func notReady(detail string) Result {
	return Result{Ready: false, Detail: detail, Timestamp: time.Now()}
}
