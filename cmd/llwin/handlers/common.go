// Package handlers implements the business logic for the llwin CLI
// commands.
//
// Handlers are thin orchestration layers: they load configuration, build
// the cloud client and terraform provisioner through factory variables
// (replaceable in tests), and drive the lifecycle controllers.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/dmcp718/ll-win-client/internal/config"
	"github.com/dmcp718/ll-win-client/internal/connection"
	"github.com/dmcp718/ll-win-client/internal/lifecycle"
	awsplatform "github.com/dmcp718/ll-win-client/internal/platform/aws"
	azureplatform "github.com/dmcp718/ll-win-client/internal/platform/azure"
	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/remote"
	"github.com/dmcp718/ll-win-client/internal/resource"
	"github.com/dmcp718/ll-win-client/internal/terraform"
	"github.com/dmcp718/ll-win-client/internal/util/prerequisites"
)

// CloudClient is the full provider capability set the handlers need.
// Both platform adapters satisfy it; the Azure adapter additionally
// implements probe.ExtensionReader, which readyChain detects.
type CloudClient interface {
	lifecycle.Compute
	probe.AgentReader
	remote.Runner
}

// Provisioner mirrors the terraform provisioner surface used by handlers.
type Provisioner interface {
	WriteVars(vars map[string]any) error
	Init(ctx context.Context) error
	Apply(ctx context.Context) error
	Destroy(ctx context.Context) error
	Outputs(ctx context.Context) (terraform.Outputs, error)
}

// ConnectionManager mirrors the DCV connection-file manager surface.
type ConnectionManager interface {
	WriteConnectionFile(ep connection.Endpoint, password string) (string, error)
	WritePasswords(password string, endpoints []connection.Endpoint) (string, error)
	ReadPassword() (string, error)
	RegenerateAll(endpoints []connection.Endpoint) error
}

// Factory function variables - can be replaced in tests.
var (
	// loadConfig loads the deployment configuration, falling back to the
	// per-user default path when none is given.
	loadConfig = func(path string) (*config.Config, error) {
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		return config.Load(path)
	}

	// loadTimeouts loads wait configuration from the environment.
	loadTimeouts = config.LoadTimeouts

	// newCloudClient builds the provider adapter for the configured cloud.
	newCloudClient = func(ctx context.Context, cfg *config.Config) (CloudClient, error) {
		if cfg.ResourceProvider() == resource.Azure {
			return azureplatform.New(cfg.SubscriptionID)
		}
		return awsplatform.New(ctx, cfg.Region)
	}

	// newProvisioner builds the terraform provisioner for the working
	// directory named in the configuration.
	newProvisioner = func(cfg *config.Config, log terraform.Logger) (Provisioner, error) {
		return terraform.New(cfg.TerraformDir, log)
	}

	// newConnectionManager builds the DCV connection-file manager.
	newConnectionManager = func() (ConnectionManager, error) {
		return connection.NewManager()
	}

	// checkPrerequisites verifies the external tools deploy shells out to.
	checkPrerequisites = func() error {
		checks := prerequisites.Check(prerequisites.DefaultTools())
		if checks.HasErrors() {
			return checks.Error()
		}
		return nil
	}

	// confirm asks the operator a yes/no question.
	confirm = func(title, description string) (bool, error) {
		var ok bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&ok),
		))
		if err := form.Run(); err != nil {
			return false, err
		}
		return ok, nil
	}
)

// gracefulStopScript asks the LucidLink service to shut down before the
// instance is powered off, so the filespace cache is flushed.
const gracefulStopScript = `Stop-Service -Name 'Lucid' -Force -ErrorAction SilentlyContinue`

// instanceHandles builds one resource handle per terraform instance ID.
func instanceHandles(cfg *config.Config, ids []string) ([]resource.Handle, error) {
	handles := make([]resource.Handle, len(ids))
	for i, id := range ids {
		h, err := resource.NewHandle(cfg.ResourceProvider(), id, cfg.Region, cfg.ResourceGroup)
		if err != nil {
			return nil, err
		}
		handles[i] = h
	}
	return handles, nil
}

// readyChain builds the ordered readiness probes: power state, then the
// remote-execution agent, then post-provisioning extensions where the
// provider reports them (Azure does, AWS does not).
func readyChain(client CloudClient, t *config.Timeouts) []probe.Step {
	steps := []probe.Step{
		{Probe: probe.PowerState(client, resource.PowerRunning), Policy: t.PowerPolicy()},
		{Probe: probe.AgentReady(client), Policy: t.AgentPolicy()},
	}
	if ext, ok := client.(probe.ExtensionReader); ok {
		steps = append(steps, probe.Step{Probe: probe.Extensions(ext), Policy: t.AgentPolicy()})
	}
	return steps
}

// verifyScript checks that the LucidLink filespace is mounted at the
// configured drive letter.
func verifyScript(mountPoint string) string {
	point := strings.ReplaceAll(mountPoint, "'", "''")
	return fmt.Sprintf(
		"if (Test-Path -Path '%s\\') { Write-Host 'filespace mounted' ; exit 0 } else { Write-Error 'filespace not mounted' ; exit 1 }",
		strings.TrimSuffix(point, "\\"))
}

// newController wires one lifecycle controller for one instance.
func newController(client CloudClient, h resource.Handle, t *config.Timeouts, obs lifecycle.Observer, hooks lifecycle.Hooks, mountPoint string) (*lifecycle.Controller, error) {
	return lifecycle.NewController(lifecycle.Config{
		Handle:              h,
		Compute:             client,
		Runner:              remote.NewAuditRunner(client, obs),
		Waiter:              probe.NewWaiter(obs),
		Observer:            obs,
		ReadyChain:          readyChain(client, t),
		StopPolicy:          t.StopPolicy(),
		Verify:              lifecycle.VerifySpec{Script: verifyScript(mountPoint), Timeout: t.VerifyTimeout, Attempts: t.VerifyAttempts, Backoff: t.VerifyBackoff},
		GracefulStopScript:  gracefulStopScript,
		GracefulStopTimeout: time.Minute,
		Hooks:               hooks,
	})
}

// endpointsFromOutputs pairs terraform instance IDs with their public IPs.
func endpointsFromOutputs(outputs terraform.Outputs, names []string) []connection.Endpoint {
	endpoints := make([]connection.Endpoint, len(outputs.InstanceIDs))
	for i, id := range outputs.InstanceIDs {
		ep := connection.Endpoint{Name: names[i], InstanceID: id}
		if i < len(outputs.PublicIPs) {
			ep.PublicIP = outputs.PublicIPs[i]
		}
		endpoints[i] = ep
	}
	return endpoints
}
