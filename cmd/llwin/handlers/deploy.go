package handlers

import (
	"context"
	"fmt"

	"github.com/dmcp718/ll-win-client/internal/config"
	"github.com/dmcp718/ll-win-client/internal/connection"
	"github.com/dmcp718/ll-win-client/internal/lifecycle"
	"github.com/dmcp718/ll-win-client/internal/remote"
	"github.com/dmcp718/ll-win-client/internal/terraform"
	"github.com/dmcp718/ll-win-client/internal/ui/tui"
	"github.com/dmcp718/ll-win-client/internal/util/async"
	"github.com/dmcp718/ll-win-client/internal/util/naming"
)

// DeployOptions holds the deploy command flags.
type DeployOptions struct {
	ConfigPath  string
	AutoApprove bool
	Plain       bool
}

// progressFunc reports per-instance stage changes to the UI.
type progressFunc func(index int, stage, detail string, done bool, err error)

func nopProgress(int, string, string, bool, error) {}

// Deploy handles the deploy command.
//
// It provisions the Windows instances with terraform, waits for each to
// become ready (power, agent, extensions), verifies the filespace mount,
// sets the Administrator password and writes the DCV connection files.
func Deploy(ctx context.Context, opts DeployOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	if err := checkPrerequisites(); err != nil {
		return err
	}

	if !opts.AutoApprove {
		ok, err := confirm(
			fmt.Sprintf("Deploy %d Windows instance(s) to %s?", cfg.InstanceCount, cfg.Provider),
			"Terraform will create cloud resources that incur charges.")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("deployment cancelled")
		}
	}

	names := naming.Instances(cfg.InstanceCount)
	if opts.Plain {
		return runDeploy(ctx, cfg, lifecycle.NewConsoleObserver(), nopProgress)
	}

	return tui.RunDeployTUI(func(ch chan<- tui.InstanceStageMsg) error {
		return runDeploy(ctx, cfg, lifecycle.NopObserver{}, func(index int, stage, detail string, done bool, err error) {
			ch <- tui.InstanceStageMsg{Index: index, Stage: stage, Detail: detail, Done: done, Err: err}
		})
	}, fmt.Sprintf("Deploying %s", cfg.FilespaceDomain), names)
}

// runDeploy is the deploy pipeline shared by the TUI and plain paths.
func runDeploy(ctx context.Context, cfg *config.Config, obs lifecycle.Observer, progress progressFunc) error {
	tf, err := newProvisioner(cfg, obs)
	if err != nil {
		return err
	}

	for i := 0; i < cfg.InstanceCount; i++ {
		progress(i, tui.StageProvisioning, "terraform apply", false, nil)
	}

	if err := tf.WriteVars(cfg.TerraformVars()); err != nil {
		return err
	}
	if err := tf.Init(ctx); err != nil {
		return fmt.Errorf("terraform init failed: %w", err)
	}
	if err := tf.Apply(ctx); err != nil {
		return fmt.Errorf("terraform apply failed: %w", err)
	}

	outputs, err := tf.Outputs(ctx)
	if err != nil {
		return err
	}
	if len(outputs.InstanceIDs) == 0 {
		return fmt.Errorf("terraform reported no instances")
	}

	client, err := newCloudClient(ctx, cfg)
	if err != nil {
		return err
	}
	timeouts := loadTimeouts()

	handles, err := instanceHandles(cfg, outputs.InstanceIDs)
	if err != nil {
		return err
	}

	names := naming.Instances(len(handles))
	tasks := make([]async.Task, len(handles))
	for i, h := range handles {
		ctrl, err := newController(client, h, timeouts, obs.WithFields(map[string]string{"instance": names[i]}), lifecycle.Hooks{}, cfg.MountPoint)
		if err != nil {
			return err
		}
		index := i
		tasks[i] = async.Task{Name: names[i], Func: func(ctx context.Context) error {
			if err := ctrl.Provision(ctx); err != nil {
				progress(index, tui.StageFailed, "", false, err)
				return err
			}
			progress(index, tui.StageWaitingReady, "waiting for instance", false, nil)
			if err := ctrl.WaitReady(ctx); err != nil {
				progress(index, tui.StageFailed, "", false, err)
				return err
			}
			progress(index, tui.StageVerifying, "checking filespace mount", false, nil)
			if err := ctrl.Verify(ctx); err != nil {
				progress(index, tui.StageFailed, "", false, err)
				return err
			}
			progress(index, tui.StageReady, "filespace mounted", true, nil)
			return nil
		}}
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return err
	}

	if err := writeConnectionArtifacts(ctx, client, cfg, timeouts, outputs, names, obs); err != nil {
		return err
	}

	obs.Printf("deployment complete: %d instance(s) ready", len(handles))
	return nil
}

// writeConnectionArtifacts generates one Administrator password shared by
// all instances, sets it on each instance over the remote-execution
// channel, and writes the DCV connection files plus PASSWORDS.txt.
func writeConnectionArtifacts(ctx context.Context, client CloudClient, cfg *config.Config, timeouts *config.Timeouts, outputs terraform.Outputs, names []string, obs lifecycle.Observer) error {
	manager, err := newConnectionManager()
	if err != nil {
		return err
	}

	password, err := connection.GeneratePassword(connection.DefaultPasswordLength)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	handles, err := instanceHandles(cfg, outputs.InstanceIDs)
	if err != nil {
		return err
	}

	runner := remote.NewAuditRunner(client, obs)
	script := connection.SetPasswordScript(password)
	for i, h := range handles {
		res, err := runner.Run(ctx, h, script, timeouts.Command)
		if err != nil {
			obs.Printf("warning: setting password on %s: %v", names[i], err)
			continue
		}
		if res.ExitCode != 0 {
			obs.Printf("warning: setting password on %s: exit code %d: %s", names[i], res.ExitCode, res.Stderr)
		}
	}

	endpoints := endpointsFromOutputs(outputs, names)
	path, err := manager.WritePasswords(password, endpoints)
	if err != nil {
		return err
	}
	obs.Printf("passwords written to %s", path)

	for _, ep := range endpoints {
		if ep.PublicIP == "" {
			continue
		}
		if _, err := manager.WriteConnectionFile(ep, password); err != nil {
			return fmt.Errorf("writing connection file for %s: %w", ep.Name, err)
		}
	}
	return nil
}
