package handlers

import (
	"context"
	"fmt"

	"github.com/dmcp718/ll-win-client/internal/lifecycle"
)

// Destroy handles the destroy command.
//
// Instances are terminated best-effort through their controllers first so
// lifecycle events are emitted, then terraform destroy removes all
// remaining infrastructure (VPC, security groups, IAM roles). A failed
// per-instance termination does not abort the terraform destroy: the
// state file is the source of truth for what still exists.
func Destroy(ctx context.Context, configPath string, autoApprove bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if !autoApprove {
		ok, err := confirm(
			fmt.Sprintf("Destroy all instances for %s?", cfg.FilespaceDomain),
			"This operation is irreversible. All instance data will be lost.")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("destroy cancelled")
		}
	}

	obs := lifecycle.NewConsoleObserver()
	tf, err := newProvisioner(cfg, obs)
	if err != nil {
		return err
	}
	outputs, err := tf.Outputs(ctx)
	if err != nil {
		return err
	}

	if len(outputs.InstanceIDs) > 0 {
		controllers, names, _, err := adoptFleet(ctx, cfg, obs, lifecycle.Hooks{})
		if err != nil {
			obs.Printf("warning: could not adopt instances, relying on terraform: %v", err)
		} else {
			for i, ctrl := range controllers {
				if err := ctrl.Destroy(ctx); err != nil {
					obs.Printf("warning: terminating %s failed: %v", names[i], err)
				}
			}
		}
	}

	if err := tf.Destroy(ctx); err != nil {
		return fmt.Errorf("terraform destroy failed: %w", err)
	}

	obs.Printf("all resources destroyed")
	return nil
}
