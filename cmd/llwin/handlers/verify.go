package handlers

import (
	"context"
	"fmt"

	"github.com/dmcp718/ll-win-client/internal/lifecycle"
	"github.com/dmcp718/ll-win-client/internal/util/async"
	"github.com/dmcp718/ll-win-client/internal/util/naming"
)

// Verify handles the verify command.
//
// It re-runs the filespace mount check on every deployed instance that is
// currently running.
func Verify(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
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
	if len(outputs.InstanceIDs) == 0 {
		return fmt.Errorf("no instances deployed")
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
		tasks[i] = async.Task{Name: names[i], Func: func(ctx context.Context) error {
			if err := ctrl.Adopt(ctx); err != nil {
				return err
			}
			if ctrl.CurrentState() != lifecycle.StateReady {
				return fmt.Errorf("instance is %s, not running", ctrl.CurrentState())
			}
			return ctrl.Verify(ctx)
		}}
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return err
	}

	obs.Printf("verification passed on %d instance(s)", len(handles))
	return nil
}
