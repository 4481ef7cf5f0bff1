package handlers

import (
	"context"
	"fmt"

	"github.com/dmcp718/ll-win-client/internal/config"
	"github.com/dmcp718/ll-win-client/internal/lifecycle"
	"github.com/dmcp718/ll-win-client/internal/terraform"
	"github.com/dmcp718/ll-win-client/internal/util/async"
	"github.com/dmcp718/ll-win-client/internal/util/naming"
)

// Stop handles the stop command.
//
// It stops every running instance after confirmation. Stopped instances
// keep their disks; compute billing ends (Azure VMs are deallocated).
func Stop(ctx context.Context, configPath string, autoApprove bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	obs := lifecycle.NewConsoleObserver()
	controllers, names, _, err := adoptFleet(ctx, cfg, obs, lifecycle.Hooks{})
	if err != nil {
		return err
	}

	running := 0
	for _, ctrl := range controllers {
		if ctrl.CurrentState() == lifecycle.StateReady {
			running++
		}
	}
	if running == 0 {
		obs.Printf("all instances are already stopped")
		return nil
	}

	if !autoApprove {
		ok, err := confirm(
			fmt.Sprintf("Stop %d running instance(s)?", running),
			"Disks are kept; compute billing stops. Reconnect with 'llwin start'.")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("stop cancelled")
		}
	}

	var tasks []async.Task
	for i, ctrl := range controllers {
		if ctrl.CurrentState() != lifecycle.StateReady {
			obs.Printf("%s is %s, skipping", names[i], ctrl.CurrentState())
			continue
		}
		c := ctrl
		tasks = append(tasks, async.Task{Name: names[i], Func: func(ctx context.Context) error {
			return c.Stop(ctx)
		}})
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return err
	}

	obs.Printf("stopped %d instance(s)", len(tasks))
	return nil
}

// adoptFleet builds one controller per deployed instance and aligns each
// with the live power state.
func adoptFleet(ctx context.Context, cfg *config.Config, obs lifecycle.Observer, hooks lifecycle.Hooks) ([]*lifecycle.Controller, []string, terraform.Outputs, error) {
	tf, err := newProvisioner(cfg, obs)
	if err != nil {
		return nil, nil, terraform.Outputs{}, err
	}
	outputs, err := tf.Outputs(ctx)
	if err != nil {
		return nil, nil, terraform.Outputs{}, err
	}
	if len(outputs.InstanceIDs) == 0 {
		return nil, nil, terraform.Outputs{}, fmt.Errorf("no instances deployed")
	}

	client, err := newCloudClient(ctx, cfg)
	if err != nil {
		return nil, nil, terraform.Outputs{}, err
	}
	timeouts := loadTimeouts()
	handles, err := instanceHandles(cfg, outputs.InstanceIDs)
	if err != nil {
		return nil, nil, terraform.Outputs{}, err
	}

	names := naming.Instances(len(handles))
	controllers := make([]*lifecycle.Controller, len(handles))
	for i, h := range handles {
		ctrl, err := newController(client, h, timeouts, obs.WithFields(map[string]string{"instance": names[i]}), hooks, cfg.MountPoint)
		if err != nil {
			return nil, nil, terraform.Outputs{}, err
		}
		if err := ctrl.Adopt(ctx); err != nil {
			return nil, nil, terraform.Outputs{}, err
		}
		controllers[i] = ctrl
	}
	return controllers, names, outputs, nil
}
