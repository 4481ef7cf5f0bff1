package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmcp718/ll-win-client/internal/config"
	"github.com/dmcp718/ll-win-client/internal/lifecycle"
	"github.com/dmcp718/ll-win-client/internal/resource"
	"github.com/dmcp718/ll-win-client/internal/ui/tui"
	"github.com/dmcp718/ll-win-client/internal/util/async"
	"github.com/dmcp718/ll-win-client/internal/util/naming"
)

// Start handles the start command.
//
// It powers every stopped instance back on, waits for readiness, and
// regenerates the DCV connection files because public addresses change
// across a stop/start cycle.
func Start(ctx context.Context, configPath string, plain bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if plain {
		return runStart(ctx, cfg, lifecycle.NewConsoleObserver(), nopProgress)
	}

	names := naming.Instances(cfg.InstanceCount)
	return tui.RunDeployTUI(func(ch chan<- tui.InstanceStageMsg) error {
		return runStart(ctx, cfg, lifecycle.NopObserver{}, func(index int, stage, detail string, done bool, err error) {
			ch <- tui.InstanceStageMsg{Index: index, Stage: stage, Detail: detail, Done: done, Err: err}
		})
	}, fmt.Sprintf("Starting %s", cfg.FilespaceDomain), names)
}

func runStart(ctx context.Context, cfg *config.Config, obs lifecycle.Observer, progress progressFunc) error {
	// Collect the fresh addresses as each instance comes up; the
	// connection files are rewritten once at the end.
	var mu sync.Mutex
	addresses := make(map[string]string)
	hooks := lifecycle.Hooks{
		OnStarted: func(_ context.Context, h resource.Handle, address string) error {
			mu.Lock()
			addresses[h.ID] = address
			mu.Unlock()
			return nil
		},
	}

	controllers, names, outputs, err := adoptFleet(ctx, cfg, obs, hooks)
	if err != nil {
		return err
	}

	var tasks []async.Task
	for i, ctrl := range controllers {
		if ctrl.CurrentState() != lifecycle.StateStopped {
			obs.Printf("%s is %s, skipping", names[i], ctrl.CurrentState())
			progress(i, tui.StageReady, fmt.Sprintf("already %s", ctrl.CurrentState()), true, nil)
			continue
		}
		c := ctrl
		index := i
		tasks = append(tasks, async.Task{Name: names[i], Func: func(ctx context.Context) error {
			progress(index, tui.StageWaitingReady, "powering on", false, nil)
			if err := c.Start(ctx); err != nil {
				progress(index, tui.StageFailed, "", false, err)
				return err
			}
			progress(index, tui.StageReady, "running", true, nil)
			return nil
		}})
	}
	if len(tasks) == 0 {
		obs.Printf("no stopped instances to start")
		return nil
	}
	if err := async.RunParallel(ctx, tasks); err != nil {
		return err
	}

	endpoints := endpointsFromOutputs(outputs, names)
	for i := range endpoints {
		if addr, ok := addresses[endpoints[i].InstanceID]; ok {
			endpoints[i].PublicIP = addr
		}
	}

	manager, err := newConnectionManager()
	if err != nil {
		return err
	}
	if err := manager.RegenerateAll(endpoints); err != nil {
		return fmt.Errorf("regenerating connection files: %w", err)
	}

	obs.Printf("started %d instance(s); connection files updated", len(tasks))
	return nil
}
