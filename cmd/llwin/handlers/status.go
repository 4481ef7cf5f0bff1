package handlers

import (
	"context"
	"fmt"

	"github.com/dmcp718/ll-win-client/internal/lifecycle"
	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
	"github.com/dmcp718/ll-win-client/internal/util/naming"
)

// instanceStatus is one row of the status table.
type instanceStatus struct {
	Name       string
	InstanceID string
	PublicIP   string
	Power      resource.PowerState
	Agent      probe.AgentStatus
}

// Status handles the status command.
//
// It reads the deployed instances from the terraform state and queries
// each one's live power state and agent registration.
func Status(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	tf, err := newProvisioner(cfg, lifecycle.NopObserver{})
	if err != nil {
		return err
	}
	outputs, err := tf.Outputs(ctx)
	if err != nil {
		return err
	}
	if len(outputs.InstanceIDs) == 0 {
		fmt.Println("No instances deployed. Run 'llwin deploy' first.")
		return nil
	}

	client, err := newCloudClient(ctx, cfg)
	if err != nil {
		return err
	}
	handles, err := instanceHandles(cfg, outputs.InstanceIDs)
	if err != nil {
		return err
	}

	names := naming.Instances(len(handles))
	statuses := make([]instanceStatus, len(handles))
	for i, h := range handles {
		row := instanceStatus{Name: names[i], InstanceID: h.ID}
		if i < len(outputs.PublicIPs) {
			row.PublicIP = outputs.PublicIPs[i]
		}

		power, err := client.PowerState(ctx, h)
		if err != nil {
			power = resource.PowerUnknown
		}
		row.Power = power

		// The agent cannot respond on a powered-off instance, so skip
		// the query instead of reporting a misleading offline status.
		if power == resource.PowerRunning {
			agent, err := client.AgentStatus(ctx, h)
			if err != nil {
				agent = probe.AgentUnknown
			}
			row.Agent = agent
		}
		statuses[i] = row
	}

	fmt.Print(renderStatus(cfg.FilespaceDomain, statuses))
	return nil
}
