// Package azure adapts Azure Resource Manager compute operations to the
// resource, probe and remote contracts. Stopping a VM always deallocates
// it so compute billing stops.
package azure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
	"github.com/dmcp718/ll-win-client/internal/util/ptr"
)

// API is the narrow slice of Azure Resource Manager this package needs.
// Long-running operations are resolved inside the implementation so fakes
// never have to construct SDK pollers.
type API interface {
	InstanceView(ctx context.Context, resourceGroup, name string) (armcompute.VirtualMachineInstanceView, error)
	Start(ctx context.Context, resourceGroup, name string) error
	Deallocate(ctx context.Context, resourceGroup, name string) error
	Delete(ctx context.Context, resourceGroup, name string) error
	PublicAddress(ctx context.Context, resourceGroup, name string) (string, error)
	BeginRunCommand(ctx context.Context, resourceGroup, name, script string) (CommandPoller, error)
}

// CommandPoller tracks one dispatched Run Command operation.
type CommandPoller interface {
	ID() string
	Poll(ctx context.Context) (armcompute.RunCommandResult, bool, error)
	Wait(ctx context.Context, timeout time.Duration) (armcompute.RunCommandResult, error)
}

// Client implements the compute, probe-reader and remote-runner contracts
// for Azure virtual machines.
type Client struct {
	api API
}

// New builds a Client authenticated through the default credential chain
// (environment, workload identity, managed identity, Azure CLI).
func New(subscriptionID string) (*Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("building azure credential: %w", err)
	}
	vms, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building compute client: %w", err)
	}
	nics, err := armnetwork.NewInterfacesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building network client: %w", err)
	}
	pips, err := armnetwork.NewPublicIPAddressesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("building public ip client: %w", err)
	}
	return &Client{api: &sdkAPI{vms: vms, nics: nics, pips: pips}}, nil
}

// NewFromAPI builds a Client on a caller-supplied API, used by tests.
func NewFromAPI(api API) *Client {
	return &Client{api: api}
}

// PowerState reads the VM instance view and maps its PowerState/* status
// code. Azure reports deallocated separately from stopped; both are
// settled states but only deallocated stops compute billing.
func (c *Client) PowerState(ctx context.Context, h resource.Handle) (resource.PowerState, error) {
	iv, err := c.api.InstanceView(ctx, h.ResourceGroup, h.ID)
	if err != nil {
		return resource.PowerUnknown, wrapQueryError(h, err)
	}
	for _, st := range iv.Statuses {
		if st == nil || st.Code == nil {
			continue
		}
		code, ok := strings.CutPrefix(*st.Code, "PowerState/")
		if !ok {
			continue
		}
		switch code {
		case "running":
			return resource.PowerRunning, nil
		case "starting":
			return resource.PowerPending, nil
		case "stopping", "deallocating":
			return resource.PowerStopping, nil
		case "stopped":
			return resource.PowerStopped, nil
		case "deallocated":
			return resource.PowerDeallocated, nil
		}
	}
	return resource.PowerUnknown, nil
}

// AgentStatus reports whether the VM guest agent is ready. The agent view
// is absent entirely until the agent first reports in.
func (c *Client) AgentStatus(ctx context.Context, h resource.Handle) (probe.AgentStatus, error) {
	iv, err := c.api.InstanceView(ctx, h.ResourceGroup, h.ID)
	if err != nil {
		return probe.AgentUnknown, wrapQueryError(h, err)
	}
	agent := iv.VMAgent
	if agent == nil || len(agent.Statuses) == 0 {
		return probe.AgentNotRegistered, nil
	}
	for _, st := range agent.Statuses {
		if st == nil {
			continue
		}
		if st.DisplayStatus != nil && *st.DisplayStatus == "Ready" {
			return probe.AgentOnline, nil
		}
	}
	return probe.AgentNotRegistered, nil
}

// ExtensionStatus reports whether every VM extension has finished
// provisioning. A failed extension never recovers on its own, so it
// aborts the wait rather than letting it time out.
func (c *Client) ExtensionStatus(ctx context.Context, h resource.Handle) (probe.ExtensionStatus, error) {
	iv, err := c.api.InstanceView(ctx, h.ResourceGroup, h.ID)
	if err != nil {
		return probe.ExtensionStatus{}, wrapQueryError(h, err)
	}
	if len(iv.Extensions) == 0 {
		return probe.ExtensionStatus{Complete: true, Detail: "no extensions"}, nil
	}
	pending := 0
	for _, ext := range iv.Extensions {
		if ext == nil {
			continue
		}
		name := "extension"
		if ext.Name != nil {
			name = *ext.Name
		}
		state := extensionState(ext)
		switch state {
		case "succeeded":
		case "failed":
			return probe.ExtensionStatus{}, probe.Permanent(fmt.Errorf("extension %s failed to provision", name))
		default:
			pending++
		}
	}
	if pending > 0 {
		return probe.ExtensionStatus{Detail: fmt.Sprintf("%d extension(s) still provisioning", pending)}, nil
	}
	return probe.ExtensionStatus{Complete: true, Detail: "all extensions provisioned"}, nil
}

func extensionState(ext *armcompute.VirtualMachineExtensionInstanceView) string {
	for _, st := range ext.Statuses {
		if st == nil || st.Code == nil {
			continue
		}
		if state, ok := strings.CutPrefix(*st.Code, "ProvisioningState/"); ok {
			return strings.ToLower(state)
		}
	}
	return ""
}

// PublicAddress resolves the VM's public IP through its primary NIC.
// Deallocating releases dynamic addresses, so the value must be re-read
// after every start.
func (c *Client) PublicAddress(ctx context.Context, h resource.Handle) (string, error) {
	addr, err := c.api.PublicAddress(ctx, h.ResourceGroup, h.ID)
	if err != nil {
		return "", wrapQueryError(h, err)
	}
	return addr, nil
}

func (c *Client) StartInstance(ctx context.Context, h resource.Handle) error {
	if err := c.api.Start(ctx, h.ResourceGroup, h.ID); err != nil {
		return fmt.Errorf("starting %s: %w", h, err)
	}
	return nil
}

// StopInstance deallocates rather than powers off: a stopped-but-allocated
// Azure VM still accrues compute charges.
func (c *Client) StopInstance(ctx context.Context, h resource.Handle) error {
	if err := c.api.Deallocate(ctx, h.ResourceGroup, h.ID); err != nil {
		return fmt.Errorf("deallocating %s: %w", h, err)
	}
	return nil
}

func (c *Client) TerminateInstance(ctx context.Context, h resource.Handle) error {
	if err := c.api.Delete(ctx, h.ResourceGroup, h.ID); err != nil {
		return fmt.Errorf("deleting %s: %w", h, err)
	}
	return nil
}

// sdkAPI implements API on the real Azure SDK clients.
type sdkAPI struct {
	vms  *armcompute.VirtualMachinesClient
	nics *armnetwork.InterfacesClient
	pips *armnetwork.PublicIPAddressesClient
}

func (a *sdkAPI) InstanceView(ctx context.Context, resourceGroup, name string) (armcompute.VirtualMachineInstanceView, error) {
	resp, err := a.vms.InstanceView(ctx, resourceGroup, name, nil)
	if err != nil {
		return armcompute.VirtualMachineInstanceView{}, err
	}
	return resp.VirtualMachineInstanceView, nil
}

func (a *sdkAPI) Start(ctx context.Context, resourceGroup, name string) error {
	poller, err := a.vms.BeginStart(ctx, resourceGroup, name, nil)
	if err != nil {
		return err
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return err
}

func (a *sdkAPI) Deallocate(ctx context.Context, resourceGroup, name string) error {
	poller, err := a.vms.BeginDeallocate(ctx, resourceGroup, name, nil)
	if err != nil {
		return err
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return err
}

func (a *sdkAPI) Delete(ctx context.Context, resourceGroup, name string) error {
	poller, err := a.vms.BeginDelete(ctx, resourceGroup, name, nil)
	if err != nil {
		return err
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return err
}

func (a *sdkAPI) PublicAddress(ctx context.Context, resourceGroup, name string) (string, error) {
	vm, err := a.vms.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return "", err
	}
	if vm.Properties == nil || vm.Properties.NetworkProfile == nil || len(vm.Properties.NetworkProfile.NetworkInterfaces) == 0 {
		return "", fmt.Errorf("vm %s has no network interfaces", name)
	}
	nicID := vm.Properties.NetworkProfile.NetworkInterfaces[0].ID
	if nicID == nil {
		return "", fmt.Errorf("vm %s network interface has no id", name)
	}
	nicRG, nicName, err := splitResourceID(*nicID)
	if err != nil {
		return "", err
	}
	nic, err := a.nics.Get(ctx, nicRG, nicName, nil)
	if err != nil {
		return "", err
	}
	if nic.Properties == nil {
		return "", fmt.Errorf("nic %s has no properties", nicName)
	}
	for _, ipc := range nic.Properties.IPConfigurations {
		if ipc == nil || ipc.Properties == nil || ipc.Properties.PublicIPAddress == nil || ipc.Properties.PublicIPAddress.ID == nil {
			continue
		}
		pipRG, pipName, err := splitResourceID(*ipc.Properties.PublicIPAddress.ID)
		if err != nil {
			return "", err
		}
		pip, err := a.pips.Get(ctx, pipRG, pipName, nil)
		if err != nil {
			return "", err
		}
		if pip.Properties != nil && pip.Properties.IPAddress != nil {
			return *pip.Properties.IPAddress, nil
		}
	}
	return "", fmt.Errorf("vm %s has no public ip address", name)
}

func (a *sdkAPI) BeginRunCommand(ctx context.Context, resourceGroup, name, script string) (CommandPoller, error) {
	poller, err := a.vms.BeginRunCommand(ctx, resourceGroup, name, armcompute.RunCommandInput{
		CommandID: ptr.To("RunPowerShellScript"),
		Script:    []*string{ptr.To(script)},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &sdkCommandPoller{poller: poller}, nil
}

type sdkCommandPoller struct {
	poller *runtime.Poller[armcompute.VirtualMachinesClientRunCommandResponse]
}

func (p *sdkCommandPoller) ID() string {
	// ARM does not expose a stable operation id through the poller.
	return "azure-run-command"
}

func (p *sdkCommandPoller) Poll(ctx context.Context) (armcompute.RunCommandResult, bool, error) {
	if _, err := p.poller.Poll(ctx); err != nil {
		return armcompute.RunCommandResult{}, false, err
	}
	if !p.poller.Done() {
		return armcompute.RunCommandResult{}, false, nil
	}
	resp, err := p.poller.Result(ctx)
	if err != nil {
		return armcompute.RunCommandResult{}, true, err
	}
	return resp.RunCommandResult, true, nil
}

func (p *sdkCommandPoller) Wait(ctx context.Context, timeout time.Duration) (armcompute.RunCommandResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, err := p.poller.PollUntilDone(ctx, nil)
	if err != nil {
		return armcompute.RunCommandResult{}, err
	}
	return resp.RunCommandResult, nil
}

// splitResourceID extracts the resource group and final name segment from
// an ARM resource id like
// /subscriptions/<sub>/resourceGroups/<rg>/providers/<ns>/<type>/<name>.
func splitResourceID(id string) (resourceGroup, name string, err error) {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			resourceGroup = parts[i+1]
		}
	}
	if resourceGroup == "" || len(parts) == 0 {
		return "", "", fmt.Errorf("malformed resource id %q", id)
	}
	return resourceGroup, parts[len(parts)-1], nil
}
