// Package resource defines the identity and power-state model for a single
// cloud compute instance managed by this tool.
package resource

import "fmt"

// Provider identifies the cloud a handle belongs to.
type Provider string

const (
	// AWS identifies an EC2 instance.
	AWS Provider = "aws"
	// Azure identifies an Azure virtual machine.
	Azure Provider = "azure"
)

// PowerState is the normalized power state of an instance.
// Provider adapters map their native state strings onto these values.
type PowerState string

const (
	PowerPending     PowerState = "pending"
	PowerRunning     PowerState = "running"
	PowerStopping    PowerState = "stopping"
	PowerStopped     PowerState = "stopped"
	PowerDeallocated PowerState = "deallocated"
	PowerTerminated  PowerState = "terminated"
	PowerUnknown     PowerState = "unknown"
)

// Handle identifies one compute instance for the lifetime of a deployment.
// It is immutable once created.
type Handle struct {
	Provider      Provider
	ID            string
	Region        string
	ResourceGroup string // Azure only
}

// NewHandle validates and constructs a Handle.
// AWS handles require a region; Azure handles require a resource group.
func NewHandle(provider Provider, id, region, resourceGroup string) (Handle, error) {
	if id == "" {
		return Handle{}, fmt.Errorf("instance id cannot be empty")
	}
	switch provider {
	case AWS:
		if region == "" {
			return Handle{}, fmt.Errorf("aws handle %s: region cannot be empty", id)
		}
	case Azure:
		if resourceGroup == "" {
			return Handle{}, fmt.Errorf("azure handle %s: resource group cannot be empty", id)
		}
	default:
		return Handle{}, fmt.Errorf("unsupported provider %q", provider)
	}
	return Handle{Provider: provider, ID: id, Region: region, ResourceGroup: resourceGroup}, nil
}

// String returns a log-friendly identifier.
func (h Handle) String() string {
	if h.Provider == Azure {
		return fmt.Sprintf("%s/%s/%s", h.Provider, h.ResourceGroup, h.ID)
	}
	return fmt.Sprintf("%s/%s/%s", h.Provider, h.Region, h.ID)
}

// Settled reports whether the state is one the instance can rest in.
// Transitional states (pending, stopping) are not settled.
func (s PowerState) Settled() bool {
	switch s {
	case PowerRunning, PowerStopped, PowerDeallocated, PowerTerminated:
		return true
	}
	return false
}
