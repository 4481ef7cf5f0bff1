// Package aws adapts EC2 and SSM to the probe, remote and lifecycle
// contracts. EC2 answers power state and start/stop/terminate; SSM is the
// remote-execution channel and the agent-registration source.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

// EC2API is the subset of the EC2 client the adapter uses. Satisfied by
// *ec2.Client; fakes implement it in tests.
type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// SSMAPI is the subset of the SSM client the adapter uses.
type SSMAPI interface {
	DescribeInstanceInformation(ctx context.Context, params *ssm.DescribeInstanceInformationInput, optFns ...func(*ssm.Options)) (*ssm.DescribeInstanceInformationOutput, error)
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
	GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error)
}

// Client implements probe.StateReader, probe.AgentReader, remote.Runner
// and lifecycle.Compute for EC2 instances.
type Client struct {
	ec2 EC2API
	ssm SSMAPI
}

// New loads the default AWS configuration for the region and returns a
// ready client. Credentials come from the standard chain; no ambient
// process-wide state is assumed beyond it.
func New(ctx context.Context, region string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Client{
		ec2: ec2.NewFromConfig(cfg),
		ssm: ssm.NewFromConfig(cfg),
	}, nil
}

// NewFromAPIs wires explicit API implementations. Used in tests.
func NewFromAPIs(ec2Client EC2API, ssmClient SSMAPI) *Client {
	return &Client{ec2: ec2Client, ssm: ssmClient}
}

// PowerState implements probe.StateReader.
func (c *Client) PowerState(ctx context.Context, h resource.Handle) (resource.PowerState, error) {
	inst, err := c.describeInstance(ctx, h)
	if err != nil {
		return resource.PowerUnknown, err
	}
	if inst.State == nil {
		return resource.PowerUnknown, nil
	}
	return mapInstanceState(inst.State.Name), nil
}

// AgentStatus implements probe.AgentReader via SSM instance information.
func (c *Client) AgentStatus(ctx context.Context, h resource.Handle) (probe.AgentStatus, error) {
	out, err := c.ssm.DescribeInstanceInformation(ctx, &ssm.DescribeInstanceInformationInput{
		Filters: []ssmtypes.InstanceInformationStringFilter{
			{Key: aws.String("InstanceIds"), Values: []string{h.ID}},
		},
	})
	if err != nil {
		return probe.AgentUnknown, wrapQueryError(err)
	}
	if len(out.InstanceInformationList) == 0 {
		// The agent has not registered with SSM yet. Normal during boot.
		return probe.AgentNotRegistered, nil
	}
	switch out.InstanceInformationList[0].PingStatus {
	case ssmtypes.PingStatusOnline:
		return probe.AgentOnline, nil
	case ssmtypes.PingStatusConnectionLost:
		return probe.AgentConnectionLost, nil
	case ssmtypes.PingStatusInactive:
		return probe.AgentInactive, nil
	default:
		return probe.AgentUnknown, nil
	}
}

// PublicAddress implements lifecycle.Compute. Public IPs change across
// stop/start cycles, so callers must not cache the result.
func (c *Client) PublicAddress(ctx context.Context, h resource.Handle) (string, error) {
	inst, err := c.describeInstance(ctx, h)
	if err != nil {
		return "", err
	}
	if inst.PublicIpAddress == nil {
		return "", fmt.Errorf("instance %s has no public address", h.ID)
	}
	return *inst.PublicIpAddress, nil
}

// StartInstance implements lifecycle.Compute.
func (c *Client) StartInstance(ctx context.Context, h resource.Handle) error {
	_, err := c.ec2.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{h.ID}})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", h.ID, err)
	}
	return nil
}

// StopInstance implements lifecycle.Compute. The call only initiates the
// stop; callers confirm the terminal power state with a probe.
func (c *Client) StopInstance(ctx context.Context, h resource.Handle) error {
	_, err := c.ec2.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{h.ID}})
	if err != nil {
		return fmt.Errorf("failed to stop %s: %w", h.ID, err)
	}
	return nil
}

// TerminateInstance implements lifecycle.Compute.
func (c *Client) TerminateInstance(ctx context.Context, h resource.Handle) error {
	_, err := c.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{h.ID}})
	if err != nil {
		return fmt.Errorf("failed to terminate %s: %w", h.ID, err)
	}
	return nil
}

func (c *Client) describeInstance(ctx context.Context, h resource.Handle) (ec2types.Instance, error) {
	out, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{h.ID},
	})
	if err != nil {
		return ec2types.Instance{}, wrapQueryError(err)
	}
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			if inst.InstanceId != nil && *inst.InstanceId == h.ID {
				return inst, nil
			}
		}
	}
	return ec2types.Instance{}, probe.Permanent(fmt.Errorf("instance %s not found", h.ID))
}

func mapInstanceState(name ec2types.InstanceStateName) resource.PowerState {
	switch name {
	case ec2types.InstanceStateNamePending:
		return resource.PowerPending
	case ec2types.InstanceStateNameRunning:
		return resource.PowerRunning
	case ec2types.InstanceStateNameStopping, ec2types.InstanceStateNameShuttingDown:
		return resource.PowerStopping
	case ec2types.InstanceStateNameStopped:
		return resource.PowerStopped
	case ec2types.InstanceStateNameTerminated:
		return resource.PowerTerminated
	default:
		return resource.PowerUnknown
	}
}
