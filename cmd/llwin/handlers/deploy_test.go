package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

func TestDeploy(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerRunning, agent: probe.AgentOnline},
		tf:      &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Deploy(context.Background(), DeployOptions{AutoApprove: true, Plain: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"write-vars", "init", "apply", "outputs"}, fx.tf.calls)
	assert.Equal(t, "us-east-1", fx.tf.vars["aws_region"])

	// Two mount verifications plus two password sets.
	assert.Len(t, fx.cloud.runs, 4)

	require.NotEmpty(t, fx.manager.password)
	assert.Len(t, fx.manager.endpoints, 2)
	assert.ElementsMatch(t, []string{"ll-win-client-1", "ll-win-client-2"}, fx.manager.connectionFiles)
}

func TestDeploy_ConfirmationDeclined(t *testing.T) {
	fx := &fixtures{
		cloud:         &fakeCloud{power: resource.PowerRunning, agent: probe.AgentOnline},
		tf:            &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager:       &fakeManager{},
		confirmAnswer: false,
	}
	install(t, fx)

	err := Deploy(context.Background(), DeployOptions{Plain: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	assert.Equal(t, 1, fx.confirmCalls)
	assert.Empty(t, fx.tf.calls)
}

func TestDeploy_NoInstancesFromTerraform(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerRunning, agent: probe.AgentOnline},
		tf:      &fakeProvisioner{},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Deploy(context.Background(), DeployOptions{AutoApprove: true, Plain: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no instances")
}

func TestDeploy_VerificationFailureNamesInstance(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerRunning, agent: probe.AgentOnline, runExit: 1},
		tf:      &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Deploy(context.Background(), DeployOptions{AutoApprove: true, Plain: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ll-win-client-")
}
