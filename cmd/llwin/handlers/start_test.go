package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

func TestStart(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerStopped, agent: probe.AgentOnline, address: "54.9.9.9"},
		tf:      &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Start(context.Background(), "", true)
	require.NoError(t, err)

	assert.Equal(t, 2, fx.cloud.started)

	// Connection files are rewritten with the fresh public addresses.
	require.Len(t, fx.manager.regenerated, 2)
	assert.Equal(t, "54.9.9.9", fx.manager.regenerated[0].PublicIP)
	assert.Equal(t, "i-0aaa", fx.manager.regenerated[0].InstanceID)
}

func TestStart_NothingStopped(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerRunning, agent: probe.AgentOnline},
		tf:      &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Start(context.Background(), "", true)
	require.NoError(t, err)
	assert.Zero(t, fx.cloud.started)
	assert.Empty(t, fx.manager.regenerated)
}

func TestStart_NoInstances(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{},
		tf:      &fakeProvisioner{},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Start(context.Background(), "", true)
	require.Error(t, err)
}
