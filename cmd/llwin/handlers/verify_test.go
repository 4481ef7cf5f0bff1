package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcp718/ll-win-client/internal/probe"
	"github.com/dmcp718/ll-win-client/internal/resource"
)

func TestVerify(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerRunning, agent: probe.AgentOnline},
		tf:      &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Verify(context.Background(), "")
	require.NoError(t, err)

	// One mount check per instance.
	assert.Len(t, fx.cloud.runs, 2)
}

func TestVerify_StoppedInstanceFails(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerStopped},
		tf:      &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Verify(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestVerify_NoInstances(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{},
		tf:      &fakeProvisioner{},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Verify(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no instances deployed")
}

func TestVerify_MountCheckFailure(t *testing.T) {
	fx := &fixtures{
		cloud:   &fakeCloud{power: resource.PowerRunning, agent: probe.AgentOnline, runExit: 1},
		tf:      &fakeProvisioner{outputs: twoInstanceOutputs()},
		manager: &fakeManager{},
	}
	install(t, fx)

	err := Verify(context.Background(), "")
	require.Error(t, err)
}
