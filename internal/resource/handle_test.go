package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		provider      Provider
		id            string
		region        string
		resourceGroup string
		wantErr       bool
	}{
		{name: "aws valid", provider: AWS, id: "i-0abc123", region: "us-east-1"},
		{name: "aws missing region", provider: AWS, id: "i-0abc123", wantErr: true},
		{name: "azure valid", provider: Azure, id: "ll-win-client-1", resourceGroup: "ll-rg"},
		{name: "azure missing resource group", provider: Azure, id: "ll-win-client-1", wantErr: true},
		{name: "empty id", provider: AWS, region: "us-east-1", wantErr: true},
		{name: "unknown provider", provider: Provider("gcp"), id: "x", region: "r", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, err := NewHandle(tt.provider, tt.id, tt.region, tt.resourceGroup)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, h.ID)
		})
	}
}

func TestHandleString(t *testing.T) {
	t.Parallel()
	aws, err := NewHandle(AWS, "i-0abc123", "us-east-1", "")
	require.NoError(t, err)
	assert.Equal(t, "aws/us-east-1/i-0abc123", aws.String())

	az, err := NewHandle(Azure, "ll-win-client-1", "eastus", "ll-rg")
	require.NoError(t, err)
	assert.Equal(t, "azure/ll-rg/ll-win-client-1", az.String())
}

func TestPowerStateSettled(t *testing.T) {
	t.Parallel()
	assert.True(t, PowerRunning.Settled())
	assert.True(t, PowerStopped.Settled())
	assert.True(t, PowerDeallocated.Settled())
	assert.False(t, PowerPending.Settled())
	assert.False(t, PowerStopping.Settled())
	assert.False(t, PowerUnknown.Settled())
}
