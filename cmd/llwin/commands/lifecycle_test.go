package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleCommands(t *testing.T) {
	tests := []struct {
		name   string
		cmd    *cobra.Command
		use    string
		hasYes bool
	}{
		{name: "status", cmd: Status(), use: "status"},
		{name: "verify", cmd: Verify(), use: "verify"},
		{name: "stop", cmd: Stop(), use: "stop", hasYes: true},
		{name: "start", cmd: Start(), use: "start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.cmd)
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotNil(t, tt.cmd.RunE)

			configFlag := tt.cmd.Flags().Lookup("config")
			require.NotNil(t, configFlag)
			assert.Equal(t, "c", configFlag.Shorthand)

			yesFlag := tt.cmd.Flags().Lookup("yes")
			if tt.hasYes {
				assert.NotNil(t, yesFlag)
			} else {
				assert.Nil(t, yesFlag)
			}
		})
	}
}
