package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from State
		to   State
		ok   bool
	}{
		{StateProvisioning, StateWaitingReady, true},
		{StateWaitingReady, StateVerifying, true},
		{StateWaitingReady, StateFailed, true},
		{StateVerifying, StateReady, true},
		{StateReady, StateStopping, true},
		{StateReady, StateVerifying, true}, // re-verify
		{StateStopping, StateStopped, true},
		{StateStopped, StateStarting, true},
		{StateStarting, StateReady, true},
		// Destroy is reachable from everywhere non-terminal.
		{StateFailed, StateDestroying, true},
		{StateReady, StateDestroying, true},
		{StateProvisioning, StateDestroying, true},
		{StateDestroying, StateDestroyed, true},
		// One-directional edges cannot reverse.
		{StateReady, StateWaitingReady, false},
		{StateVerifying, StateWaitingReady, false},
		{StateStopped, StateReady, false},
		{StateDestroyed, StateDestroying, false},
		{StateDestroyed, StateReady, false},
		{StateFailed, StateReady, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, canTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStateTerminal(t *testing.T) {
	t.Parallel()
	assert.True(t, StateDestroyed.Terminal())
	assert.False(t, StateFailed.Terminal(), "failed instances still accept destroy")
	assert.False(t, StateReady.Terminal())
}
