package lifecycle

// State is one phase of a managed instance's life. Transitions are
// one-directional except the stopped/starting/ready cycle, and destroy is
// reachable from every non-terminal state (including failed, for
// best-effort cleanup).
type State string

const (
	StateProvisioning State = "provisioning"
	StateWaitingReady State = "waiting-ready"
	StateVerifying    State = "verifying"
	StateReady        State = "ready"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"
	StateStarting     State = "starting"
	StateDestroying   State = "destroying"
	StateDestroyed    State = "destroyed"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transitions leave s.
func (s State) Terminal() bool {
	return s == StateDestroyed
}

// transitions lists the permitted successor states.
var transitions = map[State][]State{
	StateProvisioning: {StateWaitingReady, StateFailed},
	StateWaitingReady: {StateVerifying, StateFailed},
	StateVerifying:    {StateReady, StateFailed},
	StateReady:        {StateVerifying, StateStopping, StateFailed},
	StateStopping:     {StateStopped, StateFailed},
	StateStopped:      {StateStarting, StateFailed},
	StateStarting:     {StateReady, StateFailed},
	StateDestroying:   {StateDestroyed},
	StateDestroyed:    {},
	StateFailed:       {},
}

// canTransition reports whether from may move to to. Destroying is
// allowed from everywhere except the terminal states so cleanup is never
// refused.
func canTransition(from, to State) bool {
	if to == StateDestroying {
		return from != StateDestroyed && from != StateDestroying
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
