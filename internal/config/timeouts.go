package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmcp718/ll-win-client/internal/probe"
)

// Timeouts holds all configurable wait and retry values.
// These values can be customized via environment variables.
type Timeouts struct {
	PowerPoll      time.Duration // Poll interval for power-state probes
	PowerWait      time.Duration // Timeout for an instance to reach running
	AgentPoll      time.Duration // Poll interval for guest-agent probes
	AgentWait      time.Duration // Timeout for the guest agent to come online
	Stabilization  time.Duration // Settle time after the ready chain passes
	StopConfirm    time.Duration // Timeout for a stop to reach a settled state
	Command        time.Duration // Timeout for one remote command
	VerifyTimeout  time.Duration // Timeout for one verification attempt
	VerifyAttempts int           // Verification attempts before giving up
	VerifyBackoff  time.Duration // Delay added between verification attempts
}

// LoadTimeouts loads wait configuration from environment variables.
// If an environment variable is not set or invalid, a default value is
// used.
//
// Environment Variables:
//   - LLWIN_TIMEOUT_POWER_POLL (default: 15s)
//   - LLWIN_TIMEOUT_POWER_WAIT (default: 10m)
//   - LLWIN_TIMEOUT_AGENT_POLL (default: 30s)
//   - LLWIN_TIMEOUT_AGENT_WAIT (default: 15m)
//   - LLWIN_TIMEOUT_STABILIZATION (default: 90s)
//   - LLWIN_TIMEOUT_STOP_CONFIRM (default: 5m)
//   - LLWIN_TIMEOUT_COMMAND (default: 10m)
//   - LLWIN_TIMEOUT_VERIFY (default: 5m)
//   - LLWIN_RETRY_VERIFY_ATTEMPTS (default: 3)
//   - LLWIN_RETRY_VERIFY_BACKOFF (default: 10s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PowerPoll:      parseDuration("LLWIN_TIMEOUT_POWER_POLL", 15*time.Second),
		PowerWait:      parseDuration("LLWIN_TIMEOUT_POWER_WAIT", 10*time.Minute),
		AgentPoll:      parseDuration("LLWIN_TIMEOUT_AGENT_POLL", 30*time.Second),
		AgentWait:      parseDuration("LLWIN_TIMEOUT_AGENT_WAIT", 15*time.Minute),
		Stabilization:  parseDuration("LLWIN_TIMEOUT_STABILIZATION", 90*time.Second),
		StopConfirm:    parseDuration("LLWIN_TIMEOUT_STOP_CONFIRM", 5*time.Minute),
		Command:        parseDuration("LLWIN_TIMEOUT_COMMAND", 10*time.Minute),
		VerifyTimeout:  parseDuration("LLWIN_TIMEOUT_VERIFY", 5*time.Minute),
		VerifyAttempts: parseInt("LLWIN_RETRY_VERIFY_ATTEMPTS", 3),
		VerifyBackoff:  parseDuration("LLWIN_RETRY_VERIFY_BACKOFF", 10*time.Second),
	}
}

// PowerPolicy is the wait policy for power-state probes. Stabilization is
// applied once, after the last probe in a chain, so it lives on the
// policies and the waiter picks the final step's value.
func (t *Timeouts) PowerPolicy() probe.Policy {
	return probe.Policy{
		PollInterval:       t.PowerPoll,
		Timeout:            t.PowerWait,
		StabilizationDelay: t.Stabilization,
	}
}

// AgentPolicy is the wait policy for guest-agent probes.
func (t *Timeouts) AgentPolicy() probe.Policy {
	return probe.Policy{
		PollInterval:       t.AgentPoll,
		Timeout:            t.AgentWait,
		StabilizationDelay: t.Stabilization,
	}
}

// StopPolicy is the wait policy for confirming a stop reached a settled
// power state. No stabilization: nothing boots afterwards.
func (t *Timeouts) StopPolicy() probe.Policy {
	return probe.Policy{
		PollInterval: t.PowerPoll,
		Timeout:      t.StopConfirm,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is
// returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is
// returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
