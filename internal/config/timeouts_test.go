package config

import (
	"os"
	"testing"
	"time"
)

var timeoutEnvVars = []string{
	"LLWIN_TIMEOUT_POWER_POLL",
	"LLWIN_TIMEOUT_POWER_WAIT",
	"LLWIN_TIMEOUT_AGENT_POLL",
	"LLWIN_TIMEOUT_AGENT_WAIT",
	"LLWIN_TIMEOUT_STABILIZATION",
	"LLWIN_TIMEOUT_STOP_CONFIRM",
	"LLWIN_TIMEOUT_COMMAND",
	"LLWIN_TIMEOUT_VERIFY",
	"LLWIN_RETRY_VERIFY_ATTEMPTS",
	"LLWIN_RETRY_VERIFY_BACKOFF",
}

func clearTimeoutEnvVars() {
	for _, v := range timeoutEnvVars {
		os.Unsetenv(v)
	}
}

func TestLoadTimeouts_Defaults(t *testing.T) {
	clearTimeoutEnvVars()

	timeouts := LoadTimeouts()

	if timeouts.PowerPoll != 15*time.Second {
		t.Errorf("Expected PowerPoll default 15s, got %v", timeouts.PowerPoll)
	}
	if timeouts.PowerWait != 10*time.Minute {
		t.Errorf("Expected PowerWait default 10m, got %v", timeouts.PowerWait)
	}
	if timeouts.AgentPoll != 30*time.Second {
		t.Errorf("Expected AgentPoll default 30s, got %v", timeouts.AgentPoll)
	}
	if timeouts.AgentWait != 15*time.Minute {
		t.Errorf("Expected AgentWait default 15m, got %v", timeouts.AgentWait)
	}
	if timeouts.Stabilization != 90*time.Second {
		t.Errorf("Expected Stabilization default 90s, got %v", timeouts.Stabilization)
	}
	if timeouts.StopConfirm != 5*time.Minute {
		t.Errorf("Expected StopConfirm default 5m, got %v", timeouts.StopConfirm)
	}
	if timeouts.Command != 10*time.Minute {
		t.Errorf("Expected Command default 10m, got %v", timeouts.Command)
	}
	if timeouts.VerifyTimeout != 5*time.Minute {
		t.Errorf("Expected VerifyTimeout default 5m, got %v", timeouts.VerifyTimeout)
	}
	if timeouts.VerifyAttempts != 3 {
		t.Errorf("Expected VerifyAttempts default 3, got %d", timeouts.VerifyAttempts)
	}
	if timeouts.VerifyBackoff != 10*time.Second {
		t.Errorf("Expected VerifyBackoff default 10s, got %v", timeouts.VerifyBackoff)
	}
}

func TestLoadTimeouts_EnvironmentOverrides(t *testing.T) {
	clearTimeoutEnvVars()
	t.Setenv("LLWIN_TIMEOUT_AGENT_WAIT", "20m")
	t.Setenv("LLWIN_TIMEOUT_STABILIZATION", "2m")
	t.Setenv("LLWIN_RETRY_VERIFY_ATTEMPTS", "5")

	timeouts := LoadTimeouts()

	if timeouts.AgentWait != 20*time.Minute {
		t.Errorf("Expected AgentWait 20m, got %v", timeouts.AgentWait)
	}
	if timeouts.Stabilization != 2*time.Minute {
		t.Errorf("Expected Stabilization 2m, got %v", timeouts.Stabilization)
	}
	if timeouts.VerifyAttempts != 5 {
		t.Errorf("Expected VerifyAttempts 5, got %d", timeouts.VerifyAttempts)
	}
}

func TestLoadTimeouts_InvalidValuesFallBack(t *testing.T) {
	clearTimeoutEnvVars()
	t.Setenv("LLWIN_TIMEOUT_AGENT_WAIT", "soon")
	t.Setenv("LLWIN_RETRY_VERIFY_ATTEMPTS", "many")

	timeouts := LoadTimeouts()

	if timeouts.AgentWait != 15*time.Minute {
		t.Errorf("Expected AgentWait fallback 15m, got %v", timeouts.AgentWait)
	}
	if timeouts.VerifyAttempts != 3 {
		t.Errorf("Expected VerifyAttempts fallback 3, got %d", timeouts.VerifyAttempts)
	}
}

func TestPolicies(t *testing.T) {
	clearTimeoutEnvVars()
	timeouts := LoadTimeouts()

	power := timeouts.PowerPolicy()
	if power.PollInterval != timeouts.PowerPoll || power.Timeout != timeouts.PowerWait {
		t.Errorf("PowerPolicy does not mirror timeouts: %+v", power)
	}
	if power.StabilizationDelay != timeouts.Stabilization {
		t.Errorf("Expected PowerPolicy stabilization %v, got %v", timeouts.Stabilization, power.StabilizationDelay)
	}

	stop := timeouts.StopPolicy()
	if stop.StabilizationDelay != 0 {
		t.Errorf("StopPolicy must not carry a stabilization delay, got %v", stop.StabilizationDelay)
	}
}
