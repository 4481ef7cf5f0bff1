package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmcp718/ll-win-client/internal/resource"
)

type recordingLog struct {
	lines []string
}

func (l *recordingLog) Printf(format string, v ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *recordingLog) joined() string { return strings.Join(l.lines, "\n") }

type stubRunner struct {
	result Result
	err    error
	inv    Invocation
}

func (s *stubRunner) Run(context.Context, resource.Handle, string, time.Duration) (Result, error) {
	return s.result, s.err
}

func (s *stubRunner) Start(context.Context, resource.Handle, string) (Invocation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.inv, nil
}

type stubInvocation struct {
	result    Result
	pollsLeft int
}

func (s *stubInvocation) ID() string { return s.result.CommandID }

func (s *stubInvocation) Poll(context.Context) (Result, bool, error) {
	if s.pollsLeft > 0 {
		s.pollsLeft--
		return Result{CommandID: s.result.CommandID}, false, nil
	}
	return s.result, true, nil
}

func (s *stubInvocation) Wait(context.Context, time.Duration) (Result, error) {
	return s.result, nil
}

func auditHandle(t *testing.T) resource.Handle {
	t.Helper()
	h, err := resource.NewHandle(resource.AWS, "i-0abc123", "us-east-1", "")
	require.NoError(t, err)
	return h
}

func TestAuditRunner_LogsCommandAndExitCode(t *testing.T) {
	t.Parallel()
	log := &recordingLog{}
	inner := &stubRunner{result: Result{ExitCode: 0, CommandID: "cmd-42"}}
	a := NewAuditRunner(inner, log)

	res, err := a.Run(context.Background(), auditHandle(t), "Get-Service lucid", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "cmd-42", res.CommandID)
	assert.Contains(t, log.joined(), "Get-Service lucid")
	assert.Contains(t, log.joined(), "cmd-42")
	assert.Contains(t, log.joined(), "exit code 0")
}

func TestAuditRunner_AssignsCommandIDWhenMissing(t *testing.T) {
	t.Parallel()
	log := &recordingLog{}
	inner := &stubRunner{result: Result{ExitCode: 0}}
	a := NewAuditRunner(inner, log)

	res, err := a.Run(context.Background(), auditHandle(t), "hostname", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, res.CommandID)
}

func TestAuditRunner_LogsFailure(t *testing.T) {
	t.Parallel()
	log := &recordingLog{}
	inner := &stubRunner{err: fmt.Errorf("%w: agent offline", ErrTransportUnavailable)}
	a := NewAuditRunner(inner, log)

	_, err := a.Run(context.Background(), auditHandle(t), "hostname", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransportUnavailable))
	assert.Contains(t, log.joined(), "failed")
}

func TestAuditRunner_TruncatesLongScripts(t *testing.T) {
	t.Parallel()
	log := &recordingLog{}
	inner := &stubRunner{result: Result{CommandID: "cmd-1"}}
	a := NewAuditRunner(inner, log)

	script := strings.Repeat("Write-Output x; ", 40)
	_, err := a.Run(context.Background(), auditHandle(t), script, time.Minute)
	require.NoError(t, err)
	assert.NotContains(t, log.joined(), script)
	assert.Contains(t, log.joined(), "...")
}

func TestAuditInvocation_LogsCompletionExactlyOnce(t *testing.T) {
	t.Parallel()
	log := &recordingLog{}
	inner := &stubRunner{inv: &stubInvocation{result: Result{ExitCode: 3, CommandID: "cmd-7"}, pollsLeft: 1}}
	a := NewAuditRunner(inner, log)

	inv, err := a.Start(context.Background(), auditHandle(t), "hostname")
	require.NoError(t, err)

	_, done, err := inv.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, done)

	for i := 0; i < 3; i++ {
		_, done, err = inv.Poll(context.Background())
		require.NoError(t, err)
		assert.True(t, done)
	}

	finished := 0
	for _, line := range log.lines {
		if strings.Contains(line, "exit code 3") {
			finished++
		}
	}
	assert.Equal(t, 1, finished, "completion must be logged once, not per poll")
}
