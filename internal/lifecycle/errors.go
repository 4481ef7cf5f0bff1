package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// ErrCancelled is returned when an operation was cancelled cooperatively.
// When a remote command was already in flight its outcome is unknown: the
// command was not aborted, only polling for it stopped.
var ErrCancelled = errors.New("operation cancelled")

// StageError carries the last diagnostic from a failed lifecycle stage so
// the operator sees what was observed, not just that the stage failed.
type StageError struct {
	Stage      State
	Diagnostic string // last probe detail or command stderr
	Elapsed    time.Duration
	Err        error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %s failed after %v", e.Stage, e.Elapsed.Round(time.Millisecond))
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() error { return e.Err }

// InvalidTransitionError reports an operation invoked in a state that does
// not permit it.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}
