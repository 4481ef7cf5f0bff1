package lifecycle

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger is the printf-style logging surface used throughout the tool.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during
// lifecycle operations.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured lifecycle event.
type Event struct {
	Type      EventType         // Type of event
	Stage     string            // Lifecycle stage (e.g., "waiting-ready", "verifying")
	Message   string            // Human-readable message
	Resource  string            // Instance handle if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of lifecycle event.
type EventType string

const (
	// EventStageStarted indicates a lifecycle stage has started.
	EventStageStarted EventType = "stage.started"
	// EventStageCompleted indicates a lifecycle stage completed successfully.
	EventStageCompleted EventType = "stage.completed"
	// EventStageFailed indicates a lifecycle stage failed.
	EventStageFailed EventType = "stage.failed"

	// EventStateChanged indicates the controller moved to a new state.
	EventStateChanged EventType = "state.changed"

	// EventProbeWaiting indicates a readiness probe chain is being polled.
	EventProbeWaiting EventType = "probe.waiting"
	// EventProbeReady indicates a readiness probe chain succeeded.
	EventProbeReady EventType = "probe.ready"

	// EventCommandDispatched indicates a remote command was sent.
	EventCommandDispatched EventType = "command.dispatched"
	// EventCommandCompleted indicates a remote command finished.
	EventCommandCompleted EventType = "command.completed"
)

// ConsoleObserver implements Observer using the standard log package.
type ConsoleObserver struct {
	contextFields map[string]string
}

// NewConsoleObserver creates a new console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{
		contextFields: make(map[string]string),
	}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Merge context fields
	if event.Fields == nil {
		event.Fields = make(map[string]string)
	}
	for k, v := range o.contextFields {
		if _, exists := event.Fields[k]; !exists {
			event.Fields[k] = v
		}
	}

	log.Print(o.formatEvent(event))
}

// WithFields implements Observer.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string)
	for k, v := range o.contextFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &ConsoleObserver{
		contextFields: newFields,
	}
}

// formatEvent formats an event for console output.
func (o *ConsoleObserver) formatEvent(event Event) string {
	var parts []string

	parts = append(parts, string(event.Type))

	if event.Stage != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Stage))
	}

	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}

	parts = append(parts, event.Message)

	if len(event.Fields) > 0 {
		var fieldParts []string
		for k, v := range event.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, v))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

// NopObserver discards all output. Used in tests.
type NopObserver struct{}

func (NopObserver) Printf(string, ...interface{})         {}
func (NopObserver) Event(Event)                           {}
func (n NopObserver) WithFields(map[string]string) Observer { return n }
