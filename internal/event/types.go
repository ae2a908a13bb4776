package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "pipe.data", "monitor.complete")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type names.
const (
	// Wildcard subscribes to every event type.
	Wildcard = "*"

	TypeData     = "pipe.data"
	TypeEnd      = "pipe.end"
	TypeError    = "stream.error"
	TypeReport   = "monitor.report"
	TypeComplete = "monitor.complete"
	TypeLog      = "log.entry"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Stream Events
// -----------------------------------------------------------------------------

// DataEvent carries one chunk written to a stream. When the stream has a text
// encoding set, Text holds the decoded chunk and Decoded is true.
type DataEvent struct {
	baseEvent
	Chunk   []byte
	Text    string
	Decoded bool
}

// NewDataEvent creates a DataEvent carrying raw bytes.
func NewDataEvent(chunk []byte) DataEvent {
	return DataEvent{
		baseEvent: newBaseEvent(TypeData),
		Chunk:     chunk,
	}
}

// NewTextEvent creates a DataEvent carrying a decoded chunk alongside its bytes.
func NewTextEvent(chunk []byte, text string) DataEvent {
	return DataEvent{
		baseEvent: newBaseEvent(TypeData),
		Chunk:     chunk,
		Text:      text,
		Decoded:   true,
	}
}

// Payload returns the text when the event was decoded, otherwise the bytes.
func (e DataEvent) Payload() any {
	if e.Decoded {
		return e.Text
	}
	return e.Chunk
}

// EndEvent signals that a stream will emit no more data.
type EndEvent struct {
	baseEvent
}

// NewEndEvent creates an EndEvent.
func NewEndEvent() EndEvent {
	return EndEvent{baseEvent: newBaseEvent(TypeEnd)}
}

// ErrorEvent signals an upstream error.
type ErrorEvent struct {
	baseEvent
	Err error
}

// NewErrorEvent creates an ErrorEvent.
func NewErrorEvent(err error) ErrorEvent {
	return ErrorEvent{
		baseEvent: newBaseEvent(TypeError),
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Monitor Events
// -----------------------------------------------------------------------------

// ReportEvent is emitted each time a monitor report callback runs.
type ReportEvent struct {
	baseEvent
	Label any   // Label handed to AddReport
	Args  []any // Arguments the report callback was called with
}

// NewReportEvent creates a ReportEvent.
func NewReportEvent(label any, args []any) ReportEvent {
	return ReportEvent{
		baseEvent: newBaseEvent(TypeReport),
		Label:     label,
		Args:      args,
	}
}

// CompleteEvent is emitted once when a monitor has heard from every report.
type CompleteEvent struct {
	baseEvent
	Collected int
}

// NewCompleteEvent creates a CompleteEvent.
func NewCompleteEvent(collected int) CompleteEvent {
	return CompleteEvent{
		baseEvent: newBaseEvent(TypeComplete),
		Collected: collected,
	}
}

// -----------------------------------------------------------------------------
// Log Events
// -----------------------------------------------------------------------------

// LogEvent is emitted by a logger for every message it accepts.
type LogEvent struct {
	baseEvent
	Priority int    // RFC 5424 severity, 0 (emergency) to 7 (debug)
	Message  string // Fully rendered message, attributes included
	Logger   string // Name of the emitting logger, may be empty
}

// NewLogEvent creates a LogEvent stamped with the given time.
func NewLogEvent(priority int, message, logger string, at time.Time) LogEvent {
	if at.IsZero() {
		at = time.Now()
	}
	return LogEvent{
		baseEvent: baseEvent{eventType: TypeLog, timestamp: at},
		Priority:  priority,
		Message:   message,
		Logger:    logger,
	}
}
