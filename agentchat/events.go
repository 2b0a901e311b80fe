package agentchat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/martinemde/parley/enginellm"
)

// EventKind identifies the type of stream event.
type EventKind string

const (
	// EventToken carries one fragment of answer text. The fragment may be
	// empty; it is still delivered.
	EventToken EventKind = "token"
	// EventToolCall announces a tool invocation (informational).
	EventToolCall EventKind = "tool_call"
	// EventToolResult carries the raw tool output (informational).
	EventToolResult EventKind = "tool_result"
	// EventError carries a turn-level failure. A done event still follows.
	EventError EventKind = "error"
	// EventDone terminates the stream. Emitted exactly once per turn,
	// always last.
	EventDone EventKind = "done"
)

// StreamEvent is one frame of the outbound tagged-event protocol.
type StreamEvent struct {
	Kind       EventKind        `json:"kind"`
	Timestamp  time.Time        `json:"timestamp"`
	SessionID  string           `json:"session_id,omitempty"`
	Text       string           `json:"text,omitempty"`
	ToolName   string           `json:"tool_name,omitempty"`
	ToolInput  json.RawMessage  `json:"tool_input,omitempty"`
	ToolOutput string           `json:"tool_output,omitempty"`
	IsError    bool             `json:"is_error,omitempty"`
	Message    string           `json:"message,omitempty"`
	Usage      *enginellm.Usage `json:"usage,omitempty"`
}

// TokenEvent creates a token frame.
func TokenEvent(text string) StreamEvent {
	return StreamEvent{Kind: EventToken, Text: text}
}

// ToolCallEvent creates a tool_call frame.
func ToolCallEvent(name string, input json.RawMessage) StreamEvent {
	return StreamEvent{Kind: EventToolCall, ToolName: name, ToolInput: input}
}

// ToolResultEvent creates a tool_result frame.
func ToolResultEvent(name, output string, isError bool) StreamEvent {
	return StreamEvent{Kind: EventToolResult, ToolName: name, ToolOutput: output, IsError: isError}
}

// ErrorEvent creates an error frame.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Kind: EventError, Message: message}
}

// DoneEvent creates the terminal frame. Usage totals are informational
// metadata; a done frame with nil usage is equally valid.
func DoneEvent(usage *enginellm.Usage) StreamEvent {
	return StreamEvent{Kind: EventDone, Usage: usage}
}

// EventEmitter delivers stream events to the transport over a buffered
// channel. Events are never dropped while the consumer is attached: when
// the buffer is full, Emit blocks until the consumer catches up. Cancel
// detaches the consumer and releases any blocked producer; events emitted
// after Cancel are discarded.
//
// The producing turn is the only writer. It must call Close exactly once,
// after its final event, to end the consumer's range loop.
type EventEmitter struct {
	sessionID  string
	ch         chan StreamEvent
	cancelled  chan struct{}
	closeOnce  sync.Once
	cancelOnce sync.Once
}

// NewEventEmitter creates an EventEmitter with a buffered channel.
func NewEventEmitter(sessionID string, bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{
		sessionID: sessionID,
		ch:        make(chan StreamEvent, bufferSize),
		cancelled: make(chan struct{}),
	}
}

// Emit stamps and delivers an event, blocking for buffer space if needed.
func (e *EventEmitter) Emit(event StreamEvent) {
	event.Timestamp = time.Now()
	event.SessionID = e.sessionID

	select {
	case <-e.cancelled:
		return
	default:
	}

	select {
	case e.ch <- event:
	case <-e.cancelled:
	}
}

// Events returns the read-only event channel. It is closed after the
// terminal event has been emitted.
func (e *EventEmitter) Events() <-chan StreamEvent {
	return e.ch
}

// Cancel detaches the consumer. Safe to call multiple times and
// concurrently with Emit.
func (e *EventEmitter) Cancel() {
	e.cancelOnce.Do(func() {
		close(e.cancelled)
	})
}

// Cancelled returns a channel closed once the consumer has detached.
func (e *EventEmitter) Cancelled() <-chan struct{} {
	return e.cancelled
}

// Close closes the event channel. Only the producer may call it, after
// its last Emit. Safe to call multiple times.
func (e *EventEmitter) Close() {
	e.closeOnce.Do(func() {
		close(e.ch)
	})
}
