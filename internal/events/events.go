// Package events defines the event surface the engine emits over the
// lifetime of a run, and the Sink interface the session driver implements
// to relay those events to the client.
package events

import "encoding/json"

// Type identifies the kind of an Event.
type Type string

const (
	TypeLog      Type = "log"
	TypeProgress Type = "progress"
	TypeError    Type = "error"
	TypeDone     Type = "done"
	TypePong     Type = "pong"
)

// Event is a single message addressed to the client. Progress events carry
// the node identity in TaskID and a 0-100 percentage.
type Event struct {
	Type     Type
	TaskID   string
	Progress int
	Message  string
}

// MarshalJSON emits only the fields relevant to the event's type, matching
// the wire shapes the client expects: log/error/done carry a message,
// progress additionally carries taskId and progress, pong is bare.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": e.Type}
	switch e.Type {
	case TypeProgress:
		out["taskId"] = e.TaskID
		out["progress"] = e.Progress
		out["message"] = e.Message
	case TypePong:
	default:
		out["message"] = e.Message
	}
	return json.Marshal(out)
}

// Log builds a log event.
func Log(message string) Event {
	return Event{Type: TypeLog, Message: message}
}

// Progress builds a progress event for the given node.
func Progress(taskID string, progress int, message string) Event {
	return Event{Type: TypeProgress, TaskID: taskID, Progress: progress, Message: message}
}

// Error builds an error event.
func Error(message string) Event {
	return Event{Type: TypeError, Message: message}
}

// Done builds the terminal success event.
func Done() Event {
	return Event{Type: TypeDone, Message: "Done"}
}

// Pong builds the reply to a ping command.
func Pong() Event {
	return Event{Type: TypePong}
}

// Sink receives events as the engine produces them. Implementations must be
// safe for concurrent use: progress callbacks fire from worker goroutines
// while the resolver emits from its own.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})
