// Package testutil holds shared test fixtures: a thread-safe log buffer,
// an event-collecting sink, and small node modules with controllable
// behavior.
package testutil

import (
	"bytes"
	"sync"

	"github.com/vk/nodeflow/internal/events"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// EventBuffer is an events.Sink that records everything emitted to it.
// Safe for concurrent use.
type EventBuffer struct {
	mu     sync.Mutex
	events []events.Event
}

// Emit implements events.Sink.
func (b *EventBuffer) Emit(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// All returns a snapshot of the recorded events in emission order.
func (b *EventBuffer) All() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

// ByType filters the recorded events down to one type.
func (b *EventBuffer) ByType(t events.Type) []events.Event {
	var out []events.Event
	for _, ev := range b.All() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
