package service

import (
	"context"
	"sync"
)

// Events sent to the webview.
const (
	EventRender         = "editor:render"
	EventFocus          = "editor:focus"
	EventSelect         = "editor:select"
	EventStatus         = "editor:status"
	EventRekey          = "editor:rekey"
	EventPage           = "page:show"
	EventRouteChanged   = "router:changed"
	EventSessionChanged = "session:changed"
	EventSessionExpired = "session:expired"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter decouples services from wailsRuntime
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting events to the frontend.
// The App struct implements this by delegating to wailsRuntime.EventsEmit;
// the MCP process uses a no-op emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded emissions of one event.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
