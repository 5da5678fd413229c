package internal

import (
	"context"
	"sync"
)

// Event names a signal sent by the App.
type Event string

const (
	EventEventsInitialized     Event = "events.initialized"
	EventSettingsInitialized   Event = "settings.initialized"
	EventLoggingInitialized    Event = "logging.initialized"
	EventRoutingInitialized    Event = "routing.initialized"
	EventTemplatingInitialized Event = "templating.initialized"
	EventRequestStarted        Event = "request.started"
	EventResponseCycleStarted  Event = "response_cycle.started"
	EventResponseCycleEnded    Event = "response_cycle.ended"
	EventRequestEnded          Event = "request.ended"
)

// EventData carries signal-specific values.
type EventData map[string]any

// EventHandler receives a signal. ctx is the request Context for request
// signals and the App's build context otherwise.
type EventHandler func(ctx context.Context, data EventData)

// Events dispatches signals to connected handlers in connection order.
type Events struct {
	handlers map[Event][]EventHandler
	mu       sync.RWMutex
}

func NewEvents() *Events {
	return &Events{handlers: make(map[Event][]EventHandler)}
}

// Connect registers fn for ev. A nil fn is ignored.
func (e *Events) Connect(ev Event, fn EventHandler) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[ev] = append(e.handlers[ev], fn)
}

// Send calls every handler connected to ev.
func (e *Events) Send(ctx context.Context, ev Event, data EventData) {
	e.mu.RLock()
	handlers := e.handlers[ev]
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx, data)
	}
}

// Connected reports how many handlers listen to ev.
func (e *Events) Connected(ev Event) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[ev])
}
