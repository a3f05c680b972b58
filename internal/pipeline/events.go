package pipeline

import (
	"sync"
	"sync/atomic"
)

// EventKind classifies an Event.
type EventKind string

const (
	EventProgress   EventKind = "progress"
	EventToolStatus EventKind = "tool_status"
	EventCompleted  EventKind = "completed"
	EventFailed     EventKind = "failed"
)

// Event reports request progress. RequestID correlates every event of one
// request.
type Event struct {
	RequestID  string    `json:"request_id"`
	Kind       EventKind `json:"kind"`
	Stage      string    `json:"stage,omitempty"`
	Percent    float64   `json:"percent"`
	Message    string    `json:"message,omitempty"`
	Tool       string    `json:"tool,omitempty"`
	ToolStatus string    `json:"tool_status,omitempty"`
	Path       string    `json:"path,omitempty"`
	Error      string    `json:"error,omitempty"`
}

const defaultEventBuffer = 256

// emitter delivers events without ever blocking the sender. Events that do
// not fit in the buffer are dropped and counted.
type emitter struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Int64
}

func newEmitter(buffer int) *emitter {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &emitter{ch: make(chan Event, buffer)}
}

func (e *emitter) emit(ev Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- ev:
	default:
		e.dropped.Add(1)
	}
}

func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}
