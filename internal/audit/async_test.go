package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*Event
	err    error
	done   chan struct{}
}

func (e *captureEmitter) Emit(ctx context.Context, event *Event) error {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
	if e.done != nil {
		close(e.done)
	}
	return e.err
}

func TestEmitAsync_NilSafe(t *testing.T) {
	// Must not panic or spawn goroutines.
	EmitAsync(nil, NewEvent(EventLogin, "a", "s", "test", ""))
	EmitAsync(&captureEmitter{}, nil)
}

func TestEmitAsync_DeliversEvent(t *testing.T) {
	em := &captureEmitter{done: make(chan struct{})}
	ev := NewEvent(EventLogout, "actor-1", "sess-1", "test", "")
	EmitAsync(em, ev)

	select {
	case <-em.done:
	case <-time.After(2 * time.Second):
		t.Fatal("EmitAsync did not deliver the event")
	}
	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.events) != 1 || em.events[0] != ev {
		t.Error("emitted event does not match")
	}
}

func TestEmitAsync_EmitterErrorIsSwallowed(t *testing.T) {
	em := &captureEmitter{done: make(chan struct{}), err: errors.New("broker down")}
	EmitAsync(em, NewEvent(EventLogin, "a", "s", "test", ""))
	select {
	case <-em.done:
	case <-time.After(2 * time.Second):
		t.Fatal("EmitAsync did not run")
	}
	// Nothing to assert beyond "no panic, caller not blocked".
}
