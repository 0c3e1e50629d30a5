// Package broadcast fans typed update events out to connected display
// clients, grouped into rooms by domain label.
//
// Delivery is at-most-once and best-effort: no retry, no persistence. A
// connection that errors during a fan-out is dropped from its room and the
// fan-out continues for the rest. Clients are expected to re-validate
// authoritative state after any reconnect.
package broadcast

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Conn is one live display connection. WriteEvent must be safe for
// concurrent use; overlapping broadcasts may write to the same connection at
// the same time.
type Conn interface {
	// WriteEvent delivers one event. It must respect ctx cancellation.
	WriteEvent(ctx context.Context, ev Event) error
	// Close tears the transport down. Called after a failed write.
	Close() error
}

// Stats is a snapshot of fan-out counters.
type Stats struct {
	Connections int
	Delivered   uint64
	Dropped     uint64
}

// Fabric groups display connections by domain and delivers events to them.
// All methods are safe for concurrent use.
type Fabric struct {
	mu    sync.RWMutex
	rooms map[Conn]string // connection -> domain

	sendTimeout time.Duration

	delivered atomic.Uint64
	dropped   atomic.Uint64

	deliveredCounter metric.Int64Counter
	droppedCounter   metric.Int64Counter
}

// NewFabric returns a Fabric whose per-connection sends are bounded by
// sendTimeout. A non-positive timeout falls back to 2s.
func NewFabric(sendTimeout time.Duration) *Fabric {
	if sendTimeout <= 0 {
		sendTimeout = 2 * time.Second
	}
	f := &Fabric{
		rooms:       make(map[Conn]string),
		sendTimeout: sendTimeout,
	}
	meter := otel.Meter("signage/broadcast")
	f.deliveredCounter, _ = meter.Int64Counter("broadcast.delivered")
	f.droppedCounter, _ = meter.Int64Counter("broadcast.dropped")
	return f
}

// Register joins the connection to a domain room. Registering an already
// registered connection moves it to the new domain; registering it twice with
// the same domain is a no-op.
func (f *Fabric) Register(c Conn, domain string) {
	if c == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[c] = domain
}

// Unregister removes the connection from whatever domain it was in. Safe to
// call for connections that were never registered.
func (f *Fabric) Unregister(c Conn) {
	if c == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, c)
}

// Domain returns the domain the connection is registered under, and whether
// it is registered at all.
func (f *Fabric) Domain(c Conn) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	d, ok := f.rooms[c]
	return d, ok
}

// Broadcast delivers ev to every connection selected by ev.Domain: the
// matching room, or all rooms when ev.Domain is DomainAll. Returns the number
// of connections the event was delivered to.
//
// Sends run concurrently with a per-connection timeout, so one slow or broken
// connection never blocks or fails the fan-out. A connection whose write
// errors is unregistered and closed.
func (f *Fabric) Broadcast(ctx context.Context, ev Event) int {
	targets := f.selectTargets(selectorFor(ev.Domain))
	if len(targets) == 0 {
		return 0
	}

	var (
		wg        sync.WaitGroup
		delivered atomic.Int64
	)
	for _, c := range targets {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, f.sendTimeout)
			defer cancel()
			if err := c.WriteEvent(sendCtx, ev); err != nil {
				log.Printf("broadcast: dropping connection after failed %s send: %v", ev.Type, err)
				f.Unregister(c)
				_ = c.Close()
				f.dropped.Add(1)
				if f.droppedCounter != nil {
					f.droppedCounter.Add(ctx, 1)
				}
				return
			}
			delivered.Add(1)
		}(c)
	}
	wg.Wait()

	n := delivered.Load()
	f.delivered.Add(uint64(n))
	if f.deliveredCounter != nil {
		f.deliveredCounter.Add(ctx, n)
	}
	return int(n)
}

// Stats returns a snapshot of connection count and fan-out counters.
func (f *Fabric) Stats() Stats {
	f.mu.RLock()
	n := len(f.rooms)
	f.mu.RUnlock()
	return Stats{
		Connections: n,
		Delivered:   f.delivered.Load(),
		Dropped:     f.dropped.Load(),
	}
}

// selectorFor returns the target selector for a domain: every connection for
// DomainAll, the matching room otherwise. The one fan-out path is
// parameterized by this selector rather than split in two.
func selectorFor(domain string) func(connDomain string) bool {
	if domain == DomainAll {
		return func(string) bool { return true }
	}
	return func(connDomain string) bool { return connDomain == domain }
}

func (f *Fabric) selectTargets(include func(domain string) bool) []Conn {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Conn, 0, len(f.rooms))
	for c, d := range f.rooms {
		if include(d) {
			out = append(out, c)
		}
	}
	return out
}
