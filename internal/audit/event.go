// Package audit emits best-effort audit events for the session and cache
// lifecycle. When Kafka brokers are configured the server produces to a
// topic; the worker consumes it and pushes to Loki. Emission never fails the
// triggering operation.
package audit

import "time"

// EventType tags an audit event.
type EventType string

const (
	EventLogin              EventType = "login"
	EventLoginFailed        EventType = "login-failed"
	EventSessionEvicted     EventType = "session-evicted"
	EventLogout             EventType = "logout"
	EventCacheCleared       EventType = "cache-cleared"
	EventCacheRefreshFailed EventType = "cache-refresh-failed"
)

// Event is one audit record.
type Event struct {
	Type      EventType `json:"eventType"`
	ActorID   string    `json:"actorId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Source    string    `json:"source"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent returns an Event stamped with the current time.
func NewEvent(t EventType, actorID, sessionID, source, detail string) *Event {
	return &Event{
		Type:      t,
		ActorID:   actorID,
		SessionID: sessionID,
		Source:    source,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}
