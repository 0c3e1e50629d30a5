package broadcast

import "time"

// EventType tags an update event. The set is closed; display clients switch
// on it to decide what to re-fetch.
type EventType string

const (
	EventSlides      EventType = "slides"
	EventSettings    EventType = "settings"
	EventAPIData     EventType = "api-data"
	EventForceReload EventType = "force-reload"
	EventAll         EventType = "all"
)

// DomainAll targets every connection regardless of domain. Identity-level
// events (session eviction) use it because "who is logged in" is global even
// though slideshow content is domain-scoped.
const DomainAll = "all"

// Event is a transient update message fanned out to display connections.
// Events are never persisted; delivery is best-effort to currently-connected
// displays only.
type Event struct {
	Type      EventType   `json:"type"`
	Domain    string      `json:"domain"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
	Data      interface{} `json:"data"`
}

// NewEvent returns an Event stamped with the current time.
func NewEvent(t EventType, domain, source string, data interface{}) Event {
	return Event{
		Type:      t,
		Domain:    domain,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Data:      data,
	}
}

// ForceReloadPayload is the data carried by a force-reload event. The new
// session token lets the client that triggered the eviction recognize and
// discard its own notice.
type ForceReloadPayload struct {
	Reason          string `json:"reason"`
	NewSessionToken string `json:"newSessionToken"`
}
