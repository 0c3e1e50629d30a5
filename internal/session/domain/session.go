package domain

import "time"

// Session represents one logical login by an actor. At most one active
// session exists per actor at any committed point in time; superseded
// sessions are deactivated and retained for audit, never deleted.
type Session struct {
	ID               string
	ActorID          string
	TokenHash        string // SHA-256 hash of the opaque bearer token; the raw token is never stored
	Active           bool
	DeviceDescriptor string
	LastSeenAt       *time.Time
	DeactivatedAt    *time.Time // nil while active
	CreatedAt        time.Time
}
