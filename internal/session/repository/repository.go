package repository

import (
	"context"
	"time"

	"signage-control-plane/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	// TakeOver atomically creates s as the actor's active session and
	// deactivates every other active session for the same actor. Concurrent
	// takeovers for one actor are serialized on the actor row. Returns the
	// number of sessions deactivated.
	TakeOver(ctx context.Context, s *domain.Session) (int, error)
	Deactivate(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}
