package repository

import (
	"context"

	"signage-control-plane/internal/actor/domain"
)

// Repository defines persistence for actors.
type Repository interface {
	GetByName(ctx context.Context, name string) (*domain.Actor, error)
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	Create(ctx context.Context, a *domain.Actor) error
	RotateCredential(ctx context.Context, id, credentialHash string) error
}
