package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"signage-control-plane/internal/actor/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an actor repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const actorColumns = "id, name, credential_hash, created_at, updated_at"

// GetByName returns the actor with the given name, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Actor, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+actorColumns+" FROM actors WHERE name = $1", name)
	return scanActor(row)
}

// GetByID returns the actor for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+actorColumns+" FROM actors WHERE id = $1", id)
	return scanActor(row)
}

// Create persists the actor to the database. The actor must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Actor) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO actors (id, name, credential_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		a.ID, a.Name, a.CredentialHash, a.CreatedAt, a.UpdatedAt)
	return err
}

// RotateCredential replaces the actor's credential hash. Returns an error if the update fails.
func (r *PostgresRepository) RotateCredential(ctx context.Context, id, credentialHash string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE actors SET credential_hash = $2, updated_at = $3 WHERE id = $1",
		id, credentialHash, time.Now().UTC())
	return err
}

func scanActor(row *sql.Row) (*domain.Actor, error) {
	var a domain.Actor
	err := row.Scan(&a.ID, &a.Name, &a.CredentialHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
