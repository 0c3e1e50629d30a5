package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"signage-control-plane/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = "id, actor_id, token_hash, active, device_descriptor, last_seen_at, deactivated_at, created_at"

// GetByTokenHash returns the session matching the token hash, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE token_hash = $1", tokenHash)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// TakeOver creates s as the new active session and deactivates all other
// active sessions for s.ActorID in one transaction. The actor row is locked
// for the duration, so two concurrent logins for the same actor cannot both
// believe themselves the sole survivor. The insert happens before the
// deactivation, so the new token is durable by the time any prior session is
// evicted.
func (r *PostgresRepository) TakeOver(ctx context.Context, s *domain.Session) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var actorID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM actors WHERE id = $1 FOR UPDATE", s.ActorID).Scan(&actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("takeover: actor %s not found", s.ActorID)
		}
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO sessions (id, actor_id, token_hash, active, device_descriptor, last_seen_at, deactivated_at, created_at) VALUES ($1, $2, $3, TRUE, $4, NULL, NULL, $5)",
		s.ID, s.ActorID, s.TokenHash,
		sql.NullString{String: s.DeviceDescriptor, Valid: s.DeviceDescriptor != ""},
		s.CreatedAt)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE sessions SET active = FALSE, deactivated_at = $3 WHERE actor_id = $1 AND active AND id <> $2",
		s.ActorID, s.ID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	evicted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(evicted), nil
}

// Deactivate marks the session with the given id as inactive. Returns an error if the update fails.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET active = FALSE, deactivated_at = $2 WHERE id = $1 AND active",
		id, time.Now().UTC())
	return err
}

// UpdateLastSeen sets the session's last-seen timestamp for the given id. Returns an error if the update fails.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sessions SET last_seen_at = $2 WHERE id = $1", id, at)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s             domain.Session
		device        sql.NullString
		lastSeenAt    sql.NullTime
		deactivatedAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.ActorID, &s.TokenHash, &s.Active, &device, &lastSeenAt, &deactivatedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if device.Valid {
		s.DeviceDescriptor = device.String
	}
	s.LastSeenAt = nullTimeToPtr(lastSeenAt)
	s.DeactivatedAt = nullTimeToPtr(deactivatedAt)
	return &s, nil
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
