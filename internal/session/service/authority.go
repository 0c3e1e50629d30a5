package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"signage-control-plane/internal/actor/domain"
	"signage-control-plane/internal/broadcast"
	"signage-control-plane/internal/security"
	sessiondomain "signage-control-plane/internal/session/domain"
)

// Sentinel errors for the session authority; handlers map them to HTTP statuses.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or unknown token")
	ErrSessionRevoked     = errors.New("session revoked by a newer login")
	ErrStoreUnavailable   = errors.New("session store unavailable")
)

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	Token        string
	SessionID    string
	ActorID      string
	EvictedCount int
}

// ActorRepo is the minimal actor repository needed by the authority.
type ActorRepo interface {
	GetByName(ctx context.Context, name string) (*domain.Actor, error)
}

// SessionRepo is the minimal session repository needed by the authority.
type SessionRepo interface {
	GetByTokenHash(ctx context.Context, tokenHash string) (*sessiondomain.Session, error)
	TakeOver(ctx context.Context, s *sessiondomain.Session) (int, error)
	Deactivate(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// Broadcaster fans an event out to connected displays. Delivery is
// best-effort; the authority never fails an operation over it.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev broadcast.Event) int
}

// Authority enforces that at most one administrative session is authoritative
// at any instant. A new login takes over: the prior holder's session is
// deactivated and every display is told to force-reload.
type Authority struct {
	actors   ActorRepo
	sessions SessionRepo
	hasher   *security.Hasher
	fabric   Broadcaster
}

// NewAuthority returns an Authority with the given dependencies.
func NewAuthority(actors ActorRepo, sessions SessionRepo, hasher *security.Hasher, fabric Broadcaster) *Authority {
	return &Authority{
		actors:   actors,
		sessions: sessions,
		hasher:   hasher,
		fabric:   fabric,
	}
}

// Login authenticates the actor and makes a new session the sole authority.
//
// Ordering is load-bearing: the new session is created durably (and the old
// ones deactivated) inside one store transaction before any broadcast is
// emitted. The force-reload event therefore always refers to an eviction that
// has already committed, so an evicted client cannot race a reconnect back
// into authority. Broadcast failure never fails the login; a stale client's
// next authenticated request is rejected against the store regardless.
func (a *Authority) Login(ctx context.Context, actorName, credential, deviceDescriptor string) (*LoginResult, error) {
	actorName = strings.TrimSpace(actorName)
	if actorName == "" || credential == "" {
		return nil, ErrInvalidCredentials
	}

	actor, err := a.actors.GetByName(ctx, actorName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if actor == nil {
		return nil, ErrInvalidCredentials
	}
	if err := a.hasher.Compare(actor.CredentialHash, []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := security.NewSessionToken()
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               uuid.New().String(),
		ActorID:          actor.ID,
		TokenHash:        security.HashSessionToken(token),
		Active:           true,
		DeviceDescriptor: strings.TrimSpace(deviceDescriptor),
		CreatedAt:        time.Now().UTC(),
	}

	evicted, err := a.sessions.TakeOver(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if evicted > 0 && a.fabric != nil {
		ev := broadcast.NewEvent(broadcast.EventForceReload, broadcast.DomainAll, "session-authority", broadcast.ForceReloadPayload{
			Reason:          "another session started for this account",
			NewSessionToken: token,
		})
		n := a.fabric.Broadcast(ctx, ev)
		log.Printf("session authority: evicted %d session(s) for actor %s, force-reload delivered to %d display(s)", evicted, actor.ID, n)
	}

	return &LoginResult{
		Token:        token,
		SessionID:    sess.ID,
		ActorID:      actor.ID,
		EvictedCount: evicted,
	}, nil
}

// Authorize accepts a bearer token iff it matches an active session. A token
// from a deactivated session fails with ErrSessionRevoked, distinct from
// ErrInvalidToken, so clients can tell "log in again" from "your session was
// taken over". The session's last-seen timestamp is touched best-effort.
func (a *Authority) Authorize(ctx context.Context, token string) (*sessiondomain.Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	sess, err := a.sessions.GetByTokenHash(ctx, security.HashSessionToken(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	// Re-check the returned row against the presented token in constant time;
	// a session the store hands back for the wrong hash must not grant.
	if sess == nil || !security.SessionTokenHashEqual(token, sess.TokenHash) {
		return nil, ErrInvalidToken
	}
	if !sess.Active {
		return nil, ErrSessionRevoked
	}
	_ = a.sessions.UpdateLastSeen(ctx, sess.ID, time.Now().UTC())
	return sess, nil
}

// Logout deactivates the session identified by the bearer token. Logging out
// an already revoked session returns ErrSessionRevoked; an unknown token
// returns ErrInvalidToken.
func (a *Authority) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	sess, err := a.sessions.GetByTokenHash(ctx, security.HashSessionToken(token))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if sess == nil || !security.SessionTokenHashEqual(token, sess.TokenHash) {
		return ErrInvalidToken
	}
	if !sess.Active {
		return ErrSessionRevoked
	}
	if err := a.sessions.Deactivate(ctx, sess.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
