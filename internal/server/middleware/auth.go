package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"signage-control-plane/internal/session/domain"
	"signage-control-plane/internal/session/service"
)

const (
	actorIDKey   = "auth.actor_id"
	sessionIDKey = "auth.session_id"
)

// Authorizer resolves a bearer token to the live session it belongs to.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*domain.Session, error)
}

// RequireSession rejects requests that do not carry a valid bearer token for
// an active session. A revoked session is distinguished from an unknown token
// so a taken-over display can tell it was evicted rather than misconfigured.
func RequireSession(auth Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "InvalidToken"})
			return
		}
		sess, err := auth.Authorize(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionRevoked):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "SessionRevoked"})
			case errors.Is(err, service.ErrStoreUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "InvalidToken"})
			}
			return
		}
		c.Set(actorIDKey, sess.ActorID)
		c.Set(sessionIDKey, sess.ID)
		c.Next()
	}
}

// ActorID returns the authenticated actor id set by RequireSession.
func ActorID(c *gin.Context) string {
	return c.GetString(actorIDKey)
}

// SessionID returns the authenticated session id set by RequireSession.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// ExtractBearer pulls the token out of an Authorization header value. The
// scheme comparison is case-insensitive.
func ExtractBearer(header string) string {
	if header == "" {
		return ""
	}
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
