package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	actordomain "signage-control-plane/internal/actor/domain"
	"signage-control-plane/internal/audit"
	"signage-control-plane/internal/server/middleware"
	"signage-control-plane/internal/session/service"
)

// ActorDirectory resolves actor ids to their records.
type ActorDirectory interface {
	GetByID(ctx context.Context, id string) (*actordomain.Actor, error)
}

// AuthHandler exposes login, logout and identity endpoints over HTTP.
type AuthHandler struct {
	authority *service.Authority
	actors    ActorDirectory
	auditor   audit.Emitter
}

func NewAuthHandler(authority *service.Authority, actors ActorDirectory, auditor audit.Emitter) *AuthHandler {
	return &AuthHandler{authority: authority, actors: actors, auditor: auditor}
}

type loginRequest struct {
	Actor            string `json:"actor" binding:"required"`
	Credential       string `json:"credential" binding:"required"`
	DeviceDescriptor string `json:"deviceDescriptor"`
}

type loginResponse struct {
	Token               string `json:"token"`
	SessionID           string `json:"sessionId"`
	ActorID             string `json:"actorId"`
	EvictedPriorSession bool   `json:"evictedPriorSession"`
}

// Login authenticates an operator and issues the sole authoritative session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "InvalidRequest"})
		return
	}

	res, err := h.authority.Login(c.Request.Context(), req.Actor, req.Credential, req.DeviceDescriptor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			audit.EmitAsync(h.auditor, audit.NewEvent(audit.EventLoginFailed, "", "", "auth-handler", "invalid credentials for actor "+req.Actor))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "InvalidCredentials"})
		case errors.Is(err, service.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal"})
		}
		return
	}

	ev := audit.NewEvent(audit.EventLogin, res.ActorID, res.SessionID, "auth-handler", "")
	if res.EvictedCount > 0 {
		ev.Type = audit.EventSessionEvicted
		ev.Detail = "prior session deactivated by new login"
	}
	audit.EmitAsync(h.auditor, ev)

	c.JSON(http.StatusOK, loginResponse{
		Token:               res.Token,
		SessionID:           res.SessionID,
		ActorID:             res.ActorID,
		EvictedPriorSession: res.EvictedCount > 0,
	})
}

// Me reports the identity behind the presented token. RequireSession has
// already validated it. The actor name is looked up best-effort; the ids
// alone still answer the request if the lookup fails.
func (h *AuthHandler) Me(c *gin.Context) {
	resp := gin.H{
		"actorId":   middleware.ActorID(c),
		"sessionId": middleware.SessionID(c),
	}
	if h.actors != nil {
		if a, err := h.actors.GetByID(c.Request.Context(), middleware.ActorID(c)); err == nil && a != nil {
			resp["actorName"] = a.Name
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Logout deactivates the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.ExtractBearer(c.GetHeader("Authorization"))
	if err := h.authority.Logout(c.Request.Context(), token); err != nil {
		switch {
		case errors.Is(err, service.ErrSessionRevoked):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "SessionRevoked"})
		case errors.Is(err, service.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unavailable"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "InvalidToken"})
		}
		return
	}
	audit.EmitAsync(h.auditor, audit.NewEvent(audit.EventLogout, middleware.ActorID(c), middleware.SessionID(c), "auth-handler", ""))
	c.Status(http.StatusNoContent)
}
