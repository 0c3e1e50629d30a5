package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"signage-control-plane/internal/audit"
	"signage-control-plane/internal/dashboard/domain"
	"signage-control-plane/internal/dashboard/service"
	"signage-control-plane/internal/server/middleware"
)

// DashboardHandler serves the aggregated view and the cache admin endpoints.
type DashboardHandler struct {
	cache   *service.Cache
	auditor audit.Emitter
}

func NewDashboardHandler(cache *service.Cache, auditor audit.Emitter) *DashboardHandler {
	return &DashboardHandler{cache: cache, auditor: auditor}
}

type dashboardResponse struct {
	Success   bool        `json:"success"`
	Data      domain.View `json:"data"`
	Cached    bool        `json:"cached"`
	Fresh     bool        `json:"fresh,omitempty"`
	Stale     bool        `json:"stale,omitempty"`
	Warning   string      `json:"warning,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Get serves the dashboard view. It fails only on a cold start: once any
// aggregation has succeeded, stale data is served rather than an error.
func (h *DashboardHandler) Get(c *gin.Context) {
	res, err := h.cache.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrColdCache) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success":   false,
				"error":     "Unavailable",
				"data":      domain.EmptyView(),
				"timestamp": time.Now().UTC(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal"})
		return
	}

	c.JSON(http.StatusOK, dashboardResponse{
		Success:   true,
		Data:      res.View,
		Cached:    res.Source != service.SourceFreshFetch,
		Fresh:     res.Source == service.SourceFreshFetch || res.Source == service.SourceFreshCache,
		Stale:     res.Source == service.SourceStaleCache,
		Warning:   res.Warning,
		Timestamp: res.CapturedAt,
	})
}

// ClearCache invalidates the cached view so the next read refetches.
func (h *DashboardHandler) ClearCache(c *gin.Context) {
	h.cache.Clear()
	audit.EmitAsync(h.auditor, audit.NewEvent(audit.EventCacheCleared, middleware.ActorID(c), middleware.SessionID(c), "dashboard-handler", ""))
	c.Status(http.StatusNoContent)
}

// CacheStatus reports the cache diagnostic.
func (h *DashboardHandler) CacheStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Status())
}
