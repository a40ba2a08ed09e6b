package rest

import (
	"net/http"

	"github.com/banditrecycle/server/audit"
	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/scheduler"
	"github.com/banditrecycle/server/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	store  *store.Store
	sched  *scheduler.Scheduler
	audit  *audit.Service
	pubsub cache.PubSub
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	st *store.Store,
	sched *scheduler.Scheduler,
	auditSvc *audit.Service,
	ps cache.PubSub,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{store: st, sched: sched, audit: auditSvc, pubsub: ps, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	out := gin.H{
		"scheduler_tasks": h.sched.ListTickers(),
		"audit_pending":   h.audit.Pending(),
		"audit_dropped":   h.audit.Dropped(),
	}
	if dc, ok := h.pubsub.(cache.DroppedCounter); ok {
		out["invalidations_dropped"] = dc.Dropped()
	}
	c.JSON(http.StatusOK, out)
}

// ListSchedulerTasks returns all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// RefreshCatalog drops the cached item catalog so the next read sees rows
// seeded outside the server.
// POST /api/admin/catalog/refresh
func (h *AdminHandler) RefreshCatalog(c *gin.Context) {
	if err := h.store.Catalog.Refresh(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("item catalog refreshed by admin")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// If adminKey is empty all admin endpoints answer 503, so the server
// cannot be deployed with them open. Set server.admin_key to enable them.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
