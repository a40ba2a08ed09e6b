package rest

import (
	"net/http"

	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/tracker/batch"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogHandler serves the batch logging screen.
type LogHandler struct {
	svc    *batch.Service
	store  *store.Store
	logger *zap.Logger
}

func NewLogHandler(svc *batch.Service, st *store.Store, logger *zap.Logger) *LogHandler {
	return &LogHandler{svc: svc, store: st, logger: logger}
}

func (h *LogHandler) screen(c *gin.Context, scr *batch.Screen, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"screen": scr})
}

// Open handles GET /api/log?search=. Users who have not finished local
// setup get 428 with a redirect to the wizard.
func (h *LogHandler) Open(c *gin.Context) {
	scr, err := h.svc.Open(c.Request.Context(), mw.GetIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	items, err := h.store.Catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"screen": scr,
		"items":  batch.Filter(items, c.Query("search")),
	})
}

// Guidance handles GET /api/log/items/:item_id.
func (h *LogHandler) Guidance(c *gin.Context) {
	g, err := h.svc.Guidance(c.Request.Context(), mw.GetIdentity(c), c.Param("item_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guidance": g})
}

type addRequest struct {
	ItemTypeID string `json:"item_type_id" binding:"required,max=64"`
	Confirmed  bool   `json:"confirmed"`
}

// Add handles POST /api/log/batch/items. Items the user's program does not
// accept answer 409 until repeated with confirmed=true.
func (h *LogHandler) Add(c *gin.Context) {
	var req addRequest
	if !bindJSON(c, &req) {
		return
	}
	scr, err := h.svc.Add(c.Request.Context(), mw.GetIdentity(c), req.ItemTypeID, req.Confirmed)
	h.screen(c, scr, err)
}

// Increment handles POST /api/log/batch/items/:item_id/increment.
func (h *LogHandler) Increment(c *gin.Context) {
	scr, err := h.svc.Increment(c.Request.Context(), mw.GetIdentity(c), c.Param("item_id"))
	h.screen(c, scr, err)
}

// Decrement handles POST /api/log/batch/items/:item_id/decrement.
func (h *LogHandler) Decrement(c *gin.Context) {
	scr, err := h.svc.Decrement(c.Request.Context(), mw.GetIdentity(c), c.Param("item_id"))
	h.screen(c, scr, err)
}

// Remove handles DELETE /api/log/batch/items/:item_id.
func (h *LogHandler) Remove(c *gin.Context) {
	scr, err := h.svc.Remove(c.Request.Context(), mw.GetIdentity(c), c.Param("item_id"))
	h.screen(c, scr, err)
}

// Leave handles DELETE /api/log/batch: navigating away drops the batch.
func (h *LogHandler) Leave(c *gin.Context) {
	if err := h.svc.Leave(c.Request.Context(), mw.GetIdentity(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit handles POST /api/log/batch/submit.
func (h *LogHandler) Submit(c *gin.Context) {
	scr, entries, err := h.svc.Submit(c.Request.Context(), mw.GetIdentity(c))
	if err != nil {
		respondErrorWith(c, h.logger, err, gin.H{"screen": scr})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"screen": scr, "entries": entries})
}

// Acknowledge handles POST /api/log/success/ack ("log more").
func (h *LogHandler) Acknowledge(c *gin.Context) {
	scr, err := h.svc.Acknowledge(c.Request.Context(), mw.GetIdentity(c))
	h.screen(c, scr, err)
}

// Camera handles POST /api/log/camera. available reports whether the
// device granted camera access.
func (h *LogHandler) Camera(c *gin.Context) {
	var req struct {
		Available bool `json:"available"`
	}
	if !bindJSON(c, &req) {
		return
	}
	scr, err := h.svc.ToggleCamera(c.Request.Context(), mw.GetIdentity(c), req.Available)
	h.screen(c, scr, err)
}

// Entries handles GET /api/log/entries: the caller's entries inside the
// weekly window, newest first.
func (h *LogHandler) Entries(c *gin.Context) {
	entries, err := h.store.Logs.Recent(c.Request.Context(), mw.GetIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if entries == nil {
		entries = []model.LogEntry{}
	}
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "weekly_total": total})
}
