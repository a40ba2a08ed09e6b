package rest

import (
	"net/http"

	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/tracker/setup"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupHandler drives the local setup wizard.
type SetupHandler struct {
	svc    *setup.Service
	logger *zap.Logger
}

func NewSetupHandler(svc *setup.Service, logger *zap.Logger) *SetupHandler {
	return &SetupHandler{svc: svc, logger: logger}
}

// reply writes the wizard state. A failed step still returns the draft so
// the client keeps showing the user's edits.
func (h *SetupHandler) reply(c *gin.Context, w *setup.Wizard, err error) {
	if err != nil {
		var extra gin.H
		if w != nil {
			extra = gin.H{"setup": w}
		}
		respondErrorWith(c, h.logger, err, extra)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setup": w, "can_proceed": w.CanProceed(), "missing": w.Missing()})
}

// Get handles GET /api/setup. "resumed" tells the client an earlier draft
// was picked up instead of a fresh one.
func (h *SetupHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := mw.GetIdentity(c)
	resumed, err := h.svc.HasDraft(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	w, err := h.svc.Load(ctx, id)
	if err != nil {
		h.reply(c, w, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"setup": w, "can_proceed": w.CanProceed(), "missing": w.Missing(), "resumed": resumed})
}

// SetLocation handles PUT /api/setup/location.
func (h *SetupHandler) SetLocation(c *gin.Context) {
	var req struct {
		Location string `json:"location"`
	}
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.SetLocation(c.Request.Context(), mw.GetIdentity(c), req.Location)
	h.reply(c, w, err)
}

// SetStreamMode handles PUT /api/setup/stream_mode.
func (h *SetupHandler) SetStreamMode(c *gin.Context) {
	var req struct {
		StreamMode model.StreamMode `json:"stream_mode"`
	}
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.SetStreamMode(c.Request.Context(), mw.GetIdentity(c), req.StreamMode)
	h.reply(c, w, err)
}

// SetRule handles PUT /api/setup/rules/:item_id.
func (h *SetupHandler) SetRule(c *gin.Context) {
	var req ruleRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.SetRule(c.Request.Context(), mw.GetIdentity(c), c.Param("item_id"), req.Rule)
	h.reply(c, w, err)
}

// Next handles POST /api/setup/next.
func (h *SetupHandler) Next(c *gin.Context) {
	w, err := h.svc.Next(c.Request.Context(), mw.GetIdentity(c))
	h.reply(c, w, err)
}

// Back handles POST /api/setup/back.
func (h *SetupHandler) Back(c *gin.Context) {
	w, err := h.svc.Back(c.Request.Context(), mw.GetIdentity(c))
	h.reply(c, w, err)
}

// Discard handles DELETE /api/setup.
func (h *SetupHandler) Discard(c *gin.Context) {
	if err := h.svc.Discard(c.Request.Context(), mw.GetIdentity(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
