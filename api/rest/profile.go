package rest

import (
	"net/http"

	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/store"
	"github.com/banditrecycle/server/tracker/bandit"
	"github.com/banditrecycle/server/tracker/stats"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileHandler serves the caller's own profile and hat.
type ProfileHandler struct {
	store  *store.Store
	stats  *stats.Service
	logger *zap.Logger
}

func NewProfileHandler(st *store.Store, statsSvc *stats.Service, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: st, stats: statsSvc, logger: logger}
}

// Get handles GET /api/profile. Anonymous callers get a null profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	prof, err := h.store.Profiles.Get(c.Request.Context(), mw.GetIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if prof == nil {
		c.JSON(http.StatusOK, gin.H{"profile": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": prof,
		"hat":     bandit.Resolve(prof.BanditHatID),
	})
}

// Patch handles PATCH /api/profile with a partial field set.
func (h *ProfileHandler) Patch(c *gin.Context) {
	var patch store.ProfilePatch
	if !bindJSON(c, &patch) {
		return
	}
	if patch.BanditHatID != nil {
		hat := bandit.Resolve(*patch.BanditHatID)
		patch.BanditHatID = &hat.ID
	}
	id := mw.GetIdentity(c)
	if err := h.store.Profiles.Update(c.Request.Context(), id, patch); err != nil {
		respondError(c, h.logger, err)
		return
	}
	prof, err := h.store.Profiles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": prof})
}

// Hats handles GET /api/hats.
func (h *ProfileHandler) Hats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hats": bandit.Hats, "default": bandit.DefaultHat})
}

// SetHat handles PUT /api/profile/hat. Unknown ids select the default hat.
func (h *ProfileHandler) SetHat(c *gin.Context) {
	var req struct {
		HatID string `json:"hat_id"`
	}
	if !bindJSON(c, &req) {
		return
	}
	hat, err := h.stats.SetHat(c.Request.Context(), mw.GetIdentity(c), req.HatID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hat": hat})
}

// Delete handles DELETE /api/profile. Nothing is deleted; the client is
// told how to request removal.
func (h *ProfileHandler) Delete(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"message": stats.DeleteAccountNotice})
}
