package rest

import (
	"net/http"

	mw "github.com/banditrecycle/server/middleware"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/tracker/stats"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsHandler serves the stats screen and the friends flow.
type StatsHandler struct {
	svc    *stats.Service
	logger *zap.Logger
}

func NewStatsHandler(svc *stats.Service, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// Summary handles GET /api/stats.
func (h *StatsHandler) Summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), mw.GetIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// Friends handles GET /api/friends.
func (h *StatsHandler) Friends(c *gin.Context) {
	id := mw.GetIdentity(c)
	friends, err := h.svc.Friends(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	pending, err := h.svc.Pending(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if friends == nil {
		friends = []stats.Entry{}
	}
	if pending == nil {
		pending = []stats.PendingRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends, "pending": pending})
}

// SendRequest handles POST /api/friends/request.
func (h *StatsHandler) SendRequest(c *gin.Context) {
	var req struct {
		FriendCode string `json:"friend_code" binding:"required,max=16"`
	}
	if !bindJSON(c, &req) {
		return
	}
	rel, err := h.svc.SendRequest(c.Request.Context(), mw.GetIdentity(c), req.FriendCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusCreated
	if rel.Status == model.FriendAccepted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"request": rel})
}

// Respond handles POST /api/friends/:id/respond. Only the addressee of a
// pending request may answer it.
func (h *StatsHandler) Respond(c *gin.Context) {
	var req struct {
		Status model.FriendStatus `json:"status" binding:"required,oneof=accepted denied"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Respond(c.Request.Context(), mw.GetIdentity(c), c.Param("id"), req.Status); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}
