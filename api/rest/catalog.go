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

// CatalogHandler serves item types and the caller's item rules.
type CatalogHandler struct {
	store  *store.Store
	logger *zap.Logger
}

func NewCatalogHandler(st *store.Store, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{store: st, logger: logger}
}

// Items handles GET /api/items?search=.
func (h *CatalogHandler) Items(c *gin.Context) {
	items, err := h.store.Catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": batch.Filter(items, c.Query("search"))})
}

// Rules handles GET /api/rules. Anonymous callers get an empty list.
func (h *CatalogHandler) Rules(c *gin.Context) {
	rules, err := h.store.Rules.List(c.Request.Context(), mw.GetIdentity(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if rules == nil {
		rules = []model.UserItemRule{}
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

type ruleRequest struct {
	Rule model.Rule `json:"rule" binding:"required"`
}

// PutRule handles PUT /api/rules/:item_id, the quick rule set from the
// item drawer.
func (h *CatalogHandler) PutRule(c *gin.Context) {
	var req ruleRequest
	if !bindJSON(c, &req) {
		return
	}
	itemID := c.Param("item_id")
	if err := h.store.Rules.Upsert(c.Request.Context(), mw.GetIdentity(c), itemID, req.Rule); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_type_id": itemID, "rule": req.Rule})
}
