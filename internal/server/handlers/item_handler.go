package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/service/inventory"
)

// ItemHandler exposes the inventory ledger.
type ItemHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewItemHandler constructs the HTTP handler adapter.
func NewItemHandler(svc *inventory.Service, logger *zap.Logger) *ItemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemHandler{svc: svc, logger: logger}
}

// List returns the filtered inventory.
func (h *ItemHandler) List(c *gin.Context) {
	var f inventory.Filter
	if !bindQuery(c, h.logger, &f) {
		return
	}
	items, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Sellable returns available items matching the q parameter.
func (h *ItemHandler) Sellable(c *gin.Context) {
	items, err := h.svc.Sellable(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Stats returns the stock statistics.
func (h *ItemHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Get returns one item.
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create registers a purchased item.
func (h *ItemHandler) Create(c *gin.Context) {
	var in inventory.ItemInput
	if !bindJSON(c, h.logger, &in) {
		return
	}
	item, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Update replaces an item and recomputes its prices.
func (h *ItemHandler) Update(c *gin.Context) {
	var in inventory.ItemInput
	if !bindJSON(c, h.logger, &in) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete removes an item.
func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
