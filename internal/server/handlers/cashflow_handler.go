package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/service/cashflow"
)

// CashFlowHandler exposes the cash-flow ledger.
type CashFlowHandler struct {
	svc    *cashflow.Service
	logger *zap.Logger
}

// NewCashFlowHandler constructs the HTTP handler adapter.
func NewCashFlowHandler(svc *cashflow.Service, logger *zap.Logger) *CashFlowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashFlowHandler{svc: svc, logger: logger}
}

type adjustCashRequest struct {
	Share models.CashSubSource `json:"share" binding:"required"`
	Value *float64             `json:"value" binding:"required"`
}

// List returns every outflow, newest first.
func (h *CashFlowHandler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Get returns one outflow.
func (h *CashFlowHandler) Get(c *gin.Context) {
	entry, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Create records an outflow.
func (h *CashFlowHandler) Create(c *gin.Context) {
	var in cashflow.EntryInput
	if !bindJSON(c, h.logger, &in) {
		return
	}
	entry, err := h.svc.Record(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Update replaces an outflow.
func (h *CashFlowHandler) Update(c *gin.Context) {
	var in cashflow.EntryInput
	if !bindJSON(c, h.logger, &in) {
		return
	}
	entry, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete removes an outflow.
func (h *CashFlowHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Position returns balances and the split of the cash balance.
func (h *CashFlowHandler) Position(c *gin.Context) {
	pos, err := h.svc.Position(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

// Split returns the saved cash split.
func (h *CashFlowHandler) Split(c *gin.Context) {
	split, err := h.svc.Split(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, split)
}

// AdjustSplit changes one share of the cash split and saves the result.
func (h *CashFlowHandler) AdjustSplit(c *gin.Context) {
	var req adjustCashRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	split, err := h.svc.AdjustSplit(c.Request.Context(), req.Share, *req.Value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, split)
}

// SaveSplit replaces the cash split.
func (h *CashFlowHandler) SaveSplit(c *gin.Context) {
	var split models.CashSplit
	if !bindJSON(c, h.logger, &split) {
		return
	}
	saved, err := h.svc.SaveSplit(c.Request.Context(), split)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
