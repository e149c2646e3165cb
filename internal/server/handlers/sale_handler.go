package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/service/sales"
)

// SaleHandler exposes the sale transaction manager.
type SaleHandler struct {
	svc    *sales.Service
	logger *zap.Logger
}

// NewSaleHandler constructs the HTTP handler adapter.
func NewSaleHandler(svc *sales.Service, logger *zap.Logger) *SaleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleHandler{svc: svc, logger: logger}
}

// saleResponse carries a sale together with the outcome of its stock writes.
type saleResponse struct {
	Sale    models.Sale       `json:"sale"`
	Report  models.StepReport `json:"report"`
	Partial bool              `json:"partial"`
}

// List returns the filtered sale history.
func (h *SaleHandler) List(c *gin.Context) {
	var f sales.Filter
	if !bindQuery(c, h.logger, &f) {
		return
	}
	list, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Stats returns totals and per-payment-method volume of the filtered sales.
func (h *SaleHandler) Stats(c *gin.Context) {
	var f sales.Filter
	if !bindQuery(c, h.logger, &f) {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Get returns one sale.
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// Commit records a new sale and decrements stock.
func (h *SaleHandler) Commit(c *gin.Context) {
	var draft sales.Draft
	if !bindJSON(c, h.logger, &draft) {
		return
	}
	sale, report, err := h.svc.Commit(c.Request.Context(), draft)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, saleResponse{Sale: sale, Report: report, Partial: report.Partial()})
}

// Edit reconciles a committed sale with new lines.
func (h *SaleHandler) Edit(c *gin.Context) {
	var changes sales.Changes
	if !bindJSON(c, h.logger, &changes) {
		return
	}
	sale, report, err := h.svc.Edit(c.Request.Context(), c.Param("id"), changes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saleResponse{Sale: sale, Report: report, Partial: report.Partial()})
}

// Delete restocks and removes a sale.
func (h *SaleHandler) Delete(c *gin.Context) {
	report, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		var persistErr *models.PersistenceError
		if report.Partial() && !errors.As(err, &persistErr) {
			h.logger.Warn("sale kept after failed restock", zap.String("sale_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "report": report})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "partial": report.Partial()})
}
