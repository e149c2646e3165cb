package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/service/lots"
)

// LotHandler exposes purchase lots and their profit splits.
type LotHandler struct {
	svc    *lots.Service
	logger *zap.Logger
}

// NewLotHandler constructs the HTTP handler adapter.
func NewLotHandler(svc *lots.Service, logger *zap.Logger) *LotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LotHandler{svc: svc, logger: logger}
}

type adjustLotRequest struct {
	Share lots.Share `json:"share" binding:"required"`
	Value *float64   `json:"value" binding:"required"`
}

// List returns every purchase lot.
func (h *LotHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one lot.
func (h *LotHandler) Get(c *gin.Context) {
	lot, err := h.svc.Get(c.Request.Context(), lotKey(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// AdjustSplit previews the split after changing one share. Nothing is saved.
func (h *LotHandler) AdjustSplit(c *gin.Context) {
	var req adjustLotRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	lot, err := h.svc.Get(c.Request.Context(), lotKey(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	split, err := lots.AdjustSplit(lot.Split, req.Share, *req.Value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"split":        split,
		"distribution": lots.Distribute(lot.SoldValue, lot.PackagingSold, split),
	})
}

// SaveSplit persists the split of a lot.
func (h *LotHandler) SaveSplit(c *gin.Context) {
	var split models.ProfitSplit
	if !bindJSON(c, h.logger, &split) {
		return
	}
	cfg, err := h.svc.SaveSplit(c.Request.Context(), lotKey(c), split)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func lotKey(c *gin.Context) models.LotKey {
	return models.LotKey{Supplier: c.Param("supplier"), Date: c.Param("date")}
}
