package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/service/reporting"
	"github.com/solarie/joias/internal/service/whatsapp"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler exposes reports and their delivery.
type ReportHandler struct {
	svc       *reporting.Service
	messaging whatsapp.MessagingService
	loc       *time.Location
	logger    *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter. messaging may be nil
// when WhatsApp delivery is disabled.
func NewReportHandler(svc *reporting.Service, messaging whatsapp.MessagingService, loc *time.Location, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{svc: svc, messaging: messaging, loc: loc, logger: logger}
}

// General returns stock statistics and the sales of the filtered period.
func (h *ReportHandler) General(c *gin.Context) {
	var f reporting.Filter
	if !bindQuery(c, h.logger, &f) {
		return
	}
	report, err := h.svc.General(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Monthly returns the per-month rollup, newest first.
func (h *ReportHandler) Monthly(c *gin.Context) {
	reports, err := h.svc.Monthly(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Export downloads the filtered report as a spreadsheet.
func (h *ReportHandler) Export(c *gin.Context) {
	var f reporting.Filter
	if !bindQuery(c, h.logger, &f) {
		return
	}

	var buf bytes.Buffer
	if err := h.svc.ExportXLSX(c.Request.Context(), f, &buf); err != nil {
		respondError(c, h.logger, err)
		return
	}

	name := fmt.Sprintf("relatorio-%s.xlsx", time.Now().In(h.loc).Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// SendWeeklySummary delivers the weekly summary now instead of waiting for
// the scheduled run.
func (h *ReportHandler) SendWeeklySummary(c *gin.Context) {
	if h.messaging == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "whatsapp delivery is not configured"})
		return
	}

	summary, err := h.svc.WeeklySummary(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.messaging.SendOutbound(c.Request.Context(), models.OutboundMessageRequest{Message: summary}); err != nil {
		h.logger.Error("failed sending weekly summary", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse{Error: "unable to send message"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": summary})
}

// SendMessage sends a manual WhatsApp message.
func (h *ReportHandler) SendMessage(c *gin.Context) {
	if h.messaging == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "whatsapp delivery is not configured"})
		return
	}

	var req models.OutboundMessageRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	if err := h.messaging.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse{Error: "unable to send message"})
		return
	}
	c.Status(http.StatusAccepted)
}
