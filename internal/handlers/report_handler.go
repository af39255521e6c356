package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/medivault-api/internal/services"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 300

// GenerateReport builds a report from the caller's stored profile and
// replaces their previous one.
func (h *Handler) GenerateReport(c *gin.Context) {
	id := c.Param("id")
	if !isSelf(c, id) {
		fail(c, http.StatusForbidden, "Permission denied.")
		return
	}

	p, err := h.Auth.Patient(c.Request.Context(), id)
	if err != nil {
		h.failWith(c, err)
		return
	}

	report, err := h.Records.GenerateHealthReport(c.Request.Context(), *p)
	if err != nil {
		h.failWith(c, err)
		return
	}
	h.Metrics.ReportsCreated.Inc()
	h.Notifier.Notify(p, services.ReportGeneratedMessage(p))

	c.JSON(http.StatusCreated, report)
}

func (h *Handler) GetReport(c *gin.Context) {
	id := c.Param("id")
	if !canRead(c, id) {
		fail(c, http.StatusForbidden, "Permission denied.")
		return
	}

	report := h.Records.HealthReport(c.Request.Context(), id)
	if report == nil {
		fail(c, http.StatusNotFound, "Report not found")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetReportQR renders the stored report's share-token as a PNG.
func (h *Handler) GetReportQR(c *gin.Context) {
	id := c.Param("id")
	if !canRead(c, id) {
		fail(c, http.StatusForbidden, "Permission denied.")
		return
	}

	report := h.Records.HealthReport(c.Request.Context(), id)
	if report == nil {
		fail(c, http.StatusNotFound, "Report not found")
		return
	}

	png, err := qrcode.Encode(report.QRCode, qrcode.Medium, qrSize)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ScanReport resolves a scanned share-token to the report it points at.
func (h *Handler) ScanReport(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		fail(c, http.StatusBadRequest, "token is required")
		return
	}

	report, err := h.Records.ReportByShareToken(c.Request.Context(), token)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
