package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gadconnect/gadconnect-api/internal/service"
	"github.com/gadconnect/gadconnect-api/pkg/response"
)

// ReportHandler exposes downloadable report endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Demographics godoc
// @Summary Download the demographics report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param periodId query string false "Period ID, defaults to the active period"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /reports/demographics [get]
func (h *ReportHandler) Demographics(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	report, err := h.service.Demographics(c.Request.Context(), c.Query("periodId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
