package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gadconnect/gadconnect-api/internal/service"
	"github.com/gadconnect/gadconnect-api/pkg/response"
)

// AnalyticsHandler exposes demographics analytics endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	metrics *service.MetricsService
}

// NewAnalyticsHandler constructs an analytics handler.
func NewAnalyticsHandler(svc *service.AnalyticsService, metrics *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc, metrics: metrics}
}

// Demographics godoc
// @Summary Gender-disaggregated demographics for a period
// @Tags Analytics
// @Produce json
// @Param periodId query string false "Period ID, defaults to the active period"
// @Success 200 {object} response.Envelope
// @Router /analytics/demographics [get]
func (h *AnalyticsHandler) Demographics(c *gin.Context) {
	snapshot, cached, err := h.service.Demographics(c.Request.Context(), c.Query("periodId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, map[string]interface{}{"cached": cached})
}

// System godoc
// @Summary System instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}
