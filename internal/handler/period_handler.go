package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gadconnect/gadconnect-api/internal/models"
	"github.com/gadconnect/gadconnect-api/internal/service"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
	"github.com/gadconnect/gadconnect-api/pkg/response"
)

// PeriodHandler exposes academic period endpoints.
type PeriodHandler struct {
	service *service.PeriodService
}

// NewPeriodHandler constructs a period handler.
func NewPeriodHandler(svc *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// List godoc
// @Summary List academic periods
// @Tags AcademicPeriods
// @Produce json
// @Param schoolYear query string false "Filter by school year"
// @Param type query string false "Filter by period type"
// @Param isActive query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /academic-periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	var filter models.PeriodFilter
	filter.SchoolYear = c.Query("schoolYear")
	if periodType := c.Query("type"); periodType != "" {
		filter.PeriodType = models.PeriodType(periodType)
	}
	if isActive := c.Query("isActive"); isActive != "" {
		if val, err := strconv.ParseBool(isActive); err == nil {
			filter.IsActive = &val
		}
	}
	filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder = pageParams(c)

	periods, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, periods, pagination)
}

// GetActive godoc
// @Summary Get the active academic period
// @Tags AcademicPeriods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-periods/active [get]
func (h *PeriodHandler) GetActive(c *gin.Context) {
	period, err := h.service.GetActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period)
}

// Get godoc
// @Summary Get an academic period
// @Tags AcademicPeriods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /academic-periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period)
}

// Create godoc
// @Summary Create academic period
// @Tags AcademicPeriods
// @Accept json
// @Produce json
// @Param payload body service.PeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /academic-periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req service.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update academic period
// @Tags AcademicPeriods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body service.PeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /academic-periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	var req service.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period)
}

// Validate godoc
// @Summary Validate a proposed academic period
// @Description Returns every rule violation without persisting anything.
// @Tags AcademicPeriods
// @Accept json
// @Produce json
// @Param payload body service.PeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /academic-periods/validate [post]
func (h *PeriodHandler) Validate(c *gin.Context) {
	var req service.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	problems := h.service.Validate(req)
	if problems == nil {
		problems = []string{}
	}

	duplicate := &models.DuplicateCheck{}
	if len(problems) == 0 {
		var err error
		duplicate, err = h.service.CheckDuplicate(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	response.JSON(c, http.StatusOK, gin.H{
		"valid":     len(problems) == 0 && !duplicate.IsDuplicate,
		"errors":    problems,
		"duplicate": duplicate,
	})
}

// Transition godoc
// @Summary Transition to a new academic period
// @Description Creates and activates the new period, deactivates the previous one, and archives its records.
// @Tags AcademicPeriods
// @Accept json
// @Produce json
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Router /academic-periods/transition [post]
func (h *PeriodHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ActorID = actorID(c)

	result, err := h.service.Transition(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
