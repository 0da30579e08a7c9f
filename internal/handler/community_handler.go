package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gadconnect/gadconnect-api/internal/models"
	"github.com/gadconnect/gadconnect-api/internal/service"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
	"github.com/gadconnect/gadconnect-api/pkg/response"
)

// CommunityHandler exposes community member endpoints.
type CommunityHandler struct {
	service *service.CommunityService
}

// NewCommunityHandler constructs a community member handler.
func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: svc}
}

// List godoc
// @Summary List community members
// @Tags CommunityMembers
// @Produce json
// @Param search query string false "Search by name"
// @Param gender query string false "Filter by gender"
// @Param barangay query string false "Filter by barangay"
// @Param periodId query string false "Filter by academic period"
// @Param includeArchived query bool false "Include archived records"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /community-members [get]
func (h *CommunityHandler) List(c *gin.Context) {
	filter := models.CommunityFilter{
		Search:          c.Query("search"),
		Gender:          c.Query("gender"),
		Barangay:        c.Query("barangay"),
		PeriodID:        c.Query("periodId"),
		IncludeArchived: boolQuery(c, "includeArchived"),
	}
	filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder = pageParams(c)

	members, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, members, pagination)
}

// Get godoc
// @Summary Get a community member
// @Tags CommunityMembers
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /community-members/{id} [get]
func (h *CommunityHandler) Get(c *gin.Context) {
	member, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member)
}

// Create godoc
// @Summary Register a community member
// @Tags CommunityMembers
// @Accept json
// @Produce json
// @Param payload body service.CommunityMemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Router /community-members [post]
func (h *CommunityHandler) Create(c *gin.Context) {
	var req service.CommunityMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update a community member
// @Tags CommunityMembers
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body service.CommunityMemberRequest true "Member payload"
// @Success 200 {object} response.Envelope
// @Router /community-members/{id} [put]
func (h *CommunityHandler) Update(c *gin.Context) {
	var req service.CommunityMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member)
}

// Archive godoc
// @Summary Archive a community member
// @Tags CommunityMembers
// @Produce json
// @Param id path string true "Member ID"
// @Success 204
// @Router /community-members/{id} [delete]
func (h *CommunityHandler) Archive(c *gin.Context) {
	if err := h.service.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
