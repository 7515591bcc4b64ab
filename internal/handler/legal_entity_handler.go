package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	"github.com/impulso-give/impulso-api/internal/service"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
	"github.com/impulso-give/impulso-api/pkg/response"
)

// LegalEntityHandler manages the legal entity registry endpoints.
type LegalEntityHandler struct {
	service *service.LegalEntityService
}

// NewLegalEntityHandler constructs the handler.
func NewLegalEntityHandler(svc *service.LegalEntityService) *LegalEntityHandler {
	return &LegalEntityHandler{service: svc}
}

// Create godoc
// @Summary Register legal entity
// @Tags LegalEntities
// @Accept json
// @Produce json
// @Param payload body dto.CreateLegalEntityRequest true "Entity payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /legal-entities [post]
func (h *LegalEntityHandler) Create(c *gin.Context) {
	var req dto.CreateLegalEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entity payload"))
		return
	}

	entity, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entity)
}

// Get godoc
// @Summary Get legal entity
// @Tags LegalEntities
// @Produce json
// @Param id path string true "Entity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /legal-entities/{id} [get]
func (h *LegalEntityHandler) Get(c *gin.Context) {
	entity, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entity, nil)
}

// Update godoc
// @Summary Update legal entity
// @Tags LegalEntities
// @Accept json
// @Produce json
// @Param id path string true "Entity ID"
// @Param payload body dto.UpdateLegalEntityRequest true "Entity payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /legal-entities/{id} [put]
func (h *LegalEntityHandler) Update(c *gin.Context) {
	var req dto.UpdateLegalEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entity payload"))
		return
	}

	entity, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entity, nil)
}

// Deactivate godoc
// @Summary Deactivate legal entity
// @Description Soft delete; campaigns keep their historical reference
// @Tags LegalEntities
// @Produce json
// @Param id path string true "Entity ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /legal-entities/{id} [delete]
func (h *LegalEntityHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// List godoc
// @Summary List legal entities
// @Tags LegalEntities
// @Produce json
// @Param type query string false "Entity type"
// @Param country query string false "ISO country code"
// @Param active query bool false "Active filter"
// @Param search query string false "Name or tax id search"
// @Success 200 {object} response.Envelope
// @Router /legal-entities [get]
func (h *LegalEntityHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	filter := models.LegalEntityFilter{
		Country: strings.ToUpper(strings.TrimSpace(c.Query("country"))),
		Search:  strings.TrimSpace(c.Query("search")),
		Limit:   limit,
		Offset:  offset,
	}
	if entityType := c.Query("type"); entityType != "" {
		filter.Type = models.LegalEntityType(strings.ToUpper(entityType))
	}
	if active := c.Query("active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be true or false"))
			return
		}
		filter.Active = &parsed
	}

	entities, total, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{PageSize: limit, TotalCount: total}
	if limit > 0 {
		pagination.Page = offset/limit + 1
	}
	response.JSON(c, http.StatusOK, entities, pagination)
}
