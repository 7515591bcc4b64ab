package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/service"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
	"github.com/impulso-give/impulso-api/pkg/response"
)

// CampaignHandler exposes the campaign wizard and the public catalog.
type CampaignHandler struct {
	service *service.CampaignService
}

// NewCampaignHandler creates a new handler.
func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{service: svc}
}

// Create godoc
// @Summary Create draft campaign
// @Description Start a new campaign at wizard step 1
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param payload body dto.CreateCampaignRequest true "Campaign payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campaign payload"))
		return
	}

	campaign, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, campaign)
}

// Get godoc
// @Summary Get campaign
// @Description Returns one campaign; drafts are only visible to their owner
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaign, nil)
}

// Update godoc
// @Summary Update draft campaign
// @Description Save one wizard step of a draft campaign
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.UpdateCampaignRequest true "Wizard step payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /campaigns/{id} [put]
func (h *CampaignHandler) Update(c *gin.Context) {
	var req dto.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid campaign payload"))
		return
	}

	campaign, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaign, nil)
}

// Publish godoc
// @Summary Publish campaign
// @Description Move a completed draft into the public catalog
// @Tags Campaigns
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /campaigns/{id}/publish [post]
func (h *CampaignHandler) Publish(c *gin.Context) {
	campaign, err := h.service.Publish(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaign, nil)
}

// ListPublic godoc
// @Summary List published campaigns
// @Description Public campaign catalog with search and pagination
// @Tags Campaigns
// @Produce json
// @Param search query string false "Title search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /campaigns [get]
func (h *CampaignHandler) ListPublic(c *gin.Context) {
	campaigns, err := h.service.ListPublic(c.Request.Context(), campaignQueryFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaigns, nil)
}

// ListMine godoc
// @Summary List own campaigns
// @Description Returns the authenticated organizer's campaigns, drafts included
// @Tags Campaigns
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /campaigns/mine [get]
func (h *CampaignHandler) ListMine(c *gin.Context) {
	campaigns, err := h.service.ListMine(c.Request.Context(), campaignQueryFromContext(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaigns, nil)
}

// ListUnverified godoc
// @Summary List campaigns pending verification
// @Description Returns the organizer's campaigns that have not passed document review yet
// @Tags Campaigns
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /campaigns/unverified [get]
func (h *CampaignHandler) ListUnverified(c *gin.Context) {
	campaigns, err := h.service.ListUnverifiedMine(c.Request.Context(), campaignQueryFromContext(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, campaigns, nil)
}

func campaignQueryFromContext(c *gin.Context) dto.CampaignQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return dto.CampaignQuery{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
}
