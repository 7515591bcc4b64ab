package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
	"github.com/impulso-give/impulso-api/pkg/response"
)

type reviewService interface {
	List(ctx context.Context, query dto.ReviewQuery, actor *models.JWTClaims) ([]models.VerificationRequestSummary, error)
	GetBundle(ctx context.Context, campaignID string, actor *models.JWTClaims) (*dto.EvidenceBundle, error)
	Decide(ctx context.Context, req dto.ReviewDecisionRequest, actor *models.JWTClaims) (*models.VerificationRequest, error)
	ExportCSV(ctx context.Context, query dto.ReviewQuery, actor *models.JWTClaims) ([]byte, string, error)
}

// VerificationReviewHandler exposes the admin review dashboard endpoints.
type VerificationReviewHandler struct {
	service reviewService
}

// NewVerificationReviewHandler constructs the handler.
func NewVerificationReviewHandler(svc reviewService) *VerificationReviewHandler {
	return &VerificationReviewHandler{service: svc}
}

// List godoc
// @Summary List verification requests
// @Description Admin dashboard listing with status filter and organizer search
// @Tags Admin
// @Produce json
// @Param status query string false "Comma separated status filter"
// @Param search query string false "Organizer or campaign search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/verification-requests [get]
func (h *VerificationReviewHandler) List(c *gin.Context) {
	requests, err := h.service.List(c.Request.Context(), reviewQueryFromContext(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, nil)
}

// GetBundle godoc
// @Summary Get evidence bundle
// @Description Everything the reviewer needs for one request: record, campaign, organizer, documents
// @Tags Admin
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/verification-requests/{id} [get]
func (h *VerificationReviewHandler) GetBundle(c *gin.Context) {
	bundle, err := h.service.GetBundle(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, bundle, nil)
}

// Decide godoc
// @Summary Decide verification request
// @Description Approve, reject, or send an approved campaign back to review
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.ReviewDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/verification-requests/{id}/status [put]
func (h *VerificationReviewHandler) Decide(c *gin.Context) {
	var req dto.ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	req.CampaignID = c.Param("id")

	record, err := h.service.Decide(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// ExportCSV godoc
// @Summary Export verification requests
// @Description Download the filtered request list as CSV
// @Tags Admin
// @Produce text/csv
// @Param status query string false "Comma separated status filter"
// @Param search query string false "Organizer or campaign search"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /admin/verification-requests/export [get]
func (h *VerificationReviewHandler) ExportCSV(c *gin.Context) {
	data, filename, err := h.service.ExportCSV(c.Request.Context(), reviewQueryFromContext(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func reviewQueryFromContext(c *gin.Context) dto.ReviewQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return dto.ReviewQuery{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
}
