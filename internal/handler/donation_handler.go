package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	"github.com/impulso-give/impulso-api/internal/service"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
	"github.com/impulso-give/impulso-api/pkg/response"
)

// DonationHandler exposes checkout recording and receipt download.
type DonationHandler struct {
	service *service.DonationService
}

// NewDonationHandler constructs the handler.
func NewDonationHandler(svc *service.DonationService) *DonationHandler {
	return &DonationHandler{service: svc}
}

// Create godoc
// @Summary Record donation
// @Description Record a completed checkout; the PDF receipt is rendered asynchronously
// @Tags Donations
// @Accept json
// @Produce json
// @Param payload body dto.CreateDonationRequest true "Donation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /donations [post]
func (h *DonationHandler) Create(c *gin.Context) {
	var req dto.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid donation payload"))
		return
	}

	donation, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, donation)
}

// Receipt godoc
// @Summary Get receipt link
// @Description Returns a signed, expiring download URL once the receipt is rendered
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /donations/{id}/receipt [get]
func (h *DonationHandler) Receipt(c *gin.Context) {
	res, err := h.service.ReceiptURL(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// DownloadReceipt godoc
// @Summary Download receipt PDF
// @Description Streams the receipt; the token comes from the receipt link endpoint
// @Tags Donations
// @Produce application/pdf
// @Param id path string true "Donation ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /donations/{id}/receipt/download [get]
func (h *DonationHandler) DownloadReceipt(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "download token required"))
		return
	}

	download, err := h.service.DownloadReceipt(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
	c.Header("Content-Length", strconv.FormatInt(download.SizeBytes, 10))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, download.File)
}

// ListByCampaign godoc
// @Summary List campaign donations
// @Description Returns a campaign's donations; restricted to its organizer and admins
// @Tags Donations
// @Produce json
// @Param id path string true "Campaign ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /campaigns/{id}/donations [get]
func (h *DonationHandler) ListByCampaign(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	donations, total, err := h.service.ListByCampaign(c.Request.Context(), c.Param("id"), models.DonationFilter{
		Limit:  limit,
		Offset: offset,
	}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{PageSize: limit, TotalCount: total}
	if limit > 0 {
		pagination.Page = offset/limit + 1
	}
	response.JSON(c, http.StatusOK, donations, pagination)
}
