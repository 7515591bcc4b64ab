package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	"github.com/impulso-give/impulso-api/internal/service"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
	"github.com/impulso-give/impulso-api/pkg/response"
)

type verificationService interface {
	Status(ctx context.Context, campaignID string, actor *models.JWTClaims) (*models.VerificationRequest, error)
	Submit(ctx context.Context, req dto.SubmitVerificationRequest, actor *models.JWTClaims) (*models.VerificationRequest, error)
}

type evidenceService interface {
	UploadBatch(ctx context.Context, campaignID string, uploads []service.EvidenceUpload, actor *models.JWTClaims) ([]dto.EvidenceResult, error)
}

// VerificationHandler exposes the organizer side of the verification flow.
type VerificationHandler struct {
	verification verificationService
	evidence     evidenceService
}

// NewVerificationHandler constructs the handler.
func NewVerificationHandler(verification verificationService, evidence evidenceService) *VerificationHandler {
	return &VerificationHandler{verification: verification, evidence: evidence}
}

// Status godoc
// @Summary Get verification status
// @Description Returns the campaign's verification request, or an unverified placeholder
// @Tags Verification
// @Produce json
// @Param id path string true "Campaign ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /campaigns/{id}/verification [get]
func (h *VerificationHandler) Status(c *gin.Context) {
	record, err := h.verification.Status(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// Submit godoc
// @Summary Submit verification request
// @Description Submit identity evidence for review; moves the campaign to pending
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Campaign ID"
// @Param payload body dto.SubmitVerificationRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /campaigns/{id}/verification [post]
func (h *VerificationHandler) Submit(c *gin.Context) {
	var req dto.SubmitVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verification payload"))
		return
	}
	req.CampaignID = c.Param("id")

	record, err := h.verification.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// UploadEvidence godoc
// @Summary Upload evidence files
// @Description Upload identity or supporting documents; files are processed in submission order
// @Tags Verification
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Campaign ID"
// @Param files formData file true "Evidence files"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /campaigns/{id}/verification/evidence [post]
func (h *VerificationHandler) UploadEvidence(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form required"))
		return
	}

	var uploads []service.EvidenceUpload
	var closers []io.Closer
	defer func() {
		for _, closer := range closers {
			closer.Close()
		}
	}()

	// Form fields are a map; sort the slots so the batch keeps a stable order.
	slots := make([]string, 0, len(form.File))
	for slot := range form.File {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	for _, slot := range slots {
		for _, header := range form.File[slot] {
			upload, src, openErr := evidenceUploadFromHeader(slot, header)
			if openErr != nil {
				response.Error(c, openErr)
				return
			}
			if src != nil {
				closers = append(closers, src)
			}
			uploads = append(uploads, upload)
		}
	}
	if len(uploads) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one file is required"))
		return
	}

	results, err := h.evidence.UploadBatch(c.Request.Context(), c.Param("id"), uploads, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results, nil)
}

func evidenceUploadFromHeader(slot string, header *multipart.FileHeader) (service.EvidenceUpload, io.Closer, error) {
	src, err := header.Open()
	if err != nil {
		return service.EvidenceUpload{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		src.Close()
		if readErr != nil {
			return service.EvidenceUpload{}, nil, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file")
		}
		reader = bytes.NewReader(buf)
		src = nil
	}

	return service.EvidenceUpload{
		Slot:     slot,
		Filename: header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Content:  reader,
	}, src, nil
}
