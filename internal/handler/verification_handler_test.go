package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/middleware"
	"github.com/impulso-give/impulso-api/internal/models"
	"github.com/impulso-give/impulso-api/internal/service"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type fakeVerificationSrv struct {
	record     *models.VerificationRequest
	err        error
	lastSubmit dto.SubmitVerificationRequest
}

func (f *fakeVerificationSrv) Status(context.Context, string, *models.JWTClaims) (*models.VerificationRequest, error) {
	return f.record, f.err
}

func (f *fakeVerificationSrv) Submit(_ context.Context, req dto.SubmitVerificationRequest, _ *models.JWTClaims) (*models.VerificationRequest, error) {
	f.lastSubmit = req
	return f.record, f.err
}

type fakeEvidenceSrv struct {
	results     []dto.EvidenceResult
	err         error
	lastUploads []service.EvidenceUpload
}

func (f *fakeEvidenceSrv) UploadBatch(_ context.Context, _ string, uploads []service.EvidenceUpload, _ *models.JWTClaims) ([]dto.EvidenceResult, error) {
	f.lastUploads = uploads
	return f.results, f.err
}

func TestVerificationHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVerificationHandler(&fakeVerificationSrv{
		record: &models.VerificationRequest{CampaignID: "camp-1", Status: models.VerificationStatusUnverified},
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/campaigns/camp-1/verification", nil)
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "unverified", envelope.Data["status"])
}

func TestVerificationHandlerSubmitUsesPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeVerificationSrv{record: &models.VerificationRequest{CampaignID: "camp-1", Status: models.VerificationStatusPending}}
	handler := NewVerificationHandler(srv, nil)

	body := `{"campaignId":"spoofed","idDocumentFrontUrl":"http://x/front.jpg"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/campaigns/camp-1/verification", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}

	handler.Submit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "camp-1", srv.lastSubmit.CampaignID)
}

func TestVerificationHandlerSubmitInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVerificationHandler(&fakeVerificationSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/campaigns/camp-1/verification", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerificationHandlerSubmitConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVerificationHandler(&fakeVerificationSrv{err: appErrors.ErrTransitionRejected}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/campaigns/camp-1/verification", strings.NewReader(`{"campaignId":"camp-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}

	handler.Submit(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVerificationHandlerUploadEvidence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeEvidenceSrv{results: []dto.EvidenceResult{{Slot: "id_front", URL: "http://x/1.jpg"}}}
	handler := NewVerificationHandler(&fakeVerificationSrv{}, srv)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("id_front", "front.jpg")
	assert.NoError(t, err)
	_, _ = io.WriteString(part, "fake image bytes")
	assert.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/campaigns/camp-1/verification/evidence", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "org-1", Role: models.RoleOrganizer})

	handler.UploadEvidence(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.Len(t, srv.lastUploads, 1) {
		assert.Equal(t, "id_front", srv.lastUploads[0].Slot)
		assert.Equal(t, "front.jpg", srv.lastUploads[0].Filename)
	}
}

func TestVerificationHandlerUploadEvidenceRequiresFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVerificationHandler(&fakeVerificationSrv{}, &fakeEvidenceSrv{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	assert.NoError(t, writer.WriteField("note", "no files here"))
	assert.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/campaigns/camp-1/verification/evidence", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Params = gin.Params{{Key: "id", Value: "camp-1"}}

	handler.UploadEvidence(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
