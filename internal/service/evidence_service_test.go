package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type objectStoreStub struct {
	keys    []string
	failAll bool
}

func (s *objectStoreStub) SaveStream(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if s.failAll {
		return "", fmt.Errorf("backend down")
	}
	s.keys = append(s.keys, key)
	return "https://cdn.impulso.test/" + key, nil
}

func (s *objectStoreStub) Delete(ctx context.Context, key string) error { return nil }

func (s *objectStoreStub) URL(key string) string { return "https://cdn.impulso.test/" + key }

// jpegUpload fabricates a payload http.DetectContentType recognises as JPEG.
func jpegUpload(slot, filename string) EvidenceUpload {
	payload := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x01}, 64)...)
	return EvidenceUpload{
		Slot:     slot,
		Filename: filename,
		Size:     int64(len(payload)),
		MimeType: "image/jpeg",
		Content:  bytes.NewReader(payload),
	}
}

func TestEvidenceServiceUploadBatchFIFO(t *testing.T) {
	store := &objectStoreStub{}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewEvidenceService(campaigns, store, &auditStub{}, nil, EvidenceServiceConfig{})

	uploads := []EvidenceUpload{
		jpegUpload("id_document_front", "front.jpg"),
		jpegUpload("id_document_back", "back.jpg"),
		jpegUpload("supporting_1", "diagnosis.jpg"),
	}
	results, err := svc.UploadBatch(context.Background(), "camp-1", uploads, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results and stored objects keep submission order.
	require.Equal(t, "id_document_front", results[0].Slot)
	require.Equal(t, "id_document_back", results[1].Slot)
	require.Equal(t, "supporting_1", results[2].Slot)
	require.Len(t, store.keys, 3)
	for i, result := range results {
		require.False(t, result.Skipped)
		require.Equal(t, "https://cdn.impulso.test/"+store.keys[i], result.URL)
		require.Equal(t, "image/jpeg", result.MimeType)
	}
}

func TestEvidenceServiceSkipsDisallowedMime(t *testing.T) {
	store := &objectStoreStub{}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewEvidenceService(campaigns, store, &auditStub{}, nil, EvidenceServiceConfig{})

	payload := []byte("MZ\x90\x00 executable bytes")
	uploads := []EvidenceUpload{
		jpegUpload("id_document_front", "front.jpg"),
		{
			Slot:     "supporting_1",
			Filename: "malware.exe",
			Size:     int64(len(payload)),
			MimeType: "application/x-msdownload",
			Content:  bytes.NewReader(payload),
		},
		jpegUpload("id_document_back", "back.jpg"),
	}
	results, err := svc.UploadBatch(context.Background(), "camp-1", uploads, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.False(t, results[0].Skipped)
	require.True(t, results[1].Skipped)
	require.Contains(t, results[1].Error, "not allowed")
	// The batch continues past the rejected file.
	require.False(t, results[2].Skipped)
	require.Len(t, store.keys, 2)
}

func TestEvidenceServiceEnforcesSizeLimit(t *testing.T) {
	store := &objectStoreStub{}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewEvidenceService(campaigns, store, &auditStub{}, nil, EvidenceServiceConfig{MaxFileSize: 16})

	upload := jpegUpload("id_document_front", "front.jpg")
	results, err := svc.UploadBatch(context.Background(), "camp-1", []EvidenceUpload{upload}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.True(t, results[0].Skipped)
	require.Contains(t, results[0].Error, "exceeds")
	require.Empty(t, store.keys)
}

func TestEvidenceServiceDetectsMimeWhenDeclaredOctetStream(t *testing.T) {
	store := &objectStoreStub{}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewEvidenceService(campaigns, store, &auditStub{}, nil, EvidenceServiceConfig{})

	payload := append([]byte("%PDF-1.4"), bytes.Repeat([]byte{0x20}, 32)...)
	upload := EvidenceUpload{
		Slot:     "supporting_1",
		Filename: "receipt",
		Size:     int64(len(payload)),
		MimeType: "application/octet-stream",
		Content:  bytes.NewReader(payload),
	}
	results, err := svc.UploadBatch(context.Background(), "camp-1", []EvidenceUpload{upload}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.False(t, results[0].Skipped)
	require.Equal(t, "application/pdf", results[0].MimeType)
}

func TestEvidenceServiceUploadFailureReported(t *testing.T) {
	store := &objectStoreStub{failAll: true}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewEvidenceService(campaigns, store, &auditStub{}, nil, EvidenceServiceConfig{})

	results, err := svc.UploadBatch(context.Background(), "camp-1", []EvidenceUpload{jpegUpload("id_document_front", "front.jpg")}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.True(t, results[0].Skipped)
	require.Equal(t, appErrors.ErrUploadFailed.Message, results[0].Error)
}

func TestEvidenceServiceForbidsForeignCampaign(t *testing.T) {
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewEvidenceService(campaigns, &objectStoreStub{}, &auditStub{}, nil, EvidenceServiceConfig{})

	_, err := svc.UploadBatch(context.Background(), "camp-1", []EvidenceUpload{jpegUpload("x", "x.jpg")}, organizerClaims("org-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
