package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	"github.com/impulso-give/impulso-api/internal/repository"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type verificationRepoStub struct {
	records map[string]*models.VerificationRequest
}

func newVerificationRepoStub() *verificationRepoStub {
	return &verificationRepoStub{records: make(map[string]*models.VerificationRequest)}
}

func (s *verificationRepoStub) GetByCampaignID(ctx context.Context, campaignID string) (*models.VerificationRequest, error) {
	if record, ok := s.records[campaignID]; ok {
		copy := *record
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *verificationRepoStub) Upsert(ctx context.Context, req *models.VerificationRequest) error {
	copy := *req
	s.records[req.CampaignID] = &copy
	return nil
}

func (s *verificationRepoStub) UpdateStatus(ctx context.Context, params repository.UpdateVerificationStatusParams) error {
	record, ok := s.records[params.CampaignID]
	if !ok {
		return sql.ErrNoRows
	}
	allowed := len(params.AllowedFrom) == 0
	for _, status := range params.AllowedFrom {
		if record.Status == status {
			allowed = true
		}
	}
	if !allowed {
		return sql.ErrNoRows
	}
	record.Status = params.Status
	record.ReviewedBy = &params.ReviewedBy
	if params.Notes != nil {
		record.Notes = params.Notes
	}
	if params.ApprovalDate != nil {
		record.ApprovalDate = params.ApprovalDate
	}
	return nil
}

func (s *verificationRepoStub) List(ctx context.Context, filter models.VerificationFilter) ([]models.VerificationRequestSummary, error) {
	result := make([]models.VerificationRequestSummary, 0, len(s.records))
	for _, record := range s.records {
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				if record.Status == status {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, models.VerificationRequestSummary{
			CampaignID:   record.CampaignID,
			Status:       record.Status,
			RequestDate:  record.RequestDate,
			ApprovalDate: record.ApprovalDate,
			Notes:        record.Notes,
		})
	}
	return result, nil
}

type campaignResolverStub struct {
	campaigns map[string]*models.Campaign
	mirrored  map[string]models.VerificationStatus
}

func newCampaignResolverStub(campaigns ...*models.Campaign) *campaignResolverStub {
	stub := &campaignResolverStub{
		campaigns: make(map[string]*models.Campaign),
		mirrored:  make(map[string]models.VerificationStatus),
	}
	for _, campaign := range campaigns {
		stub.campaigns[campaign.ID] = campaign
	}
	return stub
}

func (s *campaignResolverStub) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	if campaign, ok := s.campaigns[id]; ok {
		copy := *campaign
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *campaignResolverStub) SetVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error {
	if _, ok := s.campaigns[id]; !ok {
		return sql.ErrNoRows
	}
	s.mirrored[id] = status
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type notifierStub struct {
	sent []models.Notification
}

func (n *notifierStub) Dispatch(ctx context.Context, notification models.Notification) error {
	n.sent = append(n.sent, notification)
	return nil
}

func organizerClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleOrganizer}
}

func validSubmission(campaignID string) dto.SubmitVerificationRequest {
	return dto.SubmitVerificationRequest{
		CampaignID:          campaignID,
		IDDocumentFrontURL:  "https://cdn.impulso.test/evidence/front.jpg",
		IDDocumentFrontMime: "image/jpeg",
		IDDocumentBackURL:   "https://cdn.impulso.test/evidence/back.jpg",
		IDDocumentBackMime:  "image/jpeg",
		CampaignStory:       "Historia de la campaña",
	}
}

func TestVerificationServiceStatusSynthesizesUnverified(t *testing.T) {
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewVerificationService(newVerificationRepoStub(), campaigns, &auditStub{}, &notifierStub{}, nil, VerificationServiceConfig{})

	record, err := svc.Status(context.Background(), "camp-1", organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusUnverified, record.Status)
	require.Nil(t, record.RequestDate)
}

func TestVerificationServiceSubmit(t *testing.T) {
	repo := newVerificationRepoStub()
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1", Title: "Ayuda para Sofía"})
	audit := &auditStub{}
	notifier := &notifierStub{}
	svc := NewVerificationService(repo, campaigns, audit, notifier, nil, VerificationServiceConfig{})

	record, err := svc.Submit(context.Background(), validSubmission("camp-1"), organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusPending, record.Status)
	require.NotNil(t, record.RequestDate)
	require.Equal(t, models.VerificationStatusPending, campaigns.mirrored["camp-1"])
	require.Len(t, audit.logs, 1)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, models.NotificationVerificationReceived, notifier.sent[0].Type)
}

func TestVerificationServiceSubmitWhilePendingRejected(t *testing.T) {
	repo := newVerificationRepoStub()
	repo.records["camp-1"] = &models.VerificationRequest{CampaignID: "camp-1", Status: models.VerificationStatusPending}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewVerificationService(repo, campaigns, &auditStub{}, &notifierStub{}, nil, VerificationServiceConfig{})

	_, err := svc.Submit(context.Background(), validSubmission("camp-1"), organizerClaims("org-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrTransitionRejected.Code, appErr.Code)
}

func TestVerificationServiceSubmitWhenApprovedRejected(t *testing.T) {
	repo := newVerificationRepoStub()
	repo.records["camp-1"] = &models.VerificationRequest{CampaignID: "camp-1", Status: models.VerificationStatusApproved}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewVerificationService(repo, campaigns, &auditStub{}, &notifierStub{}, nil, VerificationServiceConfig{})

	_, err := svc.Submit(context.Background(), validSubmission("camp-1"), organizerClaims("org-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrTransitionRejected.Code, appErrors.FromError(err).Code)
}

func TestVerificationServiceResubmissionKeepsNotes(t *testing.T) {
	repo := newVerificationRepoStub()
	notes := "documento ilegible"
	requested := time.Now().Add(-48 * time.Hour).UTC()
	repo.records["camp-1"] = &models.VerificationRequest{
		CampaignID:  "camp-1",
		Status:      models.VerificationStatusRejected,
		Notes:       &notes,
		RequestDate: &requested,
	}
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewVerificationService(repo, campaigns, &auditStub{}, &notifierStub{}, nil, VerificationServiceConfig{})

	record, err := svc.Submit(context.Background(), validSubmission("camp-1"), organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusPending, record.Status)
	require.NotNil(t, record.Notes)
	require.Equal(t, notes, *record.Notes)
	require.True(t, record.RequestDate.After(requested))
}

func TestVerificationServiceSubmitRequiresBothDocuments(t *testing.T) {
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewVerificationService(newVerificationRepoStub(), campaigns, &auditStub{}, &notifierStub{}, nil, VerificationServiceConfig{})

	req := validSubmission("camp-1")
	req.IDDocumentBackURL = ""
	_, err := svc.Submit(context.Background(), req, organizerClaims("org-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestVerificationServiceForbidsForeignCampaign(t *testing.T) {
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1"})
	svc := NewVerificationService(newVerificationRepoStub(), campaigns, &auditStub{}, &notifierStub{}, nil, VerificationServiceConfig{})

	_, err := svc.Status(context.Background(), "camp-1", organizerClaims("org-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
