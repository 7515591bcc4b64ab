package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type reviewUserStub struct {
	users map[string]*models.User
}

func (s *reviewUserStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func newReviewFixture() (*verificationRepoStub, *campaignResolverStub, *notifierStub, *VerificationReviewService) {
	repo := newVerificationRepoStub()
	campaigns := newCampaignResolverStub(&models.Campaign{ID: "camp-1", OrganizerID: "org-1", Title: "Ayuda para Sofía"})
	users := &reviewUserStub{users: map[string]*models.User{
		"org-1": {ID: "org-1", Email: "maria@impulso.test", FullName: "María Delgado", Role: models.RoleOrganizer},
	}}
	notifier := &notifierStub{}
	svc := NewVerificationReviewService(repo, campaigns, users, &auditStub{}, notifier, nil)
	return repo, campaigns, notifier, svc
}

func TestReviewServiceApprove(t *testing.T) {
	repo, campaigns, notifier, svc := newReviewFixture()
	now := time.Now().UTC()
	repo.records["camp-1"] = &models.VerificationRequest{
		CampaignID:  "camp-1",
		Status:      models.VerificationStatusPending,
		RequestDate: &now,
	}

	record, err := svc.Decide(context.Background(), dto.ReviewDecisionRequest{
		CampaignID: "camp-1",
		Status:     models.VerificationStatusApproved,
	}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusApproved, record.Status)
	require.NotNil(t, record.ApprovalDate)
	require.Equal(t, models.VerificationStatusApproved, campaigns.mirrored["camp-1"])
	require.Len(t, notifier.sent, 1)
	require.Equal(t, models.NotificationVerificationApproved, notifier.sent[0].Type)
}

func TestReviewServiceRejectRequiresNotes(t *testing.T) {
	repo, _, _, svc := newReviewFixture()
	repo.records["camp-1"] = &models.VerificationRequest{CampaignID: "camp-1", Status: models.VerificationStatusPending}

	_, err := svc.Decide(context.Background(), dto.ReviewDecisionRequest{
		CampaignID: "camp-1",
		Status:     models.VerificationStatusRejected,
	}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	record, err := svc.Decide(context.Background(), dto.ReviewDecisionRequest{
		CampaignID: "camp-1",
		Status:     models.VerificationStatusRejected,
		Notes:      "documento ilegible",
	}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusRejected, record.Status)
	require.Equal(t, "documento ilegible", *record.Notes)
}

func TestReviewServiceRevokeKeepsApprovalDate(t *testing.T) {
	repo, campaigns, notifier, svc := newReviewFixture()
	approvedAt := time.Now().UTC()
	repo.records["camp-1"] = &models.VerificationRequest{
		CampaignID:   "camp-1",
		Status:       models.VerificationStatusApproved,
		ApprovalDate: &approvedAt,
	}

	record, err := svc.Decide(context.Background(), dto.ReviewDecisionRequest{
		CampaignID: "camp-1",
		Status:     models.VerificationStatusPending,
		Notes:      "revisión adicional",
	}, adminClaims())
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusPending, record.Status)
	// The record was most recently approved, so the approval date stays on
	// record; only a later approve overwrites it.
	require.NotNil(t, record.ApprovalDate)
	require.Equal(t, approvedAt, *record.ApprovalDate)
	require.Equal(t, models.VerificationStatusPending, campaigns.mirrored["camp-1"])
	require.Equal(t, models.NotificationVerificationRevoked, notifier.sent[0].Type)
}

func TestReviewServiceInvalidTransition(t *testing.T) {
	repo, _, _, svc := newReviewFixture()
	repo.records["camp-1"] = &models.VerificationRequest{CampaignID: "camp-1", Status: models.VerificationStatusRejected}

	// Approve requires a pending request.
	_, err := svc.Decide(context.Background(), dto.ReviewDecisionRequest{
		CampaignID: "camp-1",
		Status:     models.VerificationStatusApproved,
	}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrTransitionRejected.Code, appErrors.FromError(err).Code)

	// Revoke requires an approved request.
	_, err = svc.Decide(context.Background(), dto.ReviewDecisionRequest{
		CampaignID: "camp-1",
		Status:     models.VerificationStatusPending,
	}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrTransitionRejected.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceDecideUnknownCampaign(t *testing.T) {
	_, _, _, svc := newReviewFixture()
	_, err := svc.Decide(context.Background(), dto.ReviewDecisionRequest{
		CampaignID: "camp-unknown",
		Status:     models.VerificationStatusApproved,
	}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceForbidsNonAdmin(t *testing.T) {
	_, _, _, svc := newReviewFixture()
	_, err := svc.List(context.Background(), dto.ReviewQuery{}, organizerClaims("org-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceGetBundleKinds(t *testing.T) {
	repo, _, _, svc := newReviewFixture()
	repo.records["camp-1"] = &models.VerificationRequest{
		CampaignID:          "camp-1",
		Status:              models.VerificationStatusPending,
		IDDocumentFrontURL:  "https://cdn.impulso.test/front.jpg",
		IDDocumentFrontMime: "image/jpeg",
		IDDocumentBackURL:   "https://cdn.impulso.test/back.jpg",
		IDDocumentBackMime:  "image/jpeg",
		SupportingDocs: models.EvidenceList{
			{URL: "https://cdn.impulso.test/diagnosis.pdf", MimeType: "application/pdf"},
		},
	}

	bundle, err := svc.GetBundle(context.Background(), "camp-1", adminClaims())
	require.NoError(t, err)
	require.Equal(t, "María Delgado", bundle.Organizer.FullName)
	require.Len(t, bundle.Documents, 3)
	require.Equal(t, "image", bundle.Documents[0].Kind)
	require.Equal(t, "image", bundle.Documents[1].Kind)
	require.Equal(t, "file", bundle.Documents[2].Kind)
}

func TestReviewServiceStatusFilterParsing(t *testing.T) {
	repo, _, _, svc := newReviewFixture()
	repo.records["camp-1"] = &models.VerificationRequest{CampaignID: "camp-1", Status: models.VerificationStatusPending}
	repo.records["camp-2"] = &models.VerificationRequest{CampaignID: "camp-2", Status: models.VerificationStatusApproved}

	list, err := svc.List(context.Background(), dto.ReviewQuery{Status: "pending"}, adminClaims())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "camp-1", list[0].CampaignID)

	_, err = svc.List(context.Background(), dto.ReviewQuery{Status: "bogus"}, adminClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceExportCSV(t *testing.T) {
	repo, _, _, svc := newReviewFixture()
	now := time.Now().UTC()
	notes := "ok"
	repo.records["camp-1"] = &models.VerificationRequest{
		CampaignID:   "camp-1",
		Status:       models.VerificationStatusApproved,
		RequestDate:  &now,
		ApprovalDate: &now,
		Notes:        &notes,
	}

	payload, filename, err := svc.ExportCSV(context.Background(), dto.ReviewQuery{}, adminClaims())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filename, "verification-requests-"))
	content := string(payload)
	require.Contains(t, content, "campaign_id")
	require.Contains(t, content, "camp-1")
	require.Contains(t, content, "approved")
}
