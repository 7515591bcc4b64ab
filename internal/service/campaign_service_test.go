package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type campaignStoreStub struct {
	campaigns map[string]*models.Campaign
	nextID    string
}

func newCampaignStoreStub(campaigns ...*models.Campaign) *campaignStoreStub {
	stub := &campaignStoreStub{campaigns: make(map[string]*models.Campaign), nextID: "camp-1"}
	for _, campaign := range campaigns {
		stub.campaigns[campaign.ID] = campaign
	}
	return stub
}

func (s *campaignStoreStub) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = s.nextID
	}
	clone := *campaign
	s.campaigns[campaign.ID] = &clone
	return nil
}

func (s *campaignStoreStub) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	if campaign, ok := s.campaigns[id]; ok {
		clone := *campaign
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (s *campaignStoreStub) Update(ctx context.Context, campaign *models.Campaign) error {
	if _, ok := s.campaigns[campaign.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *campaign
	s.campaigns[campaign.ID] = &clone
	return nil
}

func (s *campaignStoreStub) Publish(ctx context.Context, id string, publishedAt time.Time) error {
	campaign, ok := s.campaigns[id]
	if !ok || campaign.Status != models.CampaignStatusDraft {
		return sql.ErrNoRows
	}
	campaign.Status = models.CampaignStatusPublished
	campaign.PublishedAt = &publishedAt
	return nil
}

func (s *campaignStoreStub) SetVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error {
	campaign, ok := s.campaigns[id]
	if !ok {
		return sql.ErrNoRows
	}
	campaign.VerificationStatus = status
	return nil
}

func (s *campaignStoreStub) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	result := make([]models.Campaign, 0, len(s.campaigns))
	for _, campaign := range s.campaigns {
		if filter.OrganizerID != "" && campaign.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.Status != "" && campaign.Status != filter.Status {
			continue
		}
		if len(filter.VerificationStatuses) > 0 {
			matched := false
			for _, status := range filter.VerificationStatuses {
				if campaign.VerificationStatus == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, *campaign)
	}
	return result, nil
}

func draftCampaign() *models.Campaign {
	return &models.Campaign{
		ID:              "camp-1",
		OrganizerID:     "org-1",
		Title:           "Becas escolares",
		Summary:         "Apoyo a estudiantes",
		Story:           "Historia completa",
		Category:        "education",
		GoalAmountCents: 1000000,
		Currency:        "MXN",
		Status:          models.CampaignStatusDraft,
		WizardStep:      3,
	}
}

func TestCampaignServiceCreate(t *testing.T) {
	store := newCampaignStoreStub()
	svc := NewCampaignService(store, nil, nil, &auditStub{}, nil, 0)

	campaign, err := svc.Create(context.Background(), dto.CreateCampaignRequest{
		Title:           "Becas escolares",
		Category:        "education",
		GoalAmountCents: 1000000,
		Currency:        "mxn",
	}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, models.CampaignStatusDraft, campaign.Status)
	require.Equal(t, "MXN", campaign.Currency)
	require.Equal(t, 1, campaign.WizardStep)
	require.Equal(t, "org-1", campaign.OrganizerID)
}

func TestCampaignServiceCreateForbidsDonor(t *testing.T) {
	svc := NewCampaignService(newCampaignStoreStub(), nil, nil, &auditStub{}, nil, 0)
	_, err := svc.Create(context.Background(), dto.CreateCampaignRequest{
		Title: "x", Category: "x", GoalAmountCents: 1, Currency: "MXN",
	}, &models.JWTClaims{UserID: "don-1", Role: models.RoleDonor})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCampaignServiceUpdateWizardStep(t *testing.T) {
	store := newCampaignStoreStub(draftCampaign())
	svc := NewCampaignService(store, nil, nil, &auditStub{}, nil, 0)

	summary := "Resumen nuevo"
	updated, err := svc.Update(context.Background(), "camp-1", dto.UpdateCampaignRequest{
		WizardStep: 4,
		Summary:    &summary,
	}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, "Resumen nuevo", updated.Summary)
	require.Equal(t, 4, updated.WizardStep)
	// Untouched fields survive the partial update.
	require.Equal(t, "Becas escolares", updated.Title)

	// The wizard cursor never moves backwards.
	title := "Título editado"
	updated, err = svc.Update(context.Background(), "camp-1", dto.UpdateCampaignRequest{
		WizardStep: 2,
		Title:      &title,
	}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, 4, updated.WizardStep)
	require.Equal(t, "Título editado", updated.Title)
}

func TestCampaignServiceUpdatePublishedRejected(t *testing.T) {
	campaign := draftCampaign()
	campaign.Status = models.CampaignStatusPublished
	svc := NewCampaignService(newCampaignStoreStub(campaign), nil, nil, &auditStub{}, nil, 0)

	title := "x"
	_, err := svc.Update(context.Background(), "camp-1", dto.UpdateCampaignRequest{WizardStep: 1, Title: &title}, organizerClaims("org-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCampaignServicePublish(t *testing.T) {
	store := newCampaignStoreStub(draftCampaign())
	svc := NewCampaignService(store, nil, nil, &auditStub{}, nil, 0)

	campaign, err := svc.Publish(context.Background(), "camp-1", organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, models.CampaignStatusPublished, campaign.Status)
	require.NotNil(t, campaign.PublishedAt)
}

func TestCampaignServicePublishRequiresCompleteDraft(t *testing.T) {
	campaign := draftCampaign()
	campaign.Story = ""
	svc := NewCampaignService(newCampaignStoreStub(campaign), nil, nil, &auditStub{}, nil, 0)

	_, err := svc.Publish(context.Background(), "camp-1", organizerClaims("org-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCampaignServiceGetDraftVisibility(t *testing.T) {
	svc := NewCampaignService(newCampaignStoreStub(draftCampaign()), nil, nil, &auditStub{}, nil, 0)

	// The owner sees the draft.
	campaign, err := svc.Get(context.Background(), "camp-1", organizerClaims("org-1"))
	require.NoError(t, err)
	require.Equal(t, models.CampaignStatusDraft, campaign.Status)

	// Other users do not.
	_, err = svc.Get(context.Background(), "camp-1", organizerClaims("org-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Anonymous users do not either.
	_, err = svc.Get(context.Background(), "camp-1", nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestCampaignServiceListMine(t *testing.T) {
	other := draftCampaign()
	other.ID = "camp-2"
	other.OrganizerID = "org-2"
	svc := NewCampaignService(newCampaignStoreStub(draftCampaign(), other), nil, nil, &auditStub{}, nil, 0)

	list, err := svc.ListMine(context.Background(), dto.CampaignQuery{}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "camp-1", list[0].ID)
}

func TestCampaignServiceListUnverifiedMine(t *testing.T) {
	eligible := draftCampaign()
	eligible.VerificationStatus = models.VerificationStatusUnverified
	rejected := draftCampaign()
	rejected.ID = "camp-2"
	rejected.VerificationStatus = models.VerificationStatusRejected
	approved := draftCampaign()
	approved.ID = "camp-3"
	approved.VerificationStatus = models.VerificationStatusApproved
	svc := NewCampaignService(newCampaignStoreStub(eligible, rejected, approved), nil, nil, &auditStub{}, nil, 0)

	list, err := svc.ListUnverifiedMine(context.Background(), dto.CampaignQuery{}, organizerClaims("org-1"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, campaign := range list {
		require.NotEqual(t, "camp-3", campaign.ID)
	}

	_, err = svc.ListUnverifiedMine(context.Background(), dto.CampaignQuery{}, nil)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
