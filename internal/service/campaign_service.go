package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	"github.com/impulso-give/impulso-api/internal/repository"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type campaignStore interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Publish(ctx context.Context, id string, publishedAt time.Time) error
	SetVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error)
}

type campaignCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type legalEntityResolver interface {
	GetByID(ctx context.Context, id string) (*models.LegalEntity, error)
}

// CampaignService drives the campaign creation wizard and the public catalog.
type CampaignService struct {
	repo     campaignStore
	cache    campaignCache
	entities legalEntityResolver
	audit    auditLogger
	logger   *zap.Logger
	metrics  *MetricsService
	cacheTTL time.Duration
}

// NewCampaignService constructs the service.
func NewCampaignService(repo campaignStore, cache campaignCache, entities legalEntityResolver, audit auditLogger, logger *zap.Logger, cacheTTL time.Duration) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CampaignService{
		repo:     repo,
		cache:    cache,
		entities: entities,
		audit:    audit,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// WithMetrics attaches the metrics service. Safe to skip in tests.
func (s *CampaignService) WithMetrics(metrics *MetricsService) *CampaignService {
	s.metrics = metrics
	return s
}

// Create starts a new draft campaign at wizard step 1.
func (s *CampaignService) Create(ctx context.Context, req dto.CreateCampaignRequest, actor *models.JWTClaims) (*models.Campaign, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleOrganizer && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrForbidden
	}
	campaign := &models.Campaign{
		OrganizerID:     actor.UserID,
		Title:           strings.TrimSpace(req.Title),
		Category:        strings.TrimSpace(req.Category),
		GoalAmountCents: req.GoalAmountCents,
		Currency:        strings.ToUpper(req.Currency),
		Status:          models.CampaignStatusDraft,
		WizardStep:      1,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionCampaignCreate,
		Resource:   "campaign",
		ResourceID: &campaign.ID,
		NewValues:  []byte(fmt.Sprintf(`{"title":%q}`, campaign.Title)),
	})
	return campaign, nil
}

// Get returns one campaign. Published campaigns are public and cached; drafts
// are only visible to their organizer and admins.
func (s *CampaignService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Campaign, error) {
	cacheKey := repository.CampaignDetailKey(id)
	if s.cache != nil {
		var cached models.Campaign
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil && cached.Status == models.CampaignStatusPublished {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	if campaign.Status != models.CampaignStatusPublished {
		if err := s.ensureOwnerOrAdmin(campaign, actor); err != nil {
			return nil, err
		}
		return campaign, nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, campaign, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache campaign", zap.Error(err), zap.String("campaign_id", id))
		}
	}
	return campaign, nil
}

// Update saves one wizard step of a draft. Only populated fields change.
func (s *CampaignService) Update(ctx context.Context, id string, req dto.UpdateCampaignRequest, actor *models.JWTClaims) (*models.Campaign, error) {
	campaign, err := s.loadForEdit(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		campaign.Title = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		campaign.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.Story != nil {
		campaign.Story = *req.Story
	}
	if req.Category != nil {
		campaign.Category = strings.TrimSpace(*req.Category)
	}
	if req.GoalAmountCents != nil {
		campaign.GoalAmountCents = *req.GoalAmountCents
	}
	if req.Currency != nil {
		campaign.Currency = strings.ToUpper(*req.Currency)
	}
	if req.CoverImageURL != nil {
		campaign.CoverImageURL = req.CoverImageURL
	}
	if req.LegalEntityID != nil {
		if err := s.validateLegalEntity(ctx, *req.LegalEntityID); err != nil {
			return nil, err
		}
		campaign.LegalEntityID = req.LegalEntityID
	}
	if req.WizardStep > campaign.WizardStep {
		campaign.WizardStep = req.WizardStep
	}
	if err := s.repo.Update(ctx, campaign); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campaign")
	}
	s.invalidate(ctx, id)
	return campaign, nil
}

// Publish flips a completed draft into the public catalog. Verification is a
// separate track: an unverified campaign may go live, it just carries no
// badge until approved.
func (s *CampaignService) Publish(ctx context.Context, id string, actor *models.JWTClaims) (*models.Campaign, error) {
	campaign, err := s.loadForEdit(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validateReadyToPublish(campaign); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.repo.Publish(ctx, id, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "campaign is not a draft")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish campaign")
	}
	campaign.Status = models.CampaignStatusPublished
	campaign.PublishedAt = &now
	s.invalidate(ctx, id)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionCampaignPublish,
		Resource:   "campaign",
		ResourceID: &campaign.ID,
	})
	return campaign, nil
}

// ListPublic returns published campaigns for the catalog.
func (s *CampaignService) ListPublic(ctx context.Context, query dto.CampaignQuery) ([]models.Campaign, error) {
	campaigns, err := s.repo.List(ctx, models.CampaignFilter{
		Status: models.CampaignStatusPublished,
		Search: strings.TrimSpace(query.Search),
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	return campaigns, nil
}

// ListMine returns the actor's own campaigns, drafts included.
func (s *CampaignService) ListMine(ctx context.Context, query dto.CampaignQuery, actor *models.JWTClaims) ([]models.Campaign, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	campaigns, err := s.repo.List(ctx, models.CampaignFilter{
		OrganizerID: actor.UserID,
		Status:      models.CampaignStatus(strings.ToLower(strings.TrimSpace(query.Status))),
		Search:      strings.TrimSpace(query.Search),
		Limit:       query.Limit,
		Offset:      query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	return campaigns, nil
}

// ListUnverifiedMine returns the organizer's campaigns that can still start
// or restart document review, so unverified and rejected ones.
func (s *CampaignService) ListUnverifiedMine(ctx context.Context, query dto.CampaignQuery, actor *models.JWTClaims) ([]models.Campaign, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	campaigns, err := s.repo.List(ctx, models.CampaignFilter{
		OrganizerID:          actor.UserID,
		VerificationStatuses: []models.VerificationStatus{models.VerificationStatusUnverified, models.VerificationStatusRejected},
		Limit:                query.Limit,
		Offset:               query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}
	return campaigns, nil
}

func (s *CampaignService) loadForEdit(ctx context.Context, id string, actor *models.JWTClaims) (*models.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	if err := s.ensureOwnerOrAdmin(campaign, actor); err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft campaigns can be edited")
	}
	return campaign, nil
}

func (s *CampaignService) ensureOwnerOrAdmin(campaign *models.Campaign, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin {
		return nil
	}
	if campaign.OrganizerID != actor.UserID {
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *CampaignService) validateLegalEntity(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	if s.entities == nil {
		return nil
	}
	entity, err := s.entities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "legal entity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load legal entity")
	}
	if !entity.Active {
		return appErrors.Clone(appErrors.ErrValidation, "legal entity is inactive")
	}
	return nil
}

func (s *CampaignService) validateReadyToPublish(campaign *models.Campaign) error {
	if strings.TrimSpace(campaign.Title) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title is required before publishing")
	}
	if strings.TrimSpace(campaign.Summary) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "summary is required before publishing")
	}
	if strings.TrimSpace(campaign.Story) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "story is required before publishing")
	}
	if campaign.GoalAmountCents <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "goal amount must be positive")
	}
	return nil
}

func (s *CampaignService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, repository.CampaignDetailKey(id)); err != nil {
		s.logger.Warn("failed to invalidate campaign cache", zap.Error(err), zap.String("campaign_id", id))
	}
}

func (s *CampaignService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "campaign-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
