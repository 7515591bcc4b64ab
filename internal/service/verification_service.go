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

type verificationStore interface {
	GetByCampaignID(ctx context.Context, campaignID string) (*models.VerificationRequest, error)
	Upsert(ctx context.Context, req *models.VerificationRequest) error
	UpdateStatus(ctx context.Context, params repository.UpdateVerificationStatusParams) error
	List(ctx context.Context, filter models.VerificationFilter) ([]models.VerificationRequestSummary, error)
}

type campaignResolver interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	SetVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, notification models.Notification) error
}

// VerificationServiceConfig bounds submission payloads.
type VerificationServiceConfig struct {
	MaxSupportingDocs int
	MaxStoryLength    int
	AllowedMIMEs      []string
}

// VerificationService handles the organizer side of campaign verification:
// reading the current state and submitting evidence for review.
type VerificationService struct {
	repo      verificationStore
	campaigns campaignResolver
	audit     auditLogger
	notifier  notificationDispatcher
	logger    *zap.Logger
	metrics   *MetricsService
	cfg       VerificationServiceConfig
	mimeSet   map[string]struct{}
}

// NewVerificationService constructs the service with defaults.
func NewVerificationService(repo verificationStore, campaigns campaignResolver, audit auditLogger, notifier notificationDispatcher, logger *zap.Logger, cfg VerificationServiceConfig) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSupportingDocs <= 0 {
		cfg.MaxSupportingDocs = 5
	}
	if cfg.MaxStoryLength <= 0 {
		cfg.MaxStoryLength = 5000
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &VerificationService{
		repo:      repo,
		campaigns: campaigns,
		audit:     audit,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// WithMetrics attaches the metrics service. Safe to skip in tests.
func (s *VerificationService) WithMetrics(metrics *MetricsService) *VerificationService {
	s.metrics = metrics
	return s
}

// Status returns the verification record for a campaign. A campaign that has
// never submitted gets a synthesized unverified record rather than a 404, so
// the client always has a state to render.
func (s *VerificationService) Status(ctx context.Context, campaignID string, actor *models.JWTClaims) (*models.VerificationRequest, error) {
	campaign, err := s.loadOwnedCampaign(ctx, campaignID, actor)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.GetByCampaignID(ctx, campaign.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.VerificationRequest{
				CampaignID: campaign.ID,
				Status:     models.VerificationStatusUnverified,
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification record")
	}
	return record, nil
}

// Submit stores a verification submission and moves the record to pending.
// Submitting while a request is pending or already approved is rejected; a
// rejected or unverified campaign may submit again, replacing the evidence
// while the previous reviewer notes stay on record.
func (s *VerificationService) Submit(ctx context.Context, req dto.SubmitVerificationRequest, actor *models.JWTClaims) (*models.VerificationRequest, error) {
	campaign, err := s.loadOwnedCampaign(ctx, req.CampaignID, actor)
	if err != nil {
		return nil, err
	}
	if err := s.validateSubmission(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCampaignID(ctx, campaign.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification record")
	}
	if existing != nil {
		switch existing.Status {
		case models.VerificationStatusPending:
			return nil, appErrors.Clone(appErrors.ErrTransitionRejected, "a verification request is already under review")
		case models.VerificationStatusApproved:
			return nil, appErrors.Clone(appErrors.ErrTransitionRejected, "campaign is already verified")
		}
	}

	now := time.Now().UTC()
	record := &models.VerificationRequest{
		CampaignID:          campaign.ID,
		Status:              models.VerificationStatusPending,
		IDDocumentFrontURL:  req.IDDocumentFrontURL,
		IDDocumentFrontMime: req.IDDocumentFrontMime,
		IDDocumentBackURL:   req.IDDocumentBackURL,
		IDDocumentBackMime:  req.IDDocumentBackMime,
		SupportingDocs:      append(models.EvidenceList(nil), req.SupportingDocs...),
		CampaignStory:       optionalString(req.CampaignStory),
		ReferenceName:       optionalString(req.ReferenceName),
		ReferenceEmail:      optionalString(req.ReferenceEmail),
		ReferencePhone:      optionalString(req.ReferencePhone),
		RequestDate:         &now,
		UpdatedAt:           now,
	}
	if existing != nil {
		record.Notes = existing.Notes
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store verification request")
	}
	if err := s.campaigns.SetVerificationStatus(ctx, campaign.ID, models.VerificationStatusPending); err != nil {
		s.logger.Warn("failed to mirror verification status onto campaign",
			zap.Error(err), zap.String("campaign_id", campaign.ID))
	}
	s.metrics.RecordVerificationTransition(string(models.VerificationStatusPending))
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionVerificationSubmit,
		Resource:   "verification",
		ResourceID: &campaign.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":"pending","supportingDocs":%d}`, len(record.SupportingDocs))),
	})
	s.dispatchNotification(ctx, models.Notification{
		UserID: campaign.OrganizerID,
		Type:   models.NotificationVerificationReceived,
		Title:  "Solicitud de verificación recibida",
		Body:   fmt.Sprintf("Recibimos la documentación de la campaña %q. Te avisaremos cuando el equipo la revise.", campaign.Title),
	}, campaign.ID)
	return record, nil
}

func (s *VerificationService) loadOwnedCampaign(ctx context.Context, campaignID string, actor *models.JWTClaims) (*models.Campaign, error) {
	return loadOwnedCampaign(ctx, s.campaigns, campaignID, actor)
}

// loadOwnedCampaign fetches a campaign and enforces that the actor may act on
// it: organizers only on their own campaigns, admins on any.
func loadOwnedCampaign(ctx context.Context, campaigns campaignResolver, campaignID string, actor *models.JWTClaims) (*models.Campaign, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(campaignID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "campaignId is required")
	}
	campaign, err := campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return campaign, nil
	case models.RoleOrganizer:
		if campaign.OrganizerID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
		return campaign, nil
	default:
		return nil, appErrors.ErrForbidden
	}
}

func (s *VerificationService) validateSubmission(req dto.SubmitVerificationRequest) error {
	if strings.TrimSpace(req.IDDocumentFrontURL) == "" || strings.TrimSpace(req.IDDocumentBackURL) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "both sides of the ID document are required")
	}
	if strings.TrimSpace(req.IDDocumentFrontMime) == "" || strings.TrimSpace(req.IDDocumentBackMime) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "ID document MIME types are required")
	}
	if _, ok := s.mimeSet[strings.ToLower(req.IDDocumentFrontMime)]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, "ID document front: mime type not allowed")
	}
	if _, ok := s.mimeSet[strings.ToLower(req.IDDocumentBackMime)]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, "ID document back: mime type not allowed")
	}
	if len(req.SupportingDocs) > s.cfg.MaxSupportingDocs {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d supporting documents are allowed", s.cfg.MaxSupportingDocs))
	}
	for _, doc := range req.SupportingDocs {
		if strings.TrimSpace(doc.URL) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "supporting document url is required")
		}
		if _, ok := s.mimeSet[strings.ToLower(doc.MimeType)]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "supporting document: mime type not allowed")
		}
	}
	if len(req.CampaignStory) > s.cfg.MaxStoryLength {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("campaign story exceeds %d characters", s.cfg.MaxStoryLength))
	}
	return nil
}

func (s *VerificationService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "verification-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *VerificationService) dispatchNotification(ctx context.Context, notification models.Notification, campaignID string) {
	if s.notifier == nil {
		return
	}
	refType := "campaign"
	notification.RefType = &refType
	notification.RefID = &campaignID
	if err := s.notifier.Dispatch(ctx, notification); err != nil {
		s.logger.Warn("failed to dispatch notification", zap.Error(err), zap.String("campaign_id", campaignID))
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
