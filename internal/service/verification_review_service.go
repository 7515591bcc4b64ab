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
	"github.com/impulso-give/impulso-api/pkg/export"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type reviewUserResolver interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// VerificationReviewService implements the admin side of verification:
// the dashboard listing, the evidence bundle view, and status decisions.
type VerificationReviewService struct {
	repo      verificationStore
	campaigns campaignResolver
	users     reviewUserResolver
	audit     auditLogger
	notifier  notificationDispatcher
	exporter  *export.CSVExporter
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewVerificationReviewService constructs the service.
func NewVerificationReviewService(repo verificationStore, campaigns campaignResolver, users reviewUserResolver, audit auditLogger, notifier notificationDispatcher, logger *zap.Logger) *VerificationReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationReviewService{
		repo:      repo,
		campaigns: campaigns,
		users:     users,
		audit:     audit,
		notifier:  notifier,
		exporter:  export.NewCSVExporter(),
		logger:    logger,
	}
}

// WithMetrics attaches the metrics service. Safe to skip in tests.
func (s *VerificationReviewService) WithMetrics(metrics *MetricsService) *VerificationReviewService {
	s.metrics = metrics
	return s
}

// List returns dashboard rows for the admin review queue.
func (s *VerificationReviewService) List(ctx context.Context, query dto.ReviewQuery, actor *models.JWTClaims) ([]models.VerificationRequestSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter := models.VerificationFilter{
		Search: strings.TrimSpace(query.Search),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	statuses, err := parseStatusFilter(query.Status)
	if err != nil {
		return nil, err
	}
	filter.Statuses = statuses
	summaries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list verification requests")
	}
	return summaries, nil
}

// GetBundle assembles everything the reviewer needs for one request: the
// record itself, the campaign, the organizer, and the evidence documents with
// a render hint derived from the stored MIME type.
func (s *VerificationReviewService) GetBundle(ctx context.Context, campaignID string, actor *models.JWTClaims) (*dto.EvidenceBundle, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByCampaignID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification record")
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	organizer, err := s.users.FindByID(ctx, campaign.OrganizerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "organizer account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organizer")
	}

	documents := make([]dto.EvidenceBundleDocument, 0, len(record.SupportingDocs)+2)
	documents = append(documents,
		bundleDocument("id_document_front", record.IDDocumentFrontURL, record.IDDocumentFrontMime),
		bundleDocument("id_document_back", record.IDDocumentBackURL, record.IDDocumentBackMime),
	)
	for i, doc := range record.SupportingDocs {
		documents = append(documents, bundleDocument(fmt.Sprintf("supporting_%d", i+1), doc.URL, doc.MimeType))
	}

	return &dto.EvidenceBundle{
		Request:  *record,
		Campaign: *campaign,
		Organizer: models.UserInfo{
			ID:       organizer.ID,
			Email:    organizer.Email,
			FullName: organizer.FullName,
			Role:     organizer.Role,
		},
		Documents: documents,
	}, nil
}

// Decide applies a reviewer decision. Approve and reject require a pending
// request; moving an approved campaign back to pending revokes its badge
// while the approval date stays on record as history. Rejections must carry
// notes so the organizer knows what to fix.
func (s *VerificationReviewService) Decide(ctx context.Context, req dto.ReviewDecisionRequest, actor *models.JWTClaims) (*models.VerificationRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CampaignID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "campaignId is required")
	}

	params := repository.UpdateVerificationStatusParams{
		CampaignID: req.CampaignID,
		Status:     req.Status,
		ReviewedBy: actor.UserID,
		Notes:      optionalString(req.Notes),
	}
	var action string
	now := time.Now().UTC()
	switch req.Status {
	case models.VerificationStatusApproved:
		params.ApprovalDate = &now
		params.AllowedFrom = []models.VerificationStatus{models.VerificationStatusPending}
		action = models.AuditActionVerificationApprove
	case models.VerificationStatusRejected:
		if strings.TrimSpace(req.Notes) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "rejection notes are required")
		}
		params.AllowedFrom = []models.VerificationStatus{models.VerificationStatusPending}
		action = models.AuditActionVerificationReject
	case models.VerificationStatusPending:
		params.AllowedFrom = []models.VerificationStatus{models.VerificationStatusApproved}
		action = models.AuditActionVerificationRevoke
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be approved, rejected, or pending")
	}

	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionError(ctx, req.CampaignID, req.Status)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update verification status")
	}
	if err := s.campaigns.SetVerificationStatus(ctx, req.CampaignID, req.Status); err != nil {
		s.logger.Warn("failed to mirror verification status onto campaign",
			zap.Error(err), zap.String("campaign_id", req.CampaignID))
	}
	s.metrics.RecordVerificationTransition(string(req.Status))
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "verification",
		ResourceID: &req.CampaignID,
		NewValues:  []byte(fmt.Sprintf(`{"status":"%s"}`, req.Status)),
	})
	s.notifyOrganizer(ctx, req)

	record, err := s.repo.GetByCampaignID(ctx, req.CampaignID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload verification record")
	}
	return record, nil
}

// ExportCSV renders the current review queue as a CSV download.
func (s *VerificationReviewService) ExportCSV(ctx context.Context, query dto.ReviewQuery, actor *models.JWTClaims) ([]byte, string, error) {
	summaries, err := s.List(ctx, query, actor)
	if err != nil {
		return nil, "", err
	}
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []string{
			summary.CampaignID,
			summary.CampaignTitle,
			summary.OrganizerName,
			summary.OrganizerEmail,
			string(summary.Status),
			formatTimePtr(summary.RequestDate),
			formatTimePtr(summary.ApprovalDate),
			derefString(summary.Notes),
		})
	}
	payload, err := s.exporter.Render(export.Dataset{
		Headers: []string{"campaign_id", "campaign_title", "organizer_name", "organizer_email", "status", "request_date", "approval_date", "notes"},
		Rows:    rows,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	filename := fmt.Sprintf("verification-requests-%s.csv", time.Now().UTC().Format("20060102-150405"))
	return payload, filename, nil
}

// transitionError distinguishes a missing record from a state conflict after
// the guarded update matched zero rows.
func (s *VerificationReviewService) transitionError(ctx context.Context, campaignID string, target models.VerificationStatus) error {
	record, err := s.repo.GetByCampaignID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no verification request for this campaign")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification record")
	}
	return appErrors.Clone(appErrors.ErrTransitionRejected,
		fmt.Sprintf("cannot move request from %s to %s", record.Status, target))
}

func (s *VerificationReviewService) notifyOrganizer(ctx context.Context, req dto.ReviewDecisionRequest) {
	if s.notifier == nil {
		return
	}
	campaign, err := s.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		s.logger.Warn("failed to load campaign for notification", zap.Error(err), zap.String("campaign_id", req.CampaignID))
		return
	}
	notification := models.Notification{UserID: campaign.OrganizerID}
	switch req.Status {
	case models.VerificationStatusApproved:
		notification.Type = models.NotificationVerificationApproved
		notification.Title = "Campaña verificada"
		notification.Body = fmt.Sprintf("Tu campaña %q fue verificada. La insignia ya es visible para los donantes.", campaign.Title)
	case models.VerificationStatusRejected:
		notification.Type = models.NotificationVerificationRejected
		notification.Title = "Verificación rechazada"
		notification.Body = fmt.Sprintf("La verificación de %q fue rechazada: %s", campaign.Title, strings.TrimSpace(req.Notes))
	case models.VerificationStatusPending:
		notification.Type = models.NotificationVerificationRevoked
		notification.Title = "Verificación en revisión nuevamente"
		notification.Body = fmt.Sprintf("La insignia de %q fue retirada mientras el equipo revisa la campaña otra vez.", campaign.Title)
	default:
		return
	}
	refType := "campaign"
	notification.RefType = &refType
	notification.RefID = &campaign.ID
	if err := s.notifier.Dispatch(ctx, notification); err != nil {
		s.logger.Warn("failed to dispatch notification", zap.Error(err), zap.String("campaign_id", campaign.ID))
	}
}

func (s *VerificationReviewService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "verification-review-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func requireAdmin(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return appErrors.ErrForbidden
	}
	return nil
}

func parseStatusFilter(raw string) ([]models.VerificationStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]models.VerificationStatus, 0, len(parts))
	for _, part := range parts {
		status := models.VerificationStatus(strings.ToLower(strings.TrimSpace(part)))
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", part))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func bundleDocument(slot, url, mimeType string) dto.EvidenceBundleDocument {
	kind := "file"
	if (models.EvidenceDocument{MimeType: mimeType}).IsImage() {
		kind = "image"
	}
	return dto.EvidenceBundleDocument{Slot: slot, URL: url, MimeType: mimeType, Kind: kind}
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
