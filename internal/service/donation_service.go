package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
	"github.com/impulso-give/impulso-api/pkg/export"
	"github.com/impulso-give/impulso-api/pkg/jobs"
)

type donationStore interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id string) (*models.Donation, error)
	SetReceiptPath(ctx context.Context, id, path string) error
	ListByCampaign(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error)
}

type donationCampaignStore interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	AddToRaised(ctx context.Context, id string, amountCents int64) error
}

type receiptFileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Open(key string) (*os.File, error)
}

type receiptURLSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (resourceID, relPath string, expiresAt time.Time, err error)
}

// ReceiptDownload bundles the opened receipt file for streaming.
type ReceiptDownload struct {
	File      *os.File
	Filename  string
	SizeBytes int64
	ExpiresAt time.Time
}

// DonationServiceConfig parameterises checkout and receipts.
type DonationServiceConfig struct {
	MinAmountCents int64
	APIPrefix      string
	IssuerName     string
}

// DonationService records completed donations and renders their PDF receipts
// in the background, so checkout responses never wait on PDF generation.
type DonationService struct {
	repo      donationStore
	campaigns donationCampaignStore
	receipts  receiptFileStore
	renderer  *export.ReceiptRenderer
	signer    receiptURLSigner
	audit     auditLogger
	notifier  notificationDispatcher
	queue     *jobs.Queue
	logger    *zap.Logger
	metrics   *MetricsService
	cfg       DonationServiceConfig
}

// NewDonationService constructs the service and its receipt render queue.
func NewDonationService(repo donationStore, campaigns donationCampaignStore, receipts receiptFileStore, signer receiptURLSigner, audit auditLogger, notifier notificationDispatcher, logger *zap.Logger, cfg DonationServiceConfig) *DonationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinAmountCents <= 0 {
		cfg.MinAmountCents = 1000
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.IssuerName == "" {
		cfg.IssuerName = "Impulso"
	}
	svc := &DonationService{
		repo:      repo,
		campaigns: campaigns,
		receipts:  receipts,
		renderer:  export.NewReceiptRenderer(),
		signer:    signer,
		audit:     audit,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
	svc.queue = jobs.NewQueue("receipts", svc.renderReceiptJob, jobs.QueueConfig{
		Workers: 2,
		Logger:  logger,
	})
	return svc
}

// WithMetrics attaches the metrics service. Safe to skip in tests.
func (s *DonationService) WithMetrics(metrics *MetricsService) *DonationService {
	s.metrics = metrics
	return s
}

// Start launches the receipt render workers.
func (s *DonationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the render queue.
func (s *DonationService) Stop() {
	s.queue.Stop()
}

// Create records a completed donation against a published campaign and queues
// the receipt render. The actor may be nil for guest checkouts.
func (s *DonationService) Create(ctx context.Context, req dto.CreateDonationRequest, actor *models.JWTClaims) (*models.Donation, error) {
	if req.AmountCents < s.cfg.MinAmountCents {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("minimum donation is %d cents", s.cfg.MinAmountCents))
	}
	campaign, err := s.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	if campaign.Status != models.CampaignStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "campaign is not accepting donations")
	}
	if !strings.EqualFold(req.Currency, campaign.Currency) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("campaign only accepts %s", campaign.Currency))
	}

	donorName := strings.TrimSpace(req.DonorName)
	if req.Anonymous {
		donorName = ""
	}
	donation := &models.Donation{
		CampaignID:  campaign.ID,
		DonorName:   donorName,
		DonorEmail:  strings.TrimSpace(req.DonorEmail),
		AmountCents: req.AmountCents,
		Currency:    strings.ToUpper(req.Currency),
		Message:     optionalString(req.Message),
		Anonymous:   req.Anonymous,
		PaymentRef:  strings.TrimSpace(req.PaymentRef),
		Status:      models.DonationStatusCompleted,
	}
	if actor != nil {
		donation.DonorUserID = &actor.UserID
	}
	if err := s.repo.Create(ctx, donation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record donation")
	}
	if err := s.campaigns.AddToRaised(ctx, campaign.ID, donation.AmountCents); err != nil {
		s.logger.Warn("failed to update raised amount",
			zap.Error(err), zap.String("campaign_id", campaign.ID), zap.String("donation_id", donation.ID))
	}

	s.metrics.RecordDonation(donation.AmountCents)
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     auditUser(actor),
		Action:     models.AuditActionDonationCreate,
		Resource:   "donation",
		ResourceID: &donation.ID,
		NewValues:  []byte(fmt.Sprintf(`{"campaignId":%q,"amountCents":%d}`, campaign.ID, donation.AmountCents)),
	})
	s.notifyOrganizer(ctx, campaign, donation)

	if err := s.queue.Enqueue(jobs.Job{
		ID:      donation.ID,
		Type:    "render-receipt",
		Payload: donation.ID,
	}); err != nil {
		s.logger.Warn("failed to queue receipt render", zap.Error(err), zap.String("donation_id", donation.ID))
	}
	return donation, nil
}

// ReceiptURL returns a signed download URL for a rendered receipt.
func (s *DonationService) ReceiptURL(ctx context.Context, donationID string, actor *models.JWTClaims) (*dto.DonationReceiptResponse, error) {
	donation, err := s.loadAccessible(ctx, donationID, actor)
	if err != nil {
		return nil, err
	}
	if donation.ReceiptPath == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt is not ready yet")
	}
	token, _, err := s.signer.Generate(donation.ID, *donation.ReceiptPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign receipt url")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &dto.DonationReceiptResponse{
		DonationID:  donation.ID,
		DownloadURL: fmt.Sprintf("%s/donations/%s/receipt/download?token=%s", base, donation.ID, token),
	}, nil
}

// DownloadReceipt validates the signed token and opens the receipt file.
func (s *DonationService) DownloadReceipt(ctx context.Context, donationID, token string) (*ReceiptDownload, error) {
	resourceID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if resourceID != donationID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	donation, err := s.repo.GetByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	if donation.ReceiptPath == nil || *donation.ReceiptPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.receipts.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open receipt file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read receipt metadata")
	}
	return &ReceiptDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		SizeBytes: info.Size(),
		ExpiresAt: expiresAt,
	}, nil
}

// ListByCampaign returns a campaign's donations for its organizer or admins.
func (s *DonationService) ListByCampaign(ctx context.Context, campaignID string, filter models.DonationFilter, actor *models.JWTClaims) ([]models.Donation, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.ErrNotFound
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin && campaign.OrganizerID != actor.UserID {
		return nil, 0, appErrors.ErrForbidden
	}
	filter.CampaignID = campaign.ID
	donations, total, err := s.repo.ListByCampaign(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list donations")
	}
	return donations, total, nil
}

func (s *DonationService) renderReceiptJob(ctx context.Context, job jobs.Job) error {
	donationID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected receipt payload type %T", job.Payload)
	}
	donation, err := s.repo.GetByID(ctx, donationID)
	if err != nil {
		return fmt.Errorf("load donation %s: %w", donationID, err)
	}
	campaign, err := s.campaigns.GetByID(ctx, donation.CampaignID)
	if err != nil {
		return fmt.Errorf("load campaign %s: %w", donation.CampaignID, err)
	}
	payload, err := s.renderer.Render(export.Receipt{
		DonationID:    donation.ID,
		CampaignTitle: campaign.Title,
		DonorName:     donation.DonorName,
		AmountCents:   donation.AmountCents,
		Currency:      donation.Currency,
		PaymentRef:    donation.PaymentRef,
		DonatedAt:     donation.CreatedAt,
		IssuerName:    s.cfg.IssuerName,
	})
	if err != nil {
		return fmt.Errorf("render receipt %s: %w", donation.ID, err)
	}
	key := fmt.Sprintf("receipts/%s.pdf", donation.ID)
	if _, err := s.receipts.Save(ctx, key, "application/pdf", payload); err != nil {
		return fmt.Errorf("store receipt %s: %w", donation.ID, err)
	}
	if err := s.repo.SetReceiptPath(ctx, donation.ID, key); err != nil {
		return fmt.Errorf("record receipt path %s: %w", donation.ID, err)
	}
	if s.notifier != nil && donation.DonorUserID != nil {
		refType := "donation"
		if err := s.notifier.Dispatch(ctx, models.Notification{
			UserID:  *donation.DonorUserID,
			Type:    models.NotificationReceiptReady,
			Title:   "Tu comprobante está listo",
			Body:    fmt.Sprintf("El comprobante de tu donación a %q ya se puede descargar.", campaign.Title),
			RefType: &refType,
			RefID:   &donation.ID,
		}); err != nil {
			s.logger.Warn("failed to dispatch receipt notification", zap.Error(err), zap.String("donation_id", donation.ID))
		}
	}
	return nil
}

func (s *DonationService) loadAccessible(ctx context.Context, donationID string, actor *models.JWTClaims) (*models.Donation, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	donation, err := s.repo.GetByID(ctx, donationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donation")
	}
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleSuperAdmin {
		return donation, nil
	}
	if donation.DonorUserID != nil && *donation.DonorUserID == actor.UserID {
		return donation, nil
	}
	return nil, appErrors.ErrForbidden
}

func (s *DonationService) notifyOrganizer(ctx context.Context, campaign *models.Campaign, donation *models.Donation) {
	if s.notifier == nil {
		return
	}
	name := donation.DonorName
	if donation.Anonymous || name == "" {
		name = "Un donante anónimo"
	}
	refType := "campaign"
	if err := s.notifier.Dispatch(ctx, models.Notification{
		UserID:  campaign.OrganizerID,
		Type:    models.NotificationDonationReceived,
		Title:   "Nueva donación",
		Body:    fmt.Sprintf("%s aportó a tu campaña %q.", name, campaign.Title),
		RefType: &refType,
		RefID:   &campaign.ID,
	}); err != nil {
		s.logger.Warn("failed to dispatch donation notification", zap.Error(err), zap.String("campaign_id", campaign.ID))
	}
}

func (s *DonationService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "donation-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func auditUser(actor *models.JWTClaims) *string {
	if actor == nil {
		return nil
	}
	return &actor.UserID
}
