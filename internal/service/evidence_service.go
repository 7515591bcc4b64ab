package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

// ObjectStore abstracts the evidence blob store. Both the local filesystem
// store and the S3 store satisfy it.
type ObjectStore interface {
	SaveStream(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// EvidenceUpload carries one incoming file of a batch.
type EvidenceUpload struct {
	Slot     string
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// EvidenceServiceConfig bounds evidence uploads.
type EvidenceServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// EvidenceService validates and stores verification evidence files. Uploads
// arrive as a batch and are worked through an explicit FIFO queue so files
// land in the store in the exact order the organizer attached them.
type EvidenceService struct {
	campaigns campaignResolver
	store     ObjectStore
	audit     auditLogger
	logger    *zap.Logger
	metrics   *MetricsService
	cfg       EvidenceServiceConfig
	mimeSet   map[string]struct{}
}

// NewEvidenceService constructs the service with defaults.
func NewEvidenceService(campaigns campaignResolver, store ObjectStore, audit auditLogger, logger *zap.Logger, cfg EvidenceServiceConfig) *EvidenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &EvidenceService{
		campaigns: campaigns,
		store:     store,
		audit:     audit,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// WithMetrics attaches the metrics service. Safe to skip in tests.
func (s *EvidenceService) WithMetrics(metrics *MetricsService) *EvidenceService {
	s.metrics = metrics
	return s
}

// evidenceQueue is a FIFO of pending uploads.
type evidenceQueue struct {
	items []EvidenceUpload
}

func (q *evidenceQueue) enqueue(upload EvidenceUpload) {
	q.items = append(q.items, upload)
}

func (q *evidenceQueue) processNext() (EvidenceUpload, bool) {
	if len(q.items) == 0 {
		return EvidenceUpload{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

func (q *evidenceQueue) isEmpty() bool {
	return len(q.items) == 0
}

// UploadBatch stores a batch of evidence files for a campaign. Files are
// processed in submission order; a file that fails validation is reported in
// its result slot and does not stop the rest of the batch.
func (s *EvidenceService) UploadBatch(ctx context.Context, campaignID string, uploads []EvidenceUpload, actor *models.JWTClaims) ([]dto.EvidenceResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	campaign, err := s.loadOwnedCampaign(ctx, campaignID, actor)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one file is required")
	}

	queue := &evidenceQueue{}
	for _, upload := range uploads {
		queue.enqueue(upload)
	}

	results := make([]dto.EvidenceResult, 0, len(uploads))
	uploaded := 0
	for !queue.isEmpty() {
		upload, ok := queue.processNext()
		if !ok {
			break
		}
		result := s.processUpload(ctx, campaign.ID, upload)
		if result.Skipped {
			s.metrics.RecordEvidenceUpload("skipped")
		} else {
			s.metrics.RecordEvidenceUpload("stored")
			uploaded++
		}
		results = append(results, result)
	}
	if uploaded > 0 {
		s.emitAudit(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionEvidenceUpload,
			Resource:   "evidence",
			ResourceID: &campaign.ID,
			NewValues:  []byte(fmt.Sprintf(`{"uploaded":%d,"submitted":%d}`, uploaded, len(uploads))),
		})
	}
	return results, nil
}

func (s *EvidenceService) processUpload(ctx context.Context, campaignID string, upload EvidenceUpload) dto.EvidenceResult {
	result := dto.EvidenceResult{Slot: upload.Slot, Filename: upload.Filename}
	if upload.Content == nil || upload.Size <= 0 {
		result.Skipped = true
		result.Error = "empty file"
		return result
	}
	if upload.Size > s.cfg.MaxFileSize {
		result.Skipped = true
		result.Error = fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize)
		return result
	}
	mimeType, err := s.detectMime(upload)
	if err != nil {
		result.Skipped = true
		result.Error = err.Error()
		return result
	}
	if _, allowed := s.mimeSet[strings.ToLower(mimeType)]; !allowed {
		result.Skipped = true
		result.Error = fmt.Sprintf("mime type %s not allowed", mimeType)
		return result
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		result.Skipped = true
		result.Error = "failed to reset upload stream"
		return result
	}
	key := s.objectKey(campaignID, upload.Filename, mimeType)
	url, err := s.store.SaveStream(ctx, key, mimeType, upload.Content)
	if err != nil {
		s.logger.Warn("evidence upload failed",
			zap.Error(err), zap.String("campaign_id", campaignID), zap.String("key", key))
		result.Skipped = true
		result.Error = appErrors.ErrUploadFailed.Message
		return result
	}
	result.URL = url
	result.MimeType = mimeType
	return result
}

// detectMime trusts a useful declared content type and inspects the first
// 512 bytes otherwise. Browsers often send application/octet-stream.
func (s *EvidenceService) detectMime(upload EvidenceUpload) (string, error) {
	declared := strings.ToLower(strings.TrimSpace(upload.MimeType))
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}
	header := make([]byte, 512)
	n, err := upload.Content.Read(header)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to inspect file")
	}
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset upload stream")
	}
	if n == 0 {
		return "", fmt.Errorf("empty file")
	}
	detected := http.DetectContentType(header[:n])
	if idx := strings.Index(detected, ";"); idx > 0 {
		detected = detected[:idx]
	}
	return strings.ToLower(strings.TrimSpace(detected)), nil
}

func (s *EvidenceService) objectKey(campaignID, original, mimeType string) string {
	ext := strings.ToLower(path.Ext(original))
	if ext == "" {
		ext = mimeExtension(mimeType)
	}
	return fmt.Sprintf("evidence/%s/%d_%s%s", campaignID, time.Now().Unix(), randomSuffix(), ext)
}

func (s *EvidenceService) loadOwnedCampaign(ctx context.Context, campaignID string, actor *models.JWTClaims) (*models.Campaign, error) {
	return loadOwnedCampaign(ctx, s.campaigns, campaignID, actor)
}

func (s *EvidenceService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "evidence-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func mimeExtension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
