package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/impulso-give/impulso-api/internal/models"
)

// VerificationRepository persists the per-campaign verification record.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository constructs the repository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `campaign_id, status, id_document_front_url, id_document_front_mime,
       id_document_back_url, id_document_back_mime, supporting_docs, campaign_story,
       reference_name, reference_email, reference_phone, request_date, approval_date,
       notes, reviewed_by, updated_at`

// GetByCampaignID fetches the verification record for a campaign.
func (r *VerificationRepository) GetByCampaignID(ctx context.Context, campaignID string) (*models.VerificationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM verification_requests WHERE campaign_id = $1`, verificationColumns)
	var req models.VerificationRequest
	if err := r.db.GetContext(ctx, &req, query, campaignID); err != nil {
		return nil, err
	}
	return &req, nil
}

// Upsert stores a submission. At most one record exists per campaign, so a
// resubmission overwrites the evidence and refreshes request_date while the
// previous reviewer notes are retained for history. The approval date is
// cleared because the record is no longer approved.
func (r *VerificationRepository) Upsert(ctx context.Context, req *models.VerificationRequest) error {
	if req.Status == "" {
		req.Status = models.VerificationStatusPending
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO verification_requests
	(campaign_id, status, id_document_front_url, id_document_front_mime, id_document_back_url,
	 id_document_back_mime, supporting_docs, campaign_story, reference_name, reference_email,
	 reference_phone, request_date, approval_date, notes, reviewed_by, updated_at)
	VALUES (:campaign_id, :status, :id_document_front_url, :id_document_front_mime, :id_document_back_url,
	 :id_document_back_mime, :supporting_docs, :campaign_story, :reference_name, :reference_email,
	 :reference_phone, :request_date, NULL, :notes, NULL, :updated_at)
	ON CONFLICT (campaign_id) DO UPDATE SET
	 status = EXCLUDED.status,
	 id_document_front_url = EXCLUDED.id_document_front_url,
	 id_document_front_mime = EXCLUDED.id_document_front_mime,
	 id_document_back_url = EXCLUDED.id_document_back_url,
	 id_document_back_mime = EXCLUDED.id_document_back_mime,
	 supporting_docs = EXCLUDED.supporting_docs,
	 campaign_story = EXCLUDED.campaign_story,
	 reference_name = EXCLUDED.reference_name,
	 reference_email = EXCLUDED.reference_email,
	 reference_phone = EXCLUDED.reference_phone,
	 request_date = EXCLUDED.request_date,
	 approval_date = NULL,
	 reviewed_by = NULL,
	 updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("upsert verification request: %w", err)
	}
	return nil
}

// UpdateVerificationStatusParams groups mutable columns for review
// transitions. ApprovalDate is only written when set; a revoke leaves the
// old approval date in place as history.
type UpdateVerificationStatusParams struct {
	CampaignID   string
	Status       models.VerificationStatus
	Notes        *string
	ReviewedBy   string
	ApprovalDate *time.Time
	AllowedFrom  []models.VerificationStatus
}

// UpdateStatus performs a guarded transition. The update only applies when the
// current status is one of AllowedFrom; zero affected rows surface as
// sql.ErrNoRows so the caller can distinguish an invalid transition.
func (r *VerificationRepository) UpdateStatus(ctx context.Context, params UpdateVerificationStatusParams) error {
	args := []interface{}{params.Status, params.ReviewedBy, time.Now().UTC()}
	setParts := []string{"status = $1", "reviewed_by = $2", "updated_at = $3"}

	if params.Notes != nil {
		args = append(args, *params.Notes)
		setParts = append(setParts, fmt.Sprintf("notes = $%d", len(args)))
	}
	if params.ApprovalDate != nil {
		args = append(args, *params.ApprovalDate)
		setParts = append(setParts, fmt.Sprintf("approval_date = $%d", len(args)))
	}

	args = append(args, params.CampaignID)
	conditions := []string{fmt.Sprintf("campaign_id = $%d", len(args))}

	if len(params.AllowedFrom) > 0 {
		placeholders := make([]string, len(params.AllowedFrom))
		for i, status := range params.AllowedFrom {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf("UPDATE verification_requests SET %s WHERE %s",
		strings.Join(setParts, ", "),
		strings.Join(conditions, " AND "),
	)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update verification status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check verification update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns dashboard rows matching the filter (latest requests first).
// The query walks the campaign catalog, so campaigns that never submitted
// show up with a synthesized unverified status instead of being invisible
// to the dashboard.
func (r *VerificationRepository) List(ctx context.Context, filter models.VerificationFilter) ([]models.VerificationRequestSummary, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT c.id AS campaign_id, c.title AS campaign_title, c.organizer_id,
       u.full_name AS organizer_name, u.email AS organizer_email,
       COALESCE(v.status, 'unverified') AS status, v.request_date, v.approval_date, v.notes
	FROM campaigns c
	JOIN users u ON u.id = c.organizer_id
	LEFT JOIN verification_requests v ON v.campaign_id = c.id`)

	conditions := make([]string, 0, 2)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("COALESCE(v.status, 'unverified') IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(c.title ILIKE $%d OR u.full_name ILIKE $%d OR c.id::text ILIKE $%d)", n, n, n))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY v.request_date DESC NULLS LAST")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var summaries []models.VerificationRequestSummary
	if err := r.db.SelectContext(ctx, &summaries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list verification requests: %w", err)
	}
	return summaries, nil
}
