package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/impulso-give/impulso-api/internal/models"
)

// CampaignRepository persists campaign rows.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, organizer_id, title, summary, story, category, goal_amount_cents,
       raised_amount_cents, currency, cover_image_url, legal_entity_id, status,
       verification_status, wizard_step, published_at, created_at, updated_at`

// Create inserts a new draft campaign.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusDraft
	}
	if campaign.VerificationStatus == "" {
		campaign.VerificationStatus = models.VerificationStatusUnverified
	}
	now := time.Now().UTC()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}
	campaign.UpdatedAt = now
	const query = `INSERT INTO campaigns
	(id, organizer_id, title, summary, story, category, goal_amount_cents, raised_amount_cents,
	 currency, cover_image_url, legal_entity_id, status, verification_status, wizard_step,
	 published_at, created_at, updated_at)
	VALUES (:id, :organizer_id, :title, :summary, :story, :category, :goal_amount_cents, :raised_amount_cents,
	 :currency, :cover_image_url, :legal_entity_id, :status, :verification_status, :wizard_step,
	 :published_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// GetByID fetches a campaign by identifier.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns)
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Update persists draft edits and the wizard cursor.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now().UTC()
	const query = `UPDATE campaigns SET
	 title = :title, summary = :summary, story = :story, category = :category,
	 goal_amount_cents = :goal_amount_cents, currency = :currency,
	 cover_image_url = :cover_image_url, legal_entity_id = :legal_entity_id,
	 wizard_step = :wizard_step, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, campaign)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check campaign update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Publish flips a draft into the published state. Guarded so a campaign is
// only published once.
func (r *CampaignRepository) Publish(ctx context.Context, id string, publishedAt time.Time) error {
	const query = `UPDATE campaigns SET status = $1, published_at = $2, updated_at = $2
	WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, models.CampaignStatusPublished, publishedAt, id, models.CampaignStatusDraft)
	if err != nil {
		return fmt.Errorf("publish campaign: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check publish rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetVerificationStatus mirrors the verification record state onto the campaign.
func (r *CampaignRepository) SetVerificationStatus(ctx context.Context, id string, status models.VerificationStatus) error {
	const query = `UPDATE campaigns SET verification_status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set campaign verification status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check verification status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddToRaised increments the raised amount after a recorded donation.
func (r *CampaignRepository) AddToRaised(ctx context.Context, id string, amountCents int64) error {
	const query = `UPDATE campaigns SET raised_amount_cents = raised_amount_cents + $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, amountCents, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("add to raised amount: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check raised amount rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns campaigns matching the filter (newest first).
func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM campaigns", campaignColumns))

	conditions := make([]string, 0, 4)
	if filter.OrganizerID != "" {
		args = append(args, filter.OrganizerID)
		conditions = append(conditions, fmt.Sprintf("organizer_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(filter.VerificationStatuses) > 0 {
		placeholders := make([]string, len(filter.VerificationStatuses))
		for i, status := range filter.VerificationStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("verification_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}
