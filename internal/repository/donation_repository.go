package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/impulso-give/impulso-api/internal/models"
)

// DonationRepository persists donation records.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository constructs the repository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

const donationColumns = `id, campaign_id, donor_user_id, donor_name, donor_email, amount_cents,
       currency, message, anonymous, payment_ref, status, receipt_path, created_at`

// Create inserts a donation row.
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO donations
	(id, campaign_id, donor_user_id, donor_name, donor_email, amount_cents, currency,
	 message, anonymous, payment_ref, status, receipt_path, created_at)
	VALUES (:id, :campaign_id, :donor_user_id, :donor_name, :donor_email, :amount_cents, :currency,
	 :message, :anonymous, :payment_ref, :status, :receipt_path, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, donation); err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// GetByID fetches a single donation.
func (r *DonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	query := fmt.Sprintf(`SELECT %s FROM donations WHERE id = $1`, donationColumns)
	var donation models.Donation
	if err := r.db.GetContext(ctx, &donation, query, id); err != nil {
		return nil, err
	}
	return &donation, nil
}

// SetReceiptPath records the rendered receipt location for a donation.
func (r *DonationRepository) SetReceiptPath(ctx context.Context, id, path string) error {
	const query = `UPDATE donations SET receipt_path = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, path)
	if err != nil {
		return fmt.Errorf("set receipt path: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check receipt path rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByCampaign returns donations for one campaign, newest first, with total count.
func (r *DonationRepository) ListByCampaign(ctx context.Context, filter models.DonationFilter) ([]models.Donation, int, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	listQuery := fmt.Sprintf(`SELECT %s FROM donations WHERE campaign_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		donationColumns, limit, offset)
	var donations []models.Donation
	if err := r.db.SelectContext(ctx, &donations, listQuery, filter.CampaignID); err != nil {
		return nil, 0, fmt.Errorf("list donations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM donations WHERE campaign_id = $1`, filter.CampaignID); err != nil {
		return nil, 0, fmt.Errorf("count donations: %w", err)
	}
	return donations, total, nil
}
