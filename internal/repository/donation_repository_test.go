package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/impulso-give/impulso-api/internal/models"
)

func newDonationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDonationRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newDonationRepoMock(t)
	defer cleanup()

	repo := NewDonationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO donations")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	donation := &models.Donation{
		CampaignID:  "camp-1",
		DonorName:   "Carlos Ruiz",
		DonorEmail:  "carlos@example.com",
		AmountCents: 25000,
		Currency:    "MXN",
		PaymentRef:  "pay_abc123",
		Status:      models.DonationStatusCompleted,
	}
	require.NoError(t, repo.Create(context.Background(), donation))
	require.NotEmpty(t, donation.ID)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "campaign_id", "donor_user_id", "donor_name", "donor_email", "amount_cents",
		"currency", "message", "anonymous", "payment_ref", "status", "receipt_path", "created_at",
	}).AddRow(donation.ID, "camp-1", nil, "Carlos Ruiz", "carlos@example.com", 25000,
		"MXN", nil, false, "pay_abc123", "completed", nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campaign_id, donor_user_id")).
		WithArgs("camp-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM donations")).
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.ListByCampaign(context.Background(), models.DonationFilter{CampaignID: "camp-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	require.Equal(t, int64(25000), list[0].AmountCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepositorySetReceiptPath(t *testing.T) {
	db, mock, cleanup := newDonationRepoMock(t)
	defer cleanup()

	repo := NewDonationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET receipt_path")).
		WithArgs("don-1", "receipts/don-1.pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetReceiptPath(context.Background(), "don-1", "receipts/don-1.pdf"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET receipt_path")).
		WithArgs("don-missing", "receipts/don-missing.pdf").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SetReceiptPath(context.Background(), "don-missing", "receipts/don-missing.pdf")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
