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

func newCampaignRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCampaignRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaigns")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	campaign := &models.Campaign{
		OrganizerID:     "org-1",
		Title:           "Reconstrucción tras el huracán",
		GoalAmountCents: 500000,
		Currency:        "MXN",
		WizardStep:      1,
	}
	require.NoError(t, repo.Create(context.Background(), campaign))
	require.NotEmpty(t, campaign.ID)
	require.Equal(t, models.CampaignStatusDraft, campaign.Status)
	require.Equal(t, models.VerificationStatusUnverified, campaign.VerificationStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryPublishGuard(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET status")).
		WithArgs("published", now, "camp-1", "draft").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Publish(context.Background(), "camp-1", now))

	// Already published: guarded update touches nothing.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET status")).
		WithArgs("published", now, "camp-1", "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Publish(context.Background(), "camp-1", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositorySetVerificationStatus(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE campaigns SET verification_status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetVerificationStatus(context.Background(), "camp-1", models.VerificationStatusApproved))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newCampaignRepoMock(t)
	defer cleanup()

	repo := NewCampaignRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "organizer_id", "title", "summary", "story", "category", "goal_amount_cents",
		"raised_amount_cents", "currency", "cover_image_url", "legal_entity_id", "status",
		"verification_status", "wizard_step", "published_at", "created_at", "updated_at",
	}).AddRow("camp-1", "org-1", "Becas escolares", "", "", "education", 1000000,
		250000, "MXN", nil, nil, "published",
		"approved", 4, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, organizer_id, title")).
		WithArgs("org-1", "published").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.CampaignFilter{
		OrganizerID: "org-1",
		Status:      models.CampaignStatusPublished,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.VerificationStatusApproved, list[0].VerificationStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}
