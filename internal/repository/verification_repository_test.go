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

func newVerificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestVerificationRepositoryUpsertAndGet(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now().UTC()
	story := "Medical fund for my brother"
	req := &models.VerificationRequest{
		CampaignID:          "camp-1",
		IDDocumentFrontURL:  "https://cdn.impulso.test/evidence/camp-1/front.jpg",
		IDDocumentFrontMime: "image/jpeg",
		IDDocumentBackURL:   "https://cdn.impulso.test/evidence/camp-1/back.jpg",
		IDDocumentBackMime:  "image/jpeg",
		SupportingDocs: models.EvidenceList{
			{URL: "https://cdn.impulso.test/evidence/camp-1/diagnosis.pdf", MimeType: "application/pdf"},
		},
		CampaignStory: &story,
		RequestDate:   &now,
	}
	require.NoError(t, repo.Upsert(context.Background(), req))
	require.Equal(t, models.VerificationStatusPending, req.Status)

	rows := sqlmock.NewRows([]string{
		"campaign_id", "status", "id_document_front_url", "id_document_front_mime",
		"id_document_back_url", "id_document_back_mime", "supporting_docs", "campaign_story",
		"reference_name", "reference_email", "reference_phone", "request_date", "approval_date",
		"notes", "reviewed_by", "updated_at",
	}).AddRow(
		"camp-1", "pending", req.IDDocumentFrontURL, "image/jpeg",
		req.IDDocumentBackURL, "image/jpeg", `[{"url":"https://cdn.impulso.test/evidence/camp-1/diagnosis.pdf","mimeType":"application/pdf"}]`, story,
		nil, nil, nil, now, nil,
		nil, nil, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT campaign_id, status, id_document_front_url")).
		WithArgs("camp-1").
		WillReturnRows(rows)

	found, err := repo.GetByCampaignID(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusPending, found.Status)
	require.Len(t, found.SupportingDocs, 1)
	require.Equal(t, "application/pdf", found.SupportingDocs[0].MimeType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT campaign_id, status, id_document_front_url")).
		WithArgs("camp-unknown").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCampaignID(context.Background(), "camp-unknown")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestVerificationRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	approvedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateStatus(context.Background(), UpdateVerificationStatusParams{
		CampaignID:   "camp-1",
		Status:       models.VerificationStatusApproved,
		ReviewedBy:   "admin-1",
		ApprovalDate: &approvedAt,
		AllowedFrom:  []models.VerificationStatus{models.VerificationStatusPending},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	// Status already moved on: the guard matches zero rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), UpdateVerificationStatusParams{
		CampaignID:  "camp-1",
		Status:      models.VerificationStatusApproved,
		ReviewedBy:  "admin-1",
		AllowedFrom: []models.VerificationStatus{models.VerificationStatusPending},
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestVerificationRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"campaign_id", "campaign_title", "organizer_id", "organizer_name", "organizer_email",
		"status", "request_date", "approval_date", "notes",
	}).AddRow("camp-1", "Ayuda para Sofía", "org-1", "María Delgado", "maria@impulso.test",
		"pending", now, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.id AS campaign_id, c.title AS campaign_title")).
		WithArgs("pending", "%sofía%").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.VerificationFilter{
		Statuses: []models.VerificationStatus{models.VerificationStatusPending},
		Search:   "sofía",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "camp-1", list[0].CampaignID)
	require.Equal(t, "María Delgado", list[0].OrganizerName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryListUnverified(t *testing.T) {
	db, mock, cleanup := newVerificationRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	rows := sqlmock.NewRows([]string{
		"campaign_id", "campaign_title", "organizer_id", "organizer_name", "organizer_email",
		"status", "request_date", "approval_date", "notes",
	}).AddRow("camp-2", "Reforestación urbana", "org-2", "Carlos Peña", "carlos@impulso.test",
		"unverified", nil, nil, nil)

	// Campaigns without a verification record surface through the left join
	// with a synthesized status, so the filter must coalesce before matching.
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN verification_requests v ON v.campaign_id = c.id")).
		WithArgs("unverified").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.VerificationFilter{
		Statuses: []models.VerificationStatus{models.VerificationStatusUnverified},
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "camp-2", list[0].CampaignID)
	require.Equal(t, models.VerificationStatusUnverified, list[0].Status)
	require.Nil(t, list[0].RequestDate)
	require.NoError(t, mock.ExpectationsWereMet())
}
