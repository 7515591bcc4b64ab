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

// LegalEntityRepository persists registered legal entities.
type LegalEntityRepository struct {
	db *sqlx.DB
}

// NewLegalEntityRepository constructs the repository.
func NewLegalEntityRepository(db *sqlx.DB) *LegalEntityRepository {
	return &LegalEntityRepository{db: db}
}

const legalEntityColumns = `id, name, type, tax_id, country, address, contact_email, contact_phone, active, created_at, updated_at`

// Create inserts a legal entity.
func (r *LegalEntityRepository) Create(ctx context.Context, entity *models.LegalEntity) error {
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = now
	}
	entity.UpdatedAt = now
	const query = `INSERT INTO legal_entities
	(id, name, type, tax_id, country, address, contact_email, contact_phone, active, created_at, updated_at)
	VALUES (:id, :name, :type, :tax_id, :country, :address, :contact_email, :contact_phone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entity); err != nil {
		return fmt.Errorf("create legal entity: %w", err)
	}
	return nil
}

// GetByID fetches a legal entity.
func (r *LegalEntityRepository) GetByID(ctx context.Context, id string) (*models.LegalEntity, error) {
	query := fmt.Sprintf(`SELECT %s FROM legal_entities WHERE id = $1`, legalEntityColumns)
	var entity models.LegalEntity
	if err := r.db.GetContext(ctx, &entity, query, id); err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update persists mutable fields.
func (r *LegalEntityRepository) Update(ctx context.Context, entity *models.LegalEntity) error {
	entity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE legal_entities SET
	 name = :name, type = :type, tax_id = :tax_id, country = :country, address = :address,
	 contact_email = :contact_email, contact_phone = :contact_phone, active = :active, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, entity)
	if err != nil {
		return fmt.Errorf("update legal entity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check legal entity rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate performs a soft delete by marking the entity inactive.
func (r *LegalEntityRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE legal_entities SET active = FALSE, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate legal entity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deactivate rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns legal entities matching the filter with total count.
func (r *LegalEntityRepository) List(ctx context.Context, filter models.LegalEntityFilter) ([]models.LegalEntity, int, error) {
	baseQuery := `FROM legal_entities WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Country != "" {
		args = append(args, filter.Country)
		conditions = append(conditions, fmt.Sprintf("country = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(tax_id) LIKE $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", legalEntityColumns, baseQuery, limit, offset)
	var entities []models.LegalEntity
	if err := r.db.SelectContext(ctx, &entities, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list legal entities: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count legal entities: %w", err)
	}
	return entities, total, nil
}
