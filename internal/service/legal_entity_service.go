package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/impulso-give/impulso-api/internal/dto"
	"github.com/impulso-give/impulso-api/internal/models"
	appErrors "github.com/impulso-give/impulso-api/pkg/errors"
)

type legalEntityStore interface {
	Create(ctx context.Context, entity *models.LegalEntity) error
	GetByID(ctx context.Context, id string) (*models.LegalEntity, error)
	Update(ctx context.Context, entity *models.LegalEntity) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, filter models.LegalEntityFilter) ([]models.LegalEntity, int, error)
}

// LegalEntityService manages the registry of entities campaigns attach to.
// Writes are admin-only; reads are open to any authenticated user so the
// campaign wizard can offer the catalog.
type LegalEntityService struct {
	repo   legalEntityStore
	audit  auditLogger
	logger *zap.Logger
}

// NewLegalEntityService constructs the service.
func NewLegalEntityService(repo legalEntityStore, audit auditLogger, logger *zap.Logger) *LegalEntityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LegalEntityService{repo: repo, audit: audit, logger: logger}
}

// Create registers a legal entity.
func (s *LegalEntityService) Create(ctx context.Context, req dto.CreateLegalEntityRequest, actor *models.JWTClaims) (*models.LegalEntity, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	entityType, err := parseEntityType(req.Type)
	if err != nil {
		return nil, err
	}
	entity := &models.LegalEntity{
		Name:         strings.TrimSpace(req.Name),
		Type:         entityType,
		TaxID:        strings.TrimSpace(req.TaxID),
		Country:      strings.ToUpper(strings.TrimSpace(req.Country)),
		Address:      req.Address,
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: req.ContactPhone,
		Active:       true,
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create legal entity")
	}
	s.emitAudit(ctx, actor, models.AuditActionLegalEntityCreate, entity.ID)
	return entity, nil
}

// Get returns one legal entity.
func (s *LegalEntityService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LegalEntity, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load legal entity")
	}
	return entity, nil
}

// Update modifies a legal entity.
func (s *LegalEntityService) Update(ctx context.Context, id string, req dto.UpdateLegalEntityRequest, actor *models.JWTClaims) (*models.LegalEntity, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load legal entity")
	}
	entityType, err := parseEntityType(req.Type)
	if err != nil {
		return nil, err
	}
	entity.Name = strings.TrimSpace(req.Name)
	entity.Type = entityType
	entity.TaxID = strings.TrimSpace(req.TaxID)
	entity.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	entity.Address = req.Address
	entity.ContactEmail = strings.TrimSpace(req.ContactEmail)
	entity.ContactPhone = req.ContactPhone
	if req.Active != nil {
		entity.Active = *req.Active
	}
	if err := s.repo.Update(ctx, entity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update legal entity")
	}
	s.emitAudit(ctx, actor, models.AuditActionLegalEntityUpdate, entity.ID)
	return entity, nil
}

// Deactivate soft deletes a legal entity. Existing campaigns keep their
// reference; the entity just stops being offered for new attachments.
func (s *LegalEntityService) Deactivate(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate legal entity")
	}
	s.emitAudit(ctx, actor, models.AuditActionLegalEntityDelete, id)
	return nil
}

// List returns legal entities with a total count.
func (s *LegalEntityService) List(ctx context.Context, filter models.LegalEntityFilter, actor *models.JWTClaims) ([]models.LegalEntity, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	entities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list legal entities")
	}
	return entities, total, nil
}

func (s *LegalEntityService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, entityID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "legal_entity",
		ResourceID: &entityID,
		IPAddress:  "system",
		UserAgent:  "legal-entity-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func parseEntityType(raw string) (models.LegalEntityType, error) {
	entityType := models.LegalEntityType(strings.ToUpper(strings.TrimSpace(raw)))
	switch entityType {
	case models.LegalEntityTypeNonprofit, models.LegalEntityTypeCompany, models.LegalEntityTypeIndividual:
		return entityType, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown entity type %q", raw))
	}
}
