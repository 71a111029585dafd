package services

import (
	"context"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"

	"github.com/google/uuid"
)

type AuditLogsService interface {
	ListAuditLogs(ctx context.Context, actor models.Actor, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	GetEntityHistory(ctx context.Context, actor models.Actor, entity string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)

	// Validation methods
	ValidateAuditFilters(filters *models.AuditLogFilters) error
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
	}
}

// logTransition writes one audit row through repo, which is bound to the
// caller's transaction. Background jobs run as the system actor and are
// stored without an actor id.
func logTransition(ctx context.Context, repo repositories.AuditLogsRepository, actor models.Actor, entity string, entityID uuid.UUID, action, from, to string) error {
	var actorID *uuid.UUID
	if actor.UserID != uuid.Nil {
		id := actor.UserID
		actorID = &id
	}

	err := repo.Create(ctx, &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
	})
	if err != nil {
		return common.SecureErrorMessage("write audit log", err)
	}
	return nil
}

func (s *auditLogsService) ListAuditLogs(ctx context.Context, actor models.Actor, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if err := authz.Check(actor, authz.AuditList); err != nil {
		return nil, err
	}
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if err := s.ValidateAuditFilters(filters); err != nil {
		return nil, err
	}

	logs, err := s.auditLogsRepo.List(ctx, filters)
	if err != nil {
		return nil, common.SecureErrorMessage("list audit logs", err)
	}
	return logs, nil
}

func (s *auditLogsService) GetEntityHistory(ctx context.Context, actor models.Actor, entity string, entityID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	return s.ListAuditLogs(ctx, actor, &models.AuditLogFilters{
		Entity:   &entity,
		EntityID: &entityID,
		Limit:    limit,
		Offset:   offset,
	})
}

// ValidateAuditFilters validates audit log filters
func (s *auditLogsService) ValidateAuditFilters(filters *models.AuditLogFilters) error {
	if filters.Entity != nil {
		switch *filters.Entity {
		case models.EntityProperty, models.EntityRental, models.EntitySale:
		default:
			return common.NewValidationError("entity", "entity must be one of property, rental, sale")
		}
	}

	limit, offset, err := common.ValidatePaginationParams(filters.Limit, filters.Offset)
	if err != nil {
		return common.NewValidationError("offset", err.Error())
	}
	filters.Limit, filters.Offset = limit, offset

	if filters.EntityID != nil && *filters.EntityID == uuid.Nil {
		return common.NewValidationError("entity_id", "entity_id cannot be empty")
	}
	return nil
}
