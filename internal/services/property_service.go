package services

import (
	"context"
	"strings"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxPropertyPrice   = 1e11
	maxPropertySize    = 1e7
	maxAddressLength   = 255
	maxDescriptionSize = 2000
)

type PropertyService interface {
	CreateProperty(ctx context.Context, actor models.Actor, in *models.PropertyInput) (*models.Property, error)
	GetProperty(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Property, error)
	ListProperties(ctx context.Context, actor models.Actor, filter *models.PropertyFilter) ([]*models.Property, error)
	UpdateProperty(ctx context.Context, actor models.Actor, id uuid.UUID, in *models.PropertyInput) (*models.Property, error)
	// DeactivateProperty hides the property; blocked while it is rented or sold
	DeactivateProperty(ctx context.Context, actor models.Actor, id uuid.UUID) error
	// DeletePropertyPermanently removes a property that no rental or sale ever referenced
	DeletePropertyPermanently(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type propertyService struct {
	store repositories.Store
	log   *logger.Logger
}

func NewPropertyService(store repositories.Store, log *logger.Logger) PropertyService {
	return &propertyService{
		store: store,
		log:   log.Named("properties"),
	}
}

func validatePropertyInput(in *models.PropertyInput, create bool) error {
	details := map[string]string{}

	if in.Address != nil {
		address := strings.TrimSpace(*in.Address)
		switch {
		case address == "":
			details["address"] = "address is required"
		case len(address) > maxAddressLength:
			details["address"] = "address is too long"
		}
		in.Address = &address
	} else if create {
		details["address"] = "address is required"
	}

	if in.Price != nil {
		if err := common.ValidatePositiveFloat(*in.Price, "price", maxPropertyPrice); err != nil {
			details["price"] = err.Error()
		}
	} else if create {
		details["price"] = "price is required"
	}

	if create && (in.TypeID == nil || *in.TypeID == uuid.Nil) {
		details["type_id"] = "type_id is required"
	}
	if in.SizeM2 != nil {
		if err := common.ValidatePositiveFloat(*in.SizeM2, "size_m2", maxPropertySize); err != nil {
			details["size_m2"] = err.Error()
		}
	}
	if err := common.ValidateOptionalString(in.Description, "description", maxDescriptionSize); err != nil {
		details["description"] = err.Error()
	}

	if len(details) > 0 {
		return common.NewValidationErrors(details)
	}
	return nil
}

// activeType loads a property type that must exist and be active
func activeType(ctx context.Context, tx repositories.Store, id uuid.UUID) error {
	pt, err := tx.PropertyTypes().GetByID(ctx, id)
	if err != nil {
		return translateStoreErr("get property type", err)
	}
	if pt == nil || !pt.Active {
		return common.NewNotFoundError("property type")
	}
	return nil
}

// resolveAgent returns the agent responsible for a property. Agents are always
// assigned to themselves; admins may name any active staff user.
func resolveAgent(ctx context.Context, tx repositories.Store, actor models.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.Role != models.RoleAdmin || requested == nil || *requested == uuid.Nil {
		return actor.UserID, nil
	}

	agent, err := tx.Users().GetByID(ctx, *requested)
	if err != nil {
		return uuid.Nil, translateStoreErr("get agent", err)
	}
	if agent == nil || !agent.Active {
		return uuid.Nil, common.NewNotFoundError("agent")
	}
	if !agent.Role.IsStaff() {
		return uuid.Nil, common.NewValidationError("agent_id", "agent must be an admin or agent user")
	}
	return agent.ID, nil
}

func (s *propertyService) CreateProperty(ctx context.Context, actor models.Actor, in *models.PropertyInput) (*models.Property, error) {
	if err := authz.Check(actor, authz.PropertyCreate); err != nil {
		return nil, err
	}
	if err := validatePropertyInput(in, true); err != nil {
		return nil, err
	}

	var property *models.Property
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := activeType(ctx, tx, *in.TypeID); err != nil {
			return err
		}
		agentID, err := resolveAgent(ctx, tx, actor, in.AgentID)
		if err != nil {
			return err
		}

		property = &models.Property{
			ID:          uuid.New(),
			Address:     *in.Address,
			Price:       *in.Price,
			Status:      models.PropertyAvailable,
			Active:      true,
			TypeID:      *in.TypeID,
			AgentID:     agentID,
			Description: in.Description,
			SizeM2:      in.SizeM2,
		}
		if err := tx.Properties().Create(ctx, property); err != nil {
			return translateStoreErr("create property", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Property created",
		zap.String("property_id", property.ID.String()),
		zap.String("agent_id", property.AgentID.String()),
	)
	return property, nil
}

func (s *propertyService) GetProperty(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Property, error) {
	if err := authz.Check(actor, authz.PropertyRead); err != nil {
		return nil, err
	}
	property, err := s.store.Properties().GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr("get property", err)
	}
	if property == nil || (!property.Active && !actor.IsStaff()) {
		return nil, common.NewNotFoundError("property")
	}
	return property, nil
}

func (s *propertyService) ListProperties(ctx context.Context, actor models.Actor, filter *models.PropertyFilter) ([]*models.Property, error) {
	if err := authz.Check(actor, authz.PropertyList); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &models.PropertyFilter{}
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, common.NewValidationError("status", "status must be one of available, rented, sold")
	}
	if !actor.IsStaff() {
		filter.IncludeInactive = false
	}

	properties, err := s.store.Properties().List(ctx, filter)
	if err != nil {
		return nil, translateStoreErr("list properties", err)
	}
	return properties, nil
}

// UpdateProperty edits descriptive fields. Status is owned by the rental and
// sale lifecycles and cannot be set here.
func (s *propertyService) UpdateProperty(ctx context.Context, actor models.Actor, id uuid.UUID, in *models.PropertyInput) (*models.Property, error) {
	if err := authz.Check(actor, authz.PropertyUpdate); err != nil {
		return nil, err
	}
	if err := validatePropertyInput(in, false); err != nil {
		return nil, err
	}

	var property *models.Property
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		property, err = lockProperty(ctx, tx, id)
		if err != nil {
			return err
		}
		if !property.Active {
			return common.NewNotFoundError("property")
		}

		if in.Address != nil {
			property.Address = *in.Address
		}
		if in.Price != nil {
			property.Price = *in.Price
		}
		if in.TypeID != nil && *in.TypeID != property.TypeID {
			if err := activeType(ctx, tx, *in.TypeID); err != nil {
				return err
			}
			property.TypeID = *in.TypeID
		}
		if in.AgentID != nil && *in.AgentID != property.AgentID {
			if actor.Role != models.RoleAdmin {
				return common.NewForbiddenError("Only admins can reassign a property")
			}
			agentID, err := resolveAgent(ctx, tx, actor, in.AgentID)
			if err != nil {
				return err
			}
			property.AgentID = agentID
		}
		if in.Description != nil {
			property.Description = in.Description
		}
		if in.SizeM2 != nil {
			property.SizeM2 = in.SizeM2
		}

		if err := tx.Properties().Update(ctx, property); err != nil {
			return translateStoreErr("update property", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

func (s *propertyService) DeactivateProperty(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := authz.Check(actor, authz.PropertyDeactivate); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		property, err := lockProperty(ctx, tx, id)
		if err != nil {
			return err
		}
		if !property.Active {
			return common.NewNotFoundError("property")
		}

		activeRentals, err := tx.Rentals().CountByProperty(ctx, id, models.RentalActive)
		if err != nil {
			return translateStoreErr("count rentals", err)
		}
		finalizedSales, err := tx.Sales().CountByProperty(ctx, id, models.SaleFinalized)
		if err != nil {
			return translateStoreErr("count sales", err)
		}
		if activeRentals > 0 || finalizedSales > 0 {
			return common.NewConflictError("property has an active rental or a finalized sale")
		}

		property.Active = false
		if err := tx.Properties().Update(ctx, property); err != nil {
			return translateStoreErr("deactivate property", err)
		}
		s.log.WithContext(ctx).Info("Property deactivated", zap.String("property_id", id.String()))
		return logTransition(ctx, tx.AuditLogs(), actor, models.EntityProperty, id, models.ActionSoftDelete, string(property.Status), string(property.Status))
	})
}

func (s *propertyService) DeletePropertyPermanently(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := authz.Check(actor, authz.PropertyDelete); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		property, err := lockProperty(ctx, tx, id)
		if err != nil {
			return err
		}

		rentals, err := tx.Rentals().CountByProperty(ctx, id)
		if err != nil {
			return translateStoreErr("count rentals", err)
		}
		sales, err := tx.Sales().CountByProperty(ctx, id)
		if err != nil {
			return translateStoreErr("count sales", err)
		}
		if rentals > 0 || sales > 0 {
			return common.NewConflictError("property has %d rental(s) and %d sale(s) on record", rentals, sales)
		}

		if err := tx.Properties().Delete(ctx, id); err != nil {
			return translateStoreErr("delete property", err)
		}
		s.log.WithContext(ctx).Warn("Property deleted permanently", zap.String("property_id", id.String()))
		return logTransition(ctx, tx.AuditLogs(), actor, models.EntityProperty, id, models.ActionDelete, string(property.Status), "")
	})
}
