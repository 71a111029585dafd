package services

import (
	"context"
	"strings"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"

	"github.com/google/uuid"
)

const maxTypeNameLength = 50

type PropertyTypeService interface {
	ListTypes(ctx context.Context, actor models.Actor, includeInactive bool) ([]*models.PropertyType, error)
	CreateType(ctx context.Context, actor models.Actor, name string) (*models.PropertyType, error)
	UpdateType(ctx context.Context, actor models.Actor, id uuid.UUID, name string) (*models.PropertyType, error)
	// DeactivateType is blocked while an active property uses the type
	DeactivateType(ctx context.Context, actor models.Actor, id uuid.UUID) error
	// DeleteTypePermanently is blocked while any property uses the type
	DeleteTypePermanently(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type propertyTypeService struct {
	store repositories.Store
}

func NewPropertyTypeService(store repositories.Store) PropertyTypeService {
	return &propertyTypeService{store: store}
}

func validateTypeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", common.NewValidationError("name", "name is required")
	}
	if len(name) > maxTypeNameLength {
		return "", common.NewValidationError("name", "name is too long")
	}
	return name, nil
}

func (s *propertyTypeService) ListTypes(ctx context.Context, actor models.Actor, includeInactive bool) ([]*models.PropertyType, error) {
	if err := authz.Check(actor, authz.PropertyTypeList); err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		includeInactive = false
	}
	types, err := s.store.PropertyTypes().List(ctx, includeInactive)
	if err != nil {
		return nil, translateStoreErr("list property types", err)
	}
	return types, nil
}

func (s *propertyTypeService) CreateType(ctx context.Context, actor models.Actor, name string) (*models.PropertyType, error) {
	if err := authz.Check(actor, authz.PropertyTypeManage); err != nil {
		return nil, err
	}
	name, err := validateTypeName(name)
	if err != nil {
		return nil, err
	}

	pt := &models.PropertyType{ID: uuid.New(), Name: name, Active: true}
	if err := s.store.PropertyTypes().Create(ctx, pt); err != nil {
		return nil, translateStoreErr("create property type", err)
	}
	return pt, nil
}

func (s *propertyTypeService) UpdateType(ctx context.Context, actor models.Actor, id uuid.UUID, name string) (*models.PropertyType, error) {
	if err := authz.Check(actor, authz.PropertyTypeManage); err != nil {
		return nil, err
	}
	name, err := validateTypeName(name)
	if err != nil {
		return nil, err
	}

	pt, err := s.store.PropertyTypes().GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr("get property type", err)
	}
	if pt == nil {
		return nil, common.NewNotFoundError("property type")
	}
	pt.Name = name
	if err := s.store.PropertyTypes().Update(ctx, pt); err != nil {
		return nil, translateStoreErr("update property type", err)
	}
	return pt, nil
}

func (s *propertyTypeService) DeactivateType(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := authz.Check(actor, authz.PropertyTypeManage); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		pt, err := tx.PropertyTypes().GetByID(ctx, id)
		if err != nil {
			return translateStoreErr("get property type", err)
		}
		if pt == nil || !pt.Active {
			return common.NewNotFoundError("property type")
		}
		n, err := tx.Properties().CountByType(ctx, id, true)
		if err != nil {
			return translateStoreErr("count properties", err)
		}
		if n > 0 {
			return common.NewConflictError("%d active propert(ies) use this type", n)
		}

		pt.Active = false
		if err := tx.PropertyTypes().Update(ctx, pt); err != nil {
			return translateStoreErr("deactivate property type", err)
		}
		return nil
	})
}

func (s *propertyTypeService) DeleteTypePermanently(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := authz.Check(actor, authz.PropertyTypeDelete); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		pt, err := tx.PropertyTypes().GetByID(ctx, id)
		if err != nil {
			return translateStoreErr("get property type", err)
		}
		if pt == nil {
			return common.NewNotFoundError("property type")
		}
		n, err := tx.Properties().CountByType(ctx, id, false)
		if err != nil {
			return translateStoreErr("count properties", err)
		}
		if n > 0 {
			return common.NewConflictError("%d propert(ies) use this type", n)
		}
		if err := tx.PropertyTypes().Delete(ctx, id); err != nil {
			return translateStoreErr("delete property type", err)
		}
		return nil
	})
}
