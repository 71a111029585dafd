package repositories

import (
	"context"
	"errors"
	"fmt"

	"inmobiliaria/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PropertyTypeRepository interface {
	Create(ctx context.Context, pt *models.PropertyType) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyType, error)
	Update(ctx context.Context, pt *models.PropertyType) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, includeInactive bool) ([]*models.PropertyType, error)
}

type propertyTypeRepo struct {
	db DBTX
}

func NewPropertyTypeRepo(db DBTX) PropertyTypeRepository {
	return &propertyTypeRepo{db: db}
}

func (r *propertyTypeRepo) Create(ctx context.Context, pt *models.PropertyType) error {
	query := `
		INSERT INTO property_types (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, pt.ID, pt.Name, pt.Active)
	return translateWriteErr(err)
}

func (r *propertyTypeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyType, error) {
	pt := &models.PropertyType{}
	query := `SELECT id, name, active, created_at, updated_at FROM property_types WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&pt.ID, &pt.Name, &pt.Active, &pt.CreatedAt, &pt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pt, nil
}

func (r *propertyTypeRepo) Update(ctx context.Context, pt *models.PropertyType) error {
	query := `UPDATE property_types SET name = $1, active = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, pt.Name, pt.Active, pt.ID)
	if err != nil {
		return translateWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("property type %s not found", pt.ID)
	}
	return nil
}

func (r *propertyTypeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM property_types WHERE id = $1`, id)
	return err
}

func (r *propertyTypeRepo) List(ctx context.Context, includeInactive bool) ([]*models.PropertyType, error) {
	query := `SELECT id, name, active, created_at, updated_at FROM property_types`
	if !includeInactive {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*models.PropertyType
	for rows.Next() {
		pt := &models.PropertyType{}
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Active, &pt.CreatedAt, &pt.UpdatedAt); err != nil {
			return nil, err
		}
		types = append(types, pt)
	}
	return types, rows.Err()
}
