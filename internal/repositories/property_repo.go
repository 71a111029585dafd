package repositories

import (
	"context"
	"errors"
	"fmt"

	"inmobiliaria/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	// GetForUpdate reads the property and locks its row until the transaction ends
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Property, error)
	// Update writes every mutable column if property.Version still matches,
	// returning ErrVersionConflict otherwise. On success property.Version is bumped.
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.PropertyFilter) ([]*models.Property, error)
	CountByType(ctx context.Context, typeID uuid.UUID, activeOnly bool) (int, error)
	CountByAgent(ctx context.Context, agentID uuid.UUID) (int, error)
}

type propertyRepo struct {
	db DBTX
}

func NewPropertyRepo(db DBTX) PropertyRepository {
	return &propertyRepo{db: db}
}

const propertyColumns = `id, address, price, status, active, type_id, agent_id, description, size_m2, version, created_at, updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	p := &models.Property{}
	err := row.Scan(
		&p.ID,
		&p.Address,
		&p.Price,
		&p.Status,
		&p.Active,
		&p.TypeID,
		&p.AgentID,
		&p.Description,
		&p.SizeM2,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	query := `
		INSERT INTO properties (id, address, price, status, active, type_id, agent_id, description, size_m2, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, p.ID, p.Address, p.Price, p.Status, p.Active, p.TypeID, p.AgentID, p.Description, p.SizeM2)
	if err != nil {
		return translateWriteErr(err)
	}
	p.Version = 1
	return nil
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	p, err := scanProperty(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *propertyRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 FOR UPDATE`
	p, err := scanProperty(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *propertyRepo) Update(ctx context.Context, p *models.Property) error {
	query := `
		UPDATE properties
		SET address = $1, price = $2, status = $3, active = $4, type_id = $5, agent_id = $6,
			description = $7, size_m2 = $8, version = version + 1, updated_at = NOW()
		WHERE id = $9 AND version = $10
	`
	tag, err := r.db.Exec(ctx, query,
		p.Address, p.Price, p.Status, p.Active, p.TypeID, p.AgentID,
		p.Description, p.SizeM2, p.ID, p.Version,
	)
	if err != nil {
		return translateWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	p.Version++
	return nil
}

func (r *propertyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	return err
}

func (r *propertyRepo) List(ctx context.Context, filter *models.PropertyFilter) ([]*models.Property, error) {
	if filter == nil {
		filter = &models.PropertyFilter{}
	}

	query := `SELECT ` + propertyColumns + ` FROM properties WHERE 1 = 1`
	args := []interface{}{}
	argIdx := 0

	if !filter.IncludeInactive {
		query += " AND active = true"
	}
	if filter.Status != nil {
		argIdx++
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
	}
	if filter.TypeID != nil {
		argIdx++
		query += fmt.Sprintf(" AND type_id = $%d", argIdx)
		args = append(args, *filter.TypeID)
	}
	if filter.AgentID != nil {
		argIdx++
		query += fmt.Sprintf(" AND agent_id = $%d", argIdx)
		args = append(args, *filter.AgentID)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx+1, argIdx+2)
	args = append(args, limitOrDefault(filter.Limit), filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (r *propertyRepo) CountByType(ctx context.Context, typeID uuid.UUID, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM properties WHERE type_id = $1`
	if activeOnly {
		query += ` AND active = true`
	}
	var count int
	err := r.db.QueryRow(ctx, query, typeID).Scan(&count)
	return count, err
}

func (r *propertyRepo) CountByAgent(ctx context.Context, agentID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM properties WHERE agent_id = $1`, agentID).Scan(&count)
	return count, err
}
