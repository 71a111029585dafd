package repositories

import (
	"context"
	"errors"
	"fmt"

	"inmobiliaria/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RentalRepository interface {
	Create(ctx context.Context, rental *models.Rental) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	Update(ctx context.Context, rental *models.Rental) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.RentalFilter) ([]*models.Rental, error)
	// CountByProperty counts rentals of a property, restricted to statuses when given
	CountByProperty(ctx context.Context, propertyID uuid.UUID, statuses ...models.RentalStatus) (int, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
}

type rentalRepo struct {
	db DBTX
}

func NewRentalRepo(db DBTX) RentalRepository {
	return &rentalRepo{db: db}
}

const rentalColumns = `id, property_id, client_id, start_date, end_date, monthly_amount, status, active, created_at, updated_at`

func scanRental(row pgx.Row) (*models.Rental, error) {
	rental := &models.Rental{}
	err := row.Scan(
		&rental.ID,
		&rental.PropertyID,
		&rental.ClientID,
		&rental.StartDate,
		&rental.EndDate,
		&rental.MonthlyAmount,
		&rental.Status,
		&rental.Active,
		&rental.CreatedAt,
		&rental.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (r *rentalRepo) Create(ctx context.Context, rental *models.Rental) error {
	query := `
		INSERT INTO rentals (id, property_id, client_id, start_date, end_date, monthly_amount, status, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		rental.ID, rental.PropertyID, rental.ClientID, rental.StartDate, rental.EndDate,
		rental.MonthlyAmount, rental.Status, rental.Active,
	)
	return translateWriteErr(err)
}

func (r *rentalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rental, err := scanRental(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rental, err
}

func (r *rentalRepo) Update(ctx context.Context, rental *models.Rental) error {
	query := `
		UPDATE rentals
		SET start_date = $1, end_date = $2, monthly_amount = $3, status = $4, active = $5, updated_at = NOW()
		WHERE id = $6
	`
	tag, err := r.db.Exec(ctx, query,
		rental.StartDate, rental.EndDate, rental.MonthlyAmount, rental.Status, rental.Active, rental.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rental %s not found", rental.ID)
	}
	return nil
}

func (r *rentalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	return err
}

func (r *rentalRepo) List(ctx context.Context, filter *models.RentalFilter) ([]*models.Rental, error) {
	if filter == nil {
		filter = &models.RentalFilter{}
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE 1 = 1`
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
	if filter.ClientID != nil {
		argIdx++
		query += fmt.Sprintf(" AND client_id = $%d", argIdx)
		args = append(args, *filter.ClientID)
	}
	if filter.PropertyID != nil {
		argIdx++
		query += fmt.Sprintf(" AND property_id = $%d", argIdx)
		args = append(args, *filter.PropertyID)
	}
	if filter.EndsBefore != nil {
		argIdx++
		query += fmt.Sprintf(" AND end_date < $%d", argIdx)
		args = append(args, *filter.EndsBefore)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx+1, argIdx+2)
	args = append(args, limitOrDefault(filter.Limit), filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []*models.Rental
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
	}
	return rentals, rows.Err()
}

func (r *rentalRepo) CountByProperty(ctx context.Context, propertyID uuid.UUID, statuses ...models.RentalStatus) (int, error) {
	query := `SELECT COUNT(*) FROM rentals WHERE property_id = $1`
	args := []interface{}{propertyID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, values)
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *rentalRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM rentals WHERE client_id = $1`, clientID).Scan(&count)
	return count, err
}
