package repositories

import (
	"context"
	"errors"
	"fmt"

	"inmobiliaria/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	Update(ctx context.Context, sale *models.Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *models.SaleFilter) ([]*models.Sale, error)
	CountByProperty(ctx context.Context, propertyID uuid.UUID, statuses ...models.SaleStatus) (int, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type saleRepo struct {
	db DBTX
}

func NewSaleRepo(db DBTX) SaleRepository {
	return &saleRepo{db: db}
}

const saleColumns = `id, property_id, client_id, user_id, sale_date, total_amount, status, active, created_at, updated_at`

func scanSale(row pgx.Row) (*models.Sale, error) {
	sale := &models.Sale{}
	err := row.Scan(
		&sale.ID,
		&sale.PropertyID,
		&sale.ClientID,
		&sale.UserID,
		&sale.SaleDate,
		&sale.TotalAmount,
		&sale.Status,
		&sale.Active,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *saleRepo) Create(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales (id, property_id, client_id, user_id, sale_date, total_amount, status, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		sale.ID, sale.PropertyID, sale.ClientID, sale.UserID, sale.SaleDate,
		sale.TotalAmount, sale.Status, sale.Active,
	)
	return translateWriteErr(err)
}

func (r *saleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	sale, err := scanSale(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return sale, err
}

func (r *saleRepo) Update(ctx context.Context, sale *models.Sale) error {
	query := `
		UPDATE sales
		SET sale_date = $1, total_amount = $2, status = $3, active = $4, updated_at = NOW()
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query, sale.SaleDate, sale.TotalAmount, sale.Status, sale.Active, sale.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale %s not found", sale.ID)
	}
	return nil
}

func (r *saleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	return err
}

func (r *saleRepo) List(ctx context.Context, filter *models.SaleFilter) ([]*models.Sale, error) {
	if filter == nil {
		filter = &models.SaleFilter{}
	}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE 1 = 1`
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

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx+1, argIdx+2)
	args = append(args, limitOrDefault(filter.Limit), filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (r *saleRepo) CountByProperty(ctx context.Context, propertyID uuid.UUID, statuses ...models.SaleStatus) (int, error) {
	query := `SELECT COUNT(*) FROM sales WHERE property_id = $1`
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

func (r *saleRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE client_id = $1`, clientID).Scan(&count)
	return count, err
}

func (r *saleRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
