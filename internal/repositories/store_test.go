package repositories

import (
	"context"
	"errors"
	"testing"

	"inmobiliaria/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	rentalID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM rentals WHERE id = \$1`).
		WithArgs(rentalID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	err = store.WithinTx(context.Background(), func(ctx context.Context, tx Store) error {
		return tx.Rentals().Delete(ctx, rentalID)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	propertyID := uuid.New()
	conflict := errors.New("property not available")

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err = store.WithinTx(context.Background(), func(ctx context.Context, tx Store) error {
		p, err := tx.Properties().GetForUpdate(ctx, propertyID)
		if err != nil {
			return err
		}
		assert.Nil(t, p)
		return conflict
	})
	assert.ErrorIs(t, err, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_NestedCallsShareTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err = store.WithinTx(context.Background(), func(ctx context.Context, tx Store) error {
		return tx.WithinTx(ctx, func(ctx context.Context, inner Store) error {
			calls++
			return nil
		})
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err = NewStore(mock).WithinTx(context.Background(), func(ctx context.Context, tx Store) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	user := &models.User{
		ID:           uuid.New(),
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "hash",
		Age:          30,
		Role:         models.RoleClient,
		Active:       true,
	}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(user.ID, user.Name, user.Email, user.PasswordHash, user.Age, user.Role, user.Active).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err = NewUserRepo(mock).Create(context.Background(), user)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRentalCountByProperty_StatusFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	propertyID := uuid.New()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM rentals WHERE property_id = \$1 AND status = ANY\(\$2\)`).
		WithArgs(propertyID, []string{"active"}).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	count, err := NewRentalRepo(mock).CountByProperty(context.Background(), propertyID, models.RentalActive)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
