package repositories

import (
	"context"
	"fmt"
)

// Store groups the repositories over one connection or one transaction.
// Repositories obtained from the store passed to a WithinTx callback share that
// transaction.
type Store interface {
	Users() UserRepository
	Clients() ClientRepository
	PropertyTypes() PropertyTypeRepository
	Properties() PropertyRepository
	Rentals() RentalRepository
	Sales() SaleRepository
	AuditLogs() AuditLogsRepository

	// WithinTx runs fn in a transaction, committing when fn returns nil.
	// Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

type pgStore struct {
	pool Pool // nil inside a transaction
	db   DBTX
}

func NewStore(pool Pool) Store {
	return &pgStore{pool: pool, db: pool}
}

func (s *pgStore) Users() UserRepository                 { return NewUserRepo(s.db) }
func (s *pgStore) Clients() ClientRepository             { return NewClientRepo(s.db) }
func (s *pgStore) PropertyTypes() PropertyTypeRepository { return NewPropertyTypeRepo(s.db) }
func (s *pgStore) Properties() PropertyRepository        { return NewPropertyRepo(s.db) }
func (s *pgStore) Rentals() RentalRepository             { return NewRentalRepo(s.db) }
func (s *pgStore) Sales() SaleRepository                 { return NewSaleRepo(s.db) }
func (s *pgStore) AuditLogs() AuditLogsRepository        { return NewAuditLogsRepo(s.db) }

func (s *pgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.pool == nil {
		return fn(ctx, s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, &pgStore{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *pgStore) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}
