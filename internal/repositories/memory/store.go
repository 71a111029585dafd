// Package memory is an in-process implementation of repositories.Store used
// for local runs (STORAGE_DRIVER=memory) and tests. Transactions are
// serialized by one mutex and work on a copy of the state that replaces the
// live state only on commit.
package memory

import (
	"context"
	"sync"
	"time"

	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"

	"github.com/google/uuid"
)

type state struct {
	users         map[uuid.UUID]models.User
	clients       map[uuid.UUID]models.Client
	propertyTypes map[uuid.UUID]models.PropertyType
	properties    map[uuid.UUID]models.Property
	rentals       map[uuid.UUID]models.Rental
	sales         map[uuid.UUID]models.Sale
	auditLogs     []models.AuditLog
}

func newState() *state {
	return &state{
		users:         map[uuid.UUID]models.User{},
		clients:       map[uuid.UUID]models.Client{},
		propertyTypes: map[uuid.UUID]models.PropertyType{},
		properties:    map[uuid.UUID]models.Property{},
		rentals:       map[uuid.UUID]models.Rental{},
		sales:         map[uuid.UUID]models.Sale{},
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		users:         cloneMap(s.users),
		clients:       cloneMap(s.clients),
		propertyTypes: cloneMap(s.propertyTypes),
		properties:    cloneMap(s.properties),
		rentals:       cloneMap(s.rentals),
		sales:         cloneMap(s.sales),
		auditLogs:     append([]models.AuditLog(nil), s.auditLogs...),
	}
}

// Store keeps every entity in maps guarded by mu
type Store struct {
	mu    sync.Mutex
	state *state
	nowFn func() time.Time
}

func NewStore() *Store {
	return &Store{
		state: newState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// view binds repositories either to the live state (locking per call) or to
// the private copy of a running transaction (already locked).
type view struct {
	store *Store
	tx    *state
}

func (v *view) read(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func (v *view) now() time.Time {
	return v.store.nowFn()
}

func (s *Store) live() *view { return &view{store: s} }

func (s *Store) Users() repositories.UserRepository { return &userRepo{v: s.live()} }
func (s *Store) Clients() repositories.ClientRepository {
	return &clientRepo{v: s.live()}
}
func (s *Store) PropertyTypes() repositories.PropertyTypeRepository {
	return &propertyTypeRepo{v: s.live()}
}
func (s *Store) Properties() repositories.PropertyRepository {
	return &propertyRepo{v: s.live()}
}
func (s *Store) Rentals() repositories.RentalRepository { return &rentalRepo{v: s.live()} }
func (s *Store) Sales() repositories.SaleRepository     { return &saleRepo{v: s.live()} }
func (s *Store) AuditLogs() repositories.AuditLogsRepository {
	return &auditLogsRepo{v: s.live()}
}

// WithinTx holds the store lock for the whole callback, so transactions never interleave
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txStore{v: &view{store: s, tx: s.state.clone()}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.v.tx
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type txStore struct {
	v *view
}

func (t *txStore) Users() repositories.UserRepository     { return &userRepo{v: t.v} }
func (t *txStore) Clients() repositories.ClientRepository { return &clientRepo{v: t.v} }
func (t *txStore) PropertyTypes() repositories.PropertyTypeRepository {
	return &propertyTypeRepo{v: t.v}
}
func (t *txStore) Properties() repositories.PropertyRepository { return &propertyRepo{v: t.v} }
func (t *txStore) Rentals() repositories.RentalRepository       { return &rentalRepo{v: t.v} }
func (t *txStore) Sales() repositories.SaleRepository           { return &saleRepo{v: t.v} }
func (t *txStore) AuditLogs() repositories.AuditLogsRepository  { return &auditLogsRepo{v: t.v} }

func (t *txStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	return fn(ctx, t)
}

func (t *txStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

var (
	_ repositories.Store = (*Store)(nil)
	_ repositories.Store = (*txStore)(nil)
)
