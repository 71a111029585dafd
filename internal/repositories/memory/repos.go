package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"

	"github.com/google/uuid"
)

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func newestFirst[T any](items []T, created func(T) time.Time, id func(T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]).String() < id(items[j]).String()
	})
}

// users

type userRepo struct{ v *view }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	return r.v.read(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) {
				return repositories.ErrDuplicate
			}
		}
		now := r.v.now()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.v.read(func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	return r.v.read(func(st *state) error {
		current, ok := st.users[user.ID]
		if !ok {
			return fmt.Errorf("user %s not found", user.ID)
		}
		for id, u := range st.users {
			if id != user.ID && strings.EqualFold(u.Email, user.Email) {
				return repositories.ErrDuplicate
			}
		}
		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = r.v.now()
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.read(func(st *state) error {
		delete(st.users, id)
		return nil
	})
}

func (r *userRepo) List(_ context.Context, active bool, limit, offset int) ([]*models.User, error) {
	var out []*models.User
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if u.Active == active {
				u := u
				out = append(out, &u)
			}
		}
		return nil
	})
	newestFirst(out, func(u *models.User) time.Time { return u.CreatedAt }, func(u *models.User) uuid.UUID { return u.ID })
	return page(out, limit, offset), err
}

// clients

type clientRepo struct{ v *view }

func clientConflicts(st *state, client *models.Client) bool {
	for id, c := range st.clients {
		if id == client.ID {
			continue
		}
		if c.DocumentID == client.DocumentID || c.UserID == client.UserID {
			return true
		}
	}
	return false
}

func (r *clientRepo) Create(_ context.Context, client *models.Client) error {
	return r.v.read(func(st *state) error {
		if clientConflicts(st, client) {
			return repositories.ErrDuplicate
		}
		now := r.v.now()
		client.CreatedAt, client.UpdatedAt = now, now
		st.clients[client.ID] = *client
		return nil
	})
}

func (r *clientRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	var out *models.Client
	err := r.v.read(func(st *state) error {
		if c, ok := st.clients[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *clientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Client, error) {
	var out *models.Client
	err := r.v.read(func(st *state) error {
		for _, c := range st.clients {
			if c.UserID == userID {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *clientRepo) Update(_ context.Context, client *models.Client) error {
	return r.v.read(func(st *state) error {
		current, ok := st.clients[client.ID]
		if !ok {
			return fmt.Errorf("client %s not found", client.ID)
		}
		if clientConflicts(st, client) {
			return repositories.ErrDuplicate
		}
		client.UserID = current.UserID
		client.CreatedAt = current.CreatedAt
		client.UpdatedAt = r.v.now()
		st.clients[client.ID] = *client
		return nil
	})
}

func (r *clientRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.read(func(st *state) error {
		delete(st.clients, id)
		return nil
	})
}

func (r *clientRepo) List(_ context.Context, includeInactive bool, limit, offset int) ([]*models.Client, error) {
	var out []*models.Client
	err := r.v.read(func(st *state) error {
		for _, c := range st.clients {
			if c.Active || includeInactive {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	newestFirst(out, func(c *models.Client) time.Time { return c.CreatedAt }, func(c *models.Client) uuid.UUID { return c.ID })
	return page(out, limit, offset), err
}

// property types

type propertyTypeRepo struct{ v *view }

func typeNameTaken(st *state, pt *models.PropertyType) bool {
	for id, t := range st.propertyTypes {
		if id != pt.ID && strings.EqualFold(t.Name, pt.Name) {
			return true
		}
	}
	return false
}

func (r *propertyTypeRepo) Create(_ context.Context, pt *models.PropertyType) error {
	return r.v.read(func(st *state) error {
		if typeNameTaken(st, pt) {
			return repositories.ErrDuplicate
		}
		now := r.v.now()
		pt.CreatedAt, pt.UpdatedAt = now, now
		st.propertyTypes[pt.ID] = *pt
		return nil
	})
}

func (r *propertyTypeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PropertyType, error) {
	var out *models.PropertyType
	err := r.v.read(func(st *state) error {
		if t, ok := st.propertyTypes[id]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *propertyTypeRepo) Update(_ context.Context, pt *models.PropertyType) error {
	return r.v.read(func(st *state) error {
		current, ok := st.propertyTypes[pt.ID]
		if !ok {
			return fmt.Errorf("property type %s not found", pt.ID)
		}
		if typeNameTaken(st, pt) {
			return repositories.ErrDuplicate
		}
		pt.CreatedAt = current.CreatedAt
		pt.UpdatedAt = r.v.now()
		st.propertyTypes[pt.ID] = *pt
		return nil
	})
}

func (r *propertyTypeRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.read(func(st *state) error {
		delete(st.propertyTypes, id)
		return nil
	})
}

func (r *propertyTypeRepo) List(_ context.Context, includeInactive bool) ([]*models.PropertyType, error) {
	var out []*models.PropertyType
	err := r.v.read(func(st *state) error {
		for _, t := range st.propertyTypes {
			if t.Active || includeInactive {
				t := t
				out = append(out, &t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// properties

type propertyRepo struct{ v *view }

func (r *propertyRepo) Create(_ context.Context, p *models.Property) error {
	return r.v.read(func(st *state) error {
		now := r.v.now()
		p.CreatedAt, p.UpdatedAt = now, now
		p.Version = 1
		st.properties[p.ID] = *p
		return nil
	})
}

func (r *propertyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	var out *models.Property
	err := r.v.read(func(st *state) error {
		if p, ok := st.properties[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock: a transaction already owns the whole store
func (r *propertyRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.GetByID(ctx, id)
}

func (r *propertyRepo) Update(_ context.Context, p *models.Property) error {
	return r.v.read(func(st *state) error {
		current, ok := st.properties[p.ID]
		if !ok || current.Version != p.Version {
			return repositories.ErrVersionConflict
		}
		p.Version++
		p.CreatedAt = current.CreatedAt
		p.UpdatedAt = r.v.now()
		st.properties[p.ID] = *p
		return nil
	})
}

func (r *propertyRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.read(func(st *state) error {
		delete(st.properties, id)
		return nil
	})
}

func (r *propertyRepo) List(_ context.Context, filter *models.PropertyFilter) ([]*models.Property, error) {
	if filter == nil {
		filter = &models.PropertyFilter{}
	}
	var out []*models.Property
	err := r.v.read(func(st *state) error {
		for _, p := range st.properties {
			if !p.Active && !filter.IncludeInactive {
				continue
			}
			if filter.Status != nil && p.Status != *filter.Status {
				continue
			}
			if filter.TypeID != nil && p.TypeID != *filter.TypeID {
				continue
			}
			if filter.AgentID != nil && p.AgentID != *filter.AgentID {
				continue
			}
			p := p
			out = append(out, &p)
		}
		return nil
	})
	newestFirst(out, func(p *models.Property) time.Time { return p.CreatedAt }, func(p *models.Property) uuid.UUID { return p.ID })
	return page(out, filter.Limit, filter.Offset), err
}

func (r *propertyRepo) CountByType(_ context.Context, typeID uuid.UUID, activeOnly bool) (int, error) {
	count := 0
	err := r.v.read(func(st *state) error {
		for _, p := range st.properties {
			if p.TypeID == typeID && (p.Active || !activeOnly) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *propertyRepo) CountByAgent(_ context.Context, agentID uuid.UUID) (int, error) {
	count := 0
	err := r.v.read(func(st *state) error {
		for _, p := range st.properties {
			if p.AgentID == agentID {
				count++
			}
		}
		return nil
	})
	return count, err
}

// rentals

type rentalRepo struct{ v *view }

func (r *rentalRepo) Create(_ context.Context, rental *models.Rental) error {
	return r.v.read(func(st *state) error {
		now := r.v.now()
		rental.CreatedAt, rental.UpdatedAt = now, now
		st.rentals[rental.ID] = *rental
		return nil
	})
}

func (r *rentalRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Rental, error) {
	var out *models.Rental
	err := r.v.read(func(st *state) error {
		if rental, ok := st.rentals[id]; ok {
			out = &rental
		}
		return nil
	})
	return out, err
}

func (r *rentalRepo) Update(_ context.Context, rental *models.Rental) error {
	return r.v.read(func(st *state) error {
		current, ok := st.rentals[rental.ID]
		if !ok {
			return fmt.Errorf("rental %s not found", rental.ID)
		}
		rental.PropertyID, rental.ClientID = current.PropertyID, current.ClientID
		rental.CreatedAt = current.CreatedAt
		rental.UpdatedAt = r.v.now()
		st.rentals[rental.ID] = *rental
		return nil
	})
}

func (r *rentalRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.read(func(st *state) error {
		delete(st.rentals, id)
		return nil
	})
}

func (r *rentalRepo) List(_ context.Context, filter *models.RentalFilter) ([]*models.Rental, error) {
	if filter == nil {
		filter = &models.RentalFilter{}
	}
	var out []*models.Rental
	err := r.v.read(func(st *state) error {
		for _, rental := range st.rentals {
			if !rental.Active && !filter.IncludeInactive {
				continue
			}
			if filter.Status != nil && rental.Status != *filter.Status {
				continue
			}
			if filter.ClientID != nil && rental.ClientID != *filter.ClientID {
				continue
			}
			if filter.PropertyID != nil && rental.PropertyID != *filter.PropertyID {
				continue
			}
			if filter.EndsBefore != nil && !rental.EndDate.Before(*filter.EndsBefore) {
				continue
			}
			rental := rental
			out = append(out, &rental)
		}
		return nil
	})
	newestFirst(out, func(r *models.Rental) time.Time { return r.CreatedAt }, func(r *models.Rental) uuid.UUID { return r.ID })
	return page(out, filter.Limit, filter.Offset), err
}

func (r *rentalRepo) CountByProperty(_ context.Context, propertyID uuid.UUID, statuses ...models.RentalStatus) (int, error) {
	count := 0
	err := r.v.read(func(st *state) error {
		for _, rental := range st.rentals {
			if rental.PropertyID != propertyID {
				continue
			}
			if len(statuses) == 0 || containsStatus(statuses, rental.Status) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *rentalRepo) CountByClient(_ context.Context, clientID uuid.UUID) (int, error) {
	count := 0
	err := r.v.read(func(st *state) error {
		for _, rental := range st.rentals {
			if rental.ClientID == clientID {
				count++
			}
		}
		return nil
	})
	return count, err
}

// sales

type saleRepo struct{ v *view }

func (r *saleRepo) Create(_ context.Context, sale *models.Sale) error {
	return r.v.read(func(st *state) error {
		now := r.v.now()
		sale.CreatedAt, sale.UpdatedAt = now, now
		st.sales[sale.ID] = *sale
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Sale, error) {
	var out *models.Sale
	err := r.v.read(func(st *state) error {
		if sale, ok := st.sales[id]; ok {
			out = &sale
		}
		return nil
	})
	return out, err
}

func (r *saleRepo) Update(_ context.Context, sale *models.Sale) error {
	return r.v.read(func(st *state) error {
		current, ok := st.sales[sale.ID]
		if !ok {
			return fmt.Errorf("sale %s not found", sale.ID)
		}
		sale.PropertyID, sale.ClientID, sale.UserID = current.PropertyID, current.ClientID, current.UserID
		sale.CreatedAt = current.CreatedAt
		sale.UpdatedAt = r.v.now()
		st.sales[sale.ID] = *sale
		return nil
	})
}

func (r *saleRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.read(func(st *state) error {
		delete(st.sales, id)
		return nil
	})
}

func (r *saleRepo) List(_ context.Context, filter *models.SaleFilter) ([]*models.Sale, error) {
	if filter == nil {
		filter = &models.SaleFilter{}
	}
	var out []*models.Sale
	err := r.v.read(func(st *state) error {
		for _, sale := range st.sales {
			if !sale.Active && !filter.IncludeInactive {
				continue
			}
			if filter.Status != nil && sale.Status != *filter.Status {
				continue
			}
			if filter.ClientID != nil && sale.ClientID != *filter.ClientID {
				continue
			}
			if filter.PropertyID != nil && sale.PropertyID != *filter.PropertyID {
				continue
			}
			sale := sale
			out = append(out, &sale)
		}
		return nil
	})
	newestFirst(out, func(s *models.Sale) time.Time { return s.CreatedAt }, func(s *models.Sale) uuid.UUID { return s.ID })
	return page(out, filter.Limit, filter.Offset), err
}

func (r *saleRepo) CountByProperty(_ context.Context, propertyID uuid.UUID, statuses ...models.SaleStatus) (int, error) {
	count := 0
	err := r.v.read(func(st *state) error {
		for _, sale := range st.sales {
			if sale.PropertyID != propertyID {
				continue
			}
			if len(statuses) == 0 || containsStatus(statuses, sale.Status) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *saleRepo) CountByClient(_ context.Context, clientID uuid.UUID) (int, error) {
	count := 0
	err := r.v.read(func(st *state) error {
		for _, sale := range st.sales {
			if sale.ClientID == clientID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *saleRepo) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	err := r.v.read(func(st *state) error {
		for _, sale := range st.sales {
			if sale.UserID == userID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func containsStatus[S comparable](statuses []S, s S) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// audit logs

type auditLogsRepo struct{ v *view }

func (r *auditLogsRepo) Create(_ context.Context, auditLog *models.AuditLog) error {
	return r.v.read(func(st *state) error {
		if auditLog.ID == uuid.Nil {
			auditLog.ID = uuid.New()
		}
		auditLog.CreatedAt = r.v.now()
		st.auditLogs = append(st.auditLogs, *auditLog)
		return nil
	})
}

func (r *auditLogsRepo) List(_ context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	var out []*models.AuditLog
	err := r.v.read(func(st *state) error {
		// newest first: walk the append-only slice backwards
		for i := len(st.auditLogs) - 1; i >= 0; i-- {
			entry := st.auditLogs[i]
			if filters.Entity != nil && entry.Entity != *filters.Entity {
				continue
			}
			if filters.EntityID != nil && entry.EntityID != *filters.EntityID {
				continue
			}
			if filters.ActorID != nil && (entry.ActorID == nil || *entry.ActorID != *filters.ActorID) {
				continue
			}
			out = append(out, &entry)
		}
		return nil
	})
	return page(out, filters.Limit, filters.Offset), err
}
