package services

import (
	"context"

	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
)

// failingStore wraps a store and makes the chosen repository writes fail,
// inside and outside transactions
type failingStore struct {
	repositories.Store
	propertyUpdateErr error
	userUpdateErr     error
}

func (s *failingStore) Properties() repositories.PropertyRepository {
	return &failingPropertyRepo{PropertyRepository: s.Store.Properties(), err: s.propertyUpdateErr}
}

func (s *failingStore) Users() repositories.UserRepository {
	return &failingUserRepo{UserRepository: s.Store.Users(), err: s.userUpdateErr}
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		return fn(ctx, &failingStore{Store: tx, propertyUpdateErr: s.propertyUpdateErr, userUpdateErr: s.userUpdateErr})
	})
}

type failingPropertyRepo struct {
	repositories.PropertyRepository
	err error
}

func (r *failingPropertyRepo) Update(ctx context.Context, property *models.Property) error {
	if r.err != nil {
		return r.err
	}
	return r.PropertyRepository.Update(ctx, property)
}

type failingUserRepo struct {
	repositories.UserRepository
	err error
}

func (r *failingUserRepo) Update(ctx context.Context, user *models.User) error {
	if r.err != nil {
		return r.err
	}
	return r.UserRepository.Update(ctx, user)
}
