package services

import (
	"context"
	"fmt"
	"strings"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt rejects longer inputs
	maxPasswordLength = 72
	minAge            = 18
	maxAge            = 120
	maxNameLength     = 100
)

// bcryptCost is lowered by tests
var bcryptCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// passwordProblem returns why password is unacceptable, or "" when it is fine
func passwordProblem(password string) string {
	switch {
	case len(password) < minPasswordLength:
		return fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	case len(password) > maxPasswordLength:
		return fmt.Sprintf("password must be at most %d bytes", maxPasswordLength)
	}
	return ""
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateUserInput checks the fields that are present; create requires
// name, email, password and age.
func validateUserInput(in *models.UserInput, create bool) error {
	details := map[string]string{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			details["name"] = "name is required"
		} else if len(name) > maxNameLength {
			details["name"] = "name is too long"
		}
		in.Name = &name
	} else if create {
		details["name"] = "name is required"
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := common.ValidateEmail(email); err != nil {
			details["email"] = err.Error()
		}
		in.Email = &email
	} else if create {
		details["email"] = "email is required"
	}

	if in.Password != nil {
		if msg := passwordProblem(*in.Password); msg != "" {
			details["password"] = msg
		}
	} else if create {
		details["password"] = "password is required"
	}

	if in.Age != nil {
		if *in.Age < minAge || *in.Age > maxAge {
			details["age"] = fmt.Sprintf("age must be between %d and %d", minAge, maxAge)
		}
	} else if create {
		details["age"] = "age is required"
	}

	if in.Role != nil {
		role, ok := models.ParseRole(*in.Role)
		if !ok {
			details["role"] = "role must be one of admin, agent, client"
		} else {
			r := string(role)
			in.Role = &r
		}
	}

	if len(details) > 0 {
		return common.NewValidationErrors(details)
	}
	return nil
}

type UserService interface {
	ListUsers(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.User, error)
	ListInactiveUsers(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.User, error)
	GetUser(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, actor models.Actor, in *models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, actor models.Actor, id uuid.UUID, in *models.UserInput) (*models.User, error)
	DeactivateUser(ctx context.Context, actor models.Actor, id uuid.UUID) error
	RestoreUser(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.User, error)
	DeleteUserPermanently(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type userService struct {
	store repositories.Store
	log   *logger.Logger
}

func NewUserService(store repositories.Store, log *logger.Logger) UserService {
	return &userService{store: store, log: log.Named("users")}
}

func (s *userService) ListUsers(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.User, error) {
	return s.list(ctx, actor, true, limit, offset)
}

func (s *userService) ListInactiveUsers(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.User, error) {
	return s.list(ctx, actor, false, limit, offset)
}

func (s *userService) list(ctx context.Context, actor models.Actor, active bool, limit, offset int) ([]*models.User, error) {
	if err := authz.Check(actor, authz.UserList); err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx, active, limit, offset)
	if err != nil {
		return nil, translateStoreErr("list users", err)
	}
	return users, nil
}

// requireSelfOrAdmin lets admins through and everyone else only to their own account
func requireSelfOrAdmin(actor models.Actor, id uuid.UUID) error {
	if actor.Role == models.RoleAdmin || actor.UserID == id {
		return nil
	}
	return common.NewForbiddenError("You can only access your own account")
}

func (s *userService) GetUser(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.User, error) {
	if err := authz.Check(actor, authz.UserRead); err != nil {
		return nil, err
	}
	if err := requireSelfOrAdmin(actor, id); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr("get user", err)
	}
	if user == nil || (!user.Active && actor.Role != models.RoleAdmin) {
		return nil, common.NewNotFoundError("user")
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, actor models.Actor, in *models.UserInput) (*models.User, error) {
	if err := authz.Check(actor, authz.UserCreate); err != nil {
		return nil, err
	}
	if err := validateUserInput(in, true); err != nil {
		return nil, err
	}

	role := models.RoleClient
	if in.Role != nil {
		role = models.Role(*in.Role)
	}
	hash, err := hashPassword(*in.Password)
	if err != nil {
		return nil, common.SecureErrorMessage("create user", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         *in.Name,
		Email:        *in.Email,
		PasswordHash: hash,
		Age:          *in.Age,
		Role:         role,
		Active:       true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, translateStoreErr("create user", err)
	}

	s.log.WithContext(ctx).Info("User created", zap.String("user_id", user.ID.String()), zap.String("role", string(role)))
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor models.Actor, id uuid.UUID, in *models.UserInput) (*models.User, error) {
	if err := authz.Check(actor, authz.UserUpdate); err != nil {
		return nil, err
	}
	if err := requireSelfOrAdmin(actor, id); err != nil {
		return nil, err
	}
	if err := validateUserInput(in, false); err != nil {
		return nil, err
	}
	if in.Role != nil && actor.Role != models.RoleAdmin {
		return nil, common.NewForbiddenError("Only admins can change roles")
	}

	var user *models.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		if err != nil {
			return translateStoreErr("get user", err)
		}
		if user == nil || !user.Active {
			return common.NewNotFoundError("user")
		}

		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Email != nil {
			user.Email = *in.Email
		}
		if in.Age != nil {
			user.Age = *in.Age
		}
		if in.Role != nil {
			user.Role = models.Role(*in.Role)
		}
		if in.Password != nil {
			hash, err := hashPassword(*in.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		if err := tx.Users().Update(ctx, user); err != nil {
			return translateStoreErr("update user", err)
		}
		return nil
	})
	if err != nil {
		return nil, common.SecureErrorMessage("update user", err)
	}
	return user, nil
}

func (s *userService) setActive(ctx context.Context, actor models.Actor, id uuid.UUID, active bool) (*models.User, error) {
	var user *models.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		if err != nil {
			return translateStoreErr("get user", err)
		}
		if user == nil {
			return common.NewNotFoundError("user")
		}
		if user.Active == active {
			if active {
				return common.NewConflictError("user is already active")
			}
			return common.NewConflictError("user is already inactive")
		}
		user.Active = active
		if err := tx.Users().Update(ctx, user); err != nil {
			return translateStoreErr("update user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("User active flag changed",
		zap.String("user_id", id.String()),
		zap.Bool("active", active),
		zap.String("by", actor.UserID.String()),
	)
	return user, nil
}

func (s *userService) DeactivateUser(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := authz.Check(actor, authz.UserDeactivate); err != nil {
		return err
	}
	if actor.UserID == id {
		return common.NewConflictError("you cannot deactivate your own account")
	}
	_, err := s.setActive(ctx, actor, id, false)
	return err
}

func (s *userService) RestoreUser(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.User, error) {
	if err := authz.Check(actor, authz.UserRestore); err != nil {
		return nil, err
	}
	return s.setActive(ctx, actor, id, true)
}

// DeleteUserPermanently removes a user that no property, sale or client
// history refers to. An unused client record is removed with the user.
func (s *userService) DeleteUserPermanently(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := authz.Check(actor, authz.UserDelete); err != nil {
		return err
	}
	if actor.UserID == id {
		return common.NewConflictError("you cannot delete your own account")
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return translateStoreErr("get user", err)
		}
		if user == nil {
			return common.NewNotFoundError("user")
		}

		properties, err := tx.Properties().CountByAgent(ctx, id)
		if err != nil {
			return translateStoreErr("count properties", err)
		}
		if properties > 0 {
			return common.NewConflictError("user is the agent of %d propert(ies)", properties)
		}
		issued, err := tx.Sales().CountByUser(ctx, id)
		if err != nil {
			return translateStoreErr("count sales", err)
		}
		if issued > 0 {
			return common.NewConflictError("user issued %d sale(s)", issued)
		}

		client, err := tx.Clients().GetByUserID(ctx, id)
		if err != nil {
			return translateStoreErr("get client", err)
		}
		if client != nil {
			rentals, err := tx.Rentals().CountByClient(ctx, client.ID)
			if err != nil {
				return translateStoreErr("count rentals", err)
			}
			sales, err := tx.Sales().CountByClient(ctx, client.ID)
			if err != nil {
				return translateStoreErr("count sales", err)
			}
			if rentals > 0 || sales > 0 {
				return common.NewConflictError("user's client record has %d rental(s) and %d sale(s)", rentals, sales)
			}
			if err := tx.Clients().Delete(ctx, client.ID); err != nil {
				return translateStoreErr("delete client", err)
			}
		}

		if err := tx.Users().Delete(ctx, id); err != nil {
			return translateStoreErr("delete user", err)
		}
		s.log.WithContext(ctx).Warn("User deleted permanently", zap.String("user_id", id.String()))
		return nil
	})
}
