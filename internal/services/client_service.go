package services

import (
	"context"
	"strings"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxDocumentIDLength = 20
	maxPhoneLength      = 30
)

type ClientService interface {
	ListClients(ctx context.Context, actor models.Actor, includeInactive bool, limit, offset int) ([]*models.Client, error)
	GetClient(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Client, error)
	CreateClient(ctx context.Context, actor models.Actor, in *models.ClientInput) (*models.Client, error)
	UpdateClient(ctx context.Context, actor models.Actor, id uuid.UUID, in *models.ClientInput) (*models.Client, error)
	DeactivateClient(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type clientService struct {
	store repositories.Store
	log   *logger.Logger
}

func NewClientService(store repositories.Store, log *logger.Logger) ClientService {
	return &clientService{store: store, log: log.Named("clients")}
}

func validateClientInput(in *models.ClientInput, create bool) error {
	details := map[string]string{}

	if in.DocumentID != nil {
		doc := strings.TrimSpace(*in.DocumentID)
		if doc == "" {
			details["document_id"] = "document_id is required"
		} else if len(doc) > maxDocumentIDLength {
			details["document_id"] = "document_id is too long"
		}
		in.DocumentID = &doc
	} else if create {
		details["document_id"] = "document_id is required"
	}

	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			details["phone"] = "phone is required"
		} else if len(phone) > maxPhoneLength {
			details["phone"] = "phone is too long"
		}
		in.Phone = &phone
	} else if create {
		details["phone"] = "phone is required"
	}

	if create && (in.UserID == nil || *in.UserID == uuid.Nil) {
		details["user_id"] = "user_id is required"
	}

	if len(details) > 0 {
		return common.NewValidationErrors(details)
	}
	return nil
}

func (s *clientService) ListClients(ctx context.Context, actor models.Actor, includeInactive bool, limit, offset int) ([]*models.Client, error) {
	if err := authz.Check(actor, authz.ClientList); err != nil {
		return nil, err
	}
	clients, err := s.store.Clients().List(ctx, includeInactive, limit, offset)
	if err != nil {
		return nil, translateStoreErr("list clients", err)
	}
	return clients, nil
}

func (s *clientService) GetClient(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Client, error) {
	if err := authz.Check(actor, authz.ClientRead); err != nil {
		return nil, err
	}
	client, err := s.store.Clients().GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr("get client", err)
	}
	if client == nil || (!client.Active && !actor.IsStaff()) {
		return nil, common.NewNotFoundError("client")
	}
	if err := authz.RequireOwner(actor, client.UserID); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) CreateClient(ctx context.Context, actor models.Actor, in *models.ClientInput) (*models.Client, error) {
	if err := authz.Check(actor, authz.ClientCreate); err != nil {
		return nil, err
	}
	if err := validateClientInput(in, true); err != nil {
		return nil, err
	}

	var client *models.Client
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		user, err := tx.Users().GetByID(ctx, *in.UserID)
		if err != nil {
			return translateStoreErr("get user", err)
		}
		if user == nil || !user.Active {
			return common.NewNotFoundError("user")
		}

		client = &models.Client{
			ID:         uuid.New(),
			UserID:     user.ID,
			DocumentID: *in.DocumentID,
			Phone:      *in.Phone,
			Active:     true,
		}
		if err := tx.Clients().Create(ctx, client); err != nil {
			return translateStoreErr("create client", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Client created", zap.String("client_id", client.ID.String()))
	return client, nil
}

// UpdateClient edits contact data. Clients may edit their own record; the
// linked user cannot be changed.
func (s *clientService) UpdateClient(ctx context.Context, actor models.Actor, id uuid.UUID, in *models.ClientInput) (*models.Client, error) {
	if err := authz.Check(actor, authz.ClientUpdate); err != nil {
		return nil, err
	}
	if err := validateClientInput(in, false); err != nil {
		return nil, err
	}

	var client *models.Client
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		client, err = tx.Clients().GetByID(ctx, id)
		if err != nil {
			return translateStoreErr("get client", err)
		}
		if client == nil || !client.Active {
			return common.NewNotFoundError("client")
		}
		if err := authz.RequireOwner(actor, client.UserID); err != nil {
			return err
		}
		if in.UserID != nil && *in.UserID != client.UserID {
			return common.NewValidationError("user_id", "the linked user cannot be changed")
		}

		if in.DocumentID != nil {
			client.DocumentID = *in.DocumentID
		}
		if in.Phone != nil {
			client.Phone = *in.Phone
		}
		if err := tx.Clients().Update(ctx, client); err != nil {
			return translateStoreErr("update client", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) DeactivateClient(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := authz.Check(actor, authz.ClientDeactivate); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		client, err := tx.Clients().GetByID(ctx, id)
		if err != nil {
			return translateStoreErr("get client", err)
		}
		if client == nil || !client.Active {
			return common.NewNotFoundError("client")
		}
		client.Active = false
		if err := tx.Clients().Update(ctx, client); err != nil {
			return translateStoreErr("deactivate client", err)
		}
		return nil
	})
}
