package services

import (
	"context"
	"errors"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Helpers shared by the rental, sale and property services. Every status
// change runs inside Store.WithinTx after lockProperty, so two operations on
// the same property are serialized and the later one observes the earlier
// one's result.

// translateStoreErr turns repository sentinels into typed errors
func translateStoreErr(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrVersionConflict):
		return common.NewConflictError("property was modified by another operation, please retry")
	case errors.Is(err, repositories.ErrDuplicate):
		return common.NewConflictError("a record with the same unique value already exists")
	default:
		return common.SecureErrorMessage(operation, err)
	}
}

// lockProperty reads the property row under a lock for the rest of the transaction
func lockProperty(ctx context.Context, tx repositories.Store, id uuid.UUID) (*models.Property, error) {
	property, err := tx.Properties().GetForUpdate(ctx, id)
	if err != nil {
		return nil, translateStoreErr("lock property", err)
	}
	if property == nil {
		return nil, common.NewNotFoundError("property")
	}
	return property, nil
}

// setPropertyStatus writes the new status with the version check and records it
func setPropertyStatus(ctx context.Context, tx repositories.Store, actor models.Actor, property *models.Property, status models.PropertyStatus, action string) error {
	from := property.Status
	if from == status {
		return nil
	}
	property.Status = status
	if err := tx.Properties().Update(ctx, property); err != nil {
		property.Status = from
		return translateStoreErr("update property status", err)
	}
	return logTransition(ctx, tx.AuditLogs(), actor, models.EntityProperty, property.ID, action, string(from), string(status))
}

// activeClient loads a client that must exist and be active
func activeClient(ctx context.Context, tx repositories.Store, id uuid.UUID) (*models.Client, error) {
	client, err := tx.Clients().GetByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr("get client", err)
	}
	if client == nil || !client.Active {
		return nil, common.NewNotFoundError("client")
	}
	return client, nil
}

// resolveClientID picks the client a request is made for. Clients always act
// for their own record; staff must name one.
func resolveClientID(ctx context.Context, tx repositories.Store, actor models.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.IsStaff() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, common.NewValidationError("client_id", "client_id is required")
		}
		return *requested, nil
	}

	own, err := tx.Clients().GetByUserID(ctx, actor.UserID)
	if err != nil {
		return uuid.Nil, translateStoreErr("get client", err)
	}
	if own == nil || !own.Active {
		return uuid.Nil, common.NewNotFoundError("client")
	}
	if requested != nil && *requested != uuid.Nil && *requested != own.ID {
		return uuid.Nil, common.NewForbiddenError("You can only make requests for your own client record")
	}
	return own.ID, nil
}

// requireClientOwner checks that a client caller owns clientID; staff pass
func requireClientOwner(ctx context.Context, store repositories.Store, actor models.Actor, clientID uuid.UUID) error {
	if actor.IsStaff() {
		return nil
	}
	client, err := store.Clients().GetByID(ctx, clientID)
	if err != nil {
		return translateStoreErr("get client", err)
	}
	if client == nil || client.UserID != actor.UserID {
		return common.NewForbiddenError("You can only access your own records")
	}
	return nil
}

func notAvailable(property *models.Property) error {
	return common.NewConflictError("property is not available (status: %s)", property.Status)
}

func illegalTransition(entity, from, to string) error {
	return common.NewConflictError("cannot move %s from %s to %s", entity, from, to)
}

// notifyClient mails the user behind clientID without blocking the caller.
// Lookup failures are logged only.
func notifyClient(ctx context.Context, store repositories.Store, mailer NotificationService, log *logger.Logger, clientID uuid.UUID, templateName, subject string, data map[string]interface{}) {
	if mailer == nil {
		return
	}
	client, err := store.Clients().GetByID(ctx, clientID)
	if err != nil || client == nil {
		log.Warn("Notification skipped, client lookup failed", zap.String("client_id", clientID.String()), zap.Error(err))
		return
	}
	user, err := store.Users().GetByID(ctx, client.UserID)
	if err != nil || user == nil {
		log.Warn("Notification skipped, user lookup failed", zap.String("client_id", clientID.String()), zap.Error(err))
		return
	}

	data["Name"] = user.Name
	body, err := mailer.RenderTemplate(templateName, data)
	if err != nil {
		log.Warn("Notification skipped, template failed", zap.String("template", templateName), zap.Error(err))
		return
	}
	mailer.SendEmailAsync(user.Email, subject, body)
}
