package services

import (
	"context"
	"fmt"
	"time"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSaleAmount = 1e11

// SaleService drives the sale lifecycle; a finalized sale marks the property sold
type SaleService interface {
	RequestSale(ctx context.Context, actor models.Actor, req *models.SaleRequest) (*models.Sale, error)
	ApproveSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error)
	RejectSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error)
	CancelSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error)
	UpdateSale(ctx context.Context, actor models.Actor, saleID uuid.UUID, upd *models.SaleUpdate) (*models.Sale, error)
	DeleteSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) error

	GetSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, actor models.Actor, filter *models.SaleFilter) ([]*models.Sale, error)
	ListPendingSales(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Sale, error)
	ListClientSales(ctx context.Context, actor models.Actor, clientID uuid.UUID, limit, offset int) ([]*models.Sale, error)
}

type saleService struct {
	store  repositories.Store
	mailer NotificationService
	log    *logger.Logger
}

func NewSaleService(store repositories.Store, mailer NotificationService, log *logger.Logger) SaleService {
	return &saleService{
		store:  store,
		mailer: mailer,
		log:    log.Named("sales"),
	}
}

func (s *saleService) RequestSale(ctx context.Context, actor models.Actor, req *models.SaleRequest) (*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleRequest); err != nil {
		return nil, err
	}
	if req.PropertyID == uuid.Nil {
		return nil, common.NewValidationError("property_id", "property_id is required")
	}
	if err := common.ValidatePositiveFloat(req.TotalAmount, "total_amount", maxSaleAmount); err != nil {
		return nil, common.NewValidationError("total_amount", err.Error())
	}

	saleDate := time.Now().UTC()
	if req.SaleDate != nil && !req.SaleDate.IsZero() {
		saleDate = *req.SaleDate
	}

	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		property, err := lockProperty(ctx, tx, req.PropertyID)
		if err != nil {
			return err
		}
		if !property.Active {
			return common.NewNotFoundError("property")
		}

		clientID, err := resolveClientID(ctx, tx, actor, req.ClientID)
		if err != nil {
			return err
		}
		if _, err := activeClient(ctx, tx, clientID); err != nil {
			return err
		}

		if property.Status != models.PropertyAvailable {
			return notAvailable(property)
		}

		sale = &models.Sale{
			ID:          uuid.New(),
			PropertyID:  property.ID,
			ClientID:    clientID,
			UserID:      actor.UserID,
			SaleDate:    saleDate,
			TotalAmount: req.TotalAmount,
			Status:      models.SalePending,
			Active:      true,
		}
		if err := tx.Sales().Create(ctx, sale); err != nil {
			return translateStoreErr("create sale", err)
		}
		return logTransition(ctx, tx.AuditLogs(), actor, models.EntitySale, sale.ID, models.ActionRequest, "", string(models.SalePending))
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Sale requested",
		zap.String("sale_id", sale.ID.String()),
		zap.String("property_id", sale.PropertyID.String()),
	)
	return sale, nil
}

// lockedSale loads a sale, locks its property and re-reads the sale under the lock
func lockedSale(ctx context.Context, tx repositories.Store, saleID uuid.UUID) (*models.Sale, *models.Property, error) {
	sale, err := tx.Sales().GetByID(ctx, saleID)
	if err != nil {
		return nil, nil, translateStoreErr("get sale", err)
	}
	if sale == nil {
		return nil, nil, common.NewNotFoundError("sale")
	}

	property, err := lockProperty(ctx, tx, sale.PropertyID)
	if err != nil {
		return nil, nil, err
	}

	sale, err = tx.Sales().GetByID(ctx, saleID)
	if err != nil {
		return nil, nil, translateStoreErr("get sale", err)
	}
	if sale == nil {
		return nil, nil, common.NewNotFoundError("sale")
	}
	return sale, property, nil
}

func finalizeSale(ctx context.Context, tx repositories.Store, actor models.Actor, sale *models.Sale, property *models.Property, action string) error {
	if property.Status != models.PropertyAvailable || !property.Active {
		return notAvailable(property)
	}

	from := sale.Status
	sale.Status = models.SaleFinalized
	if err := tx.Sales().Update(ctx, sale); err != nil {
		return translateStoreErr("update sale", err)
	}
	if err := logTransition(ctx, tx.AuditLogs(), actor, models.EntitySale, sale.ID, action, string(from), string(sale.Status)); err != nil {
		return err
	}
	return setPropertyStatus(ctx, tx, actor, property, models.PropertySold, action)
}

// cancelSale cancels the sale and, if it was the finalized sale that made the
// property sold, makes the property available again
func cancelSale(ctx context.Context, tx repositories.Store, actor models.Actor, sale *models.Sale, property *models.Property, action string) error {
	from := sale.Status
	sale.Status = models.SaleCancelled
	if err := tx.Sales().Update(ctx, sale); err != nil {
		return translateStoreErr("update sale", err)
	}
	if err := logTransition(ctx, tx.AuditLogs(), actor, models.EntitySale, sale.ID, action, string(from), string(sale.Status)); err != nil {
		return err
	}

	if from == models.SaleFinalized && property.Status == models.PropertySold {
		return setPropertyStatus(ctx, tx, actor, property, models.PropertyAvailable, action)
	}
	return nil
}

func (s *saleService) ApproveSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleApprove); err != nil {
		return nil, err
	}

	var sale *models.Sale
	var property *models.Property
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		sale, property, err = lockedSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if !sale.Active {
			return common.NewNotFoundError("sale")
		}
		if sale.Status != models.SalePending {
			return common.NewConflictError("only pending sales can be approved (status: %s)", sale.Status)
		}
		return finalizeSale(ctx, tx, actor, sale, property, models.ActionApprove)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Sale finalized", zap.String("sale_id", sale.ID.String()))
	notifyClient(ctx, s.store, s.mailer, s.log, sale.ClientID, TemplateSaleFinalized, "Venta finalizada", map[string]interface{}{
		"Address": property.Address,
		"Amount":  fmt.Sprintf("%.2f", sale.TotalAmount),
	})
	return sale, nil
}

func (s *saleService) RejectSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleReject); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var property *models.Property
		var err error
		sale, property, err = lockedSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if !sale.Active {
			return common.NewNotFoundError("sale")
		}
		if sale.Status != models.SalePending {
			return common.NewConflictError("only pending sales can be rejected (status: %s)", sale.Status)
		}
		return cancelSale(ctx, tx, actor, sale, property, models.ActionReject)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) CancelSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleCancel); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var property *models.Property
		var err error
		sale, property, err = lockedSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if !sale.Active {
			return common.NewNotFoundError("sale")
		}
		if err := requireClientOwner(ctx, tx, actor, sale.ClientID); err != nil {
			return err
		}
		if sale.Status == models.SaleCancelled {
			return common.NewConflictError("sale is already cancelled")
		}

		sale.Active = false
		return cancelSale(ctx, tx, actor, sale, property, models.ActionCancel)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Sale cancelled", zap.String("sale_id", sale.ID.String()))
	return sale, nil
}

func (s *saleService) UpdateSale(ctx context.Context, actor models.Actor, saleID uuid.UUID, upd *models.SaleUpdate) (*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleUpdate); err != nil {
		return nil, err
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, common.NewValidationError("status", "status must be one of pending, finalized, cancelled")
	}
	if upd.TotalAmount != nil {
		if err := common.ValidatePositiveFloat(*upd.TotalAmount, "total_amount", maxSaleAmount); err != nil {
			return nil, common.NewValidationError("total_amount", err.Error())
		}
	}

	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var property *models.Property
		var err error
		sale, property, err = lockedSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if !sale.Active {
			return common.NewNotFoundError("sale")
		}

		if upd.SaleDate != nil && !upd.SaleDate.IsZero() {
			sale.SaleDate = *upd.SaleDate
		}
		if upd.TotalAmount != nil {
			sale.TotalAmount = *upd.TotalAmount
		}

		if upd.Status == nil || *upd.Status == sale.Status {
			if err := tx.Sales().Update(ctx, sale); err != nil {
				return translateStoreErr("update sale", err)
			}
			return nil
		}

		next := *upd.Status
		if !sale.Status.CanTransitionTo(next) {
			return illegalTransition("sale", string(sale.Status), string(next))
		}
		if next == models.SaleFinalized {
			return finalizeSale(ctx, tx, actor, sale, property, models.ActionUpdate)
		}
		return cancelSale(ctx, tx, actor, sale, property, models.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// DeleteSale removes a cancelled sale for good
func (s *saleService) DeleteSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) error {
	if err := authz.Check(actor, authz.SaleDelete); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		sale, _, err := lockedSale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != models.SaleCancelled {
			return common.NewConflictError("only cancelled sales can be deleted permanently (status: %s)", sale.Status)
		}
		if err := tx.Sales().Delete(ctx, sale.ID); err != nil {
			return translateStoreErr("delete sale", err)
		}
		return logTransition(ctx, tx.AuditLogs(), actor, models.EntitySale, sale.ID, models.ActionDelete, string(sale.Status), "")
	})
}

func (s *saleService) GetSale(ctx context.Context, actor models.Actor, saleID uuid.UUID) (*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleRead); err != nil {
		return nil, err
	}
	sale, err := s.store.Sales().GetByID(ctx, saleID)
	if err != nil {
		return nil, translateStoreErr("get sale", err)
	}
	if sale == nil || !sale.Active {
		return nil, common.NewNotFoundError("sale")
	}
	if err := requireClientOwner(ctx, s.store, actor, sale.ClientID); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, actor models.Actor, filter *models.SaleFilter) ([]*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleList); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &models.SaleFilter{}
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, common.NewValidationError("status", "unknown sale status")
	}
	sales, err := s.store.Sales().List(ctx, filter)
	if err != nil {
		return nil, translateStoreErr("list sales", err)
	}
	return sales, nil
}

func (s *saleService) ListPendingSales(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Sale, error) {
	status := models.SalePending
	return s.ListSales(ctx, actor, &models.SaleFilter{Status: &status, Limit: limit, Offset: offset})
}

func (s *saleService) ListClientSales(ctx context.Context, actor models.Actor, clientID uuid.UUID, limit, offset int) ([]*models.Sale, error) {
	if err := authz.Check(actor, authz.SaleListByClient); err != nil {
		return nil, err
	}
	if err := requireClientOwner(ctx, s.store, actor, clientID); err != nil {
		return nil, err
	}
	sales, err := s.store.Sales().List(ctx, &models.SaleFilter{ClientID: &clientID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, translateStoreErr("list sales", err)
	}
	return sales, nil
}
