package services

import (
	"context"
	"time"

	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxMonthlyAmount = 1e9

// RentalService drives the rental lifecycle and keeps the rented status of
// the property in step with it.
type RentalService interface {
	RequestRental(ctx context.Context, actor models.Actor, req *models.RentalRequest) (*models.Rental, error)
	ApproveRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error)
	RejectRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error)
	CancelRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error)
	UpdateRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID, upd *models.RentalUpdate) (*models.Rental, error)
	DeleteRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) error

	GetRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error)
	ListRentals(ctx context.Context, actor models.Actor, filter *models.RentalFilter) ([]*models.Rental, error)
	ListPendingRentals(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Rental, error)
	ListClientRentals(ctx context.Context, actor models.Actor, clientID uuid.UUID, limit, offset int) ([]*models.Rental, error)

	// ExpireRentals finishes active rentals whose end date is before now
	ExpireRentals(ctx context.Context, now time.Time) (int, error)
}

type rentalService struct {
	store  repositories.Store
	mailer NotificationService
	log    *logger.Logger
}

func NewRentalService(store repositories.Store, mailer NotificationService, log *logger.Logger) RentalService {
	return &rentalService{
		store:  store,
		mailer: mailer,
		log:    log.Named("rentals"),
	}
}

func validateRentalTerms(start, end time.Time, amount float64) error {
	details := map[string]string{}
	if start.IsZero() {
		details["start_date"] = "start_date is required"
	}
	if end.IsZero() {
		details["end_date"] = "end_date is required"
	}
	if !start.IsZero() && !end.IsZero() {
		if err := common.ValidateDateRange(start, end); err != nil {
			details["end_date"] = err.Error()
		}
	}
	if err := common.ValidatePositiveFloat(amount, "monthly_amount", maxMonthlyAmount); err != nil {
		details["monthly_amount"] = err.Error()
	}
	if len(details) > 0 {
		return common.NewValidationErrors(details)
	}
	return nil
}

func (s *rentalService) RequestRental(ctx context.Context, actor models.Actor, req *models.RentalRequest) (*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalRequest); err != nil {
		return nil, err
	}
	if req.PropertyID == uuid.Nil {
		return nil, common.NewValidationError("property_id", "property_id is required")
	}
	if err := validateRentalTerms(req.StartDate, req.EndDate, req.MonthlyAmount); err != nil {
		return nil, err
	}

	var rental *models.Rental
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

		rental = &models.Rental{
			ID:            uuid.New(),
			PropertyID:    property.ID,
			ClientID:      clientID,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			MonthlyAmount: req.MonthlyAmount,
			Status:        models.RentalPending,
			Active:        true,
		}
		if err := tx.Rentals().Create(ctx, rental); err != nil {
			return translateStoreErr("create rental", err)
		}
		return logTransition(ctx, tx.AuditLogs(), actor, models.EntityRental, rental.ID, models.ActionRequest, "", string(models.RentalPending))
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Rental requested",
		zap.String("rental_id", rental.ID.String()),
		zap.String("property_id", rental.PropertyID.String()),
	)
	return rental, nil
}

// lockedRental loads a rental and locks its property. The rental is re-read
// after the lock so its status reflects every committed transition.
func lockedRental(ctx context.Context, tx repositories.Store, rentalID uuid.UUID) (*models.Rental, *models.Property, error) {
	rental, err := tx.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, nil, translateStoreErr("get rental", err)
	}
	if rental == nil {
		return nil, nil, common.NewNotFoundError("rental")
	}

	property, err := lockProperty(ctx, tx, rental.PropertyID)
	if err != nil {
		return nil, nil, err
	}

	rental, err = tx.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, nil, translateStoreErr("get rental", err)
	}
	if rental == nil {
		return nil, nil, common.NewNotFoundError("rental")
	}
	return rental, property, nil
}

// activate moves a pending rental to active, first committer wins
func activate(ctx context.Context, tx repositories.Store, actor models.Actor, rental *models.Rental, property *models.Property, action string) error {
	if property.Status != models.PropertyAvailable || !property.Active {
		return notAvailable(property)
	}

	from := rental.Status
	rental.Status = models.RentalActive
	if err := tx.Rentals().Update(ctx, rental); err != nil {
		return translateStoreErr("update rental", err)
	}
	if err := logTransition(ctx, tx.AuditLogs(), actor, models.EntityRental, rental.ID, action, string(from), string(rental.Status)); err != nil {
		return err
	}
	return setPropertyStatus(ctx, tx, actor, property, models.PropertyRented, action)
}

// release ends an active rental and frees the property if this rental is what made it rented
func release(ctx context.Context, tx repositories.Store, actor models.Actor, rental *models.Rental, property *models.Property, to models.RentalStatus, action string) error {
	from := rental.Status
	rental.Status = to
	if err := tx.Rentals().Update(ctx, rental); err != nil {
		return translateStoreErr("update rental", err)
	}
	if err := logTransition(ctx, tx.AuditLogs(), actor, models.EntityRental, rental.ID, action, string(from), string(to)); err != nil {
		return err
	}

	if from == models.RentalActive && property.Status == models.PropertyRented {
		return setPropertyStatus(ctx, tx, actor, property, models.PropertyAvailable, action)
	}
	return nil
}

func (s *rentalService) ApproveRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalApprove); err != nil {
		return nil, err
	}

	var rental *models.Rental
	var property *models.Property
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		rental, property, err = lockedRental(ctx, tx, rentalID)
		if err != nil {
			return err
		}
		if !rental.Active {
			return common.NewNotFoundError("rental")
		}
		if rental.Status != models.RentalPending {
			return common.NewConflictError("only pending rentals can be approved (status: %s)", rental.Status)
		}
		return activate(ctx, tx, actor, rental, property, models.ActionApprove)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Rental approved", zap.String("rental_id", rental.ID.String()))
	notifyClient(ctx, s.store, s.mailer, s.log, rental.ClientID, TemplateRentalApproved, "Alquiler aprobado", map[string]interface{}{
		"Address": property.Address,
		"Start":   rental.StartDate.Format("02/01/2006"),
		"End":     rental.EndDate.Format("02/01/2006"),
	})
	return rental, nil
}

func (s *rentalService) RejectRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalReject); err != nil {
		return nil, err
	}

	var rental *models.Rental
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var property *models.Property
		var err error
		rental, property, err = lockedRental(ctx, tx, rentalID)
		if err != nil {
			return err
		}
		if !rental.Active {
			return common.NewNotFoundError("rental")
		}
		if rental.Status != models.RentalPending {
			return common.NewConflictError("only pending rentals can be rejected (status: %s)", rental.Status)
		}
		return release(ctx, tx, actor, rental, property, models.RentalCancelled, models.ActionReject)
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) CancelRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalCancel); err != nil {
		return nil, err
	}

	var rental *models.Rental
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var property *models.Property
		var err error
		rental, property, err = lockedRental(ctx, tx, rentalID)
		if err != nil {
			return err
		}
		if !rental.Active {
			return common.NewNotFoundError("rental")
		}
		if err := requireClientOwner(ctx, tx, actor, rental.ClientID); err != nil {
			return err
		}
		if rental.Status.IsTerminal() {
			return common.NewConflictError("rental is already %s", rental.Status)
		}

		rental.Active = false
		return release(ctx, tx, actor, rental, property, models.RentalCancelled, models.ActionCancel)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Rental cancelled", zap.String("rental_id", rental.ID.String()))
	return rental, nil
}

func (s *rentalService) UpdateRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID, upd *models.RentalUpdate) (*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalUpdate); err != nil {
		return nil, err
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, common.NewValidationError("status", "status must be one of pending, active, finished, cancelled")
	}

	var rental *models.Rental
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var property *models.Property
		var err error
		rental, property, err = lockedRental(ctx, tx, rentalID)
		if err != nil {
			return err
		}
		if !rental.Active {
			return common.NewNotFoundError("rental")
		}

		if upd.StartDate != nil {
			rental.StartDate = *upd.StartDate
		}
		if upd.EndDate != nil {
			rental.EndDate = *upd.EndDate
		}
		if upd.MonthlyAmount != nil {
			rental.MonthlyAmount = *upd.MonthlyAmount
		}
		if err := validateRentalTerms(rental.StartDate, rental.EndDate, rental.MonthlyAmount); err != nil {
			return err
		}

		if upd.Status == nil || *upd.Status == rental.Status {
			if err := tx.Rentals().Update(ctx, rental); err != nil {
				return translateStoreErr("update rental", err)
			}
			return nil
		}

		next := *upd.Status
		if !rental.Status.CanTransitionTo(next) {
			return illegalTransition("rental", string(rental.Status), string(next))
		}
		if next == models.RentalActive {
			return activate(ctx, tx, actor, rental, property, models.ActionUpdate)
		}
		return release(ctx, tx, actor, rental, property, next, models.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

// DeleteRental removes a rental for good. Only records that can no longer
// have caused the property status are removable.
func (s *rentalService) DeleteRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) error {
	if err := authz.Check(actor, authz.RentalDelete); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		rental, _, err := lockedRental(ctx, tx, rentalID)
		if err != nil {
			return err
		}
		if !rental.Status.IsTerminal() {
			return common.NewConflictError("only cancelled or finished rentals can be deleted permanently (status: %s)", rental.Status)
		}
		if err := tx.Rentals().Delete(ctx, rental.ID); err != nil {
			return translateStoreErr("delete rental", err)
		}
		return logTransition(ctx, tx.AuditLogs(), actor, models.EntityRental, rental.ID, models.ActionDelete, string(rental.Status), "")
	})
}

func (s *rentalService) GetRental(ctx context.Context, actor models.Actor, rentalID uuid.UUID) (*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalRead); err != nil {
		return nil, err
	}
	rental, err := s.store.Rentals().GetByID(ctx, rentalID)
	if err != nil {
		return nil, translateStoreErr("get rental", err)
	}
	if rental == nil || !rental.Active {
		return nil, common.NewNotFoundError("rental")
	}
	if err := requireClientOwner(ctx, s.store, actor, rental.ClientID); err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) ListRentals(ctx context.Context, actor models.Actor, filter *models.RentalFilter) ([]*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalList); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = &models.RentalFilter{}
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, common.NewValidationError("status", "unknown rental status")
	}
	rentals, err := s.store.Rentals().List(ctx, filter)
	if err != nil {
		return nil, translateStoreErr("list rentals", err)
	}
	return rentals, nil
}

func (s *rentalService) ListPendingRentals(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Rental, error) {
	status := models.RentalPending
	return s.ListRentals(ctx, actor, &models.RentalFilter{Status: &status, Limit: limit, Offset: offset})
}

func (s *rentalService) ListClientRentals(ctx context.Context, actor models.Actor, clientID uuid.UUID, limit, offset int) ([]*models.Rental, error) {
	if err := authz.Check(actor, authz.RentalListByClient); err != nil {
		return nil, err
	}
	if err := requireClientOwner(ctx, s.store, actor, clientID); err != nil {
		return nil, err
	}
	rentals, err := s.store.Rentals().List(ctx, &models.RentalFilter{ClientID: &clientID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, translateStoreErr("list rentals", err)
	}
	return rentals, nil
}

func (s *rentalService) ExpireRentals(ctx context.Context, now time.Time) (int, error) {
	status := models.RentalActive
	due, err := s.store.Rentals().List(ctx, &models.RentalFilter{Status: &status, EndsBefore: &now, Limit: 1000})
	if err != nil {
		return 0, translateStoreErr("list expired rentals", err)
	}

	expired := 0
	for _, candidate := range due {
		changed := false
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			rental, property, err := lockedRental(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if rental.Status != models.RentalActive || !rental.EndDate.Before(now) {
				return nil
			}
			changed = true
			return release(ctx, tx, models.SystemActor, rental, property, models.RentalFinished, models.ActionExpire)
		})
		if err != nil {
			s.log.Warn("Failed to expire rental", zap.String("rental_id", candidate.ID.String()), zap.Error(err))
			continue
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}
