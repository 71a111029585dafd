package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories/memory"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// recordingMailer captures what would be sent
type recordingMailer struct {
	mu       sync.Mutex
	sent     []string
	rendered []map[string]interface{}
	failWith error
}

func (m *recordingMailer) SendEmail(ctx context.Context, recipient, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, recipient+"|"+subject)
	return nil
}

func (m *recordingMailer) SendEmailAsync(recipient, subject, body string) {
	_ = m.SendEmail(context.Background(), recipient, subject, body)
}

func (m *recordingMailer) RenderTemplate(name string, data map[string]interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered = append(m.rendered, data)
	return name, nil
}

func (m *recordingMailer) lastData() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rendered) == 0 {
		return nil
	}
	return m.rendered[len(m.rendered)-1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type EngineTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	mailer *recordingMailer

	rentals    RentalService
	sales      SaleService
	properties PropertyService
	audit      AuditLogsService

	admin   models.Actor
	agent   models.Actor
	client1 models.Actor
	client2 models.Actor

	clientID1 uuid.UUID
	clientID2 uuid.UUID
	typeID    uuid.UUID
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.mailer = &recordingMailer{}
	log := logger.NewNop()

	suite.rentals = NewRentalService(suite.store, suite.mailer, log)
	suite.sales = NewSaleService(suite.store, suite.mailer, log)
	suite.properties = NewPropertyService(suite.store, log)
	suite.audit = NewAuditLogsService(suite.store.AuditLogs())

	suite.admin = suite.seedUser("admin@inmo.test", models.RoleAdmin)
	suite.agent = suite.seedUser("agent@inmo.test", models.RoleAgent)
	suite.client1 = suite.seedUser("c1@inmo.test", models.RoleClient)
	suite.client2 = suite.seedUser("c2@inmo.test", models.RoleClient)
	suite.clientID1 = suite.seedClient(suite.client1, "30111222")
	suite.clientID2 = suite.seedClient(suite.client2, "30333444")

	pt := &models.PropertyType{ID: uuid.New(), Name: "Casa", Active: true}
	suite.Require().NoError(suite.store.PropertyTypes().Create(suite.ctx, pt))
	suite.typeID = pt.ID
}

func (suite *EngineTestSuite) seedUser(email string, role models.Role) models.Actor {
	user := &models.User{
		ID:           uuid.New(),
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Age:          30,
		Role:         role,
		Active:       true,
	}
	suite.Require().NoError(suite.store.Users().Create(suite.ctx, user))
	return models.Actor{UserID: user.ID, Role: role}
}

func (suite *EngineTestSuite) seedClient(actor models.Actor, document string) uuid.UUID {
	client := &models.Client{ID: uuid.New(), UserID: actor.UserID, DocumentID: document, Phone: "555", Active: true}
	suite.Require().NoError(suite.store.Clients().Create(suite.ctx, client))
	return client.ID
}

func (suite *EngineTestSuite) newProperty() *models.Property {
	address := "Av. Siempre Viva " + uuid.NewString()[:4]
	price := 100000.0
	p, err := suite.properties.CreateProperty(suite.ctx, suite.agent, &models.PropertyInput{
		Address: &address,
		Price:   &price,
		TypeID:  &suite.typeID,
	})
	suite.Require().NoError(err)
	return p
}

func (suite *EngineTestSuite) propertyStatus(id uuid.UUID) models.PropertyStatus {
	p, err := suite.store.Properties().GetByID(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Require().NotNil(p)
	return p.Status
}

func (suite *EngineTestSuite) requestRental(actor models.Actor, propertyID uuid.UUID, clientID *uuid.UUID) (*models.Rental, error) {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	return suite.rentals.RequestRental(suite.ctx, actor, &models.RentalRequest{
		PropertyID:    propertyID,
		ClientID:      clientID,
		StartDate:     start,
		EndDate:       start.AddDate(1, 0, 0),
		MonthlyAmount: 1500,
	})
}

func (suite *EngineTestSuite) requestSale(actor models.Actor, propertyID uuid.UUID, clientID *uuid.UUID) (*models.Sale, error) {
	return suite.sales.RequestSale(suite.ctx, actor, &models.SaleRequest{
		PropertyID:  propertyID,
		ClientID:    clientID,
		TotalAmount: 250000,
	})
}

func (suite *EngineTestSuite) TestCreateProperty_StartsAvailable() {
	p := suite.newProperty()
	suite.Equal(models.PropertyAvailable, p.Status)
	suite.True(p.Active)
	suite.Equal(int64(1), p.Version)
	suite.Equal(suite.agent.UserID, p.AgentID)
}

func (suite *EngineTestSuite) TestScenario_RentalBlocksSaleUntilCancelled() {
	p1 := suite.newProperty()

	r1, err := suite.requestRental(suite.client1, p1.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(models.RentalPending, r1.Status)
	suite.Equal(suite.clientID1, r1.ClientID)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p1.ID))

	r1, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r1.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalActive, r1.Status)
	suite.Equal(models.PropertyRented, suite.propertyStatus(p1.ID))

	_, err = suite.requestSale(suite.client2, p1.ID, nil)
	suite.True(common.IsConflict(err), "expected conflict, got %v", err)

	r1, err = suite.rentals.CancelRental(suite.ctx, suite.client1, r1.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalCancelled, r1.Status)
	suite.False(r1.Active)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p1.ID))

	sale, err := suite.requestSale(suite.client2, p1.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(models.SalePending, sale.Status)
	suite.Equal(suite.client2.UserID, sale.UserID)
}

func (suite *EngineTestSuite) TestConcurrentApprovals_ExactlyOneWins() {
	p := suite.newProperty()

	const n = 8
	ids := make([]uuid.UUID, n)
	for i := range ids {
		clientID := suite.clientID1
		if i%2 == 1 {
			clientID = suite.clientID2
		}
		r, err := suite.requestRental(suite.agent, p.ID, &clientID)
		suite.Require().NoError(err)
		ids[i] = r.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.rentals.ApproveRental(suite.ctx, suite.admin, ids[i])
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		if err == nil {
			wins++
			continue
		}
		suite.True(common.IsConflict(err), "approval %d: %v", i, err)
		r, getErr := suite.store.Rentals().GetByID(suite.ctx, ids[i])
		suite.Require().NoError(getErr)
		suite.Equal(models.RentalPending, r.Status)
	}
	suite.Equal(1, wins)
	suite.Equal(models.PropertyRented, suite.propertyStatus(p.ID))

	active, err := suite.store.Rentals().CountByProperty(suite.ctx, p.ID, models.RentalActive)
	suite.Require().NoError(err)
	suite.Equal(1, active)
}

func (suite *EngineTestSuite) TestConcurrentRentalAndSaleApproval() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	s, err := suite.requestSale(suite.agent, p.ID, &suite.clientID2)
	suite.Require().NoError(err)

	var wg sync.WaitGroup
	var rentalErr, saleErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, rentalErr = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	}()
	go func() {
		defer wg.Done()
		_, saleErr = suite.sales.ApproveSale(suite.ctx, suite.agent, s.ID)
	}()
	wg.Wait()

	if rentalErr == nil {
		suite.True(common.IsConflict(saleErr))
		suite.Equal(models.PropertyRented, suite.propertyStatus(p.ID))
	} else {
		suite.NoError(saleErr)
		suite.True(common.IsConflict(rentalErr))
		suite.Equal(models.PropertySold, suite.propertyStatus(p.ID))
	}
}

func (suite *EngineTestSuite) TestCancelPendingRental_LeavesPropertyUntouched() {
	p := suite.newProperty()
	active, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	pending, err := suite.requestRental(suite.agent, p.ID, &suite.clientID2)
	suite.Require().NoError(err)

	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, active.ID)
	suite.Require().NoError(err)

	cancelled, err := suite.rentals.CancelRental(suite.ctx, suite.client2, pending.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalCancelled, cancelled.Status)
	suite.Equal(models.PropertyRented, suite.propertyStatus(p.ID))
}

func (suite *EngineTestSuite) TestCancelRental_OtherClientForbidden() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.client1, p.ID, nil)
	suite.Require().NoError(err)

	_, err = suite.rentals.CancelRental(suite.ctx, suite.client2, r.ID)
	suite.True(common.IsForbidden(err))
}

func (suite *EngineTestSuite) TestCancelRental_Twice() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.client1, p.ID, nil)
	suite.Require().NoError(err)

	_, err = suite.rentals.CancelRental(suite.ctx, suite.client1, r.ID)
	suite.Require().NoError(err)

	// cancelled rentals are hidden
	_, err = suite.rentals.CancelRental(suite.ctx, suite.client1, r.ID)
	suite.True(common.IsNotFound(err))
}

func (suite *EngineTestSuite) TestRequestOnUnavailableProperty_ConflictForEveryRole() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	for _, actor := range []models.Actor{suite.admin, suite.agent, suite.client2} {
		var clientID *uuid.UUID
		if actor.IsStaff() {
			clientID = &suite.clientID2
		}
		_, err := suite.requestRental(actor, p.ID, clientID)
		suite.True(common.IsConflict(err), "role %s: %v", actor.Role, err)
		_, err = suite.requestSale(actor, p.ID, clientID)
		suite.True(common.IsConflict(err), "role %s: %v", actor.Role, err)
	}
}

func (suite *EngineTestSuite) TestRequestRental_Validation() {
	p := suite.newProperty()

	_, err := suite.rentals.RequestRental(suite.ctx, suite.client1, &models.RentalRequest{PropertyID: p.ID})
	suite.True(common.IsValidation(err))

	_, err = suite.requestRental(suite.agent, p.ID, nil)
	suite.True(common.IsValidation(err), "staff must name a client")

	_, err = suite.requestRental(suite.client1, p.ID, &suite.clientID2)
	suite.True(common.IsForbidden(err))

	_, err = suite.requestRental(suite.client1, uuid.New(), nil)
	suite.True(common.IsNotFound(err))
}

func (suite *EngineTestSuite) TestRejectRental() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.client1, p.ID, nil)
	suite.Require().NoError(err)

	_, err = suite.rentals.RejectRental(suite.ctx, suite.client1, r.ID)
	suite.True(common.IsForbidden(err))

	r, err = suite.rentals.RejectRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalCancelled, r.Status)
	suite.True(r.Active)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p.ID))

	_, err = suite.rentals.RejectRental(suite.ctx, suite.agent, r.ID)
	suite.True(common.IsConflict(err))
}

func (suite *EngineTestSuite) TestUpdateRental_Transitions() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)

	finished := models.RentalFinished
	_, err = suite.rentals.UpdateRental(suite.ctx, suite.agent, r.ID, &models.RentalUpdate{Status: &finished})
	suite.True(common.IsConflict(err), "pending cannot finish")

	active := models.RentalActive
	r, err = suite.rentals.UpdateRental(suite.ctx, suite.agent, r.ID, &models.RentalUpdate{Status: &active})
	suite.Require().NoError(err)
	suite.Equal(models.PropertyRented, suite.propertyStatus(p.ID))

	amount := 1800.0
	r, err = suite.rentals.UpdateRental(suite.ctx, suite.agent, r.ID, &models.RentalUpdate{MonthlyAmount: &amount})
	suite.Require().NoError(err)
	suite.Equal(1800.0, r.MonthlyAmount)
	suite.Equal(models.RentalActive, r.Status)

	r, err = suite.rentals.UpdateRental(suite.ctx, suite.agent, r.ID, &models.RentalUpdate{Status: &finished})
	suite.Require().NoError(err)
	suite.Equal(models.RentalFinished, r.Status)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p.ID))

	_, err = suite.rentals.UpdateRental(suite.ctx, suite.agent, r.ID, &models.RentalUpdate{Status: &active})
	suite.True(common.IsConflict(err), "finished is terminal")
}

func (suite *EngineTestSuite) TestUpdateRental_ActivateGoesThroughApprovalCheck() {
	p := suite.newProperty()
	first, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	second, err := suite.requestRental(suite.agent, p.ID, &suite.clientID2)
	suite.Require().NoError(err)

	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, first.ID)
	suite.Require().NoError(err)

	active := models.RentalActive
	_, err = suite.rentals.UpdateRental(suite.ctx, suite.agent, second.ID, &models.RentalUpdate{Status: &active})
	suite.True(common.IsConflict(err))

	got, err := suite.store.Rentals().GetByID(suite.ctx, second.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalPending, got.Status)
}

func (suite *EngineTestSuite) TestSaleLifecycle() {
	p := suite.newProperty()
	s, err := suite.requestSale(suite.client1, p.ID, nil)
	suite.Require().NoError(err)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p.ID))

	s, err = suite.sales.ApproveSale(suite.ctx, suite.agent, s.ID)
	suite.Require().NoError(err)
	suite.Equal(models.SaleFinalized, s.Status)
	suite.Equal(models.PropertySold, suite.propertyStatus(p.ID))

	_, err = suite.sales.ApproveSale(suite.ctx, suite.agent, s.ID)
	suite.True(common.IsConflict(err))

	s, err = suite.sales.CancelSale(suite.ctx, suite.agent, s.ID)
	suite.Require().NoError(err)
	suite.Equal(models.SaleCancelled, s.Status)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p.ID))
}

func (suite *EngineTestSuite) TestUpdateSale_FinalizedToCancelledRestoresProperty() {
	p := suite.newProperty()
	s, err := suite.requestSale(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)

	finalized := models.SaleFinalized
	s, err = suite.sales.UpdateSale(suite.ctx, suite.agent, s.ID, &models.SaleUpdate{Status: &finalized})
	suite.Require().NoError(err)
	suite.Equal(models.PropertySold, suite.propertyStatus(p.ID))

	cancelled := models.SaleCancelled
	s, err = suite.sales.UpdateSale(suite.ctx, suite.agent, s.ID, &models.SaleUpdate{Status: &cancelled})
	suite.Require().NoError(err)
	suite.Equal(models.SaleCancelled, s.Status)
	suite.True(s.Active)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p.ID))

	_, err = suite.sales.UpdateSale(suite.ctx, suite.agent, s.ID, &models.SaleUpdate{Status: &finalized})
	suite.True(common.IsConflict(err))
}

func (suite *EngineTestSuite) TestCancelPendingSale_DoesNotTouchRentedProperty() {
	p := suite.newProperty()
	s, err := suite.requestSale(suite.agent, p.ID, &suite.clientID2)
	suite.Require().NoError(err)
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	_, err = suite.sales.CancelSale(suite.ctx, suite.client2, s.ID)
	suite.Require().NoError(err)
	suite.Equal(models.PropertyRented, suite.propertyStatus(p.ID))
}

func (suite *EngineTestSuite) TestDeactivateProperty_Guards() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	err = suite.properties.DeactivateProperty(suite.ctx, suite.agent, p.ID)
	suite.True(common.IsConflict(err))

	_, err = suite.rentals.CancelRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.properties.DeactivateProperty(suite.ctx, suite.agent, p.ID))

	_, err = suite.properties.GetProperty(suite.ctx, suite.client1, p.ID)
	suite.True(common.IsNotFound(err))
	got, err := suite.properties.GetProperty(suite.ctx, suite.admin, p.ID)
	suite.Require().NoError(err)
	suite.False(got.Active)

	_, err = suite.requestRental(suite.client1, p.ID, nil)
	suite.True(common.IsNotFound(err))
}

func (suite *EngineTestSuite) TestDeletePropertyPermanently_Guards() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	_, err = suite.rentals.RejectRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	err = suite.properties.DeletePropertyPermanently(suite.ctx, suite.agent, p.ID)
	suite.True(common.IsForbidden(err), "admin only")

	err = suite.properties.DeletePropertyPermanently(suite.ctx, suite.admin, p.ID)
	suite.True(common.IsConflict(err), "a cancelled rental still blocks")

	suite.Require().NoError(suite.rentals.DeleteRental(suite.ctx, suite.admin, r.ID))
	suite.Require().NoError(suite.properties.DeletePropertyPermanently(suite.ctx, suite.admin, p.ID))

	got, err := suite.store.Properties().GetByID(suite.ctx, p.ID)
	suite.Require().NoError(err)
	suite.Nil(got)
}

func (suite *EngineTestSuite) TestDeleteRental_OnlyTerminal() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)

	err = suite.rentals.DeleteRental(suite.ctx, suite.admin, r.ID)
	suite.True(common.IsConflict(err))

	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)
	err = suite.rentals.DeleteRental(suite.ctx, suite.admin, r.ID)
	suite.True(common.IsConflict(err), "active rental causes rented")
	suite.Equal(models.PropertyRented, suite.propertyStatus(p.ID))
}

func (suite *EngineTestSuite) TestDeleteSale_OnlyCancelled() {
	p := suite.newProperty()
	s, err := suite.requestSale(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	_, err = suite.sales.ApproveSale(suite.ctx, suite.agent, s.ID)
	suite.Require().NoError(err)

	err = suite.sales.DeleteSale(suite.ctx, suite.admin, s.ID)
	suite.True(common.IsConflict(err))

	_, err = suite.sales.RejectSale(suite.ctx, suite.agent, s.ID)
	suite.True(common.IsConflict(err), "finalized sales cannot be rejected")

	_, err = suite.sales.CancelSale(suite.ctx, suite.agent, s.ID)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.sales.DeleteSale(suite.ctx, suite.admin, s.ID))
}

func (suite *EngineTestSuite) TestUpdateProperty_CannotTouchStatus() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.agent, p.ID, &suite.clientID1)
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	price := 120000.0
	updated, err := suite.properties.UpdateProperty(suite.ctx, suite.agent, p.ID, &models.PropertyInput{Price: &price})
	suite.Require().NoError(err)
	suite.Equal(120000.0, updated.Price)
	suite.Equal(models.PropertyRented, updated.Status)
	suite.Greater(updated.Version, p.Version)
}

func (suite *EngineTestSuite) TestExpireRentals() {
	p := suite.newProperty()
	start := time.Now().UTC().AddDate(-1, 0, 0)
	r, err := suite.rentals.RequestRental(suite.ctx, suite.agent, &models.RentalRequest{
		PropertyID:    p.ID,
		ClientID:      &suite.clientID1,
		StartDate:     start,
		EndDate:       start.AddDate(0, 6, 0),
		MonthlyAmount: 1000,
	})
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	current := suite.newProperty()
	ongoing, err := suite.requestRental(suite.agent, current.ID, &suite.clientID2)
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, ongoing.ID)
	suite.Require().NoError(err)

	n, err := suite.rentals.ExpireRentals(suite.ctx, time.Now().UTC())
	suite.Require().NoError(err)
	suite.Equal(1, n)

	got, err := suite.store.Rentals().GetByID(suite.ctx, r.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalFinished, got.Status)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(p.ID))
	suite.Equal(models.PropertyRented, suite.propertyStatus(current.ID))

	n, err = suite.rentals.ExpireRentals(suite.ctx, time.Now().UTC())
	suite.Require().NoError(err)
	suite.Equal(0, n)

	history, err := suite.audit.GetEntityHistory(suite.ctx, suite.admin, models.EntityRental, r.ID, 0, 0)
	suite.Require().NoError(err)
	suite.Require().NotEmpty(history)
	suite.Equal(models.ActionExpire, history[0].Action)
	suite.Nil(history[0].ActorID)
}

func (suite *EngineTestSuite) TestAuditTrail_RecordsTransitions() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.client1, p.ID, nil)
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)

	rentalLog, err := suite.audit.GetEntityHistory(suite.ctx, suite.admin, models.EntityRental, r.ID, 0, 0)
	suite.Require().NoError(err)
	suite.Len(rentalLog, 2)

	propertyLog, err := suite.audit.GetEntityHistory(suite.ctx, suite.admin, models.EntityProperty, p.ID, 0, 0)
	suite.Require().NoError(err)
	suite.Require().Len(propertyLog, 1)
	suite.Equal("available", propertyLog[0].FromStatus)
	suite.Equal("rented", propertyLog[0].ToStatus)
	suite.Equal(suite.agent.UserID, *propertyLog[0].ActorID)

	_, err = suite.audit.ListAuditLogs(suite.ctx, suite.agent, nil)
	suite.True(common.IsForbidden(err))
}

func (suite *EngineTestSuite) TestApproveRental_NotifiesClient() {
	p := suite.newProperty()
	r, err := suite.requestRental(suite.client1, p.ID, nil)
	suite.Require().NoError(err)

	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, r.ID)
	suite.Require().NoError(err)
	suite.Equal(1, suite.mailer.count())
}

func (suite *EngineTestSuite) TestListClientRentals_Ownership() {
	p := suite.newProperty()
	_, err := suite.requestRental(suite.client1, p.ID, nil)
	suite.Require().NoError(err)

	mine, err := suite.rentals.ListClientRentals(suite.ctx, suite.client1, suite.clientID1, 0, 0)
	suite.Require().NoError(err)
	suite.Len(mine, 1)

	_, err = suite.rentals.ListClientRentals(suite.ctx, suite.client2, suite.clientID1, 0, 0)
	suite.True(common.IsForbidden(err))

	_, err = suite.rentals.ListRentals(suite.ctx, suite.client1, nil)
	suite.True(common.IsForbidden(err))

	pending, err := suite.rentals.ListPendingRentals(suite.ctx, suite.agent, 0, 0)
	suite.Require().NoError(err)
	suite.Len(pending, 1)
}

func (suite *EngineTestSuite) TestFailedPropertyWrite_LeavesStateUnchanged() {
	rented := suite.newProperty()
	active, err := suite.requestRental(suite.client1, rented.ID, nil)
	suite.Require().NoError(err)
	_, err = suite.rentals.ApproveRental(suite.ctx, suite.agent, active.ID)
	suite.Require().NoError(err)

	free := suite.newProperty()
	pendingRental, err := suite.requestRental(suite.client1, free.ID, nil)
	suite.Require().NoError(err)
	pendingSale, err := suite.requestSale(suite.client2, free.ID, nil)
	suite.Require().NoError(err)

	broken := &failingStore{Store: suite.store, propertyUpdateErr: errors.New("disk full")}
	log := logger.NewNop()
	rentals := NewRentalService(broken, suite.mailer, log)
	sales := NewSaleService(broken, suite.mailer, log)
	auditBefore, err := suite.audit.ListAuditLogs(suite.ctx, suite.admin, &models.AuditLogFilters{})
	suite.Require().NoError(err)

	_, err = rentals.ApproveRental(suite.ctx, suite.agent, pendingRental.ID)
	suite.Error(err)
	rental, err := suite.store.Rentals().GetByID(suite.ctx, pendingRental.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalPending, rental.Status)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(free.ID))

	_, err = rentals.CancelRental(suite.ctx, suite.client1, active.ID)
	suite.Error(err)
	rental, err = suite.store.Rentals().GetByID(suite.ctx, active.ID)
	suite.Require().NoError(err)
	suite.Equal(models.RentalActive, rental.Status)
	suite.True(rental.Active)
	suite.Equal(models.PropertyRented, suite.propertyStatus(rented.ID))

	_, err = sales.ApproveSale(suite.ctx, suite.agent, pendingSale.ID)
	suite.Error(err)
	sale, err := suite.store.Sales().GetByID(suite.ctx, pendingSale.ID)
	suite.Require().NoError(err)
	suite.Equal(models.SalePending, sale.Status)
	suite.Equal(models.PropertyAvailable, suite.propertyStatus(free.ID))

	auditAfter, err := suite.audit.ListAuditLogs(suite.ctx, suite.admin, &models.AuditLogFilters{})
	suite.Require().NoError(err)
	suite.Len(auditAfter, len(auditBefore), "no audit rows from failed transitions")
}
