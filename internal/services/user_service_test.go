package services

import (
	"context"
	"strings"
	"testing"

	"inmobiliaria/internal/common"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories/memory"
	"inmobiliaria/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// AccountsTestSuite covers users, clients and property types
type AccountsTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store

	users   UserService
	clients ClientService
	types   PropertyTypeService

	admin models.Actor
	agent models.Actor
}

func TestAccountsTestSuite(t *testing.T) {
	suite.Run(t, new(AccountsTestSuite))
}

func (suite *AccountsTestSuite) SetupSuite() {
	bcryptCost = bcrypt.MinCost
}

func (suite *AccountsTestSuite) TearDownSuite() {
	bcryptCost = bcrypt.DefaultCost
}

func (suite *AccountsTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.users = NewUserService(suite.store, logger.NewNop())
	suite.clients = NewClientService(suite.store, logger.NewNop())
	suite.types = NewPropertyTypeService(suite.store)

	root := &models.User{ID: uuid.New(), Name: "Root", Email: "admin@inmo.test", PasswordHash: "x", Age: 40, Role: models.RoleAdmin, Active: true}
	suite.Require().NoError(suite.store.Users().Create(suite.ctx, root))
	suite.admin = models.Actor{UserID: root.ID, Role: models.RoleAdmin}
	suite.agent = suite.createUser("agent@inmo.test", "agent")
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func (suite *AccountsTestSuite) createUser(email, role string) models.Actor {
	u, err := suite.users.CreateUser(suite.ctx, suite.admin, &models.UserInput{
		Name: strPtr("User"), Email: strPtr(email), Password: strPtr("secreto1"), Age: intPtr(30), Role: strPtr(role),
	})
	suite.Require().NoError(err)
	return models.Actor{UserID: u.ID, Role: u.Role}
}

func (suite *AccountsTestSuite) TestCreateUser() {
	_, err := suite.users.CreateUser(suite.ctx, suite.agent, &models.UserInput{
		Name: strPtr("X"), Email: strPtr("x@inmo.test"), Password: strPtr("secreto1"), Age: intPtr(30),
	})
	suite.True(common.IsForbidden(err))

	_, err = suite.users.CreateUser(suite.ctx, suite.admin, &models.UserInput{
		Name: strPtr("X"), Email: strPtr("x@inmo.test"), Password: strPtr("secreto1"), Age: intPtr(30), Role: strPtr("superuser"),
	})
	suite.True(common.IsValidation(err))

	_, err = suite.users.CreateUser(suite.ctx, suite.admin, &models.UserInput{
		Name: strPtr("X"), Email: strPtr("AGENT@inmo.test"), Password: strPtr("secreto1"), Age: intPtr(30),
	})
	suite.True(common.IsConflict(err))
}

func (suite *AccountsTestSuite) TestPasswordTooLong_IsValidation() {
	long := strings.Repeat("x", maxPasswordLength+1)

	_, err := suite.users.CreateUser(suite.ctx, suite.admin, &models.UserInput{
		Name: strPtr("X"), Email: strPtr("long@inmo.test"), Password: strPtr(long), Age: intPtr(30),
	})
	suite.True(common.IsValidation(err), "got %v", err)

	client := suite.createUser("c-long@inmo.test", "cliente")
	_, err = suite.users.UpdateUser(suite.ctx, client, client.UserID, &models.UserInput{Password: strPtr(long)})
	suite.True(common.IsValidation(err), "got %v", err)
}

func (suite *AccountsTestSuite) TestGetUser_SelfOrAdmin() {
	client := suite.createUser("c@inmo.test", "cliente")

	_, err := suite.users.GetUser(suite.ctx, client, suite.agent.UserID)
	suite.True(common.IsForbidden(err))

	u, err := suite.users.GetUser(suite.ctx, client, client.UserID)
	suite.Require().NoError(err)
	suite.Equal(models.RoleClient, u.Role)

	_, err = suite.users.GetUser(suite.ctx, suite.admin, client.UserID)
	suite.NoError(err)
}

func (suite *AccountsTestSuite) TestUpdateUser_RoleChangeIsAdminOnly() {
	client := suite.createUser("c@inmo.test", "client")

	_, err := suite.users.UpdateUser(suite.ctx, client, client.UserID, &models.UserInput{Role: strPtr("admin")})
	suite.True(common.IsForbidden(err))

	u, err := suite.users.UpdateUser(suite.ctx, client, client.UserID, &models.UserInput{Name: strPtr("  Nuevo  ")})
	suite.Require().NoError(err)
	suite.Equal("Nuevo", u.Name)

	u, err = suite.users.UpdateUser(suite.ctx, suite.admin, client.UserID, &models.UserInput{Role: strPtr("agente")})
	suite.Require().NoError(err)
	suite.Equal(models.RoleAgent, u.Role)
}

func (suite *AccountsTestSuite) TestDeactivateAndRestoreUser() {
	err := suite.users.DeactivateUser(suite.ctx, suite.admin, suite.admin.UserID)
	suite.True(common.IsConflict(err), "self deactivation")

	suite.Require().NoError(suite.users.DeactivateUser(suite.ctx, suite.admin, suite.agent.UserID))
	suite.True(common.IsConflict(suite.users.DeactivateUser(suite.ctx, suite.admin, suite.agent.UserID)))

	inactive, err := suite.users.ListInactiveUsers(suite.ctx, suite.admin, 50, 0)
	suite.Require().NoError(err)
	suite.Len(inactive, 1)

	u, err := suite.users.RestoreUser(suite.ctx, suite.admin, suite.agent.UserID)
	suite.Require().NoError(err)
	suite.True(u.Active)
}

func (suite *AccountsTestSuite) TestDeleteUserPermanently() {
	client := suite.createUser("c@inmo.test", "client")
	c, err := suite.clients.CreateClient(suite.ctx, suite.agent, &models.ClientInput{
		UserID: &client.UserID, DocumentID: strPtr("30111222"), Phone: strPtr("555"),
	})
	suite.Require().NoError(err)

	pt, err := suite.types.CreateType(suite.ctx, suite.admin, "Casa")
	suite.Require().NoError(err)
	property := &models.Property{ID: uuid.New(), Address: "X 1", Price: 1, Status: models.PropertyAvailable, Active: true, TypeID: pt.ID, AgentID: suite.agent.UserID, Version: 1}
	suite.Require().NoError(suite.store.Properties().Create(suite.ctx, property))

	err = suite.users.DeleteUserPermanently(suite.ctx, suite.admin, suite.agent.UserID)
	suite.True(common.IsConflict(err), "agent of a property")

	suite.Require().NoError(suite.users.DeleteUserPermanently(suite.ctx, suite.admin, client.UserID))
	gone, err := suite.store.Clients().GetByID(suite.ctx, c.ID)
	suite.Require().NoError(err)
	suite.Nil(gone, "unused client record removed with the user")
}

func (suite *AccountsTestSuite) TestClients() {
	client := suite.createUser("c@inmo.test", "client")
	other := suite.createUser("o@inmo.test", "client")

	_, err := suite.clients.CreateClient(suite.ctx, suite.agent, &models.ClientInput{UserID: &client.UserID})
	suite.True(common.IsValidation(err))

	c, err := suite.clients.CreateClient(suite.ctx, suite.agent, &models.ClientInput{
		UserID: &client.UserID, DocumentID: strPtr(" 30111222 "), Phone: strPtr("555"),
	})
	suite.Require().NoError(err)
	suite.Equal("30111222", c.DocumentID)

	_, err = suite.clients.CreateClient(suite.ctx, suite.agent, &models.ClientInput{
		UserID: &other.UserID, DocumentID: strPtr("30111222"), Phone: strPtr("555"),
	})
	suite.True(common.IsConflict(err), "duplicate document")

	_, err = suite.clients.GetClient(suite.ctx, other, c.ID)
	suite.True(common.IsForbidden(err))

	updated, err := suite.clients.UpdateClient(suite.ctx, client, c.ID, &models.ClientInput{Phone: strPtr("999")})
	suite.Require().NoError(err)
	suite.Equal("999", updated.Phone)

	_, err = suite.clients.UpdateClient(suite.ctx, client, c.ID, &models.ClientInput{UserID: &other.UserID})
	suite.True(common.IsValidation(err))

	suite.True(common.IsForbidden(suite.clients.DeactivateClient(suite.ctx, client, c.ID)))
	suite.Require().NoError(suite.clients.DeactivateClient(suite.ctx, suite.agent, c.ID))
	_, err = suite.clients.GetClient(suite.ctx, client, c.ID)
	suite.True(common.IsNotFound(err))
}

func (suite *AccountsTestSuite) TestPropertyTypes() {
	client := suite.createUser("c@inmo.test", "client")

	_, err := suite.types.CreateType(suite.ctx, suite.agent, "Casa")
	suite.True(common.IsForbidden(err))
	_, err = suite.types.CreateType(suite.ctx, suite.admin, "   ")
	suite.True(common.IsValidation(err))

	casa, err := suite.types.CreateType(suite.ctx, suite.admin, "Casa")
	suite.Require().NoError(err)
	_, err = suite.types.CreateType(suite.ctx, suite.admin, "Casa")
	suite.True(common.IsConflict(err))

	property := &models.Property{ID: uuid.New(), Address: "X 1", Price: 1, Status: models.PropertyAvailable, Active: true, TypeID: casa.ID, AgentID: suite.agent.UserID, Version: 1}
	suite.Require().NoError(suite.store.Properties().Create(suite.ctx, property))

	suite.True(common.IsConflict(suite.types.DeactivateType(suite.ctx, suite.admin, casa.ID)))

	property.Active = false
	suite.Require().NoError(suite.store.Properties().Update(suite.ctx, property))
	suite.Require().NoError(suite.types.DeactivateType(suite.ctx, suite.admin, casa.ID))
	suite.True(common.IsConflict(suite.types.DeleteTypePermanently(suite.ctx, suite.admin, casa.ID)))

	visible, err := suite.types.ListTypes(suite.ctx, client, true)
	suite.Require().NoError(err)
	suite.Empty(visible, "clients never see inactive types")

	all, err := suite.types.ListTypes(suite.ctx, suite.admin, true)
	suite.Require().NoError(err)
	suite.Len(all, 1)
}
