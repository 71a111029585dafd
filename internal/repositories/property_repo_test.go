package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"inmobiliaria/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type PropertyRepoTestSuite struct {
	suite.Suite
	mock       pgxmock.PgxPoolIface
	repo       PropertyRepository
	propertyID uuid.UUID
	typeID     uuid.UUID
	agentID    uuid.UUID
	context    context.Context
}

func (suite *PropertyRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewPropertyRepo(mock)
	suite.propertyID = uuid.New()
	suite.typeID = uuid.New()
	suite.agentID = uuid.New()
	suite.context = context.Background()
}

func (suite *PropertyRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestPropertyRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PropertyRepoTestSuite))
}

func (suite *PropertyRepoTestSuite) propertyRows(status models.PropertyStatus, version int64) *pgxmock.Rows {
	now := time.Now()
	desc := "Two bedrooms"
	size := 80.5
	return pgxmock.NewRows([]string{
		"id", "address", "price", "status", "active", "type_id", "agent_id",
		"description", "size_m2", "version", "created_at", "updated_at",
	}).AddRow(
		suite.propertyID, "Calle Falsa 123", 150000.0, status, true, suite.typeID, suite.agentID,
		&desc, &size, version, now, now,
	)
}

func (suite *PropertyRepoTestSuite) property(version int64) *models.Property {
	return &models.Property{
		ID:      suite.propertyID,
		Address: "Calle Falsa 123",
		Price:   150000,
		Status:  models.PropertyRented,
		Active:  true,
		TypeID:  suite.typeID,
		AgentID: suite.agentID,
		Version: version,
	}
}

func (suite *PropertyRepoTestSuite) TestCreate_SetsInitialVersion() {
	p := suite.property(0)
	p.Status = models.PropertyAvailable

	suite.mock.ExpectExec(`INSERT INTO properties`).
		WithArgs(p.ID, p.Address, p.Price, p.Status, p.Active, p.TypeID, p.AgentID, p.Description, p.SizeM2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, p)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), p.Version)
}

func (suite *PropertyRepoTestSuite) TestGetForUpdate_LocksRow() {
	suite.mock.ExpectQuery(`FROM properties WHERE id = \$1 FOR UPDATE`).
		WithArgs(suite.propertyID).
		WillReturnRows(suite.propertyRows(models.PropertyAvailable, 3))

	p, err := suite.repo.GetForUpdate(suite.context, suite.propertyID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PropertyAvailable, p.Status)
	assert.Equal(suite.T(), int64(3), p.Version)
	assert.Equal(suite.T(), "Two bedrooms", *p.Description)
}

func (suite *PropertyRepoTestSuite) TestGetByID_NotFoundReturnsNil() {
	suite.mock.ExpectQuery(`FROM properties WHERE id = \$1`).
		WithArgs(suite.propertyID).
		WillReturnError(pgx.ErrNoRows)

	p, err := suite.repo.GetByID(suite.context, suite.propertyID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), p)
}

func (suite *PropertyRepoTestSuite) TestUpdate_BumpsVersion() {
	p := suite.property(3)

	suite.mock.ExpectExec(`UPDATE properties .* WHERE id = \$9 AND version = \$10`).
		WithArgs(p.Address, p.Price, p.Status, p.Active, p.TypeID, p.AgentID, p.Description, p.SizeM2, p.ID, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, p)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(4), p.Version)
}

func (suite *PropertyRepoTestSuite) TestUpdate_StaleVersion() {
	p := suite.property(2)

	suite.mock.ExpectExec(`UPDATE properties .* WHERE id = \$9 AND version = \$10`).
		WithArgs(p.Address, p.Price, p.Status, p.Active, p.TypeID, p.AgentID, p.Description, p.SizeM2, p.ID, int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.Update(suite.context, p)
	assert.ErrorIs(suite.T(), err, ErrVersionConflict)
	assert.Equal(suite.T(), int64(2), p.Version)
}

func (suite *PropertyRepoTestSuite) TestUpdate_DatabaseError() {
	p := suite.property(1)

	suite.mock.ExpectExec(`UPDATE properties`).
		WithArgs(p.Address, p.Price, p.Status, p.Active, p.TypeID, p.AgentID, p.Description, p.SizeM2, p.ID, int64(1)).
		WillReturnError(errors.New("database connection failed"))

	err := suite.repo.Update(suite.context, p)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

func (suite *PropertyRepoTestSuite) TestList_AppliesFilters() {
	status := models.PropertyAvailable
	filter := &models.PropertyFilter{Status: &status, TypeID: &suite.typeID, Limit: 10}

	suite.mock.ExpectQuery(`AND active = true AND status = \$1 AND type_id = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(status, suite.typeID, 10, 0).
		WillReturnRows(suite.propertyRows(models.PropertyAvailable, 1))

	properties, err := suite.repo.List(suite.context, filter)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), properties, 1)
}

func (suite *PropertyRepoTestSuite) TestCountByType_ActiveOnly() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM properties WHERE type_id = \$1 AND active = true`).
		WithArgs(suite.typeID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := suite.repo.CountByType(suite.context, suite.typeID, true)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, count)
}
