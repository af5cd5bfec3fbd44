package planrepo_test

import (
	"context"
	"testing"
	"time"

	"distribution/internal/adapters/out/postgres/planrepo"
	"distribution/internal/core/domain/model/distribution"
	"distribution/internal/core/domain/model/inventory"
	"distribution/internal/core/domain/model/kernel"
	"distribution/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type PlanRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *planrepo.GormPlanRepository
	tracker    *MockAggregateTracker
}

func (suite *PlanRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&planrepo.PlanDTO{}, &planrepo.AllocationDTO{}))
}

func (suite *PlanRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE plan_allocations, distribution_plans").Error)
	suite.tracker = new(MockAggregateTracker)
	suite.repository = planrepo.NewGormPlanRepository(suite.db, suite.tracker, false)
}

func (suite *PlanRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *PlanRepositoryIntegrationTestSuite) TestAddAndGet_KeepsAllocationOrder() {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	plan := suite.newPlan(orderID, 3)
	suite.tracker.On("TrackAggregate", plan.ID(), plan).Once()

	suite.Require().NoError(suite.repository.Add(ctx, plan))

	got, err := suite.repository.Get(ctx, plan.ID())
	suite.Require().NoError(err)
	suite.Equal(distribution.PlanDraft, got.Status())
	suite.Equal(plan.WarehouseScope(), got.WarehouseScope())
	suite.Equal(plan.TotalRequested(), got.TotalRequested())
	suite.Require().Len(got.Allocations(), 3)
	for i, a := range got.Allocations() {
		suite.Equal(plan.Allocations()[i].ID(), a.ID())
		suite.Equal(i+1, a.LineNumber())
		suite.InDelta(plan.Allocations()[i].PriorityScore(), a.PriorityScore(), 1e-9)
	}
	suite.InDelta(plan.OptimizationScore(), got.OptimizationScore(), 1e-9)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *PlanRepositoryIntegrationTestSuite) TestUpdate_ConfirmedAllocation() {
	ctx := context.Background()
	plan := suite.newPlan(kernel.NewUUID(), 1)
	suite.tracker.On("TrackAggregate", plan.ID(), plan).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, plan))

	allocation := plan.Allocations()[0]
	key, err := inventory.NewLotKey(allocation.ProductID(), allocation.WarehouseID(), "", "")
	suite.Require().NoError(err)
	suite.Require().NoError(allocation.Confirm([]inventory.Portion{
		{LotID: *allocation.LotID(), Key: key, Quantity: allocation.AllocatedQuantity()},
	}))
	suite.Require().NoError(plan.Activate(time.Now()))

	suite.Require().NoError(suite.repository.Update(ctx, plan))

	got, err := suite.repository.Get(ctx, plan.ID())
	suite.Require().NoError(err)
	suite.Equal(distribution.PlanActive, got.Status())
	suite.NotNil(got.ExecutedAt())
	suite.Equal(distribution.AllocationConfirmed, got.Allocations()[0].Status())
	suite.Equal(allocation.AllocatedQuantity(), inventory.SumPortions(got.Allocations()[0].Reservations()))
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *PlanRepositoryIntegrationTestSuite) TestGet_Missing() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.True(errs.IsObjectNotFound(err, "plan"))
}

func (suite *PlanRepositoryIntegrationTestSuite) TestListByOrder() {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	older := suite.newPlan(orderID, 1)
	newer := suite.newPlan(orderID, 2)
	other := suite.newPlan(kernel.NewUUID(), 1)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything)
	for _, p := range []*distribution.Plan{older, newer, other} {
		suite.Require().NoError(suite.repository.Add(ctx, p))
	}

	plans, err := suite.repository.ListByOrder(ctx, orderID)

	suite.Require().NoError(err)
	suite.Require().Len(plans, 2)
	suite.Equal(older.ID(), plans[0].ID())
	suite.Equal(newer.ID(), plans[1].ID())
}

// newPlan creates a draft plan with one allocation per line of orderID.
// Plans are created a second apart so ListByOrder order is deterministic.
func (suite *PlanRepositoryIntegrationTestSuite) newPlan(orderID kernel.UUID, lines int) *distribution.Plan {
	warehouseID := kernel.NewUUID()
	allocations := make([]*distribution.Allocation, 0, lines)
	for i := range lines {
		lotID := kernel.NewUUID()
		a, err := distribution.NewAllocation(kernel.NewUUID(), orderID, i+1, kernel.NewUUID(), warehouseID,
			&lotID, 10, 10-i, 140.5+float64(i))
		suite.Require().NoError(err)
		allocations = append(allocations, a)
	}

	createdAt := time.Now().UTC().Truncate(time.Second).Add(time.Duration(lines) * time.Second)
	plan, err := distribution.NewPlan(kernel.NewUUID(), []kernel.UUID{warehouseID}, 1, 10*lines,
		allocations, createdAt)
	suite.Require().NoError(err)
	return plan
}

func TestPlanRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PlanRepositoryIntegrationTestSuite))
}
