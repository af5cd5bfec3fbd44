package cmd

import (
	"log/slog"

	httpin "distribution/internal/adapters/in/http"
	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/application/usecases/queries"
	"distribution/internal/core/domain/services"
	"distribution/internal/core/ports"
	"distribution/internal/jobs"
)

// CompositionRoot wires use cases to one storage backend, one key locker and
// one event publisher.
type CompositionRoot struct {
	cfg        Config
	uowFactory ports.UnitOfWorkFactory
	locker     ports.KeyLocker
	publisher  ports.EventPublisher
	engine     services.AllocationEngine
	sequencer  services.RouteSequencer
	logger     *slog.Logger
}

func NewCompositionRoot(
	cfg Config,
	tuning Tuning,
	uowFactory ports.UnitOfWorkFactory,
	locker ports.KeyLocker,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) CompositionRoot {
	return CompositionRoot{
		cfg:        cfg,
		uowFactory: uowFactory,
		locker:     locker,
		publisher:  publisher,
		engine:     services.NewAllocationEngine(tuning.Scoring),
		sequencer:  services.NewRouteSequencer(tuning.Route),
		logger:     logger,
	}
}

func (c *CompositionRoot) stockFactory() commands.StockUoWFactory {
	return FuncStockUoWFactory(func() commands.StockUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) factory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) deliveryFactory() commands.DeliveryUoWFactory {
	return FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) options() []commands.HandlerOption {
	return []commands.HandlerOption{commands.WithLogger(c.logger)}
}

func (c *CompositionRoot) CreateReceiveStockCommandHandler() commands.ReceiveStockCommandHandler {
	return commands.NewReceiveStockCommandHandler(c.stockFactory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateIssueStockCommandHandler() commands.IssueStockCommandHandler {
	return commands.NewIssueStockCommandHandler(c.stockFactory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateAdjustStockCommandHandler() commands.AdjustStockCommandHandler {
	return commands.NewAdjustStockCommandHandler(c.stockFactory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateTransferStockCommandHandler() commands.TransferStockCommandHandler {
	return commands.NewTransferStockCommandHandler(c.stockFactory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateReconcileLedgerCommandHandler() commands.ReconcileLedgerCommandHandler {
	return commands.NewReconcileLedgerCommandHandler(c.stockFactory(), c.locker, c.options()...)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.factory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	return commands.NewTransitionOrderCommandHandler(c.factory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateBuildDistributionPlanCommandHandler() commands.BuildDistributionPlanCommandHandler {
	return commands.NewBuildDistributionPlanCommandHandler(c.factory(), c.engine, c.options()...)
}

func (c *CompositionRoot) CreateExecuteDistributionPlanCommandHandler() commands.ExecuteDistributionPlanCommandHandler {
	return commands.NewExecuteDistributionPlanCommandHandler(c.factory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateCancelDistributionPlanCommandHandler() commands.CancelDistributionPlanCommandHandler {
	return commands.NewCancelDistributionPlanCommandHandler(c.factory(), c.locker, c.options()...)
}

func (c *CompositionRoot) CreateCreateDeliveryCommandHandler() commands.CreateDeliveryCommandHandler {
	return commands.NewCreateDeliveryCommandHandler(c.deliveryFactory(), c.sequencer, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateUpdateDeliveryStopCommandHandler() commands.UpdateDeliveryStopCommandHandler {
	return commands.NewUpdateDeliveryStopCommandHandler(c.deliveryFactory(), c.locker, c.publisher, c.options()...)
}

func (c *CompositionRoot) CreateGetStockLevelsQueryHandler() queries.GetStockLevelsQueryHandler {
	return queries.NewGetStockLevelsQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetLotTransactionsQueryHandler() queries.GetLotTransactionsQueryHandler {
	return queries.NewGetLotTransactionsQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetDistributionPlanQueryHandler() queries.GetDistributionPlanQueryHandler {
	return queries.NewGetDistributionPlanQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateSequenceDeliveryStopsQueryHandler() queries.SequenceDeliveryStopsQueryHandler {
	return queries.NewSequenceDeliveryStopsQueryHandler(c.sequencer)
}

// CreateHTTPServer builds the API with every use case attached.
func (c *CompositionRoot) CreateHTTPServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		ReceiveStock:    c.CreateReceiveStockCommandHandler(),
		IssueStock:      c.CreateIssueStockCommandHandler(),
		AdjustStock:     c.CreateAdjustStockCommandHandler(),
		TransferStock:   c.CreateTransferStockCommandHandler(),
		CreateOrder:     c.CreateCreateOrderCommandHandler(),
		TransitionOrder: c.CreateTransitionOrderCommandHandler(),
		BuildPlan:       c.CreateBuildDistributionPlanCommandHandler(),
		ExecutePlan:     c.CreateExecuteDistributionPlanCommandHandler(),
		CancelPlan:      c.CreateCancelDistributionPlanCommandHandler(),
		CreateDelivery:  c.CreateCreateDeliveryCommandHandler(),
		UpdateStop:      c.CreateUpdateDeliveryStopCommandHandler(),
		StockLevels:     c.CreateGetStockLevelsQueryHandler(),
		LotTransactions: c.CreateGetLotTransactionsQueryHandler(),
		GetOrder:        c.CreateGetOrderQueryHandler(),
		GetPlan:         c.CreateGetDistributionPlanQueryHandler(),
		SequenceRoute:   c.CreateSequenceDeliveryStopsQueryHandler(),
	}, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateReconcileLedgerCommandHandler(),
		c.CreateGetStockLevelsQueryHandler(),
		jobs.Schedules{Reconcile: c.cfg.ReconcileSchedule, LowStock: c.cfg.LowStockSchedule},
		c.logger,
	)
}

type FuncStockUoWFactory func() commands.StockUoW

func (f FuncStockUoWFactory) Create() commands.StockUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}
