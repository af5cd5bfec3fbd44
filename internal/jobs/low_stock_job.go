package jobs

import (
	"context"
	"log/slog"

	"distribution/internal/core/application/usecases/queries"

	"github.com/robfig/cron/v3"
)

// DefaultLowStockSchedule checks stock levels at the top of every hour.
const DefaultLowStockSchedule = "0 0 * * * *"

type StockLevelReader interface {
	Handle(ctx context.Context, query queries.GetStockLevelsQuery) ([]queries.StockLevel, error)
}

// LowStockJob warns about product and warehouse pairs whose available stock
// is below the product's reorder level.
type LowStockJob struct {
	reader   StockLevelReader
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewLowStockJob(reader StockLevelReader, schedule string, logger *slog.Logger) *LowStockJob {
	if schedule == "" {
		schedule = DefaultLowStockSchedule
	}
	return &LowStockJob{
		reader:   reader,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "low_stock_job"),
	}
}

func (j *LowStockJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Low stock job started", "schedule", j.schedule)
	return nil
}

// RunOnce returns the levels below their reorder point.
func (j *LowStockJob) RunOnce(ctx context.Context) ([]queries.StockLevel, error) {
	query, err := queries.NewGetStockLevelsQuery(nil, nil)
	if err != nil {
		return nil, err
	}

	levels, err := j.reader.Handle(ctx, query)
	if err != nil {
		j.logger.ErrorContext(ctx, "Low stock check failed", "error", err)
		return nil, err
	}

	var low []queries.StockLevel
	for _, level := range levels {
		if !level.BelowReorder {
			continue
		}
		low = append(low, level)
		j.logger.WarnContext(ctx, "Stock below reorder level",
			"product_id", level.ProductID,
			"warehouse_id", level.WarehouseID,
			"available", level.Available)
	}
	return low, nil
}

func (j *LowStockJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Low stock job stopped")
}
