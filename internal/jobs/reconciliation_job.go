package jobs

import (
	"context"
	"log/slog"

	"distribution/internal/core/application/usecases/commands"
	"distribution/internal/core/domain/model/inventory"

	"github.com/robfig/cron/v3"
)

// DefaultReconcileSchedule runs the replay every night at 02:00 (seconds field first).
const DefaultReconcileSchedule = "0 0 2 * * *"

type Reconciler interface {
	Handle(ctx context.Context, cmd commands.ReconcileLedgerCommand) ([]inventory.Discrepancy, error)
}

// ReconciliationJob periodically replays the transaction log and reports lots
// whose stored quantity disagrees with it. It never corrects anything.
type ReconciliationJob struct {
	handler  Reconciler
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewReconciliationJob creates the job. An empty schedule falls back to
// DefaultReconcileSchedule.
func NewReconciliationJob(handler Reconciler, schedule string, logger *slog.Logger) *ReconciliationJob {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	return &ReconciliationJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "reconciliation_job"),
	}
}

func (j *ReconciliationJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		_, _ = j.RunOnce(context.Background())
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Reconciliation job started", "schedule", j.schedule)
	return nil
}

// RunOnce performs a single reconciliation pass and logs every discrepancy.
func (j *ReconciliationJob) RunOnce(ctx context.Context) ([]inventory.Discrepancy, error) {
	discrepancies, err := j.handler.Handle(ctx, commands.NewReconcileLedgerCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Reconciliation failed", "error", err)
		return nil, err
	}

	for _, d := range discrepancies {
		j.logger.WarnContext(ctx, "Lot quantity disagrees with transaction log",
			"lot_id", d.LotID.String(),
			"product_id", d.Key.ProductID.String(),
			"warehouse_id", d.Key.WarehouseID.String(),
			"quantity", d.Quantity,
			"replayed", d.Replayed,
			"entries", d.Entries)
	}
	j.logger.InfoContext(ctx, "Reconciliation finished", "discrepancies", len(discrepancies))
	return discrepancies, nil
}

// Stop waits for a running pass to finish.
func (j *ReconciliationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Reconciliation job stopped")
}
