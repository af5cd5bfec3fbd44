package jobs

import (
	"fmt"
	"log/slog"
)

// Schedules holds the cron expressions of the background jobs. Empty values use
// each job's default.
type Schedules struct {
	Reconcile string
	LowStock  string
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	reconciliationJob *ReconciliationJob
	lowStockJob       *LowStockJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	reconciler Reconciler,
	stockLevels StockLevelReader,
	schedules Schedules,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		reconciliationJob: NewReconciliationJob(reconciler, schedules.Reconcile, logger),
		lowStockJob:       NewLowStockJob(stockLevels, schedules.LowStock, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.reconciliationJob.Start(); err != nil {
		return fmt.Errorf("failed to start reconciliation job: %w", err)
	}

	if err := jm.lowStockJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.reconciliationJob.Stop()
		return fmt.Errorf("failed to start low stock job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.lowStockJob.Stop()
	jm.reconciliationJob.Stop()
}
