// Package jobs provides scheduled background tasks for the distribution engine.
//
// Jobs run on github.com/robfig/cron/v3 with a leading seconds field.
//
// # Available Jobs
//
// 1. ReconciliationJob - replays the transaction log of every lot and logs lots whose quantity disagrees
// 2. LowStockJob - logs product and warehouse pairs whose available stock is below the reorder level
//
// # Usage
//
//	jobManager := jobs.NewJobManager(reconcileHandler, stockLevelsHandler,
//		jobs.Schedules{Reconcile: cfg.ReconcileSchedule}, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Both jobs only report. A failed pass is logged and retried on the next tick;
// a failed start stops the jobs already running.
package jobs
