// Package scheduler runs the background jobs of the application: daily
// valuation snapshots and price alert sweeps.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"folio/internal/logger"
	"folio/internal/services"
)

// Scheduler manages the cron-driven background jobs.
type Scheduler struct {
	cron      *cron.Cron
	snapshots services.SnapshotServicer
	alerts    services.AlertServicer
}

// New creates a scheduler over the snapshot and alert services. Schedules
// use standard five-field cron expressions.
func New(snapshots services.SnapshotServicer, alerts services.AlertServicer) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		snapshots: snapshots,
		alerts:    alerts,
	}
}

// Register adds the snapshot and alert jobs with the given schedules.
func (s *Scheduler) Register(snapshotSpec, alertSpec string) error {
	if _, err := s.cron.AddFunc(snapshotSpec, s.runSnapshots); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(alertSpec, s.runAlerts); err != nil {
		return err
	}
	logger.Get().Infow("background jobs registered",
		"snapshot_schedule", snapshotSpec, "alert_schedule", alertSpec)
	return nil
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Get().Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Get().Info("Scheduler stopped")
}

func (s *Scheduler) runSnapshots() {
	if err := s.snapshots.RecordAll(context.Background()); err != nil {
		logger.Get().Errorw("snapshot job failed", "error", err)
	}
}

func (s *Scheduler) runAlerts() {
	triggered, err := s.alerts.EvaluateAll(context.Background())
	if err != nil {
		logger.Get().Errorw("alert job failed", "error", err)
		return
	}
	if triggered > 0 {
		logger.Get().Infow("alert job complete", "triggered", triggered)
	}
}
