package exporter

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler re-runs the export on a fixed interval. It is stateless: every
// tick publishes a fresh snapshot of the current series.
type Scheduler struct {
	interval time.Duration
	exporter *Exporter
}

// NewScheduler creates a cron scheduler around an exporter.
func NewScheduler(interval time.Duration, exp *Exporter) *Scheduler {
	return &Scheduler{interval: interval, exporter: exp}
}

// Start runs an initial export, then one per tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[ExportScheduler] Starting export scheduler", "interval", s.interval)

	s.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			slog.Info("[ExportScheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// runOnce publishes one snapshot. A failed run is logged and retried on the
// next tick rather than stopping the scheduler.
func (s *Scheduler) runOnce(ctx context.Context) {
	if err := s.exporter.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("[ExportScheduler] Export run failed", "error", err)
	}
}
