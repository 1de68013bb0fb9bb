package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/observability/metrics"
)

// StatsWorker periodically refreshes the registered-user and active-application
// gauges from the store, so the metrics stay honest across restarts and
// out-of-band writes.
type StatsWorker struct {
	users        domain.UserRepository
	applications domain.ApplicationRepository
	logger       *slog.Logger
	interval     time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(
	users domain.UserRepository,
	applications domain.ApplicationRepository,
	logger *slog.Logger,
	interval time.Duration,
) *StatsWorker {
	if interval <= 0 {
		interval = time.Minute
	}

	return &StatsWorker{
		users:        users,
		applications: applications,
		logger:       logger,
		interval:     interval,
	}
}

// Start begins the stats worker loop. It runs until ctx is cancelled.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	userCount, err := w.users.Count(ctx)
	if err != nil {
		w.logger.Error("failed to count users", slog.String("error", err.Error()))
	} else {
		metrics.SetRegisteredUsers(userCount)
	}

	activeCount, err := w.applications.CountActive(ctx)
	if err != nil {
		w.logger.Error("failed to count active applications", slog.String("error", err.Error()))
	} else {
		metrics.SetActiveApplications(activeCount)
	}

	w.logger.Debug("stats refreshed",
		slog.Int64("registered_users", userCount),
		slog.Int64("active_applications", activeCount),
	)
}
