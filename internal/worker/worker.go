// Package worker runs periodic maintenance tasks alongside the HTTP server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// SweepInterval is how often to sweep for dead promotions
	SweepInterval time.Duration
}

// Worker sweeps inactive and expired promotions out of the catalog so the
// pricing engine never has to scan them.
type Worker struct {
	config     Config
	promotions service.PromotionService
	logger     *slog.Logger
}

// New creates a promotion sweep worker.
func New(promotions service.PromotionService, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = 1 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		config:     config,
		promotions: promotions,
		logger:     logger,
	}
}

// Start sweeps on a fixed interval until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"sweep_interval", w.config.SweepInterval,
	)

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			return ctx.Err()

		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one purge pass. Failures are logged and retried on the next
// tick rather than stopping the worker.
func (w *Worker) sweep(ctx context.Context) {
	removed, err := w.promotions.PurgeInactive(ctx)
	if err != nil {
		w.logger.Error("promotion sweep failed",
			"worker_id", w.config.WorkerID,
			"error", err,
		)
		return
	}
	if removed > 0 {
		w.logger.Info("promotion sweep completed",
			"worker_id", w.config.WorkerID,
			"removed", removed,
		)
	}
}
