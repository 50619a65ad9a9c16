package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/service"
)

type stubPromotions struct {
	service.PromotionService

	calls atomic.Int64
	err   error
}

func (s *stubPromotions) PurgeInactive(ctx context.Context) (int64, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return 2, nil
}

func testWorker(promos service.PromotionService, interval time.Duration) *Worker {
	return New(promos, Config{SweepInterval: interval}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWorkerSweepsOnInterval(t *testing.T) {
	promos := &stubPromotions{}
	w := testWorker(promos, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Start returned %v, want deadline exceeded", err)
	}
	if promos.calls.Load() == 0 {
		t.Fatal("expected at least one sweep before shutdown")
	}
}

func TestWorkerSurvivesSweepErrors(t *testing.T) {
	promos := &stubPromotions{err: errors.New("db down")}
	w := testWorker(promos, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := w.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Start returned %v, want deadline exceeded", err)
	}
	if promos.calls.Load() < 2 {
		t.Fatalf("worker stopped retrying after an error, calls=%d", promos.calls.Load())
	}
}

func TestNewDefaults(t *testing.T) {
	w := New(&stubPromotions{}, Config{}, nil)
	if w.config.WorkerID == "" {
		t.Fatal("expected generated worker id")
	}
	if w.config.SweepInterval != time.Hour {
		t.Fatalf("default sweep interval = %v, want 1h", w.config.SweepInterval)
	}
}
