package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/rotarytools/grantcalc/internal/snapshot"
)

// SnapshotGenerator defines the interface for recalculating all saved projects.
type SnapshotGenerator interface {
	GenerateAll(ctx context.Context, date time.Time) ([]snapshot.ProjectRun, error)
}

// AfterRunHook is called after each successful revalidation run.
type AfterRunHook interface {
	Export(ctx context.Context, runs []snapshot.ProjectRun) error
}

// RevalidateWorker periodically recalculates every saved project, so stored
// snapshots and the dashboard keep tracking input edits and policy changes.
type RevalidateWorker struct {
	generator SnapshotGenerator
	interval  time.Duration
	hook      AfterRunHook // optional
}

// NewRevalidateWorker creates a new RevalidateWorker with an optional post-run hook.
func NewRevalidateWorker(generator SnapshotGenerator, interval time.Duration, hook AfterRunHook) *RevalidateWorker {
	return &RevalidateWorker{
		generator: generator,
		interval:  interval,
		hook:      hook,
	}
}

// Run starts the revalidation loop. It blocks until the context is cancelled.
func (w *RevalidateWorker) Run(ctx context.Context) {
	slog.Info("RevalidateWorker: starting")

	// Revalidate immediately on startup
	w.revalidate(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RevalidateWorker: shutting down")
			return
		case <-ticker.C:
			w.revalidate(ctx)
		}
	}
}

func (w *RevalidateWorker) revalidate(ctx context.Context) {
	runs, err := w.generator.GenerateAll(ctx, utcDate())
	if err != nil {
		slog.Error("RevalidateWorker: revalidation failed", "error", err)
		return
	}
	slog.Info("RevalidateWorker: revalidation completed", "projects", len(runs))
	w.runHook(ctx, runs)
}

// runHook calls the post-run hook if one is configured.
func (w *RevalidateWorker) runHook(ctx context.Context, runs []snapshot.ProjectRun) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, runs); err != nil {
		slog.Error("RevalidateWorker: export hook failed", "error", err)
	} else {
		slog.Info("RevalidateWorker: export hook completed")
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
