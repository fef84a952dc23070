package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotarytools/grantcalc/internal/snapshot"
)

type mockGenerator struct {
	callCount atomic.Int32
	err       error
}

func (m *mockGenerator) GenerateAll(_ context.Context, _ time.Time) ([]snapshot.ProjectRun, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []snapshot.ProjectRun{{}, {}}, nil
}

type mockHook struct {
	exports atomic.Int32
	lastLen atomic.Int32
	err     error
}

func (m *mockHook) Export(_ context.Context, runs []snapshot.ProjectRun) error {
	m.exports.Add(1)
	m.lastLen.Store(int32(len(runs)))
	return m.err
}

func TestRevalidateWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockGenerator{}
	w := NewRevalidateWorker(mock, 50*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
}

func TestRevalidateWorkerCallsHook(t *testing.T) {
	gen := &mockGenerator{}
	hook := &mockHook{}
	w := NewRevalidateWorker(gen, time.Hour, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := hook.exports.Load(); got != 1 {
		t.Errorf("hook exports = %d, want 1 (initial run only)", got)
	}
	if got := hook.lastLen.Load(); got != 2 {
		t.Errorf("hook run count = %d, want 2", got)
	}
}

func TestRevalidateWorkerSkipsHookOnFailure(t *testing.T) {
	gen := &mockGenerator{err: errors.New("db unavailable")}
	hook := &mockHook{}
	w := NewRevalidateWorker(gen, time.Hour, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := hook.exports.Load(); got != 0 {
		t.Errorf("hook exports = %d, want 0 after generation failure", got)
	}
}

func TestRevalidateWorkerContinuesAfterHookError(t *testing.T) {
	gen := &mockGenerator{}
	hook := &mockHook{err: errors.New("sheet unavailable")}
	w := NewRevalidateWorker(gen, 40*time.Millisecond, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := gen.callCount.Load(); got < 2 {
		t.Errorf("call count = %d, want >= 2 (loop should survive hook errors)", got)
	}
}
