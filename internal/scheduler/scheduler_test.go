package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/air-quality-collector/internal/airquality"
)

type countingCollector struct {
	calls atomic.Int32
	err   error
}

func (c *countingCollector) Collect(ctx context.Context) (airquality.CycleReport, error) {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return airquality.CycleReport{}, errors.New("cycle context has no deadline")
	}
	return airquality.CycleReport{ID: "test"}, c.err
}

func TestScheduler_RunsImmediately(t *testing.T) {
	c := &countingCollector{}
	s := New(c, time.Hour, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if got := c.calls.Load(); got != 1 {
		t.Errorf("calls after Start = %d, want 1", got)
	}
}

func TestScheduler_KeepsRunningAfterFailure(t *testing.T) {
	c := &countingCollector{err: airquality.ErrEmptyDataset}
	s := New(c, time.Second, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for c.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if got := c.calls.Load(); got < 3 {
		t.Errorf("calls = %d, want at least 3", got)
	}
}

func TestScheduler_InvalidInterval(t *testing.T) {
	c := &countingCollector{}
	if err := New(c, 0, nil).Start(context.Background()); err == nil {
		t.Fatal("Start() expected error for zero interval")
	}
	if c.calls.Load() != 0 {
		t.Error("collector ran despite invalid interval")
	}
}

func TestScheduler_CanceledParentSkipsCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &countingCollector{}
	s := New(c, time.Hour, nil)
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if c.calls.Load() != 0 {
		t.Error("collector ran with canceled context")
	}
}
