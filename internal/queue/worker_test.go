package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/logger"
)

// scriptedProcessor fails according to errs, one entry per call; calls
// beyond the script succeed.
type scriptedProcessor struct {
	errs  []error
	calls int
}

func (p *scriptedProcessor) Process(_ context.Context, _ *domain.IndexJob) error {
	p.calls++
	if p.calls <= len(p.errs) {
		return p.errs[p.calls-1]
	}
	return nil
}

func newTestWorker(q *Queue, proc Processor) *Worker {
	return NewWorker(q, proc, logger.NewDefault(), &WorkerConfig{
		JobsPerMinute: 6000,
		Burst:         100,
		PollInterval:  5 * time.Millisecond,
		BatchSize:     10,
		JobTimeout:    time.Second,
	})
}

func TestWorkerHandleSuccess(t *testing.T) {
	q := New(newTestDB(t), nil)
	ctx := context.Background()
	proc := &scriptedProcessor{}
	w := newTestWorker(q, proc)

	if err := q.Enqueue(ctx, payload("art-1")); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	jobs, err := q.ClaimDue(ctx, 1)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("ClaimDue() = %d jobs, err %v", len(jobs), err)
	}

	w.handle(ctx, &jobs[0])

	if proc.calls != 1 {
		t.Errorf("processor calls = %d, want 1", proc.calls)
	}
	n, _ := q.PendingCount(ctx)
	if n != 0 {
		t.Errorf("completed job should be removed, %d rows left", n)
	}
}

// Malformed jobs are dropped on the first attempt, never retried.
func TestWorkerHandleMalformedJob(t *testing.T) {
	q := New(newTestDB(t), nil)
	ctx := context.Background()
	proc := &scriptedProcessor{errs: []error{
		fmt.Errorf("missing fields: title: %w", domain.ErrMalformedJob),
	}}
	w := newTestWorker(q, proc)

	if err := q.Enqueue(ctx, payload("art-1")); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	jobs, _ := q.ClaimDue(ctx, 1)
	w.handle(ctx, &jobs[0])

	if proc.calls != 1 {
		t.Errorf("processor calls = %d, want 1", proc.calls)
	}
	n, _ := q.PendingCount(ctx)
	if n != 0 {
		t.Errorf("malformed job should be discarded, %d rows left", n)
	}
}

func TestWorkerHandleTransientFailure(t *testing.T) {
	db := newTestDB(t)
	q := New(db, &Config{MaxAttempts: 3, BackoffBase: time.Minute})
	ctx := context.Background()
	proc := &scriptedProcessor{errs: []error{domain.ErrEmbeddingUnavailable}}
	w := newTestWorker(q, proc)

	if err := q.Enqueue(ctx, payload("art-1")); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	jobs, _ := q.ClaimDue(ctx, 1)
	w.handle(ctx, &jobs[0])

	var stored domain.IndexJob
	if err := db.First(&stored, "artwork_id = ?", "art-1").Error; err != nil {
		t.Fatalf("failed job should stay in the table: %v", err)
	}
	if stored.Status != domain.JobStatusRetryScheduled {
		t.Errorf("status = %s, want retry_scheduled", stored.Status)
	}
	if stored.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", stored.Attempts)
	}
	if stored.LastError == "" {
		t.Error("last error should be recorded")
	}
	if !stored.NextRunAt.After(time.Now()) {
		t.Error("rescheduled job must not be immediately due")
	}
}

// A persistently failing job runs exactly MaxAttempts times, then is
// dropped with the error logged.
func TestWorkerExhaustsAttemptBudget(t *testing.T) {
	q := New(newTestDB(t), &Config{MaxAttempts: 3, BackoffBase: time.Millisecond})
	ctx := context.Background()
	proc := &scriptedProcessor{errs: []error{
		domain.ErrIndexUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrIndexUnavailable, // must never be reached
	}}
	w := newTestWorker(q, proc)

	if err := q.Enqueue(ctx, payload("art-1")); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		jobs, err := q.ClaimDue(ctx, 1)
		if err != nil {
			t.Fatalf("ClaimDue() error = %v", err)
		}
		if len(jobs) == 0 {
			n, _ := q.PendingCount(ctx)
			if n == 0 {
				break // dropped
			}
			time.Sleep(2 * time.Millisecond) // backoff window
			continue
		}
		w.handle(ctx, &jobs[0])
	}

	if proc.calls != 3 {
		t.Errorf("processor calls = %d, want exactly 3", proc.calls)
	}
	n, _ := q.PendingCount(ctx)
	if n != 0 {
		t.Errorf("exhausted job should be removed, %d rows left", n)
	}
}

func TestWorkerDrainBatch(t *testing.T) {
	q := New(newTestDB(t), nil)
	ctx := context.Background()
	proc := &scriptedProcessor{}
	w := newTestWorker(q, proc)

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(ctx, payload(id)); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	w.drainBatch(ctx)

	if proc.calls != 3 {
		t.Errorf("processor calls = %d, want 3", proc.calls)
	}
	n, _ := q.PendingCount(ctx)
	if n != 0 {
		t.Errorf("all jobs should be completed, %d rows left", n)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	q := New(newTestDB(t), nil)
	proc := &scriptedProcessor{}
	w := newTestWorker(q, proc)

	ctx, cancel := context.WithCancel(context.Background())
	if err := q.Enqueue(ctx, payload("art-1")); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the poll loop a few ticks to pick the job up
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := q.PendingCount(context.Background()); n == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	if proc.calls != 1 {
		t.Errorf("processor calls = %d, want 1", proc.calls)
	}
	n, _ := q.PendingCount(context.Background())
	if n != 0 {
		t.Errorf("job should be completed, %d rows left", n)
	}
}
