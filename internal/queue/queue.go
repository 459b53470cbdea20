package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/renfield/atelier/internal/domain"
	"gorm.io/gorm"
)

// Queue is the durable index-job queue, backed by the index_jobs table in
// the primary store. Rows survive process restarts; a claimed row is
// invisible to further claims, so retries for one job are strictly
// sequential. Completed and exhausted jobs are removed rather than kept.
type Queue struct {
	db          *gorm.DB
	maxAttempts int
	backoffBase time.Duration
}

// Config holds queue retry policy.
type Config struct {
	MaxAttempts int           // attempt budget per job
	BackoffBase time.Duration // first retry delay, doubling each retry
}

// New creates a Queue over the given database handle.
func New(db *gorm.DB, cfg *Config) *Queue {
	maxAttempts := domain.DefaultJobAttempts
	backoffBase := 5 * time.Second
	if cfg != nil {
		if cfg.MaxAttempts > 0 {
			maxAttempts = cfg.MaxAttempts
		}
		if cfg.BackoffBase > 0 {
			backoffBase = cfg.BackoffBase
		}
	}
	return &Queue{
		db:          db,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Enqueue accepts a job payload and persists it as immediately due.
// The caller fills only the payload fields; queue bookkeeping (id, status,
// schedule, attempt budget) is assigned here.
func (q *Queue) Enqueue(ctx context.Context, job *domain.IndexJob) error {
	now := time.Now()
	job.ID = uuid.New().String()
	job.Status = domain.JobStatusEnqueued
	job.Attempts = 0
	job.MaxAttempts = q.maxAttempts
	job.NextRunAt = now
	job.EnqueuedAt = now
	job.UpdatedAt = now
	return q.db.WithContext(ctx).Create(job).Error
}

// ClaimDue atomically claims up to limit due jobs, marking them in-flight
// so no other claim sees them. Due means enqueued or retry-scheduled with
// next_run_at in the past, oldest schedule first.
func (q *Queue) ClaimDue(ctx context.Context, limit int) ([]domain.IndexJob, error) {
	var jobs []domain.IndexJob
	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("status IN ? AND next_run_at <= ?",
				[]domain.JobStatus{domain.JobStatusEnqueued, domain.JobStatusRetryScheduled},
				time.Now()).
			Order("next_run_at ASC").
			Limit(limit).
			Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]string, len(jobs))
		for i := range jobs {
			ids[i] = jobs[i].ID
			jobs[i].Status = domain.JobStatusInFlight
		}
		return tx.Model(&domain.IndexJob{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     domain.JobStatusInFlight,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Complete removes a successfully processed job.
func (q *Queue) Complete(ctx context.Context, job *domain.IndexJob) error {
	return q.db.WithContext(ctx).Delete(&domain.IndexJob{}, "id = ?", job.ID).Error
}

// Reschedule records a failed attempt and puts the job back with an
// exponentially grown delay. The caller must check Exhausted first; a
// rescheduled job always has budget left.
func (q *Queue) Reschedule(ctx context.Context, job *domain.IndexJob, cause error) error {
	job.Attempts++
	job.Status = domain.JobStatusRetryScheduled
	job.NextRunAt = time.Now().Add(q.Backoff(job.Attempts))
	if cause != nil {
		job.LastError = cause.Error()
	}
	job.UpdatedAt = time.Now()
	return q.db.WithContext(ctx).Save(job).Error
}

// Discard removes a job without completing it: either malformed or
// exhausted. The caller is responsible for logging why.
func (q *Queue) Discard(ctx context.Context, job *domain.IndexJob) error {
	return q.db.WithContext(ctx).Delete(&domain.IndexJob{}, "id = ?", job.ID).Error
}

// Exhausted reports whether the next failure would exceed the attempt
// budget. job.Attempts counts completed (failed) attempts.
func (q *Queue) Exhausted(job *domain.IndexJob) bool {
	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.maxAttempts
	}
	return job.Attempts+1 >= maxAttempts
}

// Backoff returns the delay before the given retry: base doubled for each
// prior failed attempt.
func (q *Queue) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return q.backoffBase << (attempts - 1)
}

// ResetInFlight returns crashed-over in-flight jobs to the runnable pool.
// Called once at worker startup; at-least-once delivery allows the re-run
// because the downstream upsert is idempotent.
func (q *Queue) ResetInFlight(ctx context.Context) (int64, error) {
	res := q.db.WithContext(ctx).Model(&domain.IndexJob{}).
		Where("status = ?", domain.JobStatusInFlight).
		Updates(map[string]interface{}{
			"status":     domain.JobStatusEnqueued,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// PendingCount returns the number of jobs waiting in the queue.
func (q *Queue) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&domain.IndexJob{}).Count(&count).Error
	return count, err
}
