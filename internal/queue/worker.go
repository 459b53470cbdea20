package queue

import (
	"context"
	"errors"
	"time"

	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/logger"
	"golang.org/x/time/rate"
)

// Processor runs the business logic for one job attempt.
// *service.Indexer is the production implementation.
type Processor interface {
	Process(ctx context.Context, job *domain.IndexJob) error
}

// WorkerConfig holds worker loop settings.
type WorkerConfig struct {
	JobsPerMinute int           // admission ceiling for job starts
	Burst         int           // limiter burst size
	PollInterval  time.Duration // queue poll cadence
	BatchSize     int           // max jobs claimed per poll
	JobTimeout    time.Duration // per-attempt deadline
}

// Worker drains the index-job queue. One worker process consumes jobs
// at-least-once; the rate limiter caps job starts per rolling window to
// protect the embedding and vector services from bursts. Transient
// failures stay inside the retry loop and never crash the worker.
type Worker struct {
	queue        *Queue
	processor    Processor
	limiter      *rate.Limiter
	logger       *logger.Logger
	pollInterval time.Duration
	batchSize    int
	jobTimeout   time.Duration
}

// NewWorker creates a new Worker.
func NewWorker(q *Queue, processor Processor, log *logger.Logger, cfg *WorkerConfig) *Worker {
	jobsPerMinute := 60
	burst := 10
	pollInterval := 2 * time.Second
	batchSize := 10
	jobTimeout := time.Minute
	if cfg != nil {
		if cfg.JobsPerMinute > 0 {
			jobsPerMinute = cfg.JobsPerMinute
		}
		if cfg.Burst > 0 {
			burst = cfg.Burst
		}
		if cfg.PollInterval > 0 {
			pollInterval = cfg.PollInterval
		}
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
		if cfg.JobTimeout > 0 {
			jobTimeout = cfg.JobTimeout
		}
	}

	return &Worker{
		queue:        q,
		processor:    processor,
		limiter:      rate.NewLimiter(rate.Limit(float64(jobsPerMinute)/60.0), burst),
		logger:       log,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		jobTimeout:   jobTimeout,
	}
}

// Run polls the queue until ctx is cancelled. On cancellation the current
// batch is finished before returning, so in-flight jobs drain cleanly.
func (w *Worker) Run(ctx context.Context) error {
	if n, err := w.queue.ResetInFlight(ctx); err != nil {
		w.logger.WithError(err).Error("Failed to reset in-flight jobs")
	} else if n > 0 {
		w.logger.WithField(logger.FieldCount, n).Info("Requeued in-flight jobs from previous run")
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("Indexing worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Indexing worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.drainBatch(ctx)
		}
	}
}

// drainBatch claims due jobs and processes them sequentially. Admission
// control happens per job start, before any downstream call.
func (w *Worker) drainBatch(ctx context.Context) {
	jobs, err := w.queue.ClaimDue(ctx, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Error("Failed to claim jobs")
		return
	}

	for i := range jobs {
		if err := w.limiter.Wait(ctx); err != nil {
			// Shutdown mid-batch: unstarted jobs stay in_flight and are
			// requeued by ResetInFlight on the next run
			return
		}
		w.handle(ctx, &jobs[i])
	}
}

// handle runs one attempt and applies the job's disposition.
func (w *Worker) handle(ctx context.Context, job *domain.IndexJob) {
	jobCtx := logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "indexer",
		logger.FieldJobID:     job.ID,
		logger.FieldArtworkID: job.ArtworkID,
	})
	jobCtx, cancel := context.WithTimeout(jobCtx, w.jobTimeout)
	defer cancel()

	start := time.Now()
	err := w.processor.Process(jobCtx, job)
	if err == nil {
		if cerr := w.queue.Complete(ctx, job); cerr != nil {
			// The point is upserted; a redelivery would just repeat it
			logger.CtxError(jobCtx, "Failed to remove completed job: %v", cerr)
			return
		}
		logger.With(logger.Fields{
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
			logger.FieldAttempt:    job.Attempts + 1,
		}).Info(jobCtx, "Index job completed")
		return
	}

	if errors.Is(err, domain.ErrMalformedJob) {
		logger.CtxError(jobCtx, "Dropping malformed job: %v", err)
		if derr := w.queue.Discard(ctx, job); derr != nil {
			logger.CtxError(jobCtx, "Failed to discard malformed job: %v", derr)
		}
		return
	}

	if w.queue.Exhausted(job) {
		logger.With(logger.Fields{
			logger.FieldAttempt: job.Attempts + 1,
		}).Error(jobCtx, "Index job exhausted all attempts, dropping: %v", err)
		if derr := w.queue.Discard(ctx, job); derr != nil {
			logger.CtxError(jobCtx, "Failed to discard exhausted job: %v", derr)
		}
		return
	}

	if rerr := w.queue.Reschedule(ctx, job, err); rerr != nil {
		logger.CtxError(jobCtx, "Failed to reschedule job: %v", rerr)
		return
	}
	logger.With(logger.Fields{
		logger.FieldAttempt: job.Attempts,
	}).Warn(jobCtx, "Index job failed, retry scheduled in %s: %v",
		time.Until(job.NextRunAt).Round(time.Millisecond), err)
}
