package domain

import "time"

// JobStatus represents the queue-side state of an index job.
// Values include JobStatusEnqueued, JobStatusInFlight, and JobStatusRetryScheduled.
// Completed and exhausted jobs are removed from the table rather than kept
// in a terminal state.
type JobStatus string

const (
	JobStatusEnqueued       JobStatus = "enqueued"
	JobStatusInFlight       JobStatus = "in_flight"
	JobStatusRetryScheduled JobStatus = "retry_scheduled"
)

// DefaultJobAttempts is the attempt budget for one index job.
const DefaultJobAttempts = 3

// IndexJob is a durable "(re)index this artwork" work item. The payload
// carries only the text needed to regenerate the embedding, never binary
// assets.
type IndexJob struct {
	ID          string      `gorm:"type:text;primaryKey" json:"id"`
	ArtworkID   string      `gorm:"type:text;not null;index:idx_index_jobs_artwork" json:"artwork_id"`
	Title       string      `gorm:"type:text;not null" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Prompt      string      `gorm:"type:text;not null" json:"prompt"`
	Tags        StringArray `gorm:"type:text" json:"tags"`
	Status      JobStatus   `gorm:"type:text;index:idx_index_jobs_status;default:enqueued" json:"status"`
	Attempts    int         `gorm:"default:0" json:"attempts"`
	MaxAttempts int         `gorm:"default:3" json:"max_attempts"`
	NextRunAt   time.Time   `gorm:"index:idx_index_jobs_next_run" json:"next_run_at"`
	LastError   string      `gorm:"type:text" json:"last_error,omitempty"`
	EnqueuedAt  time.Time   `json:"enqueued_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName returns the database table name for IndexJob.
func (IndexJob) TableName() string {
	return "index_jobs"
}
