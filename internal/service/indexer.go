package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/logger"
)

// Indexer holds the business logic for one index job: validate the
// payload, build the searchable text, embed it, and upsert the point.
// It is idempotent: the upsert keys by artwork id and replaces wholesale,
// so re-processing after a partial failure never leaves duplicate or
// partial state.
type Indexer struct {
	embedding EmbeddingProvider
	index     VectorIndex
	logger    *logger.Logger
}

// NewIndexer creates a new Indexer.
func NewIndexer(embedding EmbeddingProvider, index VectorIndex, log *logger.Logger) *Indexer {
	return &Indexer{
		embedding: embedding,
		index:     index,
		logger:    log,
	}
}

// Process runs one job attempt.
// Parameters:
//   - ctx: context carrying the per-job timeout.
//   - job: job payload to process.
// Returns:
//   - error: domain.ErrMalformedJob for invalid payloads (drop, no retry);
//     domain.ErrEmbeddingUnavailable / domain.ErrIndexUnavailable for
//     transient failures the caller should retry.
func (ix *Indexer) Process(ctx context.Context, job *domain.IndexJob) error {
	if err := validateJob(job); err != nil {
		return err
	}

	text := BuildSearchableText(job.Title, job.Description, job.Prompt, job.Tags)

	vector, err := ix.embedding.EmbedPassage(ctx, text)
	if err != nil {
		return fmt.Errorf("embed artwork %s: %w", job.ArtworkID, err)
	}

	if err := ix.index.Upsert(ctx, job.ArtworkID, vector, time.Now()); err != nil {
		return fmt.Errorf("upsert artwork %s: %w", job.ArtworkID, err)
	}

	logger.CtxDebug(ctx, "Indexed artwork: artwork_id=%s, text_len=%d", job.ArtworkID, len(text))
	return nil
}

// validateJob fails fast on payloads that can never produce a valid
// embedding. Tags default to an empty set.
func validateJob(job *domain.IndexJob) error {
	if job.Tags == nil {
		job.Tags = domain.StringArray{}
	}

	var missing []string
	if strings.TrimSpace(job.ArtworkID) == "" {
		missing = append(missing, "artwork_id")
	}
	if strings.TrimSpace(job.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(job.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(job.Prompt) == "" {
		missing = append(missing, "prompt")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing fields: %s", domain.ErrMalformedJob, strings.Join(missing, ", "))
	}
	return nil
}
