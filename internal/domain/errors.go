package domain

import "errors"

// Pipeline error taxonomy. Repositories and services wrap these sentinels
// with fmt.Errorf("...: %w", ...) so callers can branch with errors.Is.
var (
	// ErrMalformedJob marks a job payload missing required fields.
	// Non-retryable: the job is dropped with an error log.
	ErrMalformedJob = errors.New("malformed index job")

	// ErrEmbeddingUnavailable marks a transient embedding endpoint failure.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable marks a transient vector index failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrTargetNotIndexed means the artwork has no vector point yet.
	// Expected during the eventual-consistency window after creation.
	ErrTargetNotIndexed = errors.New("artwork not yet indexed")

	// ErrEmptyInput marks empty text handed to the embedding client.
	ErrEmptyInput = errors.New("empty embedding input")

	// ErrNotFound marks a missing primary-store record.
	ErrNotFound = errors.New("record not found")
)
