package service

import (
	"context"
	"time"

	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/repository"
)

// EmbeddingProvider turns free text into a fixed-length vector. Calls are
// pure remote calls with no internal retries; retry policy belongs to the
// caller. Two calls with identical text are close under the index's
// distance metric but not guaranteed bit-identical across model versions.
type EmbeddingProvider interface {
	// EmbedPassage embeds content text for indexing.
	EmbedPassage(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// VectorIndex is the contract over the external vector index.
// *repository.QdrantRepository is the production implementation.
type VectorIndex interface {
	Upsert(ctx context.Context, artworkID string, vector []float32, indexedAt time.Time) error
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, offset int) ([]repository.VectorHit, error)
	Retrieve(ctx context.Context, ids []string, withVector bool) ([]repository.VectorPoint, error)
	Delete(ctx context.Context, ids []string) error
}

// ArtworkFinder is the read side of the content repository consumed by the
// query engine.
type ArtworkFinder interface {
	GetEnrichedByIDs(ctx context.Context, ids []string, viewerID string) ([]domain.ArtworkResult, error)
	RandomSample(ctx context.Context, n int, viewerID string) ([]domain.ArtworkResult, error)
	FilterByIDs(ctx context.Context, ids []string, opts repository.FilterOptions, viewerID string) ([]domain.ArtworkResult, error)
}

// ArtworkStore is the write side consumed by the ingestion coordinator.
type ArtworkStore interface {
	Create(ctx context.Context, artwork *domain.Artwork) error
	Update(ctx context.Context, artwork *domain.Artwork) error
	GetByID(ctx context.Context, id string) (*domain.Artwork, error)
	Delete(ctx context.Context, id string) error
}

// JobEnqueuer accepts index jobs for durable background processing.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *domain.IndexJob) error
}
