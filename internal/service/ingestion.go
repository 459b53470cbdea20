package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/logger"
	"github.com/renfield/atelier/internal/storage"
)

// IngestionService is the write path: it persists artwork records and
// enqueues index jobs. Record creation and indexing are decoupled through
// the durable queue, so a queue or index outage never blocks creation.
type IngestionService struct {
	artworks ArtworkStore
	queue    JobEnqueuer
	index    VectorIndex
	storage  storage.ObjectStorage
	logger   *logger.Logger
}

// NewIngestionService creates a new ingestion coordinator.
func NewIngestionService(
	artworks ArtworkStore,
	queue JobEnqueuer,
	index VectorIndex,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
) *IngestionService {
	return &IngestionService{
		artworks: artworks,
		queue:    queue,
		index:    index,
		storage:  objectStorage,
		logger:   log,
	}
}

// CreateArtworkInput holds the fields of a newly produced artwork. FileKey
// is the storage key returned by the upload collaborator; the coordinator
// resolves it to a public locator.
type CreateArtworkInput struct {
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Tags        []string `json:"tags"`
	FileKey     string   `json:"file_key"`
}

// UpdateArtworkInput holds the owner-editable fields. Nil pointers leave
// the current value untouched.
type UpdateArtworkInput struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// CreateArtwork persists a new artwork record, then enqueues an index job
// built from the record's fields. The enqueue is fire-and-forget: a queue
// failure is logged as a degraded condition (the artwork exists but is not
// yet searchable), never propagated to the caller.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - input: artwork fields from the generation pipeline.
// Returns:
//   - *domain.Artwork: the persisted record.
//   - error: non-nil only if record creation itself fails.
func (s *IngestionService) CreateArtwork(ctx context.Context, input *CreateArtworkInput) (*domain.Artwork, error) {
	now := time.Now()
	artwork := &domain.Artwork{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Prompt:      input.Prompt,
		Tags:        input.Tags,
		OwnerID:     input.OwnerID,
		FileKey:     input.FileKey,
		FileURL:     s.storage.GetURL(input.FileKey),
		Visibility:  domain.ArtworkVisible,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.artworks.Create(ctx, artwork); err != nil {
		return nil, fmt.Errorf("failed to create artwork: %w", err)
	}

	s.enqueueIndexJob(ctx, artwork)
	return artwork, nil
}

// GetArtwork returns a single artwork record with its owner preloaded.
func (s *IngestionService) GetArtwork(ctx context.Context, id string) (*domain.Artwork, error) {
	return s.artworks.GetByID(ctx, id)
}

// UpdateArtwork applies an owner edit and re-enqueues an index job with the
// same artwork id, so the upsert overwrites the stale point. There is no
// separate update code path on the index side.
func (s *IngestionService) UpdateArtwork(ctx context.Context, id string, input *UpdateArtworkInput) (*domain.Artwork, error) {
	artwork, err := s.artworks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		artwork.Title = *input.Title
	}
	if input.Description != nil {
		artwork.Description = *input.Description
	}
	if input.Tags != nil {
		artwork.Tags = *input.Tags
	}
	artwork.UpdatedAt = time.Now()

	if err := s.artworks.Update(ctx, artwork); err != nil {
		return nil, fmt.Errorf("failed to update artwork: %w", err)
	}

	s.enqueueIndexJob(ctx, artwork)
	return artwork, nil
}

// DeleteArtwork removes the record, its vector point, and the stored
// binary. The vector delete gets one immediate retry; a second failure is
// logged and left to the orphan window rather than failing the delete.
func (s *IngestionService) DeleteArtwork(ctx context.Context, id string) error {
	artwork, err := s.artworks.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.artworks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete artwork: %w", err)
	}

	if err := s.index.Delete(ctx, []string{id}); err != nil {
		if err = s.index.Delete(ctx, []string{id}); err != nil {
			s.log(ctx).WithFields(logger.Fields{
				logger.FieldArtworkID: id,
			}).WithError(err).Warn("Failed to delete vector point, leaving orphan")
		}
	}

	if artwork.FileKey != "" {
		if err := s.storage.Delete(ctx, artwork.FileKey); err != nil {
			s.log(ctx).WithFields(logger.Fields{
				logger.FieldArtworkID: id,
			}).WithError(err).Warn("Failed to delete stored file")
		}
	}

	return nil
}

// enqueueIndexJob builds the job payload from the record. Called once per
// create and once per edit.
func (s *IngestionService) enqueueIndexJob(ctx context.Context, artwork *domain.Artwork) {
	job := &domain.IndexJob{
		ArtworkID:   artwork.ID,
		Title:       artwork.Title,
		Description: artwork.Description,
		Prompt:      artwork.Prompt,
		Tags:        artwork.Tags,
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		// Degraded: the artwork exists but is not searchable until a
		// later re-index. Creation is never rolled back for this.
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldArtworkID: artwork.ID,
		}).WithError(err).Error("Failed to enqueue index job, artwork not searchable")
	}
}

// log returns a logger from context if available, otherwise the default
func (s *IngestionService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}
