package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/renfield/atelier/internal/domain"
	"gorm.io/gorm"
)

// ArtworkRepository handles artwork records and their social-signal enrichment.
type ArtworkRepository struct {
	db *gorm.DB
}

// NewArtworkRepository creates a new ArtworkRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ArtworkRepository: repository instance bound to db.
func NewArtworkRepository(db *gorm.DB) *ArtworkRepository {
	return &ArtworkRepository{db: db}
}

// Create inserts a new artwork record.
func (r *ArtworkRepository) Create(ctx context.Context, artwork *domain.Artwork) error {
	return r.db.WithContext(ctx).Create(artwork).Error
}

// Update updates an existing artwork record.
func (r *ArtworkRepository) Update(ctx context.Context, artwork *domain.Artwork) error {
	return r.db.WithContext(ctx).Save(artwork).Error
}

// GetByID retrieves an artwork by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: artwork ID.
// Returns:
//   - *domain.Artwork: artwork record if found.
//   - error: domain.ErrNotFound if the record does not exist.
func (r *ArtworkRepository) GetByID(ctx context.Context, id string) (*domain.Artwork, error) {
	var artwork domain.Artwork
	if err := r.db.WithContext(ctx).Preload("Owner").First(&artwork, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artwork %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &artwork, nil
}

// Delete removes an artwork record and its interaction rows.
func (r *ArtworkRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.ArtworkLike{}, "artwork_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.ArtworkSave{}, "artwork_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.ArtworkDownload{}, "artwork_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Artwork{}, "id = ?", id).Error
	})
}

// FilterOptions are the relational predicates intersected with a candidate
// id set in FilterByIDs.
type FilterOptions struct {
	Tags    []string
	OwnerID string
	From    *time.Time
	To      *time.Time
}

// GetEnrichedByIDs performs a single batched fetch-and-enrich for the given
// ids: interaction counts, per-viewer liked/saved flags, and the owner's
// public profile. Hidden artworks and ids with no record are simply absent
// from the result. No particular order is guaranteed; callers that need
// vector-search order must re-sort.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: artwork ids to fetch.
//   - viewerID: requesting viewer; empty for anonymous (IsLiked/IsSaved false).
// Returns:
//   - []domain.ArtworkResult: enriched records for the ids that exist.
//   - error: non-nil if a query fails.
func (r *ArtworkRepository) GetEnrichedByIDs(ctx context.Context, ids []string, viewerID string) ([]domain.ArtworkResult, error) {
	if len(ids) == 0 {
		return []domain.ArtworkResult{}, nil
	}

	var artworks []domain.Artwork
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("id IN ? AND visibility = ?", ids, domain.ArtworkVisible).
		Find(&artworks).Error; err != nil {
		return nil, err
	}

	return r.enrich(ctx, artworks, viewerID)
}

// RandomSample returns n enriched visible artworks sampled uniformly
// without replacement.
func (r *ArtworkRepository) RandomSample(ctx context.Context, n int, viewerID string) ([]domain.ArtworkResult, error) {
	if n <= 0 {
		return []domain.ArtworkResult{}, nil
	}

	var artworks []domain.Artwork
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("visibility = ?", domain.ArtworkVisible).
		Order("RANDOM()").
		Limit(n).
		Find(&artworks).Error; err != nil {
		return nil, err
	}

	return r.enrich(ctx, artworks, viewerID)
}

// FilterByIDs intersects a candidate id set with additional relational
// predicates and returns the enriched survivors.
// Tags are stored as a JSON-encoded array, so tag predicates match on the
// quoted element; all requested tags must be present.
func (r *ArtworkRepository) FilterByIDs(ctx context.Context, ids []string, opts FilterOptions, viewerID string) ([]domain.ArtworkResult, error) {
	if len(ids) == 0 {
		return []domain.ArtworkResult{}, nil
	}

	q := r.db.WithContext(ctx).
		Preload("Owner").
		Where("id IN ? AND visibility = ?", ids, domain.ArtworkVisible)

	for _, tag := range opts.Tags {
		q = q.Where("tags LIKE ?", fmt.Sprintf(`%%"%s"%%`, tag))
	}
	if opts.OwnerID != "" {
		q = q.Where("owner_id = ?", opts.OwnerID)
	}
	if opts.From != nil {
		q = q.Where("created_at >= ?", *opts.From)
	}
	if opts.To != nil {
		q = q.Where("created_at <= ?", *opts.To)
	}

	var artworks []domain.Artwork
	if err := q.Find(&artworks).Error; err != nil {
		return nil, err
	}

	return r.enrich(ctx, artworks, viewerID)
}

type countRow struct {
	ArtworkID string
	Total     int64
}

// enrich joins interaction counts and viewer flags onto the fetched rows.
func (r *ArtworkRepository) enrich(ctx context.Context, artworks []domain.Artwork, viewerID string) ([]domain.ArtworkResult, error) {
	if len(artworks) == 0 {
		return []domain.ArtworkResult{}, nil
	}

	ids := make([]string, len(artworks))
	for i := range artworks {
		ids[i] = artworks[i].ID
	}

	likes, err := r.countByArtwork(ctx, &domain.ArtworkLike{}, ids)
	if err != nil {
		return nil, err
	}
	saves, err := r.countByArtwork(ctx, &domain.ArtworkSave{}, ids)
	if err != nil {
		return nil, err
	}
	downloads, err := r.countByArtwork(ctx, &domain.ArtworkDownload{}, ids)
	if err != nil {
		return nil, err
	}

	likedSet := map[string]bool{}
	savedSet := map[string]bool{}
	if viewerID != "" {
		likedSet, err = r.viewerSet(ctx, &domain.ArtworkLike{}, ids, viewerID)
		if err != nil {
			return nil, err
		}
		savedSet, err = r.viewerSet(ctx, &domain.ArtworkSave{}, ids, viewerID)
		if err != nil {
			return nil, err
		}
	}

	results := make([]domain.ArtworkResult, len(artworks))
	for i := range artworks {
		id := artworks[i].ID
		results[i] = domain.ArtworkResult{
			Artwork:        artworks[i],
			LikesCount:     likes[id],
			SavesCount:     saves[id],
			DownloadsCount: downloads[id],
			IsLiked:        likedSet[id],
			IsSaved:        savedSet[id],
		}
	}
	return results, nil
}

func (r *ArtworkRepository) countByArtwork(ctx context.Context, model interface{}, ids []string) (map[string]int64, error) {
	var rows []countRow
	if err := r.db.WithContext(ctx).
		Model(model).
		Select("artwork_id, COUNT(*) as total").
		Where("artwork_id IN ?", ids).
		Group("artwork_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ArtworkID] = row.Total
	}
	return counts, nil
}

func (r *ArtworkRepository) viewerSet(ctx context.Context, model interface{}, ids []string, viewerID string) (map[string]bool, error) {
	var matched []string
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("artwork_id IN ? AND user_id = ?", ids, viewerID).
		Pluck("artwork_id", &matched).Error; err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(matched))
	for _, id := range matched {
		set[id] = true
	}
	return set, nil
}
