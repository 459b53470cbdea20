package service

import (
	"context"
	"io"
	"time"

	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/repository"
)

// fakeEmbedder returns a fixed vector or a scripted error.
type fakeEmbedder struct {
	vector       []float32
	err          error
	passageCalls []string
	queryCalls   []string
}

func (f *fakeEmbedder) EmbedPassage(_ context.Context, text string) ([]float32, error) {
	f.passageCalls = append(f.passageCalls, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	f.queryCalls = append(f.queryCalls, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeIndex keeps points in a map and answers Search with scripted hits.
type fakeIndex struct {
	points       map[string][]float32
	searchHits   []repository.VectorHit
	searchLimits []int
	upsertErr    error
	searchErr    error
	deleteCalls  [][]string
	deleteErr    error
	deleteFails  int // number of Delete calls that fail before succeeding
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{points: make(map[string][]float32)}
}

func (f *fakeIndex) Upsert(_ context.Context, artworkID string, vector []float32, _ time.Time) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.points[artworkID] = vector
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, limit int, _ float32, _ int) ([]repository.VectorHit, error) {
	f.searchLimits = append(f.searchLimits, limit)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	hits := f.searchHits
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeIndex) Retrieve(_ context.Context, ids []string, _ bool) ([]repository.VectorPoint, error) {
	var points []repository.VectorPoint
	for _, id := range ids {
		if v, ok := f.points[id]; ok {
			points = append(points, repository.VectorPoint{ID: id, Vector: v})
		}
	}
	return points, nil
}

func (f *fakeIndex) Delete(_ context.Context, ids []string) error {
	f.deleteCalls = append(f.deleteCalls, ids)
	if f.deleteFails > 0 {
		f.deleteFails--
		return f.deleteErr
	}
	for _, id := range ids {
		delete(f.points, id)
	}
	return nil
}

// fakeFinder answers enrichment from a fixed set of known records.
type fakeFinder struct {
	records map[string]domain.ArtworkResult
	sample  []domain.ArtworkResult
	// filterAllow restricts FilterByIDs to these ids; nil allows all known.
	filterAllow map[string]bool
}

func newFakeFinder(records ...domain.ArtworkResult) *fakeFinder {
	byID := make(map[string]domain.ArtworkResult, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	return &fakeFinder{records: byID}
}

func (f *fakeFinder) GetEnrichedByIDs(_ context.Context, ids []string, _ string) ([]domain.ArtworkResult, error) {
	var out []domain.ArtworkResult
	for _, id := range ids {
		if r, ok := f.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFinder) RandomSample(_ context.Context, n int, _ string) ([]domain.ArtworkResult, error) {
	if len(f.sample) > n {
		return f.sample[:n], nil
	}
	return f.sample, nil
}

func (f *fakeFinder) FilterByIDs(_ context.Context, ids []string, _ repository.FilterOptions, _ string) ([]domain.ArtworkResult, error) {
	var out []domain.ArtworkResult
	for _, id := range ids {
		r, ok := f.records[id]
		if !ok {
			continue
		}
		if f.filterAllow != nil && !f.filterAllow[id] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// fakeStore is an in-memory ArtworkStore.
type fakeStore struct {
	artworks  map[string]*domain.Artwork
	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{artworks: make(map[string]*domain.Artwork)}
}

func (f *fakeStore) Create(_ context.Context, artwork *domain.Artwork) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *artwork
	f.artworks[artwork.ID] = &copied
	return nil
}

func (f *fakeStore) Update(_ context.Context, artwork *domain.Artwork) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	copied := *artwork
	f.artworks[artwork.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*domain.Artwork, error) {
	if a, ok := f.artworks[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	delete(f.artworks, id)
	return nil
}

// fakeQueue records enqueued jobs.
type fakeQueue struct {
	jobs       []*domain.IndexJob
	enqueueErr error
}

func (f *fakeQueue) Enqueue(_ context.Context, job *domain.IndexJob) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

// fakeObjectStorage records deletes and serves public URLs.
type fakeObjectStorage struct {
	deleted   []string
	deleteErr error
}

func (f *fakeObjectStorage) Upload(_ context.Context, _ string, _ io.Reader, _ int64, _ string) error {
	return nil
}

func (f *fakeObjectStorage) GetURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStorage) Exists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func result(id, title string) domain.ArtworkResult {
	return domain.ArtworkResult{
		Artwork: domain.Artwork{
			ID:         id,
			Title:      title,
			Visibility: domain.ArtworkVisible,
		},
	}
}
