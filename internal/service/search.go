package service

import (
	"context"
	"fmt"
	"time"

	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/logger"
	"github.com/renfield/atelier/internal/repository"
)

// minCandidatePool is the floor on the internal vector-search limit. The
// pool is inflated past the caller's limit so that relational filtering
// and join drops still leave enough candidates.
const minCandidatePool = 100

// advancedPoolFactor inflates the candidate pool for filtered search,
// where relational predicates will shrink it.
const advancedPoolFactor = 5

// SearchConfig holds configuration for the search service.
type SearchConfig struct {
	ScoreThreshold float32 // default minimum similarity when a request carries none
	MaxLimit       int     // upper bound on per-request result size
}

// SearchService is the read path: it blends vector similarity with the
// relational store's filters and social signals. It is stateless and safe
// for unlimited concurrent callers.
type SearchService struct {
	artworks       ArtworkFinder
	index          VectorIndex
	embedding      EmbeddingProvider
	logger         *logger.Logger
	scoreThreshold float32
	maxLimit       int
}

// NewSearchService creates a new search service.
// Parameters:
//   - artworks: content repository read side.
//   - index: vector index client.
//   - embedding: embedding provider for query vectors.
//   - log: logger instance.
//   - cfg: search configuration settings.
// Returns:
//   - *SearchService: initialized search service.
func NewSearchService(
	artworks ArtworkFinder,
	index VectorIndex,
	embedding EmbeddingProvider,
	log *logger.Logger,
	cfg *SearchConfig,
) *SearchService {
	var threshold float32
	maxLimit := minCandidatePool
	if cfg != nil {
		threshold = cfg.ScoreThreshold
		if cfg.MaxLimit > 0 {
			maxLimit = cfg.MaxLimit
		}
	}
	return &SearchService{
		artworks:       artworks,
		index:          index,
		embedding:      embedding,
		logger:         log,
		scoreThreshold: threshold,
		maxLimit:       maxLimit,
	}
}

// log returns a logger from context if available, otherwise the default
func (s *SearchService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// SearchRequest represents a text search request.
type SearchRequest struct {
	Query          string  `json:"query" binding:"required"`
	Limit          int     `json:"limit"`
	ScoreThreshold float32 `json:"score_threshold"`
	Offset         int     `json:"offset"`
	ViewerID       string  `json:"-"`
}

// SearchResponse represents the search response.
type SearchResponse struct {
	Results []domain.ArtworkResult `json:"results"`
	Total   int                    `json:"total"`
	Query   string                 `json:"query"`
}

// SimilarRequest represents a find-similar-to-artwork request.
type SimilarRequest struct {
	ArtworkID      string
	Limit          int
	ScoreThreshold float32
	ViewerID       string
}

// SimilarResponse carries the neighbors plus the target's own enriched
// record as context.
type SimilarResponse struct {
	Target  *domain.ArtworkResult  `json:"target,omitempty"`
	Results []domain.ArtworkResult `json:"results"`
	Total   int                    `json:"total"`
}

// AdvancedSearchRequest combines a semantic query with relational filters.
type AdvancedSearchRequest struct {
	Query          string     `json:"query" binding:"required"`
	Tags           []string   `json:"tags,omitempty"`
	OwnerID        string     `json:"owner_id,omitempty"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
	Limit          int        `json:"limit"`
	ScoreThreshold float32    `json:"score_threshold"`
	ViewerID       string     `json:"-"`
}

// Search performs a semantic text search: embed the query, search the
// vector index with an inflated candidate limit, then resolve hits against
// the primary store and merge. Ids the primary store no longer knows are
// silently dropped, never surfaced as partial records. Results are ordered
// by descending similarity; equal scores keep index arrival order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: search request parameters.
// Returns:
//   - *SearchResponse: merged, ranked results.
//   - error: query-path failures surface directly; there is no fallback.
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	limit := s.clampLimit(req.Limit)
	threshold := s.threshold(req.ScoreThreshold)

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "search",
	})

	queryVector, err := s.embedding.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	internalLimit := limit
	if internalLimit < minCandidatePool {
		internalLimit = minCandidatePool
	}

	hits, err := s.index.Search(ctx, queryVector, internalLimit, threshold, req.Offset)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &SearchResponse{Results: []domain.ArtworkResult{}, Query: req.Query}, nil
	}

	results, err := s.resolveHits(ctx, hits, req.ViewerID)
	if err != nil {
		return nil, err
	}
	if len(results) > limit {
		results = results[:limit]
	}

	logger.CtxInfo(ctx, "Text search completed: query=%q, hits=%d, results=%d",
		req.Query, len(hits), len(results))

	return &SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   req.Query,
	}, nil
}

// Similar finds artworks close to an existing one, using the target's own
// stored vector. The target is excluded from its own neighbor list.
// Returns domain.ErrTargetNotIndexed while the target's index job is still
// pending; callers should treat that as "not yet available".
func (s *SearchService) Similar(ctx context.Context, req *SimilarRequest) (*SimilarResponse, error) {
	limit := s.clampLimit(req.Limit)
	threshold := s.threshold(req.ScoreThreshold)

	points, err := s.index.Retrieve(ctx, []string{req.ArtworkID}, true)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 || len(points[0].Vector) == 0 {
		return nil, fmt.Errorf("artwork %s: %w", req.ArtworkID, domain.ErrTargetNotIndexed)
	}

	// limit+1 leaves room for the self-match that gets filtered out
	hits, err := s.index.Search(ctx, points[0].Vector, limit+1, threshold, 0)
	if err != nil {
		return nil, err
	}

	neighbors := make([]repository.VectorHit, 0, len(hits))
	for _, hit := range hits {
		if hit.ID == req.ArtworkID {
			continue
		}
		neighbors = append(neighbors, hit)
	}
	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}

	ids := make([]string, 0, len(neighbors)+1)
	for _, hit := range neighbors {
		ids = append(ids, hit.ID)
	}
	ids = append(ids, req.ArtworkID)

	enriched, err := s.artworks.GetEnrichedByIDs(ctx, ids, req.ViewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich results: %w", err)
	}
	byID := indexResults(enriched)

	results := mergeHits(neighbors, byID)

	var target *domain.ArtworkResult
	if t, ok := byID[req.ArtworkID]; ok {
		target = &t
	}

	return &SimilarResponse{
		Target:  target,
		Results: results,
		Total:   len(results),
	}, nil
}

// AdvancedSearch runs a semantic search over an extra-large candidate pool,
// then intersects it with relational predicates. Filtering never reorders:
// survivors keep descending-similarity order.
func (s *SearchService) AdvancedSearch(ctx context.Context, req *AdvancedSearchRequest) (*SearchResponse, error) {
	limit := s.clampLimit(req.Limit)
	threshold := s.threshold(req.ScoreThreshold)

	queryVector, err := s.embedding.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	internalLimit := limit * advancedPoolFactor
	if internalLimit < minCandidatePool {
		internalLimit = minCandidatePool
	}

	hits, err := s.index.Search(ctx, queryVector, internalLimit, threshold, 0)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &SearchResponse{Results: []domain.ArtworkResult{}, Query: req.Query}, nil
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}

	filtered, err := s.artworks.FilterByIDs(ctx, ids, repository.FilterOptions{
		Tags:    req.Tags,
		OwnerID: req.OwnerID,
		From:    req.From,
		To:      req.To,
	}, req.ViewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to filter results: %w", err)
	}

	results := mergeHits(hits, indexResults(filtered))
	if len(results) > limit {
		results = results[:limit]
	}

	logger.CtxInfo(ctx, "Advanced search completed: query=%q, pool=%d, filtered=%d, results=%d",
		req.Query, len(hits), len(filtered), len(results))

	return &SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   req.Query,
	}, nil
}

// Discover returns a uniform random sample of visible artworks. No vector
// search is involved and results carry no similarity score.
func (s *SearchService) Discover(ctx context.Context, limit int, viewerID string) (*SearchResponse, error) {
	limit = s.clampLimit(limit)

	results, err := s.artworks.RandomSample(ctx, limit, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to sample artworks: %w", err)
	}

	return &SearchResponse{
		Results: results,
		Total:   len(results),
	}, nil
}

// resolveHits enriches hit ids from the primary store and merges scores.
func (s *SearchService) resolveHits(ctx context.Context, hits []repository.VectorHit, viewerID string) ([]domain.ArtworkResult, error) {
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}

	enriched, err := s.artworks.GetEnrichedByIDs(ctx, ids, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to enrich results: %w", err)
	}

	return mergeHits(hits, indexResults(enriched)), nil
}

// mergeHits walks vector hits in arrival order (already descending by
// score) and attaches each one's enriched record. Hits without a record
// are dropped.
func mergeHits(hits []repository.VectorHit, byID map[string]domain.ArtworkResult) []domain.ArtworkResult {
	results := make([]domain.ArtworkResult, 0, len(hits))
	for _, hit := range hits {
		record, ok := byID[hit.ID]
		if !ok {
			continue
		}
		score := hit.Score
		record.Score = &score
		results = append(results, record)
	}
	return results
}

func indexResults(results []domain.ArtworkResult) map[string]domain.ArtworkResult {
	byID := make(map[string]domain.ArtworkResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	return byID
}

func (s *SearchService) clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

func (s *SearchService) threshold(requested float32) float32 {
	if requested > 0 {
		return requested
	}
	return s.scoreThreshold
}
