package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/renfield/atelier/internal/domain"
)

const (
	jinaEndpoint = "https://api.jina.ai/v1/embeddings"

	taskPassage = "retrieval.passage"
	taskQuery   = "retrieval.query"
)

// EmbeddingService generates text embeddings through the Jina API.
// It satisfies EmbeddingProvider.
type EmbeddingService struct {
	client     *resty.Client
	model      string
	dimensions int
}

// EmbeddingConfig holds configuration for the embedding service.
type EmbeddingConfig struct {
	Model      string
	APIKey     string
	Dimensions int
	Timeout    time.Duration
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(cfg *EmbeddingConfig) *EmbeddingService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &EmbeddingService{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// GetModel returns the model name being used
func (s *EmbeddingService) GetModel() string {
	return s.model
}

// Dimensions returns the vector dimensionality
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// Jina API request/response structures
type jinaRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

// EmbedPassage generates an embedding for content text, optimized for
// retrieval as a passage.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - text: searchable text; must be non-empty after trimming.
// Returns:
//   - []float32: embedding vector.
//   - error: domain.ErrEmptyInput for blank text, wrapped
//     domain.ErrEmbeddingUnavailable on network or service failure.
func (s *EmbeddingService) EmbedPassage(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, text, taskPassage)
}

// EmbedQuery generates an embedding optimized for query/search.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.embed(ctx, query, taskQuery)
}

func (s *EmbeddingService) embed(ctx context.Context, text, task string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	req := jinaRequest{
		Model:         s.model,
		Task:          task,
		Dimensions:    s.dimensions,
		Input:         []string{text},
		EmbeddingType: "float",
	}

	var resp jinaResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(jinaEndpoint)

	if err != nil {
		return nil, fmt.Errorf("%w: failed to call Jina API: %v", domain.ErrEmbeddingUnavailable, err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("%w: Jina API error: %s", domain.ErrEmbeddingUnavailable, resp.Detail)
		}
		return nil, fmt.Errorf("%w: Jina API error: status %d", domain.ErrEmbeddingUnavailable, httpResp.StatusCode())
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", domain.ErrEmbeddingUnavailable)
	}

	return resp.Data[0].Embedding, nil
}
