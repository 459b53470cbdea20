package repository

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"github.com/renfield/atelier/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const (
	defaultVectorDimension = 1024

	payloadKeyArtworkID = "artwork_id"
	payloadKeyIndexedAt = "indexed_at"
)

// QdrantConnectionConfig holds configuration for Qdrant connection
type QdrantConnectionConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS          bool   // Explicitly enable TLS without API Key
	VectorDimension int
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// QdrantRepository is the vector index client. It operates on one fixed
// collection whose dimensionality and distance metric are declared at
// startup and never mutated. Points carry a minimal payload of
// {artwork_id, indexed_at}; the searchable text lives only in the primary
// store so the two stores cannot drift.
type QdrantRepository struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
}

// VectorHit is one similarity-search result.
type VectorHit struct {
	ID    string
	Score float32
}

// VectorPoint is a retrieved point, optionally with its vector.
type VectorPoint struct {
	ID        string
	Vector    []float32
	IndexedAt time.Time
}

// NewQdrantRepository creates a new QdrantRepository.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key).
func NewQdrantRepository(cfg *QdrantConnectionConfig) (*QdrantRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption

	// TLS is enabled if: APIKey is set OR UseTLS is explicitly true
	useTLS := cfg.UseTLS || cfg.APIKey != ""

	if useTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
		creds := credentials.NewTLS(tlsConfig)
		opts = append(opts, grpc.WithTransportCredentials(creds))

		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantRepository{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: vectorDimension,
	}, nil
}

// Close closes the gRPC connection
func (r *QdrantRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist, and rejects
// an existing collection whose vector size conflicts with the configured
// dimensionality.
func (r *QdrantRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok {
			if size != uint64(r.vectorDimension) {
				return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
			}
		}
		return nil // Collection exists
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(128),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create collection: %v", domain.ErrIndexUnavailable, err)
	}

	return nil
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func optionalBool(v bool) *bool {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}

	config := info.GetConfig()
	if config == nil {
		return 0, false
	}

	params := config.GetParams()
	if params == nil {
		return 0, false
	}

	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}

	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}

	return 0, false
}

// Upsert inserts or replaces the point for an artwork. Keyed by the artwork
// id, so re-processing the same job converges to one point (last write
// wins). Waits for the write to be applied before returning.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - artworkID: artwork id, used verbatim as the point id.
//   - vector: embedding of the artwork's searchable text.
//   - indexedAt: time the embedding was produced.
// Returns:
//   - error: wrapped domain.ErrIndexUnavailable on failure.
func (r *QdrantRepository) Upsert(ctx context.Context, artworkID string, vector []float32, indexedAt time.Time) error {
	uid, err := uuid.Parse(artworkID)
	if err != nil {
		return fmt.Errorf("invalid point ID: %w", err)
	}

	points := []*pb.PointStruct{
		{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{
					Uuid: uid.String(),
				},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{
						Data: vector,
					},
				},
			},
			Payload: map[string]*pb.Value{
				payloadKeyArtworkID: {Kind: &pb.Value_StringValue{StringValue: artworkID}},
				payloadKeyIndexedAt: {Kind: &pb.Value_StringValue{StringValue: indexedAt.UTC().Format(time.RFC3339)}},
			},
		},
	}

	_, err = r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Wait:           optionalBool(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upsert point: %v", domain.ErrIndexUnavailable, err)
	}

	return nil
}

// Search performs a similarity search.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - vector: query embedding.
//   - limit: maximum number of hits.
//   - scoreThreshold: minimum similarity score; 0 disables the cutoff.
//   - offset: number of hits to skip for pagination.
// Returns:
//   - []VectorHit: hits ordered by descending score.
//   - error: wrapped domain.ErrIndexUnavailable on failure.
func (r *QdrantRepository) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, offset int) ([]VectorHit, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: false},
		},
	}
	if scoreThreshold > 0 {
		req.ScoreThreshold = &scoreThreshold
	}
	if offset > 0 {
		req.Offset = optionalUint64(uint64(offset))
	}

	resp, err := r.pointsClient.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", domain.ErrIndexUnavailable, err)
	}

	hits := make([]VectorHit, len(resp.Result))
	for i, scored := range resp.Result {
		hits[i] = VectorHit{
			ID:    scored.Id.GetUuid(),
			Score: scored.Score,
		}
	}

	return hits, nil
}

// Retrieve performs a point-lookup by ids. Missing ids are simply absent
// from the result, not an error.
func (r *QdrantRepository) Retrieve(ctx context.Context, ids []string, withVector bool) ([]VectorPoint, error) {
	pointIDs := make([]*pb.PointId, 0, len(ids))
	for _, id := range ids {
		uid, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid point ID %q: %w", id, err)
		}
		pointIDs = append(pointIDs, &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: uid.String()},
		})
	}

	resp, err := r.pointsClient.Get(ctx, &pb.GetPoints{
		CollectionName: r.collectionName,
		Ids:            pointIDs,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: withVector},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve failed: %v", domain.ErrIndexUnavailable, err)
	}

	points := make([]VectorPoint, 0, len(resp.Result))
	for _, p := range resp.Result {
		point := VectorPoint{
			ID: p.Id.GetUuid(),
		}
		if withVector {
			point.Vector = p.GetVectors().GetVector().GetData()
		}
		if payload := p.GetPayload(); payload != nil {
			if v, ok := payload[payloadKeyIndexedAt]; ok {
				if ts, err := time.Parse(time.RFC3339, v.GetStringValue()); err == nil {
					point.IndexedAt = ts
				}
			}
		}
		points = append(points, point)
	}

	return points, nil
}

// Delete removes points by ids. Deleting a non-existent id is a no-op
// success. Waits for the delete to be applied.
func (r *QdrantRepository) Delete(ctx context.Context, ids []string) error {
	pointIDs := make([]*pb.PointId, 0, len(ids))
	for _, id := range ids {
		uid, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid point ID %q: %w", id, err)
		}
		pointIDs = append(pointIDs, &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: uid.String()},
		})
	}

	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Wait:           optionalBool(true),
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete points: %v", domain.ErrIndexUnavailable, err)
	}

	return nil
}
