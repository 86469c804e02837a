package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantStore is the sole owner of all Qdrant operations. It implements
// VectorStore by embedding incoming texts and upserting them as points
// keyed by the caller-supplied ids.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	embedder    Embedder
}

// NewQdrant creates a QdrantStore connected to Qdrant at the given gRPC
// address.
func NewQdrant(addr, collection string, embedder Embedder) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		embedder:    embedder,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", s.collection, err)
	}
	return nil
}

// AddDocuments implements VectorStore. Point ids reuse the chunk ids, which
// are UUIDs, so re-adding a chunk overwrites its previous point.
func (s *QdrantStore) AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) error {
	if len(texts) != len(metadatas) || len(texts) != len(ids) {
		return fmt.Errorf("semantic: mismatched lengths: %d texts, %d metadatas, %d ids", len(texts), len(metadatas), len(ids))
	}
	if len(texts) == 0 {
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("semantic: embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("semantic: embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	points := make([]*pb.PointStruct, len(texts))
	for i := range texts {
		payload := toPayload(metadatas[i])
		payload["content"] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: texts[i]}}

		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: ids[i]},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err = s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(points), err)
	}
	return nil
}

// Stats implements VectorStore. The per-source breakdown scrolls payloads,
// which is acceptable at documentation-corpus scale.
func (s *QdrantStore) Stats(ctx context.Context) (CollectionStats, error) {
	stats := CollectionStats{Sources: make(map[string]int)}

	exact := true
	count, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return stats, fmt.Errorf("semantic: count points: %w", err)
	}
	stats.TotalChunks = int(count.GetResult().GetCount())

	limit := uint32(512)
	var offset *pb.PointId
	for {
		resp, err := s.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: s.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload: &pb.WithPayloadSelector{
				SelectorOptions: &pb.WithPayloadSelector_Include{
					Include: &pb.PayloadIncludeSelector{Fields: []string{"source"}},
				},
			},
		})
		if err != nil {
			return stats, fmt.Errorf("semantic: scroll points: %w", err)
		}
		for _, p := range resp.GetResult() {
			if src := p.GetPayload()["source"].GetStringValue(); src != "" {
				stats.Sources[src]++
			}
		}
		offset = resp.GetNextPageOffset()
		if offset == nil || len(resp.GetResult()) == 0 {
			break
		}
	}
	return stats, nil
}

// toPayload converts a metadata map into Qdrant payload values.
func toPayload(meta map[string]any) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(meta)+1)
	for k, val := range meta {
		switch tv := val.(type) {
		case string:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
		case int:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
		case int64:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
		case float64:
			payload[k] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
		case bool:
			payload[k] = &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
		default:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
		}
	}
	return payload
}
