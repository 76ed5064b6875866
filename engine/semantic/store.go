// Package semantic owns all Qdrant operations for the product index.
// Ingestion writes through Upsert; retrieval reads through Query.
package semantic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vibeshop/vibe-search/engine/catalog"
)

// pointsAPI is the slice of pb.PointsClient the store actually uses.
// Narrowed so tests can mock it without generated-client boilerplate.
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// collectionsAPI is the slice of pb.CollectionsClient the store uses.
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// VectorStore is the sole owner of the vector index connection.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients builds a VectorStore around pre-built clients. Used by
// tests to substitute mocks for the gRPC connection.
func NewWithClients(points pointsAPI, collections collectionsAPI, collection string) *VectorStore {
	return &VectorStore{
		points:      points,
		collections: collections,
		collection:  collection,
	}
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// EnsureCollection creates the collection with cosine distance if it
// doesn't exist. "Already exists" is a no-op, not an error, so ingestion
// can be re-run safely.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return nil
		}
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
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
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}
	return nil
}

// PointID derives the deterministic point UUID for a product id. The
// same product always maps to the same point, which is what makes
// re-ingestion an overwrite rather than a duplicate.
func PointID(itemID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(itemID)).String()
}

// Upsert writes catalog items into the index. The product id travels in
// the payload; the point id is derived from it.
func (v *VectorStore) Upsert(ctx context.Context, items []catalog.Item) error {
	if len(items) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(items))
	for i, it := range items {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(it.ID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: it.Embedding},
				},
			},
			Payload: map[string]*pb.Value{
				"id":        strValue(it.ID),
				"name":      strValue(it.Meta.Name),
				"image_url": strValue(it.Meta.ImageURL),
				"price":     strValue(it.Meta.Price),
				"category":  strValue(it.Meta.Category),
			},
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(items), err)
	}
	return nil
}

// Query performs k-NN similarity search with metadata included, returning
// matches in descending score order.
func (v *VectorStore) Query(ctx context.Context, embedding []float32, topK int) ([]catalog.Match, error) {
	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: query: %w", err)
	}

	matches := make([]catalog.Match, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		m := catalog.Match{Score: r.GetScore()}
		for k, val := range r.GetPayload() {
			s := val.GetStringValue()
			switch k {
			case "id":
				m.ID = s
			case "name":
				m.Meta.Name = s
			case "image_url":
				m.Meta.ImageURL = s
			case "price":
				m.Meta.Price = s
			case "category":
				m.Meta.Category = s
			}
		}
		matches[i] = m
	}
	return matches, nil
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
