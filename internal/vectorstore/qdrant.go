package vectorstore

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"docqa/internal/contextutil"
)

const scrollPageSize = 256

// QdrantStore implements ChunkStore on a Qdrant collection.
// Qdrant is used only for durable storage; similarity search runs in memory.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore creates a Qdrant-backed chunk store.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port is derived from the HTTP port.
func NewQdrantStore(urlStr, collection string) (*QdrantStore, error) {
	host, port, err := grpcEndpoint(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
	}, nil
}

// grpcEndpoint returns the gRPC host and port for a Qdrant HTTP URL.
func grpcEndpoint(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC listens next to the HTTP port
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// PointID maps a chunk ID to the UUID Qdrant requires as a point ID.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// SaveChunks upserts chunks as points carrying their text in the payload.
func (s *QdrantStore) SaveChunks(ctx context.Context, chunks []Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(c.ID)),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":      c.ID,
				"document_id":   c.DocumentID,
				"document_name": c.DocumentName,
				"chunk_index":   c.ChunkIndex,
				"text":          c.Text,
			}),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert chunks", "collection", s.collection, "count", len(chunks), "error", err)
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	logger.InfoContext(ctx, "upserted chunks", "collection", s.collection, "count", len(chunks))
	return nil
}

// DeleteByDocument removes every point whose payload belongs to documentID.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, documentID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("document_id", documentID)},
		}),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete document chunks", "collection", s.collection, "document_id", documentID, "error", err)
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}

	logger.InfoContext(ctx, "deleted document chunks", "collection", s.collection, "document_id", documentID)
	return nil
}

// LoadAll scrolls through the collection and returns every chunk.
func (s *QdrantStore) LoadAll(ctx context.Context) ([]Chunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var (
		chunks []Chunk
		offset *qdrant.PointId
	)
	limit := uint32(scrollPageSize)

	for {
		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll chunks: %w", err)
		}

		// The offset point is returned again as the first element of the next page.
		if offset != nil && len(points) > 0 && points[0].GetId().GetUuid() == offset.GetUuid() {
			points = points[1:]
		}
		if len(points) == 0 {
			break
		}

		for _, p := range points {
			chunks = append(chunks, chunkFromPoint(p))
		}
		offset = points[len(points)-1].GetId()
	}

	slices.SortFunc(chunks, func(a, b Chunk) int {
		if c := cmp.Compare(a.DocumentID, b.DocumentID); c != 0 {
			return c
		}
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})

	logger.InfoContext(ctx, "loaded chunks", "collection", s.collection, "count", len(chunks))
	return chunks, nil
}

func chunkFromPoint(p *qdrant.RetrievedPoint) Chunk {
	payload := p.GetPayload()
	return Chunk{
		ID:           payload["chunk_id"].GetStringValue(),
		DocumentID:   payload["document_id"].GetStringValue(),
		DocumentName: payload["document_name"].GetStringValue(),
		Text:         payload["text"].GetStringValue(),
		ChunkIndex:   int(payload["chunk_index"].GetIntegerValue()),
		Embedding:    p.GetVectors().GetVector().GetData(),
	}
}

// EnsureCollection ensures the collection exists with the specified vector size.
// If the collection exists, validates that the vector size matches.
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      "document_id",
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create document_id index: %w", err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	actualSize := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if actualSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if int(actualSize) != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, actualSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", s.collection, "vector_size", vectorSize)
	return nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
