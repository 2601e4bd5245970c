package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
)

const (
	payloadText      = "text"
	payloadPosition  = "position"
	payloadModel     = "model"
	payloadDimension = "dimension"

	upsertBatchSize = 256
)

// QdrantStore keeps each index in its own Qdrant collection behind an alias.
// The location is the alias name; Save repoints it in one alias update.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	host, port, err := parseQdrantURL(urlStr)
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
		client: client,
	}, nil
}

func parseQdrantURL(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Save creates a fresh collection for ix, points the alias at it and drops
// the collection the alias pointed at before.
func (s *QdrantStore) Save(ctx context.Context, location string, ix *Index) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateAlias(location); err != nil {
		return err
	}

	info := ix.Info()
	collection := versionedCollection(location)

	// Qdrant rejects zero-sized vectors; an empty index still gets a collection.
	size := max(info.Dimension, 1)
	logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", size)
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(size),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.upsertEntries(ctx, collection, ix); err != nil {
		s.dropCollection(ctx, collection)
		return err
	}

	previous, err := s.aliasTarget(ctx, location)
	if err != nil {
		s.dropCollection(ctx, collection)
		return err
	}

	actions := make([]*qdrant.AliasOperations, 0, 2)
	if previous != "" {
		actions = append(actions, qdrant.NewAliasDelete(location))
	}
	actions = append(actions, qdrant.NewAliasCreate(location, collection))
	if err := s.client.UpdateAliases(ctx, actions); err != nil {
		s.dropCollection(ctx, collection)
		return fmt.Errorf("failed to update alias: %w", err)
	}

	// The collection just replaced stays until the next save so searchers
	// loaded before the swap keep working; anything older is dropped.
	s.pruneCollections(ctx, location, collection, previous)

	logger.InfoContext(ctx, "index saved",
		"alias", location,
		"collection", collection,
		"model", info.Model,
		"count", info.Count,
	)
	return nil
}

func (s *QdrantStore) upsertEntries(ctx context.Context, collection string, ix *Index) error {
	logger := contextutil.LoggerFromContext(ctx)
	info := ix.Info()

	for start := 0; start < len(ix.entries); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(ix.entries))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, e := range ix.entries[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(e.Position)),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadText:      e.Text,
					payloadPosition:  e.Position,
					payloadModel:     info.Model,
					payloadDimension: info.Dimension,
				}),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
			return fmt.Errorf("failed to upsert points: %w", err)
		}
	}
	return nil
}

func (s *QdrantStore) dropCollection(ctx context.Context, collection string) {
	if err := s.client.DeleteCollection(ctx, collection); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to delete collection", "collection", collection, "error", err)
	}
}

func (s *QdrantStore) pruneCollections(ctx context.Context, alias string, keep ...string) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to list collections", "alias", alias, "error", err)
		return
	}
	for _, name := range staleCollections(alias, names, keep...) {
		s.dropCollection(ctx, name)
	}
}

// staleCollections returns the versioned collections of alias not named in keep.
func staleCollections(alias string, names []string, keep ...string) []string {
	var stale []string
	for _, name := range names {
		if !isVersionOf(alias, name) || slices.Contains(keep, name) {
			continue
		}
		stale = append(stale, name)
	}
	return stale
}

func isVersionOf(alias, name string) bool {
	suffix, ok := strings.CutPrefix(name, alias+"_")
	if !ok || len(suffix) != 32 {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// aliasTarget returns the collection behind alias, or "" if the alias is unset.
func (s *QdrantStore) aliasTarget(ctx context.Context, alias string) (string, error) {
	aliases, err := s.client.ListAliases(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list aliases: %w", err)
	}
	for _, a := range aliases {
		if a.GetAliasName() == alias {
			return a.GetCollectionName(), nil
		}
	}
	return "", nil
}

// Load resolves the alias and returns a searcher bound to its collection.
func (s *QdrantStore) Load(ctx context.Context, location string) (Searcher, error) {
	if err := validateAlias(location); err != nil {
		return nil, err
	}

	collection, err := s.aliasTarget(ctx, location)
	if err != nil {
		return nil, err
	}
	if collection == "" {
		return nil, fmt.Errorf("no index at alias %s: %w", location, apperrors.ErrIndexNotFound)
	}

	info, err := s.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, err
	}

	searcher := &qdrantSearcher{client: s.client, collection: collection}
	if info.PointsCount == 0 {
		return searcher, nil
	}

	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          qdrant.PtrOf(uint32(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read index metadata: %w", err)
	}
	if len(points) == 0 {
		return searcher, nil
	}

	payload := points[0].GetPayload()
	searcher.info = Info{
		Model:     payload[payloadModel].GetStringValue(),
		Dimension: info.VectorSize,
		Count:     info.PointsCount,
	}
	return searcher, nil
}

// GetCollectionInfo returns information about a collection including point count.
func (s *QdrantStore) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	// Extract vector size
	var vectorSize int
	if config := info.Config; config != nil && config.Params != nil {
		if vectorsConfig := config.Params.GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil {
				vectorSize = int(params.Size)
			}
		}
	}

	// Extract point count (PointsCount is a pointer to uint64)
	var pointsCount int
	if info.PointsCount != nil {
		pointsCount = int(*info.PointsCount)
	}

	return &CollectionInfo{
		VectorSize:  vectorSize,
		PointsCount: pointsCount,
	}, nil
}

// CollectionInfo contains information about a Qdrant collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
}

type qdrantSearcher struct {
	client     *qdrant.Client
	collection string
	info       Info
}

func (q *qdrantSearcher) Info() Info {
	return q.info
}

func (q *qdrantSearcher) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, &apperrors.ValidationError{Field: "k", Message: "must be greater than 0"}
	}
	if q.info.Count == 0 {
		return []Result{}, nil
	}
	if len(query) != q.info.Dimension {
		return nil, apperrors.Mismatch("query has size %d, index has %d", len(query), q.info.Dimension)
	}

	limit := uint64(k)
	scoredPoints, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", q.collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]Result, 0, len(scoredPoints))
	for _, p := range scoredPoints {
		payload := p.GetPayload()
		results = append(results, Result{
			Text:     payload[payloadText].GetStringValue(),
			Score:    p.GetScore(),
			Position: int(payload[payloadPosition].GetIntegerValue()),
		})
	}
	sortResults(results)

	logger.DebugContext(ctx, "search completed", "collection", q.collection, "k", k, "results", len(results))
	return results, nil
}

func versionedCollection(alias string) string {
	return alias + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func validateAlias(alias string) error {
	if alias == "" {
		return &apperrors.ValidationError{Field: "index_location", Message: "cannot be empty"}
	}
	if strings.ContainsAny(alias, `/\:*?"<>|`) {
		return &apperrors.ValidationError{Field: "index_location", Message: fmt.Sprintf("%q is not a valid collection alias", alias)}
	}
	return nil
}
