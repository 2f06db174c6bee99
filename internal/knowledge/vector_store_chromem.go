package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// ChromemOptions configures the embedded store. An empty Path keeps data in memory.
type ChromemOptions struct {
	Path       string
	Compress   bool
	Collection string
}

type chromemVectorStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

var errNoEmbeddingFunc = errors.New("chromem collection expects precomputed embeddings")

// NewChromemVectorStore opens (or creates) the collection in an embedded chromem database.
func NewChromemVectorStore(opts ChromemOptions) (VectorStore, error) {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	var (
		db  *chromem.DB
		err error
	)
	if opts.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(opts.Path, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db: %w", err)
		}
	}

	metadata := map[string]string{
		"hnsw:space": "cosine",
	}
	// Embeddings always come from our Embedder; the collection never computes them.
	embed := func(context.Context, string) ([]float32, error) {
		return nil, errNoEmbeddingFunc
	}
	collection, err := db.GetOrCreateCollection(opts.Collection, metadata, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", opts.Collection, err)
	}

	return &chromemVectorStore{
		db:         db,
		collection: collection,
	}, nil
}

func (s *chromemVectorStore) Upsert(ctx context.Context, record VectorRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	embedding := make([]float32, len(record.Embedding))
	copy(embedding, record.Embedding)

	doc := chromem.Document{
		ID:        record.ID,
		Metadata:  record.Metadata.Map(),
		Embedding: embedding,
		Content:   record.Text,
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("chromem upsert failed: %w", err)
	}
	return nil
}

func (s *chromemVectorStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("chromem delete failed: %w", err)
	}
	return nil
}

func (s *chromemVectorStore) Query(ctx context.Context, req QueryRequest) ([]SearchMatch, error) {
	if err := normalizeQuery(&req); err != nil {
		return nil, err
	}

	// chromem rejects nResults above the collection size.
	n := req.Limit
	count := s.collection.Count()
	if count == 0 {
		return []SearchMatch{}, nil
	}
	if n > count {
		n = count
	}

	results, err := s.collection.QueryEmbedding(ctx, req.Embedding, n, req.Filter.Clauses(), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query failed: %w", err)
	}

	matches := make([]SearchMatch, 0, len(results))
	for _, result := range results {
		meta := metadataFromMap(result.Metadata)
		if !req.Filter.Matches(meta) {
			continue
		}
		matches = append(matches, SearchMatch{
			ID:       result.ID,
			Content:  result.Content,
			Score:    float64(result.Similarity),
			Metadata: meta,
		})
	}
	sortMatchesByScore(matches)
	return matches, nil
}

func (s *chromemVectorStore) Ready() bool {
	return s.collection != nil
}
