package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnscopedQuery is returned by every store for a query without an owner.
	ErrUnscopedQuery     = errors.New("vector query requires an owner scope")
	ErrEmptyEmbedding    = errors.New("embedding is empty")
	ErrEmptyID           = errors.New("document id is empty")
	ErrDimensionMismatch = errors.New("embedding size does not match the collection")
)

// VectorRecord is one upsert unit. ID is the stable document id.
type VectorRecord struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  DocumentMetadata
}

// Filter is a conjunction of owner_id and, when set, novel_id.
type Filter struct {
	OwnerID string
	NovelID string
}

// Scoped reports whether the filter names a real owner.
func (f Filter) Scoped() bool {
	owner := strings.TrimSpace(f.OwnerID)
	return owner != "" && owner != UnknownScope
}

// Clauses returns the equality clauses of the filter.
func (f Filter) Clauses() map[string]string {
	clauses := map[string]string{MetaOwnerID: strings.TrimSpace(f.OwnerID)}
	if novel := strings.TrimSpace(f.NovelID); novel != "" {
		clauses[MetaNovelID] = novel
	}
	return clauses
}

func (f Filter) Matches(meta DocumentMetadata) bool {
	for key, value := range f.Clauses() {
		if meta.Map()[key] != value {
			return false
		}
	}
	return true
}

// QueryRequest asks for the Limit nearest documents under Filter.
type QueryRequest struct {
	Embedding []float32
	Filter    Filter
	Limit     int
}

// SearchMatch is one query hit. Higher Score means more similar.
type SearchMatch struct {
	ID       string
	Content  string
	Score    float64
	Metadata DocumentMetadata
}

// VectorStore is a collection with upsert-by-id, delete-by-id and filtered
// nearest-neighbour query. Deleting an unknown id is not an error.
type VectorStore interface {
	Upsert(ctx context.Context, record VectorRecord) error
	Delete(ctx context.Context, ids ...string) error
	Query(ctx context.Context, req QueryRequest) ([]SearchMatch, error)
	Ready() bool
}

const defaultQueryLimit = 3

func validateRecord(record VectorRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return ErrEmptyID
	}
	if len(record.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	return nil
}

func normalizeQuery(req *QueryRequest) error {
	if !req.Filter.Scoped() {
		return ErrUnscopedQuery
	}
	if len(req.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if req.Limit <= 0 {
		req.Limit = defaultQueryLimit
	}
	return nil
}

func sortMatchesByScore(matches []SearchMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
}

// checkDimensions rejects vectors that do not fit a fixed-size collection.
func checkDimensions(vec []float32, size int) error {
	if size > 0 && len(vec) != size {
		return fmt.Errorf("%w: got %d, collection has %d", ErrDimensionMismatch, len(vec), size)
	}
	return nil
}
