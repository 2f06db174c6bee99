package knowledge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plotcraft/backend-go/internal/models"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint {
	return &v
}

func newTestStore(t *testing.T) VectorStore {
	t.Helper()
	store, err := NewChromemVectorStore(ChromemOptions{})
	require.NoError(t, err)
	return store
}

func newTestEmbedder() Embedder {
	return NewHashingEmbedder(64)
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (s *failingStore) Upsert(context.Context, VectorRecord) error {
	return s.err
}

func (s *failingStore) Delete(context.Context, ...string) error {
	return s.err
}

func (s *failingStore) Query(context.Context, QueryRequest) ([]SearchMatch, error) {
	return nil, s.err
}

func (s *failingStore) Ready() bool {
	return false
}

// leakyStore ignores the filter and returns whatever it holds.
type leakyStore struct {
	matches []SearchMatch
}

func (s *leakyStore) Upsert(context.Context, VectorRecord) error {
	return nil
}

func (s *leakyStore) Delete(context.Context, ...string) error {
	return nil
}

func (s *leakyStore) Query(context.Context, QueryRequest) ([]SearchMatch, error) {
	return s.matches, nil
}

func (s *leakyStore) Ready() bool {
	return true
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding backend down")
}

func (failingEmbedder) Dimensions() int {
	return 0
}

func (failingEmbedder) Ready() bool {
	return true
}

// slowEmbedder blocks until the context is done.
type slowEmbedder struct{}

func (slowEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return []float32{1}, nil
	}
}

func (slowEmbedder) Dimensions() int {
	return 1
}

func (slowEmbedder) Ready() bool {
	return true
}

// countingEmbedder counts calls to the wrapped embedder.
type countingEmbedder struct {
	Embedder
	mu    sync.Mutex
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.Embedder.Embed(ctx, text)
}

func sampleCharacter(id, owner, project uint, name string) *models.Character {
	return &models.Character{
		CharacterID: id,
		ProjectID:   uintPtr(project),
		CreatedByID: uintPtr(owner),
		Name:        name,
		Alias:       "the Ember",
		Role:        "protagonist",
		Personality: "stubborn and loyal",
		Background:  "raised by dragon keepers",
		Strengths:   "swordsmanship",
		Weaknesses:  "pride",
		Skills:      "fire taming",
	}
}
