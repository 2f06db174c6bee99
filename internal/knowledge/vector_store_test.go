package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedRecord(t *testing.T, id, text string, meta DocumentMetadata) VectorRecord {
	t.Helper()
	vec, err := newTestEmbedder().Embed(context.Background(), text)
	require.NoError(t, err)
	return VectorRecord{ID: id, Text: text, Embedding: vec, Metadata: meta}
}

func queryVec(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := newTestEmbedder().Embed(context.Background(), text)
	require.NoError(t, err)
	return vec
}

func TestFilter_Scoped(t *testing.T) {
	assert.False(t, Filter{}.Scoped())
	assert.False(t, Filter{OwnerID: "  "}.Scoped())
	assert.False(t, Filter{OwnerID: UnknownScope, NovelID: "1"}.Scoped())
	assert.True(t, Filter{OwnerID: "42"}.Scoped())

	assert.Equal(t, map[string]string{MetaOwnerID: "42"}, Filter{OwnerID: "42"}.Clauses())
	assert.Equal(t, map[string]string{MetaOwnerID: "42", MetaNovelID: "9"}, Filter{OwnerID: "42", NovelID: "9"}.Clauses())
}

func TestChromemStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	meta := DocumentMetadata{Type: DocumentTypeCharacter, OwnerID: "42", NovelID: "9", SourceID: "7"}

	require.NoError(t, store.Upsert(ctx, embedRecord(t, "char_7", "Aria the dragon rider", meta)))
	require.NoError(t, store.Upsert(ctx, embedRecord(t, "char_7", "Aria the sword master", meta)))

	matches, err := store.Query(ctx, QueryRequest{
		Embedding: queryVec(t, "sword master"),
		Filter:    Filter{OwnerID: "42"},
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "char_7", matches[0].ID)
	assert.Equal(t, "Aria the sword master", matches[0].Content)
	assert.Equal(t, meta, matches[0].Metadata)
}

func TestChromemStore_FilterIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	docs := []VectorRecord{
		embedRecord(t, "char_1", "dragon sword of the north", DocumentMetadata{Type: DocumentTypeCharacter, OwnerID: "1", NovelID: "10"}),
		embedRecord(t, "char_2", "dragon sword of the south", DocumentMetadata{Type: DocumentTypeCharacter, OwnerID: "1", NovelID: "11"}),
		embedRecord(t, "char_3", "dragon sword of the east", DocumentMetadata{Type: DocumentTypeCharacter, OwnerID: "2", NovelID: "10"}),
	}
	for _, doc := range docs {
		require.NoError(t, store.Upsert(ctx, doc))
	}

	matches, err := store.Query(ctx, QueryRequest{Embedding: queryVec(t, "dragon sword"), Filter: Filter{OwnerID: "1"}, Limit: 10})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"char_1", "char_2"}, matchIDs(matches))

	matches, err = store.Query(ctx, QueryRequest{Embedding: queryVec(t, "dragon sword"), Filter: Filter{OwnerID: "1", NovelID: "10"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"char_1"}, matchIDs(matches))

	_, err = store.Query(ctx, QueryRequest{Embedding: queryVec(t, "dragon sword"), Limit: 10})
	assert.ErrorIs(t, err, ErrUnscopedQuery)
}

func TestChromemStore_DeleteAndEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Empty collection and unknown ids are fine.
	matches, err := store.Query(ctx, QueryRequest{Embedding: queryVec(t, "anything"), Filter: Filter{OwnerID: "1"}})
	require.NoError(t, err)
	assert.Empty(t, matches)
	require.NoError(t, store.Delete(ctx, "scene_404"))

	meta := DocumentMetadata{Type: DocumentTypeScene, OwnerID: "1", NovelID: "10"}
	require.NoError(t, store.Upsert(ctx, embedRecord(t, "scene_1", "a storm at the harbour", meta)))
	require.NoError(t, store.Delete(ctx, "scene_1"))

	matches, err = store.Query(ctx, QueryRequest{Embedding: queryVec(t, "storm"), Filter: Filter{OwnerID: "1"}})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemStore_RejectsInvalidRecords(t *testing.T) {
	store := newTestStore(t)

	assert.ErrorIs(t, store.Upsert(context.Background(), VectorRecord{Embedding: []float32{1}}), ErrEmptyID)
	assert.ErrorIs(t, store.Upsert(context.Background(), VectorRecord{ID: "char_1"}), ErrEmptyEmbedding)
}

func TestSortMatchesByScore(t *testing.T) {
	matches := []SearchMatch{{ID: "b", Score: 0.5}, {ID: "a", Score: 0.5}, {ID: "c", Score: 0.9}}
	sortMatchesByScore(matches)
	assert.Equal(t, []string{"c", "a", "b"}, matchIDs(matches))
}

func matchIDs(matches []SearchMatch) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}
