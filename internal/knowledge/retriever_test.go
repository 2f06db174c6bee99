package knowledge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRetriever(t *testing.T) (*Retriever, VectorStore) {
	t.Helper()
	ctx := context.Background()
	store := newTestStore(t)
	indexer := NewDocumentIndexer(newTestEmbedder(), store, NewRenderer(LocaleEnglish), time.Second, nil)

	indexer.IndexCharacter(ctx, sampleCharacter(1, 100, 10, "Aria dragon sword"))
	indexer.IndexCharacter(ctx, sampleCharacter(2, 100, 11, "Bren dragon sword"))
	indexer.IndexCharacter(ctx, sampleCharacter(3, 200, 10, "Cole dragon sword"))
	for i := uint(10); i < 15; i++ {
		indexer.IndexCharacter(ctx, sampleCharacter(i, 100, 10, fmt.Sprintf("Extra %d dragon", i)))
	}

	r, err := NewRetriever(newTestEmbedder(), store, 0, nil)
	require.NoError(t, err)
	return r, store
}

func TestRetriever_NoOwnerIsEmpty(t *testing.T) {
	r, _ := seededRetriever(t)
	logger, logs := newObservedLogger()
	r.logger = logger

	result := r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon sword"})
	assert.True(t, result.Empty())
	assert.Equal(t, "", result.Context())
	refused := logs.FilterMessage("refusing retrieval without owner scope").All()
	require.Len(t, refused, 1)
	assert.Equal(t, "UNSCOPED_QUERY", refused[0].ContextMap()["code"])

	result = r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon sword", OwnerID: UnknownScope})
	assert.True(t, result.Empty())
}

func TestRetriever_OwnerIsolation(t *testing.T) {
	r, _ := seededRetriever(t)

	result := r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon sword", OwnerID: "200", Limit: 10})
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "char_3", result.Matches[0].ID)

	result = r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon sword", OwnerID: "100", Limit: 10})
	for _, m := range result.Matches {
		assert.Equal(t, "100", m.Metadata.OwnerID)
	}
}

func TestRetriever_QueryWithoutWordsIsEmpty(t *testing.T) {
	r, _ := seededRetriever(t)

	logger, logs := newObservedLogger()
	r.logger = logger

	result := r.Retrieve(context.Background(), RetrievalQuery{Text: "???", OwnerID: "100"})
	assert.True(t, result.Empty())
	assert.Zero(t, logs.FilterMessage("failed to embed retrieval query").Len())
}

func TestRetriever_NovelFilterAndDefaultLimit(t *testing.T) {
	r, _ := seededRetriever(t)

	result := r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon", OwnerID: "100", NovelID: "10"})
	assert.Len(t, result.Matches, 3)
	for _, m := range result.Matches {
		assert.Equal(t, "10", m.Metadata.NovelID)
	}
	for i := 1; i < len(result.Matches); i++ {
		assert.GreaterOrEqual(t, result.Matches[i-1].Score, result.Matches[i].Score)
	}

	result = r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon sword", OwnerID: "100", NovelID: "11"})
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "char_2", result.Matches[0].ID)
}

func TestRetriever_ErrorsAreEmpty(t *testing.T) {
	logger, logs := newObservedLogger()

	r, err := NewRetriever(newTestEmbedder(), &failingStore{err: errors.New("connection refused")}, 3, logger)
	require.NoError(t, err)
	assert.True(t, r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon", OwnerID: "1"}).Empty())
	queryFailed := logs.FilterMessage("vector query failed").All()
	require.Len(t, queryFailed, 1)
	assert.Equal(t, "VECTOR_STORE_UNAVAILABLE", queryFailed[0].ContextMap()["code"])

	r, err = NewRetriever(failingEmbedder{}, newTestStore(t), 3, logger)
	require.NoError(t, err)
	assert.True(t, r.Retrieve(context.Background(), RetrievalQuery{Text: "dragon", OwnerID: "1"}).Empty())
	assert.Equal(t, 1, logs.FilterMessage("failed to embed retrieval query").Len())
}

func TestRetriever_DropsMatchesOutsideFilter(t *testing.T) {
	store := &leakyStore{matches: []SearchMatch{
		{ID: "char_1", Content: "mine", Score: 0.5, Metadata: DocumentMetadata{OwnerID: "1", NovelID: "9"}},
		{ID: "char_2", Content: "theirs", Score: 0.9, Metadata: DocumentMetadata{OwnerID: "2", NovelID: "9"}},
	}}
	r, err := NewRetriever(newTestEmbedder(), store, 3, nil)
	require.NoError(t, err)

	result := r.Retrieve(context.Background(), RetrievalQuery{Text: "x", OwnerID: "1"})
	assert.Equal(t, []string{"mine"}, result.Texts())
}

func TestRetrievalResult_Context(t *testing.T) {
	result := RetrievalResult{Matches: []SearchMatch{{Content: "a"}, {Content: "b"}}}
	assert.Equal(t, "a\n\nb", result.Context())
}

func TestNewRetriever_RequiresDependencies(t *testing.T) {
	_, err := NewRetriever(nil, newTestStore(t), 3, nil)
	assert.Error(t, err)
	_, err = NewRetriever(newTestEmbedder(), nil, 3, nil)
	assert.Error(t, err)
}
