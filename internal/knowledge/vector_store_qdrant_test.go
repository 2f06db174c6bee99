package knowledge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]interface{}
	APIKey string
}

type fakeQdrant struct {
	mu       sync.Mutex
	requests []recordedRequest
	search   string
}

func (f *fakeQdrant) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &body))
		}
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   body,
			APIKey: r.Header.Get("api-key"),
		})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/collections/plotcraft_collection/points/search" {
			io.WriteString(w, f.search)
			return
		}
		io.WriteString(w, `{"result":true,"status":"ok"}`)
	}
}

func (f *fakeQdrant) last(path string) *recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Path == path {
			return &f.requests[i]
		}
	}
	return nil
}

func newQdrantForTest(t *testing.T, fake *fakeQdrant) VectorStore {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	store, err := NewQdrantVectorStore(QdrantOptions{
		Endpoint:   srv.URL,
		APIKey:     "secret",
		VectorSize: 4,
	})
	require.NoError(t, err)
	return store
}

func TestQdrantStore_Upsert(t *testing.T) {
	fake := &fakeQdrant{}
	store := newQdrantForTest(t, fake)

	err := store.Upsert(context.Background(), VectorRecord{
		ID:        "char_7",
		Text:      "Aria",
		Embedding: []float32{1, 0, 0, 0},
		Metadata:  DocumentMetadata{Type: DocumentTypeCharacter, OwnerID: "42", NovelID: "9", SourceID: "7"},
	})
	require.NoError(t, err)

	req := fake.last("/collections/plotcraft_collection/points")
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "secret", req.APIKey)

	points := req.Body["points"].([]interface{})
	require.Len(t, points, 1)
	point := points[0].(map[string]interface{})
	assert.Equal(t, qdrantPointID("char_7"), point["id"])
	assert.Len(t, point["vector"], 4)

	payload := point["payload"].(map[string]interface{})
	assert.Equal(t, "char_7", payload["doc_id"])
	assert.Equal(t, "42", payload["owner_id"])
	assert.Equal(t, "character", payload["type"])
}

func TestQdrantStore_QueryFilter(t *testing.T) {
	fake := &fakeQdrant{search: `{"result":[
		{"id":"x","score":0.4,"payload":{"doc_id":"char_1","content":"one","owner_id":"42","novel_id":"9","type":"character","source_id":"1"}},
		{"id":"y","score":0.8,"payload":{"doc_id":"scene_2","content":"two","owner_id":"42","novel_id":"9","type":"scene","source_id":"2"}}
	]}`}
	store := newQdrantForTest(t, fake)

	matches, err := store.Query(context.Background(), QueryRequest{
		Embedding: []float32{1, 0, 0, 0},
		Filter:    Filter{OwnerID: "42", NovelID: "9"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"scene_2", "char_1"}, matchIDs(matches))
	assert.Equal(t, "two", matches[0].Content)
	assert.Equal(t, DocumentTypeScene, matches[0].Metadata.Type)

	req := fake.last("/collections/plotcraft_collection/points/search")
	require.NotNil(t, req)
	assert.EqualValues(t, 3, req.Body["limit"])
	must := req.Body["filter"].(map[string]interface{})["must"].([]interface{})
	require.Len(t, must, 2)
	assert.Equal(t, "owner_id", must[0].(map[string]interface{})["key"])
	assert.Equal(t, "novel_id", must[1].(map[string]interface{})["key"])
}

func TestQdrantStore_RejectsWrongVectorSize(t *testing.T) {
	fake := &fakeQdrant{}
	store := newQdrantForTest(t, fake)

	err := store.Upsert(context.Background(), VectorRecord{
		ID:        "char_7",
		Embedding: make([]float32, 1536),
		Metadata:  DocumentMetadata{Type: DocumentTypeCharacter, OwnerID: "42"},
	})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = store.Query(context.Background(), QueryRequest{
		Embedding: make([]float32, 1536),
		Filter:    Filter{OwnerID: "42"},
	})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	assert.Nil(t, fake.last("/collections/plotcraft_collection/points"))
	assert.Nil(t, fake.last("/collections/plotcraft_collection/points/search"))
}

func TestQdrantStore_UnscopedQueryNeverReachesServer(t *testing.T) {
	fake := &fakeQdrant{}
	store := newQdrantForTest(t, fake)

	_, err := store.Query(context.Background(), QueryRequest{Embedding: []float32{1}})
	assert.ErrorIs(t, err, ErrUnscopedQuery)
	assert.Nil(t, fake.last("/collections/plotcraft_collection/points/search"))
}

func TestQdrantStore_Delete(t *testing.T) {
	fake := &fakeQdrant{}
	store := newQdrantForTest(t, fake)

	require.NoError(t, store.Delete(context.Background(), "scene_3", "chap_4"))

	req := fake.last("/collections/plotcraft_collection/points/delete")
	require.NotNil(t, req)
	assert.Equal(t, []interface{}{qdrantPointID("scene_3"), qdrantPointID("chap_4")}, req.Body["points"])
}

func TestQdrantPointID_Deterministic(t *testing.T) {
	assert.Equal(t, qdrantPointID("char_1"), qdrantPointID("char_1"))
	assert.NotEqual(t, qdrantPointID("char_1"), qdrantPointID("chap_1"))
	assert.Len(t, qdrantPointID("char_1"), 36)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "Cosine", formatDistance("cosine"))
	assert.Equal(t, "Dot", formatDistance("dot"))
	assert.Equal(t, "Euclid", formatDistance("l2"))
}
