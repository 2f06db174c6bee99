package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QdrantOptions configures the Qdrant REST store.
type QdrantOptions struct {
	Endpoint   string
	APIKey     string
	Collection string
	VectorSize int
	Distance   string
	UseTLS     bool
	Timeout    time.Duration
	HTTPClient *http.Client
}

type qdrantVectorStore struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	collection string
	vectorSize int
	distance   string

	mu      sync.Mutex
	ensured bool
}

const qdrantPayloadID = "doc_id"

// NewQdrantVectorStore builds a store talking to the Qdrant HTTP API.
func NewQdrantVectorStore(opts QdrantOptions) (VectorStore, error) {
	scheme := "http"
	if opts.UseTLS {
		scheme = "https"
	}
	if opts.Endpoint == "" {
		opts.Endpoint = fmt.Sprintf("%s://localhost:6333", scheme)
	}
	if !strings.HasPrefix(opts.Endpoint, "http") {
		opts.Endpoint = fmt.Sprintf("%s://%s", scheme, opts.Endpoint)
	}
	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid qdrant endpoint: %w", err)
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 384
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &qdrantVectorStore{
		client:     httpClient,
		endpoint:   strings.TrimSuffix(opts.Endpoint, "/"),
		apiKey:     opts.APIKey,
		collection: opts.Collection,
		vectorSize: opts.VectorSize,
		distance:   formatDistance(opts.Distance),
	}, nil
}

func formatDistance(value string) string {
	switch strings.ToLower(value) {
	case "dot", "dotproduct", "ip":
		return "Dot"
	case "euclid", "l2":
		return "Euclid"
	default:
		return "Cosine"
	}
}

// qdrantPointID maps a document id onto the UUID point id Qdrant requires.
func qdrantPointID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID)).String()
}

func (s *qdrantVectorStore) ensureCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	path := "/collections/" + url.PathEscape(s.collection)
	resp, err := s.doRequest(ctx, http.MethodGet, path, nil)
	if err == nil && resp.StatusCode == http.StatusOK {
		resp.Body.Close()
		s.ensured = true
		return nil
	}
	if resp != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.vectorSize,
			"distance": s.distance,
		},
	}
	resp, err = s.doRequest(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("create collection %s failed: %s", s.collection, resp.Status)
	}

	s.ensured = true
	return nil
}

func (s *qdrantVectorStore) Upsert(ctx context.Context, record VectorRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	if err := checkDimensions(record.Embedding, s.vectorSize); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	meta := record.Metadata
	payload := map[string]interface{}{
		"points": []map[string]interface{}{
			{
				"id":     qdrantPointID(record.ID),
				"vector": record.Embedding,
				"payload": map[string]interface{}{
					qdrantPayloadID: record.ID,
					"content":       record.Text,
					MetaType:        string(meta.Type),
					MetaNovelID:     meta.NovelID,
					MetaOwnerID:     meta.OwnerID,
					MetaSourceID:    meta.SourceID,
				},
			},
		},
	}

	return s.expectOK(ctx, http.MethodPut, s.pointsPath("?wait=true"), payload, "upsert")
}

func (s *qdrantVectorStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = qdrantPointID(id)
	}
	body := map[string]interface{}{"points": points}

	return s.expectOK(ctx, http.MethodPost, s.pointsPath("/delete?wait=true"), body, "delete")
}

func (s *qdrantVectorStore) Query(ctx context.Context, req QueryRequest) ([]SearchMatch, error) {
	if err := normalizeQuery(&req); err != nil {
		return nil, err
	}
	if err := checkDimensions(req.Embedding, s.vectorSize); err != nil {
		return nil, err
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"vector":       req.Embedding,
		"limit":        req.Limit,
		"with_payload": true,
		"with_vectors": false,
		"filter":       qdrantFilter(req.Filter),
	}

	resp, err := s.doRequest(ctx, http.MethodPost, s.pointsPath("/search"), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("qdrant search failed: %s %s", resp.Status, string(raw))
	}

	var searchResp struct {
		Result []struct {
			ID      interface{}            `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, err
	}

	matches := make([]SearchMatch, 0, len(searchResp.Result))
	for _, item := range searchResp.Result {
		payload := item.Payload
		id, _ := payload[qdrantPayloadID].(string)
		if id == "" {
			id = fmt.Sprint(item.ID)
		}
		content, _ := payload["content"].(string)

		score := item.Score
		if s.distance == "Euclid" {
			score = -score
		}
		matches = append(matches, SearchMatch{
			ID:       id,
			Content:  content,
			Score:    score,
			Metadata: metadataFromPayload(payload),
		})
	}
	sortMatchesByScore(matches)
	return matches, nil
}

func qdrantFilter(filter Filter) map[string]interface{} {
	clauses := filter.Clauses()
	must := make([]map[string]interface{}, 0, len(clauses))
	for _, key := range []string{MetaOwnerID, MetaNovelID} {
		value, ok := clauses[key]
		if !ok {
			continue
		}
		must = append(must, map[string]interface{}{
			"key":   key,
			"match": map[string]interface{}{"value": value},
		})
	}
	return map[string]interface{}{"must": must}
}

func (s *qdrantVectorStore) Ready() bool {
	if s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := s.doRequest(ctx, http.MethodGet, "/collections", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

func (s *qdrantVectorStore) pointsPath(suffix string) string {
	return "/collections/" + url.PathEscape(s.collection) + "/points" + suffix
}

func (s *qdrantVectorStore) expectOK(ctx context.Context, method, path string, body interface{}, op string) error {
	resp, err := s.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s failed: %s %s", op, resp.Status, string(raw))
	}
	return nil
}

func (s *qdrantVectorStore) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	return s.client.Do(req)
}
