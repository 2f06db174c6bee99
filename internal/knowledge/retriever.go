package knowledge

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/plotcraft/backend-go/internal/errors"
	"go.uber.org/zap"
)

// RetrievalQuery asks for documents similar to Text that belong to OwnerID,
// optionally narrowed to NovelID. Limit <= 0 uses the retriever default.
type RetrievalQuery struct {
	Text    string
	OwnerID string
	NovelID string
	Limit   int
}

// RetrievalResult holds matches ranked by similarity, most similar first.
type RetrievalResult struct {
	Matches []SearchMatch
}

func (r RetrievalResult) Empty() bool {
	return len(r.Matches) == 0
}

func (r RetrievalResult) Texts() []string {
	texts := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		texts = append(texts, m.Content)
	}
	return texts
}

// Context joins the matched texts with blank lines for prompt injection.
func (r RetrievalResult) Context() string {
	return strings.Join(r.Texts(), "\n\n")
}

// Retriever runs owner-scoped similarity search.
type Retriever struct {
	embedder     Embedder
	store        VectorStore
	defaultLimit int
	logger       *zap.Logger
}

func NewRetriever(embedder Embedder, store VectorStore, defaultLimit int, logger *zap.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("retriever requires an embedder")
	}
	if store == nil {
		return nil, errors.New("retriever requires a vector store")
	}
	if defaultLimit <= 0 {
		defaultLimit = defaultQueryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder:     embedder,
		store:        store,
		defaultLimit: defaultLimit,
		logger:       logger,
	}, nil
}

// Retrieve never returns an error. A query without an owner, a failed
// embedding and an unreachable store all produce an empty result, so callers
// cannot tell "not allowed" from "nothing relevant".
func (r *Retriever) Retrieve(ctx context.Context, q RetrievalQuery) RetrievalResult {
	started := time.Now()
	filter := Filter{OwnerID: q.OwnerID, NovelID: q.NovelID}

	if !filter.Scoped() {
		r.logger.Warn("refusing retrieval without owner scope",
			zap.String("code", string(apperrors.ErrCodeUnscopedQuery)),
			zap.String("novel_id", q.NovelID))
		recordRetrieval("unscoped", started)
		return RetrievalResult{}
	}
	if strings.TrimSpace(q.Text) == "" {
		recordRetrieval("empty", started)
		return RetrievalResult{}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = r.defaultLimit
	}

	vec, err := r.embedder.Embed(ctx, q.Text)
	if errors.Is(err, ErrEmptyText) {
		recordRetrieval("empty", started)
		return RetrievalResult{}
	}
	if err != nil {
		r.logger.Error("failed to embed retrieval query",
			zap.String("code", string(apperrors.ErrCodeEmbeddingFailed)),
			zap.String("owner_id", filter.OwnerID),
			zap.Error(err))
		recordRetrieval("error", started)
		return RetrievalResult{}
	}

	matches, err := r.store.Query(ctx, QueryRequest{
		Embedding: vec,
		Filter:    filter,
		Limit:     limit,
	})
	if err != nil {
		r.logger.Error("vector query failed",
			zap.String("code", string(apperrors.ErrCodeVectorStoreUnavailable)),
			zap.String("owner_id", filter.OwnerID),
			zap.String("novel_id", filter.NovelID),
			zap.Error(err))
		recordRetrieval("error", started)
		return RetrievalResult{}
	}

	// Matches outside the filter are dropped even if a backend returns them.
	scoped := make([]SearchMatch, 0, len(matches))
	for _, m := range matches {
		if filter.Matches(m.Metadata) {
			scoped = append(scoped, m)
		}
	}
	sortMatchesByScore(scoped)
	if len(scoped) > limit {
		scoped = scoped[:limit]
	}

	status := "ok"
	if len(scoped) == 0 {
		status = "empty"
	}
	recordRetrieval(status, started)
	r.logger.Debug("retrieved context",
		zap.String("owner_id", filter.OwnerID),
		zap.String("novel_id", filter.NovelID),
		zap.Int("matches", len(scoped)),
		zap.Duration("took", time.Since(started)))

	return RetrievalResult{Matches: scoped}
}
