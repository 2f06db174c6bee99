package knowledge

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/plotcraft/backend-go/internal/errors"
	"github.com/plotcraft/backend-go/internal/models"
	"go.uber.org/zap"
)

const defaultIndexTimeout = 10 * time.Second

// DocumentIndexer keeps the vector index in step with entity writes.
//
// IndexDocument and RemoveDocument report errors. The entity hooks
// (IndexCharacter, IndexChapter, IndexScene, Remove) log failures and return
// nothing so a broken index never fails the write that triggered it.
type DocumentIndexer struct {
	embedder Embedder
	store    VectorStore
	renderer *Renderer
	timeout  time.Duration
	logger   *zap.Logger
}

func NewDocumentIndexer(embedder Embedder, store VectorStore, renderer *Renderer, timeout time.Duration, logger *zap.Logger) *DocumentIndexer {
	if renderer == nil {
		renderer = NewRenderer(nil)
	}
	if timeout <= 0 {
		timeout = defaultIndexTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentIndexer{
		embedder: embedder,
		store:    store,
		renderer: renderer,
		timeout:  timeout,
		logger:   logger,
	}
}

var errIndexerDisabled = errors.New("indexer has no embedder or vector store")

func (i *DocumentIndexer) enabled() bool {
	return i != nil && i.embedder != nil && i.store != nil
}

// IndexDocument embeds doc and upserts it under doc.ID within the index timeout.
func (i *DocumentIndexer) IndexDocument(ctx context.Context, doc IndexedDocument) error {
	if !i.enabled() {
		return errIndexerDisabled
	}
	if strings.TrimSpace(doc.Text) == "" {
		return ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	vec, err := i.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return apperrors.NewExternalError(apperrors.ErrCodeEmbeddingFailed, "embed "+doc.ID, err)
	}

	err = i.store.Upsert(ctx, VectorRecord{
		ID:        doc.ID,
		Text:      doc.Text,
		Embedding: vec,
		Metadata:  doc.Metadata,
	})
	if err != nil {
		return apperrors.NewExternalError(apperrors.ErrCodeVectorStoreUnavailable, "upsert "+doc.ID, err)
	}
	return nil
}

// RemoveDocument deletes ids from the store. Unknown ids are not an error.
func (i *DocumentIndexer) RemoveDocument(ctx context.Context, ids ...string) error {
	if !i.enabled() {
		return errIndexerDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	if err := i.store.Delete(ctx, ids...); err != nil {
		return apperrors.NewExternalError(apperrors.ErrCodeVectorStoreUnavailable, "delete "+strings.Join(ids, ","), err)
	}
	return nil
}

func (i *DocumentIndexer) IndexCharacter(ctx context.Context, c *models.Character) {
	if c == nil || !i.enabled() {
		return
	}
	i.index(ctx, i.renderer.RenderCharacter(c))
}

// IndexChapter indexes a chapter with prose. A chapter whose content was
// cleared has its previous document removed instead.
func (i *DocumentIndexer) IndexChapter(ctx context.Context, ch *models.Chapter) {
	if ch == nil || !i.enabled() {
		return
	}
	if strings.TrimSpace(ch.Content) == "" {
		i.Remove(ctx, DocumentTypeContent, ch.ChapterID)
		return
	}
	i.index(ctx, i.renderer.RenderChapter(ch))
}

func (i *DocumentIndexer) IndexScene(ctx context.Context, s *models.Scene) {
	if s == nil || !i.enabled() {
		return
	}
	i.index(ctx, i.renderer.RenderScene(s))
}

// Remove drops the document of an entity that was deleted.
func (i *DocumentIndexer) Remove(ctx context.Context, docType DocumentType, sourceID uint) {
	if !i.enabled() {
		return
	}
	id := DocumentID(docType, sourceID)
	err := i.RemoveDocument(ctx, id)
	recordIndex(docType, "delete", err)
	if err != nil {
		i.logger.Error("failed to remove document from index",
			zap.String("doc_id", id),
			zap.String("code", errorCode(err)),
			zap.Error(err))
		return
	}
	i.logger.Debug("removed document from index", zap.String("doc_id", id))
}

func (i *DocumentIndexer) index(ctx context.Context, doc IndexedDocument) {
	if !i.enabled() {
		return
	}
	started := time.Now()
	err := i.IndexDocument(ctx, doc)
	recordIndex(doc.Metadata.Type, "upsert", err)
	if err != nil {
		i.logger.Error("failed to index document",
			zap.String("doc_id", doc.ID),
			zap.String("owner_id", doc.Metadata.OwnerID),
			zap.String("code", errorCode(err)),
			zap.Error(err))
		return
	}
	i.logger.Debug("indexed document",
		zap.String("doc_id", doc.ID),
		zap.String("owner_id", doc.Metadata.OwnerID),
		zap.String("novel_id", doc.Metadata.NovelID),
		zap.Duration("took", time.Since(started)))
}

func errorCode(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Code)
	}
	return ""
}
