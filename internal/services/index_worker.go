package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/plotcraft/backend-go/internal/kafka"
	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IndexWorker applies queued index events. Upserts reload the entity so the
// document reflects the row as it is now, not as it was when queued.
type IndexWorker struct {
	characters repository.CharacterRepository
	chapters   repository.ChapterRepository
	scenes     repository.SceneRepository
	indexer    repository.EntityIndexer
	logger     *zap.Logger
}

func NewIndexWorker(characters repository.CharacterRepository, chapters repository.ChapterRepository, scenes repository.SceneRepository, indexer repository.EntityIndexer, logger *zap.Logger) *IndexWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexWorker{
		characters: characters,
		chapters:   chapters,
		scenes:     scenes,
		indexer:    indexer,
		logger:     logger,
	}
}

// Handle matches kafka.Handler. Read errors are returned for redelivery; a
// row that no longer exists is removed from the index.
func (w *IndexWorker) Handle(ctx context.Context, ev kafka.IndexEvent) error {
	if ev.Action == kafka.ActionDelete {
		w.indexer.Remove(ctx, ev.Type, ev.SourceID)
		return nil
	}

	var err error
	switch ev.Type {
	case knowledge.DocumentTypeCharacter:
		c, loadErr := w.characters.GetByID(ctx, ev.SourceID)
		if err = loadErr; err == nil {
			w.indexer.IndexCharacter(ctx, c)
		}
	case knowledge.DocumentTypeContent:
		ch, loadErr := w.chapters.GetByID(ctx, ev.SourceID)
		if err = loadErr; err == nil {
			w.indexer.IndexChapter(ctx, ch)
		}
	case knowledge.DocumentTypeScene:
		s, loadErr := w.scenes.GetByID(ctx, ev.SourceID)
		if err = loadErr; err == nil {
			w.indexer.IndexScene(ctx, s)
		}
	default:
		return fmt.Errorf("unsupported document type %q", ev.Type)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		w.logger.Debug("entity gone before indexing, removing", zap.String("key", ev.Key()))
		w.indexer.Remove(ctx, ev.Type, ev.SourceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", ev.Key(), err)
	}
	return nil
}
