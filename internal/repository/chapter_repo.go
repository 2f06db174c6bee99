package repository

import (
	"context"

	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/models"
	"gorm.io/gorm"
)

type chapterRepository struct {
	db      *gorm.DB
	indexer EntityIndexer
}

// NewChapterRepository creates a chapter repository. indexer may be nil.
func NewChapterRepository(db *gorm.DB, indexer EntityIndexer) ChapterRepository {
	return &chapterRepository{db: db, indexer: indexerOrNoop(indexer)}
}

func (r *chapterRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *chapterRepository) Create(ctx context.Context, ch *models.Chapter) error {
	if err := r.db.WithContext(ctx).Create(ch).Error; err != nil {
		return err
	}
	r.afterSave(ctx, ch)
	return nil
}

func (r *chapterRepository) Update(ctx context.Context, ch *models.Chapter) error {
	if err := r.db.WithContext(ctx).Omit("Novel").Save(ch).Error; err != nil {
		return err
	}
	r.afterSave(ctx, ch)
	return nil
}

// afterSave loads the owning novel when the loaded one is missing or stale,
// so the document carries the current author as owner. If the novel cannot
// be read the owner is left unknown.
func (r *chapterRepository) afterSave(ctx context.Context, ch *models.Chapter) {
	if ch.Novel.NovelID != ch.NovelID {
		var novel models.Novel
		if ch.NovelID != 0 {
			if err := r.db.WithContext(ctx).First(&novel, ch.NovelID).Error; err != nil {
				novel = models.Novel{}
			}
		}
		ch.Novel = novel
	}
	r.indexer.IndexChapter(ctx, ch)
}

func (r *chapterRepository) GetByID(ctx context.Context, id uint) (*models.Chapter, error) {
	var ch models.Chapter
	if err := r.db.WithContext(ctx).Preload("Novel").First(&ch, id).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *chapterRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Chapter{}, id).Error; err != nil {
		return err
	}
	r.indexer.Remove(ctx, knowledge.DocumentTypeContent, id)
	return nil
}

func (r *chapterRepository) Each(ctx context.Context, fn func(*models.Chapter) error) error {
	var batch []models.Chapter
	return r.db.WithContext(ctx).Preload("Novel").Order("chapter_id").
		FindInBatches(&batch, eachBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if err := fn(&batch[i]); err != nil {
					return err
				}
			}
			return nil
		}).Error
}
