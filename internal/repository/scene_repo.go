package repository

import (
	"context"

	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/models"
	"gorm.io/gorm"
)

type sceneRepository struct {
	db      *gorm.DB
	indexer EntityIndexer
}

// NewSceneRepository creates a scene repository. indexer may be nil.
func NewSceneRepository(db *gorm.DB, indexer EntityIndexer) SceneRepository {
	return &sceneRepository{db: db, indexer: indexerOrNoop(indexer)}
}

func (r *sceneRepository) GetDB() *gorm.DB {
	return r.db
}

// withRelations preloads everything the renderer and draft prompt read.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("POVCharacter").Preload("Location").Preload("Characters")
}

func (r *sceneRepository) Create(ctx context.Context, s *models.Scene) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return err
	}
	r.afterSave(ctx, s)
	return nil
}

func (r *sceneRepository) Update(ctx context.Context, s *models.Scene) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Characters", "POVCharacter", "Location", "Project", "CreatedBy").Save(s).Error; err != nil {
			return err
		}
		if s.Characters != nil {
			return tx.Model(s).Association("Characters").Replace(s.Characters)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.afterSave(ctx, s)
	return nil
}

// afterSave re-reads the scene with relations so the rendered document names
// the POV character, location and cast. The caller's value is indexed when
// the reload fails.
func (r *sceneRepository) afterSave(ctx context.Context, s *models.Scene) {
	loaded, err := r.GetByID(ctx, s.SceneID)
	if err != nil {
		r.indexer.IndexScene(ctx, s)
		return
	}
	r.indexer.IndexScene(ctx, loaded)
}

func (r *sceneRepository) GetByID(ctx context.Context, id uint) (*models.Scene, error) {
	var s models.Scene
	if err := withRelations(r.db.WithContext(ctx)).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sceneRepository) GetOwnedByID(ctx context.Context, id, userID uint) (*models.Scene, error) {
	var s models.Scene
	err := withRelations(r.db.WithContext(ctx)).
		Joins("JOIN novels ON novels.novel_id = scenes.project_id").
		Where("scenes.scene_id = ? AND novels.author_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sceneRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM scene_characters WHERE scene_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Scene{}, id).Error
	})
	if err != nil {
		return err
	}
	r.indexer.Remove(ctx, knowledge.DocumentTypeScene, id)
	return nil
}

func (r *sceneRepository) Each(ctx context.Context, fn func(*models.Scene) error) error {
	var batch []models.Scene
	return withRelations(r.db.WithContext(ctx)).Order("scene_id").
		FindInBatches(&batch, eachBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if err := fn(&batch[i]); err != nil {
					return err
				}
			}
			return nil
		}).Error
}
