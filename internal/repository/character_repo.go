package repository

import (
	"context"

	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/models"
	"gorm.io/gorm"
)

type characterRepository struct {
	db      *gorm.DB
	indexer EntityIndexer
}

// NewCharacterRepository creates a character repository. indexer may be nil.
func NewCharacterRepository(db *gorm.DB, indexer EntityIndexer) CharacterRepository {
	return &characterRepository{db: db, indexer: indexerOrNoop(indexer)}
}

func (r *characterRepository) GetDB() *gorm.DB {
	return r.db
}

// Create inserts the character and indexes it once the row is committed.
func (r *characterRepository) Create(ctx context.Context, c *models.Character) error {
	if err := r.db.WithContext(ctx).Omit("Project", "CreatedBy").Create(c).Error; err != nil {
		return err
	}
	r.indexer.IndexCharacter(ctx, c)
	return nil
}

// Update saves all fields and re-indexes.
func (r *characterRepository) Update(ctx context.Context, c *models.Character) error {
	if err := r.db.WithContext(ctx).Omit("Project", "CreatedBy").Save(c).Error; err != nil {
		return err
	}
	r.indexer.IndexCharacter(ctx, c)
	return nil
}

func (r *characterRepository) GetByID(ctx context.Context, id uint) (*models.Character, error) {
	var c models.Character
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the row and its vector document.
func (r *characterRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Character{}, id).Error; err != nil {
		return err
	}
	r.indexer.Remove(ctx, knowledge.DocumentTypeCharacter, id)
	return nil
}

// Each walks every character in primary key order.
func (r *characterRepository) Each(ctx context.Context, fn func(*models.Character) error) error {
	var batch []models.Character
	return r.db.WithContext(ctx).Order("character_id").
		FindInBatches(&batch, eachBatchSize, func(tx *gorm.DB, _ int) error {
			for i := range batch {
				if err := fn(&batch[i]); err != nil {
					return err
				}
			}
			return nil
		}).Error
}
