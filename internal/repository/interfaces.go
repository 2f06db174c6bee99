package repository

import (
	"context"

	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/models"
	"gorm.io/gorm"
)

// Repository is the base repository interface.
type Repository interface {
	GetDB() *gorm.DB
}

// EntityIndexer receives entity lifecycle events after a successful write.
// Implementations must not fail the write; *knowledge.DocumentIndexer logs
// and swallows its own errors.
type EntityIndexer interface {
	IndexCharacter(ctx context.Context, c *models.Character)
	IndexChapter(ctx context.Context, ch *models.Chapter)
	IndexScene(ctx context.Context, s *models.Scene)
	Remove(ctx context.Context, docType knowledge.DocumentType, sourceID uint)
}

// CharacterRepository persists characters.
type CharacterRepository interface {
	Repository
	Create(ctx context.Context, c *models.Character) error
	Update(ctx context.Context, c *models.Character) error
	GetByID(ctx context.Context, id uint) (*models.Character, error)
	Delete(ctx context.Context, id uint) error
	Each(ctx context.Context, fn func(*models.Character) error) error
}

// ChapterRepository persists chapters. Chapters are loaded with their novel so
// the author can be attributed.
type ChapterRepository interface {
	Repository
	Create(ctx context.Context, ch *models.Chapter) error
	Update(ctx context.Context, ch *models.Chapter) error
	GetByID(ctx context.Context, id uint) (*models.Chapter, error)
	Delete(ctx context.Context, id uint) error
	Each(ctx context.Context, fn func(*models.Chapter) error) error
}

// SceneRepository persists scenes.
type SceneRepository interface {
	Repository
	Create(ctx context.Context, s *models.Scene) error
	Update(ctx context.Context, s *models.Scene) error
	GetByID(ctx context.Context, id uint) (*models.Scene, error)
	// GetOwnedByID returns the scene only if its project is authored by userID.
	GetOwnedByID(ctx context.Context, id, userID uint) (*models.Scene, error)
	Delete(ctx context.Context, id uint) error
	Each(ctx context.Context, fn func(*models.Scene) error) error
}

const eachBatchSize = 100

type noopIndexer struct{}

func (noopIndexer) IndexCharacter(context.Context, *models.Character) {}

func (noopIndexer) IndexChapter(context.Context, *models.Chapter) {}

func (noopIndexer) IndexScene(context.Context, *models.Scene) {}

func (noopIndexer) Remove(context.Context, knowledge.DocumentType, uint) {}

func indexerOrNoop(indexer EntityIndexer) EntityIndexer {
	if indexer == nil {
		return noopIndexer{}
	}
	return indexer
}
