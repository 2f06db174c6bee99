package services

import (
	"context"
	"fmt"

	"github.com/plotcraft/backend-go/internal/models"
	"github.com/plotcraft/backend-go/internal/repository"
	"go.uber.org/zap"
)

// ReindexStats counts the entities pushed back through the indexer.
type ReindexStats struct {
	Characters int `json:"characters"`
	Chapters   int `json:"chapters"`
	Scenes     int `json:"scenes"`
}

func (s ReindexStats) Total() int {
	return s.Characters + s.Chapters + s.Scenes
}

// ReindexService rebuilds the vector index from the relational store.
type ReindexService struct {
	characters repository.CharacterRepository
	chapters   repository.ChapterRepository
	scenes     repository.SceneRepository
	indexer    repository.EntityIndexer
	logger     *zap.Logger
}

func NewReindexService(characters repository.CharacterRepository, chapters repository.ChapterRepository, scenes repository.SceneRepository, indexer repository.EntityIndexer, logger *zap.Logger) *ReindexService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReindexService{
		characters: characters,
		chapters:   chapters,
		scenes:     scenes,
		indexer:    indexer,
		logger:     logger.Named("reindex"),
	}
}

// Reindex re-renders and re-upserts every character, chapter and scene.
// Individual indexing failures are logged by the indexer; only read errors
// abort the run.
func (s *ReindexService) Reindex(ctx context.Context) (ReindexStats, error) {
	var stats ReindexStats

	err := s.characters.Each(ctx, func(c *models.Character) error {
		s.indexer.IndexCharacter(ctx, c)
		stats.Characters++
		return ctx.Err()
	})
	if err != nil {
		return stats, fmt.Errorf("reindex characters: %w", err)
	}

	err = s.chapters.Each(ctx, func(ch *models.Chapter) error {
		s.indexer.IndexChapter(ctx, ch)
		stats.Chapters++
		return ctx.Err()
	})
	if err != nil {
		return stats, fmt.Errorf("reindex chapters: %w", err)
	}

	err = s.scenes.Each(ctx, func(sc *models.Scene) error {
		s.indexer.IndexScene(ctx, sc)
		stats.Scenes++
		return ctx.Err()
	})
	if err != nil {
		return stats, fmt.Errorf("reindex scenes: %w", err)
	}

	s.logger.Info("reindex finished",
		zap.Int("characters", stats.Characters),
		zap.Int("chapters", stats.Chapters),
		zap.Int("scenes", stats.Scenes))
	return stats, nil
}
