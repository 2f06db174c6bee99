package di

import (
	"context"
	"fmt"

	"github.com/plotcraft/backend-go/internal/auth"
	"github.com/plotcraft/backend-go/internal/config"
	"github.com/plotcraft/backend-go/internal/kafka"
	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/repository"
	"github.com/plotcraft/backend-go/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories are nil when no database is available.
type Repositories struct {
	dig.Out

	Characters repository.CharacterRepository
	Chapters   repository.ChapterRepository
	Scenes     repository.SceneRepository
}

// RegisterProviders registers infra and every constructor of the application graph.
func RegisterProviders(ctx context.Context, c *dig.Container, infra Infrastructure) error {
	if infra.Config == nil {
		return fmt.Errorf("di: config not loaded")
	}
	logger := infra.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	providers := []interface{}{
		func() *config.Config { return infra.Config },
		func() *zap.Logger { return logger },
		func() *gorm.DB { return infra.DB },
		func() redis.UniversalClient { return infra.Redis },
		func(cfg *config.Config, rdb redis.UniversalClient, log *zap.Logger) (*knowledge.Pipeline, error) {
			return knowledge.NewPipeline(ctx, cfg.RAG, cfg.AI, rdb, log.Named("rag"))
		},
		func(cfg *config.Config, log *zap.Logger) (*kafka.Producer, error) {
			if !cfg.Kafka.Enabled {
				return nil, nil
			}
			return kafka.NewProducer(cfg.Kafka, log.Named("kafka"))
		},
		provideEntityIndexer,
		provideRepositories,
		provideAssistant,
		provideReindex,
		provideIndexWorker,
		provideJWT,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return fmt.Errorf("di: %w", err)
		}
	}
	return nil
}

// provideEntityIndexer picks the write-path indexer: queued when a producer
// exists, in-process otherwise.
func provideEntityIndexer(producer *kafka.Producer, pipeline *knowledge.Pipeline, logger *zap.Logger) repository.EntityIndexer {
	if producer != nil {
		return kafka.NewQueueIndexer(producer, logger.Named("queue_indexer"))
	}
	return pipeline.Indexer
}

func provideRepositories(db *gorm.DB, indexer repository.EntityIndexer) Repositories {
	if db == nil {
		return Repositories{}
	}
	return Repositories{
		Characters: repository.NewCharacterRepository(db, indexer),
		Chapters:   repository.NewChapterRepository(db, indexer),
		Scenes:     repository.NewSceneRepository(db, indexer),
	}
}

func provideAssistant(pipeline *knowledge.Pipeline, scenes repository.SceneRepository, logger *zap.Logger) *services.AssistantService {
	return services.NewAssistantService(pipeline.Retriever, pipeline.Composer, pipeline.Generator, scenes, logger.Named("assistant"))
}

type repositoryParams struct {
	dig.In

	Characters repository.CharacterRepository
	Chapters   repository.ChapterRepository
	Scenes     repository.SceneRepository
}

// provideReindex returns nil without a database.
func provideReindex(repos repositoryParams, pipeline *knowledge.Pipeline, logger *zap.Logger) *services.ReindexService {
	if repos.Characters == nil {
		return nil
	}
	return services.NewReindexService(repos.Characters, repos.Chapters, repos.Scenes, pipeline.Indexer, logger.Named("reindex"))
}

// provideIndexWorker returns nil without a database.
func provideIndexWorker(repos repositoryParams, pipeline *knowledge.Pipeline, logger *zap.Logger) *services.IndexWorker {
	if repos.Characters == nil {
		return nil
	}
	return services.NewIndexWorker(repos.Characters, repos.Chapters, repos.Scenes, pipeline.Indexer, logger.Named("index_worker"))
}

func provideJWT(cfg *config.Config) (*auth.JWTService, error) {
	return auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
}
