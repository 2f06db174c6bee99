package knowledge

import (
	"context"
	"fmt"
	"io"

	"github.com/plotcraft/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pipeline bundles the RAG components built from configuration.
type Pipeline struct {
	Embedder  Embedder
	Store     VectorStore
	Indexer   *DocumentIndexer
	Retriever *Retriever
	Composer  *PromptComposer
	Generator *GenerationClient
	Locale    *Locale

	closers []io.Closer
}

// Close releases provider clients.
func (p *Pipeline) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewPipeline wires embedder, store, indexer, retriever, composer and
// generator. rdb may be nil, in which case the embedding cache is skipped.
func NewPipeline(ctx context.Context, cfg config.RAGConfig, ai config.AIConfig, rdb redis.UniversalClient, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{Locale: LocaleFor(cfg.Locale)}

	embedder, err := p.newEmbedder(ctx, cfg.Embedding, ai)
	if err != nil {
		p.Close()
		return nil, err
	}
	if cfg.Embedding.Cache.Enabled && rdb != nil {
		namespace := cfg.Embedding.Provider + "/" + cfg.Embedding.Model
		embedder = NewCachedEmbedder(embedder, NewRedisEmbeddingCache(rdb), namespace,
			cfg.Embedding.Cache.TTL, logger.Named("embedding_cache"))
	}
	p.Embedder = embedder

	storeCfg := cfg.VectorStore
	if dims := embedder.Dimensions(); dims > 0 && dims != storeCfg.VectorSize {
		logger.Warn("vector size overridden by embedding provider",
			zap.String("embedding", cfg.Embedding.Provider),
			zap.Int("configured", storeCfg.VectorSize),
			zap.Int("dimensions", dims))
		storeCfg.VectorSize = dims
	}

	store, err := NewVectorStore(ctx, storeCfg, logger.Named("vector_store"))
	if err != nil {
		p.Close()
		return nil, err
	}
	p.Store = store

	renderer := NewRenderer(p.Locale)
	p.Indexer = NewDocumentIndexer(embedder, store, renderer, cfg.Index.Timeout, logger.Named("indexer"))

	p.Retriever, err = NewRetriever(embedder, store, cfg.Retrieval.Limit, logger.Named("retriever"))
	if err != nil {
		p.Close()
		return nil, err
	}

	p.Composer = NewPromptComposer(p.Locale)

	completer, err := p.newCompleter(ctx, cfg.Generation, ai)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.Generator = NewGenerationClient(completer, p.Locale, cfg.Generation.Timeout, logger.Named("generator"))
	if completer == nil {
		logger.Warn("no generation provider configured, replies will be the unavailable sentinel",
			zap.String("provider", cfg.Generation.Provider))
	}

	logger.Info("rag pipeline ready",
		zap.String("locale", p.Locale.Code),
		zap.String("embedding", cfg.Embedding.Provider),
		zap.String("vector_store", cfg.VectorStore.Provider),
		zap.String("generation", cfg.Generation.Provider))
	return p, nil
}

func (p *Pipeline) newEmbedder(ctx context.Context, cfg config.EmbeddingConfig, ai config.AIConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIEmbedder(OpenAIOptions{
			APIKey:        ai.OpenAIAPIKey,
			BaseURL:       ai.OpenAIBaseURL,
			Model:         cfg.Model,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.Burst,
		}), nil
	case "gemini":
		embedder, err := NewGeminiEmbedder(ctx, ai.GoogleAPIKey, cfg.Model, cfg.RatePerSecond, cfg.Burst)
		if err != nil {
			return nil, err
		}
		if closer, ok := embedder.(io.Closer); ok {
			p.closers = append(p.closers, closer)
		}
		return embedder, nil
	case "", "local":
		return NewHashingEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func (p *Pipeline) newCompleter(ctx context.Context, cfg config.GenerationConfig, ai config.AIConfig) (Completer, error) {
	switch cfg.Provider {
	case "gemini":
		c, err := NewGeminiCompleter(ctx, ai.GoogleAPIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, nil
		}
		p.closers = append(p.closers, c)
		return c, nil
	case "openai":
		c := NewOpenAICompleter(ai.OpenAIAPIKey, ai.OpenAIBaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens)
		if c == nil {
			return nil, nil
		}
		return c, nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

// NewVectorStore opens the configured store.
func NewVectorStore(ctx context.Context, cfg config.VectorStoreConfig, logger *zap.Logger) (VectorStore, error) {
	switch cfg.Provider {
	case "memory":
		return NewChromemVectorStore(ChromemOptions{Collection: cfg.Collection})
	case "", "chromem":
		return NewChromemVectorStore(ChromemOptions{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			Collection: cfg.Collection,
		})
	case "milvus":
		return NewMilvusVectorStore(ctx, MilvusOptions{
			Address:    cfg.Milvus.Address,
			Username:   cfg.Milvus.Username,
			Password:   cfg.Milvus.Password,
			Database:   cfg.Milvus.Database,
			UseTLS:     cfg.Milvus.TLS,
			Collection: cfg.Collection,
			VectorSize: cfg.VectorSize,
			Distance:   cfg.Distance,
			Logger:     logger,
		})
	case "qdrant":
		return NewQdrantVectorStore(QdrantOptions{
			Endpoint:   cfg.Qdrant.Endpoint,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Collection,
			VectorSize: cfg.VectorSize,
			Distance:   cfg.Distance,
		})
	default:
		return nil, fmt.Errorf("unknown vector store provider %q", cfg.Provider)
	}
}
