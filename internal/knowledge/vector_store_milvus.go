package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

const (
	milvusFieldID       = "doc_id"
	milvusFieldContent  = "content"
	milvusFieldVector   = "vector"
	milvusVarCharLength = 65535
	milvusScopeLength   = 64
)

// MilvusOptions configures the Milvus store.
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Database   string
	Collection string
	VectorSize int
	Distance   string
	UseTLS     bool
	Timeout    time.Duration
	Logger     *zap.Logger
}

type milvusVectorStore struct {
	milvusClient client.Client
	collection   string
	vectorSize   int
	distance     string
	logger       *zap.Logger

	once    sync.Mutex
	ensured bool
}

// NewMilvusVectorStore connects to Milvus. The collection is created lazily.
func NewMilvusVectorStore(ctx context.Context, opts MilvusOptions) (VectorStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 384
	}
	if opts.Database == "" {
		opts.Database = "default"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dialCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	milvusClient, err := client.NewClient(dialCtx, client.Config{
		Address:       opts.Address,
		DBName:        opts.Database,
		Username:      opts.Username,
		Password:      opts.Password,
		EnableTLSAuth: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	return &milvusVectorStore{
		milvusClient: milvusClient,
		collection:   opts.Collection,
		vectorSize:   opts.VectorSize,
		distance:     formatMilvusDistance(opts.Distance),
		logger:       opts.Logger,
	}, nil
}

func formatMilvusDistance(value string) string {
	switch strings.ToUpper(value) {
	case "DOT", "IP", "INNER_PRODUCT":
		return "IP"
	case "L2", "EUCLIDEAN":
		return "L2"
	default:
		return "COSINE"
	}
}

func milvusSchema(name string, vectorSize int) *entity.Schema {
	scalar := func(field string, length int) *entity.Field {
		return &entity.Field{
			Name:     field,
			DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{
				"max_length": strconv.Itoa(length),
			},
		}
	}

	id := scalar(milvusFieldID, milvusScopeLength)
	id.PrimaryKey = true

	return &entity.Schema{
		CollectionName: name,
		Description:    "plotcraft story knowledge",
		Fields: []*entity.Field{
			id,
			scalar(MetaType, milvusScopeLength),
			scalar(MetaNovelID, milvusScopeLength),
			scalar(MetaOwnerID, milvusScopeLength),
			scalar(MetaSourceID, milvusScopeLength),
			scalar(milvusFieldContent, milvusVarCharLength),
			{
				Name:     milvusFieldVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(vectorSize),
				},
			},
		},
	}
}

func (s *milvusVectorStore) metricType() entity.MetricType {
	switch s.distance {
	case "IP":
		return entity.IP
	case "L2":
		return entity.L2
	default:
		return entity.COSINE
	}
}

func (s *milvusVectorStore) ensureCollection(ctx context.Context) error {
	s.once.Lock()
	defer s.once.Unlock()
	if s.ensured {
		return nil
	}

	exists, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		if err := s.milvusClient.CreateCollection(ctx, milvusSchema(s.collection, s.vectorSize), entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		var index entity.Index
		index, err = entity.NewIndexHNSW(s.metricType(), 8, 64)
		if err != nil {
			index, err = entity.NewIndexIvfFlat(s.metricType(), 128)
			if err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}
		if err := s.milvusClient.CreateIndex(ctx, s.collection, milvusFieldVector, index, false); err != nil {
			s.logger.Warn("failed to create milvus index",
				zap.String("collection", s.collection), zap.Error(err))
		}
	}

	if err := s.milvusClient.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	s.ensured = true
	return nil
}

func (s *milvusVectorStore) Upsert(ctx context.Context, record VectorRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	if err := checkDimensions(record.Embedding, s.vectorSize); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	meta := record.Metadata
	columns := []entity.Column{
		entity.NewColumnVarChar(milvusFieldID, []string{record.ID}),
		entity.NewColumnVarChar(MetaType, []string{string(meta.Type)}),
		entity.NewColumnVarChar(MetaNovelID, []string{meta.NovelID}),
		entity.NewColumnVarChar(MetaOwnerID, []string{meta.OwnerID}),
		entity.NewColumnVarChar(MetaSourceID, []string{meta.SourceID}),
		entity.NewColumnVarChar(milvusFieldContent, []string{truncateRunes(record.Text, milvusVarCharLength/4)}),
		entity.NewColumnFloatVector(milvusFieldVector, s.vectorSize, [][]float32{record.Embedding}),
	}

	if _, err := s.milvusClient.Upsert(ctx, s.collection, "", columns...); err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}
	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		s.logger.Warn("failed to flush milvus collection",
			zap.String("collection", s.collection), zap.Error(err))
	}
	return nil
}

func (s *milvusVectorStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	if err := s.milvusClient.Delete(ctx, s.collection, "", milvusIDExpr(ids)); err != nil {
		return fmt.Errorf("milvus delete failed: %w", err)
	}
	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		s.logger.Warn("failed to flush after delete", zap.Error(err))
	}
	return nil
}

func (s *milvusVectorStore) Query(ctx context.Context, req QueryRequest) ([]SearchMatch, error) {
	if err := normalizeQuery(&req); err != nil {
		return nil, err
	}
	if err := checkDimensions(req.Embedding, s.vectorSize); err != nil {
		return nil, err
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	results, err := s.milvusClient.Search(
		ctx,
		s.collection,
		[]string{},
		milvusFilterExpr(req.Filter),
		[]string{MetaType, MetaNovelID, MetaOwnerID, MetaSourceID, milvusFieldContent},
		[]entity.Vector{entity.FloatVector(req.Embedding)},
		milvusFieldVector,
		s.metricType(),
		req.Limit,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}
	if len(results) == 0 {
		return []SearchMatch{}, nil
	}
	if results[0].Err != nil {
		return nil, fmt.Errorf("milvus search error: %w", results[0].Err)
	}

	return s.collectMatches(results[0]), nil
}

func (s *milvusVectorStore) collectMatches(result client.SearchResult) []SearchMatch {
	if result.ResultCount == 0 {
		return []SearchMatch{}
	}

	var ids []string
	if col, ok := result.IDs.(*entity.ColumnVarChar); ok {
		ids = col.Data()
	}

	fields := make(map[string][]string)
	for _, field := range result.Fields {
		if col, ok := field.(*entity.ColumnVarChar); ok {
			fields[field.Name()] = col.Data()
		}
	}
	at := func(name string, i int) string {
		values := fields[name]
		if i < len(values) {
			return values[i]
		}
		return ""
	}

	matches := make([]SearchMatch, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		if i >= len(ids) {
			break
		}
		score := float64(0)
		if i < len(result.Scores) {
			score = float64(result.Scores[i])
		}
		// L2 reports a distance; flip it so larger is closer.
		if s.distance == "L2" {
			score = -score
		}
		matches = append(matches, SearchMatch{
			ID:      ids[i],
			Content: at(milvusFieldContent, i),
			Score:   score,
			Metadata: DocumentMetadata{
				Type:     DocumentType(at(MetaType, i)),
				NovelID:  at(MetaNovelID, i),
				OwnerID:  at(MetaOwnerID, i),
				SourceID: at(MetaSourceID, i),
			},
		})
	}
	sortMatchesByScore(matches)
	return matches
}

func (s *milvusVectorStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}

// milvusFilterExpr renders the filter as a boolean expression. Values are
// quoted so ids cannot break out of the string literal.
func milvusFilterExpr(filter Filter) string {
	keys := []string{MetaOwnerID, MetaNovelID}
	clauses := filter.Clauses()
	parts := make([]string, 0, len(clauses))
	for _, key := range keys {
		value, ok := clauses[key]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s == %s", key, strconv.Quote(value)))
	}
	return strings.Join(parts, " && ")
}

func milvusIDExpr(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	return fmt.Sprintf("%s in [%s]", milvusFieldID, strings.Join(quoted, ", "))
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
