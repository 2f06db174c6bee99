package kafka

import (
	"context"

	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/models"
	"go.uber.org/zap"
)

// Publisher sends index events.
type Publisher interface {
	Publish(ctx context.Context, ev IndexEvent) error
}

// QueueIndexer turns entity lifecycle hooks into index events so embedding
// happens in the worker instead of the request path. Publish failures are
// logged and dropped; a later reindex repairs the gap.
type QueueIndexer struct {
	publisher Publisher
	logger    *zap.Logger
}

func NewQueueIndexer(publisher Publisher, logger *zap.Logger) *QueueIndexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueIndexer{publisher: publisher, logger: logger}
}

func (q *QueueIndexer) IndexCharacter(ctx context.Context, c *models.Character) {
	if c == nil {
		return
	}
	q.publish(ctx, ActionUpsert, knowledge.DocumentTypeCharacter, c.CharacterID)
}

func (q *QueueIndexer) IndexChapter(ctx context.Context, ch *models.Chapter) {
	if ch == nil {
		return
	}
	q.publish(ctx, ActionUpsert, knowledge.DocumentTypeContent, ch.ChapterID)
}

func (q *QueueIndexer) IndexScene(ctx context.Context, s *models.Scene) {
	if s == nil {
		return
	}
	q.publish(ctx, ActionUpsert, knowledge.DocumentTypeScene, s.SceneID)
}

func (q *QueueIndexer) Remove(ctx context.Context, docType knowledge.DocumentType, sourceID uint) {
	q.publish(ctx, ActionDelete, docType, sourceID)
}

func (q *QueueIndexer) publish(ctx context.Context, action Action, docType knowledge.DocumentType, sourceID uint) {
	if q == nil || q.publisher == nil || sourceID == 0 {
		return
	}
	ev := IndexEvent{Action: action, Type: docType, SourceID: sourceID}
	if err := q.publisher.Publish(ctx, ev); err != nil {
		q.logger.Error("failed to queue index event",
			zap.String("key", ev.Key()),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
