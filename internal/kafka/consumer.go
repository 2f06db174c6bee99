package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/plotcraft/backend-go/internal/config"
	"go.uber.org/zap"
)

// Handler processes one event. A returned error is retried in place; the
// partition does not advance past the message until it succeeds or the
// session ends, in which case the next session redelivers it.
type Handler func(ctx context.Context, ev IndexEvent) error

// Consumer feeds index events from a consumer group to a Handler.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler *groupHandler
	logger  *zap.Logger
}

func NewConsumer(cfg config.KafkaConfig, handler Handler, logger *zap.Logger) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Return.Errors = true
	sc.Version = sarama.V2_6_0_0

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer group: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("kafka consumer ready",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("group_id", cfg.GroupID),
		zap.String("topic", cfg.Topic))

	return &Consumer{
		group:   group,
		topics:  []string{cfg.Topic},
		handler: &groupHandler{handle: handler, logger: logger, retryDelay: defaultRetryDelay},
		logger:  logger,
	}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("kafka consumer error", zap.Error(err))
		}
	}()

	for {
		err := c.group.Consume(ctx, c.topics, c.handler)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			c.logger.Error("kafka consume failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

const defaultRetryDelay = 5 * time.Second

type groupHandler struct {
	handle     Handler
	logger     *zap.Logger
	retryDelay time.Duration
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			if !h.processUntilDone(session.Context(), message) {
				return nil
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// processUntilDone retries message until it is done with. It returns false
// if ctx ends first, leaving the message unmarked.
func (h *groupHandler) processUntilDone(ctx context.Context, message *sarama.ConsumerMessage) bool {
	for !h.process(ctx, message) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(h.retryDelay):
		}
	}
	return true
}

// process reports whether the message is done with. Undecodable messages are
// dropped since redelivery cannot fix them.
func (h *groupHandler) process(ctx context.Context, message *sarama.ConsumerMessage) bool {
	ev, err := ParseIndexEvent(message.Value)
	if err != nil {
		h.logger.Warn("dropping malformed index event",
			zap.Int32("partition", message.Partition),
			zap.Int64("offset", message.Offset),
			zap.Error(err))
		return true
	}
	if err := h.handle(ctx, ev); err != nil {
		h.logger.Error("index event failed",
			zap.String("key", ev.Key()),
			zap.Int32("partition", message.Partition),
			zap.Int64("offset", message.Offset),
			zap.Error(err))
		return false
	}
	return true
}
