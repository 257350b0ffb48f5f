package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invitide/internal/logger"
	"invitide/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventDeletedHandler reacts to an event-deleted message. Returning an error
// leaves the message uncommitted so it is redelivered.
type EventDeletedHandler func(ctx context.Context, msg models.EventDeletedMessage) error

type Consumer struct {
	reader messageReader
	topic  string
	logger *logger.Logger
	// retryDelay is the pause after a failed fetch or handler.
	retryDelay time.Duration
}

// NewConsumer creates a Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, topic: topic, logger: log, retryDelay: 2 * time.Second}
}

// Run consumes until ctx is cancelled. Malformed messages are committed and skipped.
func (c *Consumer) Run(ctx context.Context, handle EventDeletedHandler) error {
	c.logger.LogKafka("CONSUME", c.topic, "consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			if !c.pause(ctx) {
				return nil
			}
			continue
		}

		var deleted models.EventDeletedMessage
		if err := json.Unmarshal(msg.Value, &deleted); err != nil || deleted.EventID == "" {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping malformed message at offset %d: %v", msg.Offset, err))
			c.commit(ctx, msg)
			continue
		}

		if err := handle(ctx, deleted); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("Handler failed for event %s: %v", deleted.EventID, err))
			if !c.pause(ctx) {
				return nil
			}
			continue
		}

		c.logger.LogKafka("CONSUME", c.topic, deleted.EventID)
		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		c.logger.Error("KAFKA", fmt.Sprintf("Failed to commit offset %d: %v", msg.Offset, err))
	}
}

func (c *Consumer) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
