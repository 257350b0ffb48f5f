package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"invitide/internal/config"
	"invitide/internal/logger"
	"invitide/internal/models"
)

// Publisher serializes domain messages onto their topics, keyed by event id
// so every message about one event lands on the same partition.
type Publisher struct {
	producer *Producer
	topics   config.TopicConfig
	logger   *logger.Logger
}

func NewPublisher(producer *Producer, topics config.TopicConfig, log *logger.Logger) *Publisher {
	return &Publisher{producer: producer, topics: topics, logger: log}
}

func (p *Publisher) EventCreated(ctx context.Context, msg models.EventCreatedMessage) error {
	return p.publish(ctx, p.topics.EventCreated, msg.EventID, msg)
}

func (p *Publisher) EventDeleted(ctx context.Context, msg models.EventDeletedMessage) error {
	return p.publish(ctx, p.topics.EventDeleted, msg.EventID, msg)
}

func (p *Publisher) AttendanceChanged(ctx context.Context, msg models.AttendanceChangedMessage) error {
	return p.publish(ctx, p.topics.AttendanceChanged, msg.EventID, msg)
}

func (p *Publisher) CheckedIn(ctx context.Context, msg models.CheckedInMessage) error {
	return p.publish(ctx, p.topics.CheckedIn, msg.EventID, msg)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, msg interface{}) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	if err := p.producer.Publish(ctx, topic, key, value); err != nil {
		return err
	}
	p.logger.LogKafka("PUBLISH", topic, key)
	return nil
}

// NopPublisher drops every message. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) EventCreated(context.Context, models.EventCreatedMessage) error { return nil }
func (NopPublisher) EventDeleted(context.Context, models.EventDeletedMessage) error { return nil }
func (NopPublisher) AttendanceChanged(context.Context, models.AttendanceChangedMessage) error {
	return nil
}
func (NopPublisher) CheckedIn(context.Context, models.CheckedInMessage) error { return nil }
