package repository

import (
	"context"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	pkgkafka "AgentDesk/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishAgentCreated(ctx context.Context, ev models.AgentCreatedEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.EventID), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher drops events; used when Kafka is disabled.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishAgentCreated(context.Context, models.AgentCreatedEvent) error {
	return nil
}

func (NopEventPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NopEventPublisher{}
)
