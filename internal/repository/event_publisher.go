package repository

import (
	"context"

	"AgroPulse/internal/domain/models"
	"AgroPulse/pkg/kafka"
)

// KafkaEventPublisher mirrors broadcast market events onto a Kafka
// topic, keyed per product/device so consumers see per-key order.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *kafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Process(ctx context.Context, e models.MarketEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Key()), e)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}
