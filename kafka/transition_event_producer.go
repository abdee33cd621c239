package kafka

import (
	"context"
	"fmt"

	"webhook-service/models"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TransitionEventProducer writes payment transition events to a Kafka topic,
// keyed by transaction id so every event for one payment lands on the same
// partition.
type TransitionEventProducer struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewTransitionEventProducer(brokers []string, topic string, logger *zap.Logger) *TransitionEventProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &TransitionEventProducer{writer: w, topic: topic, logger: logger}
}

func (p *TransitionEventProducer) PublishTransition(ctx context.Context, event models.TransitionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.TransactionID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write to %s: %w", p.topic, err)
	}

	p.logger.Debug("Transition event sent",
		zap.String("topic", p.topic),
		zap.String("event_type", event.Type),
		zap.String("transaction_id", event.TransactionID),
	)
	return nil
}

func (p *TransitionEventProducer) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Warn("Kafka producer close failed", zap.Error(err))
		return
	}
	p.logger.Info("Kafka producer closed")
}
