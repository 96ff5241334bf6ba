package eventpublisher

import (
	"context"

	eventsv1 "github.com/muhammadchandra19/exchange/services/clob-engine/internal/domain/events/v1"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/config"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/errors"
	"github.com/muhammadchandra19/exchange/services/clob-engine/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Publisher writes drained book events to the event topic in their fixed
// binary record form.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      logger.Interface
}

// NewPublisher creates a Kafka publisher for the event topic.
func NewPublisher(cfg config.KafkaConfig, log logger.Interface) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.EventTopic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// PublishEvent publishes one event record to the event topic.
func (p *Publisher) PublishEvent(ctx context.Context, event eventsv1.Event) error {
	msg := kafka.Message{
		Value: event.Marshal(),
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "eventType", Value: event.Type},
		)
		return errors.NewTracer("failed to publish book event")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
