package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/frahmantamala/paylink/internal"
)

// LogSink records every event at info level.
func LogSink(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "domain event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"aggregate_id", event.AggregateID(),
			"occurred_at", event.OccurredAt())
		return nil
	}
}

// KafkaSink relays events to Kafka, one topic per event type, keyed by aggregate id.
type KafkaSink struct {
	producer    sarama.SyncProducer
	topicPrefix string
	logger      *slog.Logger
}

func NewKafkaProducerConfig(cfg internal.KafkaConfig) *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}
	return config
}

func NewKafkaSink(cfg internal.KafkaConfig, logger *slog.Logger) (*KafkaSink, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewKafkaProducerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, cfg.TopicPrefix, logger), nil
}

func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topicPrefix string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topicPrefix: topicPrefix, logger: logger}
}

func (k *KafkaSink) Topic(eventType string) string {
	return k.topicPrefix + eventType
}

func (k *KafkaSink) Handle(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.EventType(), err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.Topic(event.EventType()),
		Key:   sarama.StringEncoder(event.AggregateID()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.EventID())},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s to kafka: %w", msg.Topic, err)
	}

	k.logger.DebugContext(ctx, "event relayed to kafka",
		"topic", msg.Topic,
		"partition", partition,
		"offset", offset,
		"event_id", event.EventID())
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
