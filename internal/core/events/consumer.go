package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/pkg/logger"
)

// KnownEventTypes are the domain events relayed to Kafka.
var KnownEventTypes = []string{
	EventTypePaymentLinkCreated,
	EventTypePaymentLinkDeleted,
	EventTypePaymentSubmitted,
	EventTypePaymentStatusChanged,
}

// Topics returns the Kafka topic of every known event type.
func Topics(prefix string) []string {
	topics := make([]string, 0, len(KnownEventTypes))
	for _, t := range KnownEventTypes {
		topics = append(topics, prefix+t)
	}
	return topics
}

// DecodeMessage rebuilds the envelope of a relayed event.
func DecodeMessage(msg *sarama.ConsumerMessage) (*BaseEvent, error) {
	var event BaseEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("decode %s@%d/%d: %w", msg.Topic, msg.Partition, msg.Offset, err)
	}
	if event.Type == "" || event.ID == "" {
		return nil, fmt.Errorf("decode %s@%d/%d: missing event id or type", msg.Topic, msg.Partition, msg.Offset)
	}
	return &event, nil
}

// KafkaConsumer feeds relayed events back into a local bus. Undecodable messages are logged
// and marked so a poison message cannot stall the partition.
type KafkaConsumer struct {
	bus    *EventBus
	logger *slog.Logger
}

func NewKafkaConsumer(bus *EventBus, logger *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{bus: bus, logger: logger}
}

func NewKafkaConsumerConfig(cfg internal.KafkaConfig) *sarama.Config {
	config := sarama.NewConfig()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}
	return config
}

func (c *KafkaConsumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *KafkaConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *KafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			c.Handle(session.Context(), msg)
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// Handle dispatches one message synchronously.
func (c *KafkaConsumer) Handle(ctx context.Context, msg *sarama.ConsumerMessage) {
	ctx = logger.Into(ctx, c.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset))
	lg := logger.From(ctx)

	event, err := DecodeMessage(msg)
	if err != nil {
		lg.Warn("skipping undecodable event", "error", err)
		return
	}
	if err := c.bus.PublishSync(ctx, event); err != nil {
		lg.Error("event handler failed", "error", err, "event_id", event.ID, "event_type", event.Type)
	}
}

// Run consumes until ctx is cancelled, rejoining the group after every rebalance.
func (c *KafkaConsumer) Run(ctx context.Context, group sarama.ConsumerGroup, topics []string) error {
	go func() {
		for err := range group.Errors() {
			c.logger.Error("kafka consumer error", "error", err)
		}
	}()

	for {
		if err := group.Consume(ctx, topics, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume %v: %w", topics, err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
