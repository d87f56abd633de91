package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/paylink/internal/core/events"
	"github.com/frahmantamala/paylink/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run outside the HTTP server.`,
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Consume relayed domain events from Kafka",
	Long:  `Join the configured consumer group and feed every relayed domain event into the local log sink.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startEventWorker()
	},
}

func startEventWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	kafka := cfg.Events.Kafka
	if !kafka.Enabled {
		return errors.New("events.kafka.enabled is false; nothing to consume")
	}
	lg := logger.LoggerWrapper()

	group, err := sarama.NewConsumerGroup(kafka.Brokers, kafka.ConsumerGroup, events.NewKafkaConsumerConfig(kafka))
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer group: %w", err)
	}
	defer group.Close()

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.AllEvents, events.LogSink(lg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topics := events.Topics(kafka.TopicPrefix)
	lg.Info("event worker is running", "group", kafka.ConsumerGroup, "topics", topics)

	if err := events.NewKafkaConsumer(bus, lg).Run(ctx, group, topics); err != nil {
		return err
	}
	lg.Info("event worker stopped")
	return nil
}

func init() {
	workerCmd.AddCommand(eventWorkerCmd)
}
