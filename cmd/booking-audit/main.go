package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"meetingroom/internal/events"
	"meetingroom/pkg/config"
	"meetingroom/pkg/kafka"
	kafka_config "meetingroom/pkg/kafka/config"
	kafka_middleware "meetingroom/pkg/kafka/middleware"
)

const ServiceName = "booking-audit"

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := kafka_middleware.NewMetrics()
	handler := events.NewAuditHandler(events.NewLogRecorder(cfg.Log))

	topics := kafkaCfg.EventTopics()
	group := kafkaCfg.Topics.AuditGroup
	consumers := make([]*kafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		consumer, err := kafka.NewConsumer(kafkaCfg, topic, group, kafkaCfg.DLQTopic(topic), handler, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka consumer", "topic", topic, "error", err)
		}
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())
		consumers = append(consumers, consumer)
	}

	errs := make(chan error, len(consumers))
	for _, c := range consumers {
		go func(c *kafka.Consumer) {
			errs <- c.Start(ctx)
		}(c)
	}
	cfg.Log.Info("Booking audit consumer running", "topics", topics, "group_id", group)

	for range consumers {
		if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Consumer stopped", "error", err)
			stop()
		}
	}

	for _, c := range consumers {
		if err := c.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	}
	metrics.Log(cfg.Log)
	cfg.Log.Info("Booking audit consumer stopped")
}
