package kafka_config

import (
	"fmt"
	"strings"
	"time"
)

// Topics names the streams the API publishes to and the audit job reads.
type Topics struct {
	BookingEvents string
	RoomEvents    string
	AuditGroup    string
	// DLQSuffix is appended to a topic to name its dead letter topic. Empty
	// disables dead lettering.
	DLQSuffix string
}

type Config struct {
	Brokers []string
	Topics  Topics

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 all replicas, 0 none, 1 leader
	ProducerCompression  string // none, gzip, snappy, lz4, zstd
	ProducerAsync        bool

	ConsumerStartOffset       int64 // -1 newest, -2 oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int
}

// Load reads the Kafka configuration from the environment. Validation is
// left to the caller so it can log and exit the way the service does.
func Load() *Config {
	return &Config{
		Brokers: splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		Topics: Topics{
			BookingEvents: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
			RoomEvents:    getEnvStr(EnvRoomEventsTopic, DefaultRoomEventsTopic),
			AuditGroup:    getEnvStr(EnvAuditConsumerGroup, DefaultAuditConsumerGroup),
			DLQSuffix:     lookupEnvStr(EnvKafkaDLQSuffix, DefaultDLQSuffix),
		},

		ProducerMaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerRequireAcks:  getEnvInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  strings.ToLower(getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression)),
		ProducerAsync:        getEnvBool(EnvKafkaProducerAsync, DefaultProducerAsync),

		ConsumerStartOffset:       getEnvInt64(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset),
		ConsumerMinBytes:          getEnvInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
		ConsumerMaxBytes:          getEnvInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
		ConsumerMaxWait:           getEnvDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
		ConsumerCommitInterval:    getEnvDuration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
		ConsumerHeartbeatInterval: getEnvDuration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
		ConsumerSessionTimeout:    getEnvDuration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
		ConsumerRebalanceTimeout:  getEnvDuration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
		ConsumerMaxRetries:        getEnvInt(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
	}
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// EventTopics lists the lifecycle topics in a stable order.
func (cfg *Config) EventTopics() []string {
	return []string{cfg.Topics.BookingEvents, cfg.Topics.RoomEvents}
}

// DLQTopic names the dead letter topic for topic, or "" when disabled.
func (cfg *Config) DLQTopic(topic string) string {
	if cfg.Topics.DLQSuffix == "" {
		return ""
	}
	return topic + cfg.Topics.DLQSuffix
}

func (cfg *Config) Validate() error {
	var errors []string
	fail := func(format string, args ...any) {
		errors = append(errors, fmt.Sprintf(format, args...))
	}

	if len(cfg.Brokers) == 0 {
		fail("At least one Kafka broker is required")
	}

	switch {
	case cfg.Topics.BookingEvents == "":
		fail("BookingEventsTopic cannot be empty")
	case cfg.Topics.BookingEvents == cfg.Topics.RoomEvents:
		fail("BookingEventsTopic and RoomEventsTopic must differ, both are %q", cfg.Topics.BookingEvents)
	}
	if cfg.Topics.RoomEvents == "" {
		fail("RoomEventsTopic cannot be empty")
	}
	if cfg.Topics.AuditGroup == "" {
		fail("AuditConsumerGroup cannot be empty")
	}

	if cfg.ProducerMaxAttempts <= 0 {
		fail("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts)
	}
	switch cfg.ProducerCompression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		fail("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression)
	}
	if cfg.ProducerRequireAcks < -1 || cfg.ProducerRequireAcks > 1 {
		fail("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks)
	}
	if cfg.ConsumerStartOffset < -2 {
		fail("ConsumerStartOffset must be -1 (newest), -2 (oldest), or >= 0, got: %d", cfg.ConsumerStartOffset)
	}
	if cfg.ConsumerMinBytes <= 0 || cfg.ConsumerMaxBytes < cfg.ConsumerMinBytes {
		fail("ConsumerMinBytes must be positive and not above ConsumerMaxBytes, got: %d and %d", cfg.ConsumerMinBytes, cfg.ConsumerMaxBytes)
	}
	if cfg.ConsumerMaxRetries < 0 {
		fail("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries)
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"ProducerBatchTimeout", cfg.ProducerBatchTimeout},
		{"ConsumerMaxWait", cfg.ConsumerMaxWait},
		{"ConsumerCommitInterval", cfg.ConsumerCommitInterval},
		{"ConsumerHeartbeatInterval", cfg.ConsumerHeartbeatInterval},
		{"ConsumerSessionTimeout", cfg.ConsumerSessionTimeout},
		{"ConsumerRebalanceTimeout", cfg.ConsumerRebalanceTimeout},
	} {
		if d.value <= 0 {
			fail("%s must be positive, got: %s", d.name, d.value)
		}
	}

	if len(errors) > 0 {
		errMsg := "Kafka configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}
	return nil
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}
	logFunc("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"booking_events_topic", cfg.Topics.BookingEvents,
		"room_events_topic", cfg.Topics.RoomEvents,
		"audit_consumer_group", cfg.Topics.AuditGroup,
		"dlq_suffix", cfg.Topics.DLQSuffix,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"producer_async", cfg.ProducerAsync,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
	)
}
