package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultBookingEventsTopic = "meetingroom.bookings"
	DefaultRoomEventsTopic    = "meetingroom.rooms"
	DefaultAuditConsumerGroup = "meetingroom-booking-audit"
	DefaultDLQSuffix          = ".dlq"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultConsumerStartOffset       = -2 // the audit job replays from the oldest offset
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1 << 20
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 60 * time.Second
	DefaultConsumerMaxRetries        = 3
)
