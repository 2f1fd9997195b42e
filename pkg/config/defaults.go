package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "meetingroom"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultOrgTimezone = "UTC"
	DefaultStoreDriver = StoreDriverMongo

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout     = 30 * time.Second
	DefaultTransactionTimeout = 10 * time.Second
	DefaultIdempotencyTTL     = 24 * time.Hour
	DefaultMaxRequestSize     = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
	DefaultPageSize        = 10
	DefaultUpcomingDays    = 7
	DefaultMaxUpcomingDays = 365
	DefaultMaxRoomCapacity = 10000
	DefaultEventsEnabled   = false
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)
