package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvOrgTimezone = "ORG_TIMEZONE"
	EnvStoreDriver = "STORE_DRIVER"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout     = "REQUEST_TIMEOUT"
	EnvTransactionTimeout = "TRANSACTION_TIMEOUT"
	EnvIdempotencyTTL     = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize     = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvUpcomingDefaultDays = "UPCOMING_DEFAULT_DAYS"

	EnvEventsEnabled = "EVENTS_ENABLED"
)
