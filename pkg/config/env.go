package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisURL = "REDIS_URL"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret  = "JWT_SECRET"
	EnvJWTIssuer  = "JWT_ISSUER"
	EnvSessionTTL = "SESSION_TTL"

	EnvSignInMaxAttempts = "SIGN_IN_MAX_ATTEMPTS"
	EnvSignInWindow      = "SIGN_IN_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBookingsPageSize = "BOOKINGS_PAGE_SIZE"
	EnvPhoneRegions     = "PHONE_REGIONS"

	EnvAssignmentSuccessMessageTTL = "ASSIGNMENT_SUCCESS_MESSAGE_TTL"
	EnvAssignmentFailureMessageTTL = "ASSIGNMENT_FAILURE_MESSAGE_TTL"
	EnvAssignmentIdleTTL           = "ASSIGNMENT_IDLE_TTL"
	EnvAssignmentEventsTopic       = "ASSIGNMENT_EVENTS_TOPIC"
)
