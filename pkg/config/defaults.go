package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "dispatch"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisURL = "redis://localhost:6379/0"

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultJWTIssuer  = "dispatch-admin"
	DefaultSessionTTL = 12 * time.Hour

	DefaultSignInMaxAttempts = 5
	DefaultSignInWindow      = 15 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBookingsPageSize = 50
	MaxBookingsPageSize     = 500

	DefaultPhoneRegions = "IL,US"

	DefaultAssignmentSuccessMessageTTL = 3 * time.Second
	DefaultAssignmentFailureMessageTTL = 5 * time.Second
	DefaultAssignmentIdleTTL           = 30 * time.Minute
	DefaultAssignmentEventsTopic       = "booking-assignments"

	minJWTSecretLength = 32
)
