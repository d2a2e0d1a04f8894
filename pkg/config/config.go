package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"dispatch/pkg/client"
	"dispatch/pkg/logger"
	"dispatch/pkg/sanitizer"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisURL string

	Port      string
	LogLevel  string
	LogFormat string

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	SignInMaxAttempts int
	SignInWindow      time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BookingsPageSize int

	// PhoneRegions are tried in order for numbers without a country code.
	PhoneRegions []string

	AssignmentSuccessMessageTTL time.Duration
	AssignmentFailureMessageTTL time.Duration
	AssignmentIdleTTL           time.Duration
	AssignmentEventsTopic       string

	// RequireAuth enables the session secret checks; only the API server signs tokens.
	RequireAuth bool

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration for a job that only talks to MongoDB.
func Load(serviceName string) *Config {
	return load(serviceName, false)
}

// LoadServer reads the configuration for the admin API, which also needs
// Redis and a token signing secret.
func LoadServer(serviceName string) *Config {
	return load(serviceName, true)
}

func load(serviceName string, requireAuth bool) *Config {
	cfg := FromEnv()
	cfg.RequireAuth = requireAuth
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	if err := sanitizer.SetPhoneRegions(cfg.PhoneRegions...); err != nil {
		cfg.Log.Fatal("Failed to set phone regions", "error", err)
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads every key with its fallback without validating or connecting.
func FromEnv() *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisURL: getEnvStr(EnvRedisURL, DefaultRedisURL),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		JWTSecret:  getEnvStr(EnvJWTSecret, ""),
		JWTIssuer:  getEnvStr(EnvJWTIssuer, DefaultJWTIssuer),
		SessionTTL: getEnvDuration(EnvSessionTTL, DefaultSessionTTL),

		SignInMaxAttempts: getEnvNum(EnvSignInMaxAttempts, DefaultSignInMaxAttempts),
		SignInWindow:      getEnvDuration(EnvSignInWindow, DefaultSignInWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BookingsPageSize: getEnvNum(EnvBookingsPageSize, DefaultBookingsPageSize),
		PhoneRegions:     getEnvList(EnvPhoneRegions, DefaultPhoneRegions),

		AssignmentSuccessMessageTTL: getEnvDuration(EnvAssignmentSuccessMessageTTL, DefaultAssignmentSuccessMessageTTL),
		AssignmentFailureMessageTTL: getEnvDuration(EnvAssignmentFailureMessageTTL, DefaultAssignmentFailureMessageTTL),
		AssignmentIdleTTL:           getEnvDuration(EnvAssignmentIdleTTL, DefaultAssignmentIdleTTL),
		AssignmentEventsTopic:       getEnvStr(EnvAssignmentEventsTopic, DefaultAssignmentEventsTopic),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisURL, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RequireAuth {
		if !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
			errors = append(errors, fmt.Sprintf("RedisURL must start with 'redis://' or 'rediss://', got: %s", redactRedisURL(cfg.RedisURL)))
		}
		if len(cfg.JWTSecret) < minJWTSecretLength {
			errors = append(errors, fmt.Sprintf("JWTSecret must be at least %d characters, got: %d", minJWTSecretLength, len(cfg.JWTSecret)))
		}
		if cfg.JWTIssuer == "" {
			errors = append(errors, "JWTIssuer cannot be empty")
		}
	}
	if cfg.SessionTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SessionTTL must be positive, got: %s", cfg.SessionTTL))
	}
	if cfg.SignInMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("SignInMaxAttempts must be positive, got: %d", cfg.SignInMaxAttempts))
	}
	if cfg.SignInWindow <= 0 {
		errors = append(errors, fmt.Sprintf("SignInWindow must be positive, got: %s", cfg.SignInWindow))
	}

	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.BookingsPageSize <= 0 || cfg.BookingsPageSize > MaxBookingsPageSize {
		errors = append(errors, fmt.Sprintf("BookingsPageSize must be between 1 and %d, got: %d", MaxBookingsPageSize, cfg.BookingsPageSize))
	}
	if len(cfg.PhoneRegions) == 0 {
		errors = append(errors, "PhoneRegions cannot be empty")
	}
	for _, region := range cfg.PhoneRegions {
		if !sanitizer.ValidPhoneRegion(region) {
			errors = append(errors, fmt.Sprintf("PhoneRegions contains unsupported region: %s", region))
		}
	}
	if cfg.AssignmentSuccessMessageTTL <= 0 {
		errors = append(errors, fmt.Sprintf("AssignmentSuccessMessageTTL must be positive, got: %s", cfg.AssignmentSuccessMessageTTL))
	}
	if cfg.AssignmentFailureMessageTTL <= 0 {
		errors = append(errors, fmt.Sprintf("AssignmentFailureMessageTTL must be positive, got: %s", cfg.AssignmentFailureMessageTTL))
	}
	if cfg.AssignmentIdleTTL <= 0 {
		errors = append(errors, fmt.Sprintf("AssignmentIdleTTL must be positive, got: %s", cfg.AssignmentIdleTTL))
	}
	if cfg.AssignmentEventsTopic == "" {
		errors = append(errors, "AssignmentEventsTopic cannot be empty")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_url", redactRedisURL(cfg.RedisURL),
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_issuer", cfg.JWTIssuer,
		"session_ttl", cfg.SessionTTL,
		"sign_in_max_attempts", cfg.SignInMaxAttempts,
		"sign_in_window", cfg.SignInWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"bookings_page_size", cfg.BookingsPageSize,
		"phone_regions", cfg.PhoneRegions,
		"assignment_success_message_ttl", cfg.AssignmentSuccessMessageTTL,
		"assignment_failure_message_ttl", cfg.AssignmentFailureMessageTTL,
		"assignment_idle_ttl", cfg.AssignmentIdleTTL,
		"assignment_events_topic", cfg.AssignmentEventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactRedisURL(uri string) string {
	credentialRegex := regexp.MustCompile(`(rediss?://)[^@/]*@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks and upper-casing
// each entry.
func getEnvList(key, fallback string) []string {
	value := getEnvStr(key, fallback)
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePageSize(size, fallback int) int {
	if size <= 0 {
		return fallback
	}
	return min(size, MaxBookingsPageSize)
}
