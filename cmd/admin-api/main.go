package main

import (
	"context"

	"dispatch/internal/assignment"
	"dispatch/internal/assignment/events"
	assignmenthandler "dispatch/internal/assignment/handler"
	bookinghandler "dispatch/internal/bookings/handler"
	bookingrepository "dispatch/internal/bookings/repository"
	bookingservice "dispatch/internal/bookings/service"
	bookingvalidator "dispatch/internal/bookings/validator"
	cataloghandler "dispatch/internal/catalog/handler"
	catalogrepository "dispatch/internal/catalog/repository"
	catalogservice "dispatch/internal/catalog/service"
	catalogvalidator "dispatch/internal/catalog/validator"
	dashboardhandler "dispatch/internal/dashboard/handler"
	dashboardservice "dispatch/internal/dashboard/service"
	"dispatch/internal/guard"
	healthhandler "dispatch/internal/health/handler"
	identityhandler "dispatch/internal/identity/handler"
	identityrepository "dispatch/internal/identity/repository"
	identityservice "dispatch/internal/identity/service"
	"dispatch/internal/identity/session"
	technicianhandler "dispatch/internal/technicians/handler"
	technicianrepository "dispatch/internal/technicians/repository"
	technicianservice "dispatch/internal/technicians/service"
	technicianvalidator "dispatch/internal/technicians/validator"
	"dispatch/pkg/app"
	"dispatch/pkg/config"
	"dispatch/pkg/contracts"
	"dispatch/pkg/kafka"
	kafka_config "dispatch/pkg/kafka/config"
	kafka_middleware "dispatch/pkg/kafka/middleware"
	"dispatch/pkg/middleware"
)

const ServiceName = "admin-api"

type repositories struct {
	services    catalogrepository.ServiceRepository
	technicians technicianrepository.TechnicianRepository
	bookings    bookingrepository.BookingRepository
	accounts    identityrepository.AccountRepository
	users       identityrepository.UserRepository
}

func main() {
	cfg := config.LoadServer(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting admin API")

	repos := initRepositories(cfg)
	publisher := initPublisher(cfg)

	signInLimiter := middleware.NewRateLimiter(cfg.SignInMaxAttempts, cfg.SignInWindow)
	provider := initIdentity(cfg, repos, signInLimiter)
	sessionGuard := guard.New(provider, repos.users, cfg.Log)

	registry := assignment.NewRegistry(
		repos.bookings,
		repos.technicians,
		publisher,
		assignment.RegistryConfig{
			Options: assignment.Options{
				SuccessMessageTTL: cfg.AssignmentSuccessMessageTTL,
				FailureMessageTTL: cfg.AssignmentFailureMessageTTL,
			},
			IdleTTL: cfg.AssignmentIdleTTL,
		},
		cfg.Log,
	)
	registry.Start()

	monitor := guard.NewMonitor(provider, cfg.Log, registry)
	monitor.Start()

	serverApp := app.NewApplication(cfg, middleware.NewRedisIdempotencyStore(cfg.Client.Redis, cfg.IdempotencyTTL))
	serverApp.ScopeIdempotency(guard.SessionCaller)
	serverApp.SetApp(
		initHealth(cfg),
		identityhandler.NewAuthHandler(provider, cfg.Log),
		sessionGuard.Middleware,
		initHandlers(cfg, repos, registry)...,
	)
	serverApp.OnShutdown(monitor, registry, signInLimiter, closer{publisher, cfg})
	serverApp.Run()
}

func initRepositories(cfg *config.Config) repositories {
	return repositories{
		services:    catalogrepository.NewMongoServiceRepository(cfg),
		technicians: technicianrepository.NewMongoTechnicianRepository(cfg),
		bookings:    bookingrepository.NewMongoBookingRepository(cfg),
		accounts:    identityrepository.NewMongoAccountRepository(cfg),
		users:       identityrepository.NewMongoUserRepository(cfg),
	}
}

func initIdentity(cfg *config.Config, repos repositories, limiter *middleware.RateLimiter) identityservice.Provider {
	tokens, err := session.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize session tokens", "error", err)
	}

	provider := identityservice.NewIdentityService(
		repos.accounts,
		session.NewRedisStore(cfg.Client.Redis),
		tokens,
		limiter,
		cfg,
	)
	cfg.Log.Info("Identity provider initialized", "issuer", cfg.JWTIssuer, "session_ttl", cfg.SessionTTL)
	return provider
}

// initPublisher returns a no-op publisher when no broker is configured.
func initPublisher(cfg *config.Config) events.Publisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka disabled, assignment events will not be published")
		return events.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.AssignmentEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Kafka producer initialized", "topic", producer.Topic())
	return events.NewKafkaPublisher(producer, cfg.Log)
}

func initHealth(cfg *config.Config) contracts.Handler {
	return healthhandler.NewHealthHandler(map[string]healthhandler.Probe{
		"database": func(ctx context.Context) error { return cfg.Client.Mongo.Ping(ctx, nil) },
		"cache":    func(ctx context.Context) error { return cfg.Client.Redis.Ping(ctx).Err() },
	}, cfg.Log)
}

func initHandlers(cfg *config.Config, repos repositories, registry *assignment.Registry) []contracts.Handler {
	catalog := catalogservice.NewCatalogService(
		repos.services,
		catalogvalidator.NewServiceValidator(cfg.Log),
		cfg,
	)
	technicians := technicianservice.NewTechnicianService(
		repos.technicians,
		technicianvalidator.NewTechnicianValidator(cfg.Log),
		cfg,
	)
	bookings := bookingservice.NewBookingService(
		repos.bookings,
		repos.services,
		repos.technicians,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)
	dashboard := dashboardservice.NewDashboardService(repos.services, repos.technicians, repos.bookings, cfg)

	cfg.Log.Info("Admin services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		cataloghandler.NewServiceHandler(catalog, cfg.Log),
		technicianhandler.NewTechnicianHandler(technicians, cfg.Log),
		bookinghandler.NewBookingHandler(bookings, cfg.Log),
		assignmenthandler.NewAssignmentHandler(registry, cfg.Log),
		dashboardhandler.NewDashboardHandler(dashboard, cfg.Log),
	}
}

// closer flushes the event publisher on shutdown.
type closer struct {
	publisher events.Publisher
	cfg       *config.Config
}

func (c closer) Stop() {
	if err := c.publisher.Close(); err != nil {
		c.cfg.Log.Error("Failed to close event publisher", "error", err)
	}
}
