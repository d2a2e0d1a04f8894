package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/pkg/config"
	"dispatch/pkg/contracts"
	"dispatch/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const (
	// AuthPrefix is served without the session guard.
	AuthPrefix = "/api/v1/auth/"

	authRequestsPerWindow = 30
	authRequestWindow     = time.Minute
)

// Stopper is a background worker that must end before the process exits.
type Stopper interface {
	Stop()
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	caller           middleware.CallerFunc
	authLimiter      *middleware.RateLimiter
	stoppers         []Stopper

	healthHandler http.Handler
	authHandler   http.Handler
	appHandler    http.Handler
}

// NewApplication builds the admin API server. A nil idempotency store falls
// back to an in-memory one.
func NewApplication(cfg *config.Config, idempotencyStore middleware.IdempotencyStore) *Application {
	if idempotencyStore == nil {
		idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	}
	return &Application{
		cfg:              cfg,
		idempotencyStore: idempotencyStore,
		authLimiter:      middleware.NewRateLimiter(authRequestsPerWindow, authRequestWindow),
	}
}

// ScopeIdempotency sets how replayed responses are tied to a caller. It must
// be called before SetApp.
func (a *Application) ScopeIdempotency(caller middleware.CallerFunc) {
	a.caller = caller
}

// SetApp mounts the health probes, the unguarded auth endpoints and the
// guarded admin endpoints.
func (a *Application) SetApp(
	health contracts.Handler,
	auth contracts.Handler,
	guard func(http.Handler) http.Handler,
	handlers ...contracts.Handler,
) {
	a.setHealthHandler(health)
	a.setAuthHandler(auth)
	a.setAppHandler(guard, handlers)
	a.setAppServer()
}

// OnShutdown registers workers stopped during graceful shutdown, in order.
func (a *Application) OnShutdown(stoppers ...Stopper) {
	a.stoppers = append(a.stoppers, stoppers...)
}

// Handler exposes the routed handler chain.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(health contracts.Handler) {
	healthRouter := httprouter.New()
	health.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

// Middleware order: Recovery → Logging → MaxSize → ContentType → RateLimit → Timeout → Router
func (a *Application) setAuthHandler(auth contracts.Handler) {
	authRouter := httprouter.New()
	auth.RegisterRoutes(authRouter)

	var authHTTPHandler http.Handler = authRouter
	authHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(authHTTPHandler)
	authHTTPHandler = middleware.RateLimit(a.authLimiter, middleware.ClientIPExtractor, a.cfg.Log)(authHTTPHandler)
	authHTTPHandler = a.common(authHTTPHandler)
	a.authHandler = authHTTPHandler
	a.cfg.Log.Info("Auth endpoints configured without session guard")
}

// Middleware order: Recovery → Logging → MaxSize → ContentType → Guard → Timeout → Idempotency → Router
func (a *Application) setAppHandler(guard func(http.Handler) http.Handler, handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	var appHTTPHandler http.Handler = appRouter
	appHTTPHandler = middleware.Idempotency(a.idempotencyStore, middleware.DefaultIdempotencyHeader, a.caller, a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHTTPHandler)
	appHTTPHandler = guard(appHTTPHandler)
	appHTTPHandler = a.common(appHTTPHandler)
	a.appHandler = appHTTPHandler
	a.cfg.Log.Info("Admin endpoints configured behind session guard", "handlers", len(handlers))
}

func (a *Application) common(next http.Handler) http.Handler {
	next = middleware.ContentTypeValidation(a.cfg.Log)(next)
	next = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(next)
	next = middleware.RequestLogging(a.cfg.Log)(next)
	return middleware.Recovery(a.cfg.Log)(next)
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle(AuthPrefix, a.authHandler)
	mux.Handle("/", a.appHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.stopWorkers()
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.stopWorkers()
	a.cfg.Log.Info("Server stopped gracefully")
}

func (a *Application) stopWorkers() {
	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.authLimiter.Stop()
	for _, s := range a.stoppers {
		s.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")
}
