package assignment

import (
	"context"
	"sync"
	"time"

	"dispatch/internal/assignment/events"
	techniciansservice "dispatch/internal/technicians/service"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"golang.org/x/sync/errgroup"
)

type BookingStore interface {
	BookingWriter
	FindByID(ctx context.Context, id string) (*model.Booking, error)
}

type TechnicianStore interface {
	TechnicianReader
	FindActive(ctx context.Context) ([]*model.Technician, error)
}

type RegistryConfig struct {
	Options
	IdleTTL time.Duration
}

// LoadError tells which read failed while opening a workflow.
type LoadError struct {
	Thing string
	Err   error
}

func (e *LoadError) Error() string {
	return "failed to load " + e.Thing + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type workflowKey struct {
	sessionID string
	bookingID string
}

// Registry owns the open workflows, one per (session, booking).
type Registry struct {
	mu        sync.Mutex
	workflows map[workflowKey]*Workflow

	bookings    BookingStore
	technicians TechnicianStore
	publisher   events.Publisher
	cfg         RegistryConfig
	log         *logger.Logger
	now         func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewRegistry(
	bookings BookingStore,
	technicians TechnicianStore,
	publisher events.Publisher,
	cfg RegistryConfig,
	log *logger.Logger,
) *Registry {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Registry{
		workflows:   make(map[workflowKey]*Workflow),
		bookings:    bookings,
		technicians: technicians,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

// Open returns the session's workflow for bookingID, loading the booking and
// the eligible technicians when none is open yet. An open workflow with no
// attempt in flight is refreshed from the stores; one mid-attempt is returned
// as is.
func (r *Registry) Open(ctx context.Context, sess *model.Session, bookingID string) (*Workflow, error) {
	return r.open(ctx, sess, bookingID, true)
}

// Resume returns the open workflow without re-reading the stores, opening a
// new one when none exists.
func (r *Registry) Resume(ctx context.Context, sess *model.Session, bookingID string) (*Workflow, error) {
	return r.open(ctx, sess, bookingID, false)
}

func (r *Registry) open(ctx context.Context, sess *model.Session, bookingID string, refresh bool) (*Workflow, error) {
	key := workflowKey{sessionID: sess.ID, bookingID: bookingID}

	r.mu.Lock()
	current, ok := r.workflows[key]
	r.mu.Unlock()
	if ok && !current.Closed() {
		if _, inFlight := current.IdleSince(); inFlight || !refresh {
			return current, nil
		}
		booking, options, err := r.load(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		current.Refresh(booking, options)
		return current, nil
	}

	booking, options, err := r.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	w := NewWorkflow(
		booking,
		options,
		sess.UID,
		r.bookings,
		r.technicians,
		r.publisher,
		r.cfg.Options,
		r.log,
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.workflows[key]; ok && !existing.Closed() {
		w.Close()
		return existing, nil
	}
	r.workflows[key] = w
	r.log.Debug("Assignment workflow opened", "session_id", sess.ID, "booking_id", bookingID, "options", len(options))
	return w, nil
}

func (r *Registry) load(ctx context.Context, bookingID string) (*model.Booking, []model.TechnicianOption, error) {
	var (
		booking     *model.Booking
		technicians []*model.Technician
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := r.bookings.FindByID(gctx, bookingID)
		if err != nil {
			return &LoadError{Thing: "booking", Err: err}
		}
		booking = b
		return nil
	})
	g.Go(func() error {
		t, err := r.technicians.FindActive(gctx)
		if err != nil {
			return &LoadError{Thing: "technicians", Err: err}
		}
		technicians = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return booking, techniciansservice.ToOptions(technicians), nil
}

func (r *Registry) Get(sessionID, bookingID string) (*Workflow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workflows[workflowKey{sessionID: sessionID, bookingID: bookingID}]
	if !ok || w.Closed() {
		return nil, false
	}
	return w, true
}

func (r *Registry) Close(sessionID, bookingID string) {
	key := workflowKey{sessionID: sessionID, bookingID: bookingID}

	r.mu.Lock()
	w, ok := r.workflows[key]
	delete(r.workflows, key)
	r.mu.Unlock()

	if ok {
		w.Close()
	}
}

// CloseSession closes every workflow opened by sessionID.
func (r *Registry) CloseSession(sessionID string) {
	var closing []*Workflow

	r.mu.Lock()
	for key, w := range r.workflows {
		if key.sessionID == sessionID {
			closing = append(closing, w)
			delete(r.workflows, key)
		}
	}
	r.mu.Unlock()

	for _, w := range closing {
		w.Close()
	}
	if len(closing) > 0 {
		r.log.Info("Closed assignment workflows for session", "session_id", sessionID, "count", len(closing))
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workflows)
}

// Evict closes workflows untouched for longer than IdleTTL. Workflows with an
// attempt in flight are kept.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)
	var evicted []*Workflow

	r.mu.Lock()
	for key, w := range r.workflows {
		lastUsed, inFlight := w.IdleSince()
		if w.Closed() || (!inFlight && lastUsed.Before(cutoff)) {
			evicted = append(evicted, w)
			delete(r.workflows, key)
		}
	}
	r.mu.Unlock()

	for _, w := range evicted {
		w.Close()
	}
	return len(evicted)
}

// Start runs idle eviction until Stop is called.
func (r *Registry) Start() {
	interval := r.cfg.IdleTTL / 2
	if interval <= 0 {
		return
	}
	interval = max(interval, time.Second)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.Evict(); n > 0 {
					r.log.Debug("Evicted idle assignment workflows", "count", n)
				}
			case <-r.stopCh:
				return
			}
		}
	}()
}

// Stop ends eviction and closes every open workflow.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	open := make([]*Workflow, 0, len(r.workflows))
	for key, w := range r.workflows {
		open = append(open, w)
		delete(r.workflows, key)
	}
	r.mu.Unlock()

	for _, w := range open {
		w.Close()
	}
}
