package guard

import (
	"sync"

	"dispatch/internal/identity/service"
	"dispatch/pkg/logger"
)

type Subscriber interface {
	Subscribe(listener service.Listener) (unsubscribe func())
}

// SessionCloser releases whatever per-session state a component holds.
type SessionCloser interface {
	CloseSession(sessionID string)
}

// Monitor follows session changes and tears down the state of sessions that
// sign out.
type Monitor struct {
	subscriber  Subscriber
	closers     []SessionCloser
	log         *logger.Logger
	mu          sync.Mutex
	unsubscribe func()
}

func NewMonitor(subscriber Subscriber, log *logger.Logger, closers ...SessionCloser) *Monitor {
	return &Monitor{subscriber: subscriber, closers: closers, log: log}
}

func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		return
	}
	m.unsubscribe = m.subscriber.Subscribe(m.handle)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Monitor) handle(event service.SessionEvent) {
	if event.Type != service.EventSignedOut || event.Session == nil {
		return
	}
	m.log.Debug("Session signed out, closing session state", "session_id", event.Session.ID)
	for _, c := range m.closers {
		c.CloseSession(event.Session.ID)
	}
}
