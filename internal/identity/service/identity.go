package service

import (
	"context"
	"errors"
	"sync"
	"time"

	identityerrors "dispatch/internal/identity/errors"
	"dispatch/internal/identity/repository"
	"dispatch/internal/identity/session"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	apperrors "dispatch/pkg/errors"
	"dispatch/pkg/middleware"
	"dispatch/pkg/model"
	"dispatch/pkg/sanitizer"
	"dispatch/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	MessageUnknownAccount  = "No account found with this email address."
	MessageWrongCredential = "Incorrect password. Please try again."
	MessageMalformedEmail  = "Please enter a valid email address."
	MessageAccountDisabled = "This account has been disabled. Contact support."
	MessageRateLimited     = "Too many failed attempts. Please try again later."
	MessageSignInFailed    = "Failed to sign in. Please try again."
)

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

type SessionEvent struct {
	Type    EventType
	Session *model.Session
}

type Listener func(SessionEvent)

// Provider is the identity provider consumed by the guard and the sign-in
// screen.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, string, error)
	SignOut(ctx context.Context, sess *model.Session) error
	Authenticate(ctx context.Context, token string) (*model.Session, error)
	// Subscribe registers listener for session changes and returns a function
	// that removes it. The listener is not called on subscription.
	Subscribe(listener Listener) (unsubscribe func())
}

type identityService struct {
	accounts repository.AccountRepository
	store    session.Store
	tokens   *session.Tokens
	limiter  *middleware.RateLimiter
	cfg      *config.Config
	now      func() time.Time

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func NewIdentityService(
	accounts repository.AccountRepository,
	store session.Store,
	tokens *session.Tokens,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
) Provider {
	return &identityService{
		accounts:  accounts,
		store:     store,
		tokens:    tokens,
		limiter:   limiter,
		cfg:       cfg,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

func (s *identityService) SignIn(ctx context.Context, email, password string) (*model.Session, string, error) {
	email = sanitizer.NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, "", identityerrors.ErrMalformedEmail
	}
	if s.limiter.Exceeded(email) {
		s.cfg.Log.Warn("Sign-in rate limited", "email", email)
		return nil, "", identityerrors.ErrRateLimited
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identityerrors.ErrUnknownAccount) {
			s.limiter.Record(email)
		}
		return nil, "", err
	}
	if account.Disabled {
		return nil, "", identityerrors.ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.limiter.Record(email)
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", identityerrors.ErrWrongCredential
		}
		return nil, "", err
	}

	now := s.now()
	sess, token, err := s.tokens.Mint(now, account)
	if err != nil {
		return nil, "", err
	}
	if err := s.store.Save(ctx, sess.ID, sess.UID, s.tokens.TTL()); err != nil {
		return nil, "", err
	}
	s.limiter.Reset(email)

	if err := s.accounts.TouchSignIn(ctx, account.UID, now); err != nil {
		s.cfg.Log.Warn("Failed to record sign-in time", "uid", account.UID, "error", err)
	}

	s.cfg.Log.Info("Signed in", "uid", sess.UID, "session_id", sess.ID)
	s.emit(SessionEvent{Type: EventSignedIn, Session: sess})
	return sess, token, nil
}

func (s *identityService) SignOut(ctx context.Context, sess *model.Session) error {
	if sess == nil {
		return nil
	}
	err := s.store.Delete(ctx, sess.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to revoke session", "session_id", sess.ID, "error", err)
	}

	s.cfg.Log.Info("Signed out", "uid", sess.UID, "session_id", sess.ID)
	s.emit(SessionEvent{Type: EventSignedOut, Session: sess})
	return err
}

func (s *identityService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, identityerrors.ErrInvalidSession
	}
	sess, err := s.tokens.Parse(token)
	if err != nil {
		s.cfg.Log.Debug("Rejected session token", "error", err)
		return nil, identityerrors.ErrInvalidSession
	}

	live, err := s.store.Exists(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, identityerrors.ErrInvalidSession
	}
	return sess, nil
}

func (s *identityService) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *identityService) emit(event SessionEvent) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}

// ValidEmail reports whether email is a bare, already normalized address.
func ValidEmail(email string) bool {
	return validation.Email(email)
}

// HashPassword is used by the bootstrap scripts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SignInError maps a sign-in fault to the message shown to the operator.
// Unmapped faults fall back to the generic retry message.
func SignInError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, identityerrors.ErrMalformedEmail):
		return apperrors.InvalidInput(MessageMalformedEmail)
	case errors.Is(err, identityerrors.ErrUnknownAccount):
		return apperrors.Unauthorized(MessageUnknownAccount)
	case errors.Is(err, identityerrors.ErrWrongCredential):
		return apperrors.Unauthorized(MessageWrongCredential)
	case errors.Is(err, identityerrors.ErrAccountDisabled):
		return apperrors.Forbidden(MessageAccountDisabled)
	case errors.Is(err, identityerrors.ErrRateLimited):
		return apperrors.TooManyRequests(MessageRateLimited)
	case mongodb.IsUnavailable(err):
		return apperrors.UnavailableMessage(MessageSignInFailed, err)
	default:
		return apperrors.Internal(MessageSignInFailed, err)
	}
}
