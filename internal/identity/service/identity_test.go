package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	identityerrors "dispatch/internal/identity/errors"
	"dispatch/internal/identity/session"
	"dispatch/pkg/config"
	"dispatch/pkg/logger"
	"dispatch/pkg/middleware"
	"dispatch/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccounts struct {
	accounts map[string]*model.Account
	findErr  error
	touched  []string
}

func (f *fakeAccounts) Create(ctx context.Context, account *model.Account) error {
	f.accounts[account.Email] = account
	return nil
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.accounts[email]
	if !ok {
		return nil, identityerrors.ErrUnknownAccount
	}
	return a, nil
}

func (f *fakeAccounts) FindByUID(ctx context.Context, uid string) (*model.Account, error) {
	for _, a := range f.accounts {
		if a.UID == uid {
			return a, nil
		}
	}
	return nil, identityerrors.ErrUnknownAccount
}

func (f *fakeAccounts) ResetPassword(ctx context.Context, uid, passwordHash string) error { return nil }

func (f *fakeAccounts) TouchSignIn(ctx context.Context, uid string, at time.Time) error {
	f.touched = append(f.touched, uid)
	return nil
}

type memoryStore struct {
	mu   sync.Mutex
	live map[string]bool
}

func (m *memoryStore) Save(ctx context.Context, sessionID, uid string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[sessionID] = true
	return nil
}

func (m *memoryStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[sessionID], nil
}

func (m *memoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, sessionID)
	return nil
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

type fixture struct {
	accounts *fakeAccounts
	store    *memoryStore
	provider Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := session.NewTokens("0123456789abcdef0123456789abcdef", "dispatch-admin", time.Hour)
	require.NoError(t, err)

	limiter := middleware.NewRateLimiter(3, time.Minute)
	t.Cleanup(limiter.Stop)

	f := &fixture{
		accounts: &fakeAccounts{accounts: map[string]*model.Account{
			"admin@example.com":    {UID: "u1", Email: "admin@example.com", PasswordHash: hash(t, "s3cret!")},
			"disabled@example.com": {UID: "u2", Email: "disabled@example.com", PasswordHash: hash(t, "s3cret!"), Disabled: true},
		}},
		store: &memoryStore{live: map[string]bool{}},
	}
	f.provider = NewIdentityService(f.accounts, f.store, tokens, limiter, &config.Config{Log: logger.Discard()})
	return f
}

func TestSignIn_SuccessCreatesLiveSession(t *testing.T) {
	f := newFixture(t)

	sess, token, err := f.provider.SignIn(context.Background(), "  Admin@Example.com ", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UID)
	assert.Equal(t, []string{"u1"}, f.accounts.touched)

	authenticated, err := f.provider.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, authenticated.ID)
}

func TestSignIn_FaultMessages(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		status   int
		message  string
	}{
		{"malformed email", "not-an-email", "x", http.StatusBadRequest, MessageMalformedEmail},
		{"missing domain suffix", "a@b", "x", http.StatusBadRequest, MessageMalformedEmail},
		{"localhost domain", "admin@localhost", "x", http.StatusBadRequest, MessageMalformedEmail},
		{"display name", "Admin <admin@example.com>", "x", http.StatusBadRequest, MessageMalformedEmail},
		{"unknown account", "nobody@example.com", "x", http.StatusUnauthorized, MessageUnknownAccount},
		{"wrong password", "admin@example.com", "nope", http.StatusUnauthorized, MessageWrongCredential},
		{"disabled", "disabled@example.com", "s3cret!", http.StatusForbidden, MessageAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, _, err := f.provider.SignIn(context.Background(), tt.email, tt.password)
			require.Error(t, err)

			appErr := SignInError(err)
			assert.Equal(t, tt.status, appErr.StatusCode())
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestSignIn_RateLimitedAfterFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := f.provider.SignIn(ctx, "admin@example.com", "wrong")
		require.ErrorIs(t, err, identityerrors.ErrWrongCredential)
	}

	_, _, err := f.provider.SignIn(ctx, "admin@example.com", "s3cret!")
	require.ErrorIs(t, err, identityerrors.ErrRateLimited)
	assert.Equal(t, MessageRateLimited, SignInError(err).Message)
}

func TestSignInError_UnmappedFallsBack(t *testing.T) {
	appErr := SignInError(errors.New("socket closed"))

	assert.Equal(t, MessageSignInFailed, appErr.Message)
}

func TestSignOut_RevokesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var events []SessionEvent
	unsubscribe := f.provider.Subscribe(func(e SessionEvent) { events = append(events, e) })

	sess, token, err := f.provider.SignIn(ctx, "admin@example.com", "s3cret!")
	require.NoError(t, err)
	require.NoError(t, f.provider.SignOut(ctx, sess))

	_, err = f.provider.Authenticate(ctx, token)
	assert.ErrorIs(t, err, identityerrors.ErrInvalidSession)

	require.Len(t, events, 2)
	assert.Equal(t, EventSignedIn, events[0].Type)
	assert.Equal(t, EventSignedOut, events[1].Type)
	assert.Equal(t, sess.ID, events[1].Session.ID)

	unsubscribe()
	_, _, err = f.provider.SignIn(ctx, "admin@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.provider.Authenticate(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, identityerrors.ErrInvalidSession)

	_, err = f.provider.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, identityerrors.ErrInvalidSession)
}
