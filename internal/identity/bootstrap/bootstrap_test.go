package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	identityerrors "dispatch/internal/identity/errors"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memAccounts struct {
	byEmail map[string]*model.Account
	resets  int
}

func newMemAccounts(accounts ...*model.Account) *memAccounts {
	m := &memAccounts{byEmail: map[string]*model.Account{}}
	for _, a := range accounts {
		m.byEmail[a.Email] = a
	}
	return m
}

func (m *memAccounts) Create(ctx context.Context, account *model.Account) error {
	if _, ok := m.byEmail[account.Email]; ok {
		return identityerrors.ErrEmailTaken
	}
	account.UID = "uid-" + account.Email
	m.byEmail[account.Email] = account
	return nil
}

func (m *memAccounts) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	a, ok := m.byEmail[email]
	if !ok {
		return nil, identityerrors.ErrUnknownAccount
	}
	copied := *a
	return &copied, nil
}

func (m *memAccounts) FindByUID(ctx context.Context, uid string) (*model.Account, error) {
	for _, a := range m.byEmail {
		if a.UID == uid {
			return a, nil
		}
	}
	return nil, identityerrors.ErrUnknownAccount
}

func (m *memAccounts) ResetPassword(ctx context.Context, uid, passwordHash string) error {
	for _, a := range m.byEmail {
		if a.UID == uid {
			a.PasswordHash = passwordHash
			a.Disabled = false
			m.resets++
			return nil
		}
	}
	return identityerrors.ErrUnknownAccount
}

func (m *memAccounts) TouchSignIn(ctx context.Context, uid string, at time.Time) error { return nil }

type memUsers struct {
	profiles  map[string]*model.UserProfile
	upsertErr error
}

func (m *memUsers) FindByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	p, ok := m.profiles[uid]
	if !ok {
		return nil, identityerrors.ErrProfileNotFound
	}
	return p, nil
}

func (m *memUsers) Upsert(ctx context.Context, profile *model.UserProfile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.profiles[profile.UID] = profile
	return nil
}

func newBootstrapper(accounts *memAccounts, users *memUsers) *Bootstrapper {
	b := NewBootstrapper(accounts, users, logger.Discard())
	// minimum cost keeps the tests fast
	b.hash = func(password string) (string, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		return string(h), err
	}
	return b
}

func TestCreateAdmin_NewAccount(t *testing.T) {
	accounts := newMemAccounts()
	users := &memUsers{profiles: map[string]*model.UserProfile{}}

	account, created, err := newBootstrapper(accounts, users).CreateAdmin(context.Background(), "  Admin@Example.com ", "s3cret-pass")
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "admin@example.com", account.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("s3cret-pass")))

	profile := users.profiles[account.UID]
	require.NotNil(t, profile)
	assert.Equal(t, model.RoleAdmin, profile.Role)
	assert.True(t, profile.IsAdmin())
}

func TestCreateAdmin_ReusesExistingAccount(t *testing.T) {
	existing := &model.Account{UID: "u1", Email: "ops@example.com", PasswordHash: "old-hash"}
	accounts := newMemAccounts(existing)
	users := &memUsers{profiles: map[string]*model.UserProfile{"u1": {UID: "u1", Role: "viewer"}}}

	account, created, err := newBootstrapper(accounts, users).CreateAdmin(context.Background(), "ops@example.com", "new-password")
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, "u1", account.UID)
	assert.Equal(t, "old-hash", accounts.byEmail["ops@example.com"].PasswordHash)
	assert.Equal(t, model.RoleAdmin, users.profiles["u1"].Role)
}

func TestCreateAdmin_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"malformed email", "not-an-email", "long-enough", identityerrors.ErrMalformedEmail},
		{"display name form", "Ops <ops@example.com>", "long-enough", identityerrors.ErrMalformedEmail},
		{"short password", "ops@example.com", "short", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := newMemAccounts()
			_, _, err := newBootstrapper(accounts, &memUsers{profiles: map[string]*model.UserProfile{}}).
				CreateAdmin(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, accounts.byEmail)
		})
	}
}

func TestCreateAdmin_ProfileWriteFails(t *testing.T) {
	users := &memUsers{profiles: map[string]*model.UserProfile{}, upsertErr: errors.New("write failed")}

	_, _, err := newBootstrapper(newMemAccounts(), users).CreateAdmin(context.Background(), "ops@example.com", "long-enough")
	assert.Error(t, err)
}

func TestResetPassword(t *testing.T) {
	existing := &model.Account{UID: "u1", Email: "ops@example.com", PasswordHash: "old-hash", Disabled: true}
	accounts := newMemAccounts(existing)
	users := &memUsers{profiles: map[string]*model.UserProfile{}}

	account, err := newBootstrapper(accounts, users).ResetPassword(context.Background(), "OPS@example.com", "brand-new-pass")
	require.NoError(t, err)

	assert.False(t, account.Disabled)
	assert.Equal(t, 1, accounts.resets)
	stored := accounts.byEmail["ops@example.com"]
	assert.False(t, stored.Disabled)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new-pass")))
	assert.Equal(t, model.RoleAdmin, users.profiles["u1"].Role)
}

func TestResetPassword_UnknownAccount(t *testing.T) {
	_, err := newBootstrapper(newMemAccounts(), &memUsers{profiles: map[string]*model.UserProfile{}}).
		ResetPassword(context.Background(), "ghost@example.com", "long-enough")
	assert.ErrorIs(t, err, identityerrors.ErrUnknownAccount)
}
