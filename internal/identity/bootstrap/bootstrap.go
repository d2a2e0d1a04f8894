// Package bootstrap provisions administrator accounts outside the API.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	identityerrors "dispatch/internal/identity/errors"
	"dispatch/internal/identity/repository"
	"dispatch/internal/identity/service"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"
	"dispatch/pkg/sanitizer"
)

const MinPasswordLength = 8

var ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

type Bootstrapper struct {
	accounts repository.AccountRepository
	users    repository.UserRepository
	log      *logger.Logger
	hash     func(password string) (string, error)
}

func NewBootstrapper(accounts repository.AccountRepository, users repository.UserRepository, log *logger.Logger) *Bootstrapper {
	return &Bootstrapper{
		accounts: accounts,
		users:    users,
		log:      log,
		hash:     service.HashPassword,
	}
}

// CreateAdmin creates the account for email, or reuses an existing one with
// its password untouched, and grants it the admin role.
func (b *Bootstrapper) CreateAdmin(ctx context.Context, email, password string) (*model.Account, bool, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return nil, false, err
	}

	account, err := b.accounts.FindByEmail(ctx, email)
	created := false
	switch {
	case err == nil:
		b.log.Info("Account already exists, reusing it", "uid", account.UID, "email", email)
	case errors.Is(err, identityerrors.ErrUnknownAccount):
		hash, err := b.hash(password)
		if err != nil {
			return nil, false, fmt.Errorf("failed to hash password: %w", err)
		}
		account = &model.Account{Email: email, PasswordHash: hash}
		if err := b.accounts.Create(ctx, account); err != nil {
			return nil, false, err
		}
		created = true
		b.log.Info("Account created", "uid", account.UID, "email", email)
	default:
		return nil, false, err
	}

	if err := b.grantAdmin(ctx, account); err != nil {
		return nil, false, err
	}
	return account, created, nil
}

// ResetPassword replaces the password of email, re-enables the account and
// re-asserts the admin role.
func (b *Bootstrapper) ResetPassword(ctx context.Context, email, password string) (*model.Account, error) {
	email, err := checkCredentials(email, password)
	if err != nil {
		return nil, err
	}

	account, err := b.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	hash, err := b.hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := b.accounts.ResetPassword(ctx, account.UID, hash); err != nil {
		return nil, err
	}
	account.PasswordHash = hash
	account.Disabled = false
	b.log.Info("Password reset", "uid", account.UID, "email", email)

	if err := b.grantAdmin(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (b *Bootstrapper) grantAdmin(ctx context.Context, account *model.Account) error {
	profile := &model.UserProfile{
		UID:   account.UID,
		Role:  model.RoleAdmin,
		Email: account.Email,
	}
	if err := b.users.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	b.log.Info("Admin role granted", "uid", account.UID)
	return nil
}

func checkCredentials(email, password string) (string, error) {
	email = sanitizer.NormalizeEmail(email)
	if !service.ValidEmail(email) {
		return "", identityerrors.ErrMalformedEmail
	}
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	return email, nil
}
