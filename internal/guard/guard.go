// Package guard admits a request only when its session belongs to an account
// whose users/{uid} profile carries the admin role. Every fault on the way
// resolves to "not authorized".
package guard

import (
	"context"
	"errors"
	"net/http"

	identityerrors "dispatch/internal/identity/errors"
	apperrors "dispatch/pkg/errors"
	httputil "dispatch/pkg/http"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"
)

const LoginPath = "/login"

var (
	ErrNoSession    = errors.New("no session")
	ErrAccessDenied = errors.New("access denied")
	ErrCheckFailed  = errors.New("authorization check failed")
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
	SignOut(ctx context.Context, sess *model.Session) error
}

type ProfileReader interface {
	FindByUID(ctx context.Context, uid string) (*model.UserProfile, error)
}

// Principal is the authorized caller, passed explicitly through the request
// context.
type Principal struct {
	Session *model.Session
	Profile *model.UserProfile
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// SessionCaller names the caller by its session id. Requests without a
// principal yield "".
func SessionCaller(r *http.Request) string {
	p, ok := PrincipalFrom(r.Context())
	if !ok || p.Session == nil {
		return ""
	}
	return p.Session.ID
}

type Guard struct {
	auth     Authenticator
	profiles ProfileReader
	log      *logger.Logger
}

func New(auth Authenticator, profiles ProfileReader, log *logger.Logger) *Guard {
	return &Guard{auth: auth, profiles: profiles, log: log}
}

// Check resolves token to an admin principal. A missing profile or a
// non-admin role also signs the session out.
func (g *Guard) Check(ctx context.Context, token string) (*Principal, error) {
	sess, err := g.auth.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, identityerrors.ErrInvalidSession) {
			return nil, ErrNoSession
		}
		g.log.Error("Session check failed", "error", err)
		return nil, errors.Join(ErrCheckFailed, err)
	}

	profile, err := g.profiles.FindByUID(ctx, sess.UID)
	switch {
	case errors.Is(err, identityerrors.ErrProfileNotFound):
		g.forceSignOut(ctx, sess, "profile not found")
		return nil, ErrAccessDenied
	case err != nil:
		g.log.Error("Profile check failed", "uid", sess.UID, "error", err)
		return nil, errors.Join(ErrCheckFailed, err)
	case !profile.IsAdmin():
		g.forceSignOut(ctx, sess, "role is not admin")
		return nil, ErrAccessDenied
	}

	return &Principal{Session: sess, Profile: profile}, nil
}

func (g *Guard) forceSignOut(ctx context.Context, sess *model.Session, reason string) {
	g.log.Warn("Access denied, signing out", "uid", sess.UID, "session_id", sess.ID, "reason", reason)
	if err := g.auth.SignOut(ctx, sess); err != nil {
		g.log.Error("Forced sign-out failed", "session_id", sess.ID, "error", err)
	}
}

// Middleware runs Check before every request. The protected handler never
// runs until the check has resolved to an admin.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Check(r.Context(), httputil.BearerToken(r))
		if err != nil {
			g.redirect(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (g *Guard) redirect(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.Is(err, ErrAccessDenied) {
		appErr = apperrors.Forbidden("Access denied")
	} else {
		appErr = apperrors.Unauthorized("Sign in required")
	}
	appErr.WithDetails(map[string]any{"redirect": LoginPath})

	w.Header().Set("Location", LoginPath)
	if writeErr := httputil.WriteError(w, appErr); writeErr != nil {
		g.log.Error("failed to write error response", "handler", "Guard", "operation", "WriteError", "error", writeErr)
	}
}
