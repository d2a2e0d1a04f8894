package session

import (
	"errors"
	"fmt"
	"time"

	"dispatch/pkg/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingMethod = jwt.SigningMethodHS256

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens mints and verifies HS256 session tokens. The session id is carried
// as the jti and the account uid as the subject.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokens(secret, issuer string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if issuer == "" {
		return nil, errors.New("jwt issuer is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Mint creates a new session for account and returns it with its signed token.
func (t *Tokens) Mint(now time.Time, account *model.Account) (*model.Session, string, error) {
	sess := &model.Session{
		ID:        uuid.NewString(),
		UID:       account.UID,
		Email:     account.Email,
		IssuedAt:  now.UTC().Truncate(time.Second),
		ExpiresAt: now.UTC().Add(t.ttl).Truncate(time.Second),
	}

	claims := Claims{
		Email: sess.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   sess.UID,
			ID:        sess.ID,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(t.secret)
	if err != nil {
		return nil, "", fmt.Errorf("signing jwt: %w", err)
	}
	return sess, signed, nil
}

// Parse verifies signature, issuer and expiry and returns the session the
// token describes. It does not check revocation.
func (t *Tokens) Parse(token string) (*model.Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(tok *jwt.Token) (any, error) {
			if tok.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", tok.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("token is missing jti or subject")
	}

	sess := &model.Session{
		ID:    claims.ID,
		UID:   claims.Subject,
		Email: claims.Email,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return sess, nil
}
