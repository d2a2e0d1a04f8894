package model

import "time"

// Session is an authenticated identity. ID doubles as the token's jti.
type Session struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SignInResponse struct {
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}
