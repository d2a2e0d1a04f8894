package model

import "time"

const RoleAdmin = "admin"

// UserProfile is the role record stored under users/{uid}.
type UserProfile struct {
	UID       string    `json:"uid"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *UserProfile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Account is an identity provider credential record.
type Account struct {
	UID          string     `json:"uid"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Disabled     bool       `json:"disabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastSignInAt *time.Time `json:"lastSignInAt,omitempty"`
}

// SignInRequest is checked by the identity provider itself so that each
// fault keeps its own message.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
