package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Account is a console user that can sign in: the administrator or a
// salesman.
type Account struct {
	ID           uuid.UUID
	Name         string
	Username     string
	PasswordHash string
	Role         shared.Role
	CreatedAt    time.Time
}

// Principal returns the request identity of the account.
func (a Account) Principal() shared.Principal {
	return shared.Principal{ID: a.ID, Name: a.Name, Username: a.Username, Role: a.Role}
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
}

// Session is returned by a successful login.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      shared.Principal `json:"user"`
}
