package masterdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// Salesman is a console user that can place orders.
type Salesman struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s Salesman) Key() uuid.UUID     { return s.ID }
func (s Salesman) Created() time.Time { return s.CreatedAt }

// SalesmanInput is the salesman form. An empty password on edit keeps the
// stored one.
type SalesmanInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

// Build implements Input.
func (in SalesmanInput) Build(id uuid.UUID, createdAt time.Time, existing *Salesman) (Salesman, error) {
	out := Salesman{
		ID:        id,
		Name:      trimmed(in.Name),
		Username:  strings.ToLower(trimmed(in.Username)),
		Phone:     trimmed(in.Phone),
		CreatedAt: createdAt,
	}
	switch {
	case in.Password != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return Salesman{}, fmt.Errorf("hash password: %w", err)
		}
		out.PasswordHash = string(hash)
	case existing != nil:
		out.PasswordHash = existing.PasswordHash
	default:
		return Salesman{}, validation("password", "password is required")
	}
	return out, nil
}

// Salesmen describes the salesmen table.
var Salesmen = Kind[Salesman]{
	Name:    "salesman",
	Table:   "salesmen",
	Select:  "id, name, username, phone, password_hash, created_at",
	Columns: []string{"name", "username", "phone", "password_hash"},
	Search:  []string{"name", "username", "phone"},
	Order:   "created_at DESC",
	Scan: func(row pgx.Row) (Salesman, error) {
		var s Salesman
		err := row.Scan(&s.ID, &s.Name, &s.Username, &s.Phone, &s.PasswordHash, &s.CreatedAt)
		return s, err
	},
	Values: func(s Salesman) []any {
		return []any{s.Name, s.Username, s.Phone, s.PasswordHash}
	},
}
