package masterdata

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Customer is a party orders are placed for. Blocked customers stay listed
// but are not offered when composing an order.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	GSTIN     string    `json:"gstin,omitempty"`
	IsBlocked bool      `json:"isBlocked"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Customer) Key() uuid.UUID     { return c.ID }
func (c Customer) Created() time.Time { return c.CreatedAt }

// CustomerInput is the customer form.
type CustomerInput struct {
	Name      string `json:"name" validate:"required,max=200"`
	Phone     string `json:"phone" validate:"required,max=20"`
	GSTIN     string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	IsBlocked bool   `json:"isBlocked"`
}

// Build implements Input.
func (in CustomerInput) Build(id uuid.UUID, createdAt time.Time, _ *Customer) (Customer, error) {
	return Customer{
		ID:        id,
		Name:      trimmed(in.Name),
		Phone:     trimmed(in.Phone),
		GSTIN:     trimmed(in.GSTIN),
		IsBlocked: in.IsBlocked,
		CreatedAt: createdAt,
	}, nil
}

// Customers describes the customers table.
var Customers = Kind[Customer]{
	Name:    "customer",
	Table:   "customers",
	Select:  "id, name, phone, COALESCE(gstin, ''), is_blocked, created_at",
	Columns: []string{"name", "phone", "gstin", "is_blocked"},
	Search:  []string{"name", "phone", "gstin"},
	Filters: []Filter{BoolFilter("isBlocked", "is_blocked")},
	Order:   "created_at DESC",
	Scan: func(row pgx.Row) (Customer, error) {
		var c Customer
		err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.GSTIN, &c.IsBlocked, &c.CreatedAt)
		return c, err
	},
	Values: func(c Customer) []any {
		return []any{c.Name, c.Phone, nullable(c.GSTIN), c.IsBlocked}
	},
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
