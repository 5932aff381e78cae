package masterdata

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Item is a stocked product with a unit price.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (i Item) Key() uuid.UUID     { return i.ID }
func (i Item) Created() time.Time { return i.CreatedAt }

// ItemInput is the item form.
type ItemInput struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=0"`
}

// Build implements Input.
func (in ItemInput) Build(id uuid.UUID, createdAt time.Time, _ *Item) (Item, error) {
	if in.Price.IsNegative() {
		return Item{}, validation("price", "price must be greater than or equal to 0")
	}
	return Item{
		ID:        id,
		Name:      trimmed(in.Name),
		Price:     in.Price.Round(2),
		Quantity:  in.Quantity,
		CreatedAt: createdAt,
	}, nil
}

// Items describes the items table.
var Items = Kind[Item]{
	Name:    "item",
	Table:   "items",
	Select:  "id, name, price::text, quantity, created_at",
	Columns: []string{"name", "price", "quantity"},
	Search:  []string{"name"},
	Order:   "name ASC",
	Scan: func(row pgx.Row) (Item, error) {
		var (
			it    Item
			price string
		)
		if err := row.Scan(&it.ID, &it.Name, &price, &it.Quantity, &it.CreatedAt); err != nil {
			return it, err
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return it, fmt.Errorf("parse price %q: %w", price, err)
		}
		it.Price = p
		return it, nil
	},
	Values: func(it Item) []any {
		return []any{it.Name, it.Price.StringFixed(2), it.Quantity}
	},
}
