package masterdata

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Cargo is a shipping carrier an order may be assigned to.
type Cargo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Cargo) Key() uuid.UUID     { return c.ID }
func (c Cargo) Created() time.Time { return c.CreatedAt }

type CargoInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (in CargoInput) Build(id uuid.UUID, createdAt time.Time, _ *Cargo) (Cargo, error) {
	return Cargo{ID: id, Name: trimmed(in.Name), CreatedAt: createdAt}, nil
}

var CargoKind = Kind[Cargo]{
	Name:    "cargo",
	Table:   "cargo",
	Select:  "id, name, created_at",
	Columns: []string{"name"},
	Search:  []string{"name"},
	Order:   "name ASC",
	Scan: func(row pgx.Row) (Cargo, error) {
		var c Cargo
		err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
		return c, err
	},
	Values: func(c Cargo) []any { return []any{c.Name} },
}
