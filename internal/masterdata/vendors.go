package masterdata

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Vendor is a supplier purchase orders are raised against.
type Vendor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	GSTIN     string    `json:"gstin,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (v Vendor) Key() uuid.UUID     { return v.ID }
func (v Vendor) Created() time.Time { return v.CreatedAt }

type VendorInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=20"`
	GSTIN   string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Address string `json:"address" validate:"max=500"`
}

func (in VendorInput) Build(id uuid.UUID, createdAt time.Time, _ *Vendor) (Vendor, error) {
	return Vendor{
		ID:        id,
		Name:      trimmed(in.Name),
		Phone:     trimmed(in.Phone),
		GSTIN:     trimmed(in.GSTIN),
		Address:   trimmed(in.Address),
		CreatedAt: createdAt,
	}, nil
}

var Vendors = Kind[Vendor]{
	Name:    "vendor",
	Table:   "vendors",
	Select:  "id, name, phone, COALESCE(gstin, ''), COALESCE(address, ''), created_at",
	Columns: []string{"name", "phone", "gstin", "address"},
	Search:  []string{"name", "phone", "gstin"},
	Order:   "created_at DESC",
	Scan: func(row pgx.Row) (Vendor, error) {
		var v Vendor
		err := row.Scan(&v.ID, &v.Name, &v.Phone, &v.GSTIN, &v.Address, &v.CreatedAt)
		return v, err
	},
	Values: func(v Vendor) []any {
		return []any{v.Name, v.Phone, nullable(v.GSTIN), nullable(v.Address)}
	},
}
