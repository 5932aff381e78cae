package masterdata

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Module bundles the services and handlers of every record type.
type Module struct {
	Customers *Service[Customer, CustomerInput]
	Items     *Service[Item, ItemInput]
	Vendors   *Service[Vendor, VendorInput]
	Cargo     *Service[Cargo, CargoInput]
	Salesmen  *Service[Salesman, SalesmanInput]

	routes []route
}

type route struct {
	handler   interface{ MountRoutes(chi.Router) }
	adminOnly bool
}

// NewModule wires the PostgreSQL repositories. statsChanged runs after
// customer and salesman writes, which feed the dashboard counts.
func NewModule(pool *pgxpool.Pool, logger *slog.Logger, validator *shared.Validator, statsChanged func(context.Context)) *Module {
	m := &Module{
		Customers: NewService[Customer, CustomerInput](NewRepository(pool, Customers), validator, statsChanged),
		Items:     NewService[Item, ItemInput](NewRepository(pool, Items), validator, nil),
		Vendors:   NewService[Vendor, VendorInput](NewRepository(pool, Vendors), validator, nil),
		Cargo:     NewService[Cargo, CargoInput](NewRepository(pool, CargoKind), validator, nil),
		Salesmen:  NewService[Salesman, SalesmanInput](NewRepository(pool, Salesmen), validator, statsChanged),
	}
	m.routes = []route{
		{handler: NewHandler(logger, m.Customers, Customers, "/customers")},
		{handler: NewHandler(logger, m.Items, Items, "/items")},
		{handler: NewHandler(logger, m.Vendors, Vendors, "/vendors")},
		{handler: NewHandler(logger, m.Cargo, CargoKind, "/cargo")},
		{handler: NewHandler(logger, m.Salesmen, Salesmen, "/salesman"), adminOnly: true},
	}
	return m
}

// MountRoutes registers the routes of every record type. Salesman accounts
// are only managed by admins; adminOnly guards those routes when non-nil.
func (m *Module) MountRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	for _, rt := range m.routes {
		if rt.adminOnly && adminOnly != nil {
			r.With(adminOnly).Group(rt.handler.MountRoutes)
			continue
		}
		rt.handler.MountRoutes(r)
	}
}
