package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tradedesk/tradedesk/internal/masterdata"
	"github.com/tradedesk/tradedesk/internal/orders"
)

// Related holds the master data the order form picks from.
type Related struct {
	Customers []masterdata.Customer
	Items     []masterdata.Item
	Cargo     []masterdata.Cargo
	Salesmen  []masterdata.Salesman
}

// CustomerChoices lists the customers an order may be placed for. Blocked
// customers are left out.
func (r Related) CustomerChoices() []masterdata.Customer {
	out := make([]masterdata.Customer, 0, len(r.Customers))
	for _, c := range r.Customers {
		if !c.IsBlocked {
			out = append(out, c)
		}
	}
	return out
}

// Catalog returns the items as order line references with current price and
// stock.
func (r Related) Catalog() []orders.ItemRef {
	out := make([]orders.ItemRef, len(r.Items))
	for i, it := range r.Items {
		out[i] = orders.ItemRef{ID: it.ID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	return out
}

type relatedAPI interface {
	Customers(ctx context.Context) ([]masterdata.Customer, error)
	Items(ctx context.Context) ([]masterdata.Item, error)
	Cargo(ctx context.Context) ([]masterdata.Cargo, error)
	Salesmen(ctx context.Context) ([]masterdata.Salesman, error)
}

// fetchRelated loads all pickers in parallel. Salesmen are only listed for
// admins.
func fetchRelated(ctx context.Context, api relatedAPI, withSalesmen bool) (Related, error) {
	var r Related
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.Customers, err = api.Customers(ctx)
		return err
	})
	g.Go(func() (err error) {
		r.Items, err = api.Items(ctx)
		return err
	})
	g.Go(func() (err error) {
		r.Cargo, err = api.Cargo(ctx)
		return err
	})
	if withSalesmen {
		g.Go(func() (err error) {
			r.Salesmen, err = api.Salesmen(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Related{}, err
	}
	return r, nil
}
