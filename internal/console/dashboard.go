package console

import (
	"context"
	"sync"

	"github.com/tradedesk/tradedesk/internal/orders"
)

// StatsAPI fetches the dashboard statistics.
type StatsAPI interface {
	OrderStats(ctx context.Context) (orders.Stats, error)
}

// Card is one headline figure on the dashboard.
type Card struct {
	Label string
	Value int
}

// Dashboard holds the loaded statistics.
type Dashboard struct {
	api StatsAPI

	mu     sync.Mutex
	stats  orders.Stats
	loaded bool
	inbox  notices
}

// NewDashboard constructs a dashboard.
func NewDashboard(api StatsAPI) *Dashboard {
	return &Dashboard{api: api}
}

// Load fetches the statistics.
func (d *Dashboard) Load(ctx context.Context) error {
	stats, err := d.api.OrderStats(ctx)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.inbox.push(failure(err))
		return err
	}
	d.stats = stats
	d.loaded = true
	return nil
}

// Stats returns the last loaded statistics and whether any were loaded.
func (d *Dashboard) Stats() (orders.Stats, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats, d.loaded
}

// Cards lists the headline counts in display order.
func (d *Dashboard) Cards() []Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	return []Card{
		{Label: "Total Orders", Value: s.Orders.Total},
		{Label: "Pending", Value: s.Orders.Pending},
		{Label: "To Roll", Value: s.Orders.ToRoll},
		{Label: "Rolled", Value: s.Orders.Rolled},
		{Label: "Billed", Value: s.Orders.Billed},
		{Label: "Delivered", Value: s.Orders.Delivered},
		{Label: "Customers", Value: s.Customers},
		{Label: "Salesmen", Value: s.Salesmen},
	}
}

// Notices drains pending notices.
func (d *Dashboard) Notices() []Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inbox.drain()
}
