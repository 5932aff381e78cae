package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event names published on the order topic.
const (
	EventCreated       = "order.created"
	EventUpdated       = "order.updated"
	EventStatusChanged = "order.status_changed"
	EventDeleted       = "order.deleted"
)

// Event is the payload of an order domain event.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"event"`
	OrderID    uuid.UUID `json:"orderId"`
	Order      *Order    `json:"order,omitempty"`
	From       Status    `json:"from,omitempty"`
	To         Status    `json:"to,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broker is the subset of a message producer the publisher needs.
type Broker interface {
	Publish(ctx context.Context, key string, value any, headers map[string]string) error
}

// BrokerPublisher publishes events keyed by order id, so events of one order
// stay ordered.
type BrokerPublisher struct {
	broker Broker
}

// NewBrokerPublisher wraps broker.
func NewBrokerPublisher(broker Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: broker}
}

// Publish implements Publisher.
func (p *BrokerPublisher) Publish(ctx context.Context, ev Event) error {
	return p.broker.Publish(ctx, ev.OrderID.String(), ev, map[string]string{"event": ev.Name})
}

// NopPublisher drops events. It is used when no brokers are configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
