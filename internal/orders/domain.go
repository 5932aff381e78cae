// Package orders implements the order lifecycle: the status machine, draft
// composition and validation, persistence and the HTTP surface.
package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is a lifecycle state. States only move forward.
type Status string

const (
	StatusPending   Status = "pending"
	StatusToRoll    Status = "to roll"
	StatusRolled    Status = "rolled"
	StatusBilled    Status = "billed"
	StatusDelivered Status = "delivered"
)

// Statuses lists every state in lifecycle order.
var Statuses = []Status{StatusPending, StatusToRoll, StatusRolled, StatusBilled, StatusDelivered}

// nextStatus is the transition table. A state without an entry is terminal.
var nextStatus = map[Status]Status{
	StatusPending: StatusToRoll,
	StatusToRoll:  StatusRolled,
	StatusRolled:  StatusBilled,
	StatusBilled:  StatusDelivered,
}

// Next returns the successor of s. ok is false for the terminal state and for
// unknown values.
func (s Status) Next() (Status, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

// Valid reports whether s is a known state.
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition is offered from s.
func (s Status) Terminal() bool {
	_, ok := nextStatus[s]
	return s.Valid() && !ok
}

// Type distinguishes sell orders from purchase orders.
type Type string

const (
	TypeSell     Type = "sell order"
	TypePurchase Type = "purchase order"
)

// Valid reports whether t is a known order type.
func (t Type) Valid() bool {
	return t == TypeSell || t == TypePurchase
}

// CreatorType tells who placed an order.
type CreatorType string

const (
	CreatorAdmin    CreatorType = "admin"
	CreatorSalesman CreatorType = "salesman"
)

// Ref is a resolved reference to another record.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ItemRef is an item as seen from an order: its current name, unit price and
// available stock.
type ItemRef struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Line is one ordered item.
type Line struct {
	Item     ItemRef `json:"item"`
	Quantity int     `json:"quantity"`
}

// Order is a persisted order with its references resolved.
type Order struct {
	ID            uuid.UUID   `json:"id"`
	Type          Type        `json:"type"`
	Status        Status      `json:"status"`
	Customer      Ref         `json:"customerName"`
	Cargo         *Ref        `json:"cargo,omitempty"`
	Items         []Line      `json:"items"`
	CreatedBy     *Ref        `json:"createdBy,omitempty"`
	CreatedByType CreatorType `json:"createdByType"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Total is the sum of unit price times quantity over the order's lines.
func (o Order) Total() decimal.Decimal {
	return Total(o.Items)
}

// CreatorLabel is the display name of whoever placed the order.
func (o Order) CreatorLabel() string {
	if o.CreatedByType == CreatorAdmin {
		return "Admin"
	}
	if o.CreatedBy != nil {
		return o.CreatedBy.Name
	}
	return ""
}

// Total sums price times quantity. It is computed on every call.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// SubmissionLine references an item by id.
type SubmissionLine struct {
	Item     uuid.UUID `json:"item"`
	Quantity int       `json:"quantity"`
}

// Submission is the create/update payload.
type Submission struct {
	Type     Type             `json:"type"`
	Customer uuid.UUID        `json:"customerName"`
	Cargo    *uuid.UUID       `json:"cargo,omitempty"`
	Items    []SubmissionLine `json:"items"`
}

// TransitionRequest is the body of a status change.
type TransitionRequest struct {
	Status Status `json:"status"`
}

// StatusCounts is the per-state breakdown on the dashboard.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	ToRoll    int `json:"toRoll"`
	Rolled    int `json:"rolled"`
	Billed    int `json:"billed"`
	Delivered int `json:"delivered"`
}

// TrendPoint is one month of the dashboard trend series.
type TrendPoint struct {
	Month     string `json:"month"`
	Orders    int    `json:"orders"`
	Delivered int    `json:"delivered"`
}

// Stats feeds the dashboard.
type Stats struct {
	Orders    StatusCounts `json:"orders"`
	Customers int          `json:"customers"`
	Salesmen  int          `json:"salesmen"`
	Trends    []TrendPoint `json:"trends"`
}

// MonthCount is a raw per-month aggregate as read from storage.
type MonthCount struct {
	Month     time.Time
	Orders    int
	Delivered int
}

// StatsSnapshot is the raw material Stats is assembled from.
type StatsSnapshot struct {
	ByStatus  map[Status]int
	Customers int
	Salesmen  int
	Months    []MonthCount
}

// TrendMonths is the length of the dashboard trend series.
const TrendMonths = 6
