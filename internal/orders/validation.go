package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// User-facing validation reasons.
const (
	MsgNoItems      = "Please select at least one item"
	MsgMinQuantity  = "All items must have a quantity of at least 1"
	MsgDuplicate    = "Each item may appear only once"
	MsgType         = "Order type must be sell order or purchase order"
	MsgCustomer     = "Please select a customer"
	MsgStatus       = "Unknown order status"
	MsgNoTransition = "No further status transition is available"
)

var (
	// ErrItemAlreadyAdded is returned when a draft already holds the item.
	ErrItemAlreadyAdded = errors.New("item already added")
	// ErrCustomerBlocked rejects orders for a blocked customer.
	ErrCustomerBlocked = fmt.Errorf("%w: customer is blocked", shared.ErrValidation)
)

// Validate checks a submission. Reasons are ordered and the first one is the
// error message.
func (s Submission) Validate() error {
	verr := shared.NewValidationError()
	if len(s.Items) == 0 {
		verr.Add("items", MsgNoItems)
	}
	seen := make(map[uuid.UUID]struct{}, len(s.Items))
	short, dup := false, false
	for _, line := range s.Items {
		if line.Quantity < 1 {
			short = true
		}
		if _, ok := seen[line.Item]; ok {
			dup = true
		}
		seen[line.Item] = struct{}{}
	}
	if short {
		verr.Add("items", MsgMinQuantity)
	}
	if dup {
		verr.Add("items", MsgDuplicate)
	}
	if !s.Type.Valid() {
		verr.Add("type", MsgType)
	}
	if s.Customer == uuid.Nil {
		verr.Add("customerName", MsgCustomer)
	}
	return verr.OrNil()
}

// CheckTransition verifies that requested is the successor of current.
func CheckTransition(current, requested Status) error {
	if !requested.Valid() {
		return shared.NewValidationError(shared.FieldError{Field: "status", Reason: MsgStatus})
	}
	next, ok := current.Next()
	if !ok {
		return fmt.Errorf("%w: order is already %s", shared.ErrConflict, current)
	}
	if requested != next {
		return fmt.Errorf("%w: order is %s, next status is %s", shared.ErrConflict, current, next)
	}
	return nil
}

// BuildStats assembles dashboard statistics. The trend series always has
// TrendMonths entries ending with the month of now; missing months are zero.
func BuildStats(snap StatsSnapshot, now time.Time) Stats {
	counts := StatusCounts{
		Pending:   snap.ByStatus[StatusPending],
		ToRoll:    snap.ByStatus[StatusToRoll],
		Rolled:    snap.ByStatus[StatusRolled],
		Billed:    snap.ByStatus[StatusBilled],
		Delivered: snap.ByStatus[StatusDelivered],
	}
	for _, n := range snap.ByStatus {
		counts.Total += n
	}

	byMonth := make(map[string]MonthCount, len(snap.Months))
	for _, m := range snap.Months {
		byMonth[m.Month.Format("2006-01")] = m
	}
	trends := make([]TrendPoint, 0, TrendMonths)
	for _, month := range TrendWindow(now) {
		m := byMonth[month.Format("2006-01")]
		trends = append(trends, TrendPoint{
			Month:     month.Format("Jan 2006"),
			Orders:    m.Orders,
			Delivered: m.Delivered,
		})
	}
	return Stats{Orders: counts, Customers: snap.Customers, Salesmen: snap.Salesmen, Trends: trends}
}

// TrendWindow returns the first day of each trend month, oldest first.
func TrendWindow(now time.Time) []time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]time.Time, TrendMonths)
	for i := range out {
		out[i] = first.AddDate(0, i-(TrendMonths-1), 0)
	}
	return out
}
