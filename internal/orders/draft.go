package orders

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DraftLine is a line being composed. Name, Price and Available are
// snapshots taken when the item was added.
type DraftLine struct {
	ItemID    uuid.UUID
	Name      string
	Price     decimal.Decimal
	Available int
	Quantity  int
}

// Draft is an order under composition. Lines form a set keyed by item id and
// keep insertion order.
type Draft struct {
	Type     Type
	Customer uuid.UUID
	Cargo    *uuid.UUID

	editing *uuid.UUID
	lines   []DraftLine
}

// NewDraft starts an empty draft of the given type.
func NewDraft(t Type) *Draft {
	return &Draft{Type: t}
}

// DraftFromOrder rehydrates a draft for editing o. Each line takes its name,
// price and stock from catalog, the current item list; items missing from
// catalog keep the values stored on the order.
func DraftFromOrder(o Order, catalog []ItemRef) *Draft {
	current := make(map[uuid.UUID]ItemRef, len(catalog))
	for _, it := range catalog {
		current[it.ID] = it
	}
	id := o.ID
	d := &Draft{Type: o.Type, Customer: o.Customer.ID, editing: &id}
	if o.Cargo != nil {
		cargo := o.Cargo.ID
		d.Cargo = &cargo
	}
	for _, line := range o.Items {
		item, ok := current[line.Item.ID]
		if !ok {
			item = line.Item
		}
		d.lines = append(d.lines, DraftLine{
			ItemID:    item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Available: item.Quantity,
			Quantity:  line.Quantity,
		})
	}
	return d
}

// Editing returns the id of the order being edited, if any.
func (d *Draft) Editing() (uuid.UUID, bool) {
	if d.editing == nil {
		return uuid.Nil, false
	}
	return *d.editing, true
}

// Add appends item with quantity 1. Adding an item already present returns
// ErrItemAlreadyAdded and leaves the draft unchanged.
func (d *Draft) Add(item ItemRef) error {
	if d.index(item.ID) >= 0 {
		return ErrItemAlreadyAdded
	}
	d.lines = append(d.lines, DraftLine{
		ItemID:    item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Available: item.Quantity,
		Quantity:  1,
	})
	return nil
}

// Remove drops the line for id and reports whether one was present.
func (d *Draft) Remove(id uuid.UUID) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	return true
}

// SetQuantity replaces the quantity of the line for id. Input that is not an
// integer becomes 0.
func (d *Draft) SetQuantity(id uuid.UUID, raw string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	d.lines[i].Quantity = ParseQuantity(raw)
	return true
}

// ParseQuantity reads a quantity field. Empty or non-numeric input is 0.
func ParseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// MaxQuantity is the input upper bound for the line: the stock snapshot on
// sell orders. ok is false when no bound applies.
func (d *Draft) MaxQuantity(id uuid.UUID) (int, bool) {
	if d.Type != TypeSell {
		return 0, false
	}
	i := d.index(id)
	if i < 0 {
		return 0, false
	}
	return d.lines[i].Available, true
}

// Lines returns a copy of the draft lines.
func (d *Draft) Lines() []DraftLine {
	out := make([]DraftLine, len(d.lines))
	copy(out, d.lines)
	return out
}

// Total is the derived display total of the draft.
func (d *Draft) Total() decimal.Decimal {
	lines := make([]Line, 0, len(d.lines))
	for _, l := range d.lines {
		lines = append(lines, Line{Item: ItemRef{ID: l.ItemID, Price: l.Price}, Quantity: l.Quantity})
	}
	return Total(lines)
}

// Validate runs the submission checks against the draft.
func (d *Draft) Validate() error {
	return d.payload().Validate()
}

// Submission validates the draft and returns the payload to send. Snapshots
// are not part of the payload.
func (d *Draft) Submission() (Submission, error) {
	sub := d.payload()
	if err := sub.Validate(); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (d *Draft) payload() Submission {
	sub := Submission{Type: d.Type, Customer: d.Customer, Items: make([]SubmissionLine, 0, len(d.lines))}
	if d.Cargo != nil {
		cargo := *d.Cargo
		sub.Cargo = &cargo
	}
	for _, l := range d.lines {
		sub.Items = append(sub.Items, SubmissionLine{Item: l.ItemID, Quantity: l.Quantity})
	}
	return sub
}

func (d *Draft) index(id uuid.UUID) int {
	for i, l := range d.lines {
		if l.ItemID == id {
			return i
		}
	}
	return -1
}
