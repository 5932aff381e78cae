package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(name string, price int64, stock int) ItemRef {
	return ItemRef{ID: uuid.New(), Name: name, Price: decimal.NewFromInt(price), Quantity: stock}
}

func TestDraftAddDuplicateIsNoop(t *testing.T) {
	d := NewDraft(TypeSell)
	widget := item("Widget", 10, 5)
	require.NoError(t, d.Add(widget))

	before := d.Lines()
	err := d.Add(widget)
	assert.ErrorIs(t, err, ErrItemAlreadyAdded)
	assert.Equal(t, before, d.Lines())
}

func TestDraftAddDefaultsQuantityAndSnapshots(t *testing.T) {
	d := NewDraft(TypeSell)
	widget := item("Widget", 10, 5)
	require.NoError(t, d.Add(widget))

	lines := d.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, DraftLine{ItemID: widget.ID, Name: "Widget", Price: widget.Price, Available: 5, Quantity: 1}, lines[0])
}

func TestDraftRemove(t *testing.T) {
	d := NewDraft(TypePurchase)
	a, b := item("A", 1, 1), item("B", 2, 2)
	require.NoError(t, d.Add(a))
	require.NoError(t, d.Add(b))

	assert.False(t, d.Remove(uuid.New()))
	assert.Len(t, d.Lines(), 2)

	assert.True(t, d.Remove(a.ID))
	lines := d.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, b.ID, lines[0].ItemID)
}

func TestDraftSetQuantityCoercesInput(t *testing.T) {
	d := NewDraft(TypeSell)
	widget := item("Widget", 10, 5)
	require.NoError(t, d.Add(widget))

	for raw, want := range map[string]int{"3": 3, " 7 ": 7, "": 0, "abc": 0, "-2": -2} {
		require.True(t, d.SetQuantity(widget.ID, raw))
		assert.Equal(t, want, d.Lines()[0].Quantity, "input %q", raw)
	}
	assert.False(t, d.SetQuantity(uuid.New(), "4"))
}

func TestDraftMaxQuantityOnlyForSellOrders(t *testing.T) {
	widget := item("Widget", 10, 5)

	sell := NewDraft(TypeSell)
	require.NoError(t, sell.Add(widget))
	limit, ok := sell.MaxQuantity(widget.ID)
	assert.True(t, ok)
	assert.Equal(t, 5, limit)

	purchase := NewDraft(TypePurchase)
	require.NoError(t, purchase.Add(widget))
	_, ok = purchase.MaxQuantity(widget.ID)
	assert.False(t, ok)
}

func TestDraftSubmissionRejectsEmptyAndShortQuantities(t *testing.T) {
	d := NewDraft(TypeSell)
	d.Customer = uuid.New()

	_, err := d.Submission()
	require.Error(t, err)
	assert.Equal(t, MsgNoItems, err.Error())

	widget := item("Widget", 10, 5)
	require.NoError(t, d.Add(widget))
	d.SetQuantity(widget.ID, "0")
	_, err = d.Submission()
	require.Error(t, err)
	assert.Equal(t, MsgMinQuantity, err.Error())
}

func TestDraftSubmissionSellWidget(t *testing.T) {
	customer, cargo := uuid.New(), uuid.New()
	d := NewDraft(TypeSell)
	d.Customer = customer
	d.Cargo = &cargo
	widget := item("Widget", 10, 5)
	require.NoError(t, d.Add(widget))
	require.True(t, d.SetQuantity(widget.ID, "2"))

	sub, err := d.Submission()
	require.NoError(t, err)
	assert.Equal(t, Submission{
		Type:     TypeSell,
		Customer: customer,
		Cargo:    &cargo,
		Items:    []SubmissionLine{{Item: widget.ID, Quantity: 2}},
	}, sub)
	assert.True(t, d.Total().Equal(decimal.NewFromInt(20)))
}

func TestDraftFromOrderUsesCurrentCatalog(t *testing.T) {
	widgetID, gadgetID := uuid.New(), uuid.New()
	cargo := Ref{ID: uuid.New(), Name: "BlueDart"}
	o := Order{
		ID:       uuid.New(),
		Type:     TypeSell,
		Status:   StatusPending,
		Customer: Ref{ID: uuid.New(), Name: "Acme"},
		Cargo:    &cargo,
		Items: []Line{
			{Item: ItemRef{ID: widgetID, Name: "Widget", Price: decimal.NewFromInt(10), Quantity: 5}, Quantity: 2},
			{Item: ItemRef{ID: gadgetID, Name: "Gadget", Price: decimal.NewFromInt(4), Quantity: 1}, Quantity: 1},
		},
		CreatedAt: time.Now(),
	}
	catalog := []ItemRef{
		{ID: widgetID, Name: "Widget v2", Price: decimal.NewFromInt(12), Quantity: 8},
	}

	d := DraftFromOrder(o, catalog)
	editing, ok := d.Editing()
	require.True(t, ok)
	assert.Equal(t, o.ID, editing)
	assert.Equal(t, o.Customer.ID, d.Customer)
	require.NotNil(t, d.Cargo)
	assert.Equal(t, cargo.ID, *d.Cargo)

	lines := d.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, DraftLine{ItemID: widgetID, Name: "Widget v2", Price: decimal.NewFromInt(12), Available: 8, Quantity: 2}, lines[0])
	assert.Equal(t, "Gadget", lines[1].Name)
	assert.True(t, d.Total().Equal(decimal.NewFromInt(28)))

	_, ok = NewDraft(TypeSell).Editing()
	assert.False(t, ok)
}
