package console

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedesk/tradedesk/internal/client"
	"github.com/tradedesk/tradedesk/internal/masterdata"
	"github.com/tradedesk/tradedesk/internal/orders"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// =============================================================================
// Fake API
// =============================================================================

type fakeAPI struct {
	mu sync.Mutex

	customers []masterdata.Customer
	items     []masterdata.Item
	cargo     []masterdata.Cargo
	salesmen  []masterdata.Salesman

	orders  []orders.Order
	listFn  func(ctx context.Context, f orders.Filter) ([]orders.Order, error)
	lists   int
	err     error
	relErr  error
	created []orders.Submission
	updated map[uuid.UUID]orders.Submission
	moves   []orders.Status
	deleted []uuid.UUID
	exports []string

	salesmenCalls int
}

func (f *fakeAPI) Customers(context.Context) ([]masterdata.Customer, error) {
	return f.customers, f.relErr
}

func (f *fakeAPI) Items(context.Context) ([]masterdata.Item, error) { return f.items, nil }

func (f *fakeAPI) Cargo(context.Context) ([]masterdata.Cargo, error) { return f.cargo, nil }

func (f *fakeAPI) Salesmen(context.Context) ([]masterdata.Salesman, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.salesmenCalls++
	return f.salesmen, nil
}

func (f *fakeAPI) ListOrders(ctx context.Context, filter orders.Filter) ([]orders.Order, error) {
	f.mu.Lock()
	f.lists++
	fn := f.listFn
	list := f.orders
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, filter)
	}
	return list, nil
}

func (f *fakeAPI) CreateOrder(_ context.Context, sub orders.Submission) (orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return orders.Order{}, f.err
	}
	f.created = append(f.created, sub)
	return orders.Order{ID: uuid.New(), Type: sub.Type, Status: orders.StatusPending}, nil
}

func (f *fakeAPI) UpdateOrder(_ context.Context, id uuid.UUID, sub orders.Submission) (orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return orders.Order{}, f.err
	}
	if f.updated == nil {
		f.updated = map[uuid.UUID]orders.Submission{}
	}
	f.updated[id] = sub
	return orders.Order{ID: id, Type: sub.Type}, nil
}

func (f *fakeAPI) TransitionOrder(_ context.Context, id uuid.UUID, status orders.Status) (orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return orders.Order{}, f.err
	}
	f.moves = append(f.moves, status)
	return orders.Order{ID: id, Status: status}, nil
}

func (f *fakeAPI) DeleteOrder(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) ExportOrders(_ context.Context, filter orders.Filter, format string) (orders.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return orders.File{}, f.err
	}
	f.exports = append(f.exports, format)
	return orders.File{Name: filter.ExportName(format), ContentType: "application/pdf", Body: []byte("%PDF-1.7")}, nil
}

func (f *fakeAPI) OrderStats(context.Context) (orders.Stats, error) {
	if f.err != nil {
		return orders.Stats{}, f.err
	}
	return orders.Stats{
		Orders:    orders.StatusCounts{Total: 7, Pending: 2, ToRoll: 1, Rolled: 1, Billed: 1, Delivered: 2},
		Customers: 4,
		Salesmen:  2,
		Trends:    []orders.TrendPoint{{Month: "Oct 2026", Orders: 7, Delivered: 2}},
	}, nil
}

var (
	widget = masterdata.Item{ID: uuid.New(), Name: "Widget", Price: decimal.NewFromInt(10), Quantity: 5}
	gadget = masterdata.Item{ID: uuid.New(), Name: "Gadget", Price: decimal.NewFromInt(5), Quantity: 9}
	acme   = masterdata.Customer{ID: uuid.New(), Name: "Acme"}
	banned = masterdata.Customer{ID: uuid.New(), Name: "Banned", IsBlocked: true}

	adminSession    = client.Session{Token: "t", User: shared.Principal{ID: uuid.New(), Role: shared.RoleAdmin}}
	salesmanSession = client.Session{Token: "t", User: shared.Principal{ID: uuid.New(), Role: shared.RoleSalesman}}
)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		customers: []masterdata.Customer{acme, banned},
		items:     []masterdata.Item{widget, gadget},
		cargo:     []masterdata.Cargo{{ID: uuid.New(), Name: "Blue Dart"}},
		salesmen:  []masterdata.Salesman{{ID: uuid.New(), Name: "Ravi"}},
	}
}

func newPage(t *testing.T, api *fakeAPI, session client.Session) *OrdersPage {
	t.Helper()
	p := NewOrdersPage(api, session)
	p.filter = orders.Filter{Year: 2026}
	require.NoError(t, p.LoadRelated(context.Background()))
	return p
}

// =============================================================================
// Related data
// =============================================================================

func TestLoadRelatedFiltersBlockedCustomers(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)

	choices := p.Related().CustomerChoices()
	require.Len(t, choices, 1)
	assert.Equal(t, "Acme", choices[0].Name)
	assert.Len(t, p.Related().Customers, 2)
	assert.Equal(t, 1, api.salesmenCalls)

	newPage(t, api, salesmanSession)
	assert.Equal(t, 1, api.salesmenCalls)
}

func TestLoadRelatedFailureRaisesNotice(t *testing.T) {
	api := newFakeAPI()
	api.relErr = &client.Error{Kind: client.ErrTransport, Err: io.ErrUnexpectedEOF}
	p := NewOrdersPage(api, adminSession)

	assert.Error(t, p.LoadRelated(context.Background()))
	assert.Equal(t, []Notice{{Level: LevelError, Title: TitleError, Message: "An error occurred"}}, p.Notices())
}

// =============================================================================
// List refresh
// =============================================================================

func TestStaleRefreshIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	oldList := []orders.Order{{ID: uuid.New(), Status: orders.StatusPending}}
	newList := []orders.Order{{ID: uuid.New(), Status: orders.StatusBilled}}

	started := make(chan struct{})
	release := make(chan struct{})
	var firstCtxErr error
	api.listFn = func(ctx context.Context, f orders.Filter) ([]orders.Order, error) {
		if f.Search == "slow" {
			close(started)
			<-release
			firstCtxErr = ctx.Err()
			return oldList, nil
		}
		return newList, nil
	}
	p := newPage(t, api, adminSession)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- p.SetFilter(ctx, orders.Filter{Search: "slow"}) }()
	<-started

	require.NoError(t, p.SetFilter(ctx, orders.Filter{Search: "fast"}))
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.ErrorIs(t, firstCtxErr, context.Canceled)
	assert.Equal(t, newList, p.Orders())
	assert.Equal(t, "fast", p.Filter().Search)
}

func TestRefreshFailureKeepsList(t *testing.T) {
	api := newFakeAPI()
	api.orders = []orders.Order{{ID: uuid.New()}}
	p := newPage(t, api, adminSession)
	require.NoError(t, p.Refresh(context.Background()))

	api.listFn = func(context.Context, orders.Filter) ([]orders.Order, error) {
		return nil, &client.Error{Kind: client.ErrRejected, Status: 400, Message: "month must be between 1 and 12"}
	}
	assert.Error(t, p.Refresh(context.Background()))
	assert.Len(t, p.Orders(), 1)
	notices := p.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "month must be between 1 and 12", notices[0].Message)
}

// =============================================================================
// Editor
// =============================================================================

func TestCreateSellOrderScenario(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)
	ctx := context.Background()

	e := p.NewOrder(orders.TypeSell)
	e.Draft.Customer = acme.ID
	require.True(t, e.AddItem(widget.ID))
	require.True(t, e.Draft.SetQuantity(widget.ID, "2"))
	limit, ok := e.Draft.MaxQuantity(widget.ID)
	require.True(t, ok)
	assert.Equal(t, 5, limit)
	assert.Equal(t, "20", e.Draft.Total().String())

	_, err := e.Submit(ctx)
	require.NoError(t, err)
	require.Len(t, api.created, 1)
	assert.Equal(t, []orders.SubmissionLine{{Item: widget.ID, Quantity: 2}}, api.created[0].Items)
	assert.Nil(t, p.Editor())
	assert.Equal(t, 1, api.lists)
	assert.Equal(t, []Notice{{Level: LevelSuccess, Title: TitleSuccess, Message: "Order created"}}, p.Notices())
}

func TestSubmitWithoutItemsSendsNothing(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)

	e := p.NewOrder(orders.TypePurchase)
	e.Draft.Customer = acme.ID
	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, api.created)
	assert.Equal(t, []Notice{{Level: LevelWarning, Title: TitleValidation, Message: orders.MsgNoItems}}, p.Notices())

	require.True(t, e.AddItem(gadget.ID))
	e.Draft.SetQuantity(gadget.ID, "abc")
	_, err = e.Submit(context.Background())
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, api.created)
	assert.Equal(t, orders.MsgMinQuantity, p.Notices()[0].Message)
	assert.Same(t, e, p.Editor())
}

func TestAddingDuplicateItemRaisesInfoNotice(t *testing.T) {
	p := newPage(t, newFakeAPI(), adminSession)
	e := p.NewOrder(orders.TypeSell)

	require.True(t, e.AddItem(widget.ID))
	assert.False(t, e.AddItem(widget.ID))
	assert.Len(t, e.Draft.Lines(), 1)
	assert.Equal(t, []Notice{{Level: LevelInfo, Title: TitleItemAlreadyAdded, Message: "This item is already in the order"}}, p.Notices())
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)
	ctx := context.Background()

	e := p.NewOrder(orders.TypeSell)
	e.Draft.Customer = acme.ID
	require.True(t, e.AddItem(widget.ID))

	api.err = &client.Error{Kind: client.ErrRejected, Status: 400, Message: "Customer not found"}
	_, err := e.Submit(ctx)
	assert.ErrorIs(t, err, client.ErrRejected)
	assert.Equal(t, "Customer not found", p.Notices()[0].Message)
	assert.Len(t, e.Draft.Lines(), 1)
	assert.Same(t, e, p.Editor())

	api.err = &client.Error{Kind: client.ErrTransport, Err: errors.New("connection refused")}
	_, err = e.Submit(ctx)
	assert.ErrorIs(t, err, client.ErrTransport)
	assert.Equal(t, "An error occurred", p.Notices()[0].Message)

	api.err = nil
	_, err = e.Submit(ctx)
	require.NoError(t, err)
	assert.Len(t, api.created, 1)
}

func TestSavedOrderSurvivesFailedRefresh(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)
	ctx := context.Background()
	api.listFn = func(context.Context, orders.Filter) ([]orders.Order, error) {
		return nil, &client.Error{Kind: client.ErrTransport, Err: errors.New("connection reset")}
	}

	e := p.NewOrder(orders.TypeSell)
	e.Draft.Customer = acme.ID
	require.True(t, e.AddItem(widget.ID))

	saved, err := e.Submit(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Nil(t, p.Editor())
	assert.Equal(t, []Notice{
		{Level: LevelSuccess, Title: TitleSuccess, Message: "Order created"},
		{Level: LevelError, Title: TitleError, Message: "An error occurred"},
	}, p.Notices())

	_, err = e.Submit(ctx)
	assert.ErrorIs(t, err, ErrEditorClosed)
	assert.Len(t, api.created, 1)
}

func TestCancelledEditorRefusesSubmit(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)

	e := p.NewOrder(orders.TypeSell)
	e.Draft.Customer = acme.ID
	require.True(t, e.AddItem(widget.ID))
	e.Cancel()

	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEditorClosed)
	assert.Empty(t, api.created)
}

func TestNewOrdersPageStartsAtCurrentYear(t *testing.T) {
	p := NewOrdersPage(newFakeAPI(), adminSession)
	assert.Equal(t, orders.Filter{Year: time.Now().Year()}, p.Filter())
}

func TestEditOrderUsesCurrentItemValues(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)

	existing := orders.Order{
		ID:       uuid.New(),
		Type:     orders.TypeSell,
		Status:   orders.StatusToRoll,
		Customer: orders.Ref{ID: acme.ID, Name: acme.Name},
		Items: []orders.Line{{
			Item:     orders.ItemRef{ID: widget.ID, Name: "Old Widget", Price: decimal.NewFromInt(8), Quantity: 1},
			Quantity: 3,
		}},
	}
	e := p.EditOrder(existing)
	lines := e.Draft.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Widget", lines[0].Name)
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 5, lines[0].Available)
	assert.Equal(t, 3, lines[0].Quantity)

	_, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, api.created)
	assert.Equal(t, []orders.SubmissionLine{{Item: widget.ID, Quantity: 3}}, api.updated[existing.ID].Items)
	assert.Equal(t, "Order updated", p.Notices()[0].Message)
}

// =============================================================================
// Confirmations
// =============================================================================

func TestTransitionNeedsConfirmation(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)
	ctx := context.Background()

	c, ok := p.RequestTransition(orders.Order{ID: uuid.New(), Status: orders.StatusBilled})
	require.True(t, ok)
	assert.Contains(t, c.Message, `"delivered"`)
	assert.Empty(t, api.moves)

	require.NoError(t, c.Confirm(ctx))
	assert.Equal(t, []orders.Status{orders.StatusDelivered}, api.moves)
	assert.ErrorIs(t, c.Confirm(ctx), ErrConfirmationUsed)
	assert.Len(t, api.moves, 1)

	_, ok = p.RequestTransition(orders.Order{ID: uuid.New(), Status: orders.StatusDelivered})
	assert.False(t, ok)

	c, _ = p.RequestTransition(orders.Order{ID: uuid.New(), Status: orders.StatusPending})
	c.Cancel()
	assert.ErrorIs(t, c.Confirm(ctx), ErrConfirmationUsed)
	assert.Len(t, api.moves, 1)
}

func TestTransitionRejectedByBackend(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)
	api.err = &client.Error{Kind: client.ErrRejected, Status: 409, Message: "order is to roll, next status is rolled"}

	c, ok := p.RequestTransition(orders.Order{ID: uuid.New(), Status: orders.StatusPending})
	require.True(t, ok)
	assert.Error(t, c.Confirm(context.Background()))
	assert.Equal(t, "order is to roll, next status is rolled", p.Notices()[0].Message)
}

func TestConfirmedMutationsSurviveFailedRefresh(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)
	ctx := context.Background()
	api.listFn = func(context.Context, orders.Filter) ([]orders.Order, error) {
		return nil, &client.Error{Kind: client.ErrTransport, Err: errors.New("connection reset")}
	}

	c, ok := p.RequestTransition(orders.Order{ID: uuid.New(), Status: orders.StatusPending})
	require.True(t, ok)
	require.NoError(t, c.Confirm(ctx))
	assert.Equal(t, []orders.Status{orders.StatusToRoll}, api.moves)
	notices := p.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, LevelSuccess, notices[0].Level)
	assert.Equal(t, LevelError, notices[1].Level)

	require.NoError(t, p.RequestDelete(orders.Order{ID: uuid.New()}).Confirm(ctx))
	assert.Len(t, api.deleted, 1)
	assert.Equal(t, "Order deleted", p.Notices()[0].Message)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)
	id := uuid.New()

	c := p.RequestDelete(orders.Order{ID: id})
	assert.Empty(t, api.deleted)
	require.NoError(t, c.Confirm(context.Background()))
	assert.Equal(t, []uuid.UUID{id}, api.deleted)
	assert.Equal(t, "Order deleted", p.Notices()[0].Message)
}

// =============================================================================
// Export & dashboard
// =============================================================================

func TestExportLoadedList(t *testing.T) {
	api := newFakeAPI()
	p := newPage(t, api, adminSession)

	ctx := context.Background()
	_, ok := p.Export(ctx, "xlsx")
	assert.False(t, ok)
	assert.Equal(t, []Notice{{Level: LevelInfo, Title: TitleNoData, Message: MsgNoDataToExport}}, p.Notices())

	api.orders = []orders.Order{{
		ID:        uuid.New(),
		Type:      orders.TypeSell,
		Status:    orders.StatusPending,
		Customer:  orders.Ref{ID: acme.ID, Name: "Acme"},
		Items:     []orders.Line{{Item: orders.ItemRef{ID: widget.ID, Name: "Widget", Price: decimal.NewFromInt(10)}, Quantity: 2}},
		CreatedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, p.Refresh(context.Background()))

	file, ok := p.Export(ctx, "csv")
	require.True(t, ok)
	assert.Equal(t, "orders_2026_all.csv", file.Name)
	assert.Contains(t, string(file.Body), "Widget (Qty: 2)")
	assert.Empty(t, api.exports)

	file, ok = p.Export(ctx, "PDF")
	require.True(t, ok)
	assert.Equal(t, "orders_2026_all.pdf", file.Name)
	assert.Equal(t, []string{orders.FormatPDF}, api.exports)

	api.err = &client.Error{Kind: client.ErrRejected, Status: 400, Message: "PDF export is not configured"}
	_, ok = p.Export(ctx, "pdf")
	assert.False(t, ok)
	assert.Equal(t, []Notice{{Level: LevelError, Title: TitleError, Message: "PDF export is not configured"}}, p.Notices())

	api.err = nil
	_, ok = p.Export(ctx, "docx")
	assert.False(t, ok)
	assert.Equal(t, "format must be xlsx, csv or pdf", p.Notices()[0].Message)
}

func TestDashboard(t *testing.T) {
	api := newFakeAPI()
	d := NewDashboard(api)

	_, loaded := d.Stats()
	assert.False(t, loaded)

	require.NoError(t, d.Load(context.Background()))
	stats, loaded := d.Stats()
	assert.True(t, loaded)
	assert.Equal(t, 7, stats.Orders.Total)
	cards := d.Cards()
	assert.Equal(t, Card{Label: "Total Orders", Value: 7}, cards[0])
	assert.Equal(t, Card{Label: "Salesmen", Value: 2}, cards[len(cards)-1])

	api.err = &client.Error{Kind: client.ErrRejected, Status: 401, Message: "Please sign in"}
	assert.Error(t, d.Load(context.Background()))
	assert.Equal(t, "Please sign in", d.Notices()[0].Message)
	stats, _ = d.Stats()
	assert.Equal(t, 7, stats.Orders.Total)
}
