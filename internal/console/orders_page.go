package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/client"
	"github.com/tradedesk/tradedesk/internal/masterdata"
	"github.com/tradedesk/tradedesk/internal/orders"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// ErrStale is returned by Refresh when a newer refresh superseded it. The
// stale result is discarded.
var ErrStale = errors.New("console: superseded by a newer refresh")

// OrdersAPI is the backend surface the orders page uses. *client.Client
// implements it.
type OrdersAPI interface {
	relatedAPI
	ListOrders(ctx context.Context, f orders.Filter) ([]orders.Order, error)
	CreateOrder(ctx context.Context, sub orders.Submission) (orders.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, sub orders.Submission) (orders.Order, error)
	TransitionOrder(ctx context.Context, id uuid.UUID, status orders.Status) (orders.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	ExportOrders(ctx context.Context, f orders.Filter, format string) (orders.File, error)
}

// OrdersPage is the state of the orders screen for one signed-in user.
type OrdersPage struct {
	api     OrdersAPI
	session client.Session

	mu      sync.Mutex
	filter  orders.Filter
	list    []orders.Order
	related Related
	seq     uint64
	cancel  context.CancelFunc
	editor  *Editor
	inbox   notices
}

// NewOrdersPage constructs the page for session. The list starts filtered to
// the current year.
func NewOrdersPage(api OrdersAPI, session client.Session) *OrdersPage {
	return &OrdersPage{
		api:     api,
		session: session,
		filter:  orders.Filter{Year: time.Now().Year()},
	}
}

// Filter returns the current list filter.
func (p *OrdersPage) Filter() orders.Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// SetFilter replaces the filter and refreshes the list.
func (p *OrdersPage) SetFilter(ctx context.Context, f orders.Filter) error {
	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()
	return p.Refresh(ctx)
}

// Refresh fetches the list for the current filter. Starting a refresh
// cancels the one in flight, and a response that is not from the latest
// refresh is dropped with ErrStale.
func (p *OrdersPage) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	f := p.filter
	p.mu.Unlock()
	defer cancel()

	list, err := p.api.ListOrders(ctx, f)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return ErrStale
	}
	p.cancel = nil
	if err != nil {
		p.inbox.push(failure(err))
		return err
	}
	p.list = list
	return nil
}

// Orders returns the loaded list.
func (p *OrdersPage) Orders() []orders.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]orders.Order, len(p.list))
	copy(out, p.list)
	return out
}

// LoadRelated fetches customers, items, cargo and, for admins, salesmen.
func (p *OrdersPage) LoadRelated(ctx context.Context) error {
	r, err := fetchRelated(ctx, p.api, p.session.User.IsAdmin())
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.inbox.push(failure(err))
		return err
	}
	p.related = r
	return nil
}

// Related returns the loaded picker data.
func (p *OrdersPage) Related() Related {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.related
}

// Notices drains pending notices.
func (p *OrdersPage) Notices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inbox.drain()
}

func (p *OrdersPage) notify(n Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbox.push(n)
}

// NewOrder opens the editor on an empty draft.
func (p *OrdersPage) NewOrder(t orders.Type) *Editor {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editor = &Editor{page: p, Draft: orders.NewDraft(t)}
	return p.editor
}

// EditOrder opens the editor on o, rehydrating lines with the current item
// names, prices and stock.
func (p *OrdersPage) EditOrder(o orders.Order) *Editor {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editor = &Editor{page: p, Draft: orders.DraftFromOrder(o, p.related.Catalog())}
	return p.editor
}

// Editor returns the open editor, or nil.
func (p *OrdersPage) Editor() *Editor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editor
}

func (p *OrdersPage) closeEditor(e *Editor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.closed = true
	if p.editor == e {
		p.editor = nil
	}
}

func (p *OrdersPage) editorClosed(e *Editor) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.closed
}

func (p *OrdersPage) item(id uuid.UUID) (masterdata.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.related.Items {
		if it.ID == id {
			return it, true
		}
	}
	return masterdata.Item{}, false
}

// RequestTransition prepares the confirmation that moves o to its next
// status. ok is false when o is delivered and no transition is offered.
func (p *OrdersPage) RequestTransition(o orders.Order) (c *Confirmation, ok bool) {
	next, ok := o.Status.Next()
	if !ok {
		return nil, false
	}
	return &Confirmation{
		Title:   "Update Status",
		Message: fmt.Sprintf("Change order status from %q to %q?", o.Status, next),
		action: func(ctx context.Context) error {
			if _, err := p.api.TransitionOrder(ctx, o.ID, next); err != nil {
				p.notify(failure(err))
				return err
			}
			p.notify(success(fmt.Sprintf("Order moved to %s", orders.Label(string(next)))))
			p.refreshAfterMutation(ctx)
			return nil
		},
	}, true
}

// RequestDelete prepares the confirmation that deletes o.
func (p *OrdersPage) RequestDelete(o orders.Order) *Confirmation {
	return &Confirmation{
		Title:   "Delete Order",
		Message: "This order will be deleted permanently. Continue?",
		action: func(ctx context.Context) error {
			if err := p.api.DeleteOrder(ctx, o.ID); err != nil {
				p.notify(failure(err))
				return err
			}
			p.notify(success("Order deleted"))
			p.refreshAfterMutation(ctx)
			return nil
		},
	}
}

// Export renders the loaded list in format. PDF is rendered by the server
// from the current filter. ok is false when nothing was produced; a notice
// says why.
func (p *OrdersPage) Export(ctx context.Context, format string) (file orders.File, ok bool) {
	p.mu.Lock()
	list := p.list
	f := p.filter
	p.mu.Unlock()

	if len(list) == 0 {
		p.notify(Notice{Level: LevelInfo, Title: TitleNoData, Message: MsgNoDataToExport})
		return orders.File{}, false
	}
	format = orders.NormalizeFormat(format)
	if format == orders.FormatPDF {
		file, err := p.api.ExportOrders(ctx, f, format)
		if err != nil {
			p.notify(failure(err))
			return orders.File{}, false
		}
		return file, true
	}
	file, err := orders.Render(list, format, f.ExportName(format))
	if err != nil {
		p.notify(Notice{Level: LevelError, Title: TitleError, Message: shared.UserSafeMessage(err)})
		return orders.File{}, false
	}
	return file, true
}

// refreshAfterMutation reloads the list once a mutation is saved. A failed
// reload only leaves its notice; the mutation itself stands.
func (p *OrdersPage) refreshAfterMutation(ctx context.Context) {
	_ = p.Refresh(ctx)
}
