package console

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/orders"
)

// ErrEditorClosed is returned by Submit once the editor was saved or
// cancelled.
var ErrEditorClosed = errors.New("console: editor is closed")

// Editor is the open create/edit order form.
type Editor struct {
	page   *OrdersPage
	Draft  *orders.Draft
	closed bool
}

// AddItem adds the related item id with quantity 1. An item already on the
// order raises an info notice and leaves the draft unchanged.
func (e *Editor) AddItem(id uuid.UUID) bool {
	it, ok := e.page.item(id)
	if !ok {
		e.page.notify(Notice{Level: LevelWarning, Title: TitleValidation, Message: "Item not found"})
		return false
	}
	err := e.Draft.Add(orders.ItemRef{ID: it.ID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	if errors.Is(err, orders.ErrItemAlreadyAdded) {
		e.page.notify(Notice{Level: LevelInfo, Title: TitleItemAlreadyAdded, Message: "This item is already in the order"})
		return false
	}
	return err == nil
}

// Submit validates the draft and sends it as a create or update. Invalid
// drafts raise a warning and send nothing. On failure the draft is kept so
// the user can retry. Once saved the editor closes; a failed list reload
// afterwards is reported as a notice only.
func (e *Editor) Submit(ctx context.Context) (orders.Order, error) {
	if e.page.editorClosed(e) {
		return orders.Order{}, ErrEditorClosed
	}
	sub, err := e.Draft.Submission()
	if err != nil {
		e.page.notify(warning(err))
		return orders.Order{}, err
	}

	var saved orders.Order
	msg := "Order created"
	if id, editing := e.Draft.Editing(); editing {
		msg = "Order updated"
		saved, err = e.page.api.UpdateOrder(ctx, id, sub)
	} else {
		saved, err = e.page.api.CreateOrder(ctx, sub)
	}
	if err != nil {
		e.page.notify(failure(err))
		return orders.Order{}, err
	}

	e.page.notify(success(msg))
	e.page.closeEditor(e)
	e.page.refreshAfterMutation(ctx)
	return saved, nil
}

// Cancel closes the editor without saving.
func (e *Editor) Cancel() {
	e.page.closeEditor(e)
}
