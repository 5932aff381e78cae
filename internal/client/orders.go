package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/orders"
)

// ListOrders returns the orders matching f, newest first.
func (c *Client) ListOrders(ctx context.Context, f orders.Filter) ([]orders.Order, error) {
	list, _, err := call[[]orders.Order](ctx, c, http.MethodGet, "/orders", f.Values(), nil)
	return list, err
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (orders.Order, error) {
	o, _, err := call[orders.Order](ctx, c, http.MethodGet, "/orders/"+id.String(), nil, nil)
	return o, err
}

// CreateOrder submits a new order.
func (c *Client) CreateOrder(ctx context.Context, sub orders.Submission) (orders.Order, error) {
	o, _, err := call[orders.Order](ctx, c, http.MethodPost, "/orders", nil, sub)
	return o, err
}

// UpdateOrder replaces an existing order's contents.
func (c *Client) UpdateOrder(ctx context.Context, id uuid.UUID, sub orders.Submission) (orders.Order, error) {
	o, _, err := call[orders.Order](ctx, c, http.MethodPut, "/orders/"+id.String(), nil, sub)
	return o, err
}

// TransitionOrder requests the move of an order to status.
func (c *Client) TransitionOrder(ctx context.Context, id uuid.UUID, status orders.Status) (orders.Order, error) {
	o, _, err := call[orders.Order](ctx, c, http.MethodPut, "/orders/"+id.String()+"/status", nil,
		orders.TransitionRequest{Status: status})
	return o, err
}

// DeleteOrder removes an order permanently.
func (c *Client) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, _, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/orders/"+id.String(), nil, nil)
	return err
}

// OrderStats returns the dashboard statistics.
func (c *Client) OrderStats(ctx context.Context) (orders.Stats, error) {
	s, _, err := call[orders.Stats](ctx, c, http.MethodGet, "/orders/stats", nil, nil)
	return s, err
}

// ExportOrders downloads the server-side export of the orders matching f.
func (c *Client) ExportOrders(ctx context.Context, f orders.Filter, format string) (orders.File, error) {
	q := f.Values()
	if q == nil {
		q = url.Values{}
	}
	q.Set("format", format)
	req, err := c.newRequest(ctx, http.MethodGet, "/orders/export", q, nil)
	if err != nil {
		return orders.File{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return orders.File{}, &Error{Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return orders.File{}, &Error{Kind: ErrTransport, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return orders.File{}, &Error{Kind: ErrRejected, Status: resp.StatusCode, Message: env.Message}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return orders.File{}, &Error{Kind: ErrTransport, Err: err}
	}
	file := orders.File{ContentType: resp.Header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		file.Name = params["filename"]
	}
	return file, nil
}
