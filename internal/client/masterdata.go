package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/masterdata"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// Resource paths of the master data collections.
const (
	ResourceCustomers = "/customers"
	ResourceItems     = "/items"
	ResourceVendors   = "/vendors"
	ResourceCargo     = "/cargo"
	ResourceSalesmen  = "/salesman"
)

// ListParams selects a page of master data. A zero Limit lists everything.
type ListParams struct {
	Search  string
	Page    int
	Limit   int
	Filters url.Values
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	for k, v := range p.Filters {
		q[k] = append([]string(nil), v...)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Page is one page of records.
type Page[T any] struct {
	Records    []T
	Pagination shared.Pagination
}

// List fetches a page of records from resource.
func List[T any](ctx context.Context, c *Client, resource string, p ListParams) (Page[T], error) {
	records, pg, err := call[[]T](ctx, c, http.MethodGet, resource, p.values(), nil)
	if err != nil {
		return Page[T]{}, err
	}
	out := Page[T]{Records: records}
	if pg != nil {
		out.Pagination = *pg
	}
	return out, nil
}

// Get fetches one record.
func Get[T any](ctx context.Context, c *Client, resource string, id uuid.UUID) (T, error) {
	rec, _, err := call[T](ctx, c, http.MethodGet, resource+"/"+id.String(), nil, nil)
	return rec, err
}

// Create stores a new record built from in.
func Create[T any](ctx context.Context, c *Client, resource string, in any) (T, error) {
	rec, _, err := call[T](ctx, c, http.MethodPost, resource, nil, in)
	return rec, err
}

// Update replaces the fields of a record.
func Update[T any](ctx context.Context, c *Client, resource string, id uuid.UUID, in any) (T, error) {
	rec, _, err := call[T](ctx, c, http.MethodPut, resource+"/"+id.String(), nil, in)
	return rec, err
}

// Delete removes a record.
func Delete(ctx context.Context, c *Client, resource string, id uuid.UUID) error {
	_, _, err := call[json.RawMessage](ctx, c, http.MethodDelete, resource+"/"+id.String(), nil, nil)
	return err
}

// Customers lists every customer.
func (c *Client) Customers(ctx context.Context) ([]masterdata.Customer, error) {
	p, err := List[masterdata.Customer](ctx, c, ResourceCustomers, ListParams{})
	return p.Records, err
}

// Items lists every item.
func (c *Client) Items(ctx context.Context) ([]masterdata.Item, error) {
	p, err := List[masterdata.Item](ctx, c, ResourceItems, ListParams{})
	return p.Records, err
}

// Cargo lists every cargo carrier.
func (c *Client) Cargo(ctx context.Context) ([]masterdata.Cargo, error) {
	p, err := List[masterdata.Cargo](ctx, c, ResourceCargo, ListParams{})
	return p.Records, err
}

// Salesmen lists every salesman.
func (c *Client) Salesmen(ctx context.Context) ([]masterdata.Salesman, error) {
	p, err := List[masterdata.Salesman](ctx, c, ResourceSalesmen, ListParams{})
	return p.Records, err
}
