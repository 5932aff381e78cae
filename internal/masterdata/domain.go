// Package masterdata implements list-CRUD for the reference records orders
// point at: customers, items, vendors, cargo carriers and salesmen. Each
// record type is described once by a Kind and served by the generic store,
// service and handler.
package masterdata

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Record is implemented by every master data type.
type Record interface {
	Key() uuid.UUID
	Created() time.Time
}

// Input is a create/update payload that builds a record. existing is nil on
// create.
type Input[T any] interface {
	Build(id uuid.UUID, createdAt time.Time, existing *T) (T, error)
}

// Filter maps a query parameter onto an equality condition.
type Filter struct {
	Param  string
	Column string
	Parse  func(string) (any, error)
}

// Kind describes how a record type is stored.
type Kind[T Record] struct {
	Name    string
	Table   string
	Select  string
	Columns []string
	Search  []string
	Filters []Filter
	Order   string
	Scan    func(pgx.Row) (T, error)
	Values  func(T) []any
}

// Query selects a page of records.
type Query struct {
	Search  string
	Filters map[string]any
	Page    shared.PageRequest
}

// ParseQuery reads search, paging and the kind's filters from q.
func (k Kind[T]) ParseQuery(q url.Values) (Query, error) {
	out := Query{
		Search:  strings.TrimSpace(q.Get("search")),
		Filters: map[string]any{},
		Page:    shared.ParsePageRequest(q),
	}
	verr := shared.NewValidationError()
	for _, f := range k.Filters {
		raw := q.Get(f.Param)
		if raw == "" {
			continue
		}
		v, err := f.Parse(raw)
		if err != nil {
			verr.Add(f.Param, fmt.Sprintf("%s is invalid", f.Param))
			continue
		}
		out.Filters[f.Column] = v
	}
	if err := verr.OrNil(); err != nil {
		return Query{}, err
	}
	return out, nil
}

// BoolFilter parses true/false query values.
func BoolFilter(param, column string) Filter {
	return Filter{Param: param, Column: column, Parse: func(s string) (any, error) {
		return strconv.ParseBool(s)
	}}
}

func validation(field, reason string) error {
	return shared.NewValidationError(shared.FieldError{Field: field, Reason: reason})
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
