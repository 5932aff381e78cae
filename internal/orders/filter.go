package orders

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Filter narrows the order list.
type Filter struct {
	Search string
	Status Status
	Type   Type
	Month  int
	Year   int
}

// ParseFilter reads list filters from a query string. A month without a
// year means the month of the current year.
func ParseFilter(q url.Values, now time.Time) (Filter, error) {
	f := Filter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: Status(q.Get("status")),
		Type:   Type(q.Get("type")),
	}
	verr := shared.NewValidationError()
	if f.Status != "" && !f.Status.Valid() {
		verr.Add("status", MsgStatus)
	}
	if f.Type != "" && !f.Type.Valid() {
		verr.Add("type", MsgType)
	}
	if raw := q.Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			verr.Add("month", "month must be between 1 and 12")
		}
		f.Month = m
	}
	if raw := q.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			verr.Add("year", "year is invalid")
		}
		f.Year = y
	}
	if err := verr.OrNil(); err != nil {
		return Filter{}, err
	}
	if f.Month != 0 && f.Year == 0 {
		f.Year = now.Year()
	}
	return f, nil
}

// Values encodes the filter as query parameters.
func (f Filter) Values() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Month != 0 {
		q.Set("month", strconv.Itoa(f.Month))
	}
	if f.Year != 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	return q
}

// Period returns the half-open creation-time range selected by Month and
// Year. ok is false when no period is selected.
func (f Filter) Period(loc *time.Location) (from, to time.Time, ok bool) {
	switch {
	case f.Year != 0 && f.Month != 0:
		from = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), true
	case f.Year != 0:
		from = time.Date(f.Year, time.January, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(1, 0, 0), true
	}
	return time.Time{}, time.Time{}, false
}

// ExportName is the download file name for the filtered list. A list not
// narrowed to a year is named orders_all.
func (f Filter) ExportName(ext string) string {
	if f.Year == 0 {
		return fmt.Sprintf("orders_all.%s", ext)
	}
	month := "all"
	if f.Month != 0 {
		month = strconv.Itoa(f.Month)
	}
	return fmt.Sprintf("orders_%d_%s.%s", f.Year, month, ext)
}
