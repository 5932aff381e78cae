package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradedesk/tradedesk/internal/orders"
	"github.com/tradedesk/tradedesk/internal/platform/httpx"
	"github.com/tradedesk/tradedesk/internal/shared"
)

func TestParseLines(t *testing.T) {
	id := uuid.New()
	lines, err := parseLines([]string{id.String() + ":3", id.String()})
	require.NoError(t, err)
	assert.Equal(t, []lineSpec{{item: id, quantity: "3"}, {item: id, quantity: "1"}}, lines)

	_, err = parseLines([]string{"widget:2"})
	assert.EqualError(t, err, `bad item "widget:2"`)
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, errOut.String(), "Usage: tradectl")
	assert.Contains(t, errOut.String(), "advance")
	assert.Contains(t, errOut.String(), "move an order to its next status")

	errOut.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"bogus"}, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, errOut.String(), "Usage: tradectl")

	out.Reset()
	assert.Equal(t, 0, run(context.Background(), []string{"help", "export"}, strings.NewReader(""), &out, &errOut))
	assert.Contains(t, out.String()+errOut.String(), "-format")
}

type moveLog struct {
	mu    sync.Mutex
	moves []orders.Status
}

func (l *moveLog) all() []orders.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]orders.Status(nil), l.moves...)
}

func newAPI(t *testing.T) (*httptest.Server, *moveLog) {
	t.Helper()
	log := &moveLog{}
	order := orders.Order{
		ID:        uuid.MustParse("0f7a3c57-0a43-4f3e-9b1c-2b1f7f0c9d11"),
		Type:      orders.TypeSell,
		Status:    orders.StatusBilled,
		Customer:  orders.Ref{ID: uuid.New(), Name: "Acme"},
		Items:     []orders.Line{{Item: orders.ItemRef{ID: uuid.New(), Name: "Widget", Price: decimal.NewFromInt(10)}, Quantity: 2}},
		CreatedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	r := chi.NewRouter()
	r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, http.StatusOK, shared.Principal{Name: "Admin", Role: shared.RoleAdmin})
	})
	r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, http.StatusOK, []orders.Order{order})
	})
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, http.StatusOK, order)
	})
	r.Put("/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var req orders.TransitionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "malformed request body")
			return
		}
		log.mu.Lock()
		log.moves = append(log.moves, req.Status)
		log.mu.Unlock()
		o := order
		o.Status = req.Status
		httpx.OK(w, http.StatusOK, o)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, log
}

func TestOrdersAndAdvance(t *testing.T) {
	srv, moves := newAPI(t)
	ctx := context.Background()
	var out, errOut bytes.Buffer

	code := run(ctx, []string{"-api", srv.URL, "-token", "x", "orders", "-status", "billed"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Acme")
	assert.Contains(t, out.String(), "20.00")
	assert.Contains(t, out.String(), "Billed")

	out.Reset()
	code = run(ctx, []string{"-api", srv.URL, "advance", "-id", "0f7a3c57-0a43-4f3e-9b1c-2b1f7f0c9d11"}, strings.NewReader("n\n"), &out, &errOut)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "cancelled")
	assert.Empty(t, moves.all())

	out.Reset()
	code = run(ctx, []string{"-api", srv.URL, "advance", "-id", "0f7a3c57-0a43-4f3e-9b1c-2b1f7f0c9d11"}, strings.NewReader("y\n"), &out, &errOut)
	assert.Equal(t, 0, code, errOut.String())
	assert.Equal(t, []orders.Status{orders.StatusDelivered}, moves.all())
	assert.Contains(t, out.String(), "Order moved to Delivered")

	code = run(ctx, []string{"-api", srv.URL, "orders", "-status", "lost"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
}
