package orders

import (
	"bytes"
	"encoding/csv"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tradedesk/tradedesk/internal/shared"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func TestParseFilter(t *testing.T) {
	q := url.Values{"search": {" acme "}, "status": {"to roll"}, "type": {"sell order"}, "month": {"3"}}
	f, err := ParseFilter(q, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, Filter{Search: "acme", Status: StatusToRoll, Type: TypeSell, Month: 3, Year: 2026}, f)

	from, to, ok := f.Period(time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestParseFilterRejectsBadValues(t *testing.T) {
	_, err := ParseFilter(url.Values{"month": {"13"}}, fixedNow)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = ParseFilter(url.Values{"status": {"lost"}}, fixedNow)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, MsgStatus, err.Error())
}

func TestFilterValuesRoundTrip(t *testing.T) {
	f := Filter{Search: "x", Status: StatusBilled, Month: 2, Year: 2025}
	back, err := ParseFilter(f.Values(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, f, back)
	assert.Empty(t, Filter{}.Values())
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "orders_2026_all.xlsx", Filter{Year: 2026}.ExportName(FormatXLSX))
	assert.Equal(t, "orders_2024_7.csv", Filter{Year: 2024, Month: 7}.ExportName(FormatCSV))
	assert.Equal(t, "orders_all.csv", Filter{}.ExportName(FormatCSV))
}

func exportFixture() []Order {
	return []Order{
		{
			ID:       uuid.MustParse("7b0c6a52-1d1f-4a58-9df1-0c3d2f0c1a11"),
			Type:     TypeSell,
			Status:   StatusToRoll,
			Customer: Ref{Name: "Acme"},
			Cargo:    &Ref{Name: "BlueDart"},
			Items: []Line{
				{Item: ItemRef{Name: "Widget", Price: decimal.NewFromInt(10)}, Quantity: 2},
				{Item: ItemRef{Name: "Bolt", Price: decimal.NewFromInt(5)}, Quantity: 3},
			},
			CreatedByType: CreatorAdmin,
			CreatedAt:     time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportRows(t *testing.T) {
	rows := ExportRows(exportFixture())
	require.Len(t, rows, 1)
	assert.Equal(t, []string{
		"1", "7b0c6a52-1d1f-4a58-9df1-0c3d2f0c1a11", "2026-05-02", "sell order", "Acme",
		"Widget (Qty: 2), Bolt (Qty: 3)", "35.00", "to roll", "BlueDart", "Admin",
	}, rows[0])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportFixture()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, "Widget (Qty: 2), Bolt (Qty: 3)", records[1][5])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportFixture()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, "Acme", rows[1][4])
	assert.Equal(t, "Admin", rows[1][9])
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(nil, "pdf", "x.pdf")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
