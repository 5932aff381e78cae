package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

const sheetName = "Orders"

var errUnknownFormat = shared.NewValidationError(shared.FieldError{Field: "format", Reason: "format must be xlsx, csv or pdf"})

// ExportHeader is the column set of an order export.
var ExportHeader = []string{"S.No", "Order ID", "Date", "Type", "Customer", "Items", "Total", "Status", "Cargo", "Created By"}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Label renders a status or type for display, e.g. "to roll" becomes "To Roll".
func Label(s string) string {
	return cases.Title(language.English).String(s)
}

// ExportRows projects orders onto export rows, without the header. Type and
// status are written as stored.
func ExportRows(list []Order) [][]string {
	rows := make([][]string, 0, len(list))
	for i, o := range list {
		items := make([]string, 0, len(o.Items))
		for _, l := range o.Items {
			items = append(items, fmt.Sprintf("%s (Qty: %d)", l.Item.Name, l.Quantity))
		}
		cargo := ""
		if o.Cargo != nil {
			cargo = o.Cargo.Name
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			o.ID.String(),
			o.CreatedAt.Format("2006-01-02"),
			string(o.Type),
			o.Customer.Name,
			strings.Join(items, ", "),
			o.Total().StringFixed(2),
			string(o.Status),
			cargo,
			o.CreatorLabel(),
		})
	}
	return rows
}

// WriteCSV writes list as CSV.
func WriteCSV(w io.Writer, list []Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(ExportRows(list)); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes list as a single-sheet workbook.
func WriteXLSX(w io.Writer, list []Order) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}
	rows := append([][]string{ExportHeader}, ExportRows(list)...)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// PDFRenderer converts an HTML document into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

var errPDFDisabled = shared.NewValidationError(shared.FieldError{Field: "format", Reason: "PDF export is not configured"})

var printTemplate = template.Must(template.New("orders").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;font-size:11px}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #999;padding:4px;text-align:left}
th{background:#eee}
</style></head>
<body><h2>{{.Title}}</h2>
<table><thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
</table></body></html>`))

// WriteHTML writes list as a printable HTML table.
func WriteHTML(w io.Writer, list []Order, title string) error {
	return printTemplate.Execute(w, struct {
		Title  string
		Header []string
		Rows   [][]string
	}{title, ExportHeader, ExportRows(list)})
}

// Render writes list in the given format.
func Render(list []Order, format string, name string) (File, error) {
	var buf bytes.Buffer
	file := File{Name: name}
	switch format {
	case FormatXLSX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if err := WriteXLSX(&buf, list); err != nil {
			return File{}, fmt.Errorf("render xlsx: %w", err)
		}
	case FormatCSV:
		file.ContentType = "text/csv"
		if err := WriteCSV(&buf, list); err != nil {
			return File{}, fmt.Errorf("render csv: %w", err)
		}
	default:
		return File{}, errUnknownFormat
	}
	file.Body = buf.Bytes()
	return file, nil
}

// NormalizeFormat maps an empty format to xlsx.
func NormalizeFormat(format string) string {
	if format == "" {
		return FormatXLSX
	}
	return strings.ToLower(format)
}

// Export renders the orders matching f.
func (s *Service) Export(ctx context.Context, f Filter, format string) (File, error) {
	format = NormalizeFormat(format)
	switch format {
	case FormatXLSX, FormatCSV:
	case FormatPDF:
		if s.pdf == nil {
			return File{}, errPDFDisabled
		}
	default:
		return File{}, errUnknownFormat
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return File{}, err
	}
	name := f.ExportName(format)
	if format != FormatPDF {
		return Render(list, format, name)
	}

	var html bytes.Buffer
	if err := WriteHTML(&html, list, strings.TrimSuffix(name, ".pdf")); err != nil {
		return File{}, fmt.Errorf("render html: %w", err)
	}
	pdf, err := s.pdf.RenderHTML(ctx, html.Bytes())
	if err != nil {
		return File{}, fmt.Errorf("render pdf: %w", err)
	}
	return File{Name: name, ContentType: "application/pdf", Body: pdf}, nil
}
