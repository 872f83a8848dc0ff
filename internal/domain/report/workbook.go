package report

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/okian/tenderdesk/internal/domain/types"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook, in order.
const (
	SheetRequest   = "Request"
	SheetItems     = "Items"
	SheetResponses = "Responses"
	SheetTotals    = "Totals"
)

// ContentTypeWorkbook is the MIME type of rendered workbooks.
const ContentTypeWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// moneyFormat is the built-in "0.00" number format.
const moneyFormat = 2

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Workbook is a rendered spreadsheet.
type Workbook struct {
	file *excelize.File
	name string
	// Placeholders counts fields that could not be resolved.
	Placeholders int
}

// FileName returns the suggested download name.
func (w *Workbook) FileName() string { return w.name }

// WriteTo writes the xlsx document to dst.
func (w *Workbook) WriteTo(dst io.Writer) (int64, error) {
	return w.file.WriteTo(dst)
}

// Bytes returns the xlsx document.
func (w *Workbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases the underlying document.
func (w *Workbook) Close() error { return w.file.Close() }

// RenderWorkbook renders the request metadata, the requested items, every
// valid matched line and the vendor totals into a workbook. Orphan and
// invalid lines are not listed. Unresolvable fields become Placeholder; an
// error is returned only when the document itself cannot be built.
func RenderWorkbook(in Input) (*Workbook, error) {
	v := buildView(in)
	f := excelize.NewFile()
	wb := &Workbook{
		file:         f,
		name:         fileName(in),
		Placeholders: v.placeholders,
	}

	b := &sheetBuilder{f: f}
	b.init()
	b.requestSheet(v)
	b.itemsSheet(v)
	b.responsesSheet(v)
	b.totalsSheet(v)
	if b.err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("render workbook: %w", b.err)
	}
	return wb, nil
}

func fileName(in Input) string {
	id := unsafeName.ReplaceAllString(in.Request.ID, "_")
	if id == "" {
		id = "request"
	}
	return fmt.Sprintf("bids-%s-%s.xlsx", id, in.Now.Format("20060102"))
}

// sheetBuilder keeps the first excelize error and turns later calls into no-ops.
type sheetBuilder struct {
	f      *excelize.File
	err    error
	header int
	money  int
}

func (b *sheetBuilder) init() {
	if err := b.f.SetSheetName(b.f.GetSheetName(0), SheetRequest); err != nil {
		b.err = err
		return
	}
	for _, name := range []string{SheetItems, SheetResponses, SheetTotals} {
		if _, err := b.f.NewSheet(name); err != nil {
			b.err = err
			return
		}
	}
	b.header, b.err = b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if b.err != nil {
		return
	}
	b.money, b.err = b.f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
}

func (b *sheetBuilder) row(sheet string, n int, values ...any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetSheetRow(sheet, cell, &values)
}

func (b *sheetBuilder) headerRow(sheet string, values ...any) {
	b.row(sheet, 1, values...)
	if b.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellStyle(sheet, "A1", last, b.header)
}

func (b *sheetBuilder) moneyColumn(sheet string, col, from, to int) {
	if b.err != nil || to < from {
		return
	}
	top, err := excelize.CoordinatesToCellName(col, from)
	if err != nil {
		b.err = err
		return
	}
	bottom, err := excelize.CoordinatesToCellName(col, to)
	if err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellStyle(sheet, top, bottom, b.money)
}

func (b *sheetBuilder) width(sheet, from, to string, w float64) {
	if b.err != nil {
		return
	}
	b.err = b.f.SetColWidth(sheet, from, to, w)
}

func money(d decimal.Decimal) float64 {
	return types.Round(d).InexactFloat64()
}

func (b *sheetBuilder) requestSheet(v view) {
	rows := [][2]any{
		{"Title", v.Title},
		{"Requester", v.Requester},
		{"Region", v.Region},
		{"Deadline", v.Deadline},
		{"Status", v.Status},
		{"Public link", linkOrPlaceholder(v.Link)},
		{"Created at", v.CreatedAt},
		{"Requested items", v.ItemCount},
		{"Responses", v.ResponseCount},
	}
	for i, r := range rows {
		b.row(SheetRequest, i+1, r[0], r[1])
	}
	b.width(SheetRequest, "A", "A", 18)
	b.width(SheetRequest, "B", "B", 48)
}

func linkOrPlaceholder(link string) string {
	if link == "" {
		return Placeholder
	}
	return link
}

func (b *sheetBuilder) itemsSheet(v view) {
	b.headerRow(SheetItems, "Item", "Quantity", "Offers", "Lowest unit price")
	for i, it := range v.Items {
		b.row(SheetItems, i+2, it.Label, it.Quantity, it.Offers, it.Lowest)
	}
	b.width(SheetItems, "A", "A", 40)
	b.width(SheetItems, "B", "D", 16)
}

func (b *sheetBuilder) responsesSheet(v view) {
	b.headerRow(SheetResponses,
		"Vendor", "Item", "Quantity", "Unit price", "Free units %",
		"Line total", "Delivery date", "Expiry date")
	n := 2
	for _, vb := range v.Vendors {
		for _, l := range vb.Lines {
			b.row(SheetResponses, n,
				vb.Name, l.Item, l.Quantity, money(l.UnitPrice), l.FreeUnits,
				money(l.Total), l.Delivery, l.Expiry)
			n++
		}
	}
	b.moneyColumn(SheetResponses, 4, 2, n-1)
	b.moneyColumn(SheetResponses, 6, 2, n-1)
	b.width(SheetResponses, "A", "B", 32)
	b.width(SheetResponses, "C", "H", 14)
}

func (b *sheetBuilder) totalsSheet(v view) {
	b.headerRow(SheetTotals, "Vendor", "Lines", "Total", "Orphan lines", "Invalid lines", "Lowest total")
	for i, vb := range v.Vendors {
		lowest := ""
		if vb.ID == v.LowestID {
			lowest = "yes"
		}
		b.row(SheetTotals, i+2, vb.Name, len(vb.Lines), money(vb.Total), vb.Orphans, vb.Invalid, lowest)
	}
	b.moneyColumn(SheetTotals, 3, 2, len(v.Vendors)+1)
	b.width(SheetTotals, "A", "A", 32)
	b.width(SheetTotals, "B", "F", 14)
}
