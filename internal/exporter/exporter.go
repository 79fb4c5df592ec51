// Package exporter writes a filtered table as a downloadable file.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "Sales"

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (allowed: csv, xlsx)", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) FileName(base string) string {
	return base + "." + string(f)
}

// Header is the column order of every export. It uses the dataset's own
// column names so an export loads back unchanged.
var Header = []string{
	sales.ColOrderID,
	sales.ColOrderDate,
	sales.ColCategory,
	sales.ColSubCategory,
	sales.ColState,
	sales.ColCity,
	sales.ColCustomerName,
	sales.ColPaymentMode,
	sales.ColQuantity,
	sales.ColAmount,
	sales.ColProfit,
	sales.ColYearMonth,
}

func Write(w io.Writer, format Format, t *sales.Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func WriteCSV(w io.Writer, t *sales.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range t.Rows() {
		if err := cw.Write(rowFields(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rowFields(r models.Row) []string {
	return []string{
		r.OrderID, r.OrderDate, r.Category, r.SubCategory, r.State, r.City,
		r.CustomerName, r.PaymentMode, r.Quantity, r.Amount, r.Profit, r.YearMonth,
	}
}

// WriteXLSX streams t into a single-sheet workbook with a bold, frozen
// header row. Measures are written as numeric cells; missing ones stay empty.
func WriteXLSX(w io.Writer, t *sales.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFA500"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(Header), 16); err != nil {
		return err
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return err
	}

	for i := range t.Len() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, xlsxValues(t.At(i))); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}

func xlsxValues(r models.Record) []any {
	row := r.Row()
	var quantity any
	if r.Quantity.Valid {
		quantity = r.Quantity.Decimal.IntPart()
	}
	return []any{
		text(row.OrderID), text(row.OrderDate), row.Category, row.SubCategory,
		row.State, row.City, row.CustomerName, text(row.PaymentMode),
		quantity, number(r.Amount), number(r.Profit), row.YearMonth,
	}
}

func number(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}
