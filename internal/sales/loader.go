package sales

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

// Column names of the dataset header.
const (
	ColCategory     = "Category"
	ColSubCategory  = "Sub-Category"
	ColState        = "State"
	ColCustomerName = "CustomerName"
	ColCity         = "City"
	ColQuantity     = "Quantity"
	ColAmount       = "Amount"
	ColProfit       = "Profit"
	ColYearMonth    = "Year-Month"

	ColOrderID     = "Order ID"
	ColOrderDate   = "Order Date"
	ColPaymentMode = "PaymentMode"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{
	ColCategory, ColSubCategory, ColState, ColCustomerName, ColCity,
	ColQuantity, ColAmount, ColProfit, ColYearMonth,
}

var orderDateLayouts = []string{"2006-01-02", "01/02/2006", "02-01-2006", "2006/01/02"}

const ctxCheckEvery = 1024

var errEmptySource = errors.New("empty file")

// Load reads the dataset at path. Files ending in .xlsx are read from the
// first worksheet; anything else is parsed as CSV.
func Load(ctx context.Context, path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(ctx, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	t, err := Read(ctx, file)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return t, nil
}

// Read parses CSV data with a header row from r.
func Read(ctx context.Context, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Err: errEmptySource}
	}
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("read header: %w", err)}
	}

	return parseRows(ctx, header, func() ([]string, error) {
		return reader.Read()
	})
}

func loadXLSX(ctx context.Context, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Path: path, Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Err: errEmptySource}
	}

	next := 1
	t, err := parseRows(ctx, rows[0], func() ([]string, error) {
		if next >= len(rows) {
			return nil, io.EOF
		}
		row := rows[next]
		next++
		return row, nil
	})
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	return t, nil
}

type columnIndex map[string]int

func (c columnIndex) get(fields []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func indexHeader(header []string) (columnIndex, []string) {
	cols := make(columnIndex, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	return cols, missing
}

func parseRows(ctx context.Context, header []string, next func() ([]string, error)) (*Table, error) {
	cols, missing := indexHeader(header)
	if len(missing) > 0 {
		return nil, &LoadError{Missing: missing}
	}

	records := make([]models.Record, 0, 1024)
	// Row numbers are 1-based and count the header line.
	for row := 2; ; row++ {
		if (row-2)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Row: row, Err: err}
		}
		if blank(fields) {
			continue
		}

		rec, err := parseRecord(cols, fields)
		if err != nil {
			return nil, &LoadError{Row: row, Err: err}
		}
		records = append(records, rec)
	}

	return NewTable(records), nil
}

func parseRecord(cols columnIndex, fields []string) (models.Record, error) {
	rec := models.Record{
		OrderID:      cols.get(fields, ColOrderID),
		Category:     cols.get(fields, ColCategory),
		SubCategory:  cols.get(fields, ColSubCategory),
		State:        cols.get(fields, ColState),
		CustomerName: cols.get(fields, ColCustomerName),
		City:         cols.get(fields, ColCity),
		PaymentMode:  cols.get(fields, ColPaymentMode),
		YearMonth:    cols.get(fields, ColYearMonth),
	}

	var err error
	if rec.Quantity, err = parseQuantity(cols.get(fields, ColQuantity)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColQuantity, err)
	}
	if rec.Amount, err = parseDecimal(cols.get(fields, ColAmount)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColAmount, err)
	}
	if rec.Profit, err = parseDecimal(cols.get(fields, ColProfit)); err != nil {
		return rec, fmt.Errorf("%s: %w", ColProfit, err)
	}
	rec.OrderDate = parseOrderDate(cols.get(fields, ColOrderDate))

	return rec, nil
}

func parseDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func parseQuantity(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	n, err := strconv.Atoi(s)
	if err == nil {
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n))), nil
	}
	// Spreadsheet exports sometimes write integers as "3.0".
	d, derr := decimal.NewFromString(s)
	if derr != nil || !d.IsInteger() {
		return decimal.NullDecimal{}, fmt.Errorf("parse %q: not an integer", s)
	}
	return decimal.NewNullDecimal(d), nil
}

// parseOrderDate is lenient: the order date is informational only, so an
// unknown layout leaves the zero time.
func parseOrderDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
