// Package templates holds the dashboard's templ components. Every fragment
// carries a stable element ID so SSE patches can morph it in place.
//
//go:generate go run github.com/a-h/templ/cmd/templ generate
package templates

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/models"
)

// Element IDs targeted by SSE patches.
const (
	IDKPIs         = "kpis"
	IDSummary      = "summary"
	IDSample       = "sample"
	IDValuesSelect = "values-select"
	IDAlert        = "alert"
)

func ChartID(p charts.Panel) string {
	return "chart-" + string(p)
}

// Render renders c into a string for use as an SSE patch.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FormatTotal rounds to a whole number, half to even.
func FormatTotal(d decimal.Decimal) string {
	return d.RoundBank(0).String()
}

func FormatMean(mean float64) string {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(math.RoundToEven(mean), 'f', 0, 64)
}

var sampleColumns = []string{
	"Order ID", "Order Date", "Category", "Sub-Category", "State", "City",
	"CustomerName", "PaymentMode", "Quantity", "Amount", "Profit", "Year-Month",
}

// rowCells lists r's cells in sampleColumns order.
func rowCells(r models.Row) []string {
	return []string{
		r.OrderID, r.OrderDate, r.Category, r.SubCategory, r.State, r.City,
		r.CustomerName, r.PaymentMode, r.Quantity, r.Amount, r.Profit, r.YearMonth,
	}
}
