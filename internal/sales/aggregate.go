package sales

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// Every aggregation is a pure function of its table and rescans it on each
// call. An empty table yields zero sums, zero counts and empty slices.

// ComputeKPI returns the sum, the count of present values and the mean of
// field over t. The mean is NaN when no row has a value.
func ComputeKPI(t *Table, field NumericField) (models.KPI, error) {
	if !field.Valid() {
		return models.KPI{}, newInvalidFieldError(kindNumeric, string(field), numericNames())
	}

	sum := decimal.Zero
	count := 0
	for i := range t.Len() {
		v := field.value(&t.records[i])
		if !v.Valid {
			continue
		}
		sum = sum.Add(v.Decimal)
		count++
	}

	mean := math.NaN()
	if count > 0 {
		mean = sum.Div(decimal.NewFromInt(int64(count))).InexactFloat64()
	}

	return models.KPI{
		Field: string(field),
		Sum:   sum,
		Count: count,
		Mean:  mean,
	}, nil
}

// CategoryDistribution counts rows per category in order of first
// occurrence. Rows without a category are not counted.
func CategoryDistribution(t *Table) []models.CategoryCount {
	index := make(map[string]int)
	result := make([]models.CategoryCount, 0)

	for i := range t.Len() {
		cat := t.records[i].Category
		if cat == "" {
			continue
		}
		pos, ok := index[cat]
		if !ok {
			pos = len(result)
			index[cat] = pos
			result = append(result, models.CategoryCount{Category: cat})
		}
		result[pos].Count++
	}
	return result
}

// CategoryProfit sums profit per category, sorted by total profit
// descending. Ties keep first-occurrence order.
func CategoryProfit(t *Table) []models.CategoryProfit {
	index := make(map[string]int)
	result := make([]models.CategoryProfit, 0)

	for i := range t.Len() {
		rec := &t.records[i]
		if rec.Category == "" {
			continue
		}
		pos, ok := index[rec.Category]
		if !ok {
			pos = len(result)
			index[rec.Category] = pos
			result = append(result, models.CategoryProfit{Category: rec.Category, Profit: decimal.Zero})
		}
		if rec.Profit.Valid {
			result[pos].Profit = result[pos].Profit.Add(rec.Profit.Decimal)
		}
	}

	slices.SortStableFunc(result, func(a, b models.CategoryProfit) int {
		return b.Profit.Cmp(a.Profit)
	})
	return result
}

// SalesTrend sums amount per year-month bucket, ascending by bucket key.
// Rows without a bucket are skipped.
func SalesTrend(t *Table) []models.TrendPoint {
	index := make(map[string]int)
	result := make([]models.TrendPoint, 0)

	for i := range t.Len() {
		rec := &t.records[i]
		if rec.YearMonth == "" {
			continue
		}
		pos, ok := index[rec.YearMonth]
		if !ok {
			pos = len(result)
			index[rec.YearMonth] = pos
			result = append(result, models.TrendPoint{YearMonth: rec.YearMonth, Amount: decimal.Zero})
		}
		if rec.Amount.Valid {
			result[pos].Amount = result[pos].Amount.Add(rec.Amount.Decimal)
		}
	}

	slices.SortFunc(result, func(a, b models.TrendPoint) int {
		return strings.Compare(a.YearMonth, b.YearMonth)
	})
	return result
}

// QuantityProfitPoints projects every row that has both quantity and profit.
// A missing amount projects as zero size.
func QuantityProfitPoints(t *Table) []models.QuantityProfitPoint {
	points := make([]models.QuantityProfitPoint, 0, t.Len())
	for i := range t.Len() {
		rec := &t.records[i]
		if !rec.Quantity.Valid || !rec.Profit.Valid {
			continue
		}
		points = append(points, models.QuantityProfitPoint{
			Quantity: rec.Quantity.Decimal,
			Profit:   rec.Profit.Decimal,
			Amount:   valueOrZero(rec.Amount),
			Category: rec.Category,
		})
	}
	return points
}

// AmountProfitPoints projects every row that has both amount and profit,
// carrying customer and city for hover annotations.
func AmountProfitPoints(t *Table) []models.AmountProfitPoint {
	points := make([]models.AmountProfitPoint, 0, t.Len())
	for i := range t.Len() {
		rec := &t.records[i]
		if !rec.Amount.Valid || !rec.Profit.Valid {
			continue
		}
		points = append(points, models.AmountProfitPoint{
			Amount:       rec.Amount.Decimal,
			Profit:       rec.Profit.Decimal,
			Category:     rec.Category,
			Quantity:     valueOrZero(rec.Quantity),
			CustomerName: rec.CustomerName,
			City:         rec.City,
		})
	}
	return points
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
