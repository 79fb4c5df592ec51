package sales

import (
	"math/rand/v2"
	"slices"
	"strings"

	"sales-dashboard/internal/models"
)

// DefaultSampleSize is the number of rows shown in the sampled table.
const DefaultSampleSize = 6

// Selection is the state of the dashboard controls.
type Selection struct {
	Numeric NumericField     `json:"numeric"`
	Field   CategoricalField `json:"field"`
	Values  []string         `json:"values"`
}

func DefaultSelection() Selection {
	return Selection{Numeric: FieldAmount, Field: FieldCategory}
}

// Key identifies a selection independent of value order and duplicates.
func (s Selection) Key() string {
	values := slices.Clone(s.Values)
	slices.Sort(values)
	values = slices.Compact(values)
	return string(s.Numeric) + "|" + string(s.Field) + "|" + strings.Join(values, "\x1f")
}

// Report is the result of one render pass.
type Report struct {
	Selection      Selection                    `json:"selection"`
	TotalRows      int                          `json:"total_rows"`
	FilteredRows   int                          `json:"filtered_rows"`
	Sample         []models.Row                 `json:"sample"`
	KPI            models.KPI                   `json:"kpi"`
	Distribution   []models.CategoryCount       `json:"category_distribution"`
	CategoryProfit []models.CategoryProfit      `json:"category_profit"`
	Trend          []models.TrendPoint          `json:"sales_trend"`
	QuantityProfit []models.QuantityProfitPoint `json:"quantity_profit"`
	AmountProfit   []models.AmountProfitPoint   `json:"amount_profit"`

	Filtered *Table `json:"-"`
}

// BuildReport runs the filter stage and every aggregation over base.
func BuildReport(base *Table, sel Selection, sampleSize int, rng *rand.Rand) (*Report, error) {
	filtered, err := Filter(base, sel.Field, sel.Values)
	if err != nil {
		return nil, err
	}
	kpi, err := ComputeKPI(filtered, sel.Numeric)
	if err != nil {
		return nil, err
	}

	sample := Sample(filtered, sampleSize, rng)
	rows := make([]models.Row, len(sample))
	for i, rec := range sample {
		rows[i] = rec.Row()
	}

	return &Report{
		Selection:      sel,
		TotalRows:      base.Len(),
		FilteredRows:   filtered.Len(),
		Sample:         rows,
		KPI:            kpi,
		Distribution:   CategoryDistribution(filtered),
		CategoryProfit: CategoryProfit(filtered),
		Trend:          SalesTrend(filtered),
		QuantityProfit: QuantityProfitPoints(filtered),
		AmountProfit:   AmountProfitPoints(filtered),
		Filtered:       filtered,
	}, nil
}

// Sample picks up to n distinct rows at random and returns them in table
// order. A nil rng uses the global source.
func Sample(t *Table, n int, rng *rand.Rand) []models.Record {
	size := t.Len()
	if n <= 0 || size == 0 {
		return []models.Record{}
	}
	if n >= size {
		return t.Records()
	}

	var perm []int
	if rng != nil {
		perm = rng.Perm(size)
	} else {
		perm = rand.Perm(size)
	}
	picked := perm[:n]
	slices.Sort(picked)

	out := make([]models.Record, n)
	for i, idx := range picked {
		out[i] = t.records[idx]
	}
	return out
}
