package charts

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// requireWellFormed fails unless svg parses as XML from start to end.
func requireWellFormed(t *testing.T, svg []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(svg))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err, "malformed svg: %s", svg)
	}
}

func sampleReport() *sales.Report {
	return &sales.Report{
		Distribution: []models.CategoryCount{
			{Category: "Furniture", Count: 3},
			{Category: "Office", Count: 1},
		},
		CategoryProfit: []models.CategoryProfit{
			{Category: "Office", Profit: d("120.5")},
			{Category: "Furniture", Profit: d("-40")},
		},
		Trend: []models.TrendPoint{
			{YearMonth: "2023-01", Amount: d("300")},
			{YearMonth: "2023-02", Amount: d("50")},
		},
		QuantityProfit: []models.QuantityProfitPoint{
			{Quantity: d("1"), Profit: d("10"), Amount: d("100"), Category: "Furniture"},
			{Quantity: d("4"), Profit: d("-40"), Amount: d("400"), Category: "Office"},
		},
		AmountProfit: []models.AmountProfitPoint{
			{Amount: d("100"), Profit: d("10"), Quantity: d("1"), Category: "Furniture", CustomerName: "Ann", City: "Austin"},
			{Amount: d("400"), Profit: d("-40"), Quantity: d("4"), Category: "Office", CustomerName: "Bob", City: "Dayton"},
		},
	}
}

func TestRenderAll(t *testing.T) {
	r := NewRenderer()

	svgs, err := r.RenderAll(sampleReport())
	require.NoError(t, err)
	require.Len(t, svgs, len(Panels))

	for _, p := range Panels {
		svg := string(svgs[p])
		assert.True(t, strings.HasPrefix(svg, "<svg"), "%s should be an svg document", p)
		assert.NotContains(t, svg, emptyMessage, "%s should not be a placeholder", p)
		requireWellFormed(t, svgs[p])
	}

	assert.Contains(t, string(svgs[PanelDistribution]), "Furniture 75.0%")
	assert.Contains(t, string(svgs[PanelTrend]), "2023-02")
	assert.Contains(t, string(svgs[PanelQuantityScatter]), "Office")
}

func TestRender_EmptyData(t *testing.T) {
	r := NewRenderer()

	svgs, err := r.RenderAll(&sales.Report{})
	require.NoError(t, err)

	for _, p := range Panels {
		svg := string(svgs[p])
		assert.Contains(t, svg, emptyMessage, "%s", p)
		assert.Contains(t, svg, p.Title())
		requireWellFormed(t, svgs[p])
	}
}

func TestRenderAll_SingleMonth(t *testing.T) {
	report := &sales.Report{
		Distribution:   []models.CategoryCount{{Category: "Office", Count: 1}},
		CategoryProfit: []models.CategoryProfit{{Category: "Office", Profit: d("5")}},
		Trend:          []models.TrendPoint{{YearMonth: "2023-03", Amount: d("50")}},
		QuantityProfit: []models.QuantityProfitPoint{{Quantity: d("10"), Profit: d("5"), Amount: d("50"), Category: "Office"}},
		AmountProfit:   []models.AmountProfitPoint{{Amount: d("50"), Profit: d("5"), Quantity: d("10"), Category: "Office"}},
	}

	svgs, err := NewRenderer().RenderAll(report)
	require.NoError(t, err)
	for _, p := range Panels {
		assert.NotContains(t, string(svgs[p]), failedMessage, "%s", p)
		requireWellFormed(t, svgs[p])
	}
	assert.Contains(t, string(svgs[PanelTrend]), ">2023-03</text>")
}

func TestRenderAll_FailedPanelGetsPlaceholder(t *testing.T) {
	report := sampleReport()
	// No positive slice left for the donut.
	report.Distribution = []models.CategoryCount{{Category: "Furniture", Count: -1}}

	svgs, err := NewRenderer().RenderAll(report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(PanelDistribution))
	require.Len(t, svgs, len(Panels))

	assert.Contains(t, string(svgs[PanelDistribution]), failedMessage)
	assert.Contains(t, string(svgs[PanelDistribution]), PanelDistribution.Title())
	for _, p := range Panels[1:] {
		assert.NotContains(t, string(svgs[p]), failedMessage, "%s", p)
	}
}

// Long labels get wrapped by go-chart; escaping happens after wrapping so an
// entity is never cut in half.
func TestRender_EscapesCategoryText(t *testing.T) {
	report := &sales.Report{
		Distribution: []models.CategoryCount{
			{Category: "Toys & Games", Count: 2},
			{Category: "B<x>", Count: 1},
		},
		CategoryProfit: []models.CategoryProfit{
			{Category: "Toys & Games", Profit: d("30")},
			{Category: "B<x>", Profit: d("-10")},
			{Category: "Bathroom<Fixtures&Fittings>Supplies", Profit: d("7")},
		},
		Trend: []models.TrendPoint{
			{YearMonth: "2023-01", Amount: d("10")},
			{YearMonth: "<2023-02>", Amount: d("20")},
		},
		QuantityProfit: []models.QuantityProfitPoint{
			{Quantity: d("1"), Profit: d("30"), Amount: d("10"), Category: "Toys & Games"},
			{Quantity: d("2"), Profit: d("-10"), Amount: d("20"), Category: "B<x>"},
		},
		AmountProfit: []models.AmountProfitPoint{
			{Amount: d("10"), Profit: d("30"), Quantity: d("1"), Category: "Toys & Games"},
			{Amount: d("20"), Profit: d("-10"), Quantity: d("2"), Category: "B<x>"},
		},
	}

	svgs, err := NewRenderer().RenderAll(report)
	require.NoError(t, err)

	for _, p := range Panels {
		svg := string(svgs[p])
		requireWellFormed(t, svgs[p])
		assert.NotContains(t, svg, "<x>", "%s", p)
		assert.NotContains(t, svg, "Toys & Games", "%s", p)
		assert.NotContains(t, svg, "<Fixtures", "%s", p)
	}
	assert.Contains(t, string(svgs[PanelDistribution]), "Toys &amp; Games")
	assert.Contains(t, string(svgs[PanelProfit]), "B&lt;x&gt;")
	assert.Contains(t, string(svgs[PanelTrend]), "&lt;2023-02&gt;")
	assert.Contains(t, string(svgs[PanelQuantityScatter]), "Toys &amp; Games")
}

func TestRender_SingleValues(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"single trend point", func() ([]byte, error) {
			return r.Trend([]models.TrendPoint{{YearMonth: "2023-01", Amount: d("10")}})
		}},
		{"zero profit", func() ([]byte, error) {
			return r.Profit([]models.CategoryProfit{{Category: "A", Profit: decimal.Zero}})
		}},
		{"single scatter point", func() ([]byte, error) {
			return r.QuantityProfit([]models.QuantityProfitPoint{{Quantity: d("2"), Profit: d("5"), Amount: d("9"), Category: "A"}})
		}},
		{"zero counts", func() ([]byte, error) {
			return r.Distribution([]models.CategoryCount{{Category: "A", Count: 0}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svg, err := tt.render()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(svg), "<svg"))
			requireWellFormed(t, svg)
		})
	}
}

func TestRender_UnknownPanel(t *testing.T) {
	_, err := NewRenderer().Render("histogram", sampleReport())
	assert.Error(t, err)
}

func TestEmpty_EscapesTitle(t *testing.T) {
	svg := NewRenderer().Empty("<Profit & Loss>")
	assert.Contains(t, string(svg), "&lt;Profit &amp; Loss&gt;")
	requireWellFormed(t, svg)
}

func TestFailed(t *testing.T) {
	svg := NewRenderer().Failed(PanelTrend.Title())
	assert.Contains(t, string(svg), failedMessage)
	assert.Contains(t, string(svg), PanelTrend.Title())
	requireWellFormed(t, svg)
}

func TestParsePanel(t *testing.T) {
	p, ok := ParsePanel("sales-trend")
	assert.True(t, ok)
	assert.Equal(t, PanelTrend, p)

	_, ok = ParsePanel("pie")
	assert.False(t, ok)
}

func TestFormatSI(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{123, "120"},
		{1275, "1.3k"},
		{-32900, "-33k"},
		{2500000, "2.5M"},
		{0.456, "0.46"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSI(tt.in), "formatSI(%v)", tt.in)
	}
}

func TestPaddedRange(t *testing.T) {
	r := paddedRange([]float64{5, 5}, false)
	assert.Less(t, r.Min, 5.0)
	assert.Greater(t, r.Max, 5.0)

	r = paddedRange([]float64{10, 20}, true)
	assert.Equal(t, 0.0, r.Min)
	assert.Greater(t, r.Max, 20.0)

	r = paddedRange(nil, false)
	assert.Equal(t, 0.0, r.Min)
	assert.Equal(t, 1.0, r.Max)
}

func TestDotWidth(t *testing.T) {
	assert.Equal(t, minDotWidth, dotWidth(0, 10))
	assert.Equal(t, maxDotWidth, dotWidth(10, 10))
	assert.InDelta(t, maxDotWidth/2, dotWidth(2.5, 10), 1e-9)
}
