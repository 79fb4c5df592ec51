package charts

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"sales-dashboard/internal/models"
)

const (
	minDotWidth = 2.5
	maxDotWidth = 14.0
)

// Distribution draws the category share donut.
func (r *Renderer) Distribution(counts []models.CategoryCount) ([]byte, error) {
	title := PanelDistribution.Title()

	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return r.Empty(title), nil
	}

	values := make([]chart.Value, 0, len(counts))
	for i, c := range counts {
		share := float64(c.Count) / float64(total) * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", c.Category, share),
			Value: float64(c.Count),
			Style: chart.Style{FillColor: paletteColor(i), StrokeColor: chart.ColorWhite},
		})
	}

	return r.svg(chart.DonutChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: r.background(),
		Values:     values,
	})
}

// Profit draws total profit per category, already sorted descending.
func (r *Renderer) Profit(items []models.CategoryProfit) ([]byte, error) {
	title := PanelProfit.Title()
	if len(items) == 0 {
		return r.Empty(title), nil
	}

	bars := make([]chart.Value, len(items))
	ys := make([]float64, len(items))
	for i, item := range items {
		v := item.Profit.InexactFloat64()
		ys[i] = v
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%s (%s)", item.Category, formatSI(v)),
			Value: v,
			Style: chart.Style{FillColor: paletteColor(i), StrokeColor: paletteColor(i)},
		}
	}

	const barWidth, barSpacing = 60, 24
	width := max(r.Width, len(bars)*(barWidth+barSpacing)+120)

	return r.svg(chart.BarChart{
		Title:        title,
		Width:        width,
		Height:       r.Height,
		Background:   r.background(),
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Name:           "Total Profit",
			Range:          paddedRange(ys, true),
			ValueFormatter: formatTick,
		},
		Bars: bars,
	})
}

// Trend draws summed amount per year-month in the given order.
func (r *Renderer) Trend(points []models.TrendPoint) ([]byte, error) {
	title := PanelTrend.Title()
	if len(points) == 0 {
		return r.Empty(title), nil
	}

	// go-chart takes the x range from the tick extent whenever ticks are set,
	// so unlabelled ticks at both ends keep a single month from collapsing
	// the axis to zero width.
	lo, hi := -0.5, float64(len(points))-0.5
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ticks := make([]chart.Tick, 0, len(points)+2)
	ticks = append(ticks, chart.Tick{Value: lo})
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = p.Amount.InexactFloat64()
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: p.YearMonth})
	}
	ticks = append(ticks, chart.Tick{Value: hi})

	color := paletteColor(0)
	c := chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: r.background(),
		XAxis: chart.XAxis{
			Name:  "Year-Month",
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(points)) - 0.5},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:           "Amount",
			Range:          paddedRange(ys, false),
			ValueFormatter: formatTick,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Amount",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
					DotColor:    color,
					DotWidth:    4,
				},
			},
		},
	}
	return r.svg(c)
}

// QuantityProfit draws quantity against profit, coloured by category and
// sized by amount.
func (r *Renderer) QuantityProfit(points []models.QuantityProfitPoint) ([]byte, error) {
	sp := make([]scatterPoint, len(points))
	for i, p := range points {
		sp[i] = scatterPoint{x: p.Quantity, y: p.Profit, size: p.Amount, group: p.Category}
	}
	return r.scatter(PanelQuantityScatter.Title(), "Quantity", "Profit", sp)
}

// AmountProfit draws amount against profit, coloured by category and sized
// by quantity.
func (r *Renderer) AmountProfit(points []models.AmountProfitPoint) ([]byte, error) {
	sp := make([]scatterPoint, len(points))
	for i, p := range points {
		sp[i] = scatterPoint{x: p.Amount, y: p.Profit, size: p.Quantity, group: p.Category}
	}
	return r.scatter(PanelAmountScatter.Title(), "Amount", "Profit", sp)
}

type scatterPoint struct {
	x, y, size decimal.Decimal
	group      string
}

type scatterGroup struct {
	name         string
	xs, ys, size []float64
}

func (r *Renderer) scatter(title, xName, yName string, points []scatterPoint) ([]byte, error) {
	if len(points) == 0 {
		return r.Empty(title), nil
	}

	var (
		groups []*scatterGroup
		index  = make(map[string]*scatterGroup)
		allX   = make([]float64, 0, len(points))
		allY   = make([]float64, 0, len(points))
		maxS   float64
	)
	for _, p := range points {
		g, ok := index[p.group]
		if !ok {
			g = &scatterGroup{name: p.group}
			index[p.group] = g
			groups = append(groups, g)
		}
		x, y, s := p.x.InexactFloat64(), p.y.InexactFloat64(), p.size.InexactFloat64()
		g.xs = append(g.xs, x)
		g.ys = append(g.ys, y)
		g.size = append(g.size, s)
		allX = append(allX, x)
		allY = append(allY, y)
		maxS = math.Max(maxS, s)
	}

	series := make([]chart.Series, 0, len(groups))
	for i, g := range groups {
		color := paletteColor(i)
		sizes := g.size
		series = append(series, chart.ContinuousSeries{
			Name:    g.name,
			XValues: g.xs,
			YValues: g.ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    color.WithAlpha(200),
				DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
					return dotWidth(sizes[index], maxS)
				},
			},
		})
	}

	c := chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 48}},
		XAxis: chart.XAxis{
			Name:           xName,
			Range:          paddedRange(allX, false),
			ValueFormatter: formatTick,
		},
		YAxis: chart.YAxis{
			Name:           yName,
			Range:          paddedRange(allY, false),
			ValueFormatter: formatTick,
		},
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.LegendThin(&c)}
	return r.svg(c)
}

// dotWidth scales by area so a value four times larger gets twice the radius.
func dotWidth(v, maxV float64) float64 {
	if v <= 0 || maxV <= 0 {
		return minDotWidth
	}
	return math.Max(minDotWidth, maxDotWidth*math.Sqrt(v/maxV))
}
