// Package charts renders the dashboard's five chart panels as SVG.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sales-dashboard/internal/sales"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 400

	emptyMessage  = "No data for this selection"
	failedMessage = "Chart could not be drawn"
)

// Palette is the orange theme shared by every panel.
var Palette = []drawing.Color{
	drawing.ColorFromHex("FFA500"),
	drawing.ColorFromHex("FF8C00"),
	drawing.ColorFromHex("FF7F50"),
	drawing.ColorFromHex("FFB347"),
}

func paletteColor(i int) drawing.Color {
	return Palette[i%len(Palette)]
}

// Panel identifies one chart on the page.
type Panel string

const (
	PanelDistribution    Panel = "category-distribution"
	PanelProfit          Panel = "category-profit"
	PanelTrend           Panel = "sales-trend"
	PanelQuantityScatter Panel = "quantity-profit"
	PanelAmountScatter   Panel = "amount-profit"
)

// Panels lists the charts in page order.
var Panels = []Panel{PanelDistribution, PanelProfit, PanelTrend, PanelQuantityScatter, PanelAmountScatter}

func (p Panel) Title() string {
	switch p {
	case PanelDistribution:
		return "Goods distribution by category"
	case PanelProfit:
		return "Total profit by category"
	case PanelTrend:
		return "Sales Trend Over Time"
	case PanelQuantityScatter:
		return "Quantity vs Profit"
	case PanelAmountScatter:
		return "Amount vs Profit by Category"
	default:
		return string(p)
	}
}

// ParsePanel accepts the panel identifiers used in URLs.
func ParsePanel(s string) (Panel, bool) {
	for _, p := range Panels {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

type Renderer struct {
	Width  int
	Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: DefaultWidth, Height: DefaultHeight}
}

// Render draws panel p from report.
func (r *Renderer) Render(p Panel, report *sales.Report) ([]byte, error) {
	switch p {
	case PanelDistribution:
		return r.Distribution(report.Distribution)
	case PanelProfit:
		return r.Profit(report.CategoryProfit)
	case PanelTrend:
		return r.Trend(report.Trend)
	case PanelQuantityScatter:
		return r.QuantityProfit(report.QuantityProfit)
	case PanelAmountScatter:
		return r.AmountProfit(report.AmountProfit)
	default:
		return nil, fmt.Errorf("unknown chart panel %q", p)
	}
}

// RenderAll draws every panel, keyed by panel. A panel that fails to draw
// gets the Failed placeholder; the map is always complete and the returned
// error joins the individual failures.
func (r *Renderer) RenderAll(report *sales.Report) (map[Panel][]byte, error) {
	out := make(map[Panel][]byte, len(Panels))
	var errs []error
	for _, p := range Panels {
		svg, err := r.Render(p, report)
		if err != nil {
			errs = append(errs, fmt.Errorf("render %s: %w", p, err))
			svg = r.Failed(p.Title())
		}
		out[p] = svg
	}
	return out, errors.Join(errs...)
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func (r *Renderer) svg(c renderable) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(escapedSVG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// escapedSVG is chart.SVG with text escaped on output. go-chart writes text
// bodies verbatim, and labels come from the dataset. Wrapping and measuring
// still see the raw text, so an entity is never split across lines.
func escapedSVG(width, height int) (chart.Renderer, error) {
	r, err := chart.SVG(width, height)
	if err != nil {
		return nil, err
	}
	return escapingRenderer{r}, nil
}

type escapingRenderer struct {
	chart.Renderer
}

func (r escapingRenderer) Text(body string, x, y int) {
	r.Renderer.Text(html.EscapeString(body), x, y)
}

// Empty returns the placeholder shown when a selection has no rows.
func (r *Renderer) Empty(title string) []byte {
	return r.placeholder(title, emptyMessage)
}

// Failed returns the placeholder shown in place of a panel that errored.
func (r *Renderer) Failed(title string) []byte {
	return r.placeholder(title, failedMessage)
}

func (r *Renderer) placeholder(title, message string) []byte {
	return fmt.Appendf(nil,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<text x="50%%" y="30" text-anchor="middle" font-family="Arial, sans-serif" font-size="16">%s</text>`+
			`<text x="50%%" y="50%%" text-anchor="middle" font-family="Arial, sans-serif" font-size="14" fill="#888">%s</text>`+
			`</svg>`,
		r.Width, r.Height, r.Width, r.Height, html.EscapeString(title), html.EscapeString(message))
}

func (r *Renderer) background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// paddedRange returns a range enclosing values with some margin. Flat or
// single-valued data still yields a non-zero span.
func paddedRange(values []float64, includeZero bool) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if includeZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}

	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(hi), 1)
	}
	pad := span * 0.08
	if !includeZero || lo < 0 {
		lo -= pad
	}
	hi += pad
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// formatSI renders v with two significant digits and an SI suffix, e.g. 12k.
func formatSI(v float64) string {
	av := math.Abs(v)
	suffixes := []struct {
		scale  float64
		suffix string
	}{
		{1e9, "G"},
		{1e6, "M"},
		{1e3, "k"},
	}
	for _, s := range suffixes {
		if av >= s.scale {
			return strconv.FormatFloat(roundSig(v/s.scale, 2), 'f', -1, 64) + s.suffix
		}
	}
	return strconv.FormatFloat(roundSig(v, 2), 'f', -1, 64)
}

func roundSig(v float64, digits int) float64 {
	if v == 0 {
		return 0
	}
	mag := math.Pow(10, float64(digits)-math.Ceil(math.Log10(math.Abs(v))))
	return math.Round(v*mag) / mag
}

func formatTick(v any) string {
	if f, ok := v.(float64); ok {
		return formatSI(f)
	}
	return fmt.Sprint(v)
}
