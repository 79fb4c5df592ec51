// Command report prints the dashboard for one selection to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const (
	colorOrange lipgloss.Color = "#FFA500"
	colorRed    lipgloss.Color = "#FF0000"
	colorMuted  lipgloss.Color = "#888888"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorOrange).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(colorRed)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorOrange).MarginTop(1)
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).BorderForeground(colorOrange).
			Padding(0, 2).Width(22).Align(lipgloss.Center)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", config.Default().Data.File, "CSV or XLSX dataset")
	numeric := fs.String("numeric", sales.FieldAmount.String(), "measure for the KPI cards")
	field := fs.String("field", sales.FieldCategory.String(), "categorical field to filter on")
	values := fs.String("values", "", "comma-separated values of -field to keep; empty keeps all")
	sample := fs.Int("sample", sales.DefaultSampleSize, "rows in the sampled table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel, err := selection(*numeric, *field, *values)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	dashboard := services.NewDashboard(config.DataConfig{SampleSize: max(*sample, 0)}, logger, nil)
	if err := dashboard.LoadFromFile(ctx, *file); err != nil {
		return err
	}

	report, err := dashboard.Report(ctx, sel)
	if err != nil {
		return err
	}

	_, err = io.WriteString(stdout, render(report))
	return err
}

func selection(numeric, field, values string) (sales.Selection, error) {
	n, err := sales.ParseNumericField(numeric)
	if err != nil {
		return sales.Selection{}, err
	}
	f, err := sales.ParseCategoricalField(field)
	if err != nil {
		return sales.Selection{}, err
	}

	var vals []string
	for _, v := range strings.Split(values, ",") {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}
	return sales.Selection{Numeric: n, Field: f, Values: vals}, nil
}

func render(report *sales.Report) string {
	var b strings.Builder
	sel := report.Selection

	b.WriteString(titleStyle.Render("Sales Analyses") + "\n")
	filter := "all values"
	if len(sel.Values) > 0 {
		filter = strings.Join(sel.Values, ", ")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s: %s | showing %d of %d rows",
		sel.Field, filter, report.FilteredRows, report.TotalRows)) + "\n")

	kpi := report.KPI
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render("Total of "+kpi.Field+"\n"+templates.FormatTotal(kpi.Sum)),
		cardStyle.Render(fmt.Sprintf("Count of %s\n%d", kpi.Field, kpi.Count)),
		cardStyle.Render("Avg of "+kpi.Field+"\n"+templates.FormatMean(kpi.Mean)),
	) + "\n")

	rows := make([][]string, len(report.Distribution))
	for i, c := range report.Distribution {
		rows[i] = []string{c.Category, fmt.Sprint(c.Count)}
	}
	section(&b, "Goods distribution by category", []string{"Category", "Rows"}, rows)

	rows = make([][]string, len(report.CategoryProfit))
	for i, c := range report.CategoryProfit {
		rows[i] = []string{c.Category, c.Profit.String()}
	}
	section(&b, "Total profit by category", []string{"Category", "Profit"}, rows)

	rows = make([][]string, len(report.Trend))
	for i, p := range report.Trend {
		rows[i] = []string{p.YearMonth, p.Amount.String()}
	}
	section(&b, "Sales trend", []string{"Year-Month", "Amount"}, rows)

	rows = make([][]string, len(report.Sample))
	for i, r := range report.Sample {
		rows[i] = []string{r.OrderID, r.Category, r.SubCategory, r.State, r.City, r.CustomerName, r.Quantity, r.Amount, r.Profit, r.YearMonth}
	}
	section(&b, "Sample", []string{"Order ID", "Category", "Sub-Category", "State", "City", "CustomerName", "Quantity", "Amount", "Profit", "Year-Month"}, rows)

	return b.String()
}

// section writes a heading and a left-aligned table sized to its widest cells.
func section(b *strings.Builder, title string, header []string, rows [][]string) {
	b.WriteString(headingStyle.Render(title) + "\n")
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("No data for this selection") + "\n")
		return
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, bold bool) {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			style := cellStyle.Width(widths[i] + 2)
			if bold {
				style = style.Bold(true)
			}
			rendered[i] = style.Render(cell)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, rendered...), " ") + "\n")
	}

	line(header, true)
	for _, row := range rows {
		line(row, false)
	}
}
