package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

func newTestSSE() *SSEHandlers {
	return NewSSEHandlers(createTestDashboard(), charts.NewRenderer(), nil, testLogger())
}

func checkSSEHeaders(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected cache-control 'no-cache', got %q", cc)
	}
}

func TestSSEHandlers_HandleDashboard(t *testing.T) {
	handlers := newTestSSE()

	signals := url.QueryEscape(`{"numeric":"Amount","field":"Category","values":["Furniture"]}`)
	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+signals, nil)
	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	checkSSEHeaders(t, w)

	body := w.Body.String()
	expected := []string{
		`id="` + templates.IDAlert + `" class="alert" hidden`,
		"Showing 2 of 4 rows",
		"<td>Chairs</td>",
		"<h4>Total of Amount</h4><h2>300</h2>",
		"<h4>Avg of Amount</h4><h2>150</h2>",
		`<option value="Furniture" selected>Furniture</option>`,
		`<option value="Office">Office</option>`,
		`"filteredRows":2`,
		`"totalRows":4`,
		`"salesTrend":[{"year_month":"2023-01","amount":"300"}]`,
	}
	for _, p := range charts.Panels {
		expected = append(expected, `id="`+templates.ChartID(p)+`"`)
	}
	for _, want := range expected {
		if !strings.Contains(body, want) {
			t.Errorf("expected SSE body to contain %q", want)
		}
	}

	if strings.Contains(body, "<td>Phones</td>") {
		t.Error("filtered-out rows must not appear in the sample")
	}
}

func TestSSEHandlers_HandleDashboard_SingleMonth(t *testing.T) {
	handlers := newTestSSE()

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?field=Category&values=Office", nil)
	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, req)

	body := w.Body.String()
	expected := []string{
		`id="` + templates.IDAlert + `" class="alert" hidden`,
		"Showing 1 of 4 rows",
		"<td>Paper</td>",
		"<h4>Total of Amount</h4><h2>50</h2>",
		">2023-03</text>",
	}
	for _, p := range charts.Panels {
		expected = append(expected, `id="`+templates.ChartID(p)+`"`)
	}
	for _, want := range expected {
		if !strings.Contains(body, want) {
			t.Errorf("expected SSE body to contain %q", want)
		}
	}
	for _, unwanted := range []string{`role="alert"`, "Chart could not be drawn"} {
		if strings.Contains(body, unwanted) {
			t.Errorf("expected SSE body not to contain %q", unwanted)
		}
	}
}

func TestSSEHandlers_HandleDashboard_DegenerateCharts(t *testing.T) {
	d := services.NewDashboard(config.DataConfig{SampleSize: 6}, testLogger(), nil)
	d.SetTable(sales.NewTable([]models.Record{
		{Category: "Toys & Games", SubCategory: "B<x>", State: "Texas", City: "Austin", CustomerName: "Ann",
			Quantity: amount("0"), Amount: amount("0"), Profit: amount("0"), YearMonth: "2023-01"},
		{Category: "Toys & Games", SubCategory: "B<x>", State: "Texas", City: "Austin", CustomerName: "Bob",
			Quantity: amount("0"), Amount: amount("0"), Profit: amount("0"), YearMonth: "2023-01"},
	}))
	handlers := NewSSEHandlers(d, charts.NewRenderer(), nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?field=Sub-Category", nil)
	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, req)

	checkSSEHeaders(t, w)
	body := w.Body.String()
	for _, want := range []string{
		"Showing 2 of 2 rows",
		"<h4>Total of Amount</h4><h2>0</h2>",
		"Toys &amp; Games",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected SSE body to contain %q", want)
		}
	}
	for _, p := range charts.Panels {
		if !strings.Contains(body, `id="`+templates.ChartID(p)+`"`) {
			t.Errorf("expected chart %s to be patched", p)
		}
	}
	for _, unwanted := range []string{"<x>", "Toys & Games", `role="alert"`} {
		if strings.Contains(body, unwanted) {
			t.Errorf("expected SSE body not to contain %q", unwanted)
		}
	}
}

func TestSSEHandlers_HandleDashboard_QueryParams(t *testing.T) {
	handlers := newTestSSE()

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?numeric=Quantity&field=State&values=Texas", nil)
	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, req)

	body := w.Body.String()
	for _, want := range []string{"Total of Quantity", "<h2>12</h2>", "Select State:"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected SSE body to contain %q", want)
		}
	}
}

func TestSSEHandlers_HandleDashboard_InvalidField(t *testing.T) {
	handlers := newTestSSE()

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?field=Categroy", nil)
	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, req)

	checkSSEHeaders(t, w)
	body := w.Body.String()
	if !strings.Contains(body, `role="alert"`) {
		t.Fatal("expected an alert patch")
	}
	if !strings.Contains(body, "did you mean &#34;Category&#34;?") {
		t.Errorf("expected suggestion in alert, got %q", body)
	}
	if strings.Contains(body, `id="`+templates.IDKPIs+`"`) {
		t.Error("no dashboard fragments should be patched after a validation failure")
	}
}

func TestSSEHandlers_HandleDashboard_NotLoaded(t *testing.T) {
	handlers := NewSSEHandlers(services.NewDashboard(config.DataConfig{}, testLogger(), nil), charts.NewRenderer(), nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard", nil)
	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, req)

	if !strings.Contains(w.Body.String(), "Dataset is not loaded yet") {
		t.Errorf("expected not-loaded alert, got %q", w.Body.String())
	}
}

func TestSSEHandlers_HandleOptions(t *testing.T) {
	handlers := newTestSSE()

	signals := url.QueryEscape(`{"numeric":"Amount","field":"Sub-Category","values":["Furniture"]}`)
	req := httptest.NewRequest(http.MethodGet, "/sse/options?datastar="+signals, nil)
	w := httptest.NewRecorder()
	handlers.HandleOptions(w, req)

	checkSSEHeaders(t, w)
	body := w.Body.String()

	for _, want := range []string{
		"Select Sub-Category:",
		`<option value="Chairs">Chairs</option>`,
		`<option value="Paper">Paper</option>`,
		`{"values":[]}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected SSE body to contain %q", want)
		}
	}
	if strings.Contains(body, " selected>") {
		t.Error("options refresh must clear the selection")
	}
}

func TestSSEHandlers_TracksConnections(t *testing.T) {
	metrics := observability.NewMetrics()
	handlers := NewSSEHandlers(createTestDashboard(), charts.NewRenderer(), metrics, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/options?field=State", nil)
	w := httptest.NewRecorder()
	handlers.HandleOptions(w, req)

	want := `
# HELP sales_dashboard_sse_connections Open server-sent event streams.
# TYPE sales_dashboard_sse_connections gauge
sales_dashboard_sse_connections 0
`
	if err := testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(want), "sales_dashboard_sse_connections"); err != nil {
		t.Errorf("unexpected gauge: %v", err)
	}
}
