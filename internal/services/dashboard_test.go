package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
)

const testCSV = `Order ID,Amount,Profit,Quantity,Category,Sub-Category,PaymentMode,Order Date,CustomerName,State,City,Year-Month
A-1,100,10,1,Furniture,Chairs,UPI,2023-01-05,Ann,Texas,Austin,2023-01
A-2,200,20,2,Furniture,Tables,Card,2023-01-09,Bob,Ohio,Dayton,2023-01
A-3,50,5,3,Office,Paper,COD,2023-02-01,Cid,Texas,Austin,2023-02
A-4,400,100,4,Office,Pens,UPI,2023-03-12,Dee,Utah,Provo,2023-03
`

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestDashboard(t *testing.T, cacheDir string) *Dashboard {
	t.Helper()
	return NewDashboard(config.DataConfig{CacheDir: cacheDir, SampleSize: 2}, nil, observability.NewMetrics())
}

func TestNewDashboard(t *testing.T) {
	d := NewDashboard(config.DataConfig{}, nil, nil)
	if d == nil {
		t.Fatal("NewDashboard() returned nil")
	}
	if d.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
	if d.Ready() {
		t.Error("new dashboard should not be ready")
	}
	if _, err := d.Report(context.Background(), sales.DefaultSelection()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Report() error = %v, want ErrNotLoaded", err)
	}
	if _, err := d.Options(sales.FieldCategory); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Options() error = %v, want ErrNotLoaded", err)
	}
}

func TestDashboard_LoadFromFile(t *testing.T) {
	d := newTestDashboard(t, "")
	path := createTempCSV(t, testCSV)

	if err := d.LoadFromFile(context.Background(), path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if !d.Ready() {
		t.Fatal("dashboard should be ready after load")
	}
	if got := d.Table().Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}

	stats := d.Stats()
	if stats["record_count"] != 4 {
		t.Errorf("record_count = %v, want 4", stats["record_count"])
	}
	if stats["source"] != path {
		t.Errorf("source = %v, want %s", stats["source"], path)
	}
	if stats["distinct_State"] != 3 {
		t.Errorf("distinct_State = %v, want 3", stats["distinct_State"])
	}
}

func TestDashboard_LoadFromFileErrors(t *testing.T) {
	tests := []struct {
		name         string
		path         func(t *testing.T) string
		wantNotExist bool
	}{
		{
			name:         "missing file",
			path:         func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			wantNotExist: true,
		},
		{
			name: "missing columns",
			path: func(t *testing.T) string { return createTempCSV(t, "Category,Amount\nA,1\n") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDashboard(t, "")
			err := d.LoadFromFile(context.Background(), tt.path(t))

			var loadErr *sales.LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("error = %v, want *sales.LoadError", err)
			}
			if got := errors.Is(err, os.ErrNotExist); got != tt.wantNotExist {
				t.Errorf("errors.Is(ErrNotExist) = %v, want %v", got, tt.wantNotExist)
			}
			if d.Ready() {
				t.Error("failed load must not install a table")
			}
		})
	}
}

func TestDashboard_Cache(t *testing.T) {
	cacheDir := t.TempDir()
	path := createTempCSV(t, testCSV)

	first := newTestDashboard(t, cacheDir)
	if err := first.LoadFromFile(context.Background(), path); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.Stats()["from_cache"] != false {
		t.Error("first load should parse the file")
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache dir entries = %v (err %v), want exactly one", entries, err)
	}

	second := newTestDashboard(t, cacheDir)
	if err := second.LoadFromFile(context.Background(), path); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.Stats()["from_cache"] != true {
		t.Error("second load should come from cache")
	}

	want := first.Table().At(3)
	got := second.Table().At(3)
	if !got.Profit.Decimal.Equal(want.Profit.Decimal) || got.CustomerName != want.CustomerName || !got.OrderDate.Equal(want.OrderDate) {
		t.Errorf("cached record = %+v, want %+v", got, want)
	}

	// Touching the source invalidates the cache.
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	third := newTestDashboard(t, cacheDir)
	if err := third.LoadFromFile(context.Background(), path); err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.Stats()["from_cache"] != false {
		t.Error("modified source should bypass the cache")
	}
}

func TestDashboard_Report(t *testing.T) {
	d := newTestDashboard(t, "")
	if err := d.LoadFromFile(context.Background(), createTempCSV(t, testCSV)); err != nil {
		t.Fatal(err)
	}

	report, err := d.Report(context.Background(), sales.Selection{
		Numeric: sales.FieldProfit,
		Field:   sales.FieldState,
		Values:  []string{"Texas"},
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if report.TotalRows != 4 || report.FilteredRows != 2 {
		t.Errorf("rows = %d/%d, want 2/4", report.FilteredRows, report.TotalRows)
	}
	if report.KPI.Sum.String() != "15" || report.KPI.Count != 2 || report.KPI.Mean != 7.5 {
		t.Errorf("KPI = %+v, want sum 15 count 2 mean 7.5", report.KPI)
	}
	if len(report.Sample) != 2 {
		t.Errorf("sample size = %d, want 2", len(report.Sample))
	}
}

func TestDashboard_ReportEmptySelection(t *testing.T) {
	d := newTestDashboard(t, "")
	if err := d.LoadFromFile(context.Background(), createTempCSV(t, testCSV)); err != nil {
		t.Fatal(err)
	}

	report, err := d.Report(context.Background(), sales.Selection{
		Numeric: sales.FieldAmount,
		Field:   sales.FieldCategory,
		Values:  []string{"Nope"},
	})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.FilteredRows != 0 || report.KPI.Count != 0 || !math.IsNaN(report.KPI.Mean) {
		t.Errorf("empty selection report = %+v", report.KPI)
	}
}

func TestDashboard_ReportErrors(t *testing.T) {
	d := newTestDashboard(t, "")
	d.SetTable(sales.NewTable(nil))

	_, err := d.Report(context.Background(), sales.Selection{Numeric: "Revenue", Field: sales.FieldCategory})
	var fieldErr *sales.InvalidFieldError
	if !errors.As(err, &fieldErr) {
		t.Errorf("error = %v, want *sales.InvalidFieldError", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Report(ctx, sales.DefaultSelection()); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDashboard_ConcurrentReports(t *testing.T) {
	d := newTestDashboard(t, "")
	if err := d.LoadFromFile(context.Background(), createTempCSV(t, testCSV)); err != nil {
		t.Fatal(err)
	}

	const callers = 32
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sel := sales.DefaultSelection()
			if i%2 == 0 {
				sel.Values = []string{"Office"}
			}
			report, err := d.Report(context.Background(), sel)
			if err == nil && report.TotalRows != 4 {
				err = errors.New("unexpected total rows")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Report() error = %v", err)
		}
	}

	served := d.Stats()["reports_served"].(int64)
	if served < 1 || served > callers {
		t.Errorf("reports_served = %d, want between 1 and %d", served, callers)
	}
}

func TestDashboard_ReportKeepsCallerSelection(t *testing.T) {
	d := newTestDashboard(t, "")
	if err := d.LoadFromFile(context.Background(), createTempCSV(t, testCSV)); err != nil {
		t.Fatal(err)
	}

	orders := [][]string{
		{"Office", "Furniture"},
		{"Furniture", "Office"},
		{"Office", "Furniture", "Office"},
	}

	const rounds = 16
	var wg sync.WaitGroup
	errs := make(chan error, rounds*len(orders))
	for range rounds {
		for _, values := range orders {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sel := sales.Selection{Numeric: sales.FieldAmount, Field: sales.FieldCategory, Values: values}
				report, err := d.Report(context.Background(), sel)
				if err != nil {
					errs <- err
					return
				}
				if !slices.Equal(report.Selection.Values, values) {
					errs <- fmt.Errorf("selection values = %v, want %v", report.Selection.Values, values)
					return
				}
				if report.FilteredRows != 4 {
					errs <- fmt.Errorf("filtered rows = %d, want 4", report.FilteredRows)
				}
			}()
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestDashboard_Options(t *testing.T) {
	d := newTestDashboard(t, "")
	if err := d.LoadFromFile(context.Background(), createTempCSV(t, testCSV)); err != nil {
		t.Fatal(err)
	}

	got, err := d.Options(sales.FieldSubCategory)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Chairs", "Tables", "Paper", "Pens"}
	if len(got) != len(want) {
		t.Fatalf("Options() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Options()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := d.Options("Region"); err == nil {
		t.Error("Options() with unknown field should fail")
	}
}
