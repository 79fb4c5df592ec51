package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
)

// ErrNotLoaded is returned by queries issued before any dataset was installed.
var ErrNotLoaded = errors.New("dataset not loaded")

// Dashboard owns the immutable base table and runs render passes over it.
type Dashboard struct {
	mu       sync.RWMutex
	table    *sales.Table
	source   string
	loadedAt time.Time
	cached   bool

	cache      datasetCache
	sampleSize int
	group      singleflight.Group
	reports    atomic.Int64
	shared     atomic.Int64

	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// NewDashboard builds a service from the data section of the configuration.
// logger and metrics may be nil.
func NewDashboard(cfg config.DataConfig, logger *slog.Logger, metrics *observability.Metrics) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		cache:      datasetCache{dir: cfg.CacheDir},
		sampleSize: cfg.SampleSize,
		logger:     logger,
		metrics:    metrics,
		tracer:     observability.NewTracer(logger, metrics),
	}
}

// SetTable installs t as the base table.
func (d *Dashboard) SetTable(t *sales.Table) {
	d.install(t, "memory", false)
}

func (d *Dashboard) install(t *sales.Table, source string, cached bool) {
	d.mu.Lock()
	d.table = t
	d.source = source
	d.cached = cached
	d.loadedAt = time.Now()
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.SetDatasetRows(t.Len())
	}
}

// Table returns the current base table or nil before a load.
func (d *Dashboard) Table() *sales.Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.table
}

// LoadFromFile reads path into the base table, reusing the parse cache when
// it matches the file on disk.
func (d *Dashboard) LoadFromFile(ctx context.Context, path string) (err error) {
	ctx, span := d.tracer.Start(ctx, "load")
	span.SetTag("source", path)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	info, err := os.Stat(path)
	if err != nil {
		return &sales.LoadError{Path: path, Err: err}
	}

	if d.cache.enabled() {
		records, cacheErr := d.cache.load(path, info)
		if cacheErr == nil {
			d.cacheResult(true)
			d.install(sales.NewTable(records), path, true)
			d.logger.Info("loaded dataset from cache", "source", path, "records", len(records))
			return nil
		}
		d.cacheResult(false)
		d.logger.Debug("dataset cache unusable", "source", path, "error", cacheErr)
	}

	start := time.Now()
	table, err := sales.Load(ctx, path)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	d.install(table, path, false)
	d.logger.Info("dataset loaded",
		"source", path,
		"records", table.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(table.Len())/max(duration.Seconds(), 1e-9)))

	if d.cache.enabled() {
		if err := d.cache.save(path, info, table.Records()); err != nil {
			d.logger.Warn("failed to save dataset cache", "source", path, "error", err)
		}
	}

	return nil
}

func (d *Dashboard) cacheResult(hit bool) {
	if d.metrics == nil {
		return
	}
	if hit {
		d.metrics.CacheHit()
	} else {
		d.metrics.CacheMiss()
	}
}

// Report runs one render pass. Concurrent calls with the same selection share
// a single computation and therefore the same sampled rows; each caller still
// gets its own Report whose Selection is the one it asked for.
func (d *Dashboard) Report(ctx context.Context, sel sales.Selection) (*sales.Report, error) {
	base := d.Table()
	if base == nil {
		return nil, ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := d.group.DoChan(sel.Key(), func() (any, error) {
		return d.buildReport(ctx, base, sel)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			d.shared.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		report := *res.Val.(*sales.Report)
		report.Selection = sel
		return &report, nil
	}
}

func (d *Dashboard) buildReport(ctx context.Context, base *sales.Table, sel sales.Selection) (_ *sales.Report, err error) {
	_, span := d.tracer.Start(ctx, "report")
	span.SetTag("numeric", sel.Numeric.String())
	span.SetTag("field", sel.Field.String())
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	report, err := sales.BuildReport(base, sel, d.sampleSize, nil)
	if err != nil {
		return nil, err
	}

	d.reports.Add(1)
	if d.metrics != nil {
		d.metrics.ObserveFilteredRows(report.FilteredRows)
	}
	return report, nil
}

// Options lists the values offered by the multiselect for field.
func (d *Dashboard) Options(field sales.CategoricalField) ([]string, error) {
	base := d.Table()
	if base == nil {
		return nil, ErrNotLoaded
	}
	return base.Distinct(field)
}

func (d *Dashboard) Ready() bool {
	return d.Table() != nil
}

// Stats reports the state of the loaded dataset for monitoring.
func (d *Dashboard) Stats() map[string]any {
	d.mu.RLock()
	table, source, loadedAt, cached := d.table, d.source, d.loadedAt, d.cached
	d.mu.RUnlock()

	stats := map[string]any{
		"loaded":         table != nil,
		"record_count":   table.Len(),
		"source":         source,
		"from_cache":     cached,
		"reports_served": d.reports.Load(),
		"reports_shared": d.shared.Load(),
	}
	if table == nil {
		return stats
	}

	stats["loaded_at"] = loadedAt
	for _, field := range sales.CategoricalFields {
		values, err := table.Distinct(field)
		if err != nil {
			continue
		}
		stats["distinct_"+field.String()] = len(values)
	}
	return stats
}
