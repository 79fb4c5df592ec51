package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/config"
)

func TestNewLoggerTo(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggerConfig
		wantDebug bool
		wantJSON  bool
	}{
		{"json info", config.LoggerConfig{Level: "info", Format: "json"}, false, true},
		{"text debug", config.LoggerConfig{Level: "debug", Format: "text"}, true, false},
		{"unknown format falls back to json", config.LoggerConfig{Level: "warn", Format: "xml"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerTo(&buf, tt.cfg)

			logger.Debug("debug line")
			logger.Error("error line", "k", "v")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"))
			assert.Contains(t, out, "error line")
			assert.Equal(t, tt.wantJSON, strings.HasPrefix(out, "{"))
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "abc")
	assert.Equal(t, "abc", GetRequestID(ctx))

	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "info", Format: "json"})
	LoggerFrom(ctx, logger).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)
}

func TestSpans_Nest(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "request")
	_, child := StartSpan(ctx, "report")

	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.NotEqual(t, root.SpanID, child.SpanID)

	child.SetError(errors.New("boom"))
	assert.Equal(t, SpanStatusError, child.Status)
	assert.Equal(t, "boom", child.Error)
}

func TestTracer_RecordsStage(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "debug", Format: "json"})
	metrics := NewMetrics()
	tracer := NewTracer(logger, metrics)

	_, span := tracer.Start(context.Background(), "report")
	span.SetTag("field", "Category")
	span.Finish()

	assert.Contains(t, buf.String(), `"operation":"report"`)
	assert.Contains(t, buf.String(), `"field":"Category"`)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.stageDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest(http.MethodGet, "/api/kpi", http.StatusOK, 5*time.Millisecond)
	m.SetDatasetRows(42)
	m.CacheHit()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/kpi", "200")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.datasetRows))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sales_dashboard_dataset_rows 42")
	assert.Contains(t, w.Body.String(), `sales_dashboard_dataset_cache_lookups_total{result="hit"} 1`)
}
