package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	charts    *charts.Renderer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewSSEHandlers wires the Datastar endpoints. metrics may be nil.
func NewSSEHandlers(dashboard *services.Dashboard, renderer *charts.Renderer, metrics *observability.Metrics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		charts:    renderer,
		metrics:   metrics,
		logger:    logger,
	}
}

func (h *SSEHandlers) open(w http.ResponseWriter, r *http.Request) (*datastar.ServerSentEventGenerator, func()) {
	sse := datastar.NewSSE(w, r)
	if h.metrics == nil {
		return sse, func() {}
	}
	h.metrics.SSEOpened()
	return sse, h.metrics.SSEClosed
}

// HandleDashboard runs one render pass for the signalled selection and
// patches every fragment of the page.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sse, done := h.open(w, r)
	defer done()
	ctx := r.Context()

	sel, err := parseSelection(r)
	if err != nil {
		h.patchError(ctx, sse, err)
		return
	}

	report, err := h.dashboard.Report(ctx, sel)
	if err != nil {
		h.patchError(ctx, sse, err)
		return
	}

	options, err := h.dashboard.Options(sel.Field)
	if err != nil {
		h.patchError(ctx, sse, err)
		return
	}

	// Panels that failed come back as placeholders; the rest of the page
	// still updates.
	svgs, err := h.charts.RenderAll(report)
	if err != nil {
		h.logger.Error("render dashboard charts", "error", err, "request_id", observability.GetRequestID(ctx))
	}

	fragments := []templ.Component{
		templates.Alert(""),
		templates.Summary(report.FilteredRows, report.TotalRows),
		templates.SampleTable(report.Sample),
		templates.KPICards(report.KPI),
		templates.ValuesSelect(sel.Field.String(), options, sel.Values),
	}
	for _, p := range charts.Panels {
		fragments = append(fragments, templates.ChartPanel(p, svgs[p]))
	}

	for _, c := range fragments {
		if err := h.patch(ctx, sse, c); err != nil {
			h.logger.Error("patch dashboard fragment", "error", err)
			return
		}
	}

	signals, err := json.Marshal(map[string]any{
		"filteredRows":   report.FilteredRows,
		"totalRows":      report.TotalRows,
		"distribution":   report.Distribution,
		"categoryProfit": report.CategoryProfit,
		"salesTrend":     report.Trend,
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.Error("patch dashboard signals", "error", err)
	}
}

// HandleOptions refreshes the values multiselect after the categorical field
// changed and clears the selected values.
func (h *SSEHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	sse, done := h.open(w, r)
	defer done()
	ctx := r.Context()

	field, err := parseField(r)
	if err != nil {
		h.patchError(ctx, sse, err)
		return
	}

	options, err := h.dashboard.Options(field)
	if err != nil {
		h.patchError(ctx, sse, err)
		return
	}

	if err := h.patch(ctx, sse, templates.ValuesSelect(field.String(), options, nil)); err != nil {
		h.logger.Error("patch values select", "error", err)
		return
	}
	if err := sse.PatchSignals([]byte(`{"values":[]}`)); err != nil {
		h.logger.Error("patch values signal", "error", err)
	}
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, c templ.Component) error {
	html, err := templates.Render(ctx, c)
	if err != nil {
		return err
	}
	return sse.PatchElements(html)
}

// patchError shows err in the alert area. The stream itself already
// answered 200, so the error cannot change the status code.
func (h *SSEHandlers) patchError(ctx context.Context, sse *datastar.ServerSentEventGenerator, err error) {
	appErr := errors.FromDomain(serviceError(err))
	appErr.RequestID = observability.GetRequestID(ctx)

	level := slog.LevelError
	if appErr.StatusCode < 500 {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "dashboard update failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"request_id", appErr.RequestID,
		"cause", appErr.Cause,
	)

	message := appErr.Message
	if appErr.Details != "" {
		message += ": " + appErr.Details
	}
	if err := h.patch(ctx, sse, templates.Alert(message)); err != nil {
		h.logger.Error("patch alert", "error", err)
	}
}
