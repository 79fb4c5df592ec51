package handlers

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/exporter"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/sales"
	"sales-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	dashboard *services.Dashboard
	charts    *charts.Renderer
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, renderer *charts.Renderer, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		charts:    renderer,
		logger:    logger,
	}
}

// serviceError maps service-level errors that the errors package does not
// know about.
func serviceError(err error) error {
	if stderrors.Is(err, services.ErrNotLoaded) {
		return errors.ServiceUnavailable("Dataset is not loaded yet")
	}
	return err
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, serviceError(err), observability.GetRequestID(r.Context()))
}

// report parses the selection and runs one render pass. On failure the error
// response has already been written.
func (h *APIHandlers) report(w http.ResponseWriter, r *http.Request) (*sales.Report, bool) {
	sel, err := parseSelection(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	report, err := h.dashboard.Report(r.Context(), sel)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return report, true
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, r, report)
}

func (h *APIHandlers) HandleKPI(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}

	errors.WriteSuccess(w, r, map[string]any{
		"kpi":           report.KPI,
		"filtered_rows": report.FilteredRows,
		"total_rows":    report.TotalRows,
	})
}

func (h *APIHandlers) HandleCategoryDistribution(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, r, report.Distribution)
}

func (h *APIHandlers) HandleCategoryProfit(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, r, report.CategoryProfit)
}

func (h *APIHandlers) HandleSalesTrend(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, r, report.Trend)
}

func (h *APIHandlers) HandleQuantityProfit(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, r, report.QuantityProfit)
}

func (h *APIHandlers) HandleAmountProfit(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	errors.WriteSuccess(w, r, report.AmountProfit)
}

// HandleOptions lists the values of a categorical field. The set only
// changes with the dataset, so responses may be cached.
func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	field, err := parseField(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	options, err := h.dashboard.Options(field)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, r, map[string]any{
		"field":  field,
		"values": options,
	}, map[string]string{"Cache-Control": cacheControl})
}

// HandleExport streams the filtered rows as CSV or XLSX.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, errors.ValidationWrap(err, err.Error()))
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}

	// Buffer first so an encoding failure can still become an error response.
	var buf bytes.Buffer
	if err := exporter.Write(&buf, format, report.Filtered); err != nil {
		h.writeError(w, r, errors.InternalWrap(err, "Failed to export rows"))
		return
	}

	name := format.FileName(fmt.Sprintf("sales-%s", time.Now().UTC().Format("20060102-150405")))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write failed", "error", err, "format", format)
	}
}

// HandleChart renders one panel for the selection as a standalone SVG.
func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	panel, ok := charts.ParsePanel(chi.URLParam(r, "panel"))
	if !ok {
		h.writeError(w, r, errors.NotFound(fmt.Sprintf("Unknown chart %q", chi.URLParam(r, "panel"))))
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}

	svg, err := h.charts.Render(panel, report)
	if err != nil {
		h.writeError(w, r, errors.InternalWrap(err, "Failed to render chart"))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(svg); err != nil {
		h.logger.Warn("chart write failed", "error", err, "panel", panel)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.dashboard.Ready() {
		status = "loading"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, r, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.dashboard.Stats())
}
