package web

import (
	"bytes"
	"net/http"

	"retail-erp/internal/app"
	"retail-erp/internal/export"
	"retail-erp/internal/logger"

	"go.uber.org/zap"
)

type dashboardPage struct {
	Range  app.DateRange
	Result *app.DashboardResult
}

// dashboardPage handles GET /dashboard. Without from/to it only shows the default
// range (month start to today); with either it runs the summary.
func (h *Handler) dashboardPage(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Dashboard", "dashboard")
	q := r.URL.Query()
	if q.Get("warn") == "lists" {
		d.Flash(app.ListsUnavailable, flashWarning)
	}

	page := dashboardPage{Range: h.svc.DefaultRange()}
	if !q.Has("from") && !q.Has("to") {
		h.render(w, r, http.StatusOK, pageDashboard, d, page)
		return
	}

	page.Range = app.DateRange{From: q.Get("from"), To: q.Get("to")}
	status := http.StatusOK
	res, err := h.svc.Dashboard(r.Context(), sessionFromContext(r.Context()), page.Range)
	if err != nil {
		d.Flash(err.Error(), flashError)
		status = failStatus(err)
	}
	if res != nil {
		page.Result = res
		page.Range = res.Range
		d.Flash(res.Message, flashSuccess)
	}
	h.render(w, r, status, pageDashboard, d, page)
}

// remainingCSV handles GET /dashboard/remaining.csv?to=YYYY-MM-DD.
func (h *Handler) remainingCSV(w http.ResponseWriter, r *http.Request) {
	h.remainingDownload(w, r, "csv", export.ContentTypeCSV, func(buf *bytes.Buffer, res *app.RemainingResult) error {
		return export.WriteRemainingCSV(buf, res.Rows)
	})
}

// remainingXLSX handles GET /dashboard/remaining.xlsx?to=YYYY-MM-DD.
func (h *Handler) remainingXLSX(w http.ResponseWriter, r *http.Request) {
	h.remainingDownload(w, r, "xlsx", export.ContentTypeXLSX, func(buf *bytes.Buffer, res *app.RemainingResult) error {
		return export.WriteRemainingXLSX(buf, res.Rows, res.AsOf)
	})
}

func (h *Handler) remainingDownload(w http.ResponseWriter, r *http.Request, ext, contentType string,
	write func(*bytes.Buffer, *app.RemainingResult) error) {
	res, err := h.svc.RemainingInventory(r.Context(), sessionFromContext(r.Context()), r.URL.Query().Get("to"))
	if err != nil {
		_, status := classify(err)
		http.Error(w, err.Error(), status)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, res); err != nil {
		logger.FromContext(r.Context()).Error("failed to write remaining inventory export",
			zap.String("format", ext), zap.Error(err))
		http.Error(w, app.OpExport+": "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.RemainingFilename(res.AsOf, ext)+`"`)
	_, _ = buf.WriteTo(w)
}
