package web

import (
	"net/http"
	"strconv"

	"retail-erp/internal/app"
	"retail-erp/internal/core"

	"github.com/go-chi/chi/v5"
)

// ── Draft JSON API ────────────────────────────────────────────────────────────
//
// sales.js keeps the order form's totals live through these endpoints. Every
// response carries the whole draft so the client never computes totals itself.

type draftLineJSON struct {
	core.LineItem
	Index     int    `json:"index"`
	LineTotal string `json:"line_total"`
}

type draftJSON struct {
	Header core.OrderHeader `json:"header"`
	Items  []draftLineJSON  `json:"items"`
	Total  string           `json:"total"`
}

func toDraftJSON(d *app.DraftResult) draftJSON {
	out := draftJSON{Header: d.Header, Total: core.To2(d.Total), Items: make([]draftLineJSON, len(d.Lines))}
	for i, l := range d.Lines {
		out.Items[i] = draftLineJSON{Index: l.Index, LineItem: l.Item, LineTotal: core.To2(l.Total)}
	}
	return out
}

func (h *Handler) writeDraft(w http.ResponseWriter, r *http.Request, d *app.DraftResult, err error) {
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, toDraftJSON(d))
}

// lineIndex parses the {idx} URL parameter; malformed values become -1 so the
// draft reports them as a missing line.
func lineIndex(r *http.Request) int {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		return -1
	}
	return idx
}

// apiDraft handles GET /api/draft.
func (h *Handler) apiDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Draft(r.Context(), sessionFromContext(r.Context()))
	h.writeDraft(w, r, d, err)
}

// apiAddDraftLine handles POST /api/draft/items: appends a blank line.
func (h *Handler) apiAddDraftLine(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.AddDraftLine(r.Context(), sessionFromContext(r.Context()))
	h.writeDraft(w, r, d, err)
}

// apiSetDraftLine handles PATCH /api/draft/items/{idx} with {"field": ..., "value": ...}.
func (h *Handler) apiSetDraftLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.SetDraftLine(r.Context(), sessionFromContext(r.Context()), app.SetLineRequest{
		Index: lineIndex(r),
		Field: req.Field,
		Value: req.Value,
	})
	h.writeDraft(w, r, d, err)
}

// apiRemoveDraftLine handles DELETE /api/draft/items/{idx}.
func (h *Handler) apiRemoveDraftLine(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.RemoveDraftLine(r.Context(), sessionFromContext(r.Context()), lineIndex(r))
	h.writeDraft(w, r, d, err)
}

// apiAssistDraft handles POST /api/draft/assist with {"text": "..."}.
// Returns 503 when no assistant is configured.
func (h *Handler) apiAssistDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, r, "text is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	res, err := h.svc.AssistDraft(r.Context(), sessionFromContext(r.Context()), req.Text)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	type response struct {
		Clarification string    `json:"clarification,omitempty"`
		Added         int       `json:"added"`
		Notes         []string  `json:"notes,omitempty"`
		Message       string    `json:"message,omitempty"`
		Draft         draftJSON `json:"draft"`
	}
	writeJSON(w, response{
		Clarification: res.Clarification,
		Added:         res.Added,
		Notes:         res.Notes,
		Message:       res.Message,
		Draft:         toDraftJSON(res.Draft),
	})
}
