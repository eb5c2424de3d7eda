package web

import (
	"net/http"
	"strconv"

	"retail-erp/internal/app"
	"retail-erp/internal/core"
	"retail-erp/internal/logger"
	"retail-erp/internal/printing"
	"retail-erp/web/templates/layouts"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type salesPage struct {
	Draft      *app.DraftResult
	Orders     []app.OrderRow
	AssistText string
}

// draftFromForm reads the order form. Line fields are repeated once per line, in order.
func draftFromForm(r *http.Request) app.DraftForm {
	f := app.DraftForm{Header: core.OrderHeader{
		OrderDate:         r.PostFormValue("order_date"),
		LocationID:        r.PostFormValue("location_id"),
		CustomerName:      r.PostFormValue("customer_name"),
		Phone:             r.PostFormValue("phone"),
		Address:           r.PostFormValue("address"),
		DeliveryCompanyID: r.PostFormValue("delivery_company_id"),
		Currency:          r.PostFormValue("currency"),
		PaidAmount:        r.PostFormValue("paid_amount"),
		CashTiming:        r.PostFormValue("cash_timing"),
		Note:              r.PostFormValue("note"),
	}}

	at := func(field string, i int) string {
		if v := r.PostForm[field]; i < len(v) {
			return v[i]
		}
		return ""
	}
	n := len(r.PostForm[core.FieldProductName])
	f.Items = make([]core.LineItem, n)
	for i := range n {
		f.Items[i] = core.LineItem{
			CategoryID:  at(core.FieldCategory, i),
			ProductName: at(core.FieldProductName, i),
			ColorID:     at(core.FieldColor, i),
			SizeID:      at(core.FieldSize, i),
			Qty:         at(core.FieldQty, i),
			UnitPrice:   at(core.FieldUnitPrice, i),
		}
	}
	return f
}

// salesPage handles GET /sales.
func (h *Handler) salesPage(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Sales Order", "sales")
	h.ensureLists(r, &d)
	draft, err := h.svc.Draft(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		d.Flash(err.Error(), flashError)
	}
	h.renderSales(w, r, http.StatusOK, d, salesPage{Draft: draft})
}

// draftSubmit handles POST /sales/draft. The whole form is stored first so no typed
// input is lost, then the requested action runs: add, remove (remove=<index>),
// recalc, clear, assist or save (default).
func (h *Handler) draftSubmit(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Sales Order", "sales")
	if err := r.ParseForm(); err != nil {
		d.Flash("Invalid form submission.", flashError)
		h.renderSales(w, r, http.StatusBadRequest, d, salesPage{})
		return
	}
	h.ensureLists(r, &d)
	ctx := r.Context()
	s := sessionFromContext(ctx)

	page := salesPage{}
	draft, err := h.svc.UpdateDraft(ctx, s, draftFromForm(r))
	if err != nil {
		d.Flash(err.Error(), flashError)
		h.renderSales(w, r, failStatus(err), d, page)
		return
	}
	page.Draft = draft
	status := http.StatusOK

	fail := func(err error) {
		d.Flash(err.Error(), flashError)
		status = failStatus(err)
	}

	action := r.PostFormValue("action")
	if r.PostFormValue("remove") != "" {
		action = "remove"
	}
	switch action {
	case "recalc":
	case "add":
		if res, err := h.svc.AddDraftLine(ctx, s); err != nil {
			fail(err)
		} else {
			page.Draft = res
		}
	case "remove":
		idx, convErr := strconv.Atoi(r.PostFormValue("remove"))
		if convErr != nil {
			idx = -1
		}
		if res, err := h.svc.RemoveDraftLine(ctx, s, idx); err != nil {
			fail(err)
		} else {
			page.Draft = res
		}
	case "clear":
		if res, err := h.svc.ClearDraft(ctx, s); err != nil {
			fail(err)
		} else {
			page.Draft = res
		}
	case "assist":
		page.AssistText = r.PostFormValue("assist_text")
		res, err := h.svc.AssistDraft(ctx, s, page.AssistText)
		if err != nil {
			fail(err)
			break
		}
		page.Draft = res.Draft
		if res.Clarification != "" {
			d.Flash(res.Clarification, flashInfo)
			break
		}
		page.AssistText = ""
		d.Flash(res.Message, flashSuccess)
		for _, n := range res.Notes {
			d.Flash(n, flashWarning)
		}
	default:
		res, err := h.svc.SaveOrder(ctx, s)
		if err != nil {
			fail(err)
			if res != nil {
				page.Draft = res.Draft
			}
			break
		}
		d.Flash(res.Message, flashSuccess)
		page.Draft = res.Draft
	}
	h.renderSales(w, r, status, d, page)
}

func (h *Handler) renderSales(w http.ResponseWriter, r *http.Request, status int, d layouts.AppLayoutData, page salesPage) {
	orders, err := h.svc.RecentOrders(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		d.Flash(err.Error(), flashError)
	} else {
		page.Orders = orders.Orders
	}
	d.Scripts = append(d.Scripts, "sales.js")
	h.render(w, r, status, pageSales, d, page)
}

// orderUpdateSubmit handles POST /sales/orders/{id}: the inline paid/status edit.
func (h *Handler) orderUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Sales Order", "sales")
	if err := r.ParseForm(); err != nil {
		d.Flash("Invalid form submission.", flashError)
		h.renderSales(w, r, http.StatusBadRequest, d, salesPage{})
		return
	}
	h.ensureLists(r, &d)
	ctx := r.Context()
	s := sessionFromContext(ctx)

	status := http.StatusOK
	res, err := h.svc.UpdateOrder(ctx, s, app.UpdateOrderRequest{
		OrderID:    core.ParseID(chi.URLParam(r, "id")),
		PaidAmount: r.PostFormValue("paid_amount"),
		Status:     r.PostFormValue("status"),
	})
	if err != nil {
		d.Flash(err.Error(), flashError)
		status = failStatus(err)
	} else {
		d.Flash(res.Message, flashSuccess)
	}

	draft, err := h.svc.Draft(ctx, s)
	if err != nil {
		d.Flash(err.Error(), flashError)
	}
	h.renderSales(w, r, status, d, salesPage{Draft: draft})
}

// packingSlip handles GET /sales/orders/{id}/packing-slip. The slip is a standalone
// document that prints itself once loaded; ?print=0 suppresses that.
func (h *Handler) packingSlip(w http.ResponseWriter, r *http.Request) {
	id := core.ParseID(chi.URLParam(r, "id"))
	slip, err := h.svc.PackingSlip(r.Context(), sessionFromContext(r.Context()), id)
	if err != nil {
		_, status := classify(err)
		http.Error(w, err.Error(), status)
		return
	}
	slip.AutoPrint = r.URL.Query().Get("print") != "0"

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := printing.RenderPackingSlip(w, slip); err != nil {
		logger.FromContext(r.Context()).Error("failed to render packing slip",
			zap.String("order_id", id.String()), zap.Error(err))
	}
}
