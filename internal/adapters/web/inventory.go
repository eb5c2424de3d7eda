package web

import (
	"net/http"

	"retail-erp/internal/app"
	"retail-erp/internal/core"
	"retail-erp/web/templates/layouts"
)

type inventoryPage struct {
	Form   core.InventoryInput
	Quote  core.InventoryQuote
	Recent []app.InventoryRow
}

func inventoryFromForm(r *http.Request) core.InventoryInput {
	return core.InventoryInput{
		Date:         r.PostFormValue("date"),
		LocationID:   r.PostFormValue("location_id"),
		CategoryID:   r.PostFormValue(core.FieldCategory),
		ProductName:  r.PostFormValue(core.FieldProductName),
		ColorID:      r.PostFormValue(core.FieldColor),
		SizeID:       r.PostFormValue(core.FieldSize),
		Qty:          r.PostFormValue(core.FieldQty),
		UnitPriceRMB: r.PostFormValue("unit_price_rmb"),
		FxRMBUSD:     r.PostFormValue("fx_rmb_usd"),
		Note:         r.PostFormValue("note"),
	}
}

// inventoryPage handles GET /inventory.
func (h *Handler) inventoryPage(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Inventory IN", "inventory")
	h.ensureLists(r, &d)
	form := h.svc.InventoryForm(sessionFromContext(r.Context()))
	h.renderInventory(w, r, http.StatusOK, d, form)
}

// inventorySubmit handles POST /inventory. action=save (default), recalc or clear.
func (h *Handler) inventorySubmit(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Inventory IN", "inventory")
	if err := r.ParseForm(); err != nil {
		d.Flash("Invalid form submission.", flashError)
		h.renderInventory(w, r, http.StatusBadRequest, d, h.svc.InventoryForm(sessionFromContext(r.Context())))
		return
	}
	h.ensureLists(r, &d)
	form := inventoryFromForm(r)
	status := http.StatusOK

	switch r.PostFormValue("action") {
	case "recalc":
	case "clear":
		form = h.svc.ClearInventoryForm(form)
	default:
		res, err := h.svc.SaveInventory(r.Context(), sessionFromContext(r.Context()), form)
		if err != nil {
			d.Flash(err.Error(), flashError)
			status = failStatus(err)
			break
		}
		d.Flash(res.Message, flashSuccess)
		form = h.svc.ClearInventoryForm(form)
	}
	h.renderInventory(w, r, status, d, form)
}

func (h *Handler) renderInventory(w http.ResponseWriter, r *http.Request, status int, d layouts.AppLayoutData, form core.InventoryInput) {
	page := inventoryPage{Form: form, Quote: h.svc.QuoteInventory(form)}
	recent, err := h.svc.RecentInventory(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		d.Flash(err.Error(), flashError)
	} else {
		page.Recent = recent.Rows
	}
	d.Scripts = append(d.Scripts, "inventory.js")
	h.render(w, r, status, pageInventory, d, page)
}

// apiInventoryQuote handles GET /api/inventory/quote?qty=&unit_price_rmb=&fx_rmb_usd=.
// The inventory form calls it on every keystroke to refresh the derived USD fields.
func (h *Handler) apiInventoryQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote := h.svc.QuoteInventory(core.InventoryInput{
		Qty:          q.Get(core.FieldQty),
		UnitPriceRMB: q.Get("unit_price_rmb"),
		FxRMBUSD:     q.Get("fx_rmb_usd"),
	})
	writeJSON(w, map[string]string{
		"unit_price_usd": core.To2(quote.UnitPriceUSD),
		"amount_usd":     core.To2(quote.AmountUSD),
	})
}
