package web

import (
	"net/http"

	"retail-erp/internal/app"
	"retail-erp/internal/core"
	"retail-erp/web/templates/layouts"
)

type expensesPage struct {
	Form   core.ExpenseInput
	Recent []app.ExpenseRow
}

func expenseFromForm(r *http.Request) core.ExpenseInput {
	return core.ExpenseInput{
		Date:       r.PostFormValue("date"),
		LocationID: r.PostFormValue("location_id"),
		CategoryID: r.PostFormValue("expense_category_id"),
		Currency:   r.PostFormValue("currency"),
		Amount:     r.PostFormValue("amount"),
		Note:       r.PostFormValue("note"),
	}
}

// expensesPage handles GET /expenses.
func (h *Handler) expensesPage(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Expenses", "expenses")
	h.ensureLists(r, &d)
	h.renderExpenses(w, r, http.StatusOK, d, h.svc.ExpenseForm(sessionFromContext(r.Context())))
}

// expenseSubmit handles POST /expenses. action=save (default) or clear.
func (h *Handler) expenseSubmit(w http.ResponseWriter, r *http.Request) {
	d := h.layout(r, "Expenses", "expenses")
	if err := r.ParseForm(); err != nil {
		d.Flash("Invalid form submission.", flashError)
		h.renderExpenses(w, r, http.StatusBadRequest, d, h.svc.ExpenseForm(sessionFromContext(r.Context())))
		return
	}
	h.ensureLists(r, &d)
	form := expenseFromForm(r)
	status := http.StatusOK

	if r.PostFormValue("action") == "clear" {
		form = h.svc.ClearExpenseForm(form)
	} else if res, err := h.svc.SaveExpense(r.Context(), sessionFromContext(r.Context()), form); err != nil {
		d.Flash(err.Error(), flashError)
		status = failStatus(err)
	} else {
		d.Flash(res.Message, flashSuccess)
		form = h.svc.ClearExpenseForm(form)
	}
	h.renderExpenses(w, r, status, d, form)
}

func (h *Handler) renderExpenses(w http.ResponseWriter, r *http.Request, status int, d layouts.AppLayoutData, form core.ExpenseInput) {
	page := expensesPage{Form: form}
	recent, err := h.svc.RecentExpenses(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		d.Flash(err.Error(), flashError)
	} else {
		page.Recent = recent.Rows
	}
	h.render(w, r, status, pageExpenses, d, page)
}
