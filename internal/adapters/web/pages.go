package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"retail-erp/internal/app"
	"retail-erp/internal/core"
	"retail-erp/internal/logger"
	webui "retail-erp/web"
	"retail-erp/web/templates/layouts"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Page template names. Each is parsed together with layout.html.
const (
	pageLogin     = "login.html"
	pageInventory = "inventory.html"
	pageSales     = "sales.html"
	pageExpenses  = "expenses.html"
	pageDashboard = "dashboard.html"
)

var pageNames = []string{pageLogin, pageInventory, pageSales, pageExpenses, pageDashboard}

const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
	flashInfo    = "info"
)

type pageSet map[string]*template.Template

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return core.To2(d) },
	"amounts": func(items []app.CurrencyAmount) string {
		parts := make([]string, len(items))
		for i, a := range items {
			parts[i] = string(a.Currency) + " " + core.To2(a.Amount)
		}
		return strings.Join(parts, " • ")
	},
	"deref":       core.Deref,
	"currencies":  func() []core.Currency { return core.Currencies },
	"cashTimings": func() []core.CashTiming { return core.CashTimings },
	"statuses":    func() []core.OrderStatus { return core.OrderStatuses },
	"options":     options,
	// same compares a form value with an option id regardless of their Go types.
	"same": func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
}

// option is one <option> of a reference-list dropdown.
type option struct {
	Value    string
	Label    string
	Selected bool
}

func options(items []core.RefItem, selected string) []option {
	out := make([]option, len(items))
	for i, it := range items {
		out[i] = option{Value: it.ID.String(), Label: it.Name, Selected: it.ID.String() == selected}
	}
	return out
}

func parsePages() (pageSet, error) {
	set := make(pageSet, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).
			ParseFS(webui.Templates, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		set[name] = t
	}
	return set, nil
}

// pageData is the root value handed to every page template.
type pageData struct {
	layouts.AppLayoutData
	Lists *core.ReferenceLists
	Page  any
}

// layout builds the shell data for the current request.
func (h *Handler) layout(r *http.Request, title, nav string) layouts.AppLayoutData {
	return layouts.AppLayoutData{
		Title:     title,
		Email:     sessionFromContext(r.Context()).Email(),
		ActiveNav: nav,
	}
}

// render executes a page into a buffer first so a template failure never
// produces a half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, d layouts.AppLayoutData, body any) {
	t, ok := h.pages[page]
	if !ok {
		logger.FromContext(r.Context()).Error("unknown page template", zap.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	data := pageData{AppLayoutData: d, Lists: &core.ReferenceLists{}, Page: body}
	if s := sessionFromContext(r.Context()); s != nil && s.Lists != nil {
		data.Lists = s.Lists
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.FromContext(r.Context()).Error("failed to render page", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// ensureLists loads the dropdown lists for a page, flashing the failure instead
// of refusing to render.
func (h *Handler) ensureLists(r *http.Request, d *layouts.AppLayoutData) {
	if _, err := h.svc.ReferenceLists(r.Context(), sessionFromContext(r.Context())); err != nil {
		d.Flash(err.Error(), flashError)
	}
}

// failStatus is the HTTP status a browser form gets for a failed operation.
func failStatus(err error) int {
	_, status := classify(err)
	return status
}
