package repl

import (
	"fmt"
	"io"
	"strings"

	"retail-erp/internal/app"
	"retail-erp/internal/core"
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func heading(w io.Writer, title string, n int) {
	fmt.Fprintln(w)
	rule(w, "=", n)
	fmt.Fprintf(w, "  %s\n", title)
	rule(w, "=", n)
}

// truncate shortens s to n runes so table columns stay aligned.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Amounts formats per-currency totals as "USD x • KHR y • RMB z".
func Amounts(items []app.CurrencyAmount) string {
	parts := make([]string, len(items))
	for i, a := range items {
		parts[i] = string(a.Currency) + " " + core.To2(a.Amount)
	}
	return strings.Join(parts, " • ")
}

// PrintDraft shows the in-progress order with live totals.
func PrintDraft(w io.Writer, d *app.DraftResult, lists *core.ReferenceLists) {
	h := d.Header
	heading(w, "SALES ORDER DRAFT", 86)
	fmt.Fprintf(w, "  Date     : %-14s Location : %s\n", h.OrderDate, lists.Name(core.TableLocations, core.ID(h.LocationID)))
	fmt.Fprintf(w, "  Customer : %-14s Phone    : %s\n", h.CustomerName, h.Phone)
	fmt.Fprintf(w, "  Address  : %s\n", h.Address)
	fmt.Fprintf(w, "  Delivery : %-14s Currency : %s  Paid: %s  Cash: %s\n",
		lists.Name(core.TableDelivery, core.ID(h.DeliveryCompanyID)), h.Currency, h.PaidAmount, h.CashTiming)
	if h.Note != "" {
		fmt.Fprintf(w, "  Note     : %s\n", h.Note)
	}
	rule(w, "-", 86)
	fmt.Fprintf(w, "  %-3s %-12s %-22s %-8s %-6s %9s %10s %10s\n",
		"#", "CATEGORY", "PRODUCT", "COLOR", "SIZE", "QTY", "PRICE", "TOTAL")
	rule(w, "-", 86)
	for _, l := range d.Lines {
		it := l.Item
		fmt.Fprintf(w, "  %-3d %-12s %-22s %-8s %-6s %9s %10s %10s\n",
			l.Index+1,
			truncate(lists.Name(core.TableCategories, core.ID(it.CategoryID)), 12),
			truncate(it.ProductName, 22),
			truncate(lists.Name(core.TableColors, core.ID(it.ColorID)), 8),
			truncate(lists.Name(core.TableSizes, core.ID(it.SizeID)), 6),
			it.Qty, it.UnitPrice, core.To2(l.Total))
	}
	rule(w, "-", 86)
	fmt.Fprintf(w, "  %-72s %10s\n", "ORDER TOTAL", core.To2(d.Total))
	rule(w, "=", 86)
}

// PrintOrders lists recent orders, newest first.
func PrintOrders(w io.Writer, res *app.OrderListResult) {
	heading(w, "RECENT ORDERS", 92)
	if len(res.Orders) == 0 {
		fmt.Fprintln(w, "  No orders found.")
		rule(w, "=", 92)
		return
	}
	fmt.Fprintf(w, "  %-6s %-10s %-12s %-18s %12s %-4s %10s %-9s %s\n",
		"ID", "DATE", "LOCATION", "CUSTOMER", "TOTAL", "CUR", "PAID", "PAYMENT", "STATUS")
	rule(w, "-", 92)
	for _, o := range res.Orders {
		fmt.Fprintf(w, "  %-6s %-10s %-12s %-18s %12s %-4s %10s %-9s %s\n",
			o.ID, o.OrderDate, truncate(o.Location, 12), truncate(o.CustomerName, 18),
			core.To2(o.OrderTotal), o.Currency, core.To2(o.PaidAmount), o.PaymentStatus, o.Status)
	}
	rule(w, "=", 92)
}

// PrintInventory lists recent stock intake.
func PrintInventory(w io.Writer, res *app.InventoryListResult) {
	heading(w, "RECENT INVENTORY IN", 92)
	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "  No intake recorded.")
		rule(w, "=", 92)
		return
	}
	fmt.Fprintf(w, "  %-10s %-12s %-12s %-20s %-8s %-6s %8s %10s %10s\n",
		"DATE", "LOCATION", "CATEGORY", "PRODUCT", "COLOR", "SIZE", "QTY", "USD", "AMOUNT")
	rule(w, "-", 92)
	for _, r := range res.Rows {
		fmt.Fprintf(w, "  %-10s %-12s %-12s %-20s %-8s %-6s %8s %10s %10s\n",
			r.Date, truncate(r.Location, 12), truncate(r.Category, 12), truncate(r.ProductName, 20),
			truncate(r.Color, 8), truncate(r.Size, 6),
			core.To2(r.Qty), core.To2(r.UnitPriceUSD), core.To2(r.AmountUSD))
	}
	rule(w, "=", 92)
}

// PrintExpenses lists recent expenses.
func PrintExpenses(w io.Writer, res *app.ExpenseListResult) {
	heading(w, "RECENT EXPENSES", 72)
	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "  No expenses recorded.")
		rule(w, "=", 72)
		return
	}
	fmt.Fprintf(w, "  %-10s %-14s %-14s %-4s %12s  %s\n", "DATE", "LOCATION", "CATEGORY", "CUR", "AMOUNT", "NOTE")
	rule(w, "-", 72)
	for _, e := range res.Rows {
		fmt.Fprintf(w, "  %-10s %-14s %-14s %-4s %12s  %s\n",
			e.Date, truncate(e.Location, 14), truncate(e.Category, 14), e.Currency,
			core.To2(e.Amount), core.Deref(e.Note))
	}
	rule(w, "=", 72)
}

// PrintDashboard shows the KPIs for a range and, when loaded, the remaining stock.
func PrintDashboard(w io.Writer, res *app.DashboardResult) {
	heading(w, fmt.Sprintf("DASHBOARD  %s → %s", res.Range.From, res.Range.To), 80)
	fmt.Fprintf(w, "  Inventory IN (USD) : %s\n", core.To2(res.Summary.TotalInventoryInUSD))
	fmt.Fprintf(w, "  Sales              : %s\n", Amounts(res.Sales()))
	fmt.Fprintf(w, "  Expenses           : %s\n", Amounts(res.Expenses()))
	if res.Remaining != nil {
		PrintRemaining(w, res.Range.To, res.Remaining)
		return
	}
	rule(w, "=", 80)
}

// PrintRemaining shows the remaining-inventory snapshot as of a date.
func PrintRemaining(w io.Writer, asOf string, rows []core.RemainingRow) {
	heading(w, "REMAINING INVENTORY AS OF "+asOf, 80)
	if len(rows) == 0 {
		fmt.Fprintln(w, "  Nothing in stock.")
		rule(w, "=", 80)
		return
	}
	fmt.Fprintf(w, "  %-12s %-12s %-18s %-8s %-6s %6s %6s %9s\n",
		"LOCATION", "CATEGORY", "PRODUCT", "COLOR", "SIZE", "IN", "SOLD", "REMAINING")
	rule(w, "-", 80)
	for _, r := range rows {
		fmt.Fprintf(w, "  %-12s %-12s %-18s %-8s %-6s %6s %6s %9s\n",
			truncate(r.Location, 12), truncate(r.ProductCategory, 12), truncate(r.ProductName, 18),
			truncate(r.Color, 8), truncate(r.Size, 6),
			core.To2(r.TotalIn), core.To2(r.TotalSold), core.To2(r.RemainingQty))
	}
	rule(w, "=", 80)
}
