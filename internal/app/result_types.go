package app

import (
	"retail-erp/internal/core"

	"github.com/shopspring/decimal"
)

// AuthResult is returned by SignIn and SignUp.
type AuthResult struct {
	SignedIn bool
	Email    string
	Message  string
	// Warning is set when sign-in succeeded but a follow-up step failed.
	Warning string
}

// SaveResult is returned by operations that write one row.
type SaveResult struct {
	Message string
}

// SaveOrderResult is returned by SaveOrder.
type SaveOrderResult struct {
	Phase   core.WritePhase
	OrderID core.ID
	Items   int
	Message string
	Draft   *DraftResult
}

// DraftLine is one draft line with its live total.
type DraftLine struct {
	Index int
	Item  core.LineItem
	Total decimal.Decimal
}

// DraftResult is the in-progress order with live totals.
type DraftResult struct {
	Header core.OrderHeader
	Lines  []DraftLine
	Total  decimal.Decimal
}

func newDraftResult(d *core.OrderDraft) *DraftResult {
	res := &DraftResult{Header: d.Header, Total: d.Total(), Lines: make([]DraftLine, d.Len())}
	for i, it := range d.Items {
		res.Lines[i] = DraftLine{Index: i, Item: it, Total: d.LineTotal(i)}
	}
	return res
}

// AssistResult is returned by AssistDraft. Either Clarification is set and the
// draft is unchanged, or Added lines were appended.
type AssistResult struct {
	Clarification string
	Added         int
	Notes         []string
	Message       string
	Draft         *DraftResult
}

// InventoryRow is an intake record with its reference ids resolved.
type InventoryRow struct {
	core.InventoryIn
	Location string
	Category string
	Color    string
	Size     string
}

// InventoryListResult is returned by RecentInventory.
type InventoryListResult struct {
	Rows []InventoryRow
}

// OrderRow is an order header with its location resolved.
type OrderRow struct {
	core.SalesOrder
	Location string
}

// OrderListResult is returned by RecentOrders.
type OrderListResult struct {
	Orders   []OrderRow
	Statuses []core.OrderStatus
}

// ExpenseRow is an expense with its reference ids resolved.
type ExpenseRow struct {
	core.Expense
	Location string
	Category string
}

// ExpenseListResult is returned by RecentExpenses.
type ExpenseListResult struct {
	Rows []ExpenseRow
}

// CurrencyAmount is one currency's share of a per-currency total.
type CurrencyAmount struct {
	Currency core.Currency
	Amount   decimal.Decimal
}

// DashboardResult is returned by Dashboard.
type DashboardResult struct {
	Range     DateRange
	Summary   *core.DashboardSummary
	Remaining []core.RemainingRow
	Message   string
}

// Sales returns sales totals in USD, KHR, RMB order.
func (r *DashboardResult) Sales() []CurrencyAmount {
	if r == nil || r.Summary == nil {
		return nil
	}
	return []CurrencyAmount{
		{core.CurrencyUSD, r.Summary.SalesUSD},
		{core.CurrencyKHR, r.Summary.SalesKHR},
		{core.CurrencyRMB, r.Summary.SalesRMB},
	}
}

// Expenses returns expense totals in USD, KHR, RMB order.
func (r *DashboardResult) Expenses() []CurrencyAmount {
	if r == nil || r.Summary == nil {
		return nil
	}
	return []CurrencyAmount{
		{core.CurrencyUSD, r.Summary.ExpensesUSD},
		{core.CurrencyKHR, r.Summary.ExpensesKHR},
		{core.CurrencyRMB, r.Summary.ExpensesRMB},
	}
}

// RemainingResult is returned by RemainingInventory.
type RemainingResult struct {
	AsOf string
	Rows []core.RemainingRow
}
