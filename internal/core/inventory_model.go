package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// InventoryInput holds the raw fields of the inventory intake form.
type InventoryInput struct {
	Date         string `json:"date"`
	LocationID   string `json:"location_id"`
	CategoryID   string `json:"product_category_id"`
	ProductName  string `json:"product_name"`
	ColorID      string `json:"color_id"`
	SizeID       string `json:"size_id"`
	Qty          string `json:"qty"`
	UnitPriceRMB string `json:"unit_price_rmb"`
	FxRMBUSD     string `json:"fx_rmb_usd"`
	Note         string `json:"note"`
}

// NewInventoryInput returns a cleared intake form.
func NewInventoryInput(today string, lists *ReferenceLists) InventoryInput {
	return InventoryInput{
		Date:       today,
		LocationID: lists.DefaultLocation().String(),
		CategoryID: lists.DefaultCategory().String(),
	}
}

// InventoryQuote holds the USD values derived from an RMB price, rounded for display and storage.
type InventoryQuote struct {
	UnitPriceUSD decimal.Decimal `json:"unit_price_usd"`
	AmountUSD    decimal.Decimal `json:"amount_usd"`
}

// QuoteInventory converts an RMB unit price at rate fx (RMB per USD).
// A non-positive rate yields a zero USD price. The amount is computed from the
// unrounded unit price; both results are then rounded to two decimals.
func QuoteInventory(qty, unitPriceRMB, fx decimal.Decimal) InventoryQuote {
	unit := decimal.Zero
	if fx.IsPositive() {
		unit = unitPriceRMB.Div(fx)
	}
	return InventoryQuote{
		UnitPriceUSD: Round2(unit),
		AmountUSD:    Round2(qty.Mul(unit)),
	}
}

// Quote computes the live USD values of the form with permissive coercion.
func (in InventoryInput) Quote() InventoryQuote {
	return QuoteInventory(Num(in.Qty), Num(in.UnitPriceRMB), Num(in.FxRMBUSD))
}

// ExpenseInput holds the raw fields of the expense form.
type ExpenseInput struct {
	Date       string `json:"date"`
	LocationID string `json:"location_id"`
	CategoryID string `json:"expense_category_id"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"`
	Note       string `json:"note"`
}

// NewExpenseInput returns a cleared expense form.
func NewExpenseInput(today string, lists *ReferenceLists) ExpenseInput {
	return ExpenseInput{
		Date:       today,
		LocationID: lists.DefaultLocation().String(),
		Currency:   string(CurrencyUSD),
	}
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
