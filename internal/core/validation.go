package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Rejection reasons shown to the user. The first violated rule wins.
const (
	ReasonCredentials = "Please enter email + password."
	ReasonInventory   = "Please fill: date, location, category, product name, qty (>0)."
	ReasonOrderHeader = "Please fill: order date, location, customer name."
	ReasonOrderItems  = "Please add at least 1 valid item (category + product + qty>0)."
	ReasonExpense     = "Please fill: date, location, category, amount (>0)."
	ReasonDateRange   = "Please select date range (from / to)."
	ReasonAsOfDate    = "Please set Date To first."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Decimals are checked numerically, so gt=0 works on money and quantities.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates s and turns the first failing field into a ValidationError with reason.
func check(s any, reason string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return invalid(verrs[0].Field(), reason)
	}
	return fmt.Errorf("failed to validate input: %w", err)
}

type credentialRules struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ValidateCredentials requires a non-blank email and a non-empty password.
func ValidateCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if err := check(credentialRules{Email: email, Password: password}, ReasonCredentials); err != nil {
		return "", err
	}
	return email, nil
}

type inventoryRules struct {
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	LocationID  string          `json:"location_id" validate:"required"`
	CategoryID  string          `json:"product_category_id" validate:"required"`
	ProductName string          `json:"product_name" validate:"required"`
	Qty         decimal.Decimal `json:"qty" validate:"gt=0"`
}

// BuildInventory validates the intake form and produces the row to persist.
func BuildInventory(in InventoryInput) (*InventoryIn, error) {
	trimAll(&in.Date, &in.LocationID, &in.CategoryID, &in.ProductName, &in.ColorID, &in.SizeID, &in.Note)
	qty := Num(in.Qty)

	rules := inventoryRules{
		Date:        in.Date,
		LocationID:  in.LocationID,
		CategoryID:  in.CategoryID,
		ProductName: in.ProductName,
		Qty:         qty,
	}
	if err := check(rules, ReasonInventory); err != nil {
		return nil, err
	}

	rmb := Num(in.UnitPriceRMB)
	fx := Num(in.FxRMBUSD)
	quote := QuoteInventory(qty, rmb, fx)

	return &InventoryIn{
		Date:         in.Date,
		LocationID:   ID(in.LocationID),
		CategoryID:   ID(in.CategoryID),
		ProductName:  in.ProductName,
		ColorID:      ID(in.ColorID),
		SizeID:       ID(in.SizeID),
		Qty:          qty,
		UnitPriceRMB: rmb,
		FxRMBUSD:     fx,
		UnitPriceUSD: quote.UnitPriceUSD,
		AmountUSD:    quote.AmountUSD,
		Note:         optional(in.Note),
	}, nil
}

// OrderPayload is a validated order ready for the two-phase write.
// Items carry no OrderID yet.
type OrderPayload struct {
	Order SalesOrder
	Items []SalesItem
}

// CleanOrder validates the header, keeps only complete lines and computes the
// persisted total from those lines alone. A line is complete when it has a
// category, a non-blank product name and a quantity above zero; price may be zero.
func CleanOrder(h OrderHeader, items []LineItem) (*OrderPayload, error) {
	trimAll(&h.OrderDate, &h.LocationID, &h.CustomerName, &h.Phone, &h.Address,
		&h.DeliveryCompanyID, &h.Currency, &h.CashTiming, &h.Note)

	if err := check(h, ReasonOrderHeader); err != nil {
		return nil, err
	}
	if !ValidDate(h.OrderDate) {
		return nil, invalid("order_date", ReasonOrderHeader)
	}

	currency := Currency(strings.ToUpper(h.Currency))
	if currency == "" {
		currency = CurrencyUSD
	}
	if !currency.Valid() {
		return nil, invalid("currency", fmt.Sprintf("Unsupported currency: %s", h.Currency))
	}
	timing := CashTiming(strings.ToUpper(h.CashTiming))
	if timing == "" {
		timing = CashBefore
	}
	if !timing.Valid() {
		return nil, invalid("cash_timing", fmt.Sprintf("Unsupported cash timing: %s", h.CashTiming))
	}

	var kept []SalesItem
	total := decimal.Zero
	for _, it := range items {
		name := strings.TrimSpace(it.ProductName)
		category := strings.TrimSpace(it.CategoryID)
		qty := Num(it.Qty)
		if name == "" || category == "" || !qty.IsPositive() {
			continue
		}
		price := Num(it.UnitPrice)
		line := qty.Mul(price)
		kept = append(kept, SalesItem{
			CategoryID:  ID(category),
			ProductName: name,
			ColorID:     ParseID(it.ColorID),
			SizeID:      ParseID(it.SizeID),
			Qty:         qty,
			UnitPrice:   price,
			LineTotal:   line,
		})
		total = total.Add(line)
	}
	if len(kept) == 0 {
		return nil, invalid("items", ReasonOrderItems)
	}

	return &OrderPayload{
		Order: SalesOrder{
			OrderDate:         h.OrderDate,
			LocationID:        ID(h.LocationID),
			CustomerName:      h.CustomerName,
			Phone:             optional(h.Phone),
			Address:           optional(h.Address),
			DeliveryCompanyID: ID(h.DeliveryCompanyID),
			Currency:          currency,
			PaidAmount:        Num(h.PaidAmount),
			CashTiming:        timing,
			Note:              optional(h.Note),
			OrderTotal:        total,
		},
		Items: kept,
	}, nil
}

type expenseRules struct {
	Date       string          `json:"date" validate:"required,datetime=2006-01-02"`
	LocationID string          `json:"location_id" validate:"required"`
	CategoryID string          `json:"expense_category_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
}

// BuildExpense validates the expense form and produces the row to persist.
func BuildExpense(in ExpenseInput) (*Expense, error) {
	trimAll(&in.Date, &in.LocationID, &in.CategoryID, &in.Currency, &in.Note)
	amount := Num(in.Amount)
	if err := check(expenseRules{Date: in.Date, LocationID: in.LocationID, CategoryID: in.CategoryID, Amount: amount}, ReasonExpense); err != nil {
		return nil, err
	}

	currency := Currency(strings.ToUpper(in.Currency))
	if currency == "" {
		currency = CurrencyUSD
	}
	if !currency.Valid() {
		return nil, invalid("currency", fmt.Sprintf("Unsupported currency: %s", in.Currency))
	}

	return &Expense{
		Date:       in.Date,
		LocationID: ID(in.LocationID),
		CategoryID: ID(in.CategoryID),
		Currency:   currency,
		Amount:     amount,
		Note:       optional(in.Note),
	}, nil
}

type rangeRules struct {
	From string `json:"date_from" validate:"required,datetime=2006-01-02"`
	To   string `json:"date_to" validate:"required,datetime=2006-01-02"`
}

// ValidateRange requires both ends of a dashboard date range.
func ValidateRange(from, to string) (string, string, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if err := check(rangeRules{From: from, To: to}, ReasonDateRange); err != nil {
		return "", "", err
	}
	return from, to, nil
}

// ValidateAsOf requires the snapshot date of a remaining-inventory export.
func ValidateAsOf(to string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" || !ValidDate(to) {
		return "", invalid("date_to", ReasonAsOfDate)
	}
	return to, nil
}

// BuildOrderUpdate parses the inline paid-amount and status edit of an order.
func BuildOrderUpdate(paid, status string) (*OrderUpdate, error) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.Valid() {
		return nil, invalid("status", fmt.Sprintf("Unknown order status: %s", status))
	}
	amount := Num(paid)
	if amount.IsNegative() {
		return nil, invalid("paid_amount", "Paid amount cannot be negative.")
	}
	return &OrderUpdate{PaidAmount: amount, Status: s}, nil
}
