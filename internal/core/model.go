package core

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ID identifies a backend row. Keys may be bigint or uuid, so the value is kept as text
// and converted at the edges. The empty ID means "not set" and is sent as null.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

// numeric reports whether the ID is a bigint in canonical form. Text keys such as
// "007" or "+7" stay text.
func (id ID) numeric() (int64, bool) {
	if id == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil && strconv.FormatInt(n, 10) == string(id)
}

// MarshalJSON emits null for an unset ID and a bare number for bigint keys.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, ok := id.numeric(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(b), err)
	}
	*id = ID(n.String())
	return nil
}

// Value lets pgx bind the ID to either a bigint or a uuid column.
func (id ID) Value() (driver.Value, error) {
	if id == "" {
		return nil, nil
	}
	if n, ok := id.numeric(); ok {
		return n, nil
	}
	return string(id), nil
}

// Scan reads an ID from any integer, text or uuid column.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = ""
	case int64:
		*id = ID(strconv.FormatInt(v, 10))
	case int32:
		*id = ID(strconv.FormatInt(int64(v), 10))
	case string:
		*id = ID(v)
	case []byte:
		*id = ID(string(v))
	case [16]byte:
		*id = ID(fmt.Sprintf("%x-%x-%x-%x-%x", v[0:4], v[4:6], v[6:8], v[8:10], v[10:16]))
	default:
		return fmt.Errorf("cannot scan %T into core.ID", src)
	}
	return nil
}

// ParseID trims user input into an ID.
func ParseID(s string) ID {
	return ID(strings.TrimSpace(s))
}

// Currency is the transaction currency of orders and expenses.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyKHR Currency = "KHR"
	CurrencyRMB Currency = "RMB"
)

// Currencies lists the accepted currencies in display order.
var Currencies = []Currency{CurrencyUSD, CurrencyKHR, CurrencyRMB}

func (c Currency) Valid() bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}

// OrderStatus is the fulfilment state of a sales order.
type OrderStatus string

const (
	StatusNew        OrderStatus = "NEW"
	StatusPrepared   OrderStatus = "PREPARED"
	StatusDelivering OrderStatus = "DELIVERING"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

var OrderStatuses = []OrderStatus{StatusNew, StatusPrepared, StatusDelivering, StatusCompleted, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CashTiming records whether cash is collected before or after delivery.
type CashTiming string

const (
	CashBefore CashTiming = "BEFORE"
	CashAfter  CashTiming = "AFTER"
)

var CashTimings = []CashTiming{CashBefore, CashAfter}

func (t CashTiming) Valid() bool {
	return t == CashBefore || t == CashAfter
}

// InventoryIn is one stock-intake record.
// UnitPriceUSD and AmountUSD are derived from the RMB price and the RMB→USD rate.
type InventoryIn struct {
	ID           ID              `json:"id,omitempty"`
	Date         string          `json:"date"`
	LocationID   ID              `json:"location_id"`
	CategoryID   ID              `json:"product_category_id"`
	ProductName  string          `json:"product_name"`
	ColorID      ID              `json:"color_id"`
	SizeID       ID              `json:"size_id"`
	Qty          decimal.Decimal `json:"qty"`
	UnitPriceRMB decimal.Decimal `json:"unit_price_rmb"`
	FxRMBUSD     decimal.Decimal `json:"fx_rmb_usd"`
	UnitPriceUSD decimal.Decimal `json:"unit_price_usd"`
	AmountUSD    decimal.Decimal `json:"amount_usd"`
	Note         *string         `json:"note"`
}

// SalesOrder is a persisted order header. PaymentStatus is computed by the backend.
type SalesOrder struct {
	ID                ID              `json:"id,omitempty"`
	OrderDate         string          `json:"order_date"`
	LocationID        ID              `json:"location_id"`
	CustomerName      string          `json:"customer_name"`
	Phone             *string         `json:"phone"`
	Address           *string         `json:"address"`
	DeliveryCompanyID ID              `json:"delivery_company_id"`
	Currency          Currency        `json:"currency"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	CashTiming        CashTiming      `json:"cash_timing"`
	Note              *string         `json:"note"`
	OrderTotal        decimal.Decimal `json:"order_total"`
	PaymentStatus     string          `json:"payment_status,omitempty"`
	Status            OrderStatus     `json:"status,omitempty"`
}

// SalesItem is one persisted order line.
type SalesItem struct {
	ID          ID              `json:"id,omitempty"`
	OrderID     ID              `json:"order_id"`
	CategoryID  ID              `json:"product_category_id"`
	ProductName string          `json:"product_name"`
	ColorID     ID              `json:"color_id"`
	SizeID      ID              `json:"size_id"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderUpdate is the editable part of an existing order.
type OrderUpdate struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     OrderStatus     `json:"status"`
}

// Expense is one recorded expense.
type Expense struct {
	ID         ID              `json:"id,omitempty"`
	Date       string          `json:"date"`
	LocationID ID              `json:"location_id"`
	CategoryID ID              `json:"expense_category_id"`
	Currency   Currency        `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Note       *string         `json:"note"`
}

// DashboardSummary is the aggregate returned by get_dashboard_summary.
type DashboardSummary struct {
	TotalInventoryInUSD decimal.Decimal `json:"total_inventory_in_usd" db:"total_inventory_in_usd"`
	SalesUSD            decimal.Decimal `json:"sales_usd" db:"sales_usd"`
	SalesKHR            decimal.Decimal `json:"sales_khr" db:"sales_khr"`
	SalesRMB            decimal.Decimal `json:"sales_rmb" db:"sales_rmb"`
	ExpensesUSD         decimal.Decimal `json:"expenses_usd" db:"expenses_usd"`
	ExpensesKHR         decimal.Decimal `json:"expenses_khr" db:"expenses_khr"`
	ExpensesRMB         decimal.Decimal `json:"expenses_rmb" db:"expenses_rmb"`
}

// RemainingRow is one line of the remaining-inventory snapshot.
// RemainingQty may be negative when more was sold than received.
type RemainingRow struct {
	Location        string          `json:"location" db:"location"`
	ProductCategory string          `json:"product_category" db:"product_category"`
	ProductName     string          `json:"product_name" db:"product_name"`
	Color           string          `json:"color" db:"color"`
	Size            string          `json:"size" db:"size"`
	TotalIn         decimal.Decimal `json:"total_in" db:"total_in"`
	TotalSold       decimal.Decimal `json:"total_sold" db:"total_sold"`
	RemainingQty    decimal.Decimal `json:"remaining_qty" db:"remaining_qty"`
}

// optional returns nil for blank input so the column is stored as NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
