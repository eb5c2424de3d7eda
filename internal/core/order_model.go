package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Line-item field names. Forms, the JSON API and the REPL all address fields by these.
const (
	FieldCategory    = "product_category_id"
	FieldProductName = "product_name"
	FieldColor       = "color_id"
	FieldSize        = "size_id"
	FieldQty         = "qty"
	FieldUnitPrice   = "unit_price"
)

// DefaultDraftLines is how many blank lines a fresh order form starts with.
const DefaultDraftLines = 2

var (
	ErrNoSuchLine   = errors.New("no such order line")
	ErrUnknownField = errors.New("unknown line field")
)

// LineItem is an order line exactly as typed. Numeric fields stay raw until submission.
type LineItem struct {
	CategoryID  string `json:"product_category_id"`
	ProductName string `json:"product_name"`
	ColorID     string `json:"color_id"`
	SizeID      string `json:"size_id"`
	Qty         string `json:"qty"`
	UnitPrice   string `json:"unit_price"`
}

// LineTotal is qty × unit price with permissive coercion.
func (it LineItem) LineTotal() decimal.Decimal {
	return Num(it.Qty).Mul(Num(it.UnitPrice))
}

// Set replaces exactly one field.
func (it *LineItem) Set(field, value string) error {
	switch field {
	case FieldCategory:
		it.CategoryID = value
	case FieldProductName:
		it.ProductName = value
	case FieldColor:
		it.ColorID = value
	case FieldSize:
		it.SizeID = value
	case FieldQty:
		it.Qty = value
	case FieldUnitPrice:
		it.UnitPrice = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// OrderHeader holds the raw header fields of the order form.
type OrderHeader struct {
	OrderDate         string `json:"order_date" validate:"required"`
	LocationID        string `json:"location_id" validate:"required"`
	CustomerName      string `json:"customer_name" validate:"required"`
	Phone             string `json:"phone"`
	Address           string `json:"address"`
	DeliveryCompanyID string `json:"delivery_company_id"`
	Currency          string `json:"currency"`
	PaidAmount        string `json:"paid_amount"`
	CashTiming        string `json:"cash_timing"`
	Note              string `json:"note"`
}

// NewOrderHeader returns the header defaults of a cleared order form.
func NewOrderHeader(today string, location ID) OrderHeader {
	return OrderHeader{
		OrderDate:  today,
		LocationID: location.String(),
		Currency:   string(CurrencyUSD),
		CashTiming: string(CashBefore),
	}
}

// OrderDraft is the in-progress order: its header and an ordered list of lines.
// Lines are addressed by position; removing one shifts later lines down.
type OrderDraft struct {
	Header          OrderHeader `json:"header"`
	Items           []LineItem  `json:"items"`
	DefaultCategory ID          `json:"default_category"`
}

// NewOrderDraft returns an empty draft whose new lines default to category.
func NewOrderDraft(category ID) *OrderDraft {
	return &OrderDraft{DefaultCategory: category, Items: []LineItem{}}
}

// Len returns the number of lines.
func (d *OrderDraft) Len() int { return len(d.Items) }

// Add appends a blank line and returns its index.
func (d *OrderDraft) Add() int {
	d.Items = append(d.Items, LineItem{CategoryID: d.DefaultCategory.String()})
	return len(d.Items) - 1
}

// Append adds pre-filled lines.
func (d *OrderDraft) Append(items ...LineItem) {
	d.Items = append(d.Items, items...)
}

// Remove deletes line i.
func (d *OrderDraft) Remove(i int) error {
	if i < 0 || i >= len(d.Items) {
		return fmt.Errorf("%w: %d", ErrNoSuchLine, i)
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	return nil
}

// Set replaces one field of line i. The draft is unchanged on error.
func (d *OrderDraft) Set(i int, field, value string) error {
	if i < 0 || i >= len(d.Items) {
		return fmt.Errorf("%w: %d", ErrNoSuchLine, i)
	}
	it := d.Items[i]
	if err := it.Set(field, value); err != nil {
		return err
	}
	d.Items[i] = it
	return nil
}

// Reset clears the header to defaults and leaves n blank lines.
func (d *OrderDraft) Reset(header OrderHeader, n int) {
	d.Header = header
	d.Items = make([]LineItem, 0, n)
	for range n {
		d.Add()
	}
}

// LineTotal returns the live total of line i, or zero when i is out of range.
func (d *OrderDraft) LineTotal(i int) decimal.Decimal {
	if i < 0 || i >= len(d.Items) {
		return decimal.Zero
	}
	return d.Items[i].LineTotal()
}

// Total is the live order total over every present line, complete or not.
func (d *OrderDraft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// SetDefaultCategory changes the category new lines start with. Blank lines that
// still carry no category pick it up too, as happens when lists load after the form.
func (d *OrderDraft) SetDefaultCategory(category ID) {
	d.DefaultCategory = category
	for i := range d.Items {
		if strings.TrimSpace(d.Items[i].CategoryID) == "" {
			d.Items[i].CategoryID = category.String()
		}
	}
}
