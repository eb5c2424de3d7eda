// Package printing renders printable documents for orders.
package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"retail-erp/internal/core"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return core.To2(d) },
}

var packingSlipTmpl = template.Must(
	template.New("packing_slip.html").Funcs(funcs).ParseFS(templateFS, "templates/packing_slip.html"),
)

// SlipLine is one item row with reference ids already resolved to names.
type SlipLine struct {
	Category  string
	Product   string
	Color     string
	Size      string
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// PackingSlip is the data of a packing slip / delivery label.
type PackingSlip struct {
	OrderID       string
	Date          string
	Status        string
	PaymentStatus string
	Currency      string
	PaidAmount    decimal.Decimal
	Location      string
	Delivery      string
	Customer      string
	Phone         string
	Address       string
	Lines         []SlipLine
	Total         decimal.Decimal
	CashTiming    string
	Note          string
	// AutoPrint opens the browser's print dialog once the document loads.
	AutoPrint bool
}

// NewPackingSlip resolves the reference ids of order and items against lists.
// Unknown ids render as empty text.
func NewPackingSlip(order *core.SalesOrder, items []core.SalesItem, lists *core.ReferenceLists) *PackingSlip {
	currency := string(order.Currency)
	if currency == "" {
		currency = string(core.CurrencyUSD)
	}
	slip := &PackingSlip{
		OrderID:       order.ID.String(),
		Date:          order.OrderDate,
		Status:        string(order.Status),
		PaymentStatus: order.PaymentStatus,
		Currency:      currency,
		PaidAmount:    order.PaidAmount,
		Location:      lists.Name(core.TableLocations, order.LocationID),
		Delivery:      lists.Name(core.TableDelivery, order.DeliveryCompanyID),
		Customer:      order.CustomerName,
		Phone:         core.Deref(order.Phone),
		Address:       core.Deref(order.Address),
		Total:         order.OrderTotal,
		CashTiming:    string(order.CashTiming),
		Note:          core.Deref(order.Note),
		AutoPrint:     true,
	}
	for _, it := range items {
		slip.Lines = append(slip.Lines, SlipLine{
			Category:  lists.Name(core.TableCategories, it.CategoryID),
			Product:   it.ProductName,
			Color:     lists.Name(core.TableColors, it.ColorID),
			Size:      lists.Name(core.TableSizes, it.SizeID),
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return slip
}

// RenderPackingSlip writes slip as a standalone HTML document. All values are escaped.
func RenderPackingSlip(w io.Writer, slip *PackingSlip) error {
	var buf bytes.Buffer
	if err := packingSlipTmpl.Execute(&buf, slip); err != nil {
		return fmt.Errorf("failed to render packing slip: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
