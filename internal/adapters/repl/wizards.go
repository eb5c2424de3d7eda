package repl

import (
	"fmt"
	"strings"

	"retail-erp/internal/app"
	"retail-erp/internal/core"

	"github.com/shopspring/decimal"
)

// newOrder runs a guided order entry: header fields first, then one line per
// prompt, then a review before saving. It starts from a cleared draft.
func (r *runner) newOrder() error {
	lists, err := r.svc.ReferenceLists(r.ctx, r.s)
	if err != nil {
		return err
	}
	d, err := r.svc.ClearDraft(r.ctx, r.s)
	if err != nil {
		return err
	}
	h := d.Header

	fmt.Fprintln(r.out, "New sales order. Blank keeps the [default]; 'cancel' aborts.")
	cancelled := false
	ask := func(label, def string) string {
		if cancelled {
			return def
		}
		text := label + ": "
		if def != "" {
			text = fmt.Sprintf("%s [%s]: ", label, def)
		}
		v, err := r.prompt(text)
		if err != nil || strings.EqualFold(v, "cancel") {
			cancelled = true
			return def
		}
		if v == "" {
			return def
		}
		return v
	}
	pick := func(label string, t core.RefTable, current string) string {
		for !cancelled {
			name := ask(label, lists.Name(t, core.ID(current)))
			if name == "" || strings.EqualFold(name, lists.Name(t, core.ID(current))) {
				return current
			}
			if id := core.IDByName(lists.List(t), name); !id.IsZero() {
				return id.String()
			}
			fmt.Fprintf(r.out, "  Unknown %s %q.\n", strings.ToLower(label), name)
		}
		return current
	}

	h.CustomerName = ask("Customer", h.CustomerName)
	h.Phone = ask("Phone", h.Phone)
	h.Address = ask("Address", h.Address)
	h.LocationID = pick("Location", core.TableLocations, h.LocationID)
	h.DeliveryCompanyID = pick("Delivery", core.TableDelivery, h.DeliveryCompanyID)
	h.Currency = strings.ToUpper(ask("Currency", h.Currency))
	h.PaidAmount = ask("Paid amount", h.PaidAmount)
	h.CashTiming = strings.ToUpper(ask("Cash (BEFORE/AFTER)", h.CashTiming))
	h.OrderDate = ask("Order date", h.OrderDate)
	if cancelled {
		fmt.Fprintln(r.out, "Order entry cancelled.")
		return nil
	}

	fmt.Fprintln(r.out, "Enter order lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(r.out, "Format: <qty> <unit-price> <product name> [| color [| size [| category]]]")
	fmt.Fprintln(r.out, "  Example: 2 15.50 Canvas sneaker | Red | 42")

	var items []core.LineItem
	for {
		raw, err := r.prompt(fmt.Sprintf("  Line %d: ", len(items)+1))
		if err != nil {
			fmt.Fprintln(r.out, "Order entry cancelled.")
			return nil
		}
		switch strings.ToLower(raw) {
		case "cancel":
			fmt.Fprintln(r.out, "Order entry cancelled.")
			return nil
		case "done":
		case "":
			continue
		default:
			it, err := parseLine(raw, lists)
			if err != nil {
				fmt.Fprintf(r.out, "  %v\n", err)
				continue
			}
			items = append(items, it)
			continue
		}
		break
	}
	if len(items) == 0 {
		fmt.Fprintln(r.out, "No lines entered. Order not created.")
		return nil
	}

	draft, err := r.svc.UpdateDraft(r.ctx, r.s, app.DraftForm{Header: h, Items: items})
	if err != nil {
		return err
	}
	r.showDraft(draft)

	if choice, _ := r.prompt("\nSave this order? (y/n): "); !strings.EqualFold(choice, "y") && !strings.EqualFold(choice, "yes") {
		fmt.Fprintln(r.out, "Order kept as draft. Use /save when ready.")
		return nil
	}
	return r.save()
}

// parseLine reads "<qty> <unit-price> <product name> [| color [| size [| category]]]".
func parseLine(raw string, lists *core.ReferenceLists) (core.LineItem, error) {
	parts := strings.Split(raw, "|")
	fields := strings.Fields(parts[0])
	if len(fields) < 3 {
		return core.LineItem{}, fmt.Errorf("invalid format, use: <qty> <unit-price> <product name>")
	}
	if qty, ok := number(fields[0]); !ok || !qty.IsPositive() {
		return core.LineItem{}, fmt.Errorf("invalid quantity %q", fields[0])
	}
	if price, ok := number(fields[1]); !ok || price.IsNegative() {
		return core.LineItem{}, fmt.Errorf("invalid price %q", fields[1])
	}

	it := core.LineItem{
		CategoryID:  lists.DefaultCategory().String(),
		ProductName: strings.Join(fields[2:], " "),
		Qty:         fields[0],
		UnitPrice:   fields[1],
	}
	var err error
	resolve := func(i int, t core.RefTable, label string) (string, error) {
		if i >= len(parts) || strings.TrimSpace(parts[i]) == "" {
			return "", nil
		}
		id := core.IDByName(lists.List(t), parts[i])
		if id.IsZero() {
			return "", fmt.Errorf("unknown %s %q", label, strings.TrimSpace(parts[i]))
		}
		return id.String(), nil
	}
	if it.ColorID, err = resolve(1, core.TableColors, "color"); err != nil {
		return core.LineItem{}, err
	}
	if it.SizeID, err = resolve(2, core.TableSizes, "size"); err != nil {
		return core.LineItem{}, err
	}
	category, err := resolve(3, core.TableCategories, "category")
	if err != nil {
		return core.LineItem{}, err
	}
	if category != "" {
		it.CategoryID = category
	}
	return it, nil
}

// number parses s strictly: text that is not a number, or that is out of range, fails.
func number(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	n := core.Num(s)
	return n, !n.IsZero() || d.IsZero()
}

var headerFields = map[string]string{
	"order_date": "order_date",
	"date":       "order_date",
	"location":   "location",
	"customer":   "customer",
	"phone":      "phone",
	"address":    "address",
	"delivery":   "delivery",
	"currency":   "currency",
	"paid":       "paid",
	"cash":       "cash",
	"note":       "note",
}

// setHeader edits one header field of the draft. Location and delivery are given by name.
func (r *runner) setHeader(field, value string) error {
	key, ok := headerFields[strings.ToLower(field)]
	if !ok {
		fmt.Fprintf(r.out, "Unknown header field: %s\n", field)
		return nil
	}
	lists, err := r.svc.ReferenceLists(r.ctx, r.s)
	if err != nil {
		return err
	}
	d, err := r.svc.Draft(r.ctx, r.s)
	if err != nil {
		return err
	}
	h := d.Header

	byName := func(t core.RefTable) (string, bool) {
		if value == "" {
			return "", true
		}
		id := core.IDByName(lists.List(t), value)
		if id.IsZero() {
			fmt.Fprintf(r.out, "Unknown %s: %s\n", key, value)
			return "", false
		}
		return id.String(), true
	}

	switch key {
	case "order_date":
		h.OrderDate = value
	case "location":
		if h.LocationID, ok = byName(core.TableLocations); !ok {
			return nil
		}
	case "customer":
		h.CustomerName = value
	case "phone":
		h.Phone = value
	case "address":
		h.Address = value
	case "delivery":
		if h.DeliveryCompanyID, ok = byName(core.TableDelivery); !ok {
			return nil
		}
	case "currency":
		h.Currency = strings.ToUpper(value)
	case "paid":
		h.PaidAmount = value
	case "cash":
		h.CashTiming = strings.ToUpper(value)
	case "note":
		h.Note = value
	}

	items := make([]core.LineItem, len(d.Lines))
	for i, l := range d.Lines {
		items[i] = l.Item
	}
	updated, err := r.svc.UpdateDraft(r.ctx, r.s, app.DraftForm{Header: h, Items: items})
	if err != nil {
		return err
	}
	r.showDraft(updated)
	return nil
}
