package app

import "retail-erp/internal/core"

// DraftForm is the whole order form as submitted by a browser.
type DraftForm struct {
	Header core.OrderHeader
	Items  []core.LineItem
}

// SetLineRequest edits one field of one draft line. Field is one of the core.Field* names.
type SetLineRequest struct {
	Index int
	Field string
	Value string
}

// UpdateOrderRequest is the inline edit of an existing order.
// PaidAmount is raw input; blank or non-numeric counts as zero.
type UpdateOrderRequest struct {
	OrderID    core.ID
	PaidAmount string
	Status     string
}

// DateRange is an inclusive business-date range.
type DateRange struct {
	From string
	To   string
}
