package core

import (
	"context"
	"fmt"
)

// WritePhase is how far a two-phase order write got.
type WritePhase int

const (
	// PhaseNone: nothing was written.
	PhaseNone WritePhase = iota
	// PhaseHeaderWritten: the header exists but its items do not.
	PhaseHeaderWritten
	// PhaseCommitted: header and items were both written.
	PhaseCommitted
)

func (p WritePhase) String() string {
	switch p {
	case PhaseHeaderWritten:
		return "header_written"
	case PhaseCommitted:
		return "committed"
	default:
		return "none"
	}
}

// WriteResult is the outcome of OrderWriter.Submit.
type WriteResult struct {
	Phase   WritePhase
	OrderID ID
	Items   int
}

// OrderWriter persists a validated order in two sequential steps.
// The backend offers no transaction spanning both, so a failure in the second
// step leaves the header in place; there is no rollback and no retry.
type OrderWriter struct {
	store OrderStore
}

func NewOrderWriter(store OrderStore) *OrderWriter {
	return &OrderWriter{store: store}
}

// Submit inserts the header, then the items tagged with the new order id.
// A header failure returns PhaseNone and the items are never attempted. An items
// failure returns PhaseHeaderWritten and a *PartialCommitError.
func (w *OrderWriter) Submit(ctx context.Context, p *OrderPayload) (*WriteResult, error) {
	orderID, err := w.store.InsertOrder(ctx, p.Order)
	if err != nil {
		return &WriteResult{Phase: PhaseNone}, fmt.Errorf("failed to insert order header: %w", err)
	}

	items := make([]SalesItem, len(p.Items))
	for i, it := range p.Items {
		it.OrderID = orderID
		items[i] = it
	}

	if err := w.store.InsertItems(ctx, items); err != nil {
		return &WriteResult{Phase: PhaseHeaderWritten, OrderID: orderID},
			&PartialCommitError{OrderID: orderID, Err: err}
	}

	return &WriteResult{Phase: PhaseCommitted, OrderID: orderID, Items: len(items)}, nil
}
