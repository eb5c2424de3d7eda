package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RefItem is one active row of a lookup table.
type RefItem struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// RefTable names a lookup table.
type RefTable string

const (
	TableLocations         RefTable = "locations"
	TableCategories        RefTable = "product_categories"
	TableSizes             RefTable = "product_sizes"
	TableColors            RefTable = "product_colors"
	TableDelivery          RefTable = "delivery_companies"
	TableExpenseCategories RefTable = "expense_categories"
)

// RefTables lists every lookup table loaded into ReferenceLists.
var RefTables = []RefTable{
	TableLocations,
	TableCategories,
	TableSizes,
	TableColors,
	TableDelivery,
	TableExpenseCategories,
}

// ReferenceLists caches the active lookup rows for one signed-in user.
type ReferenceLists struct {
	Locations         []RefItem `json:"locations"`
	Categories        []RefItem `json:"categories"`
	Sizes             []RefItem `json:"sizes"`
	Colors            []RefItem `json:"colors"`
	Delivery          []RefItem `json:"delivery"`
	ExpenseCategories []RefItem `json:"expense_categories"`
}

// List returns the cached rows of table t.
func (l *ReferenceLists) List(t RefTable) []RefItem {
	if l == nil {
		return nil
	}
	switch t {
	case TableLocations:
		return l.Locations
	case TableCategories:
		return l.Categories
	case TableSizes:
		return l.Sizes
	case TableColors:
		return l.Colors
	case TableDelivery:
		return l.Delivery
	case TableExpenseCategories:
		return l.ExpenseCategories
	}
	return nil
}

func (l *ReferenceLists) set(t RefTable, items []RefItem) {
	if items == nil {
		items = []RefItem{}
	}
	switch t {
	case TableLocations:
		l.Locations = items
	case TableCategories:
		l.Categories = items
	case TableSizes:
		l.Sizes = items
	case TableColors:
		l.Colors = items
	case TableDelivery:
		l.Delivery = items
	case TableExpenseCategories:
		l.ExpenseCategories = items
	}
}

// Name resolves id within table t, or "" when unknown.
func (l *ReferenceLists) Name(t RefTable, id ID) string {
	return NameByID(l.List(t), id)
}

// DefaultLocation is the first location, used to preselect form fields.
func (l *ReferenceLists) DefaultLocation() ID {
	return firstID(l.List(TableLocations))
}

// DefaultCategory is the first product category, used for new order lines.
func (l *ReferenceLists) DefaultCategory() ID {
	return firstID(l.List(TableCategories))
}

func firstID(items []RefItem) ID {
	if len(items) == 0 {
		return ""
	}
	return items[0].ID
}

// NameByID returns the display name of id, or "" when id is unset or unknown.
func NameByID(items []RefItem, id ID) string {
	if id.IsZero() {
		return ""
	}
	for _, it := range items {
		if it.ID == id {
			return it.Name
		}
	}
	return ""
}

// LoadReferenceLists fetches all lookup tables in parallel.
// It fails as a whole if any single table cannot be read.
func LoadReferenceLists(ctx context.Context, store ReferenceStore) (*ReferenceLists, error) {
	results := make([][]RefItem, len(RefTables))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range RefTables {
		g.Go(func() error {
			items, err := store.ListReference(gctx, t)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", t, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lists := &ReferenceLists{}
	for i, t := range RefTables {
		lists.set(t, results[i])
	}
	return lists, nil
}
