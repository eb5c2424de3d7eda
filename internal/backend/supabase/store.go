package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"retail-erp/internal/core"
)

// Store is the PostgREST data surface for one access token.
type Store struct {
	c     *Client
	token string
}

var _ core.Store = (*Store)(nil)

func (s *Store) get(ctx context.Context, op, table string, q url.Values, headers map[string]string, out any) error {
	return s.c.do(ctx, request{op: op, method: http.MethodGet, path: restPrefix + table, query: q, token: s.token, headers: headers}, out)
}

func (s *Store) insert(ctx context.Context, op, table string, body any) error {
	return s.c.do(ctx, request{
		op:      op,
		method:  http.MethodPost,
		path:    restPrefix + table,
		body:    body,
		token:   s.token,
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

func (s *Store) rpc(ctx context.Context, fn string, args any, out *json.RawMessage) error {
	return s.c.do(ctx, request{op: fn, method: http.MethodPost, path: rpcPrefix + fn, body: args, token: s.token}, out)
}

func recentQuery(dateColumn string, limit int) url.Values {
	if limit <= 0 {
		limit = core.DefaultRecentLimit
	}
	return url.Values{
		"select": {"*"},
		"order":  {dateColumn + ".desc,id.desc"},
		"limit":  {strconv.Itoa(limit)},
	}
}

func (s *Store) ListReference(ctx context.Context, table core.RefTable) ([]core.RefItem, error) {
	q := url.Values{
		"select":    {"id,name"},
		"is_active": {"eq.true"},
		"order":     {"name.asc"},
	}
	var items []core.RefItem
	if err := s.get(ctx, "list_"+string(table), string(table), q, nil, &items); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return items, nil
}

func (s *Store) InsertInventory(ctx context.Context, rec core.InventoryIn) error {
	if err := s.insert(ctx, "insert_inventory", "inventory_in", rec); err != nil {
		return fmt.Errorf("failed to insert inventory: %w", err)
	}
	return nil
}

func (s *Store) RecentInventory(ctx context.Context, limit int) ([]core.InventoryIn, error) {
	var rows []core.InventoryIn
	if err := s.get(ctx, "recent_inventory", "inventory_in", recentQuery("date", limit), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to load recent inventory: %w", err)
	}
	return rows, nil
}

func (s *Store) InsertOrder(ctx context.Context, order core.SalesOrder) (core.ID, error) {
	var raw json.RawMessage
	err := s.c.do(ctx, request{
		op:     "insert_order",
		method: http.MethodPost,
		path:   restPrefix + "sales_orders",
		query:  url.Values{"select": {"id"}},
		body:   order,
		token:  s.token,
		headers: map[string]string{
			"Prefer": "return=representation",
			"Accept": singleObject,
		},
	}, &raw)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	obj, ok := firstObject(raw)
	if !ok {
		return "", errors.New("insert order: backend returned no row")
	}
	var row struct {
		ID core.ID `json:"id"`
	}
	if err := json.Unmarshal(obj, &row); err != nil {
		return "", fmt.Errorf("failed to decode inserted order: %w", err)
	}
	if row.ID.IsZero() {
		return "", errors.New("insert order: backend returned no id")
	}
	return row.ID, nil
}

func (s *Store) InsertItems(ctx context.Context, items []core.SalesItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.insert(ctx, "insert_items", "sales_items", items); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (s *Store) RecentOrders(ctx context.Context, limit int) ([]core.SalesOrder, error) {
	var rows []core.SalesOrder
	if err := s.get(ctx, "recent_orders", "sales_orders", recentQuery("order_date", limit), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	return rows, nil
}

func (s *Store) GetOrder(ctx context.Context, id core.ID) (*core.SalesOrder, error) {
	q := url.Values{"select": {"*"}, "id": {"eq." + id.String()}}
	var order core.SalesOrder
	err := s.get(ctx, "get_order", "sales_orders", q, map[string]string{"Accept": singleObject}, &order)
	if err != nil {
		var re *core.RemoteError
		if errors.As(err, &re) && re.Status == http.StatusNotAcceptable {
			return nil, fmt.Errorf("order %s: %w: %w", id, core.ErrNotFound, err)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

func (s *Store) ListItems(ctx context.Context, orderID core.ID) ([]core.SalesItem, error) {
	q := url.Values{
		"select":   {"*"},
		"order_id": {"eq." + orderID.String()},
		"order":    {"id.asc"},
	}
	var items []core.SalesItem
	if err := s.get(ctx, "list_items", "sales_items", q, nil, &items); err != nil {
		return nil, fmt.Errorf("failed to list items of order %s: %w", orderID, err)
	}
	return items, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id core.ID, upd core.OrderUpdate) error {
	var rows []struct {
		ID core.ID `json:"id"`
	}
	err := s.c.do(ctx, request{
		op:      "update_order",
		method:  http.MethodPatch,
		path:    restPrefix + "sales_orders",
		query:   url.Values{"id": {"eq." + id.String()}, "select": {"id"}},
		body:    upd,
		token:   s.token,
		headers: map[string]string{"Prefer": "return=representation"},
	}, &rows)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("order %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) InsertExpense(ctx context.Context, exp core.Expense) error {
	if err := s.insert(ctx, "insert_expense", "expenses", exp); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (s *Store) RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	var rows []core.Expense
	if err := s.get(ctx, "recent_expenses", "expenses", recentQuery("date", limit), nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to load recent expenses: %w", err)
	}
	return rows, nil
}

func (s *Store) DashboardSummary(ctx context.Context, from, to string) (*core.DashboardSummary, error) {
	var raw json.RawMessage
	args := map[string]string{"date_from": from, "date_to": to}
	if err := s.rpc(ctx, "get_dashboard_summary", args, &raw); err != nil {
		return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
	}

	summary := &core.DashboardSummary{}
	obj, ok := firstObject(raw)
	if !ok {
		return summary, nil
	}
	if err := json.Unmarshal(obj, summary); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard summary: %w", err)
	}
	return summary, nil
}

func (s *Store) RemainingInventory(ctx context.Context, asOf string) ([]core.RemainingRow, error) {
	var raw json.RawMessage
	if err := s.rpc(ctx, "get_remaining_inventory", map[string]string{"date_to": asOf}, &raw); err != nil {
		return nil, fmt.Errorf("failed to load remaining inventory: %w", err)
	}

	var rows []core.RemainingRow
	if err := json.Unmarshal(asArray(raw), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode remaining inventory: %w", err)
	}
	return rows, nil
}
