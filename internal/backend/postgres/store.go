// Package postgres reads and writes the business tables over a direct database
// connection. Every call runs in its own transaction that first adopts the
// caller's JWT claims and role, so the database's row-level security policies
// apply exactly as they do behind the REST API.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"retail-erp/internal/auth"
	"retail-erp/internal/core"
	"retail-erp/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const defaultRole = "authenticated"

// Backend implements core.Backend over a pgx pool.
type Backend struct {
	pool    *pgxpool.Pool
	tokens  *auth.Parser
	timeout time.Duration
	metrics *metrics.Metrics
	log     *zap.Logger
}

var _ core.Backend = (*Backend)(nil)

// New returns a Backend. A positive timeout bounds every call, including the wait
// for a pooled connection and any lock waits inside the transaction.
func New(pool *pgxpool.Pool, tokens *auth.Parser, timeout time.Duration, m *metrics.Metrics, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{pool: pool, tokens: tokens, timeout: timeout, metrics: m, log: log.Named("postgres")}
}

func (b *Backend) As(accessToken string) core.Store {
	return &Store{b: b, token: accessToken}
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Store is the data surface for one access token.
type Store struct {
	b     *Backend
	token string
}

var _ core.Store = (*Store)(nil)

// asUser runs fn in a transaction scoped to the token's claims.
func (s *Store) asUser(ctx context.Context, op string, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	start := time.Now()
	defer func() {
		s.b.metrics.ObserveBackend(op, time.Since(start), err)
		if err != nil {
			s.b.log.Warn("backend call failed", zap.String("op", op), zap.Error(err))
		}
	}()

	claims, err := s.b.tokens.Parse(s.token)
	if err != nil {
		return &core.RemoteError{Op: op, Status: http.StatusUnauthorized, Message: "Invalid or expired session. Please sign in again."}
	}
	claimsJSON, err := claims.JSON()
	if err != nil {
		return err
	}
	role := claims.Role
	if role == "" {
		role = defaultRole
	}

	if s.b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.b.timeout)
		defer cancel()
	}

	tx, err := s.b.pool.Begin(ctx)
	if err != nil {
		return core.NewRemoteError(op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT set_config('request.jwt.claims', $1, true), set_config('role', $2, true)`,
		claimsJSON, role,
	); err != nil {
		return pgError(op, err)
	}

	if err := fn(ctx, tx); err != nil {
		return pgError(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return pgError(op, err)
	}
	return nil
}

// pgError maps driver errors onto the core taxonomy, keeping the server message.
func pgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &core.RemoteError{Op: op, Code: pgErr.Code, Message: pgErr.Message}
	}
	var re *core.RemoteError
	if errors.As(err, &re) {
		return err
	}
	return core.NewRemoteError(op, err)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return core.DefaultRecentLimit
	}
	return limit
}

func (s *Store) ListReference(ctx context.Context, table core.RefTable) ([]core.RefItem, error) {
	if !slices.Contains(core.RefTables, table) {
		return nil, fmt.Errorf("unknown reference table %q", table)
	}
	query := `SELECT id, name FROM ` + pgx.Identifier{string(table)}.Sanitize() +
		` WHERE is_active = true ORDER BY name`

	var items []core.RefItem
	err := s.asUser(ctx, "list_"+string(table), func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var it core.RefItem
			if err := rows.Scan(&it.ID, &it.Name); err != nil {
				return err
			}
			items = append(items, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return items, nil
}

func (s *Store) InsertInventory(ctx context.Context, rec core.InventoryIn) error {
	err := s.asUser(ctx, "insert_inventory", func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO inventory_in (date, location_id, product_category_id, product_name, color_id, size_id,
				qty, unit_price_rmb, fx_rmb_usd, unit_price_usd, amount_usd, note)
			VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			rec.Date, rec.LocationID, rec.CategoryID, rec.ProductName, rec.ColorID, rec.SizeID,
			rec.Qty, rec.UnitPriceRMB, rec.FxRMBUSD, rec.UnitPriceUSD, rec.AmountUSD, rec.Note)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert inventory: %w", err)
	}
	return nil
}

func (s *Store) RecentInventory(ctx context.Context, limit int) ([]core.InventoryIn, error) {
	var out []core.InventoryIn
	err := s.asUser(ctx, "recent_inventory", func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, date::text, location_id, product_category_id, product_name, color_id, size_id,
				COALESCE(qty, 0), COALESCE(unit_price_rmb, 0), COALESCE(fx_rmb_usd, 0),
				COALESCE(unit_price_usd, 0), COALESCE(amount_usd, 0), note
			FROM inventory_in
			ORDER BY date DESC, id DESC
			LIMIT $1`, limitOrDefault(limit))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r core.InventoryIn
			if err := rows.Scan(&r.ID, &r.Date, &r.LocationID, &r.CategoryID, &r.ProductName, &r.ColorID, &r.SizeID,
				&r.Qty, &r.UnitPriceRMB, &r.FxRMBUSD, &r.UnitPriceUSD, &r.AmountUSD, &r.Note); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent inventory: %w", err)
	}
	return out, nil
}

func (s *Store) InsertOrder(ctx context.Context, o core.SalesOrder) (core.ID, error) {
	var id core.ID
	err := s.asUser(ctx, "insert_order", func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			INSERT INTO sales_orders (order_date, location_id, customer_name, phone, address, delivery_company_id,
				currency, paid_amount, cash_timing, note, order_total)
			VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			o.OrderDate, o.LocationID, o.CustomerName, o.Phone, o.Address, o.DeliveryCompanyID,
			string(o.Currency), o.PaidAmount, string(o.CashTiming), o.Note, o.OrderTotal,
		).Scan(&id)
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

func (s *Store) InsertItems(ctx context.Context, items []core.SalesItem) error {
	if len(items) == 0 {
		return nil
	}
	err := s.asUser(ctx, "insert_items", func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, it := range items {
			batch.Queue(`
				INSERT INTO sales_items (order_id, product_category_id, product_name, color_id, size_id,
					qty, unit_price, line_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				it.OrderID, it.CategoryID, it.ProductName, it.ColorID, it.SizeID, it.Qty, it.UnitPrice, it.LineTotal)
		}
		br := tx.SendBatch(ctx, batch)
		for range items {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return err
			}
		}
		return br.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

const orderColumns = `id, order_date::text, location_id, customer_name, phone, address, delivery_company_id,
	currency::text, COALESCE(paid_amount, 0), cash_timing::text, note, COALESCE(order_total, 0),
	COALESCE(payment_status::text, ''), COALESCE(status::text, '')`

func scanOrder(row pgx.Row) (core.SalesOrder, error) {
	var o core.SalesOrder
	err := row.Scan(&o.ID, &o.OrderDate, &o.LocationID, &o.CustomerName, &o.Phone, &o.Address, &o.DeliveryCompanyID,
		(*string)(&o.Currency), &o.PaidAmount, (*string)(&o.CashTiming), &o.Note, &o.OrderTotal,
		&o.PaymentStatus, (*string)(&o.Status))
	return o, err
}

func (s *Store) RecentOrders(ctx context.Context, limit int) ([]core.SalesOrder, error) {
	var out []core.SalesOrder
	err := s.asUser(ctx, "recent_orders", func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+orderColumns+`
			FROM sales_orders
			ORDER BY order_date DESC, id DESC
			LIMIT $1`, limitOrDefault(limit))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	return out, nil
}

func (s *Store) GetOrder(ctx context.Context, id core.ID) (*core.SalesOrder, error) {
	var o core.SalesOrder
	err := s.asUser(ctx, "get_order", func(ctx context.Context, tx pgx.Tx) error {
		var err error
		o, err = scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id = $1`, id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &o, nil
}

func (s *Store) ListItems(ctx context.Context, orderID core.ID) ([]core.SalesItem, error) {
	var out []core.SalesItem
	err := s.asUser(ctx, "list_items", func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, order_id, product_category_id, product_name, color_id, size_id,
				COALESCE(qty, 0), COALESCE(unit_price, 0), COALESCE(line_total, 0)
			FROM sales_items
			WHERE order_id = $1
			ORDER BY id`, orderID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var it core.SalesItem
			if err := rows.Scan(&it.ID, &it.OrderID, &it.CategoryID, &it.ProductName, &it.ColorID, &it.SizeID,
				&it.Qty, &it.UnitPrice, &it.LineTotal); err != nil {
				return err
			}
			out = append(out, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items of order %s: %w", orderID, err)
	}
	return out, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id core.ID, upd core.OrderUpdate) error {
	err := s.asUser(ctx, "update_order", func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE sales_orders SET paid_amount = $1, status = $2 WHERE id = $3`,
			upd.PaidAmount, string(upd.Status), id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return core.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return nil
}

func (s *Store) InsertExpense(ctx context.Context, e core.Expense) error {
	err := s.asUser(ctx, "insert_expense", func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO expenses (date, location_id, expense_category_id, currency, amount, note)
			VALUES ($1::date, $2, $3, $4, $5, $6)`,
			e.Date, e.LocationID, e.CategoryID, string(e.Currency), e.Amount, e.Note)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (s *Store) RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	var out []core.Expense
	err := s.asUser(ctx, "recent_expenses", func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, date::text, location_id, expense_category_id, currency::text, COALESCE(amount, 0), note
			FROM expenses
			ORDER BY date DESC, id DESC
			LIMIT $1`, limitOrDefault(limit))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e core.Expense
			if err := rows.Scan(&e.ID, &e.Date, &e.LocationID, &e.CategoryID, (*string)(&e.Currency), &e.Amount, &e.Note); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent expenses: %w", err)
	}
	return out, nil
}

func (s *Store) DashboardSummary(ctx context.Context, from, to string) (*core.DashboardSummary, error) {
	var summary core.DashboardSummary
	err := s.asUser(ctx, "get_dashboard_summary", func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT COALESCE(total_inventory_in_usd, 0) AS total_inventory_in_usd,
				COALESCE(sales_usd, 0) AS sales_usd,
				COALESCE(sales_khr, 0) AS sales_khr,
				COALESCE(sales_rmb, 0) AS sales_rmb,
				COALESCE(expenses_usd, 0) AS expenses_usd,
				COALESCE(expenses_khr, 0) AS expenses_khr,
				COALESCE(expenses_rmb, 0) AS expenses_rmb
			FROM get_dashboard_summary($1::date, $2::date)`, from, to)
		if err != nil {
			return err
		}
		summary, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[core.DashboardSummary])
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
	}
	return &summary, nil
}

func (s *Store) RemainingInventory(ctx context.Context, asOf string) ([]core.RemainingRow, error) {
	var out []core.RemainingRow
	err := s.asUser(ctx, "get_remaining_inventory", func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT COALESCE(location::text, '') AS location,
				COALESCE(product_category::text, '') AS product_category,
				COALESCE(product_name::text, '') AS product_name,
				COALESCE(color::text, '') AS color,
				COALESCE(size::text, '') AS size,
				COALESCE(total_in, 0) AS total_in,
				COALESCE(total_sold, 0) AS total_sold,
				COALESCE(remaining_qty, 0) AS remaining_qty
			FROM get_remaining_inventory($1::date)`, asOf)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[core.RemainingRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load remaining inventory: %w", err)
	}
	return out, nil
}
