// Package apptest provides an in-memory backend and auth service for testing
// the adapters against a real ApplicationService.
package apptest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"retail-erp/internal/ai"
	"retail-erp/internal/app"
	"retail-erp/internal/core"
	"retail-erp/internal/session"

	"github.com/stretchr/testify/require"
)

// Password is the only password the fake auth service accepts.
const Password = "secret"

// Lists are the lookup rows every Store serves.
var Lists = map[core.RefTable][]core.RefItem{
	core.TableLocations:         {{ID: "1", Name: "Phnom Penh"}, {ID: "2", Name: "Guangzhou"}},
	core.TableCategories:        {{ID: "1", Name: "Shoes"}, {ID: "2", Name: "Bags"}},
	core.TableSizes:             {{ID: "1", Name: "M"}, {ID: "2", Name: "42"}},
	core.TableColors:            {{ID: "1", Name: "Red"}, {ID: "2", Name: "Black"}},
	core.TableDelivery:          {{ID: "1", Name: "J&T"}},
	core.TableExpenseCategories: {{ID: "1", Name: "Rent"}},
}

// Store is a goroutine-safe in-memory core.Store.
type Store struct {
	mu        sync.Mutex
	inventory []core.InventoryIn
	orders    []core.SalesOrder
	items     []core.SalesItem
	expenses  []core.Expense
	summary   core.DashboardSummary
	remaining []core.RemainingRow
}

// State is a copy of everything written to a Store.
type State struct {
	Inventory []core.InventoryIn
	Orders    []core.SalesOrder
	Items     []core.SalesItem
	Expenses  []core.Expense
}

func (m *Store) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		Inventory: slices.Clone(m.inventory),
		Orders:    slices.Clone(m.orders),
		Items:     slices.Clone(m.items),
		Expenses:  slices.Clone(m.expenses),
	}
}

// Seed sets what the report calls return.
func (m *Store) Seed(summary core.DashboardSummary, remaining []core.RemainingRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = summary
	m.remaining = remaining
}

func (m *Store) ListReference(_ context.Context, t core.RefTable) ([]core.RefItem, error) {
	return Lists[t], nil
}

func (m *Store) InsertInventory(_ context.Context, rec core.InventoryIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = core.ID(fmt.Sprint(len(m.inventory) + 1))
	m.inventory = append(m.inventory, rec)
	return nil
}

func (m *Store) RecentInventory(context.Context, int) ([]core.InventoryIn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.inventory), nil
}

func (m *Store) InsertOrder(_ context.Context, o core.SalesOrder) (core.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = core.ID(fmt.Sprint(len(m.orders) + 1))
	o.Status = core.StatusNew
	m.orders = append(m.orders, o)
	return o.ID, nil
}

func (m *Store) InsertItems(_ context.Context, items []core.SalesItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

func (m *Store) RecentOrders(context.Context, int) ([]core.SalesOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.orders), nil
}

func (m *Store) GetOrder(_ context.Context, id core.ID) (*core.SalesOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *Store) ListItems(_ context.Context, id core.ID) ([]core.SalesItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.SalesItem
	for _, it := range m.items {
		if it.OrderID == id {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *Store) UpdateOrder(_ context.Context, id core.ID, upd core.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID == id {
			m.orders[i].PaidAmount = upd.PaidAmount
			m.orders[i].Status = upd.Status
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *Store) InsertExpense(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, e)
	return nil
}

func (m *Store) RecentExpenses(context.Context, int) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.expenses), nil
}

func (m *Store) DashboardSummary(context.Context, string, string) (*core.DashboardSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.summary
	return &s, nil
}

func (m *Store) RemainingInventory(context.Context, string) ([]core.RemainingRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.remaining), nil
}

// Backend serves one shared Store to every token.
type Backend struct {
	Store *Store
}

func (b *Backend) As(string) core.Store { return b.Store }

func (b *Backend) Ping(context.Context) error { return nil }

// Auth accepts any email with Password.
type Auth struct{}

func (Auth) SignIn(_ context.Context, email, password string) (*core.AuthSession, error) {
	if password != Password {
		return nil, &core.RemoteError{Status: 400, Message: "Invalid login credentials"}
	}
	return &core.AuthSession{AccessToken: "tok", RefreshToken: "r", User: core.AuthUser{ID: "u1", Email: email}}, nil
}

func (Auth) SignUp(_ context.Context, email, _ string) (*core.SignUpResult, error) {
	return &core.SignUpResult{User: core.AuthUser{ID: "u2", Email: email}}, nil
}

func (Auth) SignOut(context.Context, string) error { return nil }

func (Auth) Refresh(context.Context, string) (*core.AuthSession, error) {
	return nil, errors.New("refresh not supported")
}

// Env is a signed-in application service over an in-memory store.
type Env struct {
	Svc     app.ApplicationService
	Session *session.Session
	Store   *Store
}

// New builds an Env signed in as owner@example.com with the assistant disabled.
func New(t *testing.T) *Env {
	t.Helper()
	store := &Store{}
	mgr := session.NewManager(session.NewMemoryStore(), Auth{}, time.Hour, nil)
	svc := app.NewAppService(&Backend{Store: store}, mgr, ai.Disabled{}, 0, nil)

	ctx := context.Background()
	s, err := svc.LoadSession(ctx, "")
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, s, "owner@example.com", Password)
	require.NoError(t, err)
	return &Env{Svc: svc, Session: s, Store: store}
}
