package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"retail-erp/internal/ai"
	"retail-erp/internal/core"
	"retail-erp/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeStore struct {
	mu    sync.Mutex
	calls []string

	lists   map[core.RefTable][]core.RefItem
	listErr error

	inventory []core.InventoryIn
	orders    []core.SalesOrder
	items     []core.SalesItem
	expenses  []core.Expense
	updates   map[core.ID]core.OrderUpdate

	headerErr    error
	itemsErr     error
	getErr       error
	summary      *core.DashboardSummary
	summaryErr   error
	remaining    []core.RemainingRow
	remainingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists: map[core.RefTable][]core.RefItem{
			core.TableLocations:         {{ID: "3", Name: "Guangzhou"}, {ID: "1", Name: "Phnom Penh"}},
			core.TableCategories:        {{ID: "2", Name: "Bags"}, {ID: "1", Name: "Shoes"}},
			core.TableSizes:             {{ID: "1", Name: "M"}},
			core.TableColors:            {{ID: "1", Name: "Red"}},
			core.TableDelivery:          {{ID: "1", Name: "J&T"}},
			core.TableExpenseCategories: {{ID: "1", Name: "Rent"}},
		},
		updates: map[core.ID]core.OrderUpdate{},
	}
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStore) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeStore) ListReference(_ context.Context, t core.RefTable) ([]core.RefItem, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lists[t], nil
}

func (f *fakeStore) InsertInventory(_ context.Context, rec core.InventoryIn) error {
	f.record("insert_inventory")
	f.inventory = append(f.inventory, rec)
	return nil
}

func (f *fakeStore) RecentInventory(context.Context, int) ([]core.InventoryIn, error) {
	f.record("recent_inventory")
	return f.inventory, nil
}

func (f *fakeStore) InsertOrder(_ context.Context, o core.SalesOrder) (core.ID, error) {
	f.record("insert_order")
	if f.headerErr != nil {
		return "", f.headerErr
	}
	o.ID = core.ID(fmt.Sprint(len(f.orders) + 1))
	f.orders = append(f.orders, o)
	return o.ID, nil
}

func (f *fakeStore) InsertItems(_ context.Context, items []core.SalesItem) error {
	f.record("insert_items")
	if f.itemsErr != nil {
		return f.itemsErr
	}
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeStore) RecentOrders(context.Context, int) ([]core.SalesOrder, error) {
	f.record("recent_orders")
	return f.orders, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id core.ID) (*core.SalesOrder, error) {
	f.record("get_order")
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, o := range f.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, &core.RemoteError{Status: 406, Message: "JSON object requested, multiple (or no) rows returned"}
}

func (f *fakeStore) ListItems(_ context.Context, id core.ID) ([]core.SalesItem, error) {
	f.record("list_items")
	var out []core.SalesItem
	for _, it := range f.items {
		if it.OrderID == id {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateOrder(_ context.Context, id core.ID, upd core.OrderUpdate) error {
	f.record("update_order")
	f.updates[id] = upd
	return nil
}

func (f *fakeStore) InsertExpense(_ context.Context, e core.Expense) error {
	f.record("insert_expense")
	f.expenses = append(f.expenses, e)
	return nil
}

func (f *fakeStore) RecentExpenses(context.Context, int) ([]core.Expense, error) {
	f.record("recent_expenses")
	return f.expenses, nil
}

func (f *fakeStore) DashboardSummary(context.Context, string, string) (*core.DashboardSummary, error) {
	f.record("summary")
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	if f.summary == nil {
		return &core.DashboardSummary{}, nil
	}
	return f.summary, nil
}

func (f *fakeStore) RemainingInventory(context.Context, string) ([]core.RemainingRow, error) {
	f.record("remaining")
	return f.remaining, f.remainingErr
}

type fakeBackend struct {
	store  *fakeStore
	mu     sync.Mutex
	tokens []string
}

func (b *fakeBackend) As(token string) core.Store {
	b.mu.Lock()
	b.tokens = append(b.tokens, token)
	b.mu.Unlock()
	return b.store
}

func (b *fakeBackend) Ping(context.Context) error { return nil }

type fakeAuth struct {
	signInErr error
	signUpRes *core.SignUpResult
	calls     int
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*core.AuthSession, error) {
	f.calls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &core.AuthSession{AccessToken: "tok-" + email, RefreshToken: "r", User: core.AuthUser{ID: "u1", Email: email}}, nil
}

func (f *fakeAuth) SignUp(context.Context, string, string) (*core.SignUpResult, error) {
	f.calls++
	return f.signUpRes, nil
}

func (f *fakeAuth) SignOut(context.Context, string) error { return nil }

func (f *fakeAuth) Refresh(context.Context, string) (*core.AuthSession, error) {
	return nil, errors.New("not used")
}

type fakeAssistant struct {
	suggestion *core.DraftSuggestion
	err        error
}

func (f *fakeAssistant) SuggestDraft(context.Context, string, *core.ReferenceLists) (*core.DraftSuggestion, error) {
	return f.suggestion, f.err
}

type harness struct {
	svc   *appService
	store *fakeStore
	back  *fakeBackend
	auth  *fakeAuth
	sess  *session.Session
}

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, assistant ai.Assistant) *harness {
	t.Helper()
	store := newFakeStore()
	back := &fakeBackend{store: store}
	auth := &fakeAuth{}
	mgr := session.NewManager(session.NewMemoryStore(), auth, time.Hour, nil)
	svc := NewAppService(back, mgr, assistant, 0, nil).(*appService)
	svc.now = func() time.Time { return fixedNow }
	return &harness{svc: svc, store: store, back: back, auth: auth, sess: mgr.New()}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	res, err := h.svc.SignIn(context.Background(), h.sess, "clerk@example.com", "secret")
	require.NoError(t, err)
	require.True(t, res.SignedIn)
	require.Empty(t, res.Warning)
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestSignIn(t *testing.T) {
	t.Run("loads lists and prepares the draft", func(t *testing.T) {
		h := newHarness(t, nil)
		res, err := h.svc.SignIn(context.Background(), h.sess, "  clerk@example.com ", "secret")
		require.NoError(t, err)

		assert.Equal(t, "Login success.", res.Message)
		assert.Equal(t, "clerk@example.com", res.Email)
		require.NotNil(t, h.sess.Lists)
		assert.Equal(t, core.ID("3"), h.sess.Lists.DefaultLocation())

		require.NotNil(t, h.sess.Draft)
		assert.Equal(t, core.DefaultDraftLines, h.sess.Draft.Len())
		assert.Equal(t, "2", h.sess.Draft.Items[0].CategoryID, "first category preselected")
		assert.Equal(t, "3", h.sess.Draft.Header.LocationID)
		assert.Equal(t, "2026-03-15", h.sess.Draft.Header.OrderDate)
		assert.Contains(t, h.back.tokens, "tok-clerk@example.com")
	})

	t.Run("signed in with a warning when lists fail", func(t *testing.T) {
		h := newHarness(t, nil)
		h.store.listErr = &core.RemoteError{Status: 401, Message: "permission denied for table locations"}

		res, err := h.svc.SignIn(context.Background(), h.sess, "clerk@example.com", "secret")
		require.NoError(t, err)
		assert.True(t, res.SignedIn)
		assert.Equal(t, "Failed to load dropdown lists. Check RLS + login.", res.Warning)
		assert.Nil(t, h.sess.Lists)
	})

	t.Run("blank credentials never reach the auth service", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.SignIn(context.Background(), h.sess, " ", "secret")
		require.Error(t, err)
		assert.Equal(t, core.ReasonCredentials, err.Error())
		assert.Zero(t, h.auth.calls)
	})

	t.Run("auth failure is prefixed", func(t *testing.T) {
		h := newHarness(t, nil)
		h.auth.signInErr = &core.RemoteError{Status: 400, Message: "Invalid login credentials"}

		_, err := h.svc.SignIn(context.Background(), h.sess, "clerk@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, "Login failed: Invalid login credentials", err.Error())
		assert.False(t, h.sess.SignedIn())
	})
}

func TestSignUp(t *testing.T) {
	h := newHarness(t, nil)
	h.auth.signUpRes = &core.SignUpResult{User: core.AuthUser{ID: "u2", Email: "new@example.com"}}

	res, err := h.svc.SignUp(context.Background(), h.sess, "new@example.com", "secret")
	require.NoError(t, err)
	assert.False(t, res.SignedIn, "email confirmation pending")
	assert.Equal(t, "Sign up created. If email confirmation is enabled, confirm your email first.", res.Message)
	assert.False(t, h.sess.SignedIn())
}

func TestSignOut(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t)

	require.NoError(t, h.svc.SignOut(context.Background(), h.sess))
	assert.False(t, h.sess.SignedIn())
	assert.Nil(t, h.sess.Lists)
	assert.Nil(t, h.sess.Draft)

	_, err := h.svc.RecentOrders(context.Background(), h.sess)
	assert.ErrorIs(t, err, core.ErrNotSignedIn)
}

func TestSaveInventory(t *testing.T) {
	ctx := context.Background()

	t.Run("requires sign-in", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.SaveInventory(ctx, h.sess, core.InventoryInput{})
		assert.ErrorIs(t, err, core.ErrNotSignedIn)
	})

	t.Run("rejects before any remote call", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		in := h.svc.InventoryForm(h.sess)
		in.ProductName = "Sneaker"

		_, err := h.svc.SaveInventory(ctx, h.sess, in)
		require.Error(t, err)
		assert.Equal(t, core.ReasonInventory, err.Error())
		assert.False(t, h.store.called("insert_inventory"))
	})

	t.Run("stores derived USD values", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		in := h.svc.InventoryForm(h.sess)
		in.ProductName = "Sneaker"
		in.ColorID = "1"
		in.Qty, in.UnitPriceRMB, in.FxRMBUSD = "10", "70", "7"

		quote := h.svc.QuoteInventory(in)
		assert.Equal(t, "10.00", core.To2(quote.UnitPriceUSD))
		assert.Equal(t, "100.00", core.To2(quote.AmountUSD))

		res, err := h.svc.SaveInventory(ctx, h.sess, in)
		require.NoError(t, err)
		assert.Equal(t, "Saved Inventory IN successfully.", res.Message)
		require.Len(t, h.store.inventory, 1)
		assert.True(t, h.store.inventory[0].AmountUSD.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, core.ID("3"), h.store.inventory[0].LocationID)

		recent, err := h.svc.RecentInventory(ctx, h.sess)
		require.NoError(t, err)
		require.Len(t, recent.Rows, 1)
		assert.Equal(t, "Guangzhou", recent.Rows[0].Location)
		assert.Equal(t, "Bags", recent.Rows[0].Category)
		assert.Equal(t, "Red", recent.Rows[0].Color)
		assert.Empty(t, recent.Rows[0].Size)

		cleared := h.svc.ClearInventoryForm(in)
		assert.Empty(t, cleared.ProductName)
		assert.Empty(t, cleared.Qty)
		assert.Equal(t, "1", cleared.ColorID, "selections survive a clear")
	})
}

func TestDraftEditing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.signIn(t)

	d, err := h.svc.AddDraftLine(ctx, h.sess)
	require.NoError(t, err)
	require.Len(t, d.Lines, 3)

	_, err = h.svc.SetDraftLine(ctx, h.sess, SetLineRequest{Index: 0, Field: core.FieldQty, Value: "2"})
	require.NoError(t, err)
	_, err = h.svc.SetDraftLine(ctx, h.sess, SetLineRequest{Index: 0, Field: core.FieldUnitPrice, Value: "5.50"})
	require.NoError(t, err)
	d, err = h.svc.SetDraftLine(ctx, h.sess, SetLineRequest{Index: 2, Field: core.FieldQty, Value: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "11.00", core.To2(d.Total))
	assert.Equal(t, "11.00", core.To2(d.Lines[0].Total))

	_, err = h.svc.SetDraftLine(ctx, h.sess, SetLineRequest{Index: 7, Field: core.FieldQty, Value: "1"})
	assert.ErrorIs(t, err, core.ErrNoSuchLine)
	_, err = h.svc.SetDraftLine(ctx, h.sess, SetLineRequest{Index: 0, Field: "colour", Value: "1"})
	assert.ErrorIs(t, err, core.ErrUnknownField)

	d, err = h.svc.RemoveDraftLine(ctx, h.sess, 0)
	require.NoError(t, err)
	assert.Len(t, d.Lines, 2)
	assert.True(t, d.Total.IsZero())

	// The draft lives in the session store, not only in memory.
	reloaded, err := h.svc.LoadSession(ctx, h.sess.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Draft)
	assert.Equal(t, 2, reloaded.Draft.Len())
}

func fillDraft(t *testing.T, h *harness) {
	t.Helper()
	draft := h.sess.Draft
	_, err := h.svc.UpdateDraft(context.Background(), h.sess, DraftForm{
		Header: core.OrderHeader{
			OrderDate:         "2026-03-15",
			LocationID:        "1",
			CustomerName:      "Sokha",
			DeliveryCompanyID: "1",
			Currency:          "USD",
			CashTiming:        "BEFORE",
		},
		Items: []core.LineItem{
			{CategoryID: "2", ProductName: "Tote", Qty: "2", UnitPrice: "5.50"},
			{CategoryID: "2", ProductName: "", Qty: "0", UnitPrice: "100"},
		},
	})
	require.NoError(t, err)
	require.Same(t, draft, h.sess.Draft)
}

func TestSaveOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("persists cleaned items and resets the draft", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		fillDraft(t, h)

		res, err := h.svc.SaveOrder(ctx, h.sess)
		require.NoError(t, err)
		assert.Equal(t, core.PhaseCommitted, res.Phase)
		assert.Equal(t, "Saved Sales Order #1 successfully.", res.Message)
		assert.Equal(t, 1, res.Items)

		require.Len(t, h.store.orders, 1)
		assert.Equal(t, "11.00", core.To2(h.store.orders[0].OrderTotal))
		require.Len(t, h.store.items, 1)
		assert.Equal(t, core.ID("1"), h.store.items[0].OrderID)

		d := h.sess.Draft
		assert.Equal(t, core.DefaultDraftLines, d.Len())
		assert.Empty(t, d.Header.CustomerName)
		assert.Equal(t, "1", d.Header.LocationID, "location kept")
		assert.Equal(t, "1", d.Header.DeliveryCompanyID, "delivery company kept")
		assert.Equal(t, "USD", d.Header.Currency)
	})

	t.Run("no valid items rejected before any write", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		_, err := h.svc.UpdateDraft(ctx, h.sess, DraftForm{
			Header: core.OrderHeader{OrderDate: "2026-03-15", LocationID: "1", CustomerName: "Sokha"},
			Items:  []core.LineItem{{CategoryID: "2", ProductName: "Tote", Qty: "0"}},
		})
		require.NoError(t, err)

		_, err = h.svc.SaveOrder(ctx, h.sess)
		require.Error(t, err)
		assert.Equal(t, core.ReasonOrderItems, err.Error())
		assert.False(t, h.store.called("insert_order"))
	})

	t.Run("header failure skips items", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		fillDraft(t, h)
		h.store.headerErr = &core.RemoteError{Status: 403, Message: "new row violates row-level security policy"}

		res, err := h.svc.SaveOrder(ctx, h.sess)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Equal(t, "Save order failed: new row violates row-level security policy", err.Error())
		assert.False(t, h.store.called("insert_items"))
		assert.Equal(t, "Sokha", h.sess.Draft.Header.CustomerName, "draft kept")
	})

	t.Run("items failure is a partial commit", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		fillDraft(t, h)
		h.store.itemsErr = &core.RemoteError{Status: 409, Message: "violates foreign key constraint"}

		res, err := h.svc.SaveOrder(ctx, h.sess)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrPartialCommit)
		assert.Equal(t, "Order saved but items failed: violates foreign key constraint", err.Error())
		require.NotNil(t, res)
		assert.Equal(t, core.PhaseHeaderWritten, res.Phase)
		assert.Equal(t, core.ID("1"), res.OrderID)
		assert.Equal(t, "Sokha", h.sess.Draft.Header.CustomerName, "draft kept")
	})
}

func TestUpdateOrderAndPackingSlip(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.signIn(t)
	fillDraft(t, h)
	_, err := h.svc.SaveOrder(ctx, h.sess)
	require.NoError(t, err)

	res, err := h.svc.UpdateOrder(ctx, h.sess, UpdateOrderRequest{OrderID: "1", PaidAmount: "11", Status: "delivering"})
	require.NoError(t, err)
	assert.Equal(t, "Order #1 updated.", res.Message)
	assert.Equal(t, core.StatusDelivering, h.store.updates["1"].Status)

	_, err = h.svc.UpdateOrder(ctx, h.sess, UpdateOrderRequest{OrderID: "1", Status: "LOST"})
	assert.ErrorIs(t, err, core.ErrValidation)

	orders, err := h.svc.RecentOrders(ctx, h.sess)
	require.NoError(t, err)
	require.Len(t, orders.Orders, 1)
	assert.Equal(t, "Phnom Penh", orders.Orders[0].Location)
	assert.Len(t, orders.Statuses, 5)

	slip, err := h.svc.PackingSlip(ctx, h.sess, "1")
	require.NoError(t, err)
	assert.Equal(t, "Phnom Penh", slip.Location)
	assert.Equal(t, "J&T", slip.Delivery)
	require.Len(t, slip.Lines, 1)
	assert.Equal(t, "Bags", slip.Lines[0].Category)

	_, err = h.svc.PackingSlip(ctx, h.sess, "99")
	require.Error(t, err)
	assert.Equal(t, "Print failed (order): JSON object requested, multiple (or no) rows returned", err.Error())
}

func TestExpenses(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.signIn(t)

	in := h.svc.ExpenseForm(h.sess)
	assert.Equal(t, "3", in.LocationID)
	assert.Equal(t, "USD", in.Currency)

	_, err := h.svc.SaveExpense(ctx, h.sess, in)
	require.Error(t, err)
	assert.Equal(t, core.ReasonExpense, err.Error())

	in.CategoryID = "1"
	in.Amount = "40000"
	in.Currency = "KHR"
	res, err := h.svc.SaveExpense(ctx, h.sess, in)
	require.NoError(t, err)
	assert.Equal(t, "Saved expense successfully.", res.Message)

	recent, err := h.svc.RecentExpenses(ctx, h.sess)
	require.NoError(t, err)
	require.Len(t, recent.Rows, 1)
	assert.Equal(t, "Rent", recent.Rows[0].Category)
	assert.Equal(t, "Guangzhou", recent.Rows[0].Location)

	cleared := h.svc.ClearExpenseForm(in)
	assert.Equal(t, "1", cleared.CategoryID)
	assert.Empty(t, cleared.Amount)
	assert.Equal(t, "USD", cleared.Currency)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("default range is month to date", func(t *testing.T) {
		h := newHarness(t, nil)
		assert.Equal(t, DateRange{From: "2026-03-01", To: "2026-03-15"}, h.svc.DefaultRange())
	})

	t.Run("range required", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		_, err := h.svc.Dashboard(ctx, h.sess, DateRange{From: "2026-03-01"})
		require.Error(t, err)
		assert.Equal(t, core.ReasonDateRange, err.Error())
		assert.False(t, h.store.called("summary"))
	})

	t.Run("summary kept when the snapshot fails", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		h.store.summary = &core.DashboardSummary{SalesUSD: decimal.NewFromInt(30), SalesKHR: decimal.NewFromInt(4000)}
		h.store.remainingErr = &core.RemoteError{Message: "function get_remaining_inventory does not exist"}

		res, err := h.svc.Dashboard(ctx, h.sess, h.svc.DefaultRange())
		require.Error(t, err)
		assert.Equal(t, "Remaining inventory failed: function get_remaining_inventory does not exist", err.Error())
		require.NotNil(t, res)
		sales := res.Sales()
		require.Len(t, sales, 3)
		assert.Equal(t, core.CurrencyKHR, sales[1].Currency)
		assert.True(t, sales[1].Amount.Equal(decimal.NewFromInt(4000)))
	})

	t.Run("summary failure", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		h.store.summaryErr = &core.RemoteError{Message: "timeout"}

		_, err := h.svc.Dashboard(ctx, h.sess, h.svc.DefaultRange())
		require.Error(t, err)
		assert.Equal(t, "Dashboard summary failed: timeout", err.Error())
		assert.False(t, h.store.called("remaining"))
	})

	t.Run("loaded", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		h.store.remaining = []core.RemainingRow{{Location: "Phnom Penh", RemainingQty: decimal.NewFromInt(-2)}}

		res, err := h.svc.Dashboard(ctx, h.sess, DateRange{From: " 2026-03-01 ", To: "2026-03-31"})
		require.NoError(t, err)
		assert.Equal(t, "Dashboard loaded.", res.Message)
		assert.Equal(t, DateRange{From: "2026-03-01", To: "2026-03-31"}, res.Range)
		require.Len(t, res.Remaining, 1)
		assert.True(t, res.Remaining[0].RemainingQty.IsNegative())
	})
}

func TestRemainingInventory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.signIn(t)

	_, err := h.svc.RemainingInventory(ctx, h.sess, "")
	require.Error(t, err)
	assert.Equal(t, core.ReasonAsOfDate, err.Error())

	h.store.remainingErr = &core.RemoteError{Message: "permission denied"}
	_, err = h.svc.RemainingInventory(ctx, h.sess, "2026-03-31")
	require.Error(t, err)
	assert.Equal(t, "Export failed: permission denied", err.Error())
}

func TestAssistDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t, nil)
		h.signIn(t)
		_, err := h.svc.AssistDraft(ctx, h.sess, "2 red bags")
		assert.ErrorIs(t, err, ai.ErrDisabled)
	})

	t.Run("clarification leaves the draft alone", func(t *testing.T) {
		h := newHarness(t, &fakeAssistant{suggestion: &core.DraftSuggestion{
			IsClarificationRequest: true, Clarification: "Which product?",
		}})
		h.signIn(t)
		res, err := h.svc.AssistDraft(ctx, h.sess, "hello")
		require.NoError(t, err)
		assert.Equal(t, "Which product?", res.Clarification)
		assert.Equal(t, core.DefaultDraftLines, h.sess.Draft.Len())
	})

	t.Run("appends resolved lines", func(t *testing.T) {
		h := newHarness(t, &fakeAssistant{suggestion: &core.DraftSuggestion{
			CustomerName: "Dara",
			Lines: []core.SuggestedLine{
				{Category: "shoes", ProductName: "Sneaker", Color: "Red", Size: "XL", Quantity: "2", UnitPrice: "5.5"},
			},
		}})
		h.signIn(t)

		res, err := h.svc.AssistDraft(ctx, h.sess, "2 red sneakers XL for Dara")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Added)
		require.Len(t, res.Draft.Lines, 1, "blank lines dropped")
		line := res.Draft.Lines[0].Item
		assert.Equal(t, "1", line.CategoryID)
		assert.Equal(t, "1", line.ColorID)
		assert.Empty(t, line.SizeID)
		assert.Equal(t, []string{`line 1: unknown size "XL"`}, res.Notes)
		assert.Equal(t, "Dara", res.Draft.Header.CustomerName)
		assert.Equal(t, "11.00", core.To2(res.Draft.Total))
		assert.False(t, h.store.called("insert_order"))
	})

	t.Run("assistant failure", func(t *testing.T) {
		h := newHarness(t, &fakeAssistant{err: errors.New("openai responses error: 500")})
		h.signIn(t)
		_, err := h.svc.AssistDraft(ctx, h.sess, "2 red bags")
		require.Error(t, err)
		assert.Equal(t, "Assistant failed: openai responses error: 500", err.Error())
	})
}
