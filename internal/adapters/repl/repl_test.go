package repl

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"retail-erp/internal/app/apptest"
	"retail-erp/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run feeds the lines to the REPL and returns everything it printed.
func run(t *testing.T, env *apptest.Env, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	Run(context.Background(), env.Svc, env.Session, in, &out)
	return out.String()
}

func TestNewOrderWizard(t *testing.T) {
	env := apptest.New(t)
	out := run(t, env,
		"/new-order",
		"Dara",     // customer
		"012345",   // phone
		"Street 1", // address
		"",         // location keeps Phnom Penh
		"J&T",      // delivery
		"",         // currency keeps USD
		"10",       // paid
		"after",    // cash
		"",         // order date keeps today
		"2 15.50 Canvas sneaker | Red | 42",
		"bogus",
		"1 5 Tote | Black | | Bags",
		"done",
		"y",
		"/exit",
	)

	assert.Contains(t, out, "invalid format")
	assert.Contains(t, out, "Saved Sales Order #1 successfully.")
	assert.Contains(t, out, "Goodbye!")

	st := env.Store.State()
	require.Len(t, st.Orders, 1)
	o := st.Orders[0]
	assert.Equal(t, "Dara", o.CustomerName)
	assert.Equal(t, core.ID("1"), o.LocationID)
	assert.Equal(t, core.ID("1"), o.DeliveryCompanyID)
	assert.Equal(t, core.CashAfter, o.CashTiming)
	assert.True(t, decimal.NewFromInt(36).Equal(o.OrderTotal), o.OrderTotal.String())

	require.Len(t, st.Items, 2)
	assert.Equal(t, "Canvas sneaker", st.Items[0].ProductName)
	assert.Equal(t, core.ID("1"), st.Items[0].ColorID)
	assert.Equal(t, core.ID("2"), st.Items[0].SizeID)
	assert.Equal(t, core.ID("2"), st.Items[1].CategoryID)
	assert.True(t, st.Items[1].SizeID.IsZero())
}

func TestNewOrderWizardCancel(t *testing.T) {
	env := apptest.New(t)

	t.Run("during header", func(t *testing.T) {
		out := run(t, env, "/new-order", "cancel", "/exit")
		assert.Contains(t, out, "Order entry cancelled.")
	})

	t.Run("during lines", func(t *testing.T) {
		out := run(t, env, "/new", "Dara", "", "", "", "", "", "", "", "", "1 2 Boots", "cancel", "/exit")
		assert.Contains(t, out, "Order entry cancelled.")
	})

	t.Run("input ends during header", func(t *testing.T) {
		out := run(t, env, "/new-order", "Dara", "012345")
		assert.Contains(t, out, "Order entry cancelled.")
		assert.NotContains(t, out, "Enter order lines.")
	})

	t.Run("input ends during lines", func(t *testing.T) {
		out := run(t, env, "/new", "Dara", "", "", "", "", "", "", "", "", "2 5 Tee")
		assert.Contains(t, out, "Order entry cancelled.")
		assert.Equal(t, 1, strings.Count(out, "Line 2: "))
	})

	t.Run("declined at review", func(t *testing.T) {
		out := run(t, env, "/new", "Dara", "", "", "", "", "", "", "", "", "1 2 Boots", "done", "n", "/exit")
		assert.Contains(t, out, "Order kept as draft.")
	})

	assert.Empty(t, env.Store.State().Orders)
}

func TestDraftCommands(t *testing.T) {
	env := apptest.New(t)
	out := run(t, env,
		"/header customer Sok Dara",
		"/header location Nowhere",
		"/header delivery J&T",
		"/set 1 product_name Boots",
		"/set 1 qty 2",
		"/set 1 unit_price 3.5",
		"/set x qty 1",
		"/add",
		"/remove 3",
		"/draft",
		"/save",
		"/exit",
	)

	assert.Contains(t, out, "Unknown location: Nowhere")
	assert.Contains(t, out, "Invalid line number: x")
	assert.Contains(t, out, "7.00")
	assert.Contains(t, out, "Saved Sales Order #1 successfully.")

	st := env.Store.State()
	require.Len(t, st.Orders, 1)
	assert.Equal(t, "Sok Dara", st.Orders[0].CustomerName)
	assert.Equal(t, core.ID("1"), st.Orders[0].DeliveryCompanyID)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Boots", st.Items[0].ProductName)
}

func TestSaveRejectsEmptyDraft(t *testing.T) {
	env := apptest.New(t)
	out := run(t, env, "/header customer Dara", "/save", "/exit")

	assert.Contains(t, out, "Error: "+core.ReasonOrderItems)
	assert.Empty(t, env.Store.State().Orders)
}

func TestOrdersAndUpdate(t *testing.T) {
	env := apptest.New(t)
	run(t, env, "/header customer Dara", "/set 1 product_name Boots", "/set 1 qty 1", "/set 1 unit_price 20", "/save", "/exit")

	out := run(t, env, "/orders", "/update 1 20 COMPLETED", "/update 1 20 LOST", "/exit")
	assert.Contains(t, out, "RECENT ORDERS")
	assert.Contains(t, out, "Dara")
	assert.Contains(t, out, "Order #1 updated.")
	assert.Contains(t, out, "Error: ")

	st := env.Store.State()
	require.Len(t, st.Orders, 1)
	assert.Equal(t, core.StatusCompleted, st.Orders[0].Status)
	assert.True(t, decimal.NewFromInt(20).Equal(st.Orders[0].PaidAmount))
}

func TestDashboardCommand(t *testing.T) {
	env := apptest.New(t)
	env.Store.Seed(core.DashboardSummary{SalesUSD: decimal.NewFromInt(120)}, []core.RemainingRow{{
		Location: "Phnom Penh", ProductCategory: "Shoes", ProductName: "Boots",
		TotalIn: decimal.NewFromInt(5), TotalSold: decimal.NewFromInt(7), RemainingQty: decimal.NewFromInt(-2),
	}})

	out := run(t, env, "/dashboard 2026-01-01 2026-01-31", "/dashboard 2026-01-01 soon", "/exit")
	assert.Contains(t, out, "USD 120.00")
	assert.Contains(t, out, "REMAINING INVENTORY AS OF 2026-01-31")
	assert.Contains(t, out, "-2.00")
	assert.Contains(t, out, "Error: "+core.ReasonDateRange)
}

func TestMiscCommands(t *testing.T) {
	env := apptest.New(t)
	out := run(t, env, "/help", "/bogus", "sell two red boots to Dara", "/clear")

	assert.Contains(t, out, "/new-order")
	assert.Contains(t, out, "Unknown command: /bogus")
	assert.Contains(t, out, "order assistant is disabled")
	assert.Contains(t, out, "Draft cleared.")
	assert.NotContains(t, out, "Goodbye!", "end of input leaves without the farewell")
}
