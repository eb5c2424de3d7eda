package app

import (
	"context"

	"retail-erp/internal/core"
	"retail-erp/internal/printing"
	"retail-erp/internal/session"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Every method that touches user data takes the caller's session explicitly.
// Methods that change the session (sign-in state, the order draft, cached
// reference lists) save it before returning.
type ApplicationService interface {
	// LoadSession returns the session with the given id, or a fresh anonymous one.
	// A token that is about to expire is refreshed on the way.
	LoadSession(ctx context.Context, id string) (*session.Session, error)

	// SignIn authenticates the session. Result.Warning is set when the user is
	// signed in but the reference lists could not be loaded.
	SignIn(ctx context.Context, s *session.Session, email, password string) (*AuthResult, error)

	// SignUp registers a new user. The session is signed in only when the auth
	// service does not require email confirmation.
	SignUp(ctx context.Context, s *session.Session, email, password string) (*AuthResult, error)

	// SignOut ends the session. Local state is cleared even when the auth service is unreachable.
	SignOut(ctx context.Context, s *session.Session) error

	// ReferenceLists returns the session's cached lookup rows, loading them on first use.
	ReferenceLists(ctx context.Context, s *session.Session) (*core.ReferenceLists, error)

	// Health checks that the backend is reachable.
	Health(ctx context.Context) error

	// InventoryForm returns a cleared inventory intake form with default selections.
	InventoryForm(s *session.Session) core.InventoryInput

	// ClearInventoryForm clears prev, keeping its location, category, color and size.
	ClearInventoryForm(prev core.InventoryInput) core.InventoryInput

	// QuoteInventory computes the live USD values of an intake form.
	QuoteInventory(in core.InventoryInput) core.InventoryQuote

	// SaveInventory validates and records a stock intake.
	SaveInventory(ctx context.Context, s *session.Session, in core.InventoryInput) (*SaveResult, error)

	// RecentInventory returns the newest intake records with names resolved.
	RecentInventory(ctx context.Context, s *session.Session) (*InventoryListResult, error)

	// Draft returns the in-progress order, creating it on first use.
	Draft(ctx context.Context, s *session.Session) (*DraftResult, error)

	// UpdateDraft replaces the draft's header and lines with a submitted form.
	UpdateDraft(ctx context.Context, s *session.Session, form DraftForm) (*DraftResult, error)

	// AddDraftLine appends a blank line carrying the default category.
	AddDraftLine(ctx context.Context, s *session.Session) (*DraftResult, error)

	// SetDraftLine replaces one field of one line.
	SetDraftLine(ctx context.Context, s *session.Session, req SetLineRequest) (*DraftResult, error)

	// RemoveDraftLine deletes a line; later lines shift down.
	RemoveDraftLine(ctx context.Context, s *session.Session, idx int) (*DraftResult, error)

	// ClearDraft resets the header to defaults and leaves two blank lines.
	ClearDraft(ctx context.Context, s *session.Session) (*DraftResult, error)

	// SaveOrder validates the draft and writes it in two phases: header, then items.
	// On success the draft is cleared. On a partial commit the result carries the
	// new order id, the error is a *core.PartialCommitError and the draft is kept.
	SaveOrder(ctx context.Context, s *session.Session) (*SaveOrderResult, error)

	// AssistDraft asks the order-intake assistant to turn free text into draft lines.
	// Nothing is written to the backend.
	AssistDraft(ctx context.Context, s *session.Session, text string) (*AssistResult, error)

	// RecentOrders returns the newest orders with names resolved.
	RecentOrders(ctx context.Context, s *session.Session) (*OrderListResult, error)

	// UpdateOrder changes the paid amount and status of an existing order.
	UpdateOrder(ctx context.Context, s *session.Session, req UpdateOrderRequest) (*SaveResult, error)

	// PackingSlip fetches an order with its lines and resolves them for printing.
	PackingSlip(ctx context.Context, s *session.Session, id core.ID) (*printing.PackingSlip, error)

	// ExpenseForm returns a cleared expense form with default selections.
	ExpenseForm(s *session.Session) core.ExpenseInput

	// ClearExpenseForm clears prev, keeping its location and category.
	ClearExpenseForm(prev core.ExpenseInput) core.ExpenseInput

	// SaveExpense validates and records an expense.
	SaveExpense(ctx context.Context, s *session.Session, in core.ExpenseInput) (*SaveResult, error)

	// RecentExpenses returns the newest expenses with names resolved.
	RecentExpenses(ctx context.Context, s *session.Session) (*ExpenseListResult, error)

	// DefaultRange is the dashboard's initial range: the current month to date.
	DefaultRange() DateRange

	// Dashboard fetches the summary for the range, then the remaining-inventory
	// snapshot as of its end. When only the snapshot fails, the result still
	// carries the summary alongside the error.
	Dashboard(ctx context.Context, s *session.Session, r DateRange) (*DashboardResult, error)

	// RemainingInventory fetches the snapshot as of asOf for export.
	RemainingInventory(ctx context.Context, s *session.Session, asOf string) (*RemainingResult, error)
}
