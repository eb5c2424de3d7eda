package core

import (
	"context"
	"time"
)

// DefaultRecentLimit is how many rows the recent-activity tables show.
const DefaultRecentLimit = 25

// ReferenceStore reads active lookup rows ordered by name.
type ReferenceStore interface {
	ListReference(ctx context.Context, table RefTable) ([]RefItem, error)
}

// InventoryStore persists stock intake.
type InventoryStore interface {
	InsertInventory(ctx context.Context, rec InventoryIn) error
	// RecentInventory returns the newest records by date, then id, descending.
	RecentInventory(ctx context.Context, limit int) ([]InventoryIn, error)
}

// OrderStore persists sales orders and their lines.
type OrderStore interface {
	// InsertOrder writes a header and returns its backend-assigned id.
	InsertOrder(ctx context.Context, order SalesOrder) (ID, error)
	InsertItems(ctx context.Context, items []SalesItem) error
	RecentOrders(ctx context.Context, limit int) ([]SalesOrder, error)
	GetOrder(ctx context.Context, id ID) (*SalesOrder, error)
	// ListItems returns the lines of an order by id ascending.
	ListItems(ctx context.Context, orderID ID) ([]SalesItem, error)
	UpdateOrder(ctx context.Context, id ID, upd OrderUpdate) error
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	InsertExpense(ctx context.Context, exp Expense) error
	RecentExpenses(ctx context.Context, limit int) ([]Expense, error)
}

// ReportStore invokes the backend's aggregation functions.
type ReportStore interface {
	DashboardSummary(ctx context.Context, from, to string) (*DashboardSummary, error)
	RemainingInventory(ctx context.Context, asOf string) ([]RemainingRow, error)
}

// Store is the full data surface available to one signed-in user.
type Store interface {
	ReferenceStore
	InventoryStore
	OrderStore
	ExpenseStore
	ReportStore
}

// Backend hands out stores authorized as a given user. Every call made through
// the returned Store carries that user's access token.
type Backend interface {
	As(accessToken string) Store
	Ping(ctx context.Context) error
}

// AuthUser identifies the signed-in user.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is an authenticated session issued by the auth service.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         AuthUser  `json:"user"`
}

// ExpiresWithin reports whether the access token expires before now+d.
func (s *AuthSession) ExpiresWithin(now time.Time, d time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(d).After(s.ExpiresAt)
}

// SignUpResult is returned by SignUp. Session is nil when the auth service
// requires email confirmation before the first sign-in.
type SignUpResult struct {
	User    AuthUser
	Session *AuthSession
}

// Authenticator is the external auth service.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*AuthSession, error)
}
