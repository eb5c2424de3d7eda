package app

import (
	"errors"

	"retail-erp/internal/core"
)

// Prefixes of failure messages, one per user-visible operation.
const (
	OpSignIn          = "Login failed"
	OpSignUp          = "Sign up failed"
	OpSaveInventory   = "Save failed"
	OpLoadInventory   = "Load recent inventory failed"
	OpSaveOrder       = "Save order failed"
	OpLoadOrders      = "Load orders failed"
	OpUpdateOrder     = "Update failed"
	OpPrintOrder      = "Print failed (order)"
	OpPrintItems      = "Print failed (items)"
	OpSaveExpense     = "Save expense failed"
	OpLoadExpenses    = "Load expenses failed"
	OpDashboard       = "Dashboard summary failed"
	OpRemaining       = "Remaining inventory failed"
	OpExport          = "Export failed"
	OpAssist          = "Assistant failed"
	ListsUnavailable  = "Failed to load dropdown lists. Check RLS + login."
	msgSignedIn       = "Login success."
	msgSignedUp       = "Sign up created. If email confirmation is enabled, confirm your email first."
	msgInventorySaved = "Saved Inventory IN successfully."
	msgExpenseSaved   = "Saved expense successfully."
	msgDashboard      = "Dashboard loaded."
)

// OpError is a failed operation. Its message is the operation prefix followed
// by the backend's own message, e.g. "Save failed: duplicate key".
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + core.Message(e.Err) }

func (e *OpError) Unwrap() error { return e.Err }

// failed wraps err for display under op. Validation failures, partial commits
// and signed-out sessions keep their own messages.
func failed(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrPartialCommit) ||
		errors.Is(err, core.ErrNotSignedIn) {
		return err
	}
	var le *ListsError
	if errors.As(err, &le) {
		return err
	}
	return &OpError{Op: op, Err: err}
}

// ListsError reports that the reference lists could not be loaded.
type ListsError struct {
	Err error
}

func (e *ListsError) Error() string { return ListsUnavailable }

func (e *ListsError) Unwrap() error { return e.Err }
