package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"retail-erp/internal/adapters/repl"
	"retail-erp/internal/app"
	"retail-erp/internal/core"
	"retail-erp/internal/export"
	"retail-erp/internal/printing"
	"retail-erp/internal/session"
)

// ErrUsage is returned for a missing or unknown subcommand.
var ErrUsage = errors.New("usage: app <dashboard|remaining|orders|inventory|expenses|slip> [args]")

// Run executes a one-shot CLI command for a signed-in session.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, s *session.Session, args []string, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "dashboard", "dash":
		rng := svc.DefaultRange()
		if len(args) > 1 {
			rng.From = args[1]
		}
		if len(args) > 2 {
			rng.To = args[2]
		}
		res, err := svc.Dashboard(ctx, s, rng)
		if res != nil {
			repl.PrintDashboard(out, res)
		}
		return err

	case "remaining", "rem":
		asOf := svc.DefaultRange().To
		if len(args) > 1 {
			asOf = args[1]
		}
		res, err := svc.RemainingInventory(ctx, s, asOf)
		if err != nil {
			return err
		}
		return export.WriteRemainingCSV(out, res.Rows)

	case "orders":
		res, err := svc.RecentOrders(ctx, s)
		if err != nil {
			return err
		}
		repl.PrintOrders(out, res)

	case "inventory", "inv":
		res, err := svc.RecentInventory(ctx, s)
		if err != nil {
			return err
		}
		repl.PrintInventory(out, res)

	case "expenses", "exp":
		res, err := svc.RecentExpenses(ctx, s)
		if err != nil {
			return err
		}
		repl.PrintExpenses(out, res)

	case "slip":
		if len(args) < 2 {
			return errors.New("usage: app slip <order-id>")
		}
		slip, err := svc.PackingSlip(ctx, s, core.ParseID(args[1]))
		if err != nil {
			return err
		}
		slip.AutoPrint = false
		return printing.RenderPackingSlip(out, slip)

	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
	return nil
}
