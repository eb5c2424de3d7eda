package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"retail-erp/internal/app"
	"retail-erp/internal/core"
	"retail-erp/internal/session"
)

var errExit = errors.New("exit")

// maxAssistRounds bounds the clarification back-and-forth with the assistant.
const maxAssistRounds = 3

// Run starts the interactive REPL loop for a signed-in session.
// Slash commands are dispatched deterministically; any other input is handed to
// the order-intake assistant, which only ever fills the draft.
func Run(ctx context.Context, svc app.ApplicationService, s *session.Session, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Retail ERP")
	fmt.Fprintf(out, "Signed in as %s\n", s.Email())
	fmt.Fprintln(out, "Describe an order in plain words, or use /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	r := &runner{ctx: ctx, svc: svc, s: s, in: reader, out: out}
	for {
		fmt.Fprint(out, "\n> ")
		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if err != nil {
				fmt.Fprintln(out)
				return
			}
			continue
		}

		if strings.HasPrefix(input, "/") {
			if err := r.dispatch(input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		if err := r.assist(input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

type runner struct {
	ctx context.Context
	svc app.ApplicationService
	s   *session.Session
	in  *bufio.Reader
	out io.Writer
}

// prompt reads one answer. It returns io.EOF once input has ended; a final line
// without a newline is still returned first.
func (r *runner) prompt(label string) (string, error) {
	fmt.Fprint(r.out, label)
	line, err := r.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		fmt.Fprintln(r.out)
		return "", err
	}
	return line, nil
}

func (r *runner) showDraft(d *app.DraftResult) {
	PrintDraft(r.out, d, r.s.Lists)
}

func (r *runner) dispatch(input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]
	ctx, svc, s := r.ctx, r.svc, r.s

	switch cmd {
	case "draft", "d":
		d, err := svc.Draft(ctx, s)
		if err != nil {
			return err
		}
		r.showDraft(d)

	case "new-order", "new":
		return r.newOrder()

	case "add":
		d, err := svc.AddDraftLine(ctx, s)
		if err != nil {
			return err
		}
		r.showDraft(d)

	case "set":
		if len(args) < 2 {
			fmt.Fprintln(r.out, "Usage: /set <line> <field> [value]")
			fmt.Fprintln(r.out, "  Fields: product_category_id product_name color_id size_id qty unit_price")
			return nil
		}
		line, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.out, "Invalid line number: %s\n", args[0])
			return nil
		}
		d, err := svc.SetDraftLine(ctx, s, app.SetLineRequest{
			Index: line - 1,
			Field: args[1],
			Value: strings.Join(args[2:], " "),
		})
		if err != nil {
			return err
		}
		r.showDraft(d)

	case "remove", "rm":
		if len(args) < 1 {
			fmt.Fprintln(r.out, "Usage: /remove <line>")
			return nil
		}
		line, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(r.out, "Invalid line number: %s\n", args[0])
			return nil
		}
		d, err := svc.RemoveDraftLine(ctx, s, line-1)
		if err != nil {
			return err
		}
		r.showDraft(d)

	case "header":
		if len(args) < 1 {
			fmt.Fprintln(r.out, "Usage: /header <field> [value]")
			fmt.Fprintln(r.out, "  Fields: order_date location customer phone address delivery currency paid cash note")
			return nil
		}
		return r.setHeader(args[0], strings.Join(args[1:], " "))

	case "save":
		return r.save()

	case "clear":
		d, err := svc.ClearDraft(ctx, s)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, "Draft cleared.")
		r.showDraft(d)

	case "orders":
		res, err := svc.RecentOrders(ctx, s)
		if err != nil {
			return err
		}
		PrintOrders(r.out, res)

	case "update":
		if len(args) < 3 {
			fmt.Fprintln(r.out, "Usage: /update <order-id> <paid-amount> <status>")
			return nil
		}
		res, err := svc.UpdateOrder(ctx, s, app.UpdateOrderRequest{
			OrderID:    core.ParseID(args[0]),
			PaidAmount: args[1],
			Status:     args[2],
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, res.Message)

	case "dashboard":
		rng := svc.DefaultRange()
		if len(args) > 0 {
			rng.From = args[0]
		}
		if len(args) > 1 {
			rng.To = args[1]
		}
		res, err := svc.Dashboard(ctx, s, rng)
		if res != nil {
			PrintDashboard(r.out, res)
		}
		return err

	case "help", "h":
		printHelp(r.out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(r.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// assist sends free text to the assistant, following up on clarification requests.
func (r *runner) assist(text string) error {
	fmt.Fprintln(r.out, "[AI] Reading the order...")
	accumulated := text
	for round := 1; round <= maxAssistRounds; round++ {
		res, err := r.svc.AssistDraft(r.ctx, r.s, accumulated)
		if err != nil {
			return err
		}
		if res.Clarification == "" {
			r.showDraft(res.Draft)
			fmt.Fprintln(r.out, res.Message)
			for _, n := range res.Notes {
				fmt.Fprintf(r.out, "  note: %s\n", n)
			}
			fmt.Fprintln(r.out, "Use /set to adjust lines, then /save.")
			return nil
		}

		fmt.Fprintf(r.out, "\n[AI]: %s\n", res.Clarification)
		followUp, err := r.prompt("> ")
		if err != nil {
			fmt.Fprintln(r.out, "Cancelled.")
			return nil
		}

		// A slash command during clarification cancels the assistant and runs instead.
		if strings.HasPrefix(followUp, "/") {
			fmt.Fprintln(r.out, "(assistant cancelled)")
			return r.dispatch(followUp)
		}
		if followUp == "" || strings.EqualFold(followUp, "cancel") {
			fmt.Fprintln(r.out, "Cancelled.")
			return nil
		}
		accumulated = fmt.Sprintf("Original message: %s\nQuestion asked: %s\nUser answer: %s",
			accumulated, res.Clarification, followUp)
	}
	fmt.Fprintln(r.out, "Could not read an order from that. Try /new-order instead.")
	return nil
}

// save submits the draft. On failure the draft is kept for another attempt.
func (r *runner) save() error {
	res, err := r.svc.SaveOrder(r.ctx, r.s)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, res.Message)
	return nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Order draft:
  /draft                          Show the in-progress order
  /new-order                      Guided order entry (header, then lines)
  /add                            Append a blank line
  /set <line> <field> [value]     Edit one field of a line
  /remove <line>                  Remove a line
  /header <field> [value]         Edit a header field
  /save                           Save the order (header, then lines)
  /clear                          Reset the draft, keeping location and delivery

Orders and reports:
  /orders                         Recent orders
  /update <id> <paid> <status>    Update paid amount and status
  /dashboard [from] [to]          KPIs and remaining inventory

  /help                           This help
  /exit                           Quit

Anything else is read as an order message by the assistant.`)
}
