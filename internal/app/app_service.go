package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-erp/internal/ai"
	"retail-erp/internal/core"
	"retail-erp/internal/printing"
	"retail-erp/internal/session"

	"go.uber.org/zap"
)

type appService struct {
	backend     core.Backend
	sessions    *session.Manager
	assistant   ai.Assistant
	recentLimit int
	now         func() time.Time
	log         *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// It subscribes to the session manager so reference lists follow the auth state.
func NewAppService(
	backend core.Backend,
	sessions *session.Manager,
	assistant ai.Assistant,
	recentLimit int,
	log *zap.Logger,
) ApplicationService {
	if assistant == nil {
		assistant = ai.Disabled{}
	}
	if recentLimit <= 0 {
		recentLimit = core.DefaultRecentLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &appService{
		backend:     backend,
		sessions:    sessions,
		assistant:   assistant,
		recentLimit: recentLimit,
		now:         time.Now,
		log:         log.Named("app"),
	}
	sessions.OnChange(s.onAuthChange)
	return s
}

func (s *appService) today() string { return core.Today(s.now()) }

// store returns the data store authorized as the session's user.
func (s *appService) store(sess *session.Session) (core.Store, error) {
	if !sess.SignedIn() {
		return nil, core.ErrNotSignedIn
	}
	return s.backend.As(sess.AccessToken()), nil
}

// onAuthChange reloads the reference lists whenever a new access token arrives.
func (s *appService) onAuthChange(ctx context.Context, ev session.Event, sess *session.Session) error {
	switch ev {
	case session.EventSignedIn, session.EventTokenRefreshed:
		lists, err := core.LoadReferenceLists(ctx, s.backend.As(sess.AccessToken()))
		if err != nil {
			s.log.Warn("failed to load reference lists", zap.String("event", string(ev)), zap.Error(err))
			return &ListsError{Err: err}
		}
		s.applyLists(sess, lists)
	}
	return nil
}

// applyLists caches lists and points the draft's defaults at them.
func (s *appService) applyLists(sess *session.Session, lists *core.ReferenceLists) {
	sess.Lists = lists
	d := s.ensureDraft(sess)
	d.SetDefaultCategory(lists.DefaultCategory())
	if d.Header.LocationID == "" {
		d.Header.LocationID = lists.DefaultLocation().String()
	}
}

func (s *appService) ensureDraft(sess *session.Session) *core.OrderDraft {
	if sess.Draft == nil {
		d := core.NewOrderDraft(sess.Lists.DefaultCategory())
		d.Reset(core.NewOrderHeader(s.today(), sess.Lists.DefaultLocation()), core.DefaultDraftLines)
		sess.Draft = d
	}
	return sess.Draft
}

// resetDraft clears the draft, keeping the selected location and delivery company.
func (s *appService) resetDraft(sess *session.Session) {
	d := s.ensureDraft(sess)
	location := core.ID(d.Header.LocationID)
	if location.IsZero() {
		location = sess.Lists.DefaultLocation()
	}
	h := core.NewOrderHeader(s.today(), location)
	h.DeliveryCompanyID = d.Header.DeliveryCompanyID
	d.Reset(h, core.DefaultDraftLines)
}

func (s *appService) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	return s.sessions.Load(ctx, id)
}

func (s *appService) SignIn(ctx context.Context, sess *session.Session, email, password string) (*AuthResult, error) {
	err := s.sessions.SignIn(ctx, sess, email, password)
	var le *ListsError
	switch {
	case errors.As(err, &le):
		return &AuthResult{SignedIn: true, Email: sess.Email(), Message: msgSignedIn, Warning: ListsUnavailable}, nil
	case err != nil:
		return nil, failed(OpSignIn, err)
	}
	return &AuthResult{SignedIn: true, Email: sess.Email(), Message: msgSignedIn}, nil
}

func (s *appService) SignUp(ctx context.Context, sess *session.Session, email, password string) (*AuthResult, error) {
	res, err := s.sessions.SignUp(ctx, sess, email, password)
	var le *ListsError
	switch {
	case errors.As(err, &le):
		return &AuthResult{SignedIn: true, Email: sess.Email(), Message: msgSignedUp, Warning: ListsUnavailable}, nil
	case err != nil:
		return nil, failed(OpSignUp, err)
	}
	return &AuthResult{SignedIn: res.Session != nil, Email: res.User.Email, Message: msgSignedUp}, nil
}

func (s *appService) SignOut(ctx context.Context, sess *session.Session) error {
	return s.sessions.SignOut(ctx, sess)
}

func (s *appService) ReferenceLists(ctx context.Context, sess *session.Session) (*core.ReferenceLists, error) {
	if sess.Lists != nil {
		return sess.Lists, nil
	}
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	lists, err := core.LoadReferenceLists(ctx, store)
	if err != nil {
		return nil, &ListsError{Err: err}
	}
	s.applyLists(sess, lists)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *appService) Health(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// ── Inventory ─────────────────────────────────────────────────────────────────

func (s *appService) InventoryForm(sess *session.Session) core.InventoryInput {
	return core.NewInventoryInput(s.today(), sess.Lists)
}

func (s *appService) ClearInventoryForm(prev core.InventoryInput) core.InventoryInput {
	return core.InventoryInput{
		Date:       s.today(),
		LocationID: prev.LocationID,
		CategoryID: prev.CategoryID,
		ColorID:    prev.ColorID,
		SizeID:     prev.SizeID,
	}
}

func (s *appService) QuoteInventory(in core.InventoryInput) core.InventoryQuote {
	return in.Quote()
}

func (s *appService) SaveInventory(ctx context.Context, sess *session.Session, in core.InventoryInput) (*SaveResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	rec, err := core.BuildInventory(in)
	if err != nil {
		return nil, err
	}
	if err := store.InsertInventory(ctx, *rec); err != nil {
		return nil, failed(OpSaveInventory, err)
	}
	s.log.Info("inventory recorded", zap.String("product", rec.ProductName), zap.String("qty", rec.Qty.String()))
	return &SaveResult{Message: msgInventorySaved}, nil
}

func (s *appService) RecentInventory(ctx context.Context, sess *session.Session) (*InventoryListResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	recs, err := store.RecentInventory(ctx, s.recentLimit)
	if err != nil {
		return nil, failed(OpLoadInventory, err)
	}
	lists := sess.Lists
	rows := make([]InventoryRow, len(recs))
	for i, r := range recs {
		rows[i] = InventoryRow{
			InventoryIn: r,
			Location:    lists.Name(core.TableLocations, r.LocationID),
			Category:    lists.Name(core.TableCategories, r.CategoryID),
			Color:       lists.Name(core.TableColors, r.ColorID),
			Size:        lists.Name(core.TableSizes, r.SizeID),
		}
	}
	return &InventoryListResult{Rows: rows}, nil
}

// ── Sales order draft ─────────────────────────────────────────────────────────

// editDraft applies fn to the session's draft and saves the session when fn succeeds.
func (s *appService) editDraft(ctx context.Context, sess *session.Session, fn func(d *core.OrderDraft) error) (*DraftResult, error) {
	if !sess.SignedIn() {
		return nil, core.ErrNotSignedIn
	}
	d := s.ensureDraft(sess)
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return newDraftResult(d), nil
}

func (s *appService) Draft(ctx context.Context, sess *session.Session) (*DraftResult, error) {
	if sess.Draft != nil {
		return newDraftResult(sess.Draft), nil
	}
	return s.editDraft(ctx, sess, func(*core.OrderDraft) error { return nil })
}

func (s *appService) UpdateDraft(ctx context.Context, sess *session.Session, form DraftForm) (*DraftResult, error) {
	return s.editDraft(ctx, sess, func(d *core.OrderDraft) error {
		d.Header = form.Header
		d.Items = append([]core.LineItem{}, form.Items...)
		return nil
	})
}

func (s *appService) AddDraftLine(ctx context.Context, sess *session.Session) (*DraftResult, error) {
	return s.editDraft(ctx, sess, func(d *core.OrderDraft) error {
		d.Add()
		return nil
	})
}

func (s *appService) SetDraftLine(ctx context.Context, sess *session.Session, req SetLineRequest) (*DraftResult, error) {
	return s.editDraft(ctx, sess, func(d *core.OrderDraft) error {
		return d.Set(req.Index, req.Field, req.Value)
	})
}

func (s *appService) RemoveDraftLine(ctx context.Context, sess *session.Session, idx int) (*DraftResult, error) {
	return s.editDraft(ctx, sess, func(d *core.OrderDraft) error {
		return d.Remove(idx)
	})
}

func (s *appService) ClearDraft(ctx context.Context, sess *session.Session) (*DraftResult, error) {
	return s.editDraft(ctx, sess, func(*core.OrderDraft) error {
		s.resetDraft(sess)
		return nil
	})
}

func (s *appService) SaveOrder(ctx context.Context, sess *session.Session) (*SaveOrderResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	d := s.ensureDraft(sess)

	payload, err := core.CleanOrder(d.Header, d.Items)
	if err != nil {
		return nil, err
	}

	res, err := core.NewOrderWriter(store).Submit(ctx, payload)
	if err != nil {
		if res != nil && res.Phase == core.PhaseHeaderWritten {
			s.log.Error("order header written without items",
				zap.String("order_id", res.OrderID.String()), zap.Error(err))
			return &SaveOrderResult{Phase: res.Phase, OrderID: res.OrderID, Draft: newDraftResult(d)}, err
		}
		return nil, failed(OpSaveOrder, err)
	}

	s.log.Info("order saved", zap.String("order_id", res.OrderID.String()), zap.Int("items", res.Items))
	s.resetDraft(sess)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return &SaveOrderResult{
		Phase:   res.Phase,
		OrderID: res.OrderID,
		Items:   res.Items,
		Message: fmt.Sprintf("Saved Sales Order #%s successfully.", res.OrderID),
		Draft:   newDraftResult(sess.Draft),
	}, nil
}

func (s *appService) AssistDraft(ctx context.Context, sess *session.Session, text string) (*AssistResult, error) {
	lists, err := s.ReferenceLists(ctx, sess)
	if err != nil {
		return nil, err
	}
	suggestion, err := s.assistant.SuggestDraft(ctx, text, lists)
	if errors.Is(err, ai.ErrDisabled) {
		return nil, err
	}
	if err != nil {
		return nil, failed(OpAssist, err)
	}

	if suggestion.IsClarificationRequest {
		return &AssistResult{Clarification: suggestion.Clarification, Draft: newDraftResult(s.ensureDraft(sess))}, nil
	}

	var notes []string
	draft, err := s.editDraft(ctx, sess, func(d *core.OrderDraft) error {
		// Drop untouched blank lines so suggested lines are not buried below them.
		kept := d.Items[:0]
		for _, it := range d.Items {
			if it.ProductName != "" || it.Qty != "" || it.UnitPrice != "" {
				kept = append(kept, it)
			}
		}
		d.Items = kept
		notes = suggestion.Apply(d, lists)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &AssistResult{
		Added:   len(suggestion.Lines),
		Notes:   notes,
		Message: fmt.Sprintf("Added %d line(s). Review the order before saving.", len(suggestion.Lines)),
		Draft:   draft,
	}, nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (s *appService) RecentOrders(ctx context.Context, sess *session.Session) (*OrderListResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	orders, err := store.RecentOrders(ctx, s.recentLimit)
	if err != nil {
		return nil, failed(OpLoadOrders, err)
	}
	rows := make([]OrderRow, len(orders))
	for i, o := range orders {
		rows[i] = OrderRow{SalesOrder: o, Location: sess.Lists.Name(core.TableLocations, o.LocationID)}
	}
	return &OrderListResult{Orders: rows, Statuses: core.OrderStatuses}, nil
}

func (s *appService) UpdateOrder(ctx context.Context, sess *session.Session, req UpdateOrderRequest) (*SaveResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	upd, err := core.BuildOrderUpdate(req.PaidAmount, req.Status)
	if err != nil {
		return nil, err
	}
	if err := store.UpdateOrder(ctx, req.OrderID, *upd); err != nil {
		return nil, failed(OpUpdateOrder, err)
	}
	return &SaveResult{Message: fmt.Sprintf("Order #%s updated.", req.OrderID)}, nil
}

func (s *appService) PackingSlip(ctx context.Context, sess *session.Session, id core.ID) (*printing.PackingSlip, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	order, err := store.GetOrder(ctx, id)
	if err != nil {
		return nil, failed(OpPrintOrder, err)
	}
	items, err := store.ListItems(ctx, id)
	if err != nil {
		return nil, failed(OpPrintItems, err)
	}
	return printing.NewPackingSlip(order, items, sess.Lists), nil
}

// ── Expenses ──────────────────────────────────────────────────────────────────

func (s *appService) ExpenseForm(sess *session.Session) core.ExpenseInput {
	return core.NewExpenseInput(s.today(), sess.Lists)
}

func (s *appService) ClearExpenseForm(prev core.ExpenseInput) core.ExpenseInput {
	return core.ExpenseInput{
		Date:       s.today(),
		LocationID: prev.LocationID,
		CategoryID: prev.CategoryID,
		Currency:   string(core.CurrencyUSD),
	}
}

func (s *appService) SaveExpense(ctx context.Context, sess *session.Session, in core.ExpenseInput) (*SaveResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	exp, err := core.BuildExpense(in)
	if err != nil {
		return nil, err
	}
	if err := store.InsertExpense(ctx, *exp); err != nil {
		return nil, failed(OpSaveExpense, err)
	}
	return &SaveResult{Message: msgExpenseSaved}, nil
}

func (s *appService) RecentExpenses(ctx context.Context, sess *session.Session) (*ExpenseListResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	exps, err := store.RecentExpenses(ctx, s.recentLimit)
	if err != nil {
		return nil, failed(OpLoadExpenses, err)
	}
	rows := make([]ExpenseRow, len(exps))
	for i, e := range exps {
		rows[i] = ExpenseRow{
			Expense:  e,
			Location: sess.Lists.Name(core.TableLocations, e.LocationID),
			Category: sess.Lists.Name(core.TableExpenseCategories, e.CategoryID),
		}
	}
	return &ExpenseListResult{Rows: rows}, nil
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *appService) DefaultRange() DateRange {
	now := s.now()
	return DateRange{From: core.MonthStart(now), To: core.Today(now)}
}

func (s *appService) Dashboard(ctx context.Context, sess *session.Session, r DateRange) (*DashboardResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	from, to, err := core.ValidateRange(r.From, r.To)
	if err != nil {
		return nil, err
	}
	summary, err := store.DashboardSummary(ctx, from, to)
	if err != nil {
		return nil, failed(OpDashboard, err)
	}
	res := &DashboardResult{Range: DateRange{From: from, To: to}, Summary: summary}

	rows, err := store.RemainingInventory(ctx, to)
	if err != nil {
		return res, failed(OpRemaining, err)
	}
	res.Remaining = rows
	res.Message = msgDashboard
	return res, nil
}

func (s *appService) RemainingInventory(ctx context.Context, sess *session.Session, asOf string) (*RemainingResult, error) {
	store, err := s.store(sess)
	if err != nil {
		return nil, err
	}
	asOf, err = core.ValidateAsOf(asOf)
	if err != nil {
		return nil, err
	}
	rows, err := store.RemainingInventory(ctx, asOf)
	if err != nil {
		return nil, failed(OpExport, err)
	}
	return &RemainingResult{AsOf: asOf, Rows: rows}, nil
}
