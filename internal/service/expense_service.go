package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/notify"
	"github.com/mmynk/groupledger/internal/storage"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	apiconnect.UnimplementedExpenseServiceHandler
	store   storage.Store
	emitter *notify.Emitter
	now     func() time.Time
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, emitter *notify.Emitter) *ExpenseService {
	return &ExpenseService{store: store, emitter: emitter, now: time.Now}
}

// splitInput is the part of a request that determines the split.
type splitInput struct {
	amount       float64
	splitType    models.SplitType
	participants []string
	splits       []*api.Split
	items        []*api.Item
}

// computeShares divides amount according to the split type.
func computeShares(in splitInput) ([]calculator.Share, error) {
	var shares []calculator.Share
	switch in.splitType {
	case models.SplitEqual:
		var err error
		if shares, err = calculator.EqualShares(in.amount, in.participants); err != nil {
			return nil, err
		}

	case models.SplitExact:
		shares = make([]calculator.Share, len(in.splits))
		for i, s := range in.splits {
			shares[i] = calculator.Share{UserID: s.UserId, Amount: money.Round2(s.Amount)}
		}

	case models.SplitItemized:
		items := make([]calculator.Item, len(in.items))
		for i, item := range in.items {
			items[i] = calculator.Item{
				Description: item.Description,
				Amount:      item.Amount,
				AssignedTo:  item.AssignedTo,
			}
		}
		var err error
		if shares, err = calculator.ItemizedShares(items, in.amount, in.participants); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown split type %q", calculator.ErrInvalidSplit, in.splitType)
	}

	if err := calculator.ValidateShares("split", in.amount, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

func parseSplitType(s string) models.SplitType {
	if s == "" {
		return models.SplitEqual
	}
	return models.SplitType(strings.ToUpper(s))
}

// itemParticipants returns everyone an item is assigned to, in first-seen order.
func itemParticipants(items []*api.Item) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range items {
		for _, id := range item.AssignedTo {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// CreateExpense records a group expense. Splits owed by a member who fronted
// the whole expense are stored as settled: nobody else is owed anything.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"group_id", msg.GroupId,
		"amount", msg.Amount,
		"split_type", msg.SplitType,
	)

	group, err := memberGroup(ctx, s.store, msg.GroupId, userID)
	if err != nil {
		return nil, fail("CreateExpense failed", err, "group_id", msg.GroupId)
	}

	description := strings.TrimSpace(msg.Description)
	if description == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("description required"))
	}
	amount := money.Round2(msg.Amount)
	if amount <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("amount must be positive"))
	}

	in := splitInput{
		amount:       amount,
		splitType:    parseSplitType(msg.SplitType),
		participants: msg.Participants,
		splits:       msg.Splits,
		items:        msg.Items,
	}
	if len(in.participants) == 0 {
		if in.splitType == models.SplitItemized {
			in.participants = itemParticipants(msg.Items)
		}
		if len(in.participants) == 0 {
			in.participants = group.MemberIDs()
		}
	}
	shares, err := computeShares(in)
	if err != nil {
		return nil, fail("CreateExpense failed", err, "group_id", group.ID)
	}

	lenders := []calculator.Share{{UserID: userID, Amount: amount}}
	if len(msg.Lenders) > 0 {
		lenders = make([]calculator.Share, len(msg.Lenders))
		for i, l := range msg.Lenders {
			lenders[i] = calculator.Share{UserID: l.UserId, Amount: money.Round2(l.Amount)}
		}
	}
	if err := calculator.ValidateShares("lender", amount, lenders); err != nil {
		return nil, fail("CreateExpense failed", err, "group_id", group.ID)
	}

	for _, sh := range append(append([]calculator.Share{}, lenders...), shares...) {
		if group.Member(sh.UserID) == nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user %s is not a member of the group", sh.UserID))
		}
	}

	if msg.AccountId != "" {
		account, err := s.store.GetAccount(ctx, msg.AccountId)
		if err != nil {
			return nil, fail("CreateExpense failed", err, "account_id", msg.AccountId)
		}
		if account.UserID != userID {
			return nil, connect.NewError(connect.CodePermissionDenied, errors.New("account belongs to another user"))
		}
	}

	now := s.now().Unix()
	date := msg.Date
	if date == 0 {
		date = now
	}
	expense := &models.GroupExpense{
		GroupID:     group.ID,
		Description: description,
		Amount:      amount,
		Date:        date,
		SplitType:   in.splitType,
		AccountID:   msg.AccountId,
		CreatedBy:   userID,
	}
	for _, l := range lenders {
		expense.Lenders = append(expense.Lenders, models.GroupLender{UserID: l.UserID, Amount: l.Amount})
	}
	for _, sh := range shares {
		split := models.ExpenseSplit{UserID: sh.UserID, Amount: sh.Amount}
		if expense.LenderFraction(sh.UserID) >= 1-1e-9 {
			split.Settled = true
			split.SettledAt = now
		}
		expense.Splits = append(expense.Splits, split)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fail("CreateExpense failed", err, "group_id", group.ID)
	}

	actorName := userID
	if m := group.Member(userID); m != nil && m.DisplayName != "" {
		actorName = m.DisplayName
	}
	s.emitter.ExpenseAdded(ctx, group.Name, expense, actorName)

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"amount", amount,
		"splits", len(expense.Splits),
	)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// PreviewSplit computes splits without saving anything.
func (s *ExpenseService) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	msg := req.Msg
	in := splitInput{
		amount:       money.Round2(msg.Amount),
		splitType:    parseSplitType(msg.SplitType),
		participants: msg.Participants,
		splits:       msg.Splits,
		items:        msg.Items,
	}
	if in.amount <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("amount must be positive"))
	}
	if len(in.participants) == 0 && in.splitType == models.SplitItemized {
		in.participants = itemParticipants(msg.Items)
	}

	shares, err := computeShares(in)
	if err != nil {
		return nil, fail("PreviewSplit failed", err)
	}

	return connect.NewResponse(&api.PreviewSplitResponse{Splits: sharesToAPI(shares)}), nil
}

// expenseForMember loads an expense and checks that userID belongs to its group.
func (s *ExpenseService) expenseForMember(ctx context.Context, expenseID, userID string) (*models.GroupExpense, *models.Group, error) {
	if expenseID == "" {
		return nil, nil, connect.NewError(connect.CodeInvalidArgument, errors.New("expense_id required"))
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	group, err := memberGroup(ctx, s.store, expense.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	return expense, group, nil
}

// GetExpense returns an expense with its lenders and splits.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, _, err := s.expenseForMember(ctx, req.Msg.ExpenseId, userID)
	if err != nil {
		return nil, fail("GetExpense failed", err, "expense_id", req.Msg.ExpenseId)
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("ListExpenses failed", err, "group_id", req.Msg.GroupId)
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, fail("ListExpenses failed", err, "group_id", group.ID)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseToAPI(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// DeleteExpense removes an expense none of whose splits is settled.
// The creator or a group admin may delete it.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, group, err := s.expenseForMember(ctx, req.Msg.ExpenseId, userID)
	if err != nil {
		return nil, fail("DeleteExpense failed", err, "expense_id", req.Msg.ExpenseId)
	}
	if expense.CreatedBy != userID && !group.IsAdmin(userID) {
		return nil, fail("DeleteExpense failed", errNotAdmin, "expense_id", expense.ID)
	}
	if expense.HasSettledSplits() {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("expense has settled splits"))
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, fail("DeleteExpense failed", err, "expense_id", expense.ID)
	}

	s.emitter.Log(ctx, &models.Activity{
		Action:      models.ActivityExpenseDeleted,
		Description: fmt.Sprintf("%q (%.2f) was deleted", expense.Description, expense.Amount),
		UserID:      userID,
		GroupID:     group.ID,
		EntityType:  "expense",
		EntityID:    expense.ID,
	})

	slog.Info("Expense deleted", "expense_id", expense.ID, "group_id", group.ID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}
