// Package settlement computes group balances, simplifies debts into transfers
// and applies transfers to the personal ledger.
//
// Every applied transfer is one transaction: four ledger postings, four
// balance adjustments, the settlement record and any split updates commit
// together or not at all. Batches are best-effort across transfers and report
// a result per transfer. Notifications and activity entries are emitted after
// commit and never fail a settlement.
package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/metrics"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/money"
	"github.com/mmynk/groupledger/internal/notify"
	"github.com/mmynk/groupledger/internal/storage"
)

// Engine computes and applies group settlements.
type Engine struct {
	store   storage.Store
	emitter *notify.Emitter
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewEngine creates an Engine. emitter and m may be nil.
func NewEngine(store storage.Store, emitter *notify.Emitter, m *metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		emitter: emitter,
		metrics: m,
		now:     time.Now,
	}
}

// Balances is a group's balance sheet and the transfers that would settle it.
type Balances struct {
	Group     *models.Group
	Members   []calculator.MemberBalance // rounded to cents
	Transfers []calculator.DebtEdge      // rounded to cents
	Names     map[string]string          // user ID to display name
}

// groupState is everything loaded to compute a group's balances.
type groupState struct {
	group       *models.Group
	expenses    []*models.GroupExpense
	settlements []*models.Settlement
	names       map[string]string
}

// GroupBalances returns every member's balance and the simplified transfers.
func (e *Engine) GroupBalances(ctx context.Context, groupID, actorID string) (*Balances, error) {
	state, err := e.loadState(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}

	balances := state.balances()
	transfers := roundEdges(calculator.SimplifyDebts(calculator.PartiesFromBalances(balances)))

	rounded := make([]calculator.MemberBalance, len(balances))
	for i, b := range balances {
		rounded[i] = b.Rounded()
	}

	return &Balances{
		Group:     state.group,
		Members:   rounded,
		Transfers: transfers,
		Names:     state.names,
	}, nil
}

// Plan returns the simplified transfers for a group without applying them.
func (e *Engine) Plan(ctx context.Context, groupID, actorID string) ([]calculator.DebtEdge, error) {
	b, err := e.GroupBalances(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	return b.Transfers, nil
}

// loadGroup fetches the group and checks that actorID belongs to it.
func (e *Engine) loadGroup(ctx context.Context, groupID, actorID string) (*models.Group, error) {
	if groupID == "" {
		return nil, invalid("group id is required")
	}
	if actorID == "" {
		return nil, unauthorized("caller identity is required")
	}

	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeError("get group", err)
	}
	if group.Member(actorID) == nil {
		return nil, unauthorized("user %s is not a member of group %s", actorID, groupID)
	}
	return group, nil
}

func (e *Engine) loadState(ctx context.Context, groupID, actorID string) (*groupState, error) {
	group, err := e.loadGroup(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}

	expenses, err := e.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, storeError("list expenses", err)
	}
	settlements, err := e.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, storeError("list settlements", err)
	}

	state := &groupState{
		group:       group,
		expenses:    expenses,
		settlements: settlements,
	}
	state.names = e.resolveNames(ctx, state)
	return state, nil
}

// liveState reloads a group's expenses and settlements through q, so that
// balances are computed from what the caller's transaction sees.
func liveState(ctx context.Context, q storage.Queries, group *models.Group, names map[string]string) (*groupState, error) {
	expenses, err := q.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	settlements, err := q.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return &groupState{group: group, expenses: expenses, settlements: settlements, names: names}, nil
}

// resolveNames maps every user referenced by the group to a display name.
// Former members are looked up in the user store; unknown users keep their ID.
func (e *Engine) resolveNames(ctx context.Context, s *groupState) map[string]string {
	names := make(map[string]string)
	for _, m := range s.group.Members {
		if m.DisplayName != "" {
			names[m.UserID] = m.DisplayName
		}
	}

	var missing []string
	seen := make(map[string]bool)
	want := func(id string) {
		if _, ok := names[id]; !ok && !seen[id] {
			seen[id] = true
			missing = append(missing, id)
		}
	}
	for _, m := range s.group.Members {
		want(m.UserID)
	}
	for _, exp := range s.expenses {
		for _, l := range exp.Lenders {
			want(l.UserID)
		}
		for _, sp := range exp.Splits {
			want(sp.UserID)
		}
	}
	for _, st := range s.settlements {
		want(st.BorrowerID)
		want(st.LenderID)
	}

	if len(missing) > 0 {
		users, err := e.store.GetUsersByIDs(ctx, missing)
		if err != nil {
			slog.Warn("Failed to resolve user names", "group_id", s.group.ID, "error", err)
		}
		for _, id := range missing {
			if u, ok := users[id]; ok && u.DisplayName != "" {
				names[id] = u.DisplayName
			} else {
				names[id] = id
			}
		}
	}
	return names
}

// balances runs the aggregator over the loaded state, unrounded.
func (s *groupState) balances() []calculator.MemberBalance {
	members := make([]calculator.Member, len(s.group.Members))
	for i, m := range s.group.Members {
		members[i] = calculator.Member{UserID: m.UserID, UserName: s.names[m.UserID]}
	}

	expenses := make([]calculator.ExpenseForBalance, len(s.expenses))
	for i, exp := range s.expenses {
		expenses[i] = toExpenseForBalance(exp)
	}

	settlements := make([]calculator.SettlementForBalance, len(s.settlements))
	for i, st := range s.settlements {
		settlements[i] = calculator.SettlementForBalance{
			FromUserID: st.BorrowerID,
			ToUserID:   st.LenderID,
			Amount:     st.Amount,
		}
	}

	balances := calculator.AggregateBalances(members, expenses, settlements)
	for i := range balances {
		if name, ok := s.names[balances[i].UserID]; ok {
			balances[i].UserName = name
		}
	}
	return balances
}

// nets maps user ID to unrounded net balance.
func (s *groupState) nets() map[string]float64 {
	balances := s.balances()
	nets := make(map[string]float64, len(balances))
	for _, b := range balances {
		nets[b.UserID] = b.NetBalance
	}
	return nets
}

func toExpenseForBalance(exp *models.GroupExpense) calculator.ExpenseForBalance {
	out := calculator.ExpenseForBalance{
		Amount:  exp.Amount,
		Lenders: make([]calculator.Share, len(exp.Lenders)),
		Splits:  make([]calculator.SplitForBalance, len(exp.Splits)),
	}
	for i, l := range exp.Lenders {
		out.Lenders[i] = calculator.Share{UserID: l.UserID, Amount: l.Amount}
	}
	for i, sp := range exp.Splits {
		out.Splits[i] = calculator.SplitForBalance{UserID: sp.UserID, Amount: sp.Amount, Settled: sp.Settled}
	}
	return out
}

// roundEdges rounds transfers to cents and drops those left at a cent or less.
func roundEdges(edges []calculator.DebtEdge) []calculator.DebtEdge {
	out := make([]calculator.DebtEdge, 0, len(edges))
	for _, edge := range edges {
		edge.Amount = money.Round2(edge.Amount)
		if edge.Amount <= 0 || money.IsNoise(edge.Amount) {
			continue
		}
		out = append(out, edge)
	}
	return out
}
