package service

import (
	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/settlement"
	"github.com/mmynk/groupledger/pkg/api"
)

func userToAPI(u *models.User) *api.User {
	return &api.User{
		Id:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func groupToAPI(g *models.Group) *api.Group {
	members := make([]*api.GroupMember, len(g.Members))
	for i, m := range g.Members {
		members[i] = &api.GroupMember{
			UserId:      m.UserID,
			DisplayName: m.DisplayName,
			Role:        string(m.Role),
			JoinedAt:    m.JoinedAt,
		}
	}
	return &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func splitToAPI(s *models.ExpenseSplit) *api.Split {
	return &api.Split{
		Id:           s.ID,
		UserId:       s.UserID,
		Amount:       s.Amount,
		Settled:      s.Settled,
		SettledAt:    s.SettledAt,
		SettlementId: s.SettlementID,
	}
}

func expenseToAPI(e *models.GroupExpense) *api.Expense {
	lenders := make([]*api.Lender, len(e.Lenders))
	for i, l := range e.Lenders {
		lenders[i] = &api.Lender{UserId: l.UserID, Amount: l.Amount}
	}
	splits := make([]*api.Split, len(e.Splits))
	for i := range e.Splits {
		splits[i] = splitToAPI(&e.Splits[i])
	}
	return &api.Expense{
		Id:          e.ID,
		GroupId:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount,
		Date:        e.Date,
		SplitType:   string(e.SplitType),
		AccountId:   e.AccountID,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		Lenders:     lenders,
		Splits:      splits,
	}
}

func sharesToAPI(shares []calculator.Share) []*api.Split {
	out := make([]*api.Split, len(shares))
	for i, s := range shares {
		out[i] = &api.Split{UserId: s.UserID, Amount: s.Amount}
	}
	return out
}

func balanceToAPI(b calculator.MemberBalance) *api.MemberBalance {
	return &api.MemberBalance{
		UserId:          b.UserID,
		DisplayName:     b.UserName,
		TotalLent:       b.TotalLent,
		TotalBorrowed:   b.TotalBorrowed,
		SettledPaid:     b.SettledPaid,
		SettledReceived: b.SettledReceived,
		Outstanding:     b.Outstanding,
		NetBalance:      b.NetBalance,
	}
}

func edgesToAPI(edges []calculator.DebtEdge, names map[string]string) []*api.DebtEdge {
	out := make([]*api.DebtEdge, len(edges))
	for i, e := range edges {
		out[i] = &api.DebtEdge{
			FromUserId: e.From,
			FromName:   names[e.From],
			ToUserId:   e.To,
			ToName:     names[e.To],
			Amount:     e.Amount,
		}
	}
	return out
}

func settlementToAPI(s *models.Settlement) *api.Settlement {
	if s == nil {
		return nil
	}
	return &api.Settlement{
		Id:            s.ID,
		GroupId:       s.GroupID,
		BatchId:       s.BatchID,
		FromUserId:    s.BorrowerID,
		ToUserId:      s.LenderID,
		Amount:        s.Amount,
		FromAccountId: s.BorrowerAccountID,
		ToAccountId:   s.LenderAccountID,
		SettledBy:     s.SettledBy,
		Note:          s.Note,
		CreatedAt:     s.CreatedAt,
	}
}

func transfersToAPI(results []settlement.TransferResult) []*api.TransferResult {
	out := make([]*api.TransferResult, len(results))
	for i, r := range results {
		out[i] = &api.TransferResult{
			FromUserId:    r.From,
			ToUserId:      r.To,
			Amount:        r.Amount,
			Settlement:    settlementToAPI(r.Settlement),
			SplitsSettled: int32(r.SplitsSettled),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

func accountToAPI(a *models.Account) *api.Account {
	return &api.Account{
		Id:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		System:    a.System,
		CreatedAt: a.CreatedAt,
	}
}

func ledgerEntryToAPI(e *models.LedgerEntry) *api.LedgerEntry {
	return &api.LedgerEntry{
		Id:             e.ID,
		Kind:           string(e.Kind),
		AccountId:      e.AccountID,
		CategoryId:     e.CategoryID,
		GroupId:        e.GroupID,
		CounterpartyId: e.CounterpartyID,
		Amount:         e.Amount,
		Description:    e.Description,
		GroupType:      string(e.GroupType),
		CreatedAt:      e.CreatedAt,
	}
}

func notificationToAPI(n *models.Notification) *api.Notification {
	return &api.Notification{
		Id:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		RelatedId: n.RelatedID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func activityToAPI(a *models.Activity) *api.Activity {
	return &api.Activity{
		Id:          a.ID,
		Action:      a.Action,
		Description: a.Description,
		UserId:      a.UserID,
		GroupId:     a.GroupID,
		EntityType:  a.EntityType,
		EntityId:    a.EntityID,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
}
