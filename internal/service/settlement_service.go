package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/settlement"
	"github.com/mmynk/groupledger/internal/storage"
	"github.com/mmynk/groupledger/pkg/api"
	"github.com/mmynk/groupledger/pkg/api/apiconnect"
)

// SettlementService exposes the settlement engine over Connect.
type SettlementService struct {
	apiconnect.UnimplementedSettlementServiceHandler
	engine *settlement.Engine
	store  storage.Store
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(engine *settlement.Engine, store storage.Store) *SettlementService {
	return &SettlementService{engine: engine, store: store}
}

// GetGroupBalances returns every member's balance and the suggested transfers.
func (s *SettlementService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	b, err := s.engine.GroupBalances(ctx, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("GetGroupBalances failed", err, "group_id", req.Msg.GroupId)
	}

	balances := make([]*api.MemberBalance, len(b.Members))
	for i, m := range b.Members {
		balances[i] = balanceToAPI(m)
	}

	slog.Info("GetGroupBalances successful",
		"group_id", req.Msg.GroupId,
		"members_count", len(b.Members),
		"transfers_count", len(b.Transfers),
	)
	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Balances:  balances,
		Transfers: edgesToAPI(b.Transfers, b.Names),
	}), nil
}

// GetDebtSettlement returns the simplified transfer plan without applying it.
func (s *SettlementService) GetDebtSettlement(ctx context.Context, req *connect.Request[api.GetDebtSettlementRequest]) (*connect.Response[api.GetDebtSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	b, err := s.engine.GroupBalances(ctx, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("GetDebtSettlement failed", err, "group_id", req.Msg.GroupId)
	}

	return connect.NewResponse(&api.GetDebtSettlementResponse{
		Transfers: edgesToAPI(b.Transfers, b.Names),
	}), nil
}

// SettleDebts applies the whole plan. Failed transfers are reported per
// transfer; the call itself only fails if nothing could be attempted.
func (s *SettlementService) SettleDebts(ctx context.Context, req *connect.Request[api.SettleDebtsRequest]) (*connect.Response[api.SettleDebtsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.SettleGroup(ctx, req.Msg.GroupId, userID, req.Msg.Note)
	if errors.Is(err, settlement.ErrNoDebtFound) {
		return connect.NewResponse(&api.SettleDebtsResponse{NoDebtsFound: true}), nil
	}
	if err != nil {
		return nil, fail("SettleDebts failed", err, "group_id", req.Msg.GroupId)
	}

	return connect.NewResponse(&api.SettleDebtsResponse{
		BatchId:       result.BatchID,
		Results:       transfersToAPI(result.Transfers),
		Applied:       int32(result.Applied()),
		Failed:        int32(result.Failed()),
		SplitsSettled: int32(result.SplitsSettled),
	}), nil
}

// RecordPayment records that the caller paid a member what they owe them.
func (s *SettlementService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.RecordPayment(ctx, settlement.PairRequest{
		GroupID:        req.Msg.GroupId,
		ActorID:        userID,
		CounterpartyID: req.Msg.ToUserId,
		AccountID:      req.Msg.AccountId,
		Note:           req.Msg.Note,
	})
	if errors.Is(err, settlement.ErrNoDebtFound) {
		return connect.NewResponse(&api.RecordPaymentResponse{NoDebtsFound: true}), nil
	}
	if err != nil {
		return nil, fail("RecordPayment failed", err, "group_id", req.Msg.GroupId, "to", req.Msg.ToUserId)
	}

	return connect.NewResponse(&api.RecordPaymentResponse{
		Settlement:    settlementToAPI(result.Settlement),
		SplitsSettled: int32(result.SplitsSettled),
	}), nil
}

// RecordReceipt records that a member paid the caller what they owed.
func (s *SettlementService) RecordReceipt(ctx context.Context, req *connect.Request[api.RecordReceiptRequest]) (*connect.Response[api.RecordReceiptResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.RecordReceipt(ctx, settlement.PairRequest{
		GroupID:        req.Msg.GroupId,
		ActorID:        userID,
		CounterpartyID: req.Msg.FromUserId,
		AccountID:      req.Msg.AccountId,
		Note:           req.Msg.Note,
	})
	if errors.Is(err, settlement.ErrNoDebtFound) {
		return connect.NewResponse(&api.RecordReceiptResponse{NoDebtsFound: true}), nil
	}
	if err != nil {
		return nil, fail("RecordReceipt failed", err, "group_id", req.Msg.GroupId, "from", req.Msg.FromUserId)
	}

	return connect.NewResponse(&api.RecordReceiptResponse{
		Settlement:    settlementToAPI(result.Settlement),
		SplitsSettled: int32(result.SplitsSettled),
	}), nil
}

// SettleSplits pays off the caller's own splits.
func (s *SettlementService) SettleSplits(ctx context.Context, req *connect.Request[api.SettleSplitsRequest]) (*connect.Response[api.SettleSplitsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.SettleSplits(ctx, settlement.SplitsRequest{
		GroupID:   req.Msg.GroupId,
		ActorID:   userID,
		SplitIDs:  req.Msg.SplitIds,
		AccountID: req.Msg.AccountId,
		Note:      req.Msg.Note,
	})
	if errors.Is(err, settlement.ErrNoDebtFound) {
		return connect.NewResponse(&api.SettleSplitsResponse{NoDebtsFound: true}), nil
	}
	if err != nil {
		return nil, fail("SettleSplits failed", err, "group_id", req.Msg.GroupId)
	}

	return connect.NewResponse(&api.SettleSplitsResponse{
		BatchId:       result.BatchID,
		Results:       transfersToAPI(result.Transfers),
		SplitsSettled: int32(result.SplitsSettled),
	}), nil
}

// ListSettlements returns a group's settlements, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := memberGroup(ctx, s.store, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("ListSettlements failed", err, "group_id", req.Msg.GroupId)
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		return nil, fail("ListSettlements failed", err, "group_id", group.ID)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = settlementToAPI(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// Reconcile checks a group's books. Admins only.
func (s *SettlementService) Reconcile(ctx context.Context, req *connect.Request[api.ReconcileRequest]) (*connect.Response[api.ReconcileResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.engine.Reconcile(ctx, req.Msg.GroupId, userID)
	if err != nil {
		return nil, fail("Reconcile failed", err, "group_id", req.Msg.GroupId)
	}
	if !report.OK() {
		slog.Warn("Reconciliation found issues", "group_id", report.GroupID, "issues", len(report.Issues))
	}

	issues := make([]*api.ReconcileIssue, len(report.Issues))
	for i, issue := range report.Issues {
		issues[i] = &api.ReconcileIssue{Kind: issue.Kind, EntityId: issue.EntityID, Detail: issue.Detail}
	}
	return connect.NewResponse(&api.ReconcileResponse{
		Ok:            report.OK(),
		Expenses:      int32(report.Expenses),
		Settlements:   int32(report.Settlements),
		SettledSplits: int32(report.SettledSplits),
		Issues:        issues,
	}), nil
}
