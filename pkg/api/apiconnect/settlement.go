package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService.
const SettlementServiceName = "groupledger.v1.SettlementService"

// Procedure paths of the SettlementService.
const (
	SettlementServiceGetGroupBalancesProcedure  = "/groupledger.v1.SettlementService/GetGroupBalances"
	SettlementServiceGetDebtSettlementProcedure = "/groupledger.v1.SettlementService/GetDebtSettlement"
	SettlementServiceSettleDebtsProcedure       = "/groupledger.v1.SettlementService/SettleDebts"
	SettlementServiceRecordPaymentProcedure     = "/groupledger.v1.SettlementService/RecordPayment"
	SettlementServiceRecordReceiptProcedure     = "/groupledger.v1.SettlementService/RecordReceipt"
	SettlementServiceSettleSplitsProcedure      = "/groupledger.v1.SettlementService/SettleSplits"
	SettlementServiceListSettlementsProcedure   = "/groupledger.v1.SettlementService/ListSettlements"
	SettlementServiceReconcileProcedure         = "/groupledger.v1.SettlementService/Reconcile"
)

// SettlementServiceClient is a client for the SettlementService.
type SettlementServiceClient interface {
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
	GetDebtSettlement(context.Context, *connect.Request[api.GetDebtSettlementRequest]) (*connect.Response[api.GetDebtSettlementResponse], error)
	SettleDebts(context.Context, *connect.Request[api.SettleDebtsRequest]) (*connect.Response[api.SettleDebtsResponse], error)
	RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error)
	RecordReceipt(context.Context, *connect.Request[api.RecordReceiptRequest]) (*connect.Response[api.RecordReceiptResponse], error)
	SettleSplits(context.Context, *connect.Request[api.SettleSplitsRequest]) (*connect.Response[api.SettleSplitsResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	Reconcile(context.Context, *connect.Request[api.ReconcileRequest]) (*connect.Response[api.ReconcileResponse], error)
}

// NewSettlementServiceClient constructs a client for the SettlementService. baseURL is the server root,
// e.g. "http://localhost:8080". Messages are sent as JSON.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &settlementServiceClient{
		getGroupBalances: connect.NewClient[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse](
			httpClient,
			baseURL+SettlementServiceGetGroupBalancesProcedure,
			opts...,
		),
		getDebtSettlement: connect.NewClient[api.GetDebtSettlementRequest, api.GetDebtSettlementResponse](
			httpClient,
			baseURL+SettlementServiceGetDebtSettlementProcedure,
			opts...,
		),
		settleDebts: connect.NewClient[api.SettleDebtsRequest, api.SettleDebtsResponse](
			httpClient,
			baseURL+SettlementServiceSettleDebtsProcedure,
			opts...,
		),
		recordPayment: connect.NewClient[api.RecordPaymentRequest, api.RecordPaymentResponse](
			httpClient,
			baseURL+SettlementServiceRecordPaymentProcedure,
			opts...,
		),
		recordReceipt: connect.NewClient[api.RecordReceiptRequest, api.RecordReceiptResponse](
			httpClient,
			baseURL+SettlementServiceRecordReceiptProcedure,
			opts...,
		),
		settleSplits: connect.NewClient[api.SettleSplitsRequest, api.SettleSplitsResponse](
			httpClient,
			baseURL+SettlementServiceSettleSplitsProcedure,
			opts...,
		),
		listSettlements: connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](
			httpClient,
			baseURL+SettlementServiceListSettlementsProcedure,
			opts...,
		),
		reconcile: connect.NewClient[api.ReconcileRequest, api.ReconcileResponse](
			httpClient,
			baseURL+SettlementServiceReconcileProcedure,
			opts...,
		),
	}
}

type settlementServiceClient struct {
	getGroupBalances  *connect.Client[api.GetGroupBalancesRequest, api.GetGroupBalancesResponse]
	getDebtSettlement *connect.Client[api.GetDebtSettlementRequest, api.GetDebtSettlementResponse]
	settleDebts       *connect.Client[api.SettleDebtsRequest, api.SettleDebtsResponse]
	recordPayment     *connect.Client[api.RecordPaymentRequest, api.RecordPaymentResponse]
	recordReceipt     *connect.Client[api.RecordReceiptRequest, api.RecordReceiptResponse]
	settleSplits      *connect.Client[api.SettleSplitsRequest, api.SettleSplitsResponse]
	listSettlements   *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	reconcile         *connect.Client[api.ReconcileRequest, api.ReconcileResponse]
}

func (c *settlementServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *settlementServiceClient) GetDebtSettlement(ctx context.Context, req *connect.Request[api.GetDebtSettlementRequest]) (*connect.Response[api.GetDebtSettlementResponse], error) {
	return c.getDebtSettlement.CallUnary(ctx, req)
}

func (c *settlementServiceClient) SettleDebts(ctx context.Context, req *connect.Request[api.SettleDebtsRequest]) (*connect.Response[api.SettleDebtsResponse], error) {
	return c.settleDebts.CallUnary(ctx, req)
}

func (c *settlementServiceClient) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *settlementServiceClient) RecordReceipt(ctx context.Context, req *connect.Request[api.RecordReceiptRequest]) (*connect.Response[api.RecordReceiptResponse], error) {
	return c.recordReceipt.CallUnary(ctx, req)
}

func (c *settlementServiceClient) SettleSplits(ctx context.Context, req *connect.Request[api.SettleSplitsRequest]) (*connect.Response[api.SettleSplitsResponse], error) {
	return c.settleSplits.CallUnary(ctx, req)
}

func (c *settlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *settlementServiceClient) Reconcile(ctx context.Context, req *connect.Request[api.ReconcileRequest]) (*connect.Response[api.ReconcileResponse], error) {
	return c.reconcile.CallUnary(ctx, req)
}

// SettlementServiceHandler is implemented by the server side of the SettlementService.
type SettlementServiceHandler interface {
	GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error)
	// GetDebtSettlement returns the simplified transfer plan.
	GetDebtSettlement(context.Context, *connect.Request[api.GetDebtSettlementRequest]) (*connect.Response[api.GetDebtSettlementResponse], error)
	// SettleDebts applies the whole transfer plan.
	SettleDebts(context.Context, *connect.Request[api.SettleDebtsRequest]) (*connect.Response[api.SettleDebtsResponse], error)
	RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error)
	RecordReceipt(context.Context, *connect.Request[api.RecordReceiptRequest]) (*connect.Response[api.RecordReceiptResponse], error)
	SettleSplits(context.Context, *connect.Request[api.SettleSplitsRequest]) (*connect.Response[api.SettleSplitsResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	// Reconcile checks a group's books. Admins only.
	Reconcile(context.Context, *connect.Request[api.ReconcileRequest]) (*connect.Response[api.ReconcileResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	settlementServiceGetGroupBalancesHandler := connect.NewUnaryHandler(SettlementServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...)
	settlementServiceGetDebtSettlementHandler := connect.NewUnaryHandler(SettlementServiceGetDebtSettlementProcedure, svc.GetDebtSettlement, opts...)
	settlementServiceSettleDebtsHandler := connect.NewUnaryHandler(SettlementServiceSettleDebtsProcedure, svc.SettleDebts, opts...)
	settlementServiceRecordPaymentHandler := connect.NewUnaryHandler(SettlementServiceRecordPaymentProcedure, svc.RecordPayment, opts...)
	settlementServiceRecordReceiptHandler := connect.NewUnaryHandler(SettlementServiceRecordReceiptProcedure, svc.RecordReceipt, opts...)
	settlementServiceSettleSplitsHandler := connect.NewUnaryHandler(SettlementServiceSettleSplitsProcedure, svc.SettleSplits, opts...)
	settlementServiceListSettlementsHandler := connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...)
	settlementServiceReconcileHandler := connect.NewUnaryHandler(SettlementServiceReconcileProcedure, svc.Reconcile, opts...)
	return "/" + SettlementServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SettlementServiceGetGroupBalancesProcedure:
			settlementServiceGetGroupBalancesHandler.ServeHTTP(w, r)
		case SettlementServiceGetDebtSettlementProcedure:
			settlementServiceGetDebtSettlementHandler.ServeHTTP(w, r)
		case SettlementServiceSettleDebtsProcedure:
			settlementServiceSettleDebtsHandler.ServeHTTP(w, r)
		case SettlementServiceRecordPaymentProcedure:
			settlementServiceRecordPaymentHandler.ServeHTTP(w, r)
		case SettlementServiceRecordReceiptProcedure:
			settlementServiceRecordReceiptHandler.ServeHTTP(w, r)
		case SettlementServiceSettleSplitsProcedure:
			settlementServiceSettleSplitsHandler.ServeHTTP(w, r)
		case SettlementServiceListSettlementsProcedure:
			settlementServiceListSettlementsHandler.ServeHTTP(w, r)
		case SettlementServiceReconcileProcedure:
			settlementServiceReconcileHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedSettlementServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSettlementServiceHandler struct{}

func (UnimplementedSettlementServiceHandler) GetGroupBalances(context.Context, *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.GetGroupBalances is not implemented"))
}

func (UnimplementedSettlementServiceHandler) GetDebtSettlement(context.Context, *connect.Request[api.GetDebtSettlementRequest]) (*connect.Response[api.GetDebtSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.GetDebtSettlement is not implemented"))
}

func (UnimplementedSettlementServiceHandler) SettleDebts(context.Context, *connect.Request[api.SettleDebtsRequest]) (*connect.Response[api.SettleDebtsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.SettleDebts is not implemented"))
}

func (UnimplementedSettlementServiceHandler) RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.RecordPayment is not implemented"))
}

func (UnimplementedSettlementServiceHandler) RecordReceipt(context.Context, *connect.Request[api.RecordReceiptRequest]) (*connect.Response[api.RecordReceiptResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.RecordReceipt is not implemented"))
}

func (UnimplementedSettlementServiceHandler) SettleSplits(context.Context, *connect.Request[api.SettleSplitsRequest]) (*connect.Response[api.SettleSplitsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.SettleSplits is not implemented"))
}

func (UnimplementedSettlementServiceHandler) ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.ListSettlements is not implemented"))
}

func (UnimplementedSettlementServiceHandler) Reconcile(context.Context, *connect.Request[api.ReconcileRequest]) (*connect.Response[api.ReconcileResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("groupledger.v1.SettlementService.Reconcile is not implemented"))
}
