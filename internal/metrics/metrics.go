// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
)

// Settlement entry points.
const (
	EntryBatch   = "batch"
	EntryPayment = "payment"
	EntryReceipt = "receipt"
	EntrySplits  = "splits"
)

// Transfer results.
const (
	ResultApplied = "applied"
	ResultFailed  = "failed"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	transfers   *prometheus.CounterVec
	amount      prometheus.Counter
	rpcDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupledger",
			Name:      "settlement_transfers_total",
			Help:      "Settlement transfers attempted, by entry point and result.",
		}, []string{"entry_point", "result"}),
		amount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groupledger",
			Name:      "settlement_amount_total",
			Help:      "Sum of applied settlement amounts.",
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "groupledger",
			Name:      "rpc_duration_seconds",
			Help:      "Unary RPC latency, by procedure and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
	reg.MustRegister(m.transfers, m.amount, m.rpcDuration)
	return m
}

// ObserveTransfer records one settlement transfer.
func (m *Metrics) ObserveTransfer(entryPoint string, applied bool, amount float64) {
	if m == nil {
		return
	}
	if !applied {
		m.transfers.WithLabelValues(entryPoint, ResultFailed).Inc()
		return
	}
	m.transfers.WithLabelValues(entryPoint, ResultApplied).Inc()
	m.amount.Add(amount)
}

// Interceptor returns a Connect interceptor that records RPC latency.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if m == nil {
				return next(ctx, req)
			}
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeUnknown.String()
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
				}
			}
			m.rpcDuration.WithLabelValues(req.Spec().Procedure, code).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}
