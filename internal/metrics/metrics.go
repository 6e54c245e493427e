package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultSuccess   = "success"
	ResultFailed    = "failed"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
	ResultError     = "error"
)

// EscrowMetrics 托管执行相关指标
type EscrowMetrics struct {
	transactions *prometheus.CounterVec
	instructions *prometheus.CounterVec
	latency      prometheus.Histogram
	receipts     *prometheus.CounterVec
}

var (
	escrowMetricsOnce sync.Once
	escrowRegistry    *EscrowMetrics
)

// Escrow 返回懒加载注册的指标实例
func Escrow() *EscrowMetrics {
	escrowMetricsOnce.Do(func() {
		escrowRegistry = newEscrowMetrics()
		prometheus.MustRegister(
			escrowRegistry.transactions,
			escrowRegistry.instructions,
			escrowRegistry.latency,
			escrowRegistry.receipts,
		)
	})
	return escrowRegistry
}

func newEscrowMetrics() *EscrowMetrics {
	return &EscrowMetrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrow",
			Subsystem: "runtime",
			Name:      "transactions_total",
			Help:      "Transactions handled by the escrow runtime segmented by result.",
		}, []string{"result"}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrow",
			Subsystem: "runtime",
			Name:      "instructions_total",
			Help:      "Escrow program instructions segmented by kind and result.",
		}, []string{"kind", "result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "escrow",
			Subsystem: "runtime",
			Name:      "execute_duration_seconds",
			Help:      "Latency distribution of transaction execution including account load and save.",
			Buckets:   prometheus.DefBuckets,
		}),
		receipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "escrow",
			Subsystem: "mq",
			Name:      "receipts_total",
			Help:      "Receipts published to Kafka segmented by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveTransaction 记录一笔交易的处理结果与耗时
func (m *EscrowMetrics) ObserveTransaction(result string, duration time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.transactions.WithLabelValues(result).Inc()
	if duration > 0 {
		m.latency.Observe(duration.Seconds())
	}
}

// ObserveInstruction 记录单条托管指令
func (m *EscrowMetrics) ObserveInstruction(kind string, success bool) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	result := ResultSuccess
	if !success {
		result = ResultFailed
	}
	m.instructions.WithLabelValues(kind, result).Inc()
}

// ObserveReceipt 记录回执投递
func (m *EscrowMetrics) ObserveReceipt(err error) {
	if m == nil {
		return
	}
	outcome := ResultSuccess
	if err != nil {
		outcome = ResultError
	}
	m.receipts.WithLabelValues(outcome).Inc()
}
