package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveTransaction(t *testing.T) {
	m := newEscrowMetrics()
	m.ObserveTransaction(ResultSuccess, 10*time.Millisecond)
	m.ObserveTransaction(ResultSuccess, 0)
	m.ObserveTransaction("", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues(ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("unknown")))
	require.Equal(t, 2, testutil.CollectAndCount(m.transactions))
}

func TestObserveInstructionAndReceipt(t *testing.T) {
	m := newEscrowMetrics()
	m.ObserveInstruction("exchange", true)
	m.ObserveInstruction("exchange", false)
	m.ObserveInstruction("exchange", false)
	m.ObserveReceipt(nil)
	m.ObserveReceipt(errors.New("timeout"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.instructions.WithLabelValues("exchange", ResultSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.instructions.WithLabelValues("exchange", ResultFailed)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.receipts.WithLabelValues(ResultError)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *EscrowMetrics
	require.NotPanics(t, func() {
		m.ObserveTransaction(ResultFailed, time.Second)
		m.ObserveInstruction("list", true)
		m.ObserveReceipt(nil)
	})
}
