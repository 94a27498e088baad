package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestRecordCreatedIncrementsCounterAndHistogram(t *testing.T) {
	m := newLifecycleMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordCreated(3)
	m.RecordCreated(1)

	require.Equal(t, float64(2), counterValue(t, m.ordersCreated))

	var hist dto.Metric
	require.NoError(t, m.cartSize.Write(&hist))
	require.Equal(t, uint64(2), hist.GetHistogram().GetSampleCount())
	require.Equal(t, float64(4), hist.GetHistogram().GetSampleSum())
}

func TestLifecycleCounters(t *testing.T) {
	m := newLifecycleMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordCompleted()
	m.RecordCanceled()
	m.RecordCanceled()
	m.RecordReconciliationRequired()

	require.Equal(t, float64(1), counterValue(t, m.ordersCompleted))
	require.Equal(t, float64(2), counterValue(t, m.ordersCanceled))
	require.Equal(t, float64(1), counterValue(t, m.reconciliationRequired))
}

func TestProcessingGauge(t *testing.T) {
	m := newLifecycleMetricsWithRegisterer(prometheus.NewRegistry())

	m.ProcessingStarted()
	m.ProcessingStarted()
	require.Equal(t, float64(2), gaugeValue(t, m.ordersProcessing))

	m.ProcessingFinished()
	require.Equal(t, float64(1), gaugeValue(t, m.ordersProcessing))
}

func TestDoubleRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newLifecycleMetricsWithRegisterer(registry)
	second := newLifecycleMetricsWithRegisterer(registry)

	first.RecordCompleted()
	second.RecordCompleted()

	require.Equal(t, float64(2), counterValue(t, first.ordersCompleted))
}
