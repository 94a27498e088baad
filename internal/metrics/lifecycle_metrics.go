package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics содержит метрики операций жизненного цикла заказов.
type LifecycleMetrics struct {
	// Счётчики операций
	ordersCreated          prometheus.Counter
	ordersCompleted        prometheus.Counter
	ordersCanceled         prometheus.Counter
	reconciliationRequired prometheus.Counter

	// Распределение размера корзины при создании
	cartSize prometheus.Histogram

	// Gauge заказов, находящихся в обработке платежа
	ordersProcessing prometheus.Gauge
}

// NewLifecycleMetrics создаёт метрики жизненного цикла в default registry.
func NewLifecycleMetrics() *LifecycleMetrics {
	return newLifecycleMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newLifecycleMetricsWithRegisterer(registerer prometheus.Registerer) *LifecycleMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &LifecycleMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_completed_total",
			Help: "Total number of orders completed with a captured payment",
		}),
		ordersCanceled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_canceled_total",
			Help: "Total number of orders canceled",
		}),
		reconciliationRequired: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_reconciliation_required_total",
			Help: "Total number of captured payments orphaned by a lost transition race",
		}),
		cartSize: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_cart_size",
			Help:    "Distribution of cart sizes at order creation",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		ordersProcessing: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orders_processing",
			Help: "Number of orders currently waiting on payment capture",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCreated увеличивает счётчик созданных заказов и фиксирует размер корзины.
func (m *LifecycleMetrics) RecordCreated(cartSize int) {
	m.ordersCreated.Inc()
	m.cartSize.Observe(float64(cartSize))
}

// RecordCompleted увеличивает счётчик завершённых заказов.
func (m *LifecycleMetrics) RecordCompleted() {
	m.ordersCompleted.Inc()
}

// RecordCanceled увеличивает счётчик отменённых заказов.
func (m *LifecycleMetrics) RecordCanceled() {
	m.ordersCanceled.Inc()
}

// RecordReconciliationRequired увеличивает счётчик осиротевших транзакций.
func (m *LifecycleMetrics) RecordReconciliationRequired() {
	m.reconciliationRequired.Inc()
}

// ProcessingStarted увеличивает gauge заказов в обработке платежа.
func (m *LifecycleMetrics) ProcessingStarted() {
	m.ordersProcessing.Inc()
}

// ProcessingFinished уменьшает gauge заказов в обработке платежа.
func (m *LifecycleMetrics) ProcessingFinished() {
	m.ordersProcessing.Dec()
}
