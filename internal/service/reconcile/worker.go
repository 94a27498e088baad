package reconcile

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/messaging/kafka"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 100
)

var (
	reconcileScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_reconcile_scans_total",
		Help: "Total number of reconciliation journal scans grouped by result.",
	}, []string{"result"})
	reconcileOpenEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orders_reconcile_open_entries",
		Help: "Current number of open entries in the reconciliation journal.",
	})
	reconcileOldestAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orders_reconcile_oldest_open_age_seconds",
		Help: "Age in seconds of the oldest open reconciliation entry.",
	})
)

// WorkerOptions задаёт параметры worker'а сверки.
type WorkerOptions struct {
	Logger       *log.Entry
	Producer     *kafka.Producer
	PollInterval time.Duration
	BatchSize    int
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для worker'а.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithProducer задаёт Kafka producer для публикации напоминаний об
// осиротевших транзакциях.
func WithProducer(producer *kafka.Producer) Option {
	return func(opts *WorkerOptions) {
		opts.Producer = producer
	}
}

// WithPollInterval задаёт частоту опроса журнала.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча из журнала.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// Worker периодически опрашивает журнал сверки, отчитывается о нерешённых
// осиротевших транзакциях и публикует события для операторов. Заказы он
// не мутирует: решение принимает оператор через Resolve.
type Worker struct {
	journal      domain.ReconciliationJournal
	producer     *kafka.Producer
	logger       *log.Entry
	pollInterval time.Duration
	batchSize    int
	reported     map[string]struct{}
}

// NewWorker создаёт worker сверки.
func NewWorker(journal domain.ReconciliationJournal, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval: defaultPollInterval,
		BatchSize:    defaultBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reconcile-worker")
	}

	return &Worker{
		journal:      journal,
		producer:     opts.Producer,
		logger:       logger,
		pollInterval: opts.PollInterval,
		batchSize:    opts.BatchSize,
		reported:     make(map[string]struct{}),
	}
}

// Run запускает цикл опроса до отмены контекста.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.WithField("poll_interval", w.pollInterval).Info("reconcile worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Scan(ctx); err != nil {
				w.logger.WithError(err).Warn("reconciliation scan failed")
			}
		}
	}
}

// Scan выполняет один проход по журналу и возвращает число открытых записей.
func (w *Worker) Scan(ctx context.Context) (int, error) {
	entries, err := w.journal.ListOpen(ctx, w.batchSize)
	if err != nil {
		reconcileScans.WithLabelValues("error").Inc()
		return 0, err
	}
	reconcileScans.WithLabelValues("ok").Inc()

	reconcileOpenEntries.Set(float64(len(entries)))
	if len(entries) == 0 {
		reconcileOldestAge.Set(0)
		return 0, nil
	}
	reconcileOldestAge.Set(time.Since(entries[0].CreatedAt).Seconds())

	for _, entry := range entries {
		w.logger.WithFields(log.Fields{
			"entry_id":       entry.ID,
			"order_id":       entry.OrderID,
			"transaction_id": entry.TransactionID,
			"reason":         entry.Reason,
			"age":            time.Since(entry.CreatedAt).String(),
		}).Warn("orphaned payment transaction awaits reconciliation")

		w.publish(entry)
	}

	return len(entries), nil
}

// publish отправляет напоминание в Kafka один раз на запись.
func (w *Worker) publish(entry domain.ReconciliationEntry) {
	if w.producer == nil {
		return
	}
	if _, seen := w.reported[entry.ID]; seen {
		return
	}

	event := kafka.NewLifecycleEvent(kafka.EventTypeReconciliationRequired, entry.OrderID, map[string]interface{}{
		"entry_id":       entry.ID,
		"transaction_id": entry.TransactionID,
		"reason":         entry.Reason,
	})
	if err := w.producer.PublishEvent(kafka.TopicLifecycleEvents, entry.OrderID, event); err != nil {
		w.logger.WithError(err).WithField("entry_id", entry.ID).Warn("failed to publish reconciliation event")
		return
	}
	w.reported[entry.ID] = struct{}{}
}
