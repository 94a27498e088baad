package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/messaging/kafka"
	"github.com/acme/orders/internal/metrics"
)

const (
	// collaboratorTimeout ограничивает каждый вызов внешнего сервиса.
	collaboratorTimeout = 5 * time.Second
	// paymentTimeout длиннее: шлюз может отвечать медленно, а обрывать
	// начатое списание по таймауту клиента нельзя.
	paymentTimeout = 15 * time.Second
	// catalogueParallelism ограничивает параллельный прайсинг корзины.
	catalogueParallelism = 4
)

// Service управляет жизненным циклом заказа: создание со снимком цен,
// завершение со списанием средств и отмена. Все переходы статуса проходят
// через compare-and-transition хранилища.
type Service interface {
	Create(ctx context.Context, draft *domain.OrderDraft, requester domain.Requester) (domain.Order, error)
	Complete(ctx context.Context, id string) (domain.Order, error)
	Cancel(ctx context.Context, id string) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	Find(ctx context.Context, limit, offset int) ([]domain.Order, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	orders        domain.OrderRepository
	customers     domain.CustomerDirectory
	catalogue     domain.ProductCatalog
	payments      domain.PaymentGateway
	journal       domain.ReconciliationJournal
	logger        *log.Entry
	metrics       *metrics.LifecycleMetrics
	kafkaProducer *kafka.Producer // опциональный producer для событий жизненного цикла
}

// NewService создаёт рабочий экземпляр сервиса жизненного цикла.
func NewService(
	orders domain.OrderRepository,
	customers domain.CustomerDirectory,
	catalogue domain.ProductCatalog,
	payments domain.PaymentGateway,
	journal domain.ReconciliationJournal,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	return &service{
		orders:    orders,
		customers: customers,
		catalogue: catalogue,
		payments:  payments,
		journal:   journal,
		logger:    logger,
		metrics:   metrics.NewLifecycleMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис, публикующий события жизненного цикла в Kafka.
func NewServiceWithKafka(
	orders domain.OrderRepository,
	customers domain.CustomerDirectory,
	catalogue domain.ProductCatalog,
	payments domain.PaymentGateway,
	journal domain.ReconciliationJournal,
	kafkaProducer *kafka.Producer,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	return &service{
		orders:        orders,
		customers:     customers,
		catalogue:     catalogue,
		payments:      payments,
		journal:       journal,
		logger:        logger,
		metrics:       metrics.NewLifecycleMetrics(),
		kafkaProducer: kafkaProducer,
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	customers domain.CustomerDirectory,
	catalogue domain.ProductCatalog,
	payments domain.PaymentGateway,
	journal domain.ReconciliationJournal,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	return &service{
		orders:    orders,
		customers: customers,
		catalogue: catalogue,
		payments:  payments,
		journal:   journal,
		logger:    logger,
	}
}

// Create валидирует черновик, снимает цены с каталога и сохраняет заказ
// со статусом new. Прайсинг atomic: при любой неудаче ничего не сохраняется.
func (s *service) Create(ctx context.Context, draft *domain.OrderDraft, requester domain.Requester) (domain.Order, error) {
	if draft == nil {
		return domain.Order{}, domain.ErrEmptyDraft
	}

	if draft.CustomerID != "" {
		cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
		defer cancel()
		if _, err := s.customers.FindByID(cctx, draft.CustomerID, requester); err != nil {
			s.logger.WithError(err).WithField("customer_id", draft.CustomerID).Warn("customer lookup failed")
			return domain.Order{}, &domain.DependencyError{Collaborator: domain.CollaboratorCustomers, Err: err}
		}
	}

	if len(draft.Cart) == 0 {
		return domain.Order{}, domain.ErrCartEmpty
	}

	items, err := s.priceCart(ctx, draft.Cart)
	if err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		CustomerID: draft.CustomerID,
		Cart:       items,
		Status:     domain.OrderStatusNew,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := s.orders.Insert(ctx, order)
	if err != nil {
		s.logger.WithError(err).Error("insert order failed")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordCreated(len(created.Cart))
	}
	s.publishEvent(kafka.EventTypeOrderCreated, &created, nil)

	s.logger.WithFields(log.Fields{
		"order_id":   created.ID,
		"item_count": len(created.Cart),
	}).Info("order created")

	return created, nil
}

// priceCart обогащает строки корзины снимком каталога. Запросы к каталогу
// выполняются параллельно с ограничением, порядок строк сохраняется.
func (s *service) priceCart(ctx context.Context, cart []domain.DraftItem) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, len(cart))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogueParallelism)
	for i, line := range cart {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, collaboratorTimeout)
			defer cancel()

			product, err := s.catalogue.FindProduct(pctx, line.ProductID)
			if err != nil {
				return &domain.DependencyError{
					Collaborator: domain.CollaboratorCatalogue,
					ProductID:    line.ProductID,
					Err:          err,
				}
			}

			qty := line.Quantity
			if qty.Sign() <= 0 {
				qty = decimal.NewFromInt(1)
			}
			items[i] = domain.OrderItem{
				ProductID: product.ID,
				Title:     product.Title,
				Currency:  product.Currency,
				Price:     product.Price,
				Quantity:  qty,
				Amount:    product.Price.Mul(qty),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Warn("cart pricing failed, order not persisted")
		return nil, err
	}

	return items, nil
}

// Complete списывает средства и переводит заказ new→completed. Повторное
// списание исключается идемпотентным ключом и guard'ом по версии; проигранная
// гонка после успешного платежа фиксируется в журнале сверки.
func (s *service) Complete(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status != domain.OrderStatusNew {
		return domain.Order{}, &domain.StateError{Current: order.Status, Expected: domain.OrderStatusNew}
	}

	if s.metrics != nil {
		s.metrics.ProcessingStarted()
		defer s.metrics.ProcessingFinished()
	}

	// После обращения к шлюзу операция обязана дойти до перехода или записи
	// в журнал, даже если клиент уже отключился.
	opCtx := context.WithoutCancel(ctx)

	payCtx, cancel := context.WithTimeout(opCtx, paymentTimeout)
	defer cancel()
	transaction, err := s.payments.CreateTransaction(payCtx, domain.ChargeRequest{
		OrderID:        order.ID,
		Amount:         order.Total(),
		Currency:       order.Currency(),
		IdempotencyKey: CompletionKey(order.ID),
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentAmbiguous) {
			// Списание могло пройти: фиксируем в журнале без transaction id,
			// повтор остаётся безопасным благодаря идемпотентному ключу.
			s.recordOrphan(opCtx, order.ID, "", "payment outcome ambiguous")
			return domain.Order{}, &domain.DependencyError{Collaborator: domain.CollaboratorPayments, Ambiguous: true, Err: err}
		}
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("payment failed, order remains new")
		return domain.Order{}, &domain.DependencyError{Collaborator: domain.CollaboratorPayments, Err: err}
	}

	now := time.Now().UTC()
	err = s.orders.CompareAndTransition(opCtx, order.ID, order.Version, domain.OrderStatusCompleted, domain.TransitionFields{
		TransactionID: transaction.ID,
		UpdatedAt:     now,
	})
	if err != nil {
		if domain.IsVersionConflict(err) {
			// Конкурирующий запрос уже перевёл заказ: транзакция осиротела.
			s.recordOrphan(opCtx, order.ID, transaction.ID, "completion lost transition race")
			if s.metrics != nil {
				s.metrics.RecordReconciliationRequired()
			}
			s.publishEvent(kafka.EventTypeReconciliationRequired, &order, map[string]interface{}{
				"transaction_id": transaction.ID,
			})
			return domain.Order{}, &domain.ReconciliationError{OrderID: order.ID, TransactionID: transaction.ID}
		}
		s.logger.WithError(err).WithField("order_id", order.ID).Error("completion transition failed")
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatusCompleted
	order.TransactionID = transaction.ID
	order.UpdatedAt = now
	order.Version++

	if s.metrics != nil {
		s.metrics.RecordCompleted()
	}
	s.publishEvent(kafka.EventTypeOrderCompleted, &order, nil)

	s.logger.WithFields(log.Fields{
		"order_id":       order.ID,
		"transaction_id": transaction.ID,
	}).Info("order completed")

	return order, nil
}

// Cancel переводит заказ new→canceled. Внешних побочных эффектов нет,
// поэтому проигранная гонка не требует компенсации.
func (s *service) Cancel(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status != domain.OrderStatusNew {
		return domain.Order{}, &domain.StateError{Current: order.Status, Expected: domain.OrderStatusNew}
	}

	now := time.Now().UTC()
	err = s.orders.CompareAndTransition(ctx, order.ID, order.Version, domain.OrderStatusCanceled, domain.TransitionFields{
		UpdatedAt: now,
	})
	if err != nil {
		if domain.IsVersionConflict(err) {
			current := order.Status
			if fresh, freshErr := s.orders.Get(ctx, order.ID); freshErr == nil {
				current = fresh.Status
			}
			return domain.Order{}, &domain.StateError{Current: current, Expected: domain.OrderStatusNew}
		}
		s.logger.WithError(err).WithField("order_id", order.ID).Error("cancel transition failed")
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatusCanceled
	order.UpdatedAt = now
	order.Version++

	if s.metrics != nil {
		s.metrics.RecordCanceled()
	}
	s.publishEvent(kafka.EventTypeOrderCanceled, &order, nil)

	s.logger.WithField("order_id", order.ID).Info("order canceled")

	return order, nil
}

// FindByID возвращает заказ или ErrOrderNotFound.
func (s *service) FindByID(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// Find возвращает страницу заказов в стабильном порядке хранилища.
func (s *service) Find(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	return s.orders.List(ctx, limit, offset)
}

// Count возвращает общее количество заказов.
func (s *service) Count(ctx context.Context) (int64, error) {
	return s.orders.Count(ctx)
}

// CompletionKey детерминированно выводит идемпотентный ключ платежа из
// идентификатора заказа: повтор той же логической попытки завершения
// дедуплицируется самим шлюзом.
func CompletionKey(orderID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("order-completion:"+orderID)).String()
}

// recordOrphan сохраняет осиротевшую транзакцию в журнал сверки. Ошибка
// журнала логируется, но не подменяет исходный результат операции.
func (s *service) recordOrphan(ctx context.Context, orderID, transactionID, reason string) {
	if s.journal == nil {
		return
	}
	entry := domain.ReconciliationEntry{
		OrderID:       orderID,
		TransactionID: transactionID,
		Reason:        reason,
	}
	if _, err := s.journal.Record(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":       orderID,
			"transaction_id": transactionID,
		}).Error("record reconciliation entry failed")
	}
}

// publishEvent публикует событие жизненного цикла в Kafka (если producer настроен).
func (s *service) publishEvent(eventType kafka.EventType, order *domain.Order, metadata map[string]interface{}) {
	if s.kafkaProducer == nil {
		return
	}

	event := kafka.NewLifecycleEvent(eventType, order.ID, metadata)
	event.CustomerID = order.CustomerID
	event.Status = string(order.Status)
	event.TransactionID = order.TransactionID
	if err := s.kafkaProducer.PublishEvent(kafka.TopicLifecycleEvents, order.ID, event); err != nil {
		// Kafka опциональна: ошибка публикации не влияет на результат операции.
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish lifecycle event to kafka")
	}
}

var _ Service = (*service)(nil)
