package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransitionFields — поля, записываемые вместе со сменой статуса.
type TransitionFields struct {
	// TransactionID записывается только при переходе в completed.
	TransactionID string
	UpdatedAt     time.Time
}

// OrderRepository — хранилище заказов. Вся безопасность записи при
// конкурентных переходах делегирована CompareAndTransition; слепой
// read-then-write для смены статуса не используется.
type OrderRepository interface {
	// Insert сохраняет новый заказ и присваивает ему идентификатор.
	Insert(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает страницу заказов в стабильном порядке
	// (created_at, затем id), чтобы пагинация была детерминированной.
	List(ctx context.Context, limit, offset int) ([]Order, error)
	// Count возвращает общее количество заказов.
	Count(ctx context.Context) (int64, error)
	// CompareAndTransition атомарно меняет статус, если версия заказа
	// совпадает с ожидаемой; иначе возвращает ErrVersionConflict.
	// Версия при успехе инкрементируется.
	CompareAndTransition(ctx context.Context, id string, expectedVersion int64, newStatus OrderStatus, fields TransitionFields) error
}

// Customer — минимальное представление клиента из справочника.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// Product — снимок товара из каталога, достаточный для прайсинга позиции.
type Product struct {
	ID       string
	Title    string
	Currency string
	Price    decimal.Decimal
}

// ChargeRequest — запрос на создание платёжной транзакции.
type ChargeRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
	// IdempotencyKey детерминированно выводится из идентификатора заказа,
	// чтобы повтор той же логической попытки дедуплицировался шлюзом.
	IdempotencyKey string
}

// Transaction — результат успешного платежа.
type Transaction struct {
	ID string
}

// CustomerDirectory описывает взаимодействие со справочником клиентов.
type CustomerDirectory interface {
	FindByID(ctx context.Context, id string, requester Requester) (Customer, error)
}

// ProductCatalog описывает взаимодействие с каталогом товаров.
type ProductCatalog interface {
	FindProduct(ctx context.Context, productID string) (Product, error)
}

// PaymentGateway описывает взаимодействие с платёжным шлюзом.
// ErrPaymentAmbiguous в цепочке ошибки означает, что списание могло пройти.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req ChargeRequest) (Transaction, error)
}

// ReconciliationEntry — осиротевшая платёжная транзакция: платёж прошёл
// (или мог пройти), а локальный переход заказа не состоялся.
type ReconciliationEntry struct {
	ID      string
	OrderID string
	// TransactionID пуст, если исход платежа остался неизвестным.
	TransactionID string
	Reason        string
	CreatedAt     time.Time
	ResolvedAt    time.Time
}

// Open сообщает, ждёт ли запись сверки оператора.
func (e *ReconciliationEntry) Open() bool {
	return e.ResolvedAt.IsZero()
}

// ReconciliationJournal хранит осиротевшие транзакции до их сверки.
// Журнал только фиксирует и отдаёт факты; заказы он не мутирует.
type ReconciliationJournal interface {
	Record(ctx context.Context, entry ReconciliationEntry) (ReconciliationEntry, error)
	ListOpen(ctx context.Context, limit int) ([]ReconciliationEntry, error)
	Resolve(ctx context.Context, id string) error
}
