package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDraft возвращается, если при создании не передан черновик заказа.
	ErrEmptyDraft = errors.New("order draft is required")
	// ErrCartEmpty — бизнес-правило: корзина должна содержать хотя бы одну позицию.
	ErrCartEmpty = errors.New("order cart must contain at least one item")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrVersionConflict сигнализирует о проигранном compare-and-transition.
	ErrVersionConflict = errors.New("order version conflict")
	// ErrCustomerNotFound — клиент отсутствует в справочнике.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound — товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrPaymentAmbiguous — исход платежа неизвестен: списание могло пройти.
	ErrPaymentAmbiguous = errors.New("payment outcome is ambiguous")
	// ErrJournalEntryNotFound — запись журнала сверки не найдена.
	ErrJournalEntryNotFound = errors.New("reconciliation entry not found")
)

// Collaborator именует внешний сервис в ошибках зависимостей.
type Collaborator string

const (
	CollaboratorCustomers Collaborator = "customers"
	CollaboratorCatalogue Collaborator = "catalogue"
	CollaboratorPayments  Collaborator = "payments"
)

// StateError возвращается при попытке перехода из недопустимого статуса,
// в том числе когда переход проигран конкурирующему запросу.
type StateError struct {
	Current  OrderStatus
	Expected OrderStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("order status is %q, expected %q", e.Current, e.Expected)
}

// DependencyError оборачивает отказ или таймаут внешнего сервиса.
// Ambiguous выставляется для платежей, когда списание могло состояться.
type DependencyError struct {
	Collaborator Collaborator
	ProductID    string
	Ambiguous    bool
	Err          error
}

func (e *DependencyError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("%s failed for product %q: %v", e.Collaborator, e.ProductID, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Collaborator, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// ReconciliationError — платёж прошёл, но локальный переход проигран гонке.
// Транзакция осталась без заказа и требует ручной или фоновой сверки.
type ReconciliationError struct {
	OrderID       string
	TransactionID string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("order %s lost completion race, transaction %s requires reconciliation", e.OrderID, e.TransactionID)
}

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsInvalidState проверяет, является ли ошибка нарушением статусной модели.
func IsInvalidState(err error) bool {
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

// AsDependencyError извлекает DependencyError из цепочки ошибок.
func AsDependencyError(err error) (*DependencyError, bool) {
	var depErr *DependencyError
	if errors.As(err, &depErr) {
		return depErr, true
	}
	return nil, false
}

// AsReconciliationError извлекает ReconciliationError из цепочки ошибок.
func AsReconciliationError(err error) (*ReconciliationError, bool) {
	var recErr *ReconciliationError
	if errors.As(err, &recErr) {
		return recErr, true
	}
	return nil, false
}
