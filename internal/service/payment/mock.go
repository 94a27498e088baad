package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/acme/orders/internal/domain"
)

// MockGateway — конфигурируемая заглушка PaymentGateway для тестов.
type MockGateway struct {
	mu sync.Mutex

	// TransactionID возвращается как идентификатор транзакции; если пуст,
	// генерируется "tx-<номер вызова>".
	TransactionID string
	Err           error
	// Hook вызывается после фиксации запроса и до возврата результата.
	// Тесты используют его для синхронизации конкурентных сценариев.
	Hook func(req domain.ChargeRequest)

	Calls    int
	Requests []domain.ChargeRequest
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// CreateTransaction возвращает настроенный результат и запоминает запрос.
func (m *MockGateway) CreateTransaction(_ context.Context, req domain.ChargeRequest) (domain.Transaction, error) {
	m.mu.Lock()
	m.Calls++
	calls := m.Calls
	m.Requests = append(m.Requests, req)
	hook := m.Hook
	err := m.Err
	txID := m.TransactionID
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if err != nil {
		return domain.Transaction{}, err
	}
	if txID == "" {
		txID = fmt.Sprintf("tx-%d", calls)
	}
	return domain.Transaction{ID: txID}, nil
}

// CallCount возвращает число выполненных вызовов.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
