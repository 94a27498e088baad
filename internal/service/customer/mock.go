package customer

import (
	"context"
	"sync"

	"github.com/acme/orders/internal/domain"
)

// MockDirectory — конфигурируемая заглушка CustomerDirectory для тестов
// и локальных запусков.
type MockDirectory struct {
	mu sync.Mutex

	Customers map[string]domain.Customer
	Err       error

	Calls         int
	LastRequester domain.Requester
}

// NewMockDirectory возвращает mock, отвечающий успехом на любой известный id.
func NewMockDirectory(customers ...domain.Customer) *MockDirectory {
	byID := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	return &MockDirectory{Customers: byID}
}

// FindByID возвращает настроенного клиента или ErrCustomerNotFound.
func (m *MockDirectory) FindByID(_ context.Context, id string, requester domain.Requester) (domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.LastRequester = requester
	if m.Err != nil {
		return domain.Customer{}, m.Err
	}
	c, ok := m.Customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, nil
}

var _ domain.CustomerDirectory = (*MockDirectory)(nil)
