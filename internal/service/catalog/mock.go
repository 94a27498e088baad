package catalog

import (
	"context"
	"sync"

	"github.com/acme/orders/internal/domain"
)

// MockCatalog — конфигурируемая заглушка ProductCatalog. Потокобезопасна:
// прайсинг корзины обращается к каталогу из нескольких горутин.
type MockCatalog struct {
	mu sync.Mutex

	Products map[string]domain.Product
	Err      error

	Calls int
}

// NewMockCatalog возвращает mock с заданным набором товаров.
func NewMockCatalog(products ...domain.Product) *MockCatalog {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &MockCatalog{Products: byID}
}

// FindProduct возвращает снимок товара или ErrProductNotFound.
func (m *MockCatalog) FindProduct(_ context.Context, productID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return domain.Product{}, m.Err
	}
	p, ok := m.Products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

var _ domain.ProductCatalog = (*MockCatalog)(nil)
