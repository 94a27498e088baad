package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/acme/orders/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository для
// локальной разработки и тестов.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Insert сохраняет новый заказ и присваивает ему идентификатор.
func (r *orderRepositoryInMemory) Insert(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if _, exists := r.items[order.ID]; exists {
		return domain.Order{}, domain.ErrVersionConflict
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[order.ID] = cloneOrder(order)
	return order, nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает страницу заказов, упорядоченных по created_at и id.
// Порядок стабильный, поэтому страницы не пересекаются между запросами.
func (r *orderRepositoryInMemory) List(_ context.Context, limit, offset int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		all = append(all, cloneOrder(order))
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []domain.Order{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	return all, nil
}

// Count возвращает общее количество заказов.
func (r *orderRepositoryInMemory) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

// CompareAndTransition атомарно меняет статус при совпадении версии
// (optimistic locking). Версия инкрементируется при успехе.
func (r *orderRepositoryInMemory) CompareAndTransition(_ context.Context, id string, expectedVersion int64, newStatus domain.OrderStatus, fields domain.TransitionFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	current.Status = newStatus
	if fields.TransactionID != "" {
		current.TransactionID = fields.TransactionID
	}
	current.UpdatedAt = fields.UpdatedAt
	current.Version++
	r.items[id] = current
	return nil
}

// cloneOrder копирует заказ вместе с корзиной.
func cloneOrder(order domain.Order) domain.Order {
	clone := order
	if order.Cart != nil {
		clone.Cart = make([]domain.OrderItem, len(order.Cart))
		copy(clone.Cart, order.Cart)
	}
	return clone
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
