package kafka

import "time"

// EventType определяет тип события жизненного цикла заказа.
type EventType string

const (
	EventTypeOrderCreated   EventType = "order.created"
	EventTypeOrderCompleted EventType = "order.completed"
	EventTypeOrderCanceled  EventType = "order.canceled"
	// EventTypeReconciliationRequired публикуется, когда платёж прошёл,
	// а переход заказа проигран гонке.
	EventTypeReconciliationRequired EventType = "order.reconciliation_required"
)

// Topics для Kafka
const (
	TopicLifecycleEvents = "orders.lifecycle.events"
)

// LifecycleEvent представляет событие жизненного цикла заказа.
type LifecycleEvent struct {
	EventType     EventType              `json:"event_type"`
	OrderID       string                 `json:"order_id"`
	CustomerID    string                 `json:"customer_id,omitempty"`
	Status        string                 `json:"status,omitempty"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// NewLifecycleEvent создаёт событие жизненного цикла заказа.
func NewLifecycleEvent(eventType EventType, orderID string, metadata map[string]interface{}) *LifecycleEvent {
	return &LifecycleEvent{
		EventType: eventType,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}
