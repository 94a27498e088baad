package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusNew — заказ создан, оплата ещё не выполнена.
	OrderStatusNew OrderStatus = "new"
	// OrderStatusCompleted — оплата подтверждена, заказ завершён.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCanceled — заказ отменён до оплаты.
	OrderStatusCanceled OrderStatus = "canceled"
)

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

// CanTransitionTo проверяет допустимость перехода между статусами.
// Разрешены только new→completed и new→canceled.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return s == OrderStatusNew && target.Terminal()
}

// OrderItem представляет одну позицию заказа. Title, Currency и Price —
// снимок каталога на момент создания заказа; позже не перечитываются,
// поэтому изменения цен в каталоге не затрагивают существующие заказы.
type OrderItem struct {
	// ProductID — внешний идентификатор товара в каталоге.
	ProductID string
	// Title — название товара на момент создания заказа.
	Title string
	// Currency — код валюты цены.
	Currency string
	// Price — цена за единицу на момент создания заказа.
	Price decimal.Decimal
	// Quantity — количество единиц, строго положительное.
	Quantity decimal.Decimal
	// Amount = Price × Quantity, вычисляется один раз при создании.
	Amount decimal.Decimal
}

// Order агрегирует состояние заказа и его позиции. Корзина фиксируется
// при создании и далее не мутирует; TransactionID появляется только при
// переходе в completed.
type Order struct {
	ID            string
	CustomerID    string
	Cart          []OrderItem
	Status        OrderStatus
	TransactionID string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Total возвращает сумму заказа как сумму Amount всех позиций.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Cart {
		total = total.Add(item.Amount)
	}
	return total
}

// Currency возвращает валюту заказа — валюту первой позиции корзины.
func (o *Order) Currency() string {
	if len(o.Cart) == 0 {
		return ""
	}
	return o.Cart[0].Currency
}

// OrderDraft — входные данные для создания заказа.
type OrderDraft struct {
	// CustomerID опционален; если задан, клиент проверяется в справочнике.
	CustomerID string
	Cart       []DraftItem
}

// DraftItem — строка корзины до обогащения данными каталога.
type DraftItem struct {
	ProductID string
	// Quantity по умолчанию равно 1, если не задано или неположительно.
	Quantity decimal.Decimal
}

// Requester — идентичность инициатора запроса. Используется только для
// авторизации обращения в справочник клиентов и нигде не сохраняется.
type Requester struct {
	ID string
}
