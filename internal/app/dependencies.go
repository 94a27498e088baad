package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/service/catalog"
	"github.com/acme/orders/internal/service/customer"
	"github.com/acme/orders/internal/service/payment"
	"github.com/acme/orders/internal/storage/memory"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Orders    domain.OrderRepository
	Journal   domain.ReconciliationJournal
	Customers domain.CustomerDirectory
	Catalogue domain.ProductCatalog
	Payments  domain.PaymentGateway
	Logger    *log.Entry
}

// NewDependencies создаёт зависимости по умолчанию: in-memory хранилище и
// заглушки внешних сервисов.
// NOTE: в production окружении customers/catalogue/payments должны быть
// заменены на реальные клиенты внешних сервисов.
func NewDependencies(logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	return &Dependencies{
		Orders:    memory.NewOrderRepository(),
		Journal:   memory.NewReconciliationJournal(),
		Customers: customer.NewMockDirectory(),
		Catalogue: catalog.NewMockCatalog(),
		Payments:  payment.NewMockGateway(),
		Logger:    logger,
	}
}
