package postgres

import (
	"context"
	"fmt"
)

// Схема хранит версию заказа для optimistic locking: CompareAndTransition
// выполняется одним UPDATE с условием на id и version.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id             UUID PRIMARY KEY,
		customer_id    TEXT,
		status         TEXT NOT NULL,
		transaction_id TEXT,
		version        BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at, id)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id   UUID NOT NULL REFERENCES orders (id),
		line_no    INT NOT NULL,
		product_id TEXT NOT NULL,
		title      TEXT NOT NULL,
		currency   TEXT NOT NULL,
		price      NUMERIC(20, 6) NOT NULL,
		quantity   NUMERIC(20, 6) NOT NULL,
		amount     NUMERIC(20, 6) NOT NULL,
		PRIMARY KEY (order_id, line_no)
	)`,
	`CREATE TABLE IF NOT EXISTS reconciliation_journal (
		id             UUID PRIMARY KEY,
		order_id       UUID NOT NULL,
		transaction_id TEXT,
		reason         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		resolved_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reconciliation_open ON reconciliation_journal (created_at) WHERE resolved_at IS NULL`,
}

// EnsureSchema идемпотентно создаёт таблицы сервиса.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
