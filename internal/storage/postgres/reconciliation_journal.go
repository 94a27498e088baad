package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acme/orders/internal/domain"
)

type reconciliationJournal struct {
	db *sql.DB
}

// NewReconciliationJournal создаёт PostgreSQL-реализацию журнала сверки.
func NewReconciliationJournal(store *Store) domain.ReconciliationJournal {
	return &reconciliationJournal{db: store.DB()}
}

// Record сохраняет запись об осиротевшей транзакции.
func (j *reconciliationJournal) Record(ctx context.Context, entry domain.ReconciliationEntry) (domain.ReconciliationEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO reconciliation_journal (
			id, order_id, transaction_id, reason, created_at
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5)
	`,
		entry.ID, entry.OrderID, entry.TransactionID, entry.Reason, entry.CreatedAt,
	)
	if err != nil {
		return domain.ReconciliationEntry{}, fmt.Errorf("insert reconciliation entry: %w", err)
	}

	return entry, nil
}

// ListOpen возвращает до limit нерешённых записей, старые первыми.
func (j *reconciliationJournal) ListOpen(ctx context.Context, limit int) ([]domain.ReconciliationEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, order_id, transaction_id, reason, created_at
		FROM reconciliation_journal
		WHERE resolved_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list open reconciliation entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ReconciliationEntry, 0)
	for rows.Next() {
		var (
			entry         domain.ReconciliationEntry
			transactionID sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.OrderID, &transactionID, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reconciliation entry: %w", err)
		}
		entry.TransactionID = transactionID.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliation entries: %w", err)
	}

	return entries, nil
}

// Resolve помечает запись как сверенную.
func (j *reconciliationJournal) Resolve(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := j.db.ExecContext(ctx, `
		UPDATE reconciliation_journal
		SET resolved_at = $1
		WHERE id = $2
		  AND resolved_at IS NULL
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resolve reconciliation entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrJournalEntryNotFound
	}

	return nil
}

var _ domain.ReconciliationJournal = (*reconciliationJournal)(nil)
