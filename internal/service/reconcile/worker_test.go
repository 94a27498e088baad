package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/service/reconcile"
	"github.com/acme/orders/internal/storage/memory"
)

func TestScanEmptyJournal(t *testing.T) {
	worker := reconcile.NewWorker(memory.NewReconciliationJournal())

	open, err := worker.Scan(context.Background())
	require.NoError(t, err)
	require.Zero(t, open)
}

func TestScanCountsOpenEntries(t *testing.T) {
	journal := memory.NewReconciliationJournal()
	ctx := context.Background()

	first, err := journal.Record(ctx, domain.ReconciliationEntry{
		OrderID:       "order-1",
		TransactionID: "tx-1",
		Reason:        "completion lost transition race",
	})
	require.NoError(t, err)
	_, err = journal.Record(ctx, domain.ReconciliationEntry{
		OrderID: "order-2",
		Reason:  "payment outcome ambiguous",
	})
	require.NoError(t, err)

	worker := reconcile.NewWorker(journal)

	open, err := worker.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, open)

	// Разрешённая запись пропадает из следующего скана.
	require.NoError(t, journal.Resolve(ctx, first.ID))
	open, err = worker.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, open)
}

func TestScanRespectsBatchSize(t *testing.T) {
	journal := memory.NewReconciliationJournal()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := journal.Record(ctx, domain.ReconciliationEntry{OrderID: "order-1", Reason: "race"})
		require.NoError(t, err)
	}

	worker := reconcile.NewWorker(journal, reconcile.WithBatchSize(2))

	open, err := worker.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, open)
}
