package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acme/orders/internal/domain"
	"github.com/acme/orders/internal/storage/memory"
)

func TestJournalRecordAssignsIDAndTimestamp(t *testing.T) {
	journal := memory.NewReconciliationJournal()
	ctx := context.Background()

	entry, err := journal.Record(ctx, domain.ReconciliationEntry{
		OrderID:       "order-1",
		TransactionID: "tx-1",
		Reason:        "completion lost transition race",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected record to assign an id")
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected record to assign created_at")
	}
	if !entry.Open() {
		t.Fatal("fresh entry must be open")
	}
}

func TestJournalListOpenOrdered(t *testing.T) {
	journal := memory.NewReconciliationJournal()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := journal.Record(ctx, domain.ReconciliationEntry{
			OrderID:   "order-1",
			Reason:    "payment outcome ambiguous",
			CreatedAt: base.Add(time.Duration(2-i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	open, err := journal.ListOpen(ctx, 10)
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("expected 3 open entries, got %d", len(open))
	}
	for i := 1; i < len(open); i++ {
		if open[i].CreatedAt.Before(open[i-1].CreatedAt) {
			t.Fatal("open entries are not ordered oldest first")
		}
	}

	limited, err := journal.ListOpen(ctx, 2)
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d entries", len(limited))
	}
}

func TestJournalResolve(t *testing.T) {
	journal := memory.NewReconciliationJournal()
	ctx := context.Background()

	entry, err := journal.Record(ctx, domain.ReconciliationEntry{OrderID: "order-1", Reason: "race"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	if err := journal.Resolve(ctx, entry.ID); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	open, err := journal.ListOpen(ctx, 10)
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open entries after resolve, got %d", len(open))
	}

	if err := journal.Resolve(ctx, "missing"); !errors.Is(err, domain.ErrJournalEntryNotFound) {
		t.Fatalf("expected ErrJournalEntryNotFound, got %v", err)
	}
}
