package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acme/orders/internal/domain"
)

// reconciliationJournalInMemory — in-memory журнал осиротевших транзакций.
type reconciliationJournalInMemory struct {
	mu      sync.RWMutex
	entries map[string]domain.ReconciliationEntry
}

// NewReconciliationJournal создаёт in-memory реализацию журнала сверки.
func NewReconciliationJournal() domain.ReconciliationJournal {
	return &reconciliationJournalInMemory{
		entries: make(map[string]domain.ReconciliationEntry),
	}
}

// Record сохраняет запись и присваивает ей идентификатор и время создания.
func (j *reconciliationJournalInMemory) Record(_ context.Context, entry domain.ReconciliationEntry) (domain.ReconciliationEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	j.entries[entry.ID] = entry
	return entry, nil
}

// ListOpen возвращает до limit нерешённых записей, старые первыми.
func (j *reconciliationJournalInMemory) ListOpen(_ context.Context, limit int) ([]domain.ReconciliationEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	open := make([]domain.ReconciliationEntry, 0, len(j.entries))
	for _, entry := range j.entries {
		if entry.Open() {
			open = append(open, entry)
		}
	}

	sort.Slice(open, func(i, k int) bool {
		if !open[i].CreatedAt.Equal(open[k].CreatedAt) {
			return open[i].CreatedAt.Before(open[k].CreatedAt)
		}
		return open[i].ID < open[k].ID
	})

	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

// Resolve помечает запись как сверенную оператором.
func (j *reconciliationJournalInMemory) Resolve(_ context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.entries[id]
	if !ok {
		return domain.ErrJournalEntryNotFound
	}
	entry.ResolvedAt = time.Now().UTC()
	j.entries[id] = entry
	return nil
}

var _ domain.ReconciliationJournal = (*reconciliationJournalInMemory)(nil)
