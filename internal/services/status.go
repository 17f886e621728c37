package services

import (
	"context"
	"sync"

	"ordersync/internal/repository"
)

// Ledger owns the refresh-status record. One writer stream (the refresh
// goroutine) updates it while status-polling callers read it; the mutex
// plus the copied snapshot guarantee polls never see a torn update.
// Writes go through to the persistent cache_status table.
type Ledger struct {
	repo repository.StatusRepository

	mu     sync.RWMutex
	values map[string]string
}

// NewLedger loads whatever the previous process left in the status table.
func NewLedger(ctx context.Context, repo repository.StatusRepository) (*Ledger, error) {
	values, err := repo.All(ctx)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = map[string]string{}
	}
	return &Ledger{repo: repo, values: values}, nil
}

func (l *Ledger) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.repo.Set(ctx, values); err != nil {
		return err
	}
	for k, v := range values {
		l.values[k] = v
	}
	return nil
}

func (l *Ledger) Get(key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.values[key]
}

// Snapshot returns a consistent copy of the whole record.
func (l *Ledger) Snapshot() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}
