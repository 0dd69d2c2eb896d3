// Package lock provides the in-process account locker used when no Redis is
// configured. It only serializes imports within one process.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/iho/tradebook/internal/domain"
)

// MemoryLocker implements usecase.AccountLocker with one slot per account.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

// NewMemoryLocker creates a locker that waits at most wait for a busy account.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		slots: make(map[string]chan struct{}),
		wait:  wait,
	}
}

// Lock blocks until the account is free, ctx ends, or the wait runs out with
// domain.ErrImportInProgress. The returned func is safe to call twice.
func (l *MemoryLocker) Lock(ctx context.Context, accountID string) (func(), error) {
	slot := l.slot(accountID)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrImportInProgress
	}
}

func (l *MemoryLocker) slot(accountID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[accountID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[accountID] = slot
	}
	return slot
}
