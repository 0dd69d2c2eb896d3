package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/usecase"
)

// memStore is an in-memory ledger with transactional writes. Appends and
// outbox events become visible only on commit.
type memStore struct {
	mu        sync.Mutex
	accounts  map[string]*domain.Account
	txs       []*domain.Transaction
	imports   []*domain.ImportRecord
	events    []*domain.OutboxEvent
	appendErr error
}

func newMemStore(accounts ...*domain.Account) *memStore {
	s := &memStore{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	return s
}

func activeAccount(id string, provider domain.Provider) *domain.Account {
	return &domain.Account{ID: id, Name: id, Provider: provider, IsActive: true}
}

func (s *memStore) ledger(accountID string) []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range s.txs {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}

type memTx struct {
	store   *memStore
	pending []*domain.Transaction
	events  []*domain.OutboxEvent
	done    bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.txs = append(t.store.txs, t.pending...)
	t.store.events = append(t.store.events, t.events...)
	t.done = true
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.pending, t.events = nil, nil
	return nil
}

type memTxManager struct{ store *memStore }

func (m memTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &memTx{store: m.store}, nil
}

type memAccounts struct{ store *memStore }

func (r memAccounts) Create(ctx context.Context, a *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.accounts[a.ID] = a
	return nil
}

func (r memAccounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memAccounts) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r memAccounts) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Account
	for _, a := range r.store.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (r memAccounts) Update(ctx context.Context, a *domain.Account) error {
	return r.Create(ctx, a)
}

func (r memAccounts) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.accounts, id)
	return nil
}

type memTransactions struct{ store *memStore }

func (r memTransactions) Fingerprints(ctx context.Context, tx usecase.Transaction, accountID string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, t := range r.store.ledger(accountID) {
		set[t.Fingerprint] = struct{}{}
	}
	return set, nil
}

func (r memTransactions) AppendBatch(ctx context.Context, tx usecase.Transaction, txs []*domain.Transaction) (int64, error) {
	if r.store.appendErr != nil {
		return 0, r.store.appendErr
	}
	mt := tx.(*memTx)

	seen := make(map[string]struct{})
	r.store.mu.Lock()
	for _, t := range r.store.txs {
		seen[t.AccountID+"/"+t.Fingerprint] = struct{}{}
	}
	r.store.mu.Unlock()

	for _, t := range txs {
		key := t.AccountID + "/" + t.Fingerprint
		if _, dup := seen[key]; dup {
			return 0, fmt.Errorf("unique violation on %s", key)
		}
		seen[key] = struct{}{}
	}
	mt.pending = append(mt.pending, txs...)
	return int64(len(txs)), nil
}

func (r memTransactions) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.txs {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (r memTransactions) ListByAccount(ctx context.Context, f domain.TransactionFilter) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range r.store.ledger(f.AccountID) {
		if !f.IncludeArchived && t.ArchivedAt != nil {
			continue
		}
		if f.Instrument != "" && t.Instrument != f.Instrument {
			continue
		}
		out = append(out, t)
	}
	// Newest activity first; insertion order breaks ties, latest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ActivityDate.After(out[j].ActivityDate) })
	return page(out, f.Limit, f.Offset), nil
}

func (r memTransactions) Archive(ctx context.Context, id string, at time.Time) error {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t.ArchivedAt = &at
	return nil
}

func (r memTransactions) DeleteByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var kept []*domain.Transaction
	var removed int64
	for _, t := range r.store.txs {
		if t.AccountID == accountID {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	r.store.txs = kept
	return removed, nil
}

type memImports struct{ store *memStore }

func (r memImports) Create(ctx context.Context, rec *domain.ImportRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.imports = append(r.store.imports, rec)
	return nil
}

func (r memImports) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.ImportRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.ImportRecord
	for i := len(r.store.imports) - 1; i >= 0; i-- {
		if r.store.imports[i].AccountID == accountID {
			out = append(out, r.store.imports[i])
		}
	}
	return page(out, limit, offset), nil
}

type memOutbox struct{ store *memStore }

func (r memOutbox) Create(ctx context.Context, tx usecase.Transaction, e *domain.OutboxEvent) error {
	mt := tx.(*memTx)
	mt.events = append(mt.events, e)
	return nil
}

func (r memOutbox) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	return nil, nil
}

func (r memOutbox) MarkPublished(ctx context.Context, id string, at time.Time) error { return nil }

func (r memOutbox) DeletePublished(ctx context.Context, before time.Time) error { return nil }

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%05d", g.n.Add(1))
}

type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *memLocker) Lock(ctx context.Context, accountID string) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
