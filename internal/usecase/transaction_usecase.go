package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iho/tradebook/internal/domain"
)

// TransactionUseCase serves reads and maintenance of an account's ledger.
type TransactionUseCase struct {
	writer      *ledgerWriter
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	locker      AccountLocker
	idGen       IDGenerator
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	locker AccountLocker,
	retrier Retrier,
	idGen IDGenerator,
) *TransactionUseCase {
	return &TransactionUseCase{
		writer: &ledgerWriter{
			txManager:   txManager,
			accountRepo: accountRepo,
			txRepo:      txRepo,
			outboxRepo:  outboxRepo,
			retrier:     retrier,
		},
		txManager:   txManager,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		locker:      locker,
		idGen:       idGen,
	}
}

// ListTransactions returns an account's ledger, newest activity first.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if _, err := uc.accountRepo.GetByID(ctx, filter.AccountID); err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset, domain.MaxPageSize)
	filter.Instrument = strings.ToUpper(strings.TrimSpace(filter.Instrument))

	return uc.txRepo.ListByAccount(ctx, filter)
}

// GetTransaction retrieves one ledger line.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ArchiveTransaction soft deletes a ledger line. Archived lines keep their
// fingerprint, so re-importing the same row stays a duplicate.
func (uc *TransactionUseCase) ArchiveTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.ArchivedAt != nil {
		return t, nil
	}

	now := time.Now().UTC()
	if err := uc.txRepo.Archive(ctx, id, now); err != nil {
		return nil, err
	}
	t.ArchivedAt = &now

	return t, nil
}

// ResetLedger deletes every transaction of an account.
func (uc *TransactionUseCase) ResetLedger(ctx context.Context, accountID string) (int64, error) {
	unlock, err := uc.locker.Lock(ctx, accountID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return 0, storageErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return 0, err
	}

	removed, err := uc.txRepo.DeleteByAccount(ctx, tx, accountID)
	if err != nil {
		return 0, storageErr("delete transactions", err)
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   accountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeLedgerReset,
		Payload:       domain.LedgerResetEvent{AccountID: accountID, Removed: removed}.ToPayload(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return 0, storageErr("write outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storageErr("commit", err)
	}

	return removed, nil
}

// RecordResult is the outcome of RecordTransactions.
type RecordResult struct {
	Recorded     []*domain.Transaction
	Duplicates   int
	SignWarnings int
}

// RecordTransactions appends transactions produced outside the CSV path,
// such as a broker API sync. They go through the same duplicate check.
func (uc *TransactionUseCase) RecordTransactions(ctx context.Context, accountID string, txs []*domain.Transaction) (*RecordResult, error) {
	if len(txs) == 0 {
		return &RecordResult{}, nil
	}
	if len(txs) > MaxRecordBatch {
		return nil, fmt.Errorf("%w: at most %d", domain.ErrBatchTooLarge, MaxRecordBatch)
	}

	for i, t := range txs {
		if err := domain.ValidateTransaction(t); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	unlock, err := uc.locker.Lock(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.AcceptsImports(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &RecordResult{}
	for _, t := range txs {
		t.ID = uc.idGen.Generate()
		t.AccountID = accountID
		t.ImportID = ""
		t.Source = domain.ImportSourceAPI
		t.Instrument = strings.ToUpper(strings.TrimSpace(t.Instrument))
		t.TransCode = domain.NormalizeTransCode(t.TransCode)
		t.ArchivedAt = nil
		t.CreatedAt = now
		t.Seal()
	}

	res, err := uc.writer.write(ctx, accountID, txs, nil)
	if err != nil {
		return nil, err
	}

	result.Recorded = res.accepted
	result.Duplicates = res.duplicates
	result.SignWarnings = res.flagged()
	return result, nil
}

// ExportTransactions writes an account's full ledger through write, oldest first.
func (uc *TransactionUseCase) ExportTransactions(
	ctx context.Context,
	accountID string,
	w io.Writer,
	write func(io.Writer, []*domain.Transaction) error,
) (int, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return 0, err
	}

	const pageSize = 1000
	var all []*domain.Transaction
	for offset := 0; ; offset += pageSize {
		page, err := uc.txRepo.ListByAccount(ctx, domain.TransactionFilter{
			AccountID: accountID,
			Limit:     pageSize,
			Offset:    offset,
		})
		if err != nil {
			return 0, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}

	if err := write(w, all); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(all), nil
}
