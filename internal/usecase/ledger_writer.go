package usecase

import (
	"context"
	"fmt"

	"github.com/iho/tradebook/internal/domain"
)

type batchResult struct {
	accepted   []*domain.Transaction
	duplicates int
}

// flagged counts accepted rows whose amount sign contradicts their code.
func (r batchResult) flagged() int {
	n := 0
	for _, t := range r.accepted {
		if t.SignMismatch {
			n++
		}
	}
	return n
}

// ledgerWriter is the append path shared by CSV imports and API submissions.
type ledgerWriter struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	retrier     Retrier
}

// write drops duplicates of candidates and appends the rest in one database
// transaction. The account row is locked before the fingerprints are read.
// event, when set, builds an outbox event committed with the batch.
func (w *ledgerWriter) write(
	ctx context.Context,
	accountID string,
	candidates []*domain.Transaction,
	event func(batchResult) *domain.OutboxEvent,
) (batchResult, error) {
	if w.retrier == nil {
		return w.writeOnce(ctx, accountID, candidates, event)
	}

	var res batchResult
	err := w.retrier.Retry(ctx, func() error {
		r, err := w.writeOnce(ctx, accountID, candidates, event)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

func (w *ledgerWriter) writeOnce(
	ctx context.Context,
	accountID string,
	candidates []*domain.Transaction,
	event func(batchResult) *domain.OutboxEvent,
) (batchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := w.txManager.Begin(ctx)
	if err != nil {
		return batchResult{}, storageErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := w.accountRepo.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return batchResult{}, err
	}

	existing, err := w.txRepo.Fingerprints(ctx, tx, accountID)
	if err != nil {
		return batchResult{}, storageErr("load fingerprints", err)
	}

	dedup := NewDeduplicator(existing)
	var res batchResult
	for _, t := range candidates {
		if err := ctx.Err(); err != nil {
			return batchResult{}, err
		}
		if dedup.Check(t.Fingerprint) == VerdictDuplicate {
			res.duplicates++
			continue
		}
		res.accepted = append(res.accepted, t)
	}

	if len(res.accepted) > 0 {
		if _, err := w.txRepo.AppendBatch(ctx, tx, res.accepted); err != nil {
			return batchResult{}, storageErr("append batch", err)
		}
	}

	if event != nil {
		if ev := event(res); ev != nil {
			if err := w.outboxRepo.Create(ctx, tx, ev); err != nil {
				return batchResult{}, storageErr("write outbox event", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return batchResult{}, storageErr("commit", err)
	}

	return res, nil
}

// storageErr tags err as a storage failure and keeps the cause reachable for
// retry classification.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageFailure, op, err)
}
