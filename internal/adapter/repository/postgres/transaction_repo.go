package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/infrastructure/postgres/generated"
	"github.com/iho/tradebook/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Fingerprints loads the account's fingerprint set, archived lines included.
func (r *TransactionRepository) Fingerprints(ctx context.Context, tx usecase.Transaction, accountID string) (map[string]struct{}, error) {
	fps, err := queriesFor(tx).ListFingerprintsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(fps))
	for _, fp := range fps {
		set[fp] = struct{}{}
	}
	return set, nil
}

// AppendBatch copies txs in one COPY statement. The unique index on
// (account_id, fingerprint) fails the whole statement on a collision.
func (r *TransactionRepository) AppendBatch(ctx context.Context, tx usecase.Transaction, txs []*domain.Transaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	params := make([]generated.CopyTransactionsParams, 0, len(txs))
	for _, t := range txs {
		p := generated.CopyTransactionsParams{
			ID:           t.ID,
			AccountID:    t.AccountID,
			ImportID:     textOrNull(t.ImportID),
			ActivityDate: dateToPg(t.ActivityDate),
			ProcessDate:  datePtrToPg(t.ProcessDate),
			SettleDate:   datePtrToPg(t.SettleDate),
			Instrument:   t.Instrument,
			Description:  t.Description,
			TransCode:    t.TransCode,
			Quantity:     nullDecimalToNumeric(t.Quantity),
			Price:        nullDecimalToNumeric(t.Price),
			Amount:       decimalToNumeric(t.Amount),
			Source:       string(t.Source),
			Fingerprint:  t.Fingerprint,
			SignMismatch: t.SignMismatch,
			CreatedAt:    timeToPgTimestamptz(t.CreatedAt),
		}
		if t.Option != nil {
			p.OptionUnderlying = textOrNull(t.Option.Underlying)
			p.OptionType = textOrNull(string(t.Option.Type))
			p.OptionStrike = decimalToNumeric(t.Option.Strike)
			p.OptionExpiration = dateToPg(t.Option.Expiration)
		}
		params = append(params, p)
	}

	return queriesFor(tx).CopyTransactions(ctx, params)
}

// GetByID retrieves one ledger line.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return rowToTransaction(row), nil
}

// ListByAccount lists ledger lines, newest activity first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, generated.ListTransactionsByAccountParams{
		AccountID:       filter.AccountID,
		Instrument:      filter.Instrument,
		FromDate:        datePtrToPg(filter.From),
		ToDate:          datePtrToPg(filter.To),
		IncludeArchived: filter.IncludeArchived,
		RowLimit:        int32(filter.Limit),
		RowOffset:       int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToTransaction(row))
	}
	return txs, nil
}

// Archive stamps archived_at unless the line is archived already.
func (r *TransactionRepository) Archive(ctx context.Context, id string, archivedAt time.Time) error {
	_, err := r.queries.ArchiveTransaction(ctx, generated.ArchiveTransactionParams{
		ID:         id,
		ArchivedAt: timeToPgTimestamptz(archivedAt),
	})
	return err
}

// DeleteByAccount removes all of an account's lines inside tx.
func (r *TransactionRepository) DeleteByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	return queriesFor(tx).DeleteTransactionsByAccount(ctx, accountID)
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	t := &domain.Transaction{
		ID:           row.ID,
		AccountID:    row.AccountID,
		ImportID:     row.ImportID.String,
		ActivityDate: pgToDate(row.ActivityDate),
		ProcessDate:  pgToDatePtr(row.ProcessDate),
		SettleDate:   pgToDatePtr(row.SettleDate),
		Instrument:   row.Instrument,
		Description:  row.Description,
		TransCode:    row.TransCode,
		Quantity:     numericToNullDecimal(row.Quantity),
		Price:        numericToNullDecimal(row.Price),
		Amount:       numericToDecimal(row.Amount),
		Source:       domain.ImportSource(row.Source),
		Fingerprint:  row.Fingerprint,
		SignMismatch: row.SignMismatch,
		ArchivedAt:   timestamptzToPtr(row.ArchivedAt),
		CreatedAt:    row.CreatedAt.Time,
	}
	if row.OptionUnderlying.Valid {
		t.Option = &domain.OptionDetail{
			Underlying: row.OptionUnderlying.String,
			Type:       domain.OptionType(row.OptionType.String),
			Strike:     numericToDecimal(row.OptionStrike),
			Expiration: pgToDate(row.OptionExpiration),
		}
	}
	return t
}

