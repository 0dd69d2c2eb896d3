package usecase

import (
	"context"
	"io"
	"time"

	"github.com/iho/tradebook/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id string) error
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	// Fingerprints returns every fingerprint stored for the account.
	Fingerprints(ctx context.Context, tx Transaction, accountID string) (map[string]struct{}, error)
	// AppendBatch inserts all transactions or none.
	AppendBatch(ctx context.Context, tx Transaction, txs []*domain.Transaction) (int64, error)
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	Archive(ctx context.Context, id string, archivedAt time.Time) error
	DeleteByAccount(ctx context.Context, tx Transaction, accountID string) (int64, error)
}

// ImportRecordRepository defines data access for import history.
type ImportRecordRepository interface {
	Create(ctx context.Context, record *domain.ImportRecord) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.ImportRecord, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs operation while it fails with a transient storage error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// AccountLocker serializes imports per account.
type AccountLocker interface {
	// Lock blocks until the account is free or ctx ends. The returned func releases it.
	Lock(ctx context.Context, accountID string) (unlock func(), err error)
}

// Provider turns raw rows of one broker's export into transactions.
type Provider interface {
	Name() domain.Provider
	Schema() domain.CSVSchema
	Normalize(row domain.RawRow) (*domain.Transaction, error)
}

// ProviderRegistry looks providers up by name.
type ProviderRegistry interface {
	Resolve(name domain.Provider, mapping *domain.ColumnMapping) (Provider, error)
}

// RowDecoder opens a CSV stream against a header schema.
type RowDecoder interface {
	Open(r io.Reader, schema domain.CSVSchema) (domain.RowReader, error)
}

// Archiver stores raw uploads.
type Archiver interface {
	Archive(ctx context.Context, key string, r io.Reader) (uri string, err error)
}

// ImportRecorder receives import outcomes for monitoring.
type ImportRecorder interface {
	RecordImport(provider string, status domain.ImportStatus, summary *domain.ImportSummary, duration time.Duration)
}
