package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single import or reset transaction.
	DefaultTransactionTimeout = 60 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// MaxRecordBatch caps RecordTransactions input.
	MaxRecordBatch = 1000
)
