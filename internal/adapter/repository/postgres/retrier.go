package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// PostgreSQL error codes the ledger write can recover from by starting over.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
	pgErrUniqueViolation      = "23505"

	// Class 08 covers dropped and refused connections.
	pgClassConnection = "08"

	fingerprintConstraint = "uq_transactions_account_fingerprint"
)

// RetryPolicy bounds how often and how long a ledger write is retried.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy suits a batch append holding one account lock.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  10 * time.Second,
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	policy RetryPolicy
	logger zerolog.Logger
}

// NewRetrier creates a Retrier with DefaultRetryPolicy.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return NewRetrierWithPolicy(DefaultRetryPolicy, logger)
}

// NewRetrierWithPolicy creates a Retrier with a custom policy.
func NewRetrierWithPolicy(policy RetryPolicy, logger zerolog.Logger) *Retrier {
	return &Retrier{
		policy: policy,
		logger: logger.With().Str("component", "retrier").Logger(),
	}
}

// Retry runs operation again while it fails with a transient error. Every
// attempt starts a fresh database transaction, so a batch that lost a race
// on the fingerprint index re-reads the ledger and drops the rows that are
// now duplicates.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		reason, ok := retryReason(err)
		if !ok {
			return backoff.Permanent(err)
		}

		attempt++
		if attempt > r.policy.MaxRetries {
			r.logger.Error().Err(err).Int("attempts", attempt).Msg("giving up on ledger write")
			return backoff.Permanent(err)
		}

		r.logger.Warn().Err(err).
			Int("retry", attempt).
			Str("reason", reason).
			Msg("transient database error, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

// retryReason classifies err. Unique violations only count when they hit
// the fingerprint index; any other constraint is a real conflict.
func retryReason(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	switch {
	case pgErr.Code == pgErrDeadlock:
		return "deadlock", true
	case pgErr.Code == pgErrSerializationFailure:
		return "serialization", true
	case pgErr.Code == pgErrLockNotAvailable:
		return "lock_timeout", true
	case pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == fingerprintConstraint:
		return "fingerprint_race", true
	case strings.HasPrefix(pgErr.Code, pgClassConnection):
		return "connection", true
	}
	return "", false
}
