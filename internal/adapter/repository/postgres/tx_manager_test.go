package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/tradebook/internal/domain"
)

var outboxColumns = []string{"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published"}

func TestTxManagerCommitsOutboxEventWithBatch(t *testing.T) {
	mockPool := newMockPool(t)
	expectLedgerTx(mockPool)
	mockPool.ExpectExec("INSERT INTO outbox_events").
		WithArgs("evt-1", "acc-1", domain.AggregateTypeAccount, domain.EventTypeImportCompleted,
			pgxmock.AnyArg(), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	repo := newOutboxRepository(mockPool)
	err = repo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "acc-1",
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeImportCompleted,
		Payload:       map[string]any{"import_id": "imp-1"},
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	assertExpectations(t, mockPool)
}

func TestTxManagerBeginError(t *testing.T) {
	mockPool := newMockPool(t)
	mockErr := errors.New("too many connections")
	expectLedgerTx(mockPool).WillReturnError(mockErr)

	tx, err := newTxManagerWithPool(mockPool).Begin(context.Background())
	if !errors.Is(err, mockErr) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
}

func TestTxManagerSetsLockTimeout(t *testing.T) {
	mockPool := newMockPool(t)
	expectLedgerTx(mockPool)
	mockPool.ExpectExec("SET LOCAL lock_timeout = '250ms'").
		WillReturnResult(pgxmock.NewResult("SET", 0))
	mockPool.ExpectRollback()

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mockPool, WithLockTimeout(250*time.Millisecond)).Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	assertExpectations(t, mockPool)
}

func TestTxManagerLockTimeoutFailureRollsBack(t *testing.T) {
	mockPool := newMockPool(t)
	expectLedgerTx(mockPool)
	mockPool.ExpectExec("SET LOCAL lock_timeout").WillReturnError(errors.New("conn reset"))
	mockPool.ExpectRollback()

	if _, err := newTxManagerWithPool(mockPool, WithLockTimeout(time.Second)).Begin(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	assertExpectations(t, mockPool)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	mockPool := newMockPool(t)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mockPool.ExpectQuery("FROM outbox_events WHERE NOT published").
		WithArgs(int32(10)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("evt-1", "acc-1", "account", "import.completed", []byte(`{"import_id":"imp-1","imported":2}`), created, nil, false))

	events, err := newOutboxRepository(mockPool).GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.Payload["import_id"] != "imp-1" || event.Payload["imported"] != 2.0 {
		t.Fatalf("unexpected payload %v", event.Payload)
	}
	if event.PublishedAt != nil || event.Published {
		t.Fatalf("expected pending event, got %+v", event)
	}
	assertExpectations(t, mockPool)
}

func TestOutboxRepositoryGetUnpublishedCorruptPayload(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("FROM outbox_events WHERE NOT published").
		WithArgs(int32(5)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("evt-bad", "acc-1", "account", "ledger.reset", []byte(`{not json`), time.Now(), nil, false))

	if _, err := newOutboxRepository(mockPool).GetUnpublished(context.Background(), 5); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestOutboxRepositoryCountUnpublished(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := newOutboxRepository(mockPool).CountUnpublished(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected backlog of 3, got %d", n)
	}
	assertExpectations(t, mockPool)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// expectLedgerTx expects the transaction options every ledger write uses.
func expectLedgerTx(mockPool pgxmock.PgxPoolIface) *pgxmock.ExpectedBegin {
	return mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}
