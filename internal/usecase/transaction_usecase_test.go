package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/usecase"
	"github.com/iho/tradebook/internal/usecase/mocks"
)

type txMocks struct {
	txManager *mocks.MockTransactionManager
	tx        *mocks.MockTransaction
	accounts  *mocks.MockAccountRepository
	txRepo    *mocks.MockTransactionRepository
	outbox    *mocks.MockOutboxRepository
	locker    *mocks.MockAccountLocker
	retrier   *mocks.MockRetrier
	idGen     *mocks.MockIDGenerator
}

func newTransactionUseCase(t *testing.T) (*usecase.TransactionUseCase, *txMocks) {
	ctrl := gomock.NewController(t)
	m := &txMocks{
		txManager: mocks.NewMockTransactionManager(ctrl),
		tx:        mocks.NewMockTransaction(ctrl),
		accounts:  mocks.NewMockAccountRepository(ctrl),
		txRepo:    mocks.NewMockTransactionRepository(ctrl),
		outbox:    mocks.NewMockOutboxRepository(ctrl),
		locker:    mocks.NewMockAccountLocker(ctrl),
		retrier:   mocks.NewMockRetrier(ctrl),
		idGen:     mocks.NewMockIDGenerator(ctrl),
	}
	uc := usecase.NewTransactionUseCase(m.txManager, m.accounts, m.txRepo, m.outbox, m.locker, m.retrier, m.idGen)
	return uc, m
}

func (m *txMocks) expectLockedTx(accountID string) {
	m.locker.EXPECT().Lock(gomock.Any(), accountID).Return(func() {}, nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	m.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, accountID).Return(&domain.Account{ID: accountID, IsActive: true}, nil)
}

func TestTransactionUseCase_ListTransactions(t *testing.T) {
	uc, m := newTransactionUseCase(t)

	m.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
	m.txRepo.EXPECT().ListByAccount(gomock.Any(), domain.TransactionFilter{
		AccountID:  "acc-1",
		Instrument: "AAPL",
		Limit:      50,
		Offset:     0,
	}).Return([]*domain.Transaction{{ID: "t-1"}}, nil)

	txs, err := uc.ListTransactions(context.Background(), domain.TransactionFilter{AccountID: "acc-1", Instrument: " aapl ", Offset: -3})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestTransactionUseCase_ListTransactions_UnknownAccount(t *testing.T) {
	uc, m := newTransactionUseCase(t)
	m.accounts.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, domain.ErrAccountNotFound)

	_, err := uc.ListTransactions(context.Background(), domain.TransactionFilter{AccountID: "missing"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestTransactionUseCase_ArchiveTransaction(t *testing.T) {
	uc, m := newTransactionUseCase(t)

	m.txRepo.EXPECT().GetByID(gomock.Any(), "t-1").Return(&domain.Transaction{ID: "t-1"}, nil)
	m.txRepo.EXPECT().Archive(gomock.Any(), "t-1", gomock.Any()).Return(nil)

	got, err := uc.ArchiveTransaction(context.Background(), "t-1")
	require.NoError(t, err)
	require.NotNil(t, got.ArchivedAt)
}

func TestTransactionUseCase_ArchiveTransaction_AlreadyArchived(t *testing.T) {
	uc, m := newTransactionUseCase(t)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.txRepo.EXPECT().GetByID(gomock.Any(), "t-1").Return(&domain.Transaction{ID: "t-1", ArchivedAt: &at}, nil)

	got, err := uc.ArchiveTransaction(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, at, *got.ArchivedAt)
}

func TestTransactionUseCase_ResetLedger(t *testing.T) {
	uc, m := newTransactionUseCase(t)

	m.expectLockedTx("acc-1")
	m.txRepo.EXPECT().DeleteByAccount(gomock.Any(), m.tx, "acc-1").Return(int64(5), nil)
	m.idGen.EXPECT().Generate().Return("evt-1")
	m.outbox.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, e *domain.OutboxEvent) error {
			assert.Equal(t, domain.EventTypeLedgerReset, e.EventType)
			assert.Equal(t, int64(5), e.Payload["removed"])
			return nil
		})
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	removed, err := uc.ResetLedger(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)
}

func TestTransactionUseCase_ResetLedger_Busy(t *testing.T) {
	uc, m := newTransactionUseCase(t)
	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(nil, domain.ErrImportInProgress)

	_, err := uc.ResetLedger(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrImportInProgress)
}

func TestTransactionUseCase_ResetLedger_DeleteFails(t *testing.T) {
	uc, m := newTransactionUseCase(t)

	m.expectLockedTx("acc-1")
	m.txRepo.EXPECT().DeleteByAccount(gomock.Any(), m.tx, "acc-1").Return(int64(0), errors.New("connection reset"))

	_, err := uc.ResetLedger(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestTransactionUseCase_RecordTransactions(t *testing.T) {
	uc, m := newTransactionUseCase(t)

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	stored := domain.Fingerprint("acc-1", "AAPL", day, "BUY", decimal.NewNullDecimal(decimal.NewFromInt(1)), decimal.NewFromInt(-100))

	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(func() {}, nil)
	m.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").Return(&domain.Account{ID: "acc-1", IsActive: true}, nil)
	m.idGen.EXPECT().Generate().Return("t-x").AnyTimes()
	m.retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, op func() error) error { return op() })
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
	m.accounts.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "acc-1").Return(&domain.Account{ID: "acc-1"}, nil)
	m.txRepo.EXPECT().Fingerprints(gomock.Any(), m.tx, "acc-1").Return(map[string]struct{}{stored: {}}, nil)
	m.txRepo.EXPECT().AppendBatch(gomock.Any(), m.tx, gomock.Len(1)).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, txs []*domain.Transaction) (int64, error) {
			assert.Equal(t, "MSFT", txs[0].Instrument)
			assert.Equal(t, domain.ImportSourceAPI, txs[0].Source)
			return 1, nil
		})
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)

	result, err := uc.RecordTransactions(context.Background(), "acc-1", []*domain.Transaction{
		{ActivityDate: day, Instrument: "aapl", TransCode: "buy", Quantity: decimal.NewNullDecimal(decimal.RequireFromString("1.0")), Amount: decimal.RequireFromString("-100.00")},
		{ActivityDate: day, Instrument: "msft", TransCode: "sell", Amount: decimal.NewFromInt(-5)},
	})
	require.NoError(t, err)
	assert.Len(t, result.Recorded, 1)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.SignWarnings)
}

func TestTransactionUseCase_RecordTransactions_Invalid(t *testing.T) {
	uc, _ := newTransactionUseCase(t)

	_, err := uc.RecordTransactions(context.Background(), "acc-1", []*domain.Transaction{{Instrument: "AAPL", TransCode: "BUY"}})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	big := make([]*domain.Transaction, usecase.MaxRecordBatch+1)
	_, err = uc.RecordTransactions(context.Background(), "acc-1", big)
	assert.ErrorIs(t, err, domain.ErrBatchTooLarge)
}
