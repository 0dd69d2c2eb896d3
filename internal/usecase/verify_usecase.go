package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/tradebook/internal/domain"
)

// VerifyUseCase checks stored ledgers against the rules they were written under.
type VerifyUseCase struct {
	accountRepo AccountRepository
	txRepo      TransactionRepository
}

// NewVerifyUseCase creates a new verification use case.
func NewVerifyUseCase(accountRepo AccountRepository, txRepo TransactionRepository) *VerifyUseCase {
	return &VerifyUseCase{
		accountRepo: accountRepo,
		txRepo:      txRepo,
	}
}

// VerifyResult is the outcome of checking one account.
type VerifyResult struct {
	AccountID string
	Checked   int
	// FingerprintMismatches lists transactions whose stored fingerprint no
	// longer matches their fields.
	FingerprintMismatches []string
	SignMismatches        int
	IsConsistent          bool
	CheckedAt             time.Time
}

// VerifyAccount recomputes the fingerprint and sign flag of every stored
// transaction of an account, archived ones included.
func (uc *VerifyUseCase) VerifyAccount(ctx context.Context, accountID string) (*VerifyResult, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	result := &VerifyResult{AccountID: accountID}

	const pageSize = 1000
	for offset := 0; ; offset += pageSize {
		page, err := uc.txRepo.ListByAccount(ctx, domain.TransactionFilter{
			AccountID:       accountID,
			IncludeArchived: true,
			Limit:           pageSize,
			Offset:          offset,
		})
		if err != nil {
			return nil, err
		}

		for _, t := range page {
			result.Checked++
			fp := domain.Fingerprint(t.AccountID, t.Instrument, t.ActivityDate, t.TransCode, t.Quantity, t.Amount)
			if fp != t.Fingerprint {
				result.FingerprintMismatches = append(result.FingerprintMismatches, t.ID)
			}
			if !t.SignConsistent() {
				result.SignMismatches++
			}
		}

		if len(page) < pageSize {
			break
		}
	}

	result.IsConsistent = len(result.FingerprintMismatches) == 0
	result.CheckedAt = time.Now().UTC()
	return result, nil
}

// VerifyReport summarizes a run over all accounts.
type VerifyReport struct {
	TotalAccounts      int
	ConsistentAccounts int
	Discrepancies      []*VerifyResult
	CheckedAt          time.Time
}

// VerifyAll checks every account.
func (uc *VerifyUseCase) VerifyAll(ctx context.Context) (*VerifyReport, error) {
	limit, offset := domain.MaxPageSize, 0

	report := &VerifyReport{Discrepancies: make([]*VerifyResult, 0)}
	for {
		accounts, err := uc.accountRepo.List(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.VerifyAccount(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to verify account %s: %w", account.ID, err)
			}
			report.TotalAccounts++
			if result.IsConsistent {
				report.ConsistentAccounts++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(accounts) < limit {
			break
		}
		offset += limit
	}

	report.CheckedAt = time.Now().UTC()
	return report, nil
}
