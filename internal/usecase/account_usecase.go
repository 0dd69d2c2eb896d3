package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/iho/tradebook/internal/domain"
)

// Accounts are few; a smaller page keeps the CLI listing readable.
const (
	defaultAccountPage = 20
	maxAccountPage     = 100
)

// AccountUseCase manages the accounts that imports are attached to.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
}

func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

type CreateAccountInput struct {
	Name     string
	Provider string
}

// CreateAccount registers an active account for one broker export format.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	provider, err := domain.ParseProvider(input.Provider)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Name:      strings.TrimSpace(input.Name),
		Provider:  provider,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts pages through accounts in creation order.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = defaultAccountPage
	}
	limit, offset := domain.NormalizePage(input.Limit, input.Offset, maxAccountPage)
	return uc.accountRepo.List(ctx, limit, offset)
}

// UpdateAccountInput carries the mutable fields; nil leaves a field unchanged.
type UpdateAccountInput struct {
	ID       string
	Name     *string
	IsActive *bool
}

// UpdateAccount renames or (de)activates an account. A request that changes
// nothing returns the stored account without writing.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, input UpdateAccountInput) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.Name != nil {
		if err := domain.ValidateAccountName(*input.Name); err != nil {
			return nil, err
		}
		if name := strings.TrimSpace(*input.Name); name != account.Name {
			account.Name = name
			changed = true
		}
	}
	if input.IsActive != nil && *input.IsActive != account.IsActive {
		account.IsActive = *input.IsActive
		changed = true
	}
	if !changed {
		return account, nil
	}

	account.UpdatedAt = time.Now().UTC()
	if err := uc.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account together with its ledger and history.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id string) error {
	return uc.accountRepo.Delete(ctx, id)
}
