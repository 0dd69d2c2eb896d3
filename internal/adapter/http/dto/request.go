package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:     r.Name,
		Provider: r.Provider,
	}
}

// UpdateAccountRequest is a partial update; omitted fields stay as they are.
type UpdateAccountRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput(id string) usecase.UpdateAccountInput {
	return usecase.UpdateAccountInput{
		ID:       id,
		Name:     r.Name,
		IsActive: r.IsActive,
	}
}

// OptionRequest describes the contract of an option trade.
type OptionRequest struct {
	Underlying string          `json:"underlying"`
	Type       string          `json:"type"`
	Strike     decimal.Decimal `json:"strike"`
	Expiration string          `json:"expiration"`
}

// TransactionRequest is one transaction submitted outside the CSV path.
// Dates use the YYYY-MM-DD layout.
type TransactionRequest struct {
	ActivityDate string              `json:"activity_date"`
	ProcessDate  *string             `json:"process_date,omitempty"`
	SettleDate   *string             `json:"settle_date,omitempty"`
	Instrument   string              `json:"instrument"`
	Description  string              `json:"description"`
	TransCode    string              `json:"trans_code"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	Price        decimal.NullDecimal `json:"price"`
	Amount       decimal.Decimal     `json:"amount"`
	Option       *OptionRequest      `json:"option,omitempty"`
}

// ToDomain converts the request into an unsealed transaction.
func (r *TransactionRequest) ToDomain() (*domain.Transaction, error) {
	activity, err := parseDate("activity_date", r.ActivityDate)
	if err != nil {
		return nil, err
	}

	t := &domain.Transaction{
		ActivityDate: activity,
		Instrument:   r.Instrument,
		Description:  r.Description,
		TransCode:    r.TransCode,
		Quantity:     r.Quantity,
		Price:        r.Price,
		Amount:       r.Amount,
	}

	if t.ProcessDate, err = parseOptionalDate("process_date", r.ProcessDate); err != nil {
		return nil, err
	}
	if t.SettleDate, err = parseOptionalDate("settle_date", r.SettleDate); err != nil {
		return nil, err
	}

	if r.Option != nil {
		expiration, err := parseDate("option.expiration", r.Option.Expiration)
		if err != nil {
			return nil, err
		}
		optType := domain.OptionType(r.Option.Type)
		if optType != domain.OptionCall && optType != domain.OptionPut {
			return nil, fmt.Errorf("option.type %q: must be call or put", r.Option.Type)
		}
		t.Option = &domain.OptionDetail{
			Underlying: r.Option.Underlying,
			Type:       optType,
			Strike:     r.Option.Strike,
			Expiration: expiration,
		}
	}

	return t, nil
}

// RecordTransactionsRequest carries transactions for POST /accounts/{id}/transactions.
type RecordTransactionsRequest struct {
	Transactions []TransactionRequest `json:"transactions"`
}

// ToDomain converts every item, reporting the first invalid one by index.
func (r *RecordTransactionsRequest) ToDomain() ([]*domain.Transaction, error) {
	txs := make([]*domain.Transaction, 0, len(r.Transactions))
	for i := range r.Transactions {
		t, err := r.Transactions[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q: %w", field, value, domain.ErrInvalidDate)
	}
	return d, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
