package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Provider:  string(a.Provider),
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// OptionResponse describes an option contract.
type OptionResponse struct {
	Underlying string          `json:"underlying"`
	Type       string          `json:"type"`
	Strike     decimal.Decimal `json:"strike"`
	Expiration string          `json:"expiration"`
}

// TransactionResponse represents a ledger line in API responses.
type TransactionResponse struct {
	ID           string              `json:"id"`
	AccountID    string              `json:"account_id"`
	ImportID     string              `json:"import_id,omitempty"`
	ActivityDate string              `json:"activity_date"`
	ProcessDate  *string             `json:"process_date,omitempty"`
	SettleDate   *string             `json:"settle_date,omitempty"`
	Instrument   string              `json:"instrument"`
	Description  string              `json:"description"`
	TransCode    string              `json:"trans_code"`
	Kind         string              `json:"kind"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	Price        decimal.NullDecimal `json:"price"`
	Amount       decimal.Decimal     `json:"amount"`
	Source       string              `json:"source"`
	Fingerprint  string              `json:"fingerprint"`
	SignMismatch bool                `json:"sign_mismatch"`
	Option       *OptionResponse     `json:"option,omitempty"`
	ArchivedAt   *time.Time          `json:"archived_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:           t.ID,
		AccountID:    t.AccountID,
		ImportID:     t.ImportID,
		ActivityDate: t.ActivityDate.Format(domain.DateLayout),
		ProcessDate:  formatDate(t.ProcessDate),
		SettleDate:   formatDate(t.SettleDate),
		Instrument:   t.Instrument,
		Description:  t.Description,
		TransCode:    t.TransCode,
		Kind:         string(t.Kind()),
		Quantity:     t.Quantity,
		Price:        t.Price,
		Amount:       t.Amount,
		Source:       string(t.Source),
		Fingerprint:  t.Fingerprint,
		SignMismatch: t.SignMismatch,
		ArchivedAt:   t.ArchivedAt,
		CreatedAt:    t.CreatedAt,
	}
	if t.Option != nil {
		resp.Option = &OptionResponse{
			Underlying: t.Option.Underlying,
			Type:       string(t.Option.Type),
			Strike:     t.Option.Strike,
			Expiration: t.Option.Expiration.Format(domain.DateLayout),
		}
	}
	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse represents a page of ledger lines.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// RecordTransactionsResponse reports the outcome of a record request.
type RecordTransactionsResponse struct {
	Recorded     []*TransactionResponse `json:"recorded"`
	Duplicates   int                    `json:"duplicates"`
	SignWarnings int                    `json:"sign_warnings"`
}

// RecordResultFromUseCase converts a use case result to response.
func RecordResultFromUseCase(r *usecase.RecordResult) *RecordTransactionsResponse {
	return &RecordTransactionsResponse{
		Recorded:     TransactionsFromDomain(r.Recorded),
		Duplicates:   r.Duplicates,
		SignWarnings: r.SignWarnings,
	}
}

// ResetLedgerResponse reports how many lines a reset removed.
type ResetLedgerResponse struct {
	AccountID string `json:"account_id"`
	Deleted   int64  `json:"deleted"`
}

// RowIssueResponse points at one problem row of an upload.
type RowIssueResponse struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Raw    string `json:"raw,omitempty"`
}

// ImportSummaryResponse is the outcome of an upload. Error is set when the
// batch as a whole failed and nothing was written.
type ImportSummaryResponse struct {
	ImportID   string             `json:"import_id"`
	AccountID  string             `json:"account_id"`
	Provider   string             `json:"provider"`
	Processed  int                `json:"processed"`
	Imported   int                `json:"imported"`
	Duplicates int                `json:"duplicates"`
	Malformed  int                `json:"malformed"`
	Flagged    int                `json:"flagged"`
	Skipped    int                `json:"skipped"`
	Errors     []RowIssueResponse `json:"errors"`
	Warnings   []RowIssueResponse `json:"warnings"`
	Error      string             `json:"error,omitempty"`
}

// ImportSummaryFromDomain converts a summary to response. errMessage is the
// client-safe reason a failed import stopped, empty on success.
func ImportSummaryFromDomain(s *domain.ImportSummary, errMessage string) *ImportSummaryResponse {
	resp := &ImportSummaryResponse{
		ImportID:   s.ImportID,
		AccountID:  s.AccountID,
		Provider:   string(s.Provider),
		Processed:  s.Processed,
		Imported:   s.Imported,
		Duplicates: s.Duplicates,
		Malformed:  s.Malformed,
		Flagged:    s.Flagged,
		Skipped:    s.Skipped,
		Errors:     rowIssues(s.Errors),
		Warnings:   rowIssues(s.Warnings),
		Error:      errMessage,
	}
	return resp
}

func rowIssues(issues []domain.RowIssue) []RowIssueResponse {
	result := make([]RowIssueResponse, len(issues))
	for i, issue := range issues {
		result[i] = RowIssueResponse{Line: issue.Line, Reason: issue.Reason, Raw: issue.Raw}
	}
	return result
}

// ImportRecordResponse represents one entry of an account's import history.
type ImportRecordResponse struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	Provider     string    `json:"provider"`
	Filename     string    `json:"filename"`
	FileSize     int64     `json:"file_size"`
	Status       string    `json:"status"`
	Processed    int       `json:"processed"`
	Imported     int       `json:"imported"`
	Duplicates   int       `json:"duplicates"`
	Malformed    int       `json:"malformed"`
	Flagged      int       `json:"flagged"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ArchiveURI   string    `json:"archive_uri,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
}

// ImportRecordsFromDomain converts history entries to responses.
func ImportRecordsFromDomain(records []*domain.ImportRecord) []*ImportRecordResponse {
	result := make([]*ImportRecordResponse, len(records))
	for i, r := range records {
		result[i] = &ImportRecordResponse{
			ID:           r.ID,
			AccountID:    r.AccountID,
			Provider:     string(r.Provider),
			Filename:     r.Filename,
			FileSize:     r.FileSize,
			Status:       string(r.Status),
			Processed:    r.Processed,
			Imported:     r.Imported,
			Duplicates:   r.Duplicates,
			Malformed:    r.Malformed,
			Flagged:      r.Flagged,
			ErrorMessage: r.ErrorMessage,
			ArchiveURI:   r.ArchiveURI,
			StartedAt:    r.StartedAt,
			CompletedAt:  r.CompletedAt,
		}
	}
	return result
}

// ListImportsResponse represents an account's import history page.
type ListImportsResponse struct {
	Imports []*ImportRecordResponse `json:"imports"`
	Total   int64                   `json:"total"`
}

// VerifyResponse reports a ledger consistency check.
type VerifyResponse struct {
	AccountID             string    `json:"account_id"`
	Checked               int       `json:"checked"`
	FingerprintMismatches []string  `json:"fingerprint_mismatches"`
	SignMismatches        int       `json:"sign_mismatches"`
	IsConsistent          bool      `json:"is_consistent"`
	CheckedAt             time.Time `json:"checked_at"`
}

// VerifyFromUseCase converts a verification result to response.
func VerifyFromUseCase(r *usecase.VerifyResult) *VerifyResponse {
	mismatches := r.FingerprintMismatches
	if mismatches == nil {
		mismatches = []string{}
	}
	return &VerifyResponse{
		AccountID:             r.AccountID,
		Checked:               r.Checked,
		FingerprintMismatches: mismatches,
		SignMismatches:        r.SignMismatches,
		IsConsistent:          r.IsConsistent,
		CheckedAt:             r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateLayout)
	return &s
}
