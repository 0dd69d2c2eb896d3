package domain

import "time"

// Event types
const (
	EventTypeImportCompleted = "import.completed"
	EventTypeLedgerReset     = "ledger.reset"
)

// AggregateTypeAccount is the aggregate every ledger event belongs to.
const AggregateTypeAccount = "account"

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// ImportCompletedEvent payload
type ImportCompletedEvent struct {
	ImportID   string `json:"import_id"`
	AccountID  string `json:"account_id"`
	Provider   string `json:"provider"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
	Malformed  int    `json:"malformed"`
	Flagged    int    `json:"flagged"`
}

// LedgerResetEvent payload
type LedgerResetEvent struct {
	AccountID string `json:"account_id"`
	Removed   int64  `json:"removed"`
}

// ToPayload flattens the event into the generic outbox payload.
func (e ImportCompletedEvent) ToPayload() map[string]any {
	return map[string]any{
		"import_id":  e.ImportID,
		"account_id": e.AccountID,
		"provider":   e.Provider,
		"imported":   e.Imported,
		"duplicates": e.Duplicates,
		"malformed":  e.Malformed,
		"flagged":    e.Flagged,
	}
}

// ToPayload flattens the event into the generic outbox payload.
func (e LedgerResetEvent) ToPayload() map[string]any {
	return map[string]any{
		"account_id": e.AccountID,
		"removed":    e.Removed,
	}
}
