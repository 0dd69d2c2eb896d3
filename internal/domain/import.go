package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawRow is one CSV data line keyed by trimmed header name.
type RawRow struct {
	Line   int
	Raw    string
	Fields map[string]string
}

// Get returns the trimmed value of column, or "" when absent.
func (r RawRow) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// Has reports whether the row carries column at all.
func (r RawRow) Has(column string) bool {
	_, ok := r.Fields[column]
	return ok
}

// RowReader yields raw rows until io.EOF.
type RowReader interface {
	Next() (RawRow, error)
}

// CSVSchema describes the header a provider expects.
type CSVSchema struct {
	// Required columns must all appear in the header; extra columns are ignored.
	Required []string
	// HeaderMarker, when set, is a column name that identifies the header line.
	// Lines before it are preamble and skipped.
	HeaderMarker string
	// MinFields, when positive, drops post-header lines with fewer fields
	// (disclaimer text) instead of reporting them as malformed.
	MinFields int
}

// ColumnMapping maps canonical fields to the columns of an arbitrary CSV.
// ActivityDate and Amount are mandatory.
type ColumnMapping struct {
	ActivityDate string `json:"activity_date"`
	SettleDate   string `json:"settle_date,omitempty"`
	Instrument   string `json:"instrument,omitempty"`
	Description  string `json:"description,omitempty"`
	TransCode    string `json:"trans_code,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
	Price        string `json:"price,omitempty"`
	Amount       string `json:"amount"`
}

// RowError reports one line that could not be turned into a transaction.
// Reading continues past it.
type RowError struct {
	Line int
	Raw  string
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// RowIssue points at one problem row.
type RowIssue struct {
	Line   int
	Reason string
	Raw    string
}

// ImportSummary is the outcome of one import.
type ImportSummary struct {
	ImportID   string
	AccountID  string
	Provider   Provider
	Processed  int
	Imported   int
	Duplicates int
	Malformed  int
	Flagged    int
	Skipped    int
	Errors     []RowIssue
	Warnings   []RowIssue
}

// AddError records a rejected row.
func (s *ImportSummary) AddError(line int, reason, raw string) {
	s.Malformed++
	s.Errors = append(s.Errors, RowIssue{Line: line, Reason: reason, Raw: raw})
}

// AddWarning records an accepted row that looks suspicious.
func (s *ImportSummary) AddWarning(line int, reason string) {
	s.Flagged++
	s.Warnings = append(s.Warnings, RowIssue{Line: line, Reason: reason})
}

// ImportStatus is the lifecycle state of an import record.
type ImportStatus string

const (
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportRecord is the persisted history entry of one import attempt.
type ImportRecord struct {
	ID           string
	AccountID    string
	Provider     Provider
	Filename     string
	FileSize     int64
	Status       ImportStatus
	Processed    int
	Imported     int
	Duplicates   int
	Malformed    int
	Flagged      int
	ErrorMessage string
	ArchiveURI   string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// NewImportRecord builds a history entry from a summary.
func NewImportRecord(summary *ImportSummary, filename string, size int64, startedAt time.Time, importErr error) *ImportRecord {
	rec := &ImportRecord{
		ID:          summary.ImportID,
		AccountID:   summary.AccountID,
		Provider:    summary.Provider,
		Filename:    filename,
		FileSize:    size,
		Status:      ImportStatusCompleted,
		Processed:   summary.Processed,
		Imported:    summary.Imported,
		Duplicates:  summary.Duplicates,
		Malformed:   summary.Malformed,
		Flagged:     summary.Flagged,
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}
	if importErr != nil {
		rec.Status = ImportStatusFailed
		rec.ErrorMessage = importErr.Error()
	}
	return rec
}
