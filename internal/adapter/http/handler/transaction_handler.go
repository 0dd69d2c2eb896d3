package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/tradebook/internal/adapter/http/dto"
	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ArchiveTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ResetLedger(ctx context.Context, accountID string) (int64, error)
	RecordTransactions(ctx context.Context, accountID string, txs []*domain.Transaction) (*usecase.RecordResult, error)
	ExportTransactions(ctx context.Context, accountID string, w io.Writer, write func(io.Writer, []*domain.Transaction) error) (int, error)
}

// ExportFunc serializes a ledger for download.
type ExportFunc func(io.Writer, []*domain.Transaction) error

// LedgerRecorder counts ledger writes made through the API.
type LedgerRecorder interface {
	RecordTransactions(source domain.ImportSource, n int)
	RecordLedgerReset()
}

// TransactionHandler handles ledger HTTP requests.
type TransactionHandler struct {
	txUC     TransactionService
	export   ExportFunc
	recorder LedgerRecorder
}

// NewTransactionHandler creates a new TransactionHandler. recorder may be nil.
func NewTransactionHandler(txUC TransactionService, export ExportFunc, recorder LedgerRecorder) *TransactionHandler {
	return &TransactionHandler{
		txUC:     txUC,
		export:   export,
		recorder: recorder,
	}
}

// List returns a page of an account's ledger, newest activity first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err.Error())
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", err.Error())
		return
	}
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("include_archived"))

	txs, err := h.txUC.ListTransactions(r.Context(), domain.TransactionFilter{
		AccountID:       accountID,
		Instrument:      r.URL.Query().Get("instrument"),
		From:            from,
		To:              to,
		IncludeArchived: includeArchived,
		Limit:           parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:          parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txs),
		Total:        int64(len(txs)),
	})
}

// Record appends transactions submitted as JSON. Duplicates are counted, not rejected.
func (h *TransactionHandler) Record(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.RecordTransactionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txs, err := req.ToDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction", err.Error())
		return
	}

	result, err := h.txUC.RecordTransactions(r.Context(), accountID, txs)
	if err != nil {
		writeDomainError(w, r, "failed to record transactions", err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordTransactions(domain.ImportSourceAPI, len(result.Recorded))
	}

	writeJSON(w, http.StatusCreated, dto.RecordResultFromUseCase(result))
}

// Reset deletes every transaction of an account.
func (h *TransactionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	deleted, err := h.txUC.ResetLedger(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, r, "failed to reset ledger", err)
		return
	}

	if h.recorder != nil {
		h.recorder.RecordLedgerReset()
	}

	writeJSON(w, http.StatusOK, dto.ResetLedgerResponse{AccountID: accountID, Deleted: deleted})
}

// Export streams the account's ledger as CSV, oldest first.
func (h *TransactionHandler) Export(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var buf bytes.Buffer
	if _, err := h.txUC.ExportTransactions(r.Context(), accountID, &buf, h.export); err != nil {
		writeDomainError(w, r, "failed to export transactions", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", accountID+"-transactions.csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	t, err := h.txUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}

// Archive hides a transaction from listings. Its fingerprint keeps blocking re-imports.
func (h *TransactionHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	t, err := h.txUC.ArchiveTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to archive transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(t))
}
