package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/tradebook/internal/adapter/http/dto"
	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/usecase"
)

const (
	// UploadField is the multipart field carrying the CSV file.
	UploadField = "csv_file"

	// multipartMemory is how much of a form is buffered before spilling to disk.
	multipartMemory = 8 << 20
	// multipartOverhead leaves room for boundaries and the small text fields.
	multipartOverhead = 64 << 10
)

// ImportService defines the behavior needed by ImportHandler.
type ImportService interface {
	ImportCSV(ctx context.Context, input usecase.ImportCSVInput) (*domain.ImportSummary, error)
	ListImports(ctx context.Context, input usecase.ListImportsInput) ([]*domain.ImportRecord, error)
}

// UploadRecorder counts uploads refused before they reach the pipeline.
type UploadRecorder interface {
	RecordUploadRejected(reason string)
}

// ImportHandler handles CSV uploads and import history.
type ImportHandler struct {
	importUC       ImportService
	maxUploadBytes int64
	recorder       UploadRecorder
}

// NewImportHandler creates a new ImportHandler. recorder may be nil.
func NewImportHandler(importUC ImportService, maxUploadBytes int64, recorder UploadRecorder) *ImportHandler {
	return &ImportHandler{
		importUC:       importUC,
		maxUploadBytes: maxUploadBytes,
		recorder:       recorder,
	}
}

// Upload imports a multipart CSV upload into the account's ledger.
// The summary is returned for failed imports too, with the error alongside.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			h.reject(w, "too_large", domain.ErrFileTooLarge)
			return
		}
		h.reject(w, "bad_form", fmt.Errorf("invalid multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		h.reject(w, "missing_file", fmt.Errorf("missing %s field: %w", UploadField, err))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		h.reject(w, "too_large", domain.ErrFileTooLarge)
		return
	}

	input := usecase.ImportCSVInput{
		AccountID: accountID,
		Filename:  header.Filename,
		Size:      header.Size,
		Content:   file,
	}

	if name := r.FormValue("provider"); name != "" {
		provider, err := domain.ParseProvider(name)
		if err != nil {
			h.reject(w, "bad_provider", err)
			return
		}
		input.Provider = provider
	}

	if raw := r.FormValue("mapping"); raw != "" {
		var mapping domain.ColumnMapping
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			h.reject(w, "bad_mapping", fmt.Errorf("invalid mapping: %w", err))
			return
		}
		input.Mapping = &mapping
	}

	summary, err := h.importUC.ImportCSV(r.Context(), input)
	if summary == nil {
		if err == nil {
			err = errors.New("import returned no summary")
		}
		writeDomainError(w, r, "import failed", err)
		return
	}
	if err != nil {
		status, details := publicError(r, "import failed", err)
		writeJSON(w, status, dto.ImportSummaryFromDomain(summary, details))
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportSummaryFromDomain(summary, ""))
}

// List returns the account's import history, newest first.
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	records, err := h.importUC.ListImports(r.Context(), usecase.ListImportsInput{
		AccountID: accountID,
		Limit:     parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, r, "failed to list imports", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListImportsResponse{
		Imports: dto.ImportRecordsFromDomain(records),
		Total:   int64(len(records)),
	})
}

func (h *ImportHandler) reject(w http.ResponseWriter, reason string, err error) {
	if h.recorder != nil {
		h.recorder.RecordUploadRejected(reason)
	}
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		status = http.StatusBadRequest
	}
	writeError(w, status, "invalid upload", err.Error())
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
