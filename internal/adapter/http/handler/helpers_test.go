package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/tradebook/internal/adapter/http/dto"
	"github.com/iho/tradebook/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{domain.ErrAccountNotFound, http.StatusNotFound},
		{domain.ErrTransactionNotFound, http.StatusNotFound},
		{domain.ErrImportNotFound, http.StatusNotFound},
		{domain.ErrInvalidAccountName, http.StatusBadRequest},
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrUnsupportedProvider, http.StatusBadRequest},
		{fmt.Errorf("%w: at most 1000", domain.ErrBatchTooLarge), http.StatusBadRequest},
		{domain.ErrAccountInactive, http.StatusConflict},
		{domain.ErrImportInProgress, http.StatusConflict},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrSchemaMismatch, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: append: %w", domain.ErrStorageFailure, errors.New("conn reset")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainErrorPassesClientErrorsThrough(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/acc-9", nil)

	writeDomainError(rr, req, "failed to get account", domain.ErrAccountNotFound)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "failed to get account" || resp.Message != domain.ErrAccountNotFound.Error() {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestWriteDomainErrorHidesInternalErrors(t *testing.T) {
	var logs bytes.Buffer
	log := zerolog.New(&logs)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req = req.WithContext(log.WithContext(req.Context()))

	writeDomainError(rr, req, "failed to list accounts", errors.New("pq: password authentication failed"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatalf("internal error leaked to client: %s", rr.Body.String())
	}
	if !strings.Contains(logs.String(), "password authentication failed") {
		t.Fatalf("expected the cause to be logged, got %s", logs.String())
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	if rr.Code != http.StatusCreated || rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestParseIntQuery(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"limit=50", 50},
		{"limit=invalid", 10},
		{"", 10},
		{"limit=", 10},
		{"limit=-3", -3},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/accounts?"+tt.query, nil)
		if got := parseIntQuery(req, "limit", 10); got != tt.want {
			t.Errorf("query %q: expected %d, got %d", tt.query, tt.want, got)
		}
	}
}

func TestParseDateQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/transactions?from=2025-01-31", nil)
	got, err := parseDateQuery(req, "from")
	if err != nil || got == nil || got.Format(domain.DateLayout) != "2025-01-31" {
		t.Fatalf("expected 2025-01-31, got %v (%v)", got, err)
	}

	if got, err := parseDateQuery(req, "to"); got != nil || err != nil {
		t.Fatalf("expected nil for missing param, got %v (%v)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/transactions?from=01/31/2025", nil)
	if _, err := parseDateQuery(req, "from"); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestWriteDomainErrorHidesStorageDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/accounts/acc-1/transactions", nil)

	err := fmt.Errorf("%w: commit: %w", domain.ErrStorageFailure, errors.New("pq: canceling statement due to lock timeout"))
	writeDomainError(rr, req, "failed to reset ledger", err)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Message != http.StatusText(http.StatusServiceUnavailable) || strings.Contains(rr.Body.String(), "pq:") {
		t.Fatalf("storage detail leaked: %s", rr.Body.String())
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}
