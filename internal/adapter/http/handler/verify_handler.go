package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/tradebook/internal/adapter/http/dto"
	"github.com/iho/tradebook/internal/usecase"
)

// VerifyService defines the behavior needed by VerifyHandler.
type VerifyService interface {
	VerifyAccount(ctx context.Context, accountID string) (*usecase.VerifyResult, error)
}

// VerifyHandler exposes ledger consistency checks.
type VerifyHandler struct {
	verifyUC VerifyService
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(verifyUC VerifyService) *VerifyHandler {
	return &VerifyHandler{verifyUC: verifyUC}
}

// Verify recomputes fingerprints and sign flags for one account.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.verifyUC.VerifyAccount(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, r, "failed to verify ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyFromUseCase(result))
}
