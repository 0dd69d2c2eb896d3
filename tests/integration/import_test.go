package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/iho/tradebook/internal/adapter/http/dto"
	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/tests/testutil"
)

func TestImportLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := testDB.NewStack()
	account := testDB.CreateTestAccount(ctx, "main", domain.ProviderRobinhood)

	t.Run("first upload imports valid rows", func(t *testing.T) {
		rec := upload(t, stack.Router, account.ID, robinhoodHeader+robinhoodRows)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var summary dto.ImportSummaryResponse
		decode(t, rec, &summary)
		if summary.Processed != 3 || summary.Imported != 2 || summary.Malformed != 1 {
			t.Fatalf("unexpected summary %+v", summary)
		}
		if len(summary.Errors) != 1 || summary.Errors[0].Line != 4 {
			t.Fatalf("expected the TSLA row on line 4 to be rejected, got %+v", summary.Errors)
		}
	})

	t.Run("re-upload is idempotent", func(t *testing.T) {
		rec := upload(t, stack.Router, account.ID, robinhoodHeader+robinhoodRows)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var summary dto.ImportSummaryResponse
		decode(t, rec, &summary)
		if summary.Imported != 0 || summary.Duplicates != 2 {
			t.Fatalf("expected only duplicates, got %+v", summary)
		}
	})

	t.Run("ledger lists imported rows", func(t *testing.T) {
		rec := doJSON(t, stack.Router, http.MethodGet, "/api/v1/accounts/"+account.ID+"/transactions", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var list dto.ListTransactionsResponse
		decode(t, rec, &list)
		if len(list.Transactions) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(list.Transactions))
		}
		for _, tx := range list.Transactions {
			if tx.Source != string(domain.ImportSourceCSV) || tx.Fingerprint == "" {
				t.Fatalf("unexpected transaction %+v", tx)
			}
		}
	})

	t.Run("history keeps both imports", func(t *testing.T) {
		rec := doJSON(t, stack.Router, http.MethodGet, "/api/v1/accounts/"+account.ID+"/imports", nil)

		var history dto.ListImportsResponse
		decode(t, rec, &history)
		if len(history.Imports) != 2 {
			t.Fatalf("expected 2 imports, got %d", len(history.Imports))
		}
	})

	t.Run("export and verify", func(t *testing.T) {
		rec := doJSON(t, stack.Router, http.MethodGet, "/api/v1/accounts/"+account.ID+"/transactions/export", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "AAPL") || !strings.Contains(rec.Body.String(), "MSFT") {
			t.Fatalf("export misses rows:\n%s", rec.Body.String())
		}

		rec = doJSON(t, stack.Router, http.MethodGet, "/api/v1/accounts/"+account.ID+"/verify", nil)
		var verify dto.VerifyResponse
		decode(t, rec, &verify)
		if !verify.IsConsistent || verify.Checked != 2 {
			t.Fatalf("unexpected verify result %+v", verify)
		}
	})

	t.Run("exported file re-imports as duplicates", func(t *testing.T) {
		rec := doJSON(t, stack.Router, http.MethodGet, "/api/v1/accounts/"+account.ID+"/transactions/export", nil)

		rec = upload(t, stack.Router, account.ID, rec.Body.String())
		var summary dto.ImportSummaryResponse
		decode(t, rec, &summary)
		if summary.Imported != 0 || summary.Duplicates != 2 {
			t.Fatalf("expected round trip to dedupe, got %+v", summary)
		}
	})

	t.Run("reset empties the ledger", func(t *testing.T) {
		rec := doJSON(t, stack.Router, http.MethodDelete, "/api/v1/accounts/"+account.ID+"/transactions", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var reset dto.ResetLedgerResponse
		decode(t, rec, &reset)
		if reset.Deleted != 2 {
			t.Fatalf("expected 2 deleted, got %d", reset.Deleted)
		}

		rec = upload(t, stack.Router, account.ID, robinhoodHeader+robinhoodRows)
		var summary dto.ImportSummaryResponse
		decode(t, rec, &summary)
		if summary.Imported != 2 {
			t.Fatalf("expected rows to import again after reset, got %+v", summary)
		}
	})
}

func TestImportSchemaMismatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	stack := testDB.NewStack()
	account := testDB.CreateTestAccount(ctx, "main", domain.ProviderRobinhood)

	rec := upload(t, stack.Router, account.ID, "Date,Symbol,Total\n2024-01-01,AAPL,1\n")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary dto.ImportSummaryResponse
	decode(t, rec, &summary)
	if summary.Error == "" || summary.Imported != 0 {
		t.Fatalf("expected failed summary, got %+v", summary)
	}

	var count int
	if err := testDB.Pool.QueryRow(ctx, `SELECT count(*) FROM transactions WHERE account_id = $1`, account.ID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows written, got %d", count)
	}
}
