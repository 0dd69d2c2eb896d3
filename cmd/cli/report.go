package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/iho/tradebook/internal/adapter/broker"
	"github.com/iho/tradebook/internal/adapter/http/dto"
)

const descriptionWidth = 40

// render writes md styled for the terminal, or verbatim when plain is set.
func render(w io.Writer, md string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func importSummaryMarkdown(s *dto.ImportSummaryResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Import %s\n\n", s.ImportID)
	fmt.Fprintf(&b, "Account `%s`, provider **%s**\n\n", s.AccountID, s.Provider)
	if s.Error != "" {
		fmt.Fprintf(&b, "> **Failed:** %s. Nothing was written.\n\n", s.Error)
	}

	b.WriteString("| Processed | Imported | Duplicates | Malformed | Flagged | Skipped |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n",
		s.Processed, s.Imported, s.Duplicates, s.Malformed, s.Flagged, s.Skipped)

	writeIssues(&b, "Errors", s.Errors)
	writeIssues(&b, "Warnings", s.Warnings)
	return b.String()
}

func writeIssues(b *strings.Builder, title string, issues []dto.RowIssueResponse) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, issue := range issues {
		fmt.Fprintf(b, "- line %d: %s\n", issue.Line, escapeCell(issue.Reason))
	}
}

func accountsMarkdown(accounts []*dto.AccountResponse) string {
	if len(accounts) == 0 {
		return "No accounts.\n"
	}

	var b strings.Builder
	b.WriteString("| ID | Name | Provider | Active |\n|---|---|---|---|\n")
	for _, a := range accounts {
		fmt.Fprintf(&b, "| %s | %s | %s | %t |\n", a.ID, escapeCell(a.Name), a.Provider, a.IsActive)
	}
	return b.String()
}

func historyMarkdown(imports []*dto.ImportRecordResponse) string {
	if len(imports) == 0 {
		return "No imports yet.\n"
	}

	var b strings.Builder
	b.WriteString("| Started | File | Status | Imported | Duplicates | Malformed |\n|---|---|---|---:|---:|---:|\n")
	for _, rec := range imports {
		status := rec.Status
		if rec.ErrorMessage != "" {
			status += ": " + escapeCell(truncate(rec.ErrorMessage, descriptionWidth))
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %d | %d |\n",
			rec.StartedAt.Format("2006-01-02 15:04"), escapeCell(rec.Filename), status,
			rec.Imported, rec.Duplicates, rec.Malformed)
	}
	return b.String()
}

func transactionsMarkdown(txs []*dto.TransactionResponse) string {
	if len(txs) == 0 {
		return "No transactions.\n"
	}

	var b strings.Builder
	b.WriteString("| Date | Instrument | Code | Description | Quantity | Amount |\n|---|---|---|---|---:|---:|\n")
	for _, tx := range txs {
		qty := ""
		if tx.Quantity.Valid {
			qty = tx.Quantity.Decimal.String()
		}
		code := tx.TransCode
		if tx.SignMismatch {
			code += " (!)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			tx.ActivityDate, escapeCell(tx.Instrument), code,
			escapeCell(truncate(tx.Description, descriptionWidth)), qty, broker.FormatMoney(tx.Amount))
	}
	return b.String()
}

func verifyMarkdown(v *dto.VerifyResponse) string {
	var b strings.Builder

	state := "consistent"
	if !v.IsConsistent {
		state = "INCONSISTENT"
	}
	fmt.Fprintf(&b, "# Ledger %s is %s\n\n", v.AccountID, state)
	fmt.Fprintf(&b, "- checked: %d\n- sign mismatches: %d\n- fingerprint mismatches: %d\n",
		v.Checked, v.SignMismatches, len(v.FingerprintMismatches))
	for _, id := range v.FingerprintMismatches {
		fmt.Fprintf(&b, "  - `%s`\n", id)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ", "\r", "").Replace(s)
}
