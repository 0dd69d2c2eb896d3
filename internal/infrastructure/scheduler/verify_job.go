package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/tradebook/internal/usecase"
)

// VerifyRecorder receives verification outcomes.
type VerifyRecorder interface {
	RecordVerify(discrepancies int, err error)
}

// Verifier checks every account's ledger.
type Verifier interface {
	VerifyAll(ctx context.Context) (*usecase.VerifyReport, error)
}

// VerifyJob recomputes ledger fingerprints and logs accounts that drifted.
type VerifyJob struct {
	verifier Verifier
	recorder VerifyRecorder
	log      zerolog.Logger
}

// NewVerifyJob creates a VerifyJob. recorder may be nil.
func NewVerifyJob(verifier Verifier, recorder VerifyRecorder, log zerolog.Logger) *VerifyJob {
	return &VerifyJob{verifier: verifier, recorder: recorder, log: log}
}

func (j *VerifyJob) Name() string { return "ledger-verify" }

func (j *VerifyJob) Run(ctx context.Context) error {
	report, err := j.verifier.VerifyAll(ctx)
	if j.recorder != nil {
		n := 0
		if report != nil {
			n = len(report.Discrepancies)
		}
		j.recorder.RecordVerify(n, err)
	}
	if err != nil {
		return err
	}

	for _, d := range report.Discrepancies {
		j.log.Warn().
			Str("account_id", d.AccountID).
			Int("checked", d.Checked).
			Int("fingerprint_mismatches", len(d.FingerprintMismatches)).
			Msg("ledger discrepancy")
	}
	j.log.Info().
		Int("accounts", report.TotalAccounts).
		Int("consistent", report.ConsistentAccounts).
		Msg("ledger verification finished")

	return nil
}
