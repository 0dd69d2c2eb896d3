package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradebook/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegisterer(registry)

	require.NotNil(t, m.Imports)
	require.NotNil(t, m.HTTPRequests)

	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecordImport(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	summary := &domain.ImportSummary{Processed: 6, Imported: 3, Duplicates: 1, Malformed: 1, Skipped: 1, Flagged: 2}
	m.RecordImport("robinhood", domain.ImportStatusCompleted, summary, 250*time.Millisecond)
	m.RecordImport("", domain.ImportStatusFailed, &domain.ImportSummary{}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("robinhood", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("unknown", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportRows.WithLabelValues("robinhood", "imported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportRows.WithLabelValues("robinhood", "duplicate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportRows.WithLabelValues("robinhood", "flagged")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TransactionsRecorded.WithLabelValues("csv")))
}

func TestRecordVerify(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordVerify(0, nil)
	m.RecordVerify(2, nil)
	m.RecordVerify(0, errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerifyRuns.WithLabelValues("consistent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerifyRuns.WithLabelValues("discrepancies")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerifyRuns.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VerifyDiscrepancies))
}

func TestRecordLedgerActivity(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordTransactions(domain.ImportSourceAPI, 4)
	m.RecordTransactions(domain.ImportSourceAPI, 0)
	m.RecordLedgerReset()
	m.RecordUploadRejected("too_large")
	m.RecordAuthFailure("expired")
	m.RecordRateLimited()

	assert.Equal(t, 4.0, testutil.ToFloat64(m.TransactionsRecorded.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerResets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadRejected.WithLabelValues("too_large")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits))
}

func TestRecordOutboxBacklog(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordOutboxBacklog(7)
	m.RecordOutboxBacklog(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxBacklog))
}
