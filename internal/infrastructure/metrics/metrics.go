package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/tradebook/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Import metrics
	Imports        *prometheus.CounterVec
	ImportRows     *prometheus.CounterVec
	ImportDuration *prometheus.HistogramVec

	// Ledger metrics
	TransactionsRecorded *prometheus.CounterVec
	LedgerResets         prometheus.Counter
	VerifyRuns           *prometheus.CounterVec
	VerifyDiscrepancies  prometheus.Gauge
	OutboxBacklog        prometheus.Gauge

	// API metrics
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	HTTPInFlight   prometheus.Gauge
	RateLimitHits  prometheus.Counter
	AuthFailures   *prometheus.CounterVec
	UploadRejected *prometheus.CounterVec
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebook_imports_total",
				Help: "CSV imports by provider and final status",
			},
			[]string{"provider", "status"},
		),
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebook_import_rows_total",
				Help: "Imported CSV rows by outcome",
			},
			[]string{"provider", "outcome"},
		),
		ImportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradebook_import_duration_seconds",
				Help:    "Duration of CSV imports",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		TransactionsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebook_transactions_recorded_total",
				Help: "Transactions appended to the ledger by source",
			},
			[]string{"source"},
		),
		LedgerResets: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradebook_ledger_resets_total",
			Help: "Ledger resets",
		}),
		VerifyRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebook_verify_runs_total",
				Help: "Ledger verification runs by result",
			},
			[]string{"result"},
		),
		VerifyDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tradebook_verify_discrepancies",
			Help: "Accounts with discrepancies in the last verification run",
		}),
		OutboxBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tradebook_outbox_backlog",
			Help: "Outbox events waiting to be published",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebook_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradebook_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tradebook_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tradebook_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebook_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
		UploadRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradebook_upload_rejected_total",
				Help: "Uploads rejected before parsing",
			},
			[]string{"reason"},
		),
	}
}

// RecordImport implements usecase.ImportRecorder.
func (m *Metrics) RecordImport(provider string, status domain.ImportStatus, summary *domain.ImportSummary, duration time.Duration) {
	if provider == "" {
		provider = "unknown"
	}

	m.Imports.WithLabelValues(provider, string(status)).Inc()
	m.ImportDuration.WithLabelValues(provider).Observe(duration.Seconds())

	rows := m.ImportRows
	rows.WithLabelValues(provider, "imported").Add(float64(summary.Imported))
	rows.WithLabelValues(provider, "duplicate").Add(float64(summary.Duplicates))
	rows.WithLabelValues(provider, "malformed").Add(float64(summary.Malformed))
	rows.WithLabelValues(provider, "flagged").Add(float64(summary.Flagged))
	rows.WithLabelValues(provider, "skipped").Add(float64(summary.Skipped))

	if summary.Imported > 0 {
		m.TransactionsRecorded.WithLabelValues(string(domain.ImportSourceCSV)).Add(float64(summary.Imported))
	}
}

// RecordVerify records the outcome of a verification run over all accounts.
func (m *Metrics) RecordVerify(discrepancies int, err error) {
	switch {
	case err != nil:
		m.VerifyRuns.WithLabelValues("error").Inc()
		return
	case discrepancies > 0:
		m.VerifyRuns.WithLabelValues("discrepancies").Inc()
	default:
		m.VerifyRuns.WithLabelValues("consistent").Inc()
	}
	m.VerifyDiscrepancies.Set(float64(discrepancies))
}

// RecordTransactions counts lines appended outside the CSV path.
func (m *Metrics) RecordTransactions(source domain.ImportSource, n int) {
	if n > 0 {
		m.TransactionsRecorded.WithLabelValues(string(source)).Add(float64(n))
	}
}

// RecordLedgerReset counts a wiped account ledger.
func (m *Metrics) RecordLedgerReset() {
	m.LedgerResets.Inc()
}

// RecordOutboxBacklog implements eventpublisher.BacklogRecorder.
func (m *Metrics) RecordOutboxBacklog(n int64) {
	m.OutboxBacklog.Set(float64(n))
}

// RecordUploadRejected counts an upload refused before parsing.
func (m *Metrics) RecordUploadRejected(reason string) {
	m.UploadRejected.WithLabelValues(reason).Inc()
}

// RecordAuthFailure counts a rejected credential.
func (m *Metrics) RecordAuthFailure(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// RecordRateLimited counts a request turned away by the limiter.
func (m *Metrics) RecordRateLimited() {
	m.RateLimitHits.Inc()
}
