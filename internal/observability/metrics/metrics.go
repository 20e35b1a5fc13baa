package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	metricPrefix = "meterdesk_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	readingSubmitTotal       *prometheus.CounterVec
	readingSubmitLatency     *prometheus.HistogramVec
	readingConflictRecovered prometheus.Counter

	invoiceGenerateTotal     *prometheus.CounterVec
	invoiceGenerateLatency   *prometheus.HistogramVec
	invoiceConflictRecovered prometheus.Counter

	invoiceExportTotal   *prometheus.CounterVec
	invoiceExportLatency *prometheus.HistogramVec

	ocrRecognizeTotal   *prometheus.CounterVec
	ocrRecognizeLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger zerolog.Logger) {
	registerOnce.Do(func() {
		readingSubmitTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_submit_total",
				Help: "Total meter reading submissions by result",
			},
			[]string{"result"},
		)
		readingSubmitLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reading_submit_latency_seconds",
				Help:    "Meter reading submission latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		readingConflictRecovered = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "reading_conflict_recovered_total",
				Help: "Concurrent first submissions recovered by merge into the winning row",
			},
		)

		invoiceGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_generate_total",
				Help: "Total invoice generate operations by result",
			},
			[]string{"result"},
		)
		invoiceGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_generate_latency_seconds",
				Help:    "Invoice generate latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		invoiceConflictRecovered = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_conflict_recovered_total",
				Help: "Concurrent invoice generations recovered by returning the existing invoice",
			},
		)

		invoiceExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_export_total",
				Help: "Total invoice export operations by format and result",
			},
			[]string{"format", "result"},
		)
		invoiceExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_export_latency_seconds",
				Help:    "Invoice export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		ocrRecognizeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ocr_recognize_total",
				Help: "Total meter photo recognitions by result",
			},
			[]string{"result"},
		)
		ocrRecognizeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ocr_recognize_latency_seconds",
				Help:    "Meter photo recognition latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			readingSubmitTotal,
			readingSubmitLatency,
			readingConflictRecovered,
			invoiceGenerateTotal,
			invoiceGenerateLatency,
			invoiceConflictRecovered,
			invoiceExportTotal,
			invoiceExportLatency,
			ocrRecognizeTotal,
			ocrRecognizeLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func registerDBMetrics(db *sql.DB, logger zerolog.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "reading_groups_pending",
			Help: "Reading groups awaiting invoice generation",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM reading_groups WHERE status = 'pending'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "invoices_unpaid",
			Help: "Invoices not yet marked paid",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM invoices WHERE status <> 'paid'")
		},
	))
}

func queryCount(db *sql.DB, logger zerolog.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		logger.Warn().Err(err).Msg("metrics query failed")
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}

// ObserveReadingSubmit records reading submission latency and result.
func ObserveReadingSubmit(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if readingSubmitTotal != nil {
		readingSubmitTotal.WithLabelValues(result).Inc()
	}
	if readingSubmitLatency != nil {
		readingSubmitLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncReadingConflictRecovered counts a merge recovered from a create conflict.
func IncReadingConflictRecovered() {
	if readingConflictRecovered != nil {
		readingConflictRecovered.Inc()
	}
}

// ObserveInvoiceGenerate records generate latency and result.
func ObserveInvoiceGenerate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if invoiceGenerateTotal != nil {
		invoiceGenerateTotal.WithLabelValues(result).Inc()
	}
	if invoiceGenerateLatency != nil {
		invoiceGenerateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncInvoiceConflictRecovered counts a generate recovered by returning the
// invoice a concurrent caller created.
func IncInvoiceConflictRecovered() {
	if invoiceConflictRecovered != nil {
		invoiceConflictRecovered.Inc()
	}
}

// ObserveInvoiceExport records export latency and result.
func ObserveInvoiceExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if invoiceExportTotal != nil {
		invoiceExportTotal.WithLabelValues(format, result).Inc()
	}
	if invoiceExportLatency != nil {
		invoiceExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveOCRRecognize records meter photo recognition latency and result.
func ObserveOCRRecognize(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ocrRecognizeTotal != nil {
		ocrRecognizeTotal.WithLabelValues(result).Inc()
	}
	if ocrRecognizeLatency != nil {
		ocrRecognizeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
