package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/models"
)

// Billing operation outcomes recorded by ObserveBilling.
const (
	OutcomeFinished   = "finished"
	OutcomePayback    = "payback"
	OutcomeStatusOnly = "status_only"
	OutcomeNoop       = "noop"
	OutcomeFailed     = "failed"
)

// MetricsSnapshot is a cheap summary of the counters kept alongside Prometheus.
type MetricsSnapshot struct {
	RequestsTotal      uint64    `json:"requests_total"`
	LessonsFinished    uint64    `json:"lessons_finished"`
	LessonsPaidBack    uint64    `json:"lessons_paid_back"`
	LedgerTransactions uint64    `json:"ledger_transactions"`
	CacheHitRatio      float64   `json:"cache_hit_ratio"`
	Goroutines         int       `json:"goroutines"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// MetricsService owns the Prometheus registry of the billing service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	billingDuration *prometheus.HistogramVec
	billingTotal    *prometheus.CounterVec
	ledgerTotal     *prometheus.CounterVec
	ledgerAmount    *prometheus.CounterVec
	walletDrift     *prometheus.GaugeVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	requestCount  uint64
	finishedCount uint64
	paybackCount  uint64
	ledgerCount   uint64
	cacheHitCount uint64
	cacheMissCnt  uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	billingDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_operation_duration_seconds",
		Help:    "Duration of lesson billing units of work",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	billingTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_lesson_status_changes_total",
		Help: "Lesson status changes by outcome",
	}, []string{"outcome"})

	ledgerTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Ledger transactions written or reversed",
	}, []string{"owner_kind", "direction", "action"})

	ledgerAmount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transaction_amount_total",
		Help: "Sum of recorded transaction amounts in their own currency",
	}, []string{"owner_kind", "direction"})

	walletDrift := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wallet_drift_owners",
		Help: "Owners whose stored wallet differs from the ledger at the last reconciliation",
	}, []string{"owner_kind"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, billingDuration, billingTotal, ledgerTotal, ledgerAmount,
		walletDrift, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		billingDuration: billingDuration,
		billingTotal:    billingTotal,
		ledgerTotal:     ledgerTotal,
		ledgerAmount:    ledgerAmount,
		walletDrift:     walletDrift,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveBilling records one lesson status change.
func (m *MetricsService) ObserveBilling(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.billingDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.billingTotal.WithLabelValues(outcome).Inc()
	switch outcome {
	case OutcomeFinished:
		atomic.AddUint64(&m.finishedCount, 1)
	case OutcomePayback:
		atomic.AddUint64(&m.paybackCount, 1)
	}
}

// RecordLedger counts a transaction that was written ("record") or undone ("reverse").
func (m *MetricsService) RecordLedger(kind models.OwnerKind, direction models.Direction, action string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.ledgerTotal.WithLabelValues(string(kind), string(direction), action).Inc()
	if action == "record" {
		m.ledgerAmount.WithLabelValues(string(kind), string(direction)).Add(amount.Abs().InexactFloat64())
		atomic.AddUint64(&m.ledgerCount, 1)
	}
}

// SetWalletDrift publishes the number of drifted wallets for kind.
func (m *MetricsService) SetWalletDrift(kind models.OwnerKind, owners int) {
	if m == nil {
		return
	}
	m.walletDrift.WithLabelValues(string(kind)).Set(float64(owners))
}

// RecordCacheOperation records a cache hit or miss and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCnt, 1)
	}
	if ratio, ok := m.hitRatio(); ok {
		m.cacheHitRatio.Set(ratio)
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// Snapshot summarises the process-local counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	ratio, _ := m.hitRatio()
	return MetricsSnapshot{
		RequestsTotal:      atomic.LoadUint64(&m.requestCount),
		LessonsFinished:    atomic.LoadUint64(&m.finishedCount),
		LessonsPaidBack:    atomic.LoadUint64(&m.paybackCount),
		LedgerTransactions: atomic.LoadUint64(&m.ledgerCount),
		CacheHitRatio:      ratio,
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
	}
}

func (m *MetricsService) hitRatio() (float64, bool) {
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCnt)
	if total == 0 {
		return 0, false
	}
	return float64(hits) / float64(total), true
}
