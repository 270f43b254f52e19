package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests.
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_service_requests_total",
		Help: "The total number of requests",
	})

	// ResponsesTotal counts responses by status code.
	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_service_responses_total",
		Help: "The total number of responses by status code",
	}, []string{"status"})

	// RequestDuration observes request handling time.
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "library_service_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// LoginAttemptsTotal counts login attempts by outcome
	// (success, invalid_credentials, locked, error).
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_service_login_attempts_total",
		Help: "The total number of login attempts by outcome",
	}, []string{"status"})

	// AccountLockoutsTotal counts accounts locked by the failed-attempt counter.
	AccountLockoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_service_account_lockouts_total",
		Help: "The total number of automatic account lockouts",
	})

	// SessionTimeoutsTotal counts sessions invalidated by inactivity.
	SessionTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_service_session_timeouts_total",
		Help: "The total number of sessions expired for inactivity",
	})

	// ActiveSessions tracks currently active sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "library_service_active_sessions",
		Help: "The number of active sessions",
	})

	// BorrowingTransitionsTotal counts borrowing state transitions.
	BorrowingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_service_borrowing_transitions_total",
		Help: "The total number of borrowing lifecycle transitions",
	}, []string{"to"})

	// FinesCreatedTotal counts fines by type.
	FinesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_service_fines_created_total",
		Help: "The total number of fines created by type",
	}, []string{"type"})

	// AuditWriteFailuresTotal counts swallowed audit sink failures. The only
	// place a lost audit record is still visible.
	AuditWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_service_audit_write_failures_total",
		Help: "The total number of failed audit log writes",
	})

	// CacheOperationsTotal counts settings cache operations by outcome.
	CacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_service_cache_operations_total",
		Help: "The total number of cache operations",
	}, []string{"operation", "status"})
)
