package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsBuiltTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_built_total",
			Help: "Total number of event documents built (count)",
		},
		[]string{"event_type", "status"},
	)

	EventsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_sent_total",
			Help: "Total number of event documents handed to the collector transport (count)",
		},
		[]string{"event_type", "status"},
	)

	EventsSupersededTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_events_superseded_total",
			Help: "Total number of pending sends cancelled by a newer event of the same type (count)",
		},
		[]string{"event_type"},
	)

	SendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracking_send_duration_ms",
			Help:    "Duration of collector sends in milliseconds, including the ordering delay",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"event_type", "status"},
	)

	SendDelayApplied = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracking_send_delay_ms",
			Help:    "Ordering delay applied to link-click sends in milliseconds",
			Buckets: []float64{0, 100, 200, 300, 400, 500},
		},
	)

	RuleMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_rule_matches_total",
			Help: "Total number of event rule matches (count)",
		},
		[]string{"rule", "kind"},
	)

	CustomRuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_custom_rule_evaluations_total",
			Help: "Total number of custom rule evaluations (count)",
		},
		[]string{"rule_id", "rule_name", "result"},
	)

	ActiveCustomRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracking_active_custom_rules",
			Help: "Number of active custom rules (count)",
		},
	)

	PageViewAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_page_view_attempts_total",
			Help: "Total number of page-view tracking attempts (count)",
		},
		[]string{"outcome"},
	)

	LinkClicksDedupedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_link_clicks_deduped_total",
			Help: "Total number of link clicks dropped by the dedupe window (count)",
		},
	)

	InvalidEventNumbersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracking_invalid_event_numbers_total",
			Help: "Total number of event writes dropped for an out-of-range event number (count)",
		},
	)

	FunnelStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_funnel_store_errors_total",
			Help: "Total number of funnel-state store errors (count)",
		},
		[]string{"operation"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"service", "strategy", "reason"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "target"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"service", "database", "operation", "status"},
	)

	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_ms",
			Help:    "Duration of database queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"service", "database", "operation"},
	)
)

func RegisterTrackingMetrics() {
	prometheus.MustRegister(EventsBuiltTotal)
	prometheus.MustRegister(EventsSentTotal)
	prometheus.MustRegister(EventsSupersededTotal)
	prometheus.MustRegister(SendDuration)
	prometheus.MustRegister(SendDelayApplied)
	prometheus.MustRegister(RuleMatchesTotal)
	prometheus.MustRegister(PageViewAttemptsTotal)
	prometheus.MustRegister(LinkClicksDedupedTotal)
	prometheus.MustRegister(InvalidEventNumbersTotal)
	prometheus.MustRegister(FunnelStoreErrorsTotal)
	prometheus.MustRegister(FallbackUsageTotal)
}

func RegisterCustomRuleMetrics() {
	prometheus.MustRegister(CustomRuleEvaluationsTotal)
	prometheus.MustRegister(ActiveCustomRules)
}

func RegisterTransportMetrics() {
	prometheus.MustRegister(RetryAttemptsTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
	prometheus.MustRegister(KafkaWriteDuration)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func RegisterAdminMetrics() {
	prometheus.MustRegister(RateLimitRequestsTotal)
	prometheus.MustRegister(DatabaseQueriesTotal)
	prometheus.MustRegister(DatabaseQueryDuration)
}

func ObserveSendDuration(eventType, status string, duration time.Duration) {
	SendDuration.WithLabelValues(eventType, status).Observe(float64(duration.Milliseconds()))
}

func ObserveSendDelay(delay time.Duration) {
	SendDelayApplied.Observe(float64(delay.Milliseconds()))
}

func IncEventBuilt(eventType, status string) {
	EventsBuiltTotal.WithLabelValues(eventType, status).Inc()
}

func IncEventSent(eventType, status string) {
	EventsSentTotal.WithLabelValues(eventType, status).Inc()
}

func IncEventSuperseded(eventType string) {
	EventsSupersededTotal.WithLabelValues(eventType).Inc()
}

func IncRuleMatch(rule, kind string) {
	RuleMatchesTotal.WithLabelValues(rule, kind).Inc()
}

func IncCustomRuleEvaluation(ruleID, ruleName, result string) {
	CustomRuleEvaluationsTotal.WithLabelValues(ruleID, ruleName, result).Inc()
}

func SetActiveCustomRules(count int) {
	ActiveCustomRules.Set(float64(count))
}

func IncPageViewAttempt(outcome string) {
	PageViewAttemptsTotal.WithLabelValues(outcome).Inc()
}

func IncFunnelStoreError(operation string) {
	FunnelStoreErrorsTotal.WithLabelValues(operation).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncDatabaseQuery(service, database, operation, status string) {
	DatabaseQueriesTotal.WithLabelValues(service, database, operation, status).Inc()
}

func ObserveDatabaseQueryDuration(service, database, operation string, duration time.Duration) {
	DatabaseQueryDuration.WithLabelValues(service, database, operation).Observe(float64(duration.Milliseconds()))
}
