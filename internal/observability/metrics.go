package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tutoriq/tutoriq-backend/internal/platform/envutil"
	"github.com/tutoriq/tutoriq-backend/internal/platform/logger"
)

// Metrics is a process-local registry rendered in Prometheus text format at
// GET /metrics. Instruments cover the API surface, the text-generation
// collaborator, and the planner's own operations.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	textgenRequests *CounterVec
	textgenLatency  *HistogramVec
	textgenTokens   *CounterVec
	textgenFallback *CounterVec

	planBuilds      *CounterVec
	planAdvance     *CounterVec
	assessments     *CounterVec
	adaptationRules *CounterVec
	sessionReports  *Counter

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec("tq_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
			apiLatency: NewHistogramVec(
				"tq_api_request_duration_seconds",
				"API request latency in seconds by method/route/status.",
				[]string{"method", "route", "status"},
				[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			),
			apiInflight:     NewGauge("tq_api_inflight_requests", "In-flight API requests."),
			textgenRequests: NewCounterVec("tq_textgen_requests_total", "Text-generation requests by model/status.", []string{"model", "status"}),
			textgenLatency: NewHistogramVec(
				"tq_textgen_request_duration_seconds",
				"Text-generation latency in seconds by model/status.",
				[]string{"model", "status"},
				[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			),
			textgenTokens:   NewCounterVec("tq_textgen_tokens_total", "Text-generation tokens by model/direction.", []string{"model", "direction"}),
			textgenFallback: NewCounterVec("tq_textgen_fallback_total", "Deterministic fallbacks by surface.", []string{"surface"}),
			planBuilds:      NewCounterVec("tq_plan_builds_total", "Plan builds by status.", []string{"status"}),
			planAdvance:     NewCounterVec("tq_plan_advance_total", "Mastery advances by outcome.", []string{"outcome"}),
			assessments:     NewCounterVec("tq_milestone_assessments_total", "Milestone assessments by phase/status.", []string{"phase", "status"}),
			adaptationRules: NewCounterVec("tq_adaptation_rule_total", "Adaptation rule evaluations by rule/applied.", []string{"rule", "applied"}),
			sessionReports:  NewCounter("tq_session_reports_total", "Completed-session reports received."),
			pgStats:         NewGaugeVec("tq_pg_pool", "Postgres pool stats.", []string{"stat"}),
			redisUp:         NewGauge("tq_redis_up", "Redis reachability (1 up, 0 down)."),
			redisPing:       NewGauge("tq_redis_ping_seconds", "Last Redis ping latency in seconds."),
		}
	})
	if log != nil && instance != nil {
		log.Info("metrics registry initialized")
	}
	return instance
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveTextGen(model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.textgenRequests.Inc(model, status)
	m.textgenLatency.Observe(dur.Seconds(), model, status)
	if inputTokens > 0 {
		m.textgenTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.textgenTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) IncTextGenFallback(surface string) {
	if m == nil {
		return
	}
	m.textgenFallback.Inc(surface)
}

func (m *Metrics) IncPlanBuild(status string) {
	if m == nil {
		return
	}
	m.planBuilds.Inc(status)
}

func (m *Metrics) IncPlanAdvance(outcome string) {
	if m == nil {
		return
	}
	m.planAdvance.Inc(outcome)
}

func (m *Metrics) IncAssessment(phase, status string) {
	if m == nil {
		return
	}
	m.assessments.Inc(phase, status)
}

func (m *Metrics) IncAdaptationRule(rule string, applied bool) {
	if m == nil {
		return
	}
	m.adaptationRules.Inc(rule, fmt.Sprintf("%t", applied))
}

func (m *Metrics) IncSessionReport() {
	if m == nil {
		return
	}
	m.sessionReports.Inc()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.textgenRequests, m.textgenLatency, m.textgenTokens, m.textgenFallback,
		m.planBuilds, m.planAdvance, m.assessments, m.adaptationRules, m.sessionReports,
		m.pgStats, m.redisUp, m.redisPing,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// StartRuntimeCollectors polls DB/Redis health on METRICS_SCRAPE_INTERVAL_SECONDS
// (default 10s) until ctx is done.
func (m *Metrics) StartRuntimeCollectors(ctx context.Context, db *gorm.DB, rdb *redis.Client, log *logger.Logger) {
	if m == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.collectOnce(ctx, db, rdb, log)
			}
		}
	}()
}

func (m *Metrics) collectOnce(ctx context.Context, db *gorm.DB, rdb *redis.Client, log *logger.Logger) {
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			stats := sqlDB.Stats()
			m.pgStats.Set(float64(stats.OpenConnections), "open")
			m.pgStats.Set(float64(stats.InUse), "in_use")
			m.pgStats.Set(float64(stats.Idle), "idle")
			m.pgStats.Set(float64(stats.WaitCount), "wait_count")
		} else if log != nil {
			log.Debug("pg stats unavailable", "error", err)
		}
	}
	if rdb != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		start := time.Now()
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			m.redisUp.Set(0)
		} else {
			m.redisUp.Set(1)
			m.redisPing.Set(time.Since(start).Seconds())
		}
	}
}

func scrapeInterval() time.Duration {
	n := envutil.Int("METRICS_SCRAPE_INTERVAL_SECONDS", 10)
	if n <= 0 {
		n = 10
	}
	return time.Duration(n) * time.Second
}
