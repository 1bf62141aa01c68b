package observability

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

// Metrics is the process-wide metric surface, exposed in Prometheus
// text format on its own listener.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	graphBuilds     *CounterVec
	graphBuildTime  *HistogramVec
	graphWarnings   *Counter
	graphCacheReads *CounterVec

	jobRuns          *CounterVec
	jobDuration      *HistogramVec
	promotionActions *CounterVec

	queueDepth *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 10 * time.Second
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec("dealdesk_api_requests_total",
				"API requests by method, route and status", []string{"method", "route", "status"}),
			apiLatency: NewHistogramVec("dealdesk_api_latency_seconds",
				"API latency by route", []string{"method", "route"}, nil),
			apiInflight: NewGauge("dealdesk_api_inflight",
				"In-flight API requests"),
			apiReqTotal: NewCounter("dealdesk_api_requests_all_total",
				"All API requests"),
			apiReqError: NewCounter("dealdesk_api_requests_error_total",
				"API requests answered with a 5xx status"),
			graphBuilds: NewCounterVec("dealdesk_graph_builds_total",
				"Lineage graph builds by outcome", []string{"outcome"}),
			graphBuildTime: NewHistogramVec("dealdesk_graph_build_seconds",
				"Lineage graph build duration", []string{"outcome"}, nil),
			graphWarnings: NewCounter("dealdesk_graph_warnings_total",
				"Degradation warnings emitted by graph builds"),
			graphCacheReads: NewCounterVec("dealdesk_graph_cache_reads_total",
				"Graph cache lookups by result", []string{"result"}),
			jobRuns: NewCounterVec("dealdesk_job_runs_total",
				"Background job completions by type and status", []string{"job_type", "status"}),
			jobDuration: NewHistogramVec("dealdesk_job_duration_seconds",
				"Background job duration by type", []string{"job_type"},
				[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}),
			promotionActions: NewCounterVec("dealdesk_promotion_actions_total",
				"Per-asset promotion decisions by action", []string{"action"}),
			queueDepth: NewGaugeVec("dealdesk_job_queue_depth",
				"Jobs per status", []string{"status"}),
		}
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
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
	metrics := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.graphBuilds, m.graphBuildTime, m.graphWarnings, m.graphCacheReads,
		m.jobRuns, m.jobDuration, m.promotionActions, m.queueDepth,
	}
	for _, metric := range metrics {
		if err := metric.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
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

// ObserveGraphBuild records one lineage build; outcome is "ok" or
// "error", warnings counts that build's degradation warnings.
func (m *Metrics) ObserveGraphBuild(outcome string, warnings int, dur time.Duration) {
	if m == nil {
		return
	}
	m.graphBuilds.Inc(outcome)
	m.graphBuildTime.Observe(dur.Seconds(), outcome)
	if warnings > 0 {
		m.graphWarnings.Add(float64(warnings))
	}
}

func (m *Metrics) IncGraphCacheRead(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.graphCacheReads.Inc("hit")
	} else {
		m.graphCacheReads.Inc("miss")
	}
}

func (m *Metrics) ObserveJobRun(jobType, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.Inc(jobType, status)
	m.jobDuration.Observe(dur.Seconds(), jobType)
}

func (m *Metrics) IncPromotionAction(action string) {
	if m == nil {
		return
	}
	m.promotionActions.Inc(action)
}

// StartJobQueueCollector periodically samples job_run status counts.
func (m *Metrics) StartJobQueueCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	statuses := []string{
		types.JobStatusQueued,
		types.JobStatusRunning,
		types.JobStatusSucceeded,
		types.JobStatusFailed,
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range statuses {
					m.queueDepth.Set(0, s)
				}
				var rows []struct {
					Status string
					Count  int64
				}
				if err := db.WithContext(ctx).
					Model(&types.JobRun{}).
					Select("status, count(*) as count").
					Group("status").
					Scan(&rows).Error; err != nil {
					if log != nil {
						log.Warn("metrics: job queue depth query failed", "error", err)
					}
					continue
				}
				for _, row := range rows {
					status := strings.TrimSpace(row.Status)
					if status == "" {
						status = "unknown"
					}
					m.queueDepth.Set(float64(row.Count), status)
				}
			}
		}
	}()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}
