// Package metrics 提供Prometheus监控指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标集合，注册在独立的registry上
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	scheduleRuns  *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec

	objective     *prometheus.GaugeVec
	feasibleCount *prometheus.GaugeVec
	fairnessGini  *prometheus.GaugeVec
	fillRate      *prometheus.GaugeVec
}

// NewMetrics 创建并注册全部指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_http_requests_total",
			Help: "HTTP请求总数",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_http_request_duration_seconds",
			Help:    "HTTP请求延迟",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		scheduleRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "排程运行次数",
		}, []string{"office", "status", "solver"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_solve_duration_seconds",
			Help:    "求解耗时",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"office", "solver"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_last_objective",
			Help: "最近一次运行的目标函数值",
		}, []string{"office"}),
		feasibleCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_last_feasible_triples",
			Help: "最近一次运行的可行三元组数",
		}, []string{"office"}),
		fairnessGini: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_last_fairness_gini",
			Help: "最近一次运行的基尼系数",
		}, []string{"office"}),
		fillRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scheduler_last_fill_rate",
			Help: "最近一次运行的整体填充率(百分比)",
		}, []string{"office"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.scheduleRuns,
		m.solveDuration,
		m.objective,
		m.feasibleCount,
		m.fairnessGini,
		m.fillRate,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRun 记录一次排程运行的结果指标
func (m *Metrics) RecordRun(office, status, solver string, duration time.Duration,
	objective float64, feasible int, gini, fillRate float64) {
	if m == nil {
		return
	}
	m.scheduleRuns.WithLabelValues(office, status, solver).Inc()
	m.solveDuration.WithLabelValues(office, solver).Observe(duration.Seconds())
	m.objective.WithLabelValues(office).Set(objective)
	m.feasibleCount.WithLabelValues(office).Set(float64(feasible))
	m.fairnessGini.WithLabelValues(office).Set(gini)
	m.fillRate.WithLabelValues(office).Set(fillRate)
}

// statusRecorder 捕获响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler 用指标采集包装HTTP处理器
func (m *Metrics) WrapHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler 返回/metrics端点处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
