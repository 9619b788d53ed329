// Package metrics 导出生命体征管线的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MeasurementsEmitted 生成器发往输出端的测量数
	MeasurementsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_measurements_emitted_total",
			Help: "Total number of measurements handed to the output sink",
		},
		[]string{"label"},
	)

	// SinkErrors 输出端吞掉的错误
	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_sink_errors_total",
			Help: "Total number of output errors swallowed by a sink",
		},
		[]string{"sink"},
	)

	// RecordsIngested 采集端写入存储的记录数
	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_records_ingested_total",
			Help: "Total number of records added to the record store",
		},
		[]string{"reader"},
	)

	// IngestDropped 采集端丢弃的格式错误单元（行/消息）
	IngestDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_ingest_dropped_total",
			Help: "Total number of malformed lines or messages dropped by a reader",
		},
		[]string{"reader"},
	)

	// AlertsRaised 产生的报警数
	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_alerts_raised_total",
			Help: "Total number of alerts produced by the alert engine",
		},
		[]string{"condition"},
	)

	// JobPanics 调度任务中被恢复的 panic
	JobPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitals_job_panics_total",
			Help: "Total number of panics recovered inside scheduled jobs",
		},
	)

	// EvaluationDuration 单次评估轮次耗时
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitals_evaluation_duration_seconds",
			Help:    "Duration of one alert evaluation pass over all patients",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	// HTTPRequests 监测端 HTTP 请求数
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_http_requests_total",
			Help: "Total number of HTTP requests served by the monitor API",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration 监测端 HTTP 请求耗时
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitals_http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the monitor API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)
