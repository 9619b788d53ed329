package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"wisefido-vitals/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter 注册监测端路由
func NewRouter(h *Handler, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/patients", h.ListPatients).Methods("GET")
	router.HandleFunc("/patients/export.xlsx", h.ExportRecords).Methods("GET")
	router.HandleFunc("/patients/alerts/cached", h.CachedPatients).Methods("GET")
	router.HandleFunc("/patients/{id:[0-9]+}/records", h.GetRecords).Methods("GET")
	router.HandleFunc("/patients/{id:[0-9]+}/alerts", h.EvaluateAlerts).Methods("GET")
	router.HandleFunc("/patients/{id:[0-9]+}/alerts/cached", h.CachedAlerts).Methods("GET")
	router.HandleFunc("/alerts", h.AlertHistory).Methods("GET")
	router.HandleFunc("/alerts/{event_id:[0-9a-fA-F-]+}", h.GetAlertEvent).Methods("GET")

	// Prometheus 指标
	router.Handle("/metrics", promhttp.Handler())

	router.Use(loggingMiddleware(logger))
	router.Use(metricsMiddleware)

	return router
}

// statusRecorder 记录响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
