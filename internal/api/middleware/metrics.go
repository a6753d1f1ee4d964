// metrics.go — Prometheus HTTP метрики сайта.
// Регистрирует метрики: hs_http_requests_total, hs_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hydrosite/internal/resource"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hs_http_requests_total",
			Help: "Общее количество HTTP-запросов к сайту",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hs_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к сайту в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (идентификаторы элементов заменяются на {id})
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath сводит путь к шаблону маршрута, чтобы кардинальность
// метрик не росла с числом элементов.
// /admin/forms/6f1c.../edit → /admin/forms/{id}/edit
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/", "/projects", "/faq", "/gallery", "/notices", "/services",
		"/health/live", "/health/ready", "/metrics",
		"/set-language", "/openapi.json",
		"/admin", "/admin/", "/admin/activity":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	rest, ok := strings.CutPrefix(path, "/admin/")
	if !ok {
		return "unmatched"
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
	if _, known := resource.Lookup(parts[0]); !known {
		return "unmatched"
	}

	base := "/admin/" + parts[0]
	switch len(parts) {
	case 1:
		return base
	case 2:
		if parts[1] == "export" {
			return base + "/export"
		}
		return base + "/{id}"
	case 3:
		switch parts[2] {
		case "edit", "delete":
			return base + "/{id}/" + parts[2]
		}
	}
	return "unmatched"
}
