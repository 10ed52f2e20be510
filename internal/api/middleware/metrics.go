// metrics.go — Prometheus HTTP метрики Media Gate.
// Регистрирует метрики: mg_http_requests_total, mg_http_request_duration_seconds.
// Бизнес-метрики (mg_uploads_total, mg_streams_total и др.) экспортируются
// отсюда и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mg_http_requests_total",
			Help: "Общее количество HTTP-запросов к Media Gate",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mg_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Media Gate в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// UploadsTotal — общее количество загрузок по результату.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mg_uploads_total",
			Help: "Общее количество загрузок файлов",
		},
		[]string{"target", "result"},
	)

	// StreamsTotal — общее количество стриминговых отдач по результату.
	StreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mg_streams_total",
			Help: "Общее количество стриминговых отдач файлов",
		},
		[]string{"result"},
	)

	// SessionsActive — текущее количество активных сессий (gauge).
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mg_sessions_active",
			Help: "Текущее количество активных сессий",
		},
	)

	// CleanupRemovedTotal — количество записей, удалённых сервисом сверки.
	CleanupRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mg_cleanup_removed_total",
			Help: "Общее количество записей метаданных, удалённых при сверке",
		},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (числовые id заменяются на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.status)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// normalizePath заменяет числовые сегменты пути на {id}.
// UI-трафик агрегируется в один лейбл "/ui".
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/server") && path != "/metrics" {
		return "/ui"
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
