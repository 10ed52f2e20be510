// logging.go — middleware логирования входящих HTTP-запросов через slog.
// Шлюз обслуживает два вида трафика — API и фронтенд; в каждой записи
// лога фиксируется вид трафика, статус, объём и длительность ответа.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusRecorder — обёртка ResponseWriter для перехвата статуса и объёма ответа.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController добраться до оригинального ResponseWriter.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// trafficKind классифицирует запрос по пути: API-префикс, метрики
// или трафик фронтенда (всё остальное).
func trafficKind(path string) string {
	switch {
	case path == "/server" || strings.HasPrefix(path, "/server/"):
		return "api"
	case path == "/metrics":
		return "metrics"
	default:
		return "ui"
	}
}

// RequestLogger возвращает middleware, логирующий каждый запрос шлюза.
// Уровень зависит от статуса ответа: INFO до 400, WARN 4xx, ERROR 5xx.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "Запрос обработан",
				slog.String("traffic", trafficKind(r.URL.Path)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int64("bytes", rec.bytes),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
