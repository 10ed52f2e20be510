// cors.go — CORS-заголовки для ответов Media Gate.
// Заголовки добавляются только если оператор настроил базовый URL
// бэкенда (MG_BACKEND_BASE_URL); иначе middleware прозрачен.
package middleware

import "net/http"

// Фиксированные списки разрешённых методов и заголовков.
const (
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowedHeaders = "Content-Type, Range, X-Session-Token"
)

// CORS возвращает middleware, добавляющий CORS-заголовки к каждому ответу.
// backendBaseURL — значение Access-Control-Allow-Origin; пустая строка
// отключает CORS полностью.
func CORS(backendBaseURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if backendBaseURL == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", backendBaseURL)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)

			// Preflight-запросы не доходят до обработчиков
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
