// recover.go — перехват паник в обработчиках.
// Ни один запрос не должен уронить слушающий процесс: паника
// превращается в 500 с захваченным стеком в теле ответа.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
)

// Recoverer возвращает middleware, перехватывающий панику обработчика.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := string(debug.Stack())
					logger.Error("Паника в обработчике",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", stack),
					)
					apierrors.InternalServerError(w, "Internal Server Error", stack)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
