// Пакет handlers — HTTP-обработчики API Media Gate.
// Каждый обработчик сам перехватывает свои ошибки и превращает их
// в структурированный ответ; до диспетчера исключения не доходят.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
)

// pathID извлекает числовой id из сегмента пути.
// Некорректный id — 400, не падение.
func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.BadRequest(w, "Malformed id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

// queryID извлекает числовой id из query-параметра.
func queryID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		apierrors.BadRequest(w, "Parameter "+strconv.Quote(param)+" required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.BadRequest(w, "Malformed "+param+" "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}
