package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/service"
)

// SystemHandler — служебные endpoints: статус и сверка
// хранилища с метаданными.
type SystemHandler struct {
	consistency *service.ConsistencyService
	thumbs      *ThumbnailsHandler
	logger      *slog.Logger
}

// NewSystemHandler создаёт служебный обработчик.
func NewSystemHandler(consistency *service.ConsistencyService, thumbs *ThumbnailsHandler, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		consistency: consistency,
		thumbs:      thumbs,
		logger:      logger.With(slog.String("component", "system_handler")),
	}
}

// Status обрабатывает GET /server/status.
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// Scan обрабатывает POST /server/scan: регистрация файлов,
// лежащих на диске без записи метаданных.
func (h *SystemHandler) Scan(w http.ResponseWriter, r *http.Request) {
	added, err := h.consistency.Scan(r.Context())
	if err != nil {
		h.writeReconcileError(w, "scan", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, map[string]int{"added": added})
}

// Repair обрабатывает PUT /server/repair: восстановление локаторов
// записей, чьи файлы были перемещены между корнями.
func (h *SystemHandler) Repair(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.consistency.Repair(r.Context())
	if err != nil {
		h.writeReconcileError(w, "repair", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, map[string]int{"repaired": repaired})
}

// Cleanup обрабатывает DELETE /server/cleanup: удаление записей,
// чьи файлы исчезли с диска.
func (h *SystemHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.consistency.Cleanup(r.Context())
	if err != nil {
		h.writeReconcileError(w, "cleanup", err)
		return
	}

	// Какие именно записи исчезли — известно только сервису,
	// поэтому кэш миниатюр сбрасывается целиком
	if removed > 0 && h.thumbs != nil {
		h.thumbs.Purge()
	}
	apierrors.WriteJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// writeReconcileError отображает ошибки сверки в HTTP-ответ.
// Одновременно выполняется не более одной операции сверки.
func (h *SystemHandler) writeReconcileError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, service.ErrReconcileInProgress) {
		apierrors.WriteStatus(w, http.StatusConflict, "Another reconcile operation is in progress")
		return
	}
	h.logger.Error("Ошибка операции сверки",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	apierrors.InternalServerError(w, "Reconcile operation failed", "")
}
