package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
)

// PerformersHandler — обработчик endpoints исполнителей.
type PerformersHandler struct {
	performers repository.PerformerRepository
	logger     *slog.Logger
}

// NewPerformersHandler создаёт обработчик исполнителей.
func NewPerformersHandler(performers repository.PerformerRepository, logger *slog.Logger) *PerformersHandler {
	return &PerformersHandler{
		performers: performers,
		logger:     logger.With(slog.String("component", "performers_handler")),
	}
}

// List обрабатывает GET /server/performers.
func (h *PerformersHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.performers.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка исполнителей", slog.String("error", err.Error()))
		apierrors.InternalServerError(w, "Failed to load performers", "")
		return
	}
	if items == nil {
		items = []*model.Performer{}
	}
	apierrors.WriteJSON(w, http.StatusOK, items)
}

// createPerformersRequest — тело пакетного создания исполнителей.
type createPerformersRequest struct {
	Names []string `json:"names"`
}

// Create обрабатывает POST /server/performers.
// Пакетное создание: весь запрос отклоняется, если хотя бы одно имя
// не проходит валидацию.
func (h *PerformersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPerformersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Malformed request body")
		return
	}
	if len(req.Names) == 0 {
		apierrors.BadRequest(w, "No performer names provided")
		return
	}
	for _, name := range req.Names {
		if !model.ValidEntityName(name) {
			apierrors.BadRequest(w, fmt.Sprintf("Invalid performer name %q", name))
			return
		}
	}

	created := make([]model.Performer, 0, len(req.Names))
	for _, name := range req.Names {
		p, err := h.performers.Create(r.Context(), name)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				apierrors.BadRequest(w, fmt.Sprintf("Performer %q already exists", name))
				return
			}
			h.logger.Error("Ошибка создания исполнителя",
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
			apierrors.InternalServerError(w, "Failed to create performer", "")
			return
		}
		created = append(created, *p)
	}

	apierrors.WriteJSON(w, http.StatusCreated, created)
}

// updatePerformerRequest — тело переименования исполнителя.
type updatePerformerRequest struct {
	Name string `json:"name"`
}

// Update обрабатывает PUT /server/performer/{performerID}.
func (h *PerformersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "performerID")
	if !ok {
		return
	}

	var req updatePerformerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Malformed request body")
		return
	}
	if !model.ValidEntityName(req.Name) {
		apierrors.BadRequest(w, fmt.Sprintf("Invalid performer name %q", req.Name))
		return
	}

	if err := h.performers.Update(r.Context(), id, req.Name); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			apierrors.NotFound(w, "Performer not found")
		case errors.Is(err, repository.ErrAlreadyExists):
			apierrors.BadRequest(w, fmt.Sprintf("Performer %q already exists", req.Name))
		default:
			h.logger.Error("Ошибка переименования исполнителя",
				slog.Int64("performer_id", id),
				slog.String("error", err.Error()),
			)
			apierrors.InternalServerError(w, "Failed to update performer", "")
		}
		return
	}

	apierrors.OKRequest(w, "Performer updated")
}

// Delete обрабатывает DELETE /server/performer/{performerID}.
func (h *PerformersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "performerID")
	if !ok {
		return
	}

	if err := h.performers.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "Performer not found")
			return
		}
		h.logger.Error("Ошибка удаления исполнителя",
			slog.Int64("performer_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to delete performer", "")
		return
	}

	apierrors.OKRequest(w, "Performer deleted")
}

// deletePerformersRequest — тело пакетного удаления.
type deletePerformersRequest struct {
	IDs []int64 `json:"ids"`
}

// BulkDelete обрабатывает POST /server/deletePerformers.
// Ассоциации с файлами снимаются каскадно, сами файлы не трогаются.
func (h *PerformersHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req deletePerformersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Malformed request body")
		return
	}
	if len(req.IDs) == 0 {
		apierrors.BadRequest(w, "No performer ids provided")
		return
	}

	deleted, err := h.performers.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		h.logger.Error("Ошибка пакетного удаления исполнителей", slog.String("error", err.Error()))
		apierrors.InternalServerError(w, "Failed to delete performers", "")
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
