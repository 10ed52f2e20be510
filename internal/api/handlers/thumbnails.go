package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/repository"
	"github.com/bigkaa/mediagate/internal/service"
)

// Количество миниатюр, удерживаемых в памяти.
const thumbnailCacheSize = 256

// ThumbnailsHandler — обработчик миниатюр с LRU-кэшем перед
// хранилищем метаданных.
type ThumbnailsHandler struct {
	files       repository.FileRepository
	consistency *service.ConsistencyService
	cache       *lru.Cache[int64, string]
	logger      *slog.Logger
}

// NewThumbnailsHandler создаёт обработчик миниатюр.
func NewThumbnailsHandler(files repository.FileRepository, consistency *service.ConsistencyService, logger *slog.Logger) (*ThumbnailsHandler, error) {
	cache, err := lru.New[int64, string](thumbnailCacheSize)
	if err != nil {
		return nil, err
	}
	return &ThumbnailsHandler{
		files:       files,
		consistency: consistency,
		cache:       cache,
		logger:      logger.With(slog.String("component", "thumbnails_handler")),
	}, nil
}

// Invalidate сбрасывает кэшированную миниатюру файла.
// Вызывается при удалении записи, иначе кэш переживёт файл.
func (h *ThumbnailsHandler) Invalidate(fileID int64) {
	h.cache.Remove(fileID)
}

// Purge сбрасывает весь кэш миниатюр. Вызывается после cleanup,
// когда набор удалённых записей заранее не известен.
func (h *ThumbnailsHandler) Purge() {
	h.cache.Purge()
}

// thumbnailResponse — ответ на запрос миниатюры.
type thumbnailResponse struct {
	ImageData string `json:"imageData"`
	Exists    bool   `json:"exists"`
}

// Get обрабатывает GET /server/thumbnail?fileId=N.
// Отсутствие миниатюры у существующего файла — не ошибка:
// возвращается exists=false.
func (h *ThumbnailsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r, "fileId")
	if !ok {
		return
	}

	if data, found := h.cache.Get(id); found {
		apierrors.WriteJSON(w, http.StatusOK, thumbnailResponse{ImageData: data, Exists: true})
		return
	}

	rec, err := h.files.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		h.logger.Error("Ошибка получения миниатюры",
			slog.Int64("file_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to load thumbnail", "")
		return
	}

	if rec.Thumbnail == nil || *rec.Thumbnail == "" {
		apierrors.WriteJSON(w, http.StatusOK, thumbnailResponse{Exists: false})
		return
	}

	h.cache.Add(id, *rec.Thumbnail)
	apierrors.WriteJSON(w, http.StatusOK, thumbnailResponse{ImageData: *rec.Thumbnail, Exists: true})
}

// setThumbnailRequest — тело сохранения миниатюры.
type setThumbnailRequest struct {
	FileID    int64  `json:"fileId"`
	ImageData string `json:"imageData"`
}

// Set обрабатывает POST /server/thumbnail.
func (h *ThumbnailsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setThumbnailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Malformed request body")
		return
	}
	if req.FileID <= 0 {
		apierrors.BadRequest(w, "Field fileId required")
		return
	}
	if req.ImageData == "" {
		apierrors.BadRequest(w, "Field imageData required")
		return
	}

	if err := h.consistency.SetThumbnail(r.Context(), req.FileID, req.ImageData); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		h.logger.Error("Ошибка сохранения миниатюры",
			slog.Int64("file_id", req.FileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to store thumbnail", "")
		return
	}

	// Инвалидация: следующий GET перечитает из метаданных
	h.cache.Remove(req.FileID)
	apierrors.OKRequest(w, "Thumbnail stored")
}
