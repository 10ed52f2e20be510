// files.go — HTTP-обработчики файловых операций:
// листинг, стриминг, детали, имя, загрузка, переименование, удаление.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/config"
	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
	"github.com/bigkaa/mediagate/internal/service"
	"github.com/bigkaa/mediagate/internal/storage"
)

// FilesHandler — обработчик файловых endpoints.
type FilesHandler struct {
	cfg        *config.Config
	files      repository.FileRepository
	performers repository.PerformerRepository
	categories repository.CategoryRepository
	streamSvc  *service.StreamService
	uploadSvc  *service.UploadService
	store      storage.Storage
	thumbs     *ThumbnailsHandler
	logger     *slog.Logger
}

// NewFilesHandler создаёт обработчик файловых endpoints.
func NewFilesHandler(
	cfg *config.Config,
	files repository.FileRepository,
	performers repository.PerformerRepository,
	categories repository.CategoryRepository,
	streamSvc *service.StreamService,
	uploadSvc *service.UploadService,
	store storage.Storage,
	thumbs *ThumbnailsHandler,
	logger *slog.Logger,
) *FilesHandler {
	return &FilesHandler{
		cfg:        cfg,
		files:      files,
		performers: performers,
		categories: categories,
		streamSvc:  streamSvc,
		uploadSvc:  uploadSvc,
		store:      store,
		thumbs:     thumbs,
		logger:     logger.With(slog.String("component", "files_handler")),
	}
}

// listResponse — тело ответа листинга файлов.
type listResponse struct {
	Files    []*model.FileRecord `json:"files"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

// List обрабатывает GET /server/files.
// Параметры: page (с 1), sortBy, performerId.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			apierrors.BadRequest(w, "Malformed page "+strconv.Quote(raw))
			return
		}
		page = parsed
	}

	params := repository.ListParams{
		Page:     page,
		PageSize: h.cfg.FilePageSize,
		SortKey:  q.Get("sortBy"),
	}

	if raw := q.Get("performerId"); raw != "" {
		performerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || performerID < 1 {
			apierrors.BadRequest(w, "Malformed performerId "+strconv.Quote(raw))
			return
		}
		params.PerformerID = &performerID
	}

	files, total, err := h.files.List(r.Context(), params)
	if err != nil {
		h.logger.Error("Ошибка листинга файлов", slog.String("error", err.Error()))
		apierrors.InternalServerError(w, "Failed to list files", "")
		return
	}

	// Пустая страница после фильтрации — различимое граничное условие
	if len(files) == 0 {
		apierrors.NotFound(w, "No files found")
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, listResponse{
		Files:    files,
		Total:    total,
		Page:     page,
		PageSize: h.cfg.FilePageSize,
	})
}

// Stream обрабатывает GET /server/file.
// Параметры: fileId, download; поддерживает заголовок Range.
func (h *FilesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	fileID, ok := queryID(w, r, "fileId")
	if !ok {
		return
	}
	download := r.URL.Query().Get("download") == "true"

	if streamErr := h.streamSvc.Serve(w, r, fileID, download); streamErr != nil {
		apierrors.WriteStatus(w, streamErr.StatusCode, streamErr.Message)
	}
}

// detailsResponse — тело ответа деталей файла.
type detailsResponse struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Size       int64              `json:"size"`
	Performers []*model.Performer `json:"performers"`
	Categories []*model.Category  `json:"categories"`
}

// Details обрабатывает GET /server/fileDetails/{fileID}.
func (h *FilesHandler) Details(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(w, r, "fileID")
	if !ok {
		return
	}

	rec, err := h.files.GetByID(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		h.logger.Error("Ошибка получения деталей файла",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to load file details", "")
		return
	}

	performers, err := h.performers.ListByFile(r.Context(), fileID)
	if err != nil {
		h.logger.Error("Ошибка листинга исполнителей файла",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to load file details", "")
		return
	}

	categories, err := h.categories.ListByFile(r.Context(), fileID)
	if err != nil {
		h.logger.Error("Ошибка листинга категорий файла",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to load file details", "")
		return
	}

	if performers == nil {
		performers = []*model.Performer{}
	}
	if categories == nil {
		categories = []*model.Category{}
	}

	apierrors.WriteJSON(w, http.StatusOK, detailsResponse{
		ID:         rec.ID,
		Name:       rec.Name,
		Size:       rec.Size,
		Performers: performers,
		Categories: categories,
	})
}

// Name обрабатывает GET /server/name: {"fileName": "..."} по fileId.
func (h *FilesHandler) Name(w http.ResponseWriter, r *http.Request) {
	fileID, ok := queryID(w, r, "fileId")
	if !ok {
		return
	}

	rec, err := h.files.GetByID(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		apierrors.InternalServerError(w, "Failed to load file name", "")
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, map[string]string{"fileName": rec.Name})
}

// Upload обрабатывает POST /server/file.
// Multipart upload; поле формы uploadTarget выбирает корень хранилища.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	rec, uploadErr := h.uploadSvc.Receive(
		r.Context(),
		r.Header.Get("Content-Type"),
		r.ContentLength,
		r.Body,
	)
	if uploadErr != nil {
		apierrors.WriteStatus(w, uploadErr.StatusCode, uploadErr.Message)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, rec)
}

// renameRequest — тело запроса переименования.
type renameRequest struct {
	NewName string `json:"newName"`
}

// Rename обрабатывает PUT /server/file/{fileID}/rename.
func (h *FilesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(w, r, "fileID")
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		apierrors.BadRequest(w, "Field newName required")
		return
	}

	if err := h.files.Rename(r.Context(), fileID, req.NewName); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			apierrors.NotFound(w, "File not found")
		case errors.Is(err, repository.ErrAlreadyExists):
			apierrors.BadRequest(w, "File name already taken")
		default:
			h.logger.Error("Ошибка переименования",
				slog.Int64("file_id", fileID),
				slog.String("error", err.Error()),
			)
			apierrors.InternalServerError(w, "Failed to rename file", "")
		}
		return
	}

	apierrors.OKRequest(w, "File renamed")
}

// Delete обрабатывает DELETE /server/file: удаляет запись и файл на диске.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID, ok := queryID(w, r, "fileId")
	if !ok {
		return
	}

	rec, err := h.files.GetByID(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		apierrors.InternalServerError(w, "Failed to delete file", "")
		return
	}

	if err := h.files.Delete(r.Context(), fileID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.logger.Error("Ошибка удаления записи",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to delete file", "")
		return
	}

	if h.thumbs != nil {
		h.thumbs.Invalidate(fileID)
	}

	// Файл на диске удаляем best-effort: осиротевший файл
	// подберёт следующий Scan
	if err := h.store.Remove(rec.Locator); err != nil {
		h.logger.Warn("Не удалось удалить файл с диска",
			slog.String("locator", rec.Locator),
			slog.String("error", err.Error()),
		)
	}

	apierrors.OKRequest(w, "File deleted")
}

// Associate обрабатывает POST /server/file/{fileID}/performer.
// Тело: {"performerId": N}.
func (h *FilesHandler) Associate(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(w, r, "fileID")
	if !ok {
		return
	}

	var req struct {
		PerformerID int64 `json:"performerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PerformerID < 1 {
		apierrors.BadRequest(w, "Field performerId required")
		return
	}

	if _, err := h.files.GetByID(r.Context(), fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		apierrors.InternalServerError(w, "Failed to associate performer", "")
		return
	}

	if err := h.performers.Associate(r.Context(), fileID, req.PerformerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			apierrors.OKRequest(w, "Association already exists")
		default:
			h.logger.Error("Ошибка связывания с исполнителем",
				slog.Int64("file_id", fileID),
				slog.Int64("performer_id", req.PerformerID),
				slog.String("error", err.Error()),
			)
			apierrors.InternalServerError(w, "Failed to associate performer", "")
		}
		return
	}

	apierrors.OKRequest(w, "Performer associated")
}

// AssociateCategory обрабатывает POST /server/file/{fileID}/category.
// Тело: {"categoryId": N}.
func (h *FilesHandler) AssociateCategory(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(w, r, "fileID")
	if !ok {
		return
	}

	var req struct {
		CategoryID int64 `json:"categoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CategoryID < 1 {
		apierrors.BadRequest(w, "Field categoryId required")
		return
	}

	if _, err := h.files.GetByID(r.Context(), fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "File not found")
			return
		}
		apierrors.InternalServerError(w, "Failed to associate category", "")
		return
	}

	if err := h.categories.Associate(r.Context(), fileID, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			apierrors.OKRequest(w, "Association already exists")
			return
		}
		apierrors.InternalServerError(w, "Failed to associate category", "")
		return
	}

	apierrors.OKRequest(w, "Category associated")
}
