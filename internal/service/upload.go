// upload.go — конвейер приёма загрузок: streaming-разбор multipart
// прямо в файл хранилища, проверка квоты, бесколлизионное имя,
// вставка записи метаданных.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/bigkaa/mediagate/internal/api/middleware"
	"github.com/bigkaa/mediagate/internal/config"
	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
	"github.com/bigkaa/mediagate/internal/storage"
)

// Поле формы, выбирающее целевое хранилище.
const uploadTargetField = "uploadTarget"

// Предел размера значения нефайлового поля формы.
const maxFieldBytes = 1 << 10

// UploadError — ошибка загрузки с HTTP-кодом.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// UploadService — сервис приёма загрузок.
type UploadService struct {
	cfg    *config.Config
	store  storage.Storage
	files  repository.FileRepository
	logger *slog.Logger
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(cfg *config.Config, store storage.Storage, files repository.FileRepository, logger *slog.Logger) *UploadService {
	return &UploadService{
		cfg:    cfg,
		store:  store,
		files:  files,
		logger: logger.With(slog.String("component", "upload_service")),
	}
}

// Receive принимает одну multipart-загрузку.
//
// Поток:
//  1. Boundary из Content-Type, Content-Length — протокольные проверки
//  2. Streaming-обход частей: поле uploadTarget должно прийти раньше
//     файловой части (порядок полей формы сохраняется клиентами)
//  3. На файловой части: валидация цели (только литералы
//     "internal"/"external"), проверка свободного места с учётом
//     Content-Length и резерва — до записи первого байта
//  4. Запись части во временный файл без буферизации тела в памяти;
//     имя файла клиента восстанавливается из заголовков части
//  5. Переименование в восстановленное имя с суффиксом " (n)" при
//     коллизии на диске или в хранилище метаданных
//  6. Вставка записи метаданных только после успешного rename
//
// При любой ошибке в середине конвейера временный файл удаляется.
func (s *UploadService) Receive(ctx context.Context, contentType string, contentLength int64, body io.Reader) (*model.FileRecord, *UploadError) {
	// 1. Протокольные проверки
	if contentLength <= 0 {
		return nil, s.fail("invalid", http.StatusBadRequest, "Content-Length required")
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, s.fail("invalid", http.StatusBadRequest, "Malformed Content-Type header")
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return nil, s.fail("invalid", http.StatusBadRequest, "Multipart boundary required")
	}

	// 2-4. Обход частей
	mr := multipart.NewReader(body, boundary)
	target := ""
	for {
		part, partErr := mr.NextPart()
		if partErr == io.EOF {
			return nil, s.fail(metricTarget(target), http.StatusBadRequest, "Multipart body contains no file part")
		}
		if partErr != nil {
			return nil, s.fail(metricTarget(target), http.StatusBadRequest, "Malformed multipart body")
		}

		if part.FileName() == "" {
			if part.FormName() == uploadTargetField {
				value, readErr := io.ReadAll(io.LimitReader(part, maxFieldBytes))
				part.Close()
				if readErr != nil {
					return nil, s.fail("invalid", http.StatusBadRequest, "Malformed multipart body")
				}
				target = string(value)
				continue
			}
			// Прочие поля формы вычитываются и отбрасываются
			_, _ = io.Copy(io.Discard, part)
			part.Close()
			continue
		}

		rec, uploadErr := s.receiveFile(ctx, target, contentLength, part)
		part.Close()
		return rec, uploadErr
	}
}

// receiveFile обрабатывает файловую часть: квота, временный файл,
// переименование, запись метаданных.
func (s *UploadService) receiveFile(ctx context.Context, target string, contentLength int64, part *multipart.Part) (*model.FileRecord, *UploadError) {
	// Принимаются только литералы internal/external, без пути расширения
	if target != "internal" && target != "external" {
		return nil, s.fail("invalid", http.StatusBadRequest, fmt.Sprintf("Unknown upload target %q", target))
	}
	root, ok := s.cfg.StorageRoot(target)
	if !ok {
		return nil, s.fail(target, http.StatusInternalServerError, fmt.Sprintf("Storage root for %q is not configured", target))
	}

	// Квота: после приёма должно остаться не меньше резерва.
	// Проверка выполняется до записи первого байта на диск.
	available, err := s.store.FreeSpace(root)
	if err != nil {
		s.logger.Error("Ошибка определения свободного места",
			slog.String("root", root),
			slog.String("error", err.Error()),
		)
		return nil, s.fail(target, http.StatusInternalServerError, "Unable to determine free space")
	}
	if available-contentLength < s.cfg.FreeSpaceReserve {
		return nil, s.fail(target, http.StatusInsufficientStorage, "Insufficient storage")
	}

	tmp, err := s.store.CreateTemp(root)
	if err != nil {
		s.logger.Error("Ошибка создания временного файла",
			slog.String("root", root),
			slog.String("error", err.Error()),
		)
		return nil, s.fail(target, http.StatusInternalServerError, "Unable to create temporary file")
	}
	tmpLocator := tmp.Name()

	written, err := io.Copy(tmp, part)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("ошибка закрытия временного файла: %w", closeErr)
	}
	if err != nil {
		s.cleanupTemp(tmpLocator)
		s.logger.Error("Ошибка записи данных загрузки",
			slog.String("target", target),
			slog.String("error", err.Error()),
		)
		return nil, s.fail(target, http.StatusInternalServerError, "Failed to write uploaded data")
	}

	originalName := filepath.Base(part.FileName())
	if originalName == "" || originalName == "." || originalName == string(filepath.Separator) {
		s.cleanupTemp(tmpLocator)
		return nil, s.fail(target, http.StatusBadRequest, "Uploaded file has no name")
	}

	// Переименование с разрешением коллизий: имя занято, если файл
	// существует на диске или уже упомянуто в хранилище метаданных
	locator, finalName, err := s.store.Promote(tmpLocator, root, originalName, func(name string) bool {
		exists, repoErr := s.files.NameExists(ctx, name)
		if repoErr != nil {
			s.logger.Error("Ошибка проверки имени в метаданных",
				slog.String("name", name),
				slog.String("error", repoErr.Error()),
			)
			// При недоступных метаданных считаем имя занятым
			return true
		}
		return exists
	})
	if err != nil {
		s.cleanupTemp(tmpLocator)
		s.logger.Error("Ошибка переименования загрузки",
			slog.String("original_name", originalName),
			slog.String("error", err.Error()),
		)
		return nil, s.fail(target, http.StatusInternalServerError, "Unable to store uploaded file")
	}

	// Запись метаданных — только после успешного rename
	rec := &model.FileRecord{
		Name:    finalName,
		Locator: locator,
		Size:    written,
	}
	if err := s.files.Insert(ctx, rec); err != nil {
		// Файл уже лежит под итоговым именем; следующий Scan
		// зарегистрирует его
		s.logger.Error("Ошибка вставки записи метаданных",
			slog.String("name", finalName),
			slog.String("locator", locator),
			slog.String("error", err.Error()),
		)
		return nil, s.fail(target, http.StatusInternalServerError, "Unable to register uploaded file")
	}

	middleware.UploadsTotal.WithLabelValues(target, "success").Inc()
	s.logger.Info("Файл загружен",
		slog.Int64("file_id", rec.ID),
		slog.String("name", finalName),
		slog.Int64("size", written),
		slog.String("target", target),
	)
	return rec, nil
}

// cleanupTemp удаляет частично записанный временный файл.
func (s *UploadService) cleanupTemp(locator string) {
	if err := s.store.Remove(locator); err != nil {
		s.logger.Warn("Не удалось удалить временный файл",
			slog.String("locator", locator),
			slog.String("error", err.Error()),
		)
	}
}

// fail фиксирует метрику неуспеха и возвращает UploadError.
func (s *UploadService) fail(target string, statusCode int, message string) *UploadError {
	middleware.UploadsTotal.WithLabelValues(target, "error").Inc()
	return &UploadError{StatusCode: statusCode, Message: message}
}

// metricTarget приводит произвольную строку клиента к фиксированному
// набору лейблов метрики.
func metricTarget(target string) string {
	if target == "internal" || target == "external" {
		return target
	}
	return "invalid"
}
