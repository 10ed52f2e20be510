// Пакет service — бизнес-логика Media Gate.
// stream.go — движок стриминговой отдачи файлов с поддержкой байтовых диапазонов.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bigkaa/mediagate/internal/api/middleware"
	"github.com/bigkaa/mediagate/internal/repository"
	"github.com/bigkaa/mediagate/internal/storage"
)

// Медиафайлы отдаются с фиксированным MIME-типом.
const streamContentType = "video/mp4"

// StreamError — ошибка отдачи файла с HTTP-кодом.
type StreamError struct {
	StatusCode int
	Message    string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Ошибки разбора Range-заголовка.
var (
	errMalformedRange     = errors.New("некорректный Range-заголовок")
	errUnsatisfiableRange = errors.New("диапазон вне пределов файла")
)

// StreamService — сервис стриминговой отдачи файлов.
type StreamService struct {
	files  repository.FileRepository
	store  storage.Storage
	logger *slog.Logger
}

// NewStreamService создаёт сервис стриминга.
func NewStreamService(files repository.FileRepository, store storage.Storage, logger *slog.Logger) *StreamService {
	return &StreamService{
		files:  files,
		store:  store,
		logger: logger.With(slog.String("component", "stream_service")),
	}
}

// Serve отдаёт файл клиенту.
//
// Без Range-заголовка (или с заголовком не вида "bytes=...") — 200 с полным
// содержимым. С Range — 206 Partial Content с Content-Range.
// download добавляет Content-Disposition: attachment.
//
// Возвращаемая ошибка уже отражена в заголовках ответа там, где это
// требуется (416 с Content-Range: bytes */size); тело пишет вызывающий код.
func (s *StreamService) Serve(w http.ResponseWriter, r *http.Request, fileID int64, download bool) *StreamError {
	// 1. Запись метаданных
	rec, err := s.files.GetByID(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			middleware.StreamsTotal.WithLabelValues("not_found").Inc()
			return &StreamError{StatusCode: http.StatusNotFound, Message: "File not found or inaccessible"}
		}
		s.logger.Error("Ошибка чтения записи файла",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
		middleware.StreamsTotal.WithLabelValues("error").Inc()
		return &StreamError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}
	}

	// 2. Открываем файл по локатору
	file, err := s.store.Open(rec.Locator)
	if err != nil {
		s.logger.Warn("Файл записи недоступен в хранилище",
			slog.Int64("file_id", fileID),
			slog.String("locator", rec.Locator),
			slog.String("error", err.Error()),
		)
		middleware.StreamsTotal.WithLabelValues("not_found").Inc()
		return &StreamError{StatusCode: http.StatusNotFound, Message: "File not found or inaccessible"}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		s.logger.Error("Ошибка stat файла",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
		middleware.StreamsTotal.WithLabelValues("error").Inc()
		return &StreamError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}
	}
	size := info.Size()

	// Заголовки контента выставляются только при успешном исходе:
	// ответ об ошибке диапазона не должен нести attachment-disposition.
	setContentHeaders := func() {
		w.Header().Set("Content-Type", streamContentType)
		w.Header().Set("Accept-Ranges", "bytes")
		if download {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
		}
	}

	// 3. Без Range — полная отдача
	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" || !strings.HasPrefix(rangeHeader, "bytes=") {
		setContentHeaders()
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		s.copyBody(w, file, size, fileID)
		return nil
	}

	// 4. Разбор диапазона
	start, end, rangeErr := parseByteRange(rangeHeader, size)
	if rangeErr != nil {
		if errors.Is(rangeErr, errUnsatisfiableRange) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			middleware.StreamsTotal.WithLabelValues("bad_range").Inc()
			return &StreamError{StatusCode: http.StatusRequestedRangeNotSatisfiable, Message: "Requested range not satisfiable"}
		}
		middleware.StreamsTotal.WithLabelValues("bad_range").Inc()
		return &StreamError{StatusCode: http.StatusBadRequest, Message: "Malformed Range header"}
	}

	// 5. Перематываем поток к началу диапазона
	if _, err := file.Seek(start, io.SeekStart); err != nil {
		s.logger.Error("Ошибка позиционирования в файле",
			slog.Int64("file_id", fileID),
			slog.Int64("offset", start),
			slog.String("error", err.Error()),
		)
		middleware.StreamsTotal.WithLabelValues("error").Inc()
		return &StreamError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}
	}

	setContentHeaders()
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.WriteHeader(http.StatusPartialContent)
	s.copyBody(w, io.LimitReader(file, end-start+1), end-start+1, fileID)
	return nil
}

// copyBody пишет тело ответа. Ошибка записи означает разрыв соединения
// клиентом; worker не должен падать, только фиксируем в логе.
func (s *StreamService) copyBody(w io.Writer, src io.Reader, expected int64, fileID int64) {
	written, err := io.Copy(w, src)
	if err != nil {
		s.logger.Debug("Отдача прервана клиентом",
			slog.Int64("file_id", fileID),
			slog.Int64("written", written),
			slog.Int64("expected", expected),
			slog.String("error", err.Error()),
		)
		middleware.StreamsTotal.WithLabelValues("aborted").Inc()
		return
	}
	middleware.StreamsTotal.WithLabelValues("success").Inc()
}

// parseByteRange разбирает заголовок вида "bytes=start-end".
//
// Поддерживаются формы:
//   - "bytes=start-end" — явный диапазон, end ограничивается size-1
//   - "bytes=start-"    — открытый конец, end = size-1
//   - "bytes=-N"        — последние N байт: start = size-N (не меньше 0)
//
// Возвращает errUnsatisfiableRange для диапазонов вне файла
// (start >= size, start > end, пустой файл) и errMalformedRange
// для синтаксически некорректных значений.
func parseByteRange(header string, size int64) (start, end int64, err error) {
	spec := strings.TrimPrefix(header, "bytes=")
	// Множественные диапазоны не поддерживаются: берём первый
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}
	spec = strings.TrimSpace(spec)

	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return 0, 0, errMalformedRange
	}
	startPart, endPart := spec[:dash], spec[dash+1:]

	if startPart == "" {
		// Суффиксная форма: последние N байт
		n, parseErr := strconv.ParseInt(endPart, 10, 64)
		if parseErr != nil || n < 0 {
			return 0, 0, errMalformedRange
		}
		if size == 0 || n == 0 {
			return 0, 0, errUnsatisfiableRange
		}
		start = size - n
		if start < 0 {
			start = 0
		}
		return start, size - 1, nil
	}

	start, parseErr := strconv.ParseInt(startPart, 10, 64)
	if parseErr != nil || start < 0 {
		return 0, 0, errMalformedRange
	}

	if endPart == "" {
		end = size - 1
	} else {
		end, parseErr = strconv.ParseInt(endPart, 10, 64)
		if parseErr != nil {
			return 0, 0, errMalformedRange
		}
	}

	if end > size-1 {
		end = size - 1
	}
	if size == 0 || start >= size || start > end {
		return 0, 0, errUnsatisfiableRange
	}
	return start, end, nil
}
