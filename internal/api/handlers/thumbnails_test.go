package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/mediagate/internal/config"
	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
	"github.com/bigkaa/mediagate/internal/storage"
)

// fakeThumbRepo — репозиторий для тестов миниатюр.
// Реализует только GetByID и Delete.
type fakeThumbRepo struct {
	repository.FileRepository
	records map[int64]*model.FileRecord
}

func newFakeThumbRepo() *fakeThumbRepo {
	return &fakeThumbRepo{records: make(map[int64]*model.FileRecord)}
}

func (r *fakeThumbRepo) GetByID(_ context.Context, fileID int64) (*model.FileRecord, error) {
	rec, ok := r.records[fileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (r *fakeThumbRepo) Delete(_ context.Context, fileID int64) error {
	if _, ok := r.records[fileID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, fileID)
	return nil
}

// noopStore — хранилище, у которого удаление всегда успешно.
type noopStore struct {
	storage.Storage
}

func (noopStore) Remove(string) error { return nil }

func getThumbnail(t *testing.T, h *ThumbnailsHandler, fileID int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/server/thumbnail?fileId=%d", fileID), nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	return rec
}

func TestThumbnailCacheEvictedOnFileDelete(t *testing.T) {
	repo := newFakeThumbRepo()
	img := "base64-image-data"
	repo.records[1] = &model.FileRecord{ID: 1, Name: "clip.mp4", Locator: "/internal/clip.mp4", Thumbnail: &img}

	thumbs, err := NewThumbnailsHandler(repo, nil, testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания обработчика миниатюр: %v", err)
	}
	filesH := NewFilesHandler(&config.Config{}, repo, nil, nil, nil, nil, noopStore{}, thumbs, testLogger())

	// Прогрев кэша
	if rec := getThumbnail(t, thumbs, 1); rec.Code != http.StatusOK {
		t.Fatalf("Ожидался статус 200, получен %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/server/file?fileId=1", nil)
	rec := httptest.NewRecorder()
	filesH.Delete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Ожидался статус 200 при удалении файла, получен %d", rec.Code)
	}

	// Кэш не должен пережить запись
	if rec := getThumbnail(t, thumbs, 1); rec.Code != http.StatusNotFound {
		t.Errorf("Ожидался статус 404 после удаления файла, получен %d", rec.Code)
	}
}

func TestThumbnailCachePurge(t *testing.T) {
	repo := newFakeThumbRepo()
	img := "base64-image-data"
	repo.records[7] = &model.FileRecord{ID: 7, Name: "clip.mp4", Locator: "/internal/clip.mp4", Thumbnail: &img}

	thumbs, err := NewThumbnailsHandler(repo, nil, testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания обработчика миниатюр: %v", err)
	}

	if rec := getThumbnail(t, thumbs, 7); rec.Code != http.StatusOK {
		t.Fatalf("Ожидался статус 200, получен %d", rec.Code)
	}

	// Запись исчезла в обход обработчиков (cleanup)
	delete(repo.records, 7)
	thumbs.Purge()

	if rec := getThumbnail(t, thumbs, 7); rec.Code != http.StatusNotFound {
		t.Errorf("Ожидался статус 404 после сброса кэша, получен %d", rec.Code)
	}
}
