package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/bigkaa/mediagate/internal/config"
	"github.com/bigkaa/mediagate/internal/storage"
	"github.com/bigkaa/mediagate/internal/storage/filestore"
)

// uploadConfig — конфигурация с малым резервом свободного места.
func uploadConfig(internalRoot string) *config.Config {
	return &config.Config{
		InternalRoot:     internalRoot,
		FreeSpaceReserve: 1 << 20, // 1 MiB, чтобы тесты проходили на любом диске
	}
}

// multipartBody собирает multipart-тело с полем uploadTarget и файлом.
func multipartBody(t *testing.T, target, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if target != "" {
		if err := mw.WriteField("uploadTarget", target); err != nil {
			t.Fatalf("ошибка записи поля: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("ошибка создания файловой части: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("ошибка записи содержимого: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("ошибка закрытия multipart: %v", err)
	}
	return buf, mw.FormDataContentType()
}

// TestReceiveSuccess проверяет полный конвейер: файл лежит на диске
// под именем клиента, запись метаданных создана.
func TestReceiveSuccess(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}
	repo := newFakeFileRepo()
	svc := NewUploadService(uploadConfig(dir), store, repo, testLogger())

	content := []byte("test video payload")
	body, contentType := multipartBody(t, "internal", "clip.mp4", content)

	rec, uploadErr := svc.Receive(context.Background(), contentType, int64(body.Len()), body)
	if uploadErr != nil {
		t.Fatalf("Receive вернул ошибку: %v", uploadErr)
	}
	if rec.Name != "clip.mp4" {
		t.Errorf("name = %q, ожидался clip.mp4", rec.Name)
	}
	if rec.Size != int64(len(content)) {
		t.Errorf("size = %d, ожидался %d", rec.Size, len(content))
	}

	got, err := os.ReadFile(filepath.Join(dir, "clip.mp4"))
	if err != nil {
		t.Fatalf("файл не найден на диске: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("содержимое на диске не совпадает с загруженным")
	}

	// Временных файлов не осталось
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("в корне %d файлов, ожидался 1", len(entries))
	}
}

// TestReceiveNameCollision проверяет суффикс " (1)" при занятом имени.
func TestReceiveNameCollision(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("old"), 0o644); err != nil {
		t.Fatalf("ошибка подготовки: %v", err)
	}
	repo := newFakeFileRepo()
	svc := NewUploadService(uploadConfig(dir), store, repo, testLogger())

	body, contentType := multipartBody(t, "internal", "clip.mp4", []byte("new"))
	rec, uploadErr := svc.Receive(context.Background(), contentType, int64(body.Len()), body)
	if uploadErr != nil {
		t.Fatalf("Receive вернул ошибку: %v", uploadErr)
	}
	if rec.Name != "clip (1).mp4" {
		t.Errorf("name = %q, ожидался clip (1).mp4", rec.Name)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip (1).mp4")); err != nil {
		t.Errorf("файл под суффиксным именем не найден: %v", err)
	}
	// Исходный файл не тронут
	if got, _ := os.ReadFile(filepath.Join(dir, "clip.mp4")); string(got) != "old" {
		t.Error("существующий файл был перезаписан")
	}
}

// TestReceiveMetadataCollision проверяет, что имя, занятое только
// в метаданных (файла на диске нет), тоже получает суффикс.
func TestReceiveMetadataCollision(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}
	repo := newFakeFileRepo()
	repo.add("clip.mp4", filepath.Join(dir, "elsewhere", "clip.mp4"), 3)
	svc := NewUploadService(uploadConfig(dir), store, repo, testLogger())

	body, contentType := multipartBody(t, "internal", "clip.mp4", []byte("new"))
	rec, uploadErr := svc.Receive(context.Background(), contentType, int64(body.Len()), body)
	if uploadErr != nil {
		t.Fatalf("Receive вернул ошибку: %v", uploadErr)
	}
	if rec.Name != "clip (1).mp4" {
		t.Errorf("name = %q, ожидался clip (1).mp4", rec.Name)
	}
}

// TestReceiveUnknownTarget проверяет 400 для неизвестной цели загрузки.
func TestReceiveUnknownTarget(t *testing.T) {
	dir := t.TempDir()
	store, _ := filestore.New(dir)
	svc := NewUploadService(uploadConfig(dir), store, newFakeFileRepo(), testLogger())

	body, contentType := multipartBody(t, "../../etc", "clip.mp4", []byte("x"))
	_, uploadErr := svc.Receive(context.Background(), contentType, int64(body.Len()), body)
	if uploadErr == nil {
		t.Fatal("Receive принял неизвестную цель загрузки")
	}
	if uploadErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, ожидался 400", uploadErr.StatusCode)
	}
}

// TestReceiveMissingBoundary проверяет 400 при отсутствии boundary.
func TestReceiveMissingBoundary(t *testing.T) {
	dir := t.TempDir()
	store, _ := filestore.New(dir)
	svc := NewUploadService(uploadConfig(dir), store, newFakeFileRepo(), testLogger())

	_, uploadErr := svc.Receive(context.Background(), "multipart/form-data", 100, bytes.NewReader([]byte("x")))
	if uploadErr == nil {
		t.Fatal("Receive принял Content-Type без boundary")
	}
	if uploadErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, ожидался 400", uploadErr.StatusCode)
	}
}

// TestReceiveMissingContentLength проверяет 400 без Content-Length.
func TestReceiveMissingContentLength(t *testing.T) {
	dir := t.TempDir()
	store, _ := filestore.New(dir)
	svc := NewUploadService(uploadConfig(dir), store, newFakeFileRepo(), testLogger())

	body, contentType := multipartBody(t, "internal", "clip.mp4", []byte("x"))
	_, uploadErr := svc.Receive(context.Background(), contentType, -1, body)
	if uploadErr == nil {
		t.Fatal("Receive принял запрос без Content-Length")
	}
	if uploadErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, ожидался 400", uploadErr.StatusCode)
	}
}

// TestReceiveNoFilePart проверяет 400 для тела без файловой части.
func TestReceiveNoFilePart(t *testing.T) {
	dir := t.TempDir()
	store, _ := filestore.New(dir)
	svc := NewUploadService(uploadConfig(dir), store, newFakeFileRepo(), testLogger())

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("uploadTarget", "internal"); err != nil {
		t.Fatalf("ошибка записи поля: %v", err)
	}
	mw.Close()

	_, uploadErr := svc.Receive(context.Background(), mw.FormDataContentType(), int64(buf.Len()), buf)
	if uploadErr == nil {
		t.Fatal("Receive принял тело без файловой части")
	}
	if uploadErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, ожидался 400", uploadErr.StatusCode)
	}
}

// lowSpaceStorage — хранилище, сообщающее о нехватке места.
// CreateTemp фиксирует факт записи на диск.
type lowSpaceStorage struct {
	storage.Storage
	free        int64
	tempCreated bool
}

func (s *lowSpaceStorage) FreeSpace(string) (int64, error) {
	return s.free, nil
}

func (s *lowSpaceStorage) CreateTemp(root string) (*os.File, error) {
	s.tempCreated = true
	return s.Storage.CreateTemp(root)
}

// TestReceiveInsufficientStorage проверяет 507 до записи первого байта:
// квота (free - Content-Length < reserve) отклоняет загрузку, не создавая
// временный файл.
func TestReceiveInsufficientStorage(t *testing.T) {
	dir := t.TempDir()
	inner, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}
	store := &lowSpaceStorage{Storage: inner, free: 1 << 20}

	cfg := uploadConfig(dir)
	cfg.FreeSpaceReserve = 1 << 20

	svc := NewUploadService(cfg, store, newFakeFileRepo(), testLogger())

	body, contentType := multipartBody(t, "internal", "big.mp4", []byte("payload"))
	_, uploadErr := svc.Receive(context.Background(), contentType, int64(body.Len()), body)
	if uploadErr == nil {
		t.Fatal("Receive принял загрузку при нехватке места")
	}
	if uploadErr.StatusCode != http.StatusInsufficientStorage {
		t.Errorf("status = %d, ожидался 507", uploadErr.StatusCode)
	}
	if store.tempCreated {
		t.Error("временный файл создан до проверки квоты")
	}
}

// TestReceiveCleanupOnInsertFailure проверяет, что временный файл
// удаляется, если запись метаданных не удалась.
func TestReceiveCleanupOnInsertFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}
	repo := newFakeFileRepo()
	repo.insertErr = os.ErrClosed
	svc := NewUploadService(uploadConfig(dir), store, repo, testLogger())

	body, contentType := multipartBody(t, "internal", "clip.mp4", []byte("x"))
	_, uploadErr := svc.Receive(context.Background(), contentType, int64(body.Len()), body)
	if uploadErr == nil {
		t.Fatal("Receive не вернул ошибку при сбое метаданных")
	}
	if uploadErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, ожидался 500", uploadErr.StatusCode)
	}

	// Временных *.part файлов не осталось
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".part" {
			t.Errorf("остался временный файл %q", e.Name())
		}
	}
}
