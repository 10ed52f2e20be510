// Пакет filestore — реализация storage.Storage поверх локальной
// файловой системы. Локатор — абсолютный путь файла на диске.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/mediagate/internal/storage"
)

// Предел перебора суффиксов " (n)" при коллизии имён.
const maxNameAttempts = 1000

// DiskStore — дисковое хранилище файлов.
type DiskStore struct{}

// New создаёт дисковое хранилище и готовит перечисленные корни.
// Пустые корни (ненастроенные) пропускаются.
func New(roots ...string) (*DiskStore, error) {
	for _, root := range roots {
		if root == "" {
			continue
		}
		if err := os.MkdirAll(root, 0o750); err != nil {
			return nil, fmt.Errorf("не удалось создать корень хранилища %s: %w", root, err)
		}
	}
	return &DiskStore{}, nil
}

// Open открывает файл по локатору для чтения.
func (ds *DiskStore) Open(locator string) (storage.File, error) {
	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", locator, err)
	}
	return f, nil
}

// Stat возвращает информацию о файле по локатору.
func (ds *DiskStore) Stat(locator string) (os.FileInfo, error) {
	info, err := os.Stat(locator)
	if err != nil {
		return nil, fmt.Errorf("ошибка stat %s: %w", locator, err)
	}
	return info, nil
}

// List возвращает обычные файлы в корне root (не рекурсивно).
// Временные файлы загрузок (*.part) не включаются.
func (ds *DiskStore) List(root string) ([]storage.Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", root, err)
	}

	entries := make([]storage.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(de.Name(), ".part") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, storage.Entry{
			Name:    de.Name(),
			Locator: filepath.Join(root, de.Name()),
			Size:    info.Size(),
		})
	}
	return entries, nil
}

// Exists сообщает, разрешается ли локатор в существующий обычный файл.
func (ds *DiskStore) Exists(locator string) bool {
	info, err := os.Stat(locator)
	return err == nil && info.Mode().IsRegular()
}

// CreateTemp создаёт уникальный временный файл загрузки в корне root.
// Формат имени: upload-{timestamp}-{uuid}.part.
func (ds *DiskStore) CreateTemp(root string) (*os.File, error) {
	name := fmt.Sprintf("upload-%d-%s.part", time.Now().UnixNano(), uuid.New().String())
	f, err := os.OpenFile(filepath.Join(root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	return f, nil
}

// Promote переименовывает временный файл в постоянное имя.
// При коллизии (файл на диске или taken(name)) к имени добавляется
// суффикс " (n)" перед расширением: video.mp4 → video (1).mp4.
func (ds *DiskStore) Promote(tempLocator, root, name string, taken func(name string) bool) (string, string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		candidate := name
		if n > 0 {
			candidate = suffixedName(name, n)
		}

		target := filepath.Join(root, candidate)
		if ds.Exists(target) {
			continue
		}
		if taken != nil && taken(candidate) {
			continue
		}

		if err := os.Rename(tempLocator, target); err != nil {
			return "", "", fmt.Errorf("ошибка переименования %s → %s: %w", tempLocator, target, err)
		}
		return target, candidate, nil
	}
	return "", "", fmt.Errorf("не удалось подобрать свободное имя для %s", name)
}

// Remove удаляет файл по локатору. Отсутствующий файл не ошибка.
func (ds *DiskStore) Remove(locator string) error {
	err := os.Remove(locator)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления %s: %w", locator, err)
	}
	return nil
}

// suffixedName вставляет суффикс " (n)" перед расширением имени файла.
func suffixedName(name string, n int) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}
