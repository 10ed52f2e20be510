package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bigkaa/mediagate/internal/storage/filestore"
)

// makeConsistencyFixture поднимает хранилище с одним корнем и сервис сверки.
func makeConsistencyFixture(t *testing.T) (*ConsistencyService, *fakeFileRepo, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания хранилища: %v", err)
	}
	repo := newFakeFileRepo()
	svc := NewConsistencyService(repo, store, []string{dir}, testLogger())
	return svc, repo, dir
}

// writeFile создаёт файл в корне хранилища и возвращает его локатор.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	locator := filepath.Join(dir, name)
	if err := os.WriteFile(locator, []byte(content), 0o644); err != nil {
		t.Fatalf("ошибка подготовки файла: %v", err)
	}
	return locator
}

// TestCleanupRemovesDeadRecords проверяет, что удаляются ровно записи
// без файла, а живые не трогаются.
func TestCleanupRemovesDeadRecords(t *testing.T) {
	svc, repo, dir := makeConsistencyFixture(t)

	aliveLocator := writeFile(t, dir, "alive.mp4", "data")
	alive := repo.add("alive.mp4", aliveLocator, 4)
	dead := repo.add("dead.mp4", filepath.Join(dir, "dead.mp4"), 10)

	removed, err := svc.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("Cleanup вернул ошибку: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, ожидался 1", removed)
	}
	if _, ok := repo.records[alive.ID]; !ok {
		t.Error("Cleanup удалил живую запись")
	}
	if _, ok := repo.records[dead.ID]; ok {
		t.Error("Cleanup не удалил мёртвую запись")
	}
}

// TestCleanupIdempotent проверяет, что повторный запуск ничего не удаляет.
func TestCleanupIdempotent(t *testing.T) {
	svc, repo, dir := makeConsistencyFixture(t)

	repo.add("dead.mp4", filepath.Join(dir, "dead.mp4"), 10)

	if _, err := svc.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup вернул ошибку: %v", err)
	}
	removed, err := svc.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("повторный Cleanup вернул ошибку: %v", err)
	}
	if removed != 0 {
		t.Errorf("повторный Cleanup удалил %d записей, ожидался 0", removed)
	}
}

// TestScanRegistersOrphans проверяет регистрацию файлов без записей.
func TestScanRegistersOrphans(t *testing.T) {
	svc, repo, dir := makeConsistencyFixture(t)

	knownLocator := writeFile(t, dir, "known.mp4", "data")
	repo.add("known.mp4", knownLocator, 4)
	writeFile(t, dir, "orphan.mp4", "orphan data")

	added, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan вернул ошибку: %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, ожидался 1", added)
	}

	exists, _ := repo.NameExists(context.Background(), "orphan.mp4")
	if !exists {
		t.Error("Scan не зарегистрировал файл без записи")
	}

	// Повторный Scan ничего не добавляет
	added, err = svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("повторный Scan вернул ошибку: %v", err)
	}
	if added != 0 {
		t.Errorf("повторный Scan добавил %d записей, ожидался 0", added)
	}
}

// TestScanSkipsNameConflict проверяет, что файл с именем, занятым
// другой записью, пропускается без прерывания сканирования.
func TestScanSkipsNameConflict(t *testing.T) {
	svc, repo, dir := makeConsistencyFixture(t)

	// Запись с таким именем уже указывает на другой локатор
	repo.add("taken.mp4", filepath.Join(dir, "elsewhere", "taken.mp4"), 5)
	writeFile(t, dir, "taken.mp4", "conflicting")
	writeFile(t, dir, "fresh.mp4", "fresh")

	added, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan вернул ошибку: %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, ожидался 1 (конфликт имени пропускается)", added)
	}
}

// TestRepairRewritesLocator проверяет перенацеливание записи на файл,
// найденный по имени в корне хранилища.
func TestRepairRewritesLocator(t *testing.T) {
	svc, repo, dir := makeConsistencyFixture(t)

	moved := writeFile(t, dir, "moved.mp4", "data")
	rec := repo.add("moved.mp4", filepath.Join(dir, "old-location", "moved.mp4"), 4)

	repaired, err := svc.Repair(context.Background())
	if err != nil {
		t.Fatalf("Repair вернул ошибку: %v", err)
	}
	if repaired != 1 {
		t.Errorf("repaired = %d, ожидался 1", repaired)
	}
	if repo.records[rec.ID].Locator != moved {
		t.Errorf("locator = %q, ожидался %q", repo.records[rec.ID].Locator, moved)
	}
}

// TestRepairLeavesHealthy проверяет, что записи с живым локатором
// не перенацеливаются.
func TestRepairLeavesHealthy(t *testing.T) {
	svc, repo, dir := makeConsistencyFixture(t)

	locator := writeFile(t, dir, "healthy.mp4", "data")
	rec := repo.add("healthy.mp4", locator, 4)

	repaired, err := svc.Repair(context.Background())
	if err != nil {
		t.Fatalf("Repair вернул ошибку: %v", err)
	}
	if repaired != 0 {
		t.Errorf("repaired = %d, ожидался 0", repaired)
	}
	if repo.records[rec.ID].Locator != locator {
		t.Error("Repair изменил локатор живой записи")
	}
}

// TestReconcileMutualExclusion проверяет, что параллельный запуск
// операций сверки отклоняется ErrReconcileInProgress.
func TestReconcileMutualExclusion(t *testing.T) {
	svc, _, _ := makeConsistencyFixture(t)

	if err := svc.acquire(); err != nil {
		t.Fatalf("acquire вернул ошибку: %v", err)
	}
	defer svc.release()

	if _, err := svc.Cleanup(context.Background()); !errors.Is(err, ErrReconcileInProgress) {
		t.Errorf("Cleanup: err = %v, ожидался ErrReconcileInProgress", err)
	}
	if _, err := svc.Scan(context.Background()); !errors.Is(err, ErrReconcileInProgress) {
		t.Errorf("Scan: err = %v, ожидался ErrReconcileInProgress", err)
	}
	if _, err := svc.Repair(context.Background()); !errors.Is(err, ErrReconcileInProgress) {
		t.Errorf("Repair: err = %v, ожидался ErrReconcileInProgress", err)
	}
}

// TestSetThumbnailUnknownFile проверяет, что миниатюра не создаёт
// запись неявно.
func TestSetThumbnailUnknownFile(t *testing.T) {
	svc, _, _ := makeConsistencyFixture(t)

	if err := svc.SetThumbnail(context.Background(), 42, "base64data"); err == nil {
		t.Error("SetThumbnail принял несуществующую запись")
	}
}
