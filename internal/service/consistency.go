// consistency.go — сервис сверки хранилища метаданных с дисками.
//
// Направления сверки:
//   - Cleanup: запись без файла на диске → запись удаляется
//   - Scan: файл на диске без записи → запись создаётся
//   - Repair: запись с мёртвым локатором, но файл с тем же именем
//     найден в одном из корней → локатор переписывается
//
// Cleanup идемпотентен: повторный запуск ничего не удаляет.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bigkaa/mediagate/internal/api/middleware"
	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
	"github.com/bigkaa/mediagate/internal/storage"
)

// ConsistencyService — сервис сверки метаданных и физического хранилища.
type ConsistencyService struct {
	files  repository.FileRepository
	store  storage.Storage
	roots  []string
	logger *slog.Logger

	mu        sync.Mutex // защита от параллельного запуска сверки
	inProcess bool
}

// NewConsistencyService создаёт сервис сверки.
// roots — настроенные корни хранилища (пустые пропускаются).
func NewConsistencyService(files repository.FileRepository, store storage.Storage, roots []string, logger *slog.Logger) *ConsistencyService {
	active := make([]string, 0, len(roots))
	for _, r := range roots {
		if r != "" {
			active = append(active, r)
		}
	}
	return &ConsistencyService{
		files:  files,
		store:  store,
		roots:  active,
		logger: logger.With(slog.String("component", "consistency")),
	}
}

// ErrReconcileInProgress — сверка уже выполняется.
var ErrReconcileInProgress = errors.New("сверка уже выполняется")

// acquire блокирует повторный вход в операции сверки.
func (cs *ConsistencyService) acquire() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.inProcess {
		return ErrReconcileInProgress
	}
	cs.inProcess = true
	return nil
}

func (cs *ConsistencyService) release() {
	cs.mu.Lock()
	cs.inProcess = false
	cs.mu.Unlock()
}

// Cleanup удаляет записи, локаторы которых больше не разрешаются
// в существующий файл. Возвращает количество удалённых записей.
func (cs *ConsistencyService) Cleanup(ctx context.Context) (int, error) {
	if err := cs.acquire(); err != nil {
		return 0, err
	}
	defer cs.release()

	records, err := cs.files.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка выборки записей для сверки: %w", err)
	}

	removed := 0
	for _, rec := range records {
		if cs.store.Exists(rec.Locator) {
			continue
		}
		if err := cs.files.Delete(ctx, rec.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return removed, fmt.Errorf("ошибка удаления записи %d: %w", rec.ID, err)
		}
		removed++
		cs.logger.Info("Запись без файла удалена",
			slog.Int64("file_id", rec.ID),
			slog.String("name", rec.Name),
			slog.String("locator", rec.Locator),
		)
	}

	middleware.CleanupRemovedTotal.Add(float64(removed))
	cs.logger.Info("Сверка завершена",
		slog.Int("checked", len(records)),
		slog.Int("removed", removed),
	)
	return removed, nil
}

// Scan обходит настроенные корни и создаёт записи для файлов,
// у которых нет строки метаданных. Возвращает количество созданных.
func (cs *ConsistencyService) Scan(ctx context.Context) (int, error) {
	if err := cs.acquire(); err != nil {
		return 0, err
	}
	defer cs.release()

	added := 0
	for _, root := range cs.roots {
		entries, err := cs.store.List(root)
		if err != nil {
			return added, fmt.Errorf("ошибка листинга корня %s: %w", root, err)
		}

		for _, entry := range entries {
			known, err := cs.files.LocatorExists(ctx, entry.Locator)
			if err != nil {
				return added, fmt.Errorf("ошибка проверки локатора: %w", err)
			}
			if known {
				continue
			}

			rec := &model.FileRecord{
				Name:    entry.Name,
				Locator: entry.Locator,
				Size:    entry.Size,
			}
			if err := cs.files.Insert(ctx, rec); err != nil {
				if errors.Is(err, repository.ErrAlreadyExists) {
					// Имя занято другой записью: файл остаётся на диске,
					// оператор разбирает коллизию вручную
					cs.logger.Warn("Файл пропущен при сканировании: имя занято",
						slog.String("name", entry.Name),
						slog.String("locator", entry.Locator),
					)
					continue
				}
				return added, fmt.Errorf("ошибка регистрации файла %s: %w", entry.Name, err)
			}
			added++
		}
	}

	cs.logger.Info("Сканирование корней завершено", slog.Int("added", added))
	return added, nil
}

// Repair переписывает мёртвые локаторы: если файл записи пропал,
// но в одном из корней лежит файл с тем же именем, запись
// перенацеливается на него. Возвращает количество исправленных записей.
func (cs *ConsistencyService) Repair(ctx context.Context) (int, error) {
	if err := cs.acquire(); err != nil {
		return 0, err
	}
	defer cs.release()

	records, err := cs.files.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка выборки записей для починки: %w", err)
	}

	repaired := 0
	for _, rec := range records {
		if cs.store.Exists(rec.Locator) {
			continue
		}

		locator, found := cs.findByName(rec.Name)
		if !found {
			continue
		}

		if err := cs.files.UpdateLocator(ctx, rec.ID, locator); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) || errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return repaired, fmt.Errorf("ошибка починки записи %d: %w", rec.ID, err)
		}
		repaired++
		cs.logger.Info("Локатор записи исправлен",
			slog.Int64("file_id", rec.ID),
			slog.String("name", rec.Name),
			slog.String("locator", locator),
		)
	}

	cs.logger.Info("Починка локаторов завершена", slog.Int("repaired", repaired))
	return repaired, nil
}

// SetThumbnail сохраняет миниатюру записи.
// repository.ErrNotFound если записи нет: миниатюра никогда
// не создаёт запись неявно.
func (cs *ConsistencyService) SetThumbnail(ctx context.Context, fileID int64, imageData string) error {
	return cs.files.SetThumbnail(ctx, fileID, imageData)
}

// findByName ищет файл с данным именем в корнях хранилища.
func (cs *ConsistencyService) findByName(name string) (string, bool) {
	for _, root := range cs.roots {
		entries, err := cs.store.List(root)
		if err != nil {
			cs.logger.Warn("Ошибка листинга корня при починке",
				slog.String("root", root),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, entry := range entries {
			if entry.Name == name {
				return entry.Locator, true
			}
		}
	}
	return "", false
}
