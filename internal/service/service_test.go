package service

// Общие фейки для тестов сервисов: in-memory реализация
// репозитория файлов поверх карты.

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
)

// testLogger — логгер, отбрасывающий вывод.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFileRepo — in-memory реализация repository.FileRepository.
type fakeFileRepo struct {
	records map[int64]*model.FileRecord
	nextID  int64

	// insertErr подменяет результат Insert.
	insertErr error
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{records: make(map[int64]*model.FileRecord), nextID: 1}
}

// add регистрирует запись напрямую, минуя Insert.
func (f *fakeFileRepo) add(name, locator string, size int64) *model.FileRecord {
	rec := &model.FileRecord{ID: f.nextID, Name: name, Locator: locator, Size: size}
	f.records[rec.ID] = rec
	f.nextID++
	return rec
}

func (f *fakeFileRepo) GetByID(_ context.Context, fileID int64) (*model.FileRecord, error) {
	rec, ok := f.records[fileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeFileRepo) List(_ context.Context, params repository.ListParams) ([]*model.FileRecord, int, error) {
	all := f.sorted()
	offset := (params.Page - 1) * params.PageSize
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (f *fakeFileRepo) All(_ context.Context) ([]*model.FileRecord, error) {
	return f.sorted(), nil
}

func (f *fakeFileRepo) Insert(_ context.Context, rec *model.FileRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.records {
		if existing.Name == rec.Name || existing.Locator == rec.Locator {
			return repository.ErrAlreadyExists
		}
	}
	rec.ID = f.nextID
	f.nextID++
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeFileRepo) Rename(_ context.Context, fileID int64, newName string) error {
	rec, ok := f.records[fileID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range f.records {
		if id != fileID && existing.Name == newName {
			return repository.ErrAlreadyExists
		}
	}
	rec.Name = newName
	return nil
}

func (f *fakeFileRepo) SetThumbnail(_ context.Context, fileID int64, thumbnail string) error {
	rec, ok := f.records[fileID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Thumbnail = &thumbnail
	return nil
}

func (f *fakeFileRepo) UpdateLocator(_ context.Context, fileID int64, locator string) error {
	rec, ok := f.records[fileID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Locator = locator
	return nil
}

func (f *fakeFileRepo) Delete(_ context.Context, fileID int64) error {
	if _, ok := f.records[fileID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.records, fileID)
	return nil
}

func (f *fakeFileRepo) NameExists(_ context.Context, name string) (bool, error) {
	for _, rec := range f.records {
		if rec.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFileRepo) LocatorExists(_ context.Context, locator string) (bool, error) {
	for _, rec := range f.records {
		if rec.Locator == locator {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFileRepo) sorted() []*model.FileRecord {
	out := make([]*model.FileRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
