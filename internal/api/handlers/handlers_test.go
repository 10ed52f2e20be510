package handlers

// Общие фейки для тестов обработчиков: in-memory репозитории
// исполнителей и файлов.

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
)

// testLogger — логгер, отбрасывающий вывод.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePerformerRepo — in-memory реализация repository.PerformerRepository.
type fakePerformerRepo struct {
	performers map[int64]*model.Performer
	nextID     int64
}

func newFakePerformerRepo() *fakePerformerRepo {
	return &fakePerformerRepo{performers: make(map[int64]*model.Performer), nextID: 1}
}

func (f *fakePerformerRepo) Create(_ context.Context, name string) (*model.Performer, error) {
	for _, p := range f.performers {
		if p.Name == name {
			return nil, repository.ErrAlreadyExists
		}
	}
	p := &model.Performer{ID: f.nextID, Name: name}
	f.performers[p.ID] = p
	f.nextID++
	return p, nil
}

func (f *fakePerformerRepo) List(_ context.Context) ([]*model.Performer, error) {
	out := make([]*model.Performer, 0, len(f.performers))
	for _, p := range f.performers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePerformerRepo) GetByID(_ context.Context, performerID int64) (*model.Performer, error) {
	p, ok := f.performers[performerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePerformerRepo) Update(_ context.Context, performerID int64, name string) error {
	p, ok := f.performers[performerID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range f.performers {
		if id != performerID && other.Name == name {
			return repository.ErrAlreadyExists
		}
	}
	p.Name = name
	return nil
}

func (f *fakePerformerRepo) Delete(_ context.Context, performerID int64) error {
	if _, ok := f.performers[performerID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.performers, performerID)
	return nil
}

func (f *fakePerformerRepo) DeleteMany(_ context.Context, performerIDs []int64) (int, error) {
	deleted := 0
	for _, id := range performerIDs {
		if _, ok := f.performers[id]; ok {
			delete(f.performers, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakePerformerRepo) Associate(_ context.Context, _, _ int64) error {
	return nil
}

func (f *fakePerformerRepo) ListByFile(_ context.Context, _ int64) ([]*model.Performer, error) {
	return nil, nil
}

// fakeListFileRepo — реализация repository.FileRepository для тестов
// листинга: страница вырезается из отсортированного среза.
type fakeListFileRepo struct {
	repository.FileRepository // паника на неиспользуемых методах
	records                   []*model.FileRecord
}

func (f *fakeListFileRepo) List(_ context.Context, params repository.ListParams) ([]*model.FileRecord, int, error) {
	all := make([]*model.FileRecord, len(f.records))
	copy(all, f.records)

	switch params.SortKey {
	case repository.SortNameAsc:
		sort.Slice(all, func(i, j int) bool {
			return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
		})
	case repository.SortNameDesc:
		sort.Slice(all, func(i, j int) bool {
			return strings.ToLower(all[i].Name) > strings.ToLower(all[j].Name)
		})
	default:
		sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	}

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
