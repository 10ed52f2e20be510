package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/mediagate/internal/domain/model"
)

// fileColumns — список столбцов таблицы files для SELECT-запросов листинга.
// Миниатюры не включаются: они запрашиваются отдельно по id.
const fileColumns = `f.id, f.name, f.locator, f.size`

// Ключи сортировки листинга файлов.
const (
	SortLatest   = "latest"
	SortOldest   = "oldest"
	SortSizeAsc  = "size-asc"
	SortSizeDesc = "size-desc"
	SortNameAsc  = "name-asc"
	SortNameDesc = "name-desc"
)

// sortClauses — безопасный whitelist ORDER BY по ключу сортировки.
// Сортировка по имени — регистронезависимая.
var sortClauses = map[string]string{
	SortLatest:   "f.id DESC",
	SortOldest:   "f.id ASC",
	SortSizeAsc:  "f.size ASC, f.id DESC",
	SortSizeDesc: "f.size DESC, f.id DESC",
	SortNameAsc:  "lower(f.name) ASC, f.id DESC",
	SortNameDesc: "lower(f.name) DESC, f.id DESC",
}

// ListParams — параметры листинга файлов.
type ListParams struct {
	// Page — номер страницы, начиная с 1.
	Page int
	// PageSize — фиксированный размер страницы.
	PageSize int
	// SortKey — ключ сортировки; неизвестный ключ трактуется как latest.
	SortKey string
	// PerformerID — фильтр по исполнителю, nil — без фильтра.
	PerformerID *int64
}

// buildOrderBy возвращает ORDER BY для ключа сортировки.
// Неизвестные ключи откатываются к latest.
func buildOrderBy(sortKey string) string {
	clause, ok := sortClauses[sortKey]
	if !ok {
		clause = sortClauses[SortLatest]
	}
	return "ORDER BY " + clause
}

// BuildFileListQuery строит запрос листинга и запрос общего количества.
// offset = (page-1) * pageSize. При фильтре по исполнителю запрос
// идёт через таблицу связей file_performer, и общее количество — это
// количество связанных строк, а не глобальный счётчик.
func BuildFileListQuery(params ListParams) (dataSQL, countSQL string, args []any) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * params.PageSize
	orderBy := buildOrderBy(params.SortKey)

	if params.PerformerID != nil {
		dataSQL = fmt.Sprintf(
			`SELECT %s FROM files f
			JOIN file_performer fp ON fp.file_id = f.id
			WHERE fp.performer_id = $1 %s LIMIT $2 OFFSET $3`,
			fileColumns, orderBy,
		)
		countSQL = `SELECT count(*) FROM file_performer WHERE performer_id = $1`
		args = []any{*params.PerformerID, params.PageSize, offset}
		return dataSQL, countSQL, args
	}

	dataSQL = fmt.Sprintf(
		`SELECT %s FROM files f %s LIMIT $1 OFFSET $2`,
		fileColumns, orderBy,
	)
	countSQL = `SELECT count(*) FROM files`
	args = []any{params.PageSize, offset}
	return dataSQL, countSQL, args
}

// FileRepository — интерфейс доступа к записям файлов.
type FileRepository interface {
	// GetByID возвращает запись по id (включая миниатюру).
	GetByID(ctx context.Context, fileID int64) (*model.FileRecord, error)
	// List возвращает страницу листинга и общее количество.
	List(ctx context.Context, params ListParams) ([]*model.FileRecord, int, error)
	// All возвращает все записи без миниатюр (для сверки хранилища).
	All(ctx context.Context) ([]*model.FileRecord, error)
	// Insert создаёт запись и заполняет ID.
	Insert(ctx context.Context, f *model.FileRecord) error
	// Rename изменяет имя файла. ErrAlreadyExists при занятом имени.
	Rename(ctx context.Context, fileID int64, newName string) error
	// SetThumbnail сохраняет миниатюру записи.
	SetThumbnail(ctx context.Context, fileID int64, thumbnail string) error
	// UpdateLocator переписывает локатор записи.
	UpdateLocator(ctx context.Context, fileID int64, locator string) error
	// Delete удаляет запись по id.
	Delete(ctx context.Context, fileID int64) error
	// NameExists сообщает, занято ли имя файла.
	NameExists(ctx context.Context, name string) (bool, error)
	// LocatorExists сообщает, есть ли запись с данным локатором.
	LocatorExists(ctx context.Context, locator string) (bool, error)
}

// fileRepo — реализация FileRepository через pgx.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) GetByID(ctx context.Context, fileID int64) (*model.FileRecord, error) {
	f := &model.FileRecord{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, locator, thumbnail, size FROM files WHERE id = $1`, fileID,
	).Scan(&f.ID, &f.Name, &f.Locator, &f.Thumbnail, &f.Size)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) List(ctx context.Context, params ListParams) ([]*model.FileRecord, int, error) {
	dataSQL, countSQL, args := BuildFileListQuery(params)

	var total int
	// Аргументы count-запроса — только фильтр (без LIMIT/OFFSET)
	countArgs := args[:len(args)-2]
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта файлов: %w", err)
	}

	rows, err := r.db.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка листинга файлов: %w", err)
	}
	defer rows.Close()

	var files []*model.FileRecord
	for rows.Next() {
		f := &model.FileRecord{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Locator, &f.Size); err != nil {
			return nil, 0, fmt.Errorf("ошибка чтения строки файла: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка обхода листинга: %w", err)
	}
	return files, total, nil
}

func (r *fileRepo) All(ctx context.Context) ([]*model.FileRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, locator, size FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки всех файлов: %w", err)
	}
	defer rows.Close()

	var files []*model.FileRecord
	for rows.Next() {
		f := &model.FileRecord{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Locator, &f.Size); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки файла: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *fileRepo) Insert(ctx context.Context, f *model.FileRecord) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO files (name, locator, size) VALUES ($1, $2, $3) RETURNING id`,
		f.Name, f.Locator, f.Size,
	).Scan(&f.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("ошибка вставки файла: %w", err)
	}
	return nil
}

func (r *fileRepo) Rename(ctx context.Context, fileID int64, newName string) error {
	tag, err := r.db.Exec(ctx, `UPDATE files SET name = $2 WHERE id = $1`, fileID, newName)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("ошибка переименования файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) SetThumbnail(ctx context.Context, fileID int64, thumbnail string) error {
	tag, err := r.db.Exec(ctx, `UPDATE files SET thumbnail = $2 WHERE id = $1`, fileID, thumbnail)
	if err != nil {
		return fmt.Errorf("ошибка сохранения миниатюры: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) UpdateLocator(ctx context.Context, fileID int64, locator string) error {
	tag, err := r.db.Exec(ctx, `UPDATE files SET locator = $2 WHERE id = $1`, fileID, locator)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("ошибка обновления локатора: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) Delete(ctx context.Context, fileID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM files WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки имени: %w", err)
	}
	return exists, nil
}

func (r *fileRepo) LocatorExists(ctx context.Context, locator string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM files WHERE locator = $1)`, locator,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки локатора: %w", err)
	}
	return exists, nil
}
