package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/mediagate/internal/domain/model"
)

// CategoryRepository — интерфейс доступа к категориям и их связям с файлами.
type CategoryRepository interface {
	// Create создаёт категорию. ErrAlreadyExists при занятом имени.
	Create(ctx context.Context, name string) (*model.Category, error)
	// List возвращает все категории по имени.
	List(ctx context.Context) ([]*model.Category, error)
	// Delete удаляет категорию; связи удаляются каскадно.
	Delete(ctx context.Context, categoryID int64) error
	// Associate создаёт связь файл—категория.
	Associate(ctx context.Context, fileID, categoryID int64) error
	// ListByFile возвращает категории, связанные с файлом.
	ListByFile(ctx context.Context, fileID int64) ([]*model.Category, error)
}

// categoryRepo — реализация CategoryRepository через pgx.
type categoryRepo struct {
	db DBTX
}

// NewCategoryRepository создаёт репозиторий категорий.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) Create(ctx context.Context, name string) (*model.Category, error) {
	c := &model.Category{Name: name}
	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("ошибка создания категории: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("ошибка листинга категорий: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("ошибка чтения категории: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepo) Delete(ctx context.Context, categoryID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("ошибка удаления категории: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepo) Associate(ctx context.Context, fileID, categoryID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO file_category (file_id, category_id) VALUES ($1, $2)`,
		fileID, categoryID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("ошибка связывания файла с категорией: %w", err)
	}
	return nil
}

func (r *categoryRepo) ListByFile(ctx context.Context, fileID int64) ([]*model.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.name FROM categories c
		JOIN file_category fc ON fc.category_id = c.id
		WHERE fc.file_id = $1 ORDER BY lower(c.name)`, fileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка листинга категорий файла: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("ошибка чтения категории: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
