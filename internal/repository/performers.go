package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/mediagate/internal/domain/model"
)

// PerformerRepository — интерфейс доступа к исполнителям и их связям с файлами.
type PerformerRepository interface {
	// Create создаёт исполнителя. ErrAlreadyExists при занятом имени.
	Create(ctx context.Context, name string) (*model.Performer, error)
	// List возвращает всех исполнителей по имени.
	List(ctx context.Context) ([]*model.Performer, error)
	// GetByID возвращает исполнителя по id.
	GetByID(ctx context.Context, performerID int64) (*model.Performer, error)
	// Update изменяет имя исполнителя.
	Update(ctx context.Context, performerID int64, name string) error
	// Delete удаляет исполнителя; связи удаляются каскадно.
	Delete(ctx context.Context, performerID int64) error
	// DeleteMany удаляет несколько исполнителей, возвращает число удалённых.
	DeleteMany(ctx context.Context, performerIDs []int64) (int, error)
	// Associate создаёт связь файл—исполнитель. Пара уникальна;
	// повторная связь — ErrAlreadyExists.
	Associate(ctx context.Context, fileID, performerID int64) error
	// ListByFile возвращает исполнителей, связанных с файлом.
	ListByFile(ctx context.Context, fileID int64) ([]*model.Performer, error)
}

// performerRepo — реализация PerformerRepository через pgx.
type performerRepo struct {
	db DBTX
}

// NewPerformerRepository создаёт репозиторий исполнителей.
func NewPerformerRepository(db DBTX) PerformerRepository {
	return &performerRepo{db: db}
}

func (r *performerRepo) Create(ctx context.Context, name string) (*model.Performer, error) {
	p := &model.Performer{Name: name}
	err := r.db.QueryRow(ctx,
		`INSERT INTO performers (name) VALUES ($1) RETURNING id`, name,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("ошибка создания исполнителя: %w", err)
	}
	return p, nil
}

func (r *performerRepo) List(ctx context.Context) ([]*model.Performer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM performers ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("ошибка листинга исполнителей: %w", err)
	}
	defer rows.Close()

	var performers []*model.Performer
	for rows.Next() {
		p := &model.Performer{}
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("ошибка чтения исполнителя: %w", err)
		}
		performers = append(performers, p)
	}
	return performers, rows.Err()
}

func (r *performerRepo) GetByID(ctx context.Context, performerID int64) (*model.Performer, error) {
	p := &model.Performer{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM performers WHERE id = $1`, performerID,
	).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения исполнителя: %w", err)
	}
	return p, nil
}

func (r *performerRepo) Update(ctx context.Context, performerID int64, name string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE performers SET name = $2 WHERE id = $1`, performerID, name)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("ошибка обновления исполнителя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *performerRepo) Delete(ctx context.Context, performerID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM performers WHERE id = $1`, performerID)
	if err != nil {
		return fmt.Errorf("ошибка удаления исполнителя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *performerRepo) DeleteMany(ctx context.Context, performerIDs []int64) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM performers WHERE id = ANY($1)`, performerIDs)
	if err != nil {
		return 0, fmt.Errorf("ошибка массового удаления исполнителей: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *performerRepo) Associate(ctx context.Context, fileID, performerID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO file_performer (file_id, performer_id) VALUES ($1, $2)`,
		fileID, performerID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("ошибка связывания файла с исполнителем: %w", err)
	}
	return nil
}

func (r *performerRepo) ListByFile(ctx context.Context, fileID int64) ([]*model.Performer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.name FROM performers p
		JOIN file_performer fp ON fp.performer_id = p.id
		WHERE fp.file_id = $1 ORDER BY lower(p.name)`, fileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка листинга исполнителей файла: %w", err)
	}
	defer rows.Close()

	var performers []*model.Performer
	for rows.Next() {
		p := &model.Performer{}
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("ошибка чтения исполнителя: %w", err)
		}
		performers = append(performers, p)
	}
	return performers, rows.Err()
}
