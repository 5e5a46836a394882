package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plastinin/geo2topo/internal/domain"
)

const taskColumns = `id, status, format, file_name, file_key, sidecar_keys, result_key, result_size, error, created_at, updated_at, completed_at`

// TaskRepository реализация репозитория задач для PostgreSQL
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository создаёт новый экземпляр TaskRepository
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create создаёт новую задачу в БД
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO conversion_tasks (id, status, format, file_name, file_key, sidecar_keys, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	sidecars := task.SidecarKeys
	if sidecars == nil {
		sidecars = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Status,
		task.Format,
		task.FileName,
		task.FileKey,
		sidecars,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// GetByID возвращает задачу по ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM conversion_tasks WHERE id = $1`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// Update обновляет задачу в БД
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE conversion_tasks
		SET status = $2, result_key = $3, result_size = $4, error = $5, updated_at = $6, completed_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Status,
		nullString(task.ResultKey),
		task.ResultSize,
		nullString(task.Error),
		task.UpdatedAt,
		task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// Delete удаляет задачу из БД
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM conversion_tasks WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// List возвращает список задач с пагинацией и фильтрацией
func (r *TaskRepository) List(ctx context.Context, filter domain.TaskFilter, pagination domain.Pagination) (*domain.TaskListResult, error) {
	baseQuery, args := buildFilter(filter)
	argIndex := len(args) + 1

	// Запрос на подсчёт общего количества
	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	// Запрос на получение данных
	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, taskColumns, baseQuery, argIndex, argIndex+1)

	args = append(args, pagination.Limit(), pagination.Offset())

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return &domain.TaskListResult{
		Tasks:      tasks,
		Total:      total,
		Pagination: pagination,
	}, nil
}

// buildFilter собирает WHERE часть запроса и её аргументы
func buildFilter(filter domain.TaskFilter) (string, []any) {
	query := `FROM conversion_tasks WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Format != nil {
		args = append(args, *filter.Format)
		query += fmt.Sprintf(" AND format = $%d", len(args))
	}

	return query, args
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	task := &domain.Task{}
	// Указатели для NULL
	var resultKey, errorMsg *string

	err := row.Scan(
		&task.ID,
		&task.Status,
		&task.Format,
		&task.FileName,
		&task.FileKey,
		&task.SidecarKeys,
		&resultKey,
		&task.ResultSize,
		&errorMsg,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if resultKey != nil {
		task.ResultKey = *resultKey
	}
	if errorMsg != nil {
		task.Error = *errorMsg
	}

	return task, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
