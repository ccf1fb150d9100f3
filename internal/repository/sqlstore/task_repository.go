package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/domain"
	"taskmanager/internal/repository"
)

const taskColumns = `tasks.id, tasks.user_id, tasks.title, tasks.description, tasks.completed, tasks.created_at, tasks.updated_at`

type TaskRepository struct {
	store *Store
}

func NewTaskRepository(store *Store) repository.TaskRepository {
	return &TaskRepository{store: store}
}

// Create inserts the task and reads it back in the same transaction.
func (r *TaskRepository) Create(ctx context.Context, userID int64, title string, description *string) (*domain.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.ErrInvalidTask
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		userID,
		title,
		nullString(description),
		false,
		now,
		now,
	)
	if err != nil {
		if r.store.foreignKeyViolation(err) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task insert: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListByUser returns the user's tasks newest first, optionally filtered by completion.
func (r *TaskRepository) ListByUser(ctx context.Context, userID int64, completed *bool) ([]domain.Task, error) {
	var (
		sb   strings.Builder
		args = []any{userID}
	)

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE tasks.user_id = ?`)
	if completed != nil {
		sb.WriteString(` AND tasks.completed = ?`)
		args = append(args, *completed)
	}
	sb.WriteString(` ORDER BY tasks.created_at DESC, tasks.id DESC`)

	rows, err := r.store.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks by user: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// ListWithOwner returns every task joined with its owner's username.
func (r *TaskRepository) ListWithOwner(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.store.db.QueryContext(ctx, `
SELECT `+taskColumns+`, users.username
FROM tasks
INNER JOIN users ON tasks.user_id = users.id
ORDER BY tasks.created_at DESC, tasks.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tasks with owner: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var (
			task        domain.Task
			description sql.NullString
		)
		if err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&description,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
			&task.OwnerUsername,
		); err != nil {
			return nil, fmt.Errorf("scan task with owner: %w", err)
		}
		normalizeTask(&task, description)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Stats counts completed and pending tasks in one pass; total is their sum so
// the three numbers can never disagree.
func (r *TaskRepository) Stats(ctx context.Context, userID int64) (domain.TaskStats, error) {
	var stats domain.TaskStats
	err := r.store.db.QueryRowContext(ctx, `
SELECT
	COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN completed = 1 THEN 0 ELSE 1 END), 0)
FROM tasks
WHERE user_id = ?`,
		userID,
	).Scan(&stats.Completed, &stats.Pending)
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("query task stats: %w", err)
	}
	stats.Total = stats.Completed + stats.Pending
	return stats, nil
}

// Update writes only the fields present in the patch and always refreshes updated_at.
func (r *TaskRepository) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}
	if patch.Title.Set && strings.TrimSpace(patch.Title.Value) == "" {
		return nil, domain.ErrInvalidTask
	}

	var (
		sets []string
		args []any
	)
	if patch.Title.Set {
		sets = append(sets, "title = ?")
		args = append(args, patch.Title.Value)
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullString(patch.Description.Value))
	}
	if patch.Completed.Set {
		sets = append(sets, "completed = ?")
		args = append(args, patch.Completed.Value)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("task update rows affected: %w", err)
	}
	if aff == 0 {
		return nil, domain.ErrTaskNotFound
	}

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task update: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task delete rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task        domain.Task
		description sql.NullString
	)
	if err := scanner.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	normalizeTask(&task, description)
	return &task, nil
}

func normalizeTask(task *domain.Task, description sql.NullString) {
	if description.Valid {
		d := description.String
		task.Description = &d
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
