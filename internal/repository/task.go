package repository

import (
	"context"

	"taskmanager/internal/domain"
)

// TaskRepository exposes persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, userID int64, title string, description *string) (*domain.Task, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	ListByUser(ctx context.Context, userID int64, completed *bool) ([]domain.Task, error)
	ListWithOwner(ctx context.Context) ([]domain.Task, error)
	Stats(ctx context.Context, userID int64) (domain.TaskStats, error)
	Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
}
