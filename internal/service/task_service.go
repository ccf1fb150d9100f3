package service

import (
	"context"
	"strings"

	"taskmanager/internal/domain"
	"taskmanager/internal/repository"
)

// TaskService coordinates task level operations backed by repositories.
type TaskService interface {
	CreateTask(ctx context.Context, userID int64, title string, description *string) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	ListByUser(ctx context.Context, userID int64, completed *bool) ([]domain.Task, error)
	ListWithOwner(ctx context.Context) ([]domain.Task, error)
	Stats(ctx context.Context, userID int64) (domain.TaskStats, error)
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type taskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) CreateTask(ctx context.Context, userID int64, title string, description *string) (*domain.Task, error) {
	title = strings.TrimSpace(title)
	if userID <= 0 || title == "" {
		return nil, ErrMissingFields
	}
	// an empty description is stored as NULL
	if description != nil && *description == "" {
		description = nil
	}
	return s.tasks.Create(ctx, userID, title, description)
}

func (s *taskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.tasks.Get(ctx, id)
}

func (s *taskService) ListByUser(ctx context.Context, userID int64, completed *bool) ([]domain.Task, error) {
	return s.tasks.ListByUser(ctx, userID, completed)
}

func (s *taskService) ListWithOwner(ctx context.Context) ([]domain.Task, error) {
	return s.tasks.ListWithOwner(ctx)
}

func (s *taskService) Stats(ctx context.Context, userID int64) (domain.TaskStats, error) {
	return s.tasks.Stats(ctx, userID)
}

func (s *taskService) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}
	if patch.Title.Set {
		patch.Title.Value = strings.TrimSpace(patch.Title.Value)
		if patch.Title.Value == "" {
			return nil, domain.ErrInvalidTask
		}
	}
	return s.tasks.Update(ctx, id, patch)
}

func (s *taskService) DeleteTask(ctx context.Context, id int64) error {
	return s.tasks.Delete(ctx, id)
}
