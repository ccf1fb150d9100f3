package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmanager/internal/domain"
	"taskmanager/internal/repository"
	"taskmanager/internal/storage"
)

// ErrStorageNotConfigured is returned when exports are requested without a bucket.
var ErrStorageNotConfigured = errors.New("storage service not configured")

// Export describes an uploaded snapshot of one user's tasks.
type Export struct {
	Key      string
	Location string
	URL      string
	Stats    domain.TaskStats
}

// ExportOptions locates exports inside the bucket.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// ExportService writes task snapshots to object storage.
type ExportService interface {
	Export(ctx context.Context, userID int64) (*Export, error)
	ListExports(ctx context.Context, userID int64) ([]storage.ObjectInfo, error)
	PurgeExports(ctx context.Context, userID int64) error
}

type exportService struct {
	tasks   repository.TaskRepository
	storage storage.Service
	opts    ExportOptions
	now     func() time.Time
}

func NewExportService(tasks repository.TaskRepository, store storage.Service, opts ExportOptions) ExportService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = 15 * time.Minute
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &exportService{
		tasks:   tasks,
		storage: store,
		opts:    opts,
		now:     time.Now,
	}
}

type exportDocument struct {
	UserID     int64          `json:"user_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Stats      exportStats    `json:"stats"`
	Tasks      []exportedTask `json:"tasks"`
}

type exportStats struct {
	Total     int64 `json:"total_tasks"`
	Completed int64 `json:"completed_tasks"`
	Pending   int64 `json:"pending_tasks"`
}

type exportedTask struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func exportTask(task domain.Task) exportedTask {
	return exportedTask{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func (s *exportService) configured() bool {
	return s.storage != nil && s.opts.Bucket != ""
}

func (s *exportService) userPrefix(userID int64) string {
	return path.Join(s.opts.KeyPrefix, fmt.Sprintf("user-%d", userID)) + "/"
}

func (s *exportService) Export(ctx context.Context, userID int64) (*Export, error) {
	if !s.configured() {
		return nil, ErrStorageNotConfigured
	}

	tasks, err := s.tasks.ListByUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	stats, err := s.tasks.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc := exportDocument{
		UserID:     userID,
		ExportedAt: s.now().UTC(),
		Stats:      exportStats{Total: stats.Total, Completed: stats.Completed, Pending: stats.Pending},
		Tasks:      make([]exportedTask, len(tasks)),
	}
	for i := range tasks {
		doc.Tasks[i] = exportTask(tasks[i])
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := s.userPrefix(userID) + fmt.Sprintf("%s-%s.json", doc.ExportedAt.Format("20060102T150405Z"), uuid.NewString())
	location, err := s.storage.PutObject(ctx, s.opts.Bucket, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	url, err := s.storage.GetObjectURL(ctx, s.opts.Bucket, key, s.opts.URLExpiry)
	if err != nil {
		return nil, err
	}

	return &Export{Key: key, Location: location, URL: url, Stats: stats}, nil
}

func (s *exportService) ListExports(ctx context.Context, userID int64) ([]storage.ObjectInfo, error) {
	if !s.configured() {
		return nil, ErrStorageNotConfigured
	}
	return s.storage.ListObjects(ctx, s.opts.Bucket, s.userPrefix(userID))
}

// PurgeExports is a no-op when storage is not configured.
func (s *exportService) PurgeExports(ctx context.Context, userID int64) error {
	if !s.configured() {
		return nil
	}
	return s.storage.DeletePrefix(ctx, s.opts.Bucket, s.userPrefix(userID))
}
