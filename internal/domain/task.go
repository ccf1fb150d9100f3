package domain

import "time"

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// OwnerUsername is only populated by listings joined with users.
	OwnerUsername string
}

// TaskStats aggregates completion counts for a single user.
type TaskStats struct {
	Total     int64
	Completed int64
	Pending   int64
}

// TaskPatch is a sparse update. Only fields marked Set are written.
type TaskPatch struct {
	Title       Optional[string]  `json:"title"`
	Description Optional[*string] `json:"description"`
	Completed   Optional[bool]    `json:"completed"`
}

// Empty reports whether the patch carries no fields at all.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Completed.Set
}
