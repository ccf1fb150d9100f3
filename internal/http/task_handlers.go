package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/domain"
	"taskmanager/internal/service"
	"taskmanager/internal/storage"
)

type createTaskRequest struct {
	UserID      int64   `json:"user_id" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

type TaskResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	Username    string  `json:"username,omitempty"`
}

type StatsResponse struct {
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
}

type ExportObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func taskToResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   formatTime(task.CreatedAt),
		UpdatedAt:   formatTime(task.UpdatedAt),
		Username:    task.OwnerUsername,
	}
}

func tasksToResponse(tasks []domain.Task) []TaskResponse {
	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = taskToResponse(tasks[i])
	}
	return resp
}

func objectToResponse(obj storage.ObjectInfo) ExportObjectResponse {
	resp := ExportObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func (h *Handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and title are required")
		return
	}
	if !h.authorize(c, req.UserID) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), req.UserID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			badRequest(c, "user_id and title are required")
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task created successfully!", "task": taskToResponse(*task)})
}

func (h *Handler) listAllTasks(c *gin.Context) {
	tasks, err := h.tasks.ListWithOwner(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponse(tasks))
}

func (h *Handler) listUserTasks(c *gin.Context) {
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	if !h.authorize(c, userID) {
		return
	}

	var completed *bool
	if raw, present := c.GetQuery("completed"); present {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "completed must be true or false")
			return
		}
		completed = &v
	}

	tasks, err := h.tasks.ListByUser(c.Request.Context(), userID, completed)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponse(tasks))
}

func (h *Handler) taskStats(c *gin.Context) {
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	if !h.authorize(c, userID) {
		return
	}

	stats, err := h.tasks.Stats(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		TotalTasks:     stats.Total,
		CompletedTasks: stats.Completed,
		PendingTasks:   stats.Pending,
	})
}

func (h *Handler) updateTask(c *gin.Context) {
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}

	var patch domain.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return
	}
	if patch.Empty() {
		h.fail(c, domain.ErrEmptyPatch)
		return
	}
	if !h.authorizeTask(c, id) {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully!", "task": taskToResponse(*task)})
}

func (h *Handler) deleteTask(c *gin.Context) {
	id, ok := pathID(c, "id", "task")
	if !ok {
		return
	}
	if !h.authorizeTask(c, id) {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully!", "deletedTaskId": id})
}

// authorizeTask checks ownership of an existing task when tokens are enforced.
func (h *Handler) authorizeTask(c *gin.Context, id int64) bool {
	if !h.requireToken {
		return true
	}
	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return false
	}
	return h.authorize(c, task.UserID)
}

func (h *Handler) exportTasks(c *gin.Context) {
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	if !h.authorize(c, userID) {
		return
	}
	if h.exports == nil {
		h.fail(c, service.ErrStorageNotConfigured)
		return
	}

	export, err := h.exports.Export(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Tasks exported successfully!",
		"key":      export.Key,
		"location": export.Location,
		"url":      export.URL,
		"stats": StatsResponse{
			TotalTasks:     export.Stats.Total,
			CompletedTasks: export.Stats.Completed,
			PendingTasks:   export.Stats.Pending,
		},
	})
}

func (h *Handler) listExports(c *gin.Context) {
	userID, ok := pathID(c, "userId", "user")
	if !ok {
		return
	}
	if !h.authorize(c, userID) {
		return
	}
	if h.exports == nil {
		h.fail(c, service.ErrStorageNotConfigured)
		return
	}

	objects, err := h.exports.ListExports(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]ExportObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}
