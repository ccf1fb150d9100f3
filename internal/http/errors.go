package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/domain"
	"taskmanager/internal/service"
)

// statusFor maps domain and service errors to a status and client-facing message.
// Anything unrecognised is a 500 carrying the error text.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return http.StatusBadRequest, "All fields are required"
	case errors.Is(err, domain.ErrEmptyPatch):
		return http.StatusBadRequest, "At least one field must be provided for update"
	case errors.Is(err, domain.ErrInvalidTask):
		return http.StatusBadRequest, "Title must not be empty"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, domain.ErrDuplicateUser):
		return http.StatusConflict, "Username or email already exists"
	case errors.Is(err, domain.ErrOwnerNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "Task not found"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
