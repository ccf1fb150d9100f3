package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/domain"
)

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}
	if !h.authorize(c, id) {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}

	var warnings []string
	if h.exports != nil {
		purgeCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		if err := h.exports.PurgeExports(purgeCtx, id); err != nil {
			h.log.WithError(err).WithField("user_id", id).Warn("purge exports")
			warnings = append(warnings, fmt.Sprintf("delete exports: %v", err))
		}
	}

	resp := gin.H{"message": "User deleted!", "deletedUserId": id}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}
