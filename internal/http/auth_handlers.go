package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/domain"
	"taskmanager/internal/service"
)

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}

	user, err := h.users.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{
		"message":  "User created successfully!",
		"userId":   user.ID,
		"username": user.Username,
	}
	if !h.attachToken(c, resp, user) {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Username and password are required")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			badRequest(c, "Username and password are required")
			return
		}
		h.fail(c, err)
		return
	}

	resp := gin.H{
		"message":  "Login successful!",
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
	}
	if !h.attachToken(c, resp, user) {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) attachToken(c *gin.Context, resp gin.H, user *domain.User) bool {
	if h.tokens == nil {
		return true
	}
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.fail(c, err)
		return false
	}
	resp["token"] = token
	return true
}
