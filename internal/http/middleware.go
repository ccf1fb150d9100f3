package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/auth"
)

const claimsKey = "session.claims"

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// sessionMiddleware validates bearer tokens when they are enforced and is a
// pass-through otherwise.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.requireToken {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}

		claims, err := h.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// authorize answers 403 when tokens are enforced and the session belongs to
// someone other than userID.
func (h *Handler) authorize(c *gin.Context, userID int64) bool {
	if !h.requireToken {
		return true
	}
	value, ok := c.Get(claimsKey)
	claims, _ := value.(*auth.Claims)
	if !ok || claims == nil || claims.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to act on another user's data"})
		return false
	}
	return true
}
