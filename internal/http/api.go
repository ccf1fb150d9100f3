package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/auth"
	"taskmanager/internal/repository"
	"taskmanager/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Users   service.UserService
	Tasks   service.TaskService
	Exports service.ExportService
	Store   repository.Store

	// Tokens is nil when no signing secret is configured; no tokens are issued then.
	Tokens       *auth.TokenIssuer
	RequireToken bool

	Logger *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	tasks        service.TaskService
	exports      service.ExportService
	store        repository.Store
	tokens       *auth.TokenIssuer
	requireToken bool
	log          *logrus.Logger
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:        deps.Users,
		tasks:        deps.Tasks,
		exports:      deps.Exports,
		store:        deps.Store,
		tokens:       deps.Tokens,
		requireToken: deps.RequireToken && deps.Tokens != nil,
		log:          logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.log), corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.GET("/test-db", h.testDB)
		api.POST("/setup", h.setup)

		api.POST("/signup", h.signup)
		api.POST("/login", h.login)
	}

	protected := api.Group("", h.sessionMiddleware())
	{
		protected.GET("/users", h.listUsers)
		protected.DELETE("/users/:id", h.deleteUser)

		protected.POST("/tasks", h.createTask)
		protected.GET("/tasks", h.listAllTasks)
		protected.GET("/tasks/user/:userId", h.listUserTasks)
		protected.GET("/tasks/user/:userId/stats", h.taskStats)
		protected.POST("/tasks/user/:userId/export", h.exportTasks)
		protected.GET("/tasks/user/:userId/exports", h.listExports)
		protected.PUT("/tasks/:id", h.updateTask)
		protected.DELETE("/tasks/:id", h.deleteTask)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) testDB(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database connection failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database connected successfully!"})
}

func (h *Handler) setup(c *gin.Context) {
	if err := h.store.Migrate(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Users and tasks tables created successfully!"})
}

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + label + " id"})
		return 0, false
	}
	return id, true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
