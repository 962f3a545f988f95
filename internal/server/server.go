// Package server exposes the entity store over HTTP for the tracker clients.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tgienger/teamtrack/internal/models"
)

// Store is the entity store the server delegates to
type Store interface {
	CreateUser(ctx context.Context, username, profilePictureURL string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)

	CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)

	CreateTask(ctx context.Context, n models.NewTask) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error)

	CreateComment(ctx context.Context, n models.NewComment) (*models.Comment, error)
	ListCommentsByTask(ctx context.Context, taskID int64) ([]models.Comment, error)
	DeleteComment(ctx context.Context, taskID, commentID, requesterID int64) error
}

// Options configures the HTTP surface
type Options struct {
	Store    Store
	Log      *slog.Logger
	Registry *prometheus.Registry
	// Timeout bounds each store call; zero means no extra bound
	Timeout time.Duration
}

type api struct {
	store   Store
	log     *slog.Logger
	metrics *Metrics
	timeout time.Duration
}

// New builds the gin engine with every route registered
func New(opts Options) *gin.Engine {
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	registerValidators()

	a := &api{
		store:   opts.Store,
		log:     opts.Log,
		metrics: NewMetrics(opts.Registry),
		timeout: opts.Timeout,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), a.accessLog())
	setupRoutes(router, a, opts.Registry)
	return router
}

// setupRoutes registers the tracker API on router
func setupRoutes(router *gin.Engine, a *api, reg *prometheus.Registry) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	users := router.Group("/users")
	{
		users.POST("", a.createUser)
		users.GET("/:userId", a.getUser)
	}

	authed := router.Group("", requireUser())
	{
		authed.GET("/auth/user", a.currentUser)

		projects := authed.Group("/projects")
		{
			projects.GET("", a.listProjects)
			projects.POST("", a.createProject)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.GET("", a.listTasksByProject)
			tasks.GET("/user/:userId", a.listTasksByUser)
			tasks.POST("", a.createTask)
			tasks.PATCH("/:id", a.updateTask)
			tasks.DELETE("/:id", a.deleteTask)
			tasks.GET("/:id/comments", a.listComments)
			tasks.POST("/:id/comments", a.createComment)
			tasks.DELETE("/:id/comments/:commentId", a.deleteComment)
		}
	}
}

func (a *api) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), a.timeout)
}
