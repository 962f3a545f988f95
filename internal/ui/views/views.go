// Package views holds the bubbletea screens: the project picker, the task
// views (list, table, board) and the comment thread.
package views

import (
	"context"
	"log/slog"
	"time"

	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/mutation"
)

// requestTimeout bounds each store call issued from a view
const requestTimeout = 15 * time.Second

// ProjectCreator creates projects; the mutation service only covers tasks
// and comments
type ProjectCreator interface {
	CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error)
}

// Deps are the collaborators shared by every view
type Deps struct {
	Data     *cache.Layer
	Mutate   *mutation.Service
	Projects ProjectCreator
	User     models.User
	Log      *slog.Logger
}

func (d Deps) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Log
}

// Navigation messages, handled by the app
type (
	SelectedProject struct{ Project models.Project }
	OpenMyTasks     struct{}
	BackToProjects  struct{}
	OpenComments    struct{ Task models.Task }
	BackToTasks     struct{}
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func username(u *models.User, fallback string) string {
	if u == nil || u.Username == "" {
		return fallback
	}
	return u.Username
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return models.FormatDate(t)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
