// Package mutation validates and normalizes task and comment changes before
// handing them to the entity store, and tells the client cache what went
// stale once the store has confirmed them.
package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/models"
)

// Store is the write half of the entity store contract
type Store interface {
	CreateTask(ctx context.Context, n models.NewTask) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	CreateComment(ctx context.Context, n models.NewComment) (*models.Comment, error)
	DeleteComment(ctx context.Context, taskID, commentID, requesterID int64) error
}

// Invalidator marks cached collections stale after a confirmed mutation
type Invalidator interface {
	Apply(kind cache.MutationKind, a cache.Affected) int
}

// Service applies mutations on behalf of one user
type Service struct {
	store       Store
	invalidator Invalidator
	userID      int64
	log         *slog.Logger
}

// NewService creates a service acting as userID
func NewService(store Store, invalidator Invalidator, userID int64, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, invalidator: invalidator, userID: userID, log: log}
}

// UserID is the identity mutations are attributed to
func (s *Service) UserID() int64 {
	return s.userID
}

// Fields is a task form as entered by a user. Nil fields are not submitted;
// blank dates and assignee count as not submitted.
type Fields struct {
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	Tags           *string
	StartDate      *string
	DueDate        *string
	AssignedUserID *string
}

// Patch normalizes the form into a store patch. Date-only values become full
// timestamps; the assignee text becomes a numeric id.
func (f Fields) Patch() (models.TaskPatch, error) {
	var p models.TaskPatch

	if f.Title != nil {
		title := strings.TrimSpace(*f.Title)
		if title == "" {
			return p, fmt.Errorf("%w: title is required", models.ErrValidation)
		}
		p.Title = &title
	}
	p.Description = f.Description
	p.Tags = f.Tags

	if f.Status != nil {
		st, err := models.ParseStatus(*f.Status)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if f.Priority != nil {
		pr, err := models.ParsePriority(*f.Priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if v := trimmed(f.StartDate); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return p, err
		}
		p.StartDate = &d
	}
	if v := trimmed(f.DueDate); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return p, err
		}
		p.DueDate = &d
	}
	if v := trimmed(f.AssignedUserID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return p, fmt.Errorf("%w: assignee must be a user id, got %q", models.ErrValidation, v)
		}
		p.AssignedUserID = &id
	}
	return p, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// CreateTask creates a task in projectID authored by the service's user.
// The title is required; status and priority default to ToDo and Backlog.
func (s *Service) CreateTask(ctx context.Context, projectID int64, f Fields) (*models.Task, error) {
	if f.Title == nil {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	p, err := f.Patch()
	if err != nil {
		return nil, err
	}

	n := models.NewTask{
		ProjectID:      projectID,
		Title:          *p.Title,
		AuthorUserID:   s.userID,
		AssignedUserID: p.AssignedUserID,
		StartDate:      p.StartDate,
		DueDate:        p.DueDate,
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Tags != nil {
		n.Tags = *p.Tags
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	n = n.WithDefaults()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	task, err := s.store.CreateTask(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.invalidate(cache.TaskCreated, cache.Affected{TaskID: task.ID, ProjectID: task.ProjectID})
	return task, nil
}

// UpdateTaskStatus sets any status from any other; only membership is checked
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID int64, status models.Status) (*models.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %d", models.ErrValidation, int(status))
	}
	return s.update(ctx, taskID, models.TaskPatch{Status: &status})
}

// ToggleStatus flips a task between Completed and WorkInProgress. A failure
// is returned to the caller like any other mutation failure.
func (s *Service) ToggleStatus(ctx context.Context, task models.Task) (*models.Task, error) {
	updated, err := s.UpdateTaskStatus(ctx, task.ID, task.Status.Toggled())
	if err != nil {
		s.log.Warn("status toggle failed", "task", task.ID, "from", task.Status.String(), "error", err)
		return nil, err
	}
	return updated, nil
}

// UpdateTaskFields applies a partial form update
func (s *Service) UpdateTaskFields(ctx context.Context, taskID int64, f Fields) (*models.Task, error) {
	p, err := f.Patch()
	if err != nil {
		return nil, err
	}
	return s.update(ctx, taskID, p)
}

func (s *Service) update(ctx context.Context, taskID int64, p models.TaskPatch) (*models.Task, error) {
	if taskID <= 0 {
		return nil, fmt.Errorf("%w: task id is required", models.ErrValidation)
	}
	task, err := s.store.UpdateTask(ctx, taskID, p)
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", taskID, err)
	}
	s.invalidate(cache.TaskUpdated, cache.Affected{TaskID: task.ID, ProjectID: task.ProjectID})
	return task, nil
}

// DeleteTask removes a task and, through the store, its comments
func (s *Service) DeleteTask(ctx context.Context, taskID int64) error {
	if taskID <= 0 {
		return fmt.Errorf("%w: task id is required", models.ErrValidation)
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("delete task %d: %w", taskID, err)
	}
	s.invalidate(cache.TaskDeleted, cache.Affected{TaskID: taskID})
	return nil
}

// AddComment posts a comment as the service's user. Blank content is rejected
// without contacting the store.
func (s *Service) AddComment(ctx context.Context, taskID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment content is required", models.ErrValidation)
	}
	if taskID <= 0 {
		return nil, fmt.Errorf("%w: task id is required", models.ErrValidation)
	}

	c, err := s.store.CreateComment(ctx, models.NewComment{TaskID: taskID, AuthorID: s.userID, Content: content})
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	s.invalidate(cache.CommentAdded, cache.Affected{TaskID: taskID})
	return c, nil
}

// CanDeleteComment reports whether the delete affordance should be shown.
// The store still makes the final decision.
func (s *Service) CanDeleteComment(c models.Comment) bool {
	return c.AuthorID == s.userID
}

// DeleteComment asks the store to delete a comment on behalf of the
// service's user
func (s *Service) DeleteComment(ctx context.Context, taskID, commentID int64) error {
	if err := s.store.DeleteComment(ctx, taskID, commentID, s.userID); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	s.invalidate(cache.CommentDeleted, cache.Affected{TaskID: taskID})
	return nil
}

func (s *Service) invalidate(kind cache.MutationKind, a cache.Affected) {
	if s.invalidator == nil {
		return
	}
	n := s.invalidator.Apply(kind, a)
	s.log.Debug("mutation applied", "kind", kind.String(), "task", a.TaskID, "stale_collections", n)
}
