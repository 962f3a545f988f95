package cache

import (
	"context"

	"github.com/tgienger/teamtrack/internal/models"
)

// Reader is the read half of the entity store contract
type Reader interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error)
	ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error)
	ListCommentsByTask(ctx context.Context, taskID int64) ([]models.Comment, error)
}

// Layer serves typed collections to views, fetching through the Reader on a
// miss. Returned slices are copies so callers cannot alter cached data.
type Layer struct {
	*Cache
	reader Reader
}

// NewLayer wires a cache in front of reader
func NewLayer(c *Cache, reader Reader) *Layer {
	return &Layer{Cache: c, reader: reader}
}

func (l *Layer) Projects(ctx context.Context) ([]models.Project, error) {
	v, err := Get(ctx, l.Cache, Key{Kind: KindProjects}, l.reader.ListProjects)
	return cloneAll(v), err
}

func (l *Layer) TasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	v, err := Get(ctx, l.Cache, Key{Kind: KindTasksByUser, ID: userID}, func(ctx context.Context) ([]models.Task, error) {
		return l.reader.ListTasksByUser(ctx, userID)
	})
	return cloneAll(v), err
}

func (l *Layer) TasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	v, err := Get(ctx, l.Cache, Key{Kind: KindTasksByProject, ID: projectID}, func(ctx context.Context) ([]models.Task, error) {
		return l.reader.ListTasksByProject(ctx, projectID)
	})
	return cloneAll(v), err
}

func (l *Layer) CommentsByTask(ctx context.Context, taskID int64) ([]models.Comment, error) {
	v, err := Get(ctx, l.Cache, Key{Kind: KindCommentsByTask, ID: taskID}, func(ctx context.Context) ([]models.Comment, error) {
		return l.reader.ListCommentsByTask(ctx, taskID)
	})
	return cloneAll(v), err
}

type cloner[T any] interface {
	Clone() T
}

// cloneAll deep-copies every element so pointer fields are not shared with
// the cached entry
func cloneAll[T cloner[T]](v []T) []T {
	if v == nil {
		return nil
	}
	out := make([]T, len(v))
	for i := range v {
		out[i] = v[i].Clone()
	}
	return out
}
