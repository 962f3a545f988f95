package mutation

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tgienger/teamtrack/internal/models"
)

// fakeStore is an in-memory entity store that enforces the same rules as the
// SQLite one and counts write calls
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	tasks    map[int64]models.Task
	comments map[int64]models.Comment
	writes   int
	failNext error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: map[int64]models.Task{}, comments: map[int64]models.Comment{}}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) fail() error {
	f.writes++
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) CreateTask(_ context.Context, n models.NewTask) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	n = n.WithDefaults()
	if err := n.Validate(); err != nil {
		return nil, err
	}
	t := models.Task{
		ID: f.id(), ProjectID: n.ProjectID, Title: n.Title, Description: n.Description,
		Status: n.Status, Priority: n.Priority, Tags: n.Tags, StartDate: n.StartDate,
		DueDate: n.DueDate, AuthorUserID: n.AuthorUserID, AssignedUserID: n.AssignedUserID,
	}
	f.tasks[t.ID] = t
	return &t, nil
}

func (f *fakeStore) UpdateTask(_ context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.StartDate != nil {
		t.StartDate = p.StartDate
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.AssignedUserID != nil {
		t.AssignedUserID = p.AssignedUserID
	}
	f.tasks[id] = t
	return &t, nil
}

func (f *fakeStore) DeleteTask(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	delete(f.tasks, id)
	for cid, c := range f.comments {
		if c.TaskID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeStore) CreateComment(_ context.Context, n models.NewComment) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if _, ok := f.tasks[n.TaskID]; !ok {
		return nil, fmt.Errorf("task %d: %w", n.TaskID, models.ErrNotFound)
	}
	c := models.Comment{ID: f.id(), TaskID: n.TaskID, AuthorID: n.AuthorID, Content: n.Content}
	f.comments[c.ID] = c
	return &c, nil
}

func (f *fakeStore) DeleteComment(_ context.Context, taskID, commentID, requesterID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(); err != nil {
		return err
	}
	c, ok := f.comments[commentID]
	if !ok || c.TaskID != taskID {
		return fmt.Errorf("comment %d: %w", commentID, models.ErrNotFound)
	}
	if c.AuthorID != requesterID {
		return fmt.Errorf("comment %d: %w", commentID, models.ErrForbidden)
	}
	delete(f.comments, commentID)
	return nil
}

func (f *fakeStore) ListProjects(context.Context) ([]models.Project, error) {
	return []models.Project{}, nil
}

func (f *fakeStore) ListTasksByUser(_ context.Context, userID int64) ([]models.Task, error) {
	return f.filterTasks(func(t models.Task) bool {
		return t.AuthorUserID == userID || (t.AssignedUserID != nil && *t.AssignedUserID == userID)
	}), nil
}

func (f *fakeStore) ListTasksByProject(_ context.Context, projectID int64) ([]models.Task, error) {
	return f.filterTasks(func(t models.Task) bool { return t.ProjectID == projectID }), nil
}

func (f *fakeStore) ListCommentsByTask(_ context.Context, taskID int64) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Comment{}
	for _, c := range f.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.Comment) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f *fakeStore) filterTasks(keep func(models.Task) bool) []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Task{}
	for _, t := range f.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.Task) int { return int(a.ID - b.ID) })
	return out
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}
