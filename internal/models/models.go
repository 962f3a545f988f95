package models

import (
	"fmt"
	"strings"
	"time"
)

// User is referenced by tasks and comments but never owned by them
type User struct {
	ID                int64  `json:"userId"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
}

// Project groups tasks
type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewProject holds the fields needed to create a project
type NewProject struct {
	Name        string     `json:"name" binding:"notblank"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// Attachment is a file reference attached when the task is created
type Attachment struct {
	ID       int64  `json:"id"`
	TaskID   int64  `json:"taskId"`
	FileURL  string `json:"fileURL"`
	FileName string `json:"fileName"`
}

// Task is the unit of trackable work
type Task struct {
	ID             int64        `json:"id"`
	ProjectID      int64        `json:"projectId"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         Status       `json:"status"`
	Priority       Priority     `json:"priority"`
	Tags           string       `json:"tags"`
	StartDate      *time.Time   `json:"startDate,omitempty"`
	DueDate        *time.Time   `json:"dueDate,omitempty"`
	AuthorUserID   int64        `json:"authorUserId"`
	AssignedUserID *int64       `json:"assignedUserId,omitempty"`
	Author         *User        `json:"author,omitempty"`   // resolved on read
	Assignee       *User        `json:"assignee,omitempty"` // resolved on read
	Attachments    []Attachment `json:"attachments"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// TagList splits the free-text tags for display
func (t Task) TagList() []string {
	return ParseTags(t.Tags)
}

// NewTask holds the fields needed to create a task. AuthorUserID is filled in
// from the caller's identity, never from the payload.
type NewTask struct {
	ProjectID      int64        `json:"projectId" binding:"required,gt=0"`
	Title          string       `json:"title" binding:"notblank"`
	Description    string       `json:"description"`
	Status         Status       `json:"status,omitempty"`
	Priority       Priority     `json:"priority,omitempty"`
	Tags           string       `json:"tags"`
	StartDate      *time.Time   `json:"startDate,omitempty"`
	DueDate        *time.Time   `json:"dueDate,omitempty"`
	AuthorUserID   int64        `json:"-"`
	AssignedUserID *int64       `json:"assignedUserId,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// WithDefaults fills an unset status and priority with ToDo and Backlog
func (n NewTask) WithDefaults() NewTask {
	if n.Status == 0 {
		n.Status = StatusToDo
	}
	if n.Priority == 0 {
		n.Priority = PriorityBacklog
	}
	return n
}

// Validate checks the invariants a task must satisfy before it is stored
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if n.ProjectID <= 0 {
		return fmt.Errorf("%w: project is required", ErrValidation)
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: invalid status", ErrValidation)
	}
	if !n.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority", ErrValidation)
	}
	if n.AssignedUserID != nil && *n.AssignedUserID <= 0 {
		return fmt.Errorf("%w: invalid assignee", ErrValidation)
	}
	for _, a := range n.Attachments {
		if strings.TrimSpace(a.FileURL) == "" {
			return fmt.Errorf("%w: attachment url is required", ErrValidation)
		}
	}
	return nil
}

// TaskPatch is a partial update. Nil fields are left untouched. There is no
// project field: a task stays in its project for its whole lifetime.
type TaskPatch struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	Priority       *Priority  `json:"priority,omitempty"`
	Tags           *string    `json:"tags,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	AssignedUserID *int64     `json:"assignedUserId,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p == TaskPatch{}
}

// Validate checks the fields that are present
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: invalid status", ErrValidation)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: invalid priority", ErrValidation)
	}
	if p.AssignedUserID != nil && *p.AssignedUserID <= 0 {
		return fmt.Errorf("%w: invalid assignee", ErrValidation)
	}
	return nil
}

// Comment is owned by its task and never edited
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *User     `json:"author,omitempty"`
}

// NewComment holds the fields needed to add a comment
type NewComment struct {
	TaskID   int64  `json:"-"`
	AuthorID int64  `json:"-"`
	Content  string `json:"content" binding:"notblank"`
}

// Validate rejects blank content
func (n NewComment) Validate() error {
	if strings.TrimSpace(n.Content) == "" {
		return fmt.Errorf("%w: comment content is required", ErrValidation)
	}
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a copy that shares no memory with p
func (p Project) Clone() Project {
	p.StartDate = clonePtr(p.StartDate)
	p.EndDate = clonePtr(p.EndDate)
	return p
}

// Clone returns a copy that shares no memory with t
func (t Task) Clone() Task {
	t.StartDate = clonePtr(t.StartDate)
	t.DueDate = clonePtr(t.DueDate)
	t.AssignedUserID = clonePtr(t.AssignedUserID)
	t.Author = clonePtr(t.Author)
	t.Assignee = clonePtr(t.Assignee)
	if t.Attachments != nil {
		t.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	return t
}

// Clone returns a copy that shares no memory with c
func (c Comment) Clone() Comment {
	c.Author = clonePtr(c.Author)
	return c
}
