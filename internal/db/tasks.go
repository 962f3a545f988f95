package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/teamtrack/internal/models"
)

const taskColumns = `
	t.id, t.project_id, t.title, t.description, t.status, t.priority, t.tags,
	t.start_date, t.due_date, t.author_user_id, t.assigned_user_id, t.created_at, t.updated_at,
	a.id, a.username, a.profile_picture_url,
	s.id, s.username, s.profile_picture_url
	FROM tasks t
	LEFT JOIN users a ON a.id = t.author_user_id
	LEFT JOIN users s ON s.id = t.assigned_user_id
`

// CreateTask creates a new task, defaulting status and priority, together with
// its attachments
func (db *DB) CreateTask(ctx context.Context, n models.NewTask) (*models.Task, error) {
	n = n.WithDefaults()
	if err := n.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM projects WHERE id = ?", n.ProjectID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: unknown project %d", models.ErrValidation, n.ProjectID)
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (project_id, title, description, status, priority, tags,
				start_date, due_date, author_user_id, assigned_user_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, n.ProjectID, n.Title, n.Description, n.Status.String(), n.Priority.String(), n.Tags,
			n.StartDate, n.DueDate, n.AuthorUserID, n.AssignedUserID)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return err
		}

		for _, a := range n.Attachments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO attachments (task_id, file_url, file_name) VALUES (?, ?, ?)
			`, id, a.FileURL, a.FileName); err != nil {
				return fmt.Errorf("create attachment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return db.GetTask(ctx, id)
}

// GetTask retrieves a task by ID with its attachments and resolved users
func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	row := db.QueryRowContext(ctx, "SELECT "+taskColumns+" WHERE t.id = ?", id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound(err, "task", id)
	}

	attachments, err := db.GetTaskAttachments(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Attachments = attachments

	return t, nil
}

// ListTasksByProject returns all tasks of a project
func (db *DB) ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	return db.listTasks(ctx, "t.project_id = ?", projectID)
}

// ListTasksByUser returns tasks the user authored or is assigned to
func (db *DB) ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	return db.listTasks(ctx, "t.author_user_id = ? OR t.assigned_user_id = ?", userID, userID)
}

func (db *DB) listTasks(ctx context.Context, where string, args ...any) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+taskColumns+" WHERE "+where+" ORDER BY t.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load attachments for each task
	for i := range tasks {
		attachments, err := db.GetTaskAttachments(ctx, tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Attachments = attachments
	}

	return tasks, nil
}

// UpdateTask applies a partial update. Fields absent from the patch keep
// their stored value.
func (db *DB) UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Empty() {
		return db.GetTask(ctx, id)
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Status != nil {
		set("status", p.Status.String())
	}
	if p.Priority != nil {
		set("priority", p.Priority.String())
	}
	if p.Tags != nil {
		set("tags", *p.Tags)
	}
	if p.StartDate != nil {
		set("start_date", *p.StartDate)
	}
	if p.DueDate != nil {
		set("due_date", *p.DueDate)
	}
	if p.AssignedUserID != nil {
		set("assigned_user_id", *p.AssignedUserID)
	}

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	args = append(args, id)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}

	return db.GetTask(ctx, id)
}

// DeleteTask deletes a task; its comments and attachments go with it
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// GetTaskAttachments returns all attachments for a task in upload order
func (db *DB) GetTaskAttachments(ctx context.Context, taskID int64) ([]models.Attachment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, task_id, file_url, file_name
		FROM attachments
		WHERE task_id = ?
		ORDER BY id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.FileURL, &a.FileName); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var (
		status, priority         string
		start, due               sql.NullTime
		assignee                 sql.NullInt64
		authorID, assigneeID     sql.NullInt64
		authorName, assigneeName sql.NullString
		authorPic, assigneePic   sql.NullString
	)
	err := s.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority, &t.Tags,
		&start, &due, &t.AuthorUserID, &assignee, &t.CreatedAt, &t.UpdatedAt,
		&authorID, &authorName, &authorPic,
		&assigneeID, &assigneeName, &assigneePic)
	if err != nil {
		return nil, err
	}

	if t.Status, err = models.ParseStatus(status); err != nil {
		return nil, err
	}
	if t.Priority, err = models.ParsePriority(priority); err != nil {
		return nil, err
	}
	t.StartDate = timePtr(start)
	t.DueDate = timePtr(due)
	if assignee.Valid {
		t.AssignedUserID = &assignee.Int64
	}
	t.Author = userFromJoin(authorID, authorName, authorPic)
	t.Assignee = userFromJoin(assigneeID, assigneeName, assigneePic)
	return t, nil
}

func userFromJoin(id sql.NullInt64, name, pic sql.NullString) *models.User {
	if !id.Valid {
		return nil
	}
	return &models.User{ID: id.Int64, Username: name.String, ProfilePictureURL: pic.String}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
