package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tgienger/teamtrack/internal/models"
)

// CreateComment adds a comment to an existing task
func (db *DB) CreateComment(ctx context.Context, n models.NewComment) (*models.Comment, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ?", n.TaskID).Scan(&exists)
	if err != nil {
		return nil, notFound(err, "task", n.TaskID)
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO comments (task_id, author_id, content) VALUES (?, ?, ?)
	`, n.TaskID, n.AuthorID, strings.TrimSpace(n.Content))
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetComment(ctx, id)
}

const commentColumns = `
	c.id, c.task_id, c.author_id, c.content, c.created_at,
	u.id, u.username, u.profile_picture_url
	FROM comments c
	LEFT JOIN users u ON u.id = c.author_id
`

// GetComment retrieves a comment by ID
func (db *DB) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	row := db.QueryRowContext(ctx, "SELECT "+commentColumns+" WHERE c.id = ?", id)
	c, err := scanComment(row)
	if err != nil {
		return nil, notFound(err, "comment", id)
	}
	return c, nil
}

// ListCommentsByTask retrieves all comments for a task, oldest first
func (db *DB) ListCommentsByTask(ctx context.Context, taskID int64) ([]models.Comment, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+commentColumns+`
		WHERE c.task_id = ?
		ORDER BY c.created_at ASC, c.id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// DeleteComment deletes a comment of a task. Only its author may do so.
func (db *DB) DeleteComment(ctx context.Context, taskID, commentID, requesterID int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var authorID int64
		err := tx.QueryRowContext(ctx, `
			SELECT author_id FROM comments WHERE id = ? AND task_id = ?
		`, commentID, taskID).Scan(&authorID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("comment %d on task %d: %w", commentID, taskID, models.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if authorID != requesterID {
			return fmt.Errorf("comment %d belongs to user %d: %w", commentID, authorID, models.ErrForbidden)
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", commentID)
		return err
	})
}

func scanComment(s scanner) (*models.Comment, error) {
	c := &models.Comment{}
	var (
		userID        sql.NullInt64
		name, picture sql.NullString
	)
	if err := s.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt, &userID, &name, &picture); err != nil {
		return nil, err
	}
	c.Author = userFromJoin(userID, name, picture)
	return c, nil
}
