package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgienger/teamtrack/internal/models"
)

// CreateUser registers a user
func (db *DB) CreateUser(ctx context.Context, username, profilePictureURL string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO users (username, profile_picture_url) VALUES (?, ?)
	`, username, profilePictureURL)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetUser(ctx, id)
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := db.QueryRowContext(ctx, `
		SELECT id, username, profile_picture_url FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.ProfilePictureURL)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// ListUsers returns every user ordered by name
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, username, profile_picture_url FROM users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.ProfilePictureURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
