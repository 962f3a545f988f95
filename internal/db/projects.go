package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tgienger/teamtrack/internal/models"
)

// CreateProject creates a new project
func (db *DB) CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: project name is required", models.ErrValidation)
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO projects (name, description, start_date, end_date) VALUES (?, ?, ?, ?)
	`, p.Name, p.Description, p.StartDate, p.EndDate)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetProject(ctx, id)
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, description, start_date, end_date, created_at
		FROM projects WHERE id = ?
	`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return p, nil
}

// ListProjects returns all projects, oldest first
func (db *DB) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, start_date, end_date, created_at
		FROM projects ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*models.Project, error) {
	p := &models.Project{}
	var start, end sql.NullTime
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.StartDate = timePtr(start)
	p.EndDate = timePtr(end)
	return p, nil
}
