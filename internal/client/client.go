// Package client talks to the tracker server over HTTP. It satisfies the
// store contracts used by the mutation service and the cache layer, so the
// TUI can run against a remote server the same way it would against the
// database.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tgienger/teamtrack/internal/models"
)

const headerUserID = "X-User-ID"

// Error is a non-2xx response. It unwraps to the matching models error.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return models.ErrValidation
	case http.StatusUnauthorized:
		return models.ErrUnauthenticated
	case http.StatusForbidden:
		return models.ErrForbidden
	case http.StatusNotFound:
		return models.ErrNotFound
	}
	return nil
}

// Client is an HTTP client bound to one user identity
type Client struct {
	baseURL string
	userID  int64
	http    *http.Client
	log     *slog.Logger
}

// New creates a client for the server at baseURL acting as userID
func New(baseURL string, userID int64, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// CurrentUser resolves the configured identity
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var out struct {
		UserDetails models.User `json:"userDetails"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/user", c.userID, nil, &out); err != nil {
		return nil, err
	}
	return &out.UserDetails, nil
}

// CreateUser registers a user. It needs no identity.
func (c *Client) CreateUser(ctx context.Context, username, profilePictureURL string) (*models.User, error) {
	in := map[string]string{"username": username, "profilePictureUrl": profilePictureURL}
	var out models.User
	if err := c.do(ctx, http.MethodPost, "/users", c.userID, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", c.userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, p models.NewProject) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodPost, "/projects", c.userID, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	var out []models.Task
	q := url.Values{"projectId": {strconv.FormatInt(projectID, 10)}}
	if err := c.do(ctx, http.MethodGet, "/tasks?"+q.Encode(), c.userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTasksByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	var out []models.Task
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/user/%d", userID), c.userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask posts a new task. The server attributes it to the client's user
// regardless of n.AuthorUserID.
func (c *Client) CreateTask(ctx context.Context, n models.NewTask) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", c.userID, n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	var out models.Task
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d", id), c.userID, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), c.userID, nil, nil)
}

func (c *Client) ListCommentsByTask(ctx context.Context, taskID int64) ([]models.Comment, error) {
	var out []models.Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d/comments", taskID), c.userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, n models.NewComment) (*models.Comment, error) {
	var out models.Comment
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%d/comments", n.TaskID), n.AuthorID, n, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment sends the request as requesterID; the server decides whether
// that user may delete it
func (c *Client) DeleteComment(ctx context.Context, taskID, commentID, requesterID int64) error {
	path := fmt.Sprintf("/tasks/%d/comments/%d", taskID, commentID)
	return c.do(ctx, http.MethodDelete, path, requesterID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, as int64, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as == 0 {
		as = c.userID
	}
	req.Header.Set(headerUserID, strconv.FormatInt(as, 10))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &Error{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
