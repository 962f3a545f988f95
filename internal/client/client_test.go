package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/db"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/mutation"
	"github.com/tgienger/teamtrack/internal/server"
)

// Compile-time checks that the client serves both store contracts.
var (
	_ mutation.Store = (*Client)(nil)
	_ cache.Reader   = (*Client)(nil)
)

func newServer(t *testing.T) (*httptest.Server, *db.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := db.New(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(server.New(server.Options{Store: store}))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestClient_RoundTrip(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()

	anon := New(srv.URL, 0, 5*time.Second, nil)
	alice, err := anon.CreateUser(ctx, "alice", "")
	require.NoError(t, err)

	c := New(srv.URL, alice.ID, 5*time.Second, nil)
	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	project, err := c.CreateProject(ctx, models.NewProject{Name: "Apollo"})
	require.NoError(t, err)

	task, err := c.CreateTask(ctx, models.NewTask{ProjectID: project.ID, Title: "Launch"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, task.AuthorUserID)

	done := models.StatusCompleted
	task, err = c.UpdateTask(ctx, task.ID, models.TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, task.Status)

	tasks, err := c.ListTasksByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	mine, err := c.ListTasksByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	comment, err := c.CreateComment(ctx, models.NewComment{TaskID: task.ID, AuthorID: alice.ID, Content: "go"})
	require.NoError(t, err)
	comments, err := c.ListCommentsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	require.NoError(t, c.DeleteComment(ctx, task.ID, comment.ID, alice.ID))
	require.NoError(t, c.DeleteTask(ctx, task.ID))

	tasks, err = c.ListTasksByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestClient_MapsErrors(t *testing.T) {
	srv, store := newServer(t)
	ctx := context.Background()
	alice, err := store.CreateUser(ctx, "alice", "")
	require.NoError(t, err)
	bob, err := store.CreateUser(ctx, "bob", "")
	require.NoError(t, err)
	project, err := store.CreateProject(ctx, models.NewProject{Name: "Apollo"})
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, models.NewTask{ProjectID: project.ID, Title: "x", AuthorUserID: alice.ID})
	require.NoError(t, err)
	comment, err := store.CreateComment(ctx, models.NewComment{TaskID: task.ID, AuthorID: alice.ID, Content: "hi"})
	require.NoError(t, err)

	c := New(srv.URL, bob.ID, 5*time.Second, nil)

	_, err = c.CreateTask(ctx, models.NewTask{ProjectID: project.ID, Title: " "})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = c.DeleteTask(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = c.DeleteComment(ctx, task.ID, comment.ID, bob.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = New(srv.URL, 0, time.Second, nil).ListProjects(ctx)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}
