package mutation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/projection"
)

func ptr[T any](v T) *T { return &v }

func newTestService(userID int64) (*fakeStore, *cache.Layer, *Service) {
	store := newFakeStore()
	layer := cache.NewLayer(cache.New(nil), store)
	return store, layer, NewService(store, layer, userID, nil)
}

func TestCreateTask_AppearsInProjectAndPriorityViews(t *testing.T) {
	ctx := context.Background()
	_, layer, svc := newTestService(5)

	// warm the cache so the test also covers invalidation
	before, err := layer.TasksByProject(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, before)

	task, err := svc.CreateTask(ctx, 7, Fields{Title: ptr("Spec API"), Priority: ptr("Medium")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusToDo, task.Status)
	assert.Equal(t, int64(5), task.AuthorUserID)

	tasks, err := layer.TasksByProject(ctx, 7)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Spec API", tasks[0].Title)

	mine, err := layer.TasksByUser(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, projection.ByPriority(mine, models.PriorityMedium), 1)
	assert.Empty(t, projection.ByPriority(mine, models.PriorityHigh))
}

func TestCreateTask_DefaultsPriorityToBacklog(t *testing.T) {
	_, _, svc := newTestService(1)
	task, err := svc.CreateTask(context.Background(), 1, Fields{Title: ptr("t")})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityBacklog, task.Priority)
}

func TestCreateTask_RequiresTitle(t *testing.T) {
	store, _, svc := newTestService(1)

	_, err := svc.CreateTask(context.Background(), 1, Fields{})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.CreateTask(context.Background(), 1, Fields{Title: ptr("  ")})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, store.writeCount())
}

func TestUpdateTaskStatus_AnyToAny(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newTestService(1)
	task, err := svc.CreateTask(ctx, 1, Fields{Title: ptr("t")})
	require.NoError(t, err)

	for _, from := range models.Statuses {
		for _, to := range models.Statuses {
			_, err := svc.UpdateTaskStatus(ctx, task.ID, from)
			require.NoError(t, err)
			updated, err := svc.UpdateTaskStatus(ctx, task.ID, to)
			require.NoError(t, err)
			assert.Equal(t, to, updated.Status)
		}
	}
}

func TestUpdateTaskStatus_RejectsOutOfSetBeforeStore(t *testing.T) {
	ctx := context.Background()
	store, _, svc := newTestService(1)
	task, err := svc.CreateTask(ctx, 1, Fields{Title: ptr("t")})
	require.NoError(t, err)
	writes := store.writeCount()

	_, err = svc.UpdateTaskStatus(ctx, task.ID, models.Status(0))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.UpdateTaskStatus(ctx, task.ID, models.Status(5))
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.UpdateTaskFields(ctx, task.ID, Fields{Status: ptr("Blocked")})
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.Equal(t, writes, store.writeCount())
}

func TestToggleStatus_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newTestService(1)
	task, err := svc.CreateTask(ctx, 1, Fields{Title: ptr("t"), Status: ptr("Completed")})
	require.NoError(t, err)

	reopened, err := svc.ToggleStatus(ctx, *task)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWorkInProgress, reopened.Status)

	done, err := svc.ToggleStatus(ctx, *reopened)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	review, err := svc.UpdateTaskStatus(ctx, task.ID, models.StatusUnderReview)
	require.NoError(t, err)
	done, err = svc.ToggleStatus(ctx, *review)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
}

func TestToggleStatus_SurfacesFailure(t *testing.T) {
	ctx := context.Background()
	store, layer, svc := newTestService(1)
	task, err := svc.CreateTask(ctx, 1, Fields{Title: ptr("t")})
	require.NoError(t, err)
	_, err = layer.TasksByProject(ctx, 1)
	require.NoError(t, err)

	store.failNext = errors.New("network down")
	_, err = svc.ToggleStatus(ctx, *task)
	assert.Error(t, err)
	assert.False(t, layer.Stale(cache.Key{Kind: cache.KindTasksByProject, ID: 1}))
}

func TestUpdateTaskFields_EmptyTitleKeepsStoredTitle(t *testing.T) {
	ctx := context.Background()
	store, layer, svc := newTestService(1)
	task, err := svc.CreateTask(ctx, 1, Fields{Title: ptr("keep")})
	require.NoError(t, err)
	writes := store.writeCount()

	_, err = svc.UpdateTaskFields(ctx, task.ID, Fields{Title: ptr(""), Priority: ptr("High")})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, writes, store.writeCount())

	tasks, err := layer.TasksByProject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "keep", tasks[0].Title)
	assert.Equal(t, models.PriorityBacklog, tasks[0].Priority)
}

func TestUpdateTaskFields_NormalizesFormInput(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newTestService(1)
	task, err := svc.CreateTask(ctx, 1, Fields{Title: ptr("t")})
	require.NoError(t, err)

	updated, err := svc.UpdateTaskFields(ctx, task.ID, Fields{
		StartDate:      ptr("2024-06-10"),
		DueDate:        ptr("2024-06-01"),
		AssignedUserID: ptr(" 12 "),
		Tags:           ptr("api, backend"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.StartDate)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), *updated.StartDate)
	require.NotNil(t, updated.AssignedUserID)
	assert.Equal(t, int64(12), *updated.AssignedUserID)
	assert.Equal(t, []string{"api", "backend"}, updated.TagList())
}

func TestUpdateTaskFields_BlankOptionalFieldsAreNotSubmitted(t *testing.T) {
	p, err := Fields{StartDate: ptr(""), DueDate: ptr("  "), AssignedUserID: ptr("")}.Patch()
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestUpdateTaskFields_RejectsMalformedInput(t *testing.T) {
	_, err := Fields{DueDate: ptr("next friday")}.Patch()
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = Fields{AssignedUserID: ptr("bob")}.Patch()
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateTask_NotFoundLeavesCacheFresh(t *testing.T) {
	ctx := context.Background()
	_, layer, svc := newTestService(1)
	_, err := layer.TasksByUser(ctx, 1)
	require.NoError(t, err)

	_, err = svc.UpdateTaskFields(ctx, 99, Fields{Tags: ptr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, layer.Stale(cache.Key{Kind: cache.KindTasksByUser, ID: 1}))
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	store, layer, svc := newTestService(1)

	assert.ErrorIs(t, svc.DeleteTask(ctx, 0), models.ErrValidation)
	assert.Zero(t, store.writeCount())

	task, err := svc.CreateTask(ctx, 3, Fields{Title: ptr("t")})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, task.ID, "bye")
	require.NoError(t, err)
	_, err = layer.CommentsByTask(ctx, task.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))
	assert.ErrorIs(t, svc.DeleteTask(ctx, task.ID), models.ErrNotFound)

	tasks, err := layer.TasksByProject(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	comments, err := layer.CommentsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAddComment_BlankContentNeverReachesStore(t *testing.T) {
	store, _, svc := newTestService(1)
	_, err := svc.AddComment(context.Background(), 3, " \n\t ")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, store.writeCount())
}

func TestDeleteComment_OnlyAuthorSucceeds(t *testing.T) {
	ctx := context.Background()
	store, layer, author := newTestService(5)
	other := NewService(store, layer, 9, nil)

	task, err := author.CreateTask(ctx, 1, Fields{Title: ptr("t")})
	require.NoError(t, err)
	comment, err := author.AddComment(ctx, task.ID, "lgtm")
	require.NoError(t, err)

	assert.True(t, author.CanDeleteComment(*comment))
	assert.False(t, other.CanDeleteComment(*comment))

	err = other.DeleteComment(ctx, task.ID, comment.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	comments, err := layer.CommentsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	require.NoError(t, author.DeleteComment(ctx, task.ID, comment.ID))
	comments, err = layer.CommentsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
