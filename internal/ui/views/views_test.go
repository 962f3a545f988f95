package views

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/db"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/mutation"
	"github.com/tgienger/teamtrack/internal/ui/keys"
)

type env struct {
	store   *db.DB
	deps    Deps
	me      *models.User
	other   *models.User
	project *models.Project
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	store, err := db.New(filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	me, err := store.CreateUser(ctx, "alice", "")
	require.NoError(t, err)
	other, err := store.CreateUser(ctx, "bob", "")
	require.NoError(t, err)
	project, err := store.CreateProject(ctx, models.NewProject{Name: "Apollo"})
	require.NoError(t, err)

	c := cache.New(nil)
	return &env{
		store: store,
		deps: Deps{
			Data:     cache.NewLayer(c, store),
			Mutate:   mutation.NewService(store, c, me.ID, nil),
			Projects: store,
			User:     *me,
		},
		me:      me,
		other:   other,
		project: project,
	}
}

func (e *env) task(t *testing.T, title string, p models.Priority) *models.Task {
	t.Helper()
	task, err := e.store.CreateTask(context.Background(), models.NewTask{
		ProjectID: e.project.ID, Title: title, Priority: p, AuthorUserID: e.me.ID,
	})
	require.NoError(t, err)
	return task
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle runs cmd and feeds its message back until nothing is left
func settle(t *testing.T, m tea.Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func TestTaskListView_PriorityFilterAndLayouts(t *testing.T) {
	e := newEnv(t)
	e.task(t, "fix prod", models.PriorityUrgent)
	e.task(t, "refactor", models.PriorityLow)
	e.task(t, "hotfix docs", models.PriorityUrgent)

	v := NewTaskListView(e.deps, *e.project)
	settle(t, v, v.Init())
	require.Len(t, v.visible, 3)
	assert.Equal(t, models.PriorityUrgent, v.visible[0].Priority)

	v.Update(runes("p"))
	assert.Equal(t, models.PriorityUrgent, v.priority)
	assert.Len(t, v.visible, 2)

	v.Update(runes("p"))
	assert.Equal(t, models.PriorityHigh, v.priority)
	assert.Empty(t, v.visible)
	assert.NotNil(t, v.visible)
	assert.Contains(t, v.View(), "No High tasks")

	v.Update(runes("v"))
	v.Update(runes("v"))
	assert.Equal(t, LayoutBoard, v.layout)
	assert.Len(t, v.columns, len(models.Statuses))
}

func TestNextPriority_CyclesThroughAll(t *testing.T) {
	p := models.Priority(0)
	var seen []models.Priority
	for range len(models.Priorities) + 1 {
		p = nextPriority(p)
		seen = append(seen, p)
	}
	assert.Equal(t, append(append([]models.Priority{}, models.Priorities...), 0), seen)
}

func TestTaskListView_ToggleIsSingleFlight(t *testing.T) {
	e := newEnv(t)
	task := e.task(t, "ship", models.PriorityHigh)

	v := NewTaskListView(e.deps, *e.project)
	settle(t, v, v.Init())

	cmd := v.changeStatus(*task, task.Status.Toggled())
	require.NotNil(t, cmd)
	assert.True(t, v.statusChange.Pending())
	assert.Nil(t, v.changeStatus(*task, task.Status.Toggled()), "second press while pending")

	msg := cmd()
	_, reload := v.Update(msg)
	assert.Equal(t, mutation.Succeeded, v.statusChange.State())
	settle(t, v, reload)

	require.Len(t, v.visible, 1)
	assert.Equal(t, models.StatusCompleted, v.visible[0].Status)
}

func TestTaskListView_DeleteConfirmation(t *testing.T) {
	e := newEnv(t)
	keep := e.task(t, "keep", models.PriorityLow)
	drop := e.task(t, "drop", models.PriorityUrgent)

	v := NewTaskListView(e.deps, *e.project)
	settle(t, v, v.Init())

	v.Update(runes("d"))
	require.True(t, v.confirmingDelete)
	assert.Equal(t, drop.ID, v.deleteTarget.ID)

	v.Update(runes("n"))
	assert.False(t, v.confirmingDelete)

	v.Update(runes("d"))
	cmd := v.deleteTask(v.deleteTarget.ID)
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Deleting...")

	settle(t, v, cmd)
	assert.False(t, v.confirmingDelete)
	require.Len(t, v.visible, 1)
	assert.Equal(t, keep.ID, v.visible[0].ID)
}

func TestTaskListView_DeleteFailureKeepsDialog(t *testing.T) {
	e := newEnv(t)
	e.task(t, "ghost", models.PriorityLow)

	v := NewTaskListView(e.deps, *e.project)
	settle(t, v, v.Init())
	v.Update(runes("d"))

	v.Update(taskDeletedMsg{id: 42, err: models.ErrNotFound})
	assert.True(t, v.confirmingDelete)
	assert.Equal(t, mutation.Failed, v.deleting.State())
	assert.Contains(t, v.View(), "Delete failed")
}

func TestMyTasksView_ShowsAuthoredAndAssigned(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.task(t, "mine", models.PriorityMedium)
	_, err := e.store.CreateTask(ctx, models.NewTask{
		ProjectID: e.project.ID, Title: "for me", AuthorUserID: e.other.ID, AssignedUserID: &e.me.ID,
	})
	require.NoError(t, err)
	_, err = e.store.CreateTask(ctx, models.NewTask{
		ProjectID: e.project.ID, Title: "not mine", AuthorUserID: e.other.ID,
	})
	require.NoError(t, err)

	v := NewMyTasksView(e.deps)
	settle(t, v, v.Init())
	assert.Equal(t, "My Tasks", v.Title())
	assert.Equal(t, LayoutTable, v.layout)
	assert.Len(t, v.visible, 2)
}

func TestTaskForm_CreateAndValidate(t *testing.T) {
	e := newEnv(t)
	v := NewTaskListView(e.deps, *e.project)
	settle(t, v, v.Init())

	v.Update(runes("n"))
	require.NotNil(t, v.form)

	msg := v.form.submit(e.deps)()
	saved, ok := msg.(taskSavedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, saved.err, models.ErrValidation)
	v.Update(saved)
	require.NotNil(t, v.form, "form stays open on failure")
	assert.Equal(t, mutation.Failed, v.form.save.State())

	v.form.title.SetValue("Write release notes")
	v.form.due.SetValue("2026-11-01")
	v.form.priority = indexOf(models.Priorities, models.PriorityHigh)
	settle(t, v, v.form.submit(e.deps))

	assert.Nil(t, v.form)
	require.Len(t, v.visible, 1)
	got := v.visible[0]
	assert.Equal(t, "Write release notes", got.Title)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, models.StatusToDo, got.Status)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-11-01", models.FormatDate(got.DueDate))
}

func TestTaskForm_EditPrefillsFields(t *testing.T) {
	e := newEnv(t)
	task := e.task(t, "ship", models.PriorityUrgent)
	task.Tags = "a, b"

	f := newTaskForm(nil, keys.DefaultKeyMap(), 0, task, 80)
	fields := f.fields()
	assert.Equal(t, "ship", *fields.Title)
	assert.Equal(t, "Urgent", *fields.Priority)
	assert.Equal(t, "To Do", *fields.Status)
	assert.Equal(t, "a, b", *fields.Tags)
	assert.Equal(t, "", *fields.AssignedUserID)
	assert.Equal(t, e.project.ID, f.projectID)
}

func TestCommentsView_OnlyAuthorGetsDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task := e.task(t, "discuss", models.PriorityLow)
	_, err := e.store.CreateComment(ctx, models.NewComment{TaskID: task.ID, AuthorID: e.other.ID, Content: "bob's"})
	require.NoError(t, err)
	_, err = e.store.CreateComment(ctx, models.NewComment{TaskID: task.ID, AuthorID: e.me.ID, Content: "mine"})
	require.NoError(t, err)

	v := NewCommentsView(e.deps, *task)
	settle(t, v, v.Init())
	require.Len(t, v.comments, 2)

	// cursor on bob's comment: no affordance
	v.Update(runes("d"))
	assert.False(t, v.confirmingDelete)
	assert.NotContains(t, v.renderHelp(), "delete")

	v.Update(runes("j"))
	assert.Contains(t, v.renderHelp(), "delete")
	v.Update(runes("d"))
	require.True(t, v.confirmingDelete)

	settle(t, v, v.deleteComment(v.deleteTarget.ID))
	assert.False(t, v.confirmingDelete)
	require.Len(t, v.comments, 1)
	assert.Equal(t, "bob's", v.comments[0].Content)
}

func TestCommentsView_BlankCommentRejected(t *testing.T) {
	e := newEnv(t)
	task := e.task(t, "discuss", models.PriorityLow)

	v := NewCommentsView(e.deps, *task)
	settle(t, v, v.Init())

	v.input.SetValue("   ")
	settle(t, v, v.submitComment())
	assert.ErrorIs(t, v.err, models.ErrValidation)
	assert.Empty(t, v.comments)

	v.input.SetValue("looks good")
	settle(t, v, v.submitComment())
	assert.NoError(t, v.err)
	require.Len(t, v.comments, 1)
	assert.Equal(t, "alice", v.comments[0].Author.Username)
}

func TestTaskListView_ShowsAttachments(t *testing.T) {
	e := newEnv(t)
	_, err := e.store.CreateTask(context.Background(), models.NewTask{
		ProjectID: e.project.ID, Title: "with files", AuthorUserID: e.me.ID,
		Attachments: []models.Attachment{
			{FileURL: "https://files.example/plan.pdf", FileName: "plan.pdf"},
			{FileURL: "https://files.example/notes.txt", FileName: "notes.txt"},
		},
	})
	require.NoError(t, err)

	v := NewTaskListView(e.deps, *e.project)
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	settle(t, v, v.Init())
	require.Len(t, v.visible, 1)
	assert.Equal(t, "plan.pdf +1", attachmentLabel(v.visible[0]))
	assert.Contains(t, v.View(), "plan.pdf +1")

	v.Update(runes("v"))
	require.Equal(t, LayoutTable, v.layout)
	rows := v.table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "plan.pdf +1", rows[0][len(rows[0])-1])

	assert.Empty(t, attachmentLabel(models.Task{}))
}

func TestLoads_SuccessClearsEarlierFailure(t *testing.T) {
	e := newEnv(t)
	task := e.task(t, "flaky", models.PriorityMedium)
	down := errors.New("network down")

	tasks := NewTaskListView(e.deps, *e.project)
	tasks.Update(tasksLoadedMsg{err: down})
	require.ErrorIs(t, tasks.err, down)
	assert.Contains(t, tasks.View(), "network down")

	tasks.Update(tasksLoadedMsg{tasks: []models.Task{*task}})
	assert.NoError(t, tasks.err)
	assert.NotContains(t, tasks.View(), "network down")
	assert.Len(t, tasks.visible, 1)

	comments := NewCommentsView(e.deps, *task)
	comments.Update(commentsLoadedMsg{taskID: task.ID, err: down})
	require.ErrorIs(t, comments.err, down)

	comments.Update(commentsLoadedMsg{taskID: task.ID, comments: []models.Comment{{ID: 1, TaskID: task.ID, Content: "back"}}})
	assert.NoError(t, comments.err)
	assert.NotContains(t, comments.View(), "network down")
	assert.Len(t, comments.comments, 1)
}

func TestProjectListView_CreateOpensProject(t *testing.T) {
	e := newEnv(t)
	v := NewProjectListView(e.deps)
	settle(t, v, v.Init())
	require.Len(t, v.list.Items(), 1)

	v.Update(runes("n"))
	require.True(t, v.creating)
	assert.Nil(t, v.submitProject(), "blank name is rejected locally")
	assert.ErrorIs(t, v.err, models.ErrValidation)

	v.newName.SetValue("Gemini")
	v.newEnd.SetValue("2026-12-31")
	msg := v.submitProject()()
	_, cmd := v.Update(msg)
	require.NotNil(t, cmd)
	selected, ok := cmd().(SelectedProject)
	require.True(t, ok)
	assert.Equal(t, "Gemini", selected.Project.Name)
	assert.False(t, v.creating)

	settle(t, v, v.Init())
	assert.Len(t, v.list.Items(), 2)
}
