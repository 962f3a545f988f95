package views

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/mutation"
	"github.com/tgienger/teamtrack/internal/ui/keys"
	"github.com/tgienger/teamtrack/internal/ui/styles"
)

// form field order
const (
	fieldTitle = iota
	fieldDesc
	fieldStatus
	fieldPriority
	fieldTags
	fieldStart
	fieldDue
	fieldAssignee
	fieldSave
	fieldCount
)

// taskForm edits a new or existing task. Status and priority are pickers so
// only enumeration values can be submitted.
type taskForm struct {
	styles *styles.Styles
	keys   keys.KeyMap

	task      *models.Task // nil when creating
	projectID int64

	title    textinput.Model
	desc     textarea.Model
	tags     textinput.Model
	start    textinput.Model
	due      textinput.Model
	assignee textinput.Model
	status   int // index into models.Statuses
	priority int // index into models.Priorities

	focus int
	save  mutation.Trigger
	err   error
	width int
}

type taskSavedMsg struct {
	task    *models.Task
	created bool
	err     error
}

func newTaskForm(s *styles.Styles, k keys.KeyMap, projectID int64, task *models.Task, width int) *taskForm {
	input := func(placeholder string, limit int) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = limit
		return in
	}

	f := &taskForm{
		styles:    s,
		keys:      k,
		task:      task,
		projectID: projectID,
		title:     input("Task title", 200),
		tags:      input("comma, separated, tags", 200),
		start:     input(models.DateLayout, 25),
		due:       input(models.DateLayout, 25),
		assignee:  input("user id", 20),
		width:     width,
	}

	f.desc = textarea.New()
	f.desc.Placeholder = "Description"
	f.desc.CharLimit = 2000
	f.desc.SetHeight(3)
	f.desc.ShowLineNumbers = false
	f.desc.SetWidth(f.inputWidth())

	f.status = indexOf(models.Statuses, models.StatusToDo)
	f.priority = indexOf(models.Priorities, models.PriorityBacklog)

	if task != nil {
		f.projectID = task.ProjectID
		f.title.SetValue(task.Title)
		f.desc.SetValue(task.Description)
		f.tags.SetValue(task.Tags)
		f.start.SetValue(models.FormatDate(task.StartDate))
		f.due.SetValue(models.FormatDate(task.DueDate))
		if task.AssignedUserID != nil {
			f.assignee.SetValue(strconv.FormatInt(*task.AssignedUserID, 10))
		}
		f.status = indexOf(models.Statuses, task.Status)
		f.priority = indexOf(models.Priorities, task.Priority)
	}
	f.updateFocus()
	return f
}

func indexOf[T comparable](values []T, v T) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return 0
}

func (f *taskForm) inputWidth() int {
	return clamp(styles.ContentWidth(f.width)-10, 20, 60)
}

// fields turns the form into mutation fields. Every field is submitted; blank
// dates and assignee are treated as not submitted by the service.
func (f *taskForm) fields() mutation.Fields {
	str := func(s string) *string { return &s }
	return mutation.Fields{
		Title:          str(f.title.Value()),
		Description:    str(f.desc.Value()),
		Status:         str(models.Statuses[f.status].String()),
		Priority:       str(models.Priorities[f.priority].String()),
		Tags:           str(f.tags.Value()),
		StartDate:      str(f.start.Value()),
		DueDate:        str(f.due.Value()),
		AssignedUserID: str(f.assignee.Value()),
	}
}

func (f *taskForm) submit(deps Deps) tea.Cmd {
	if !f.save.Begin() {
		return nil
	}
	fields := f.fields()
	projectID := f.projectID
	var taskID int64
	if f.task != nil {
		taskID = f.task.ID
	}

	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()

		if taskID == 0 {
			t, err := deps.Mutate.CreateTask(ctx, projectID, fields)
			return taskSavedMsg{task: t, created: true, err: err}
		}
		t, err := deps.Mutate.UpdateTaskFields(ctx, taskID, fields)
		return taskSavedMsg{task: t, err: err}
	}
}

// update handles a key while the form is open. done reports that the user
// dismissed it.
func (f *taskForm) update(msg tea.KeyMsg, deps Deps) (cmd tea.Cmd, done bool) {
	if f.save.Pending() {
		return nil, false
	}

	switch {
	case key.Matches(msg, f.keys.Back):
		return nil, true
	case key.Matches(msg, f.keys.Save):
		return f.submit(deps), false
	case msg.String() == "shift+tab":
		f.focus = (f.focus + fieldCount - 1) % fieldCount
		f.updateFocus()
		return nil, false
	case key.Matches(msg, f.keys.Tab):
		f.focus = (f.focus + 1) % fieldCount
		f.updateFocus()
		return nil, false
	case key.Matches(msg, f.keys.Enter) && f.focus != fieldDesc:
		if f.focus == fieldSave {
			return f.submit(deps), false
		}
		f.focus++
		f.updateFocus()
		return nil, false
	}

	switch f.focus {
	case fieldStatus:
		f.status = cycle(f.status, len(models.Statuses), msg, f.keys)
	case fieldPriority:
		f.priority = cycle(f.priority, len(models.Priorities), msg, f.keys)
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDesc:
		f.desc, cmd = f.desc.Update(msg)
	case fieldTags:
		f.tags, cmd = f.tags.Update(msg)
	case fieldStart:
		f.start, cmd = f.start.Update(msg)
	case fieldDue:
		f.due, cmd = f.due.Update(msg)
	case fieldAssignee:
		f.assignee, cmd = f.assignee.Update(msg)
	}
	return cmd, false
}

func cycle(idx, n int, msg tea.KeyMsg, k keys.KeyMap) int {
	switch {
	case key.Matches(msg, k.Left):
		return (idx + n - 1) % n
	case key.Matches(msg, k.Right), msg.String() == " ":
		return (idx + 1) % n
	}
	return idx
}

func (f *taskForm) updateFocus() {
	inputs := map[int]*textinput.Model{
		fieldTitle:    &f.title,
		fieldTags:     &f.tags,
		fieldStart:    &f.start,
		fieldDue:      &f.due,
		fieldAssignee: &f.assignee,
	}
	for idx, in := range inputs {
		if idx == f.focus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	if f.focus == fieldDesc {
		f.desc.Focus()
	} else {
		f.desc.Blur()
	}
}

func (f *taskForm) view(height int, spinner string) string {
	s := f.styles
	contentWidth := styles.ContentWidth(f.width)
	inputWidth := f.inputWidth()

	boxW := func(idx, width int, content string) string {
		st := s.Input
		if f.focus == idx {
			st = s.InputFocused
		}
		return st.Width(width).Render(content)
	}
	box := func(idx int, content string) string {
		return boxW(idx, inputWidth, content)
	}
	picker := func(idx int, label string) string {
		return box(idx, "‹ "+label+" ›")
	}

	title := "New Task"
	if f.task != nil {
		title = "Edit Task"
	}

	btnStyle := s.Button
	if f.focus == fieldSave {
		btnStyle = s.ButtonFocused
	}
	button := btnStyle.Render(" Save ")
	if f.save.Pending() {
		button = s.TitleMuted.Render(spinner + " Saving...")
	}

	errLine := ""
	if f.err != nil {
		errLine = s.Error.Render(f.err.Error())
	}

	status := models.Statuses[f.status]
	priority := models.Priorities[f.priority]
	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(title),
		"",
		"Title:",
		box(fieldTitle, f.title.View()),
		"Description:",
		box(fieldDesc, f.desc.View()),
		"Status:",
		picker(fieldStatus, s.Badge.Foreground(styles.StatusColor(status)).Render(status.String())),
		"Priority:",
		picker(fieldPriority, s.Badge.Foreground(styles.PriorityColor(priority)).Render(priority.String())),
		"Tags:",
		box(fieldTags, f.tags.View()),
		lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.JoinVertical(lipgloss.Left, "Start:", boxW(fieldStart, inputWidth/2-1, f.start.View())),
			" ",
			lipgloss.JoinVertical(lipgloss.Left, "Due:", boxW(fieldDue, inputWidth/2-1, f.due.View())),
		),
		"Assignee:",
		box(fieldAssignee, f.assignee.View()),
		"",
		button,
		errLine,
		s.TitleMuted.Render("Tab: next • ←/→: change • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return centered
}
