package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/ui/views"
)

// View is the screen currently shown
type View int

const (
	ViewProjects View = iota
	ViewTasks
	ViewComments
)

type App struct {
	deps        views.Deps
	currentView View
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	comments    *views.CommentsView
	width       int
	height      int
}

// NewApp creates the application for the signed-in user
func NewApp(deps views.Deps) *App {
	return &App{
		deps:        deps,
		currentView: ViewProjects,
		projectList: views.NewProjectListView(deps),
	}
}

func (a *App) Init() tea.Cmd {
	return a.projectList.Init()
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) openTasks(v *views.TaskListView) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = v
	a.comments = nil
	return tea.Batch(a.taskList.Init(), a.resize())
}

func (a *App) openComments(task models.Task) tea.Cmd {
	a.currentView = ViewComments
	a.comments = views.NewCommentsView(a.deps, task)
	return tea.Batch(a.comments.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case views.SelectedProject:
		return a, a.openTasks(views.NewTaskListView(a.deps, msg.Project))

	case views.OpenMyTasks:
		return a, a.openTasks(views.NewMyTasksView(a.deps))

	case views.OpenComments:
		return a, a.openComments(msg.Task)

	case views.BackToTasks:
		a.currentView = ViewTasks
		a.comments = nil
		// comment mutations do not touch task collections; reload anyway so
		// edits made elsewhere show up
		return a, tea.Batch(a.taskList.Init(), a.resize())

	case views.BackToProjects:
		a.currentView = ViewProjects
		a.taskList = nil
		a.comments = nil
		return a, tea.Batch(a.projectList.Init(), a.resize())

	case tea.KeyMsg:
		return a, a.current().update(msg)
	}

	// results of async commands go to every live view: a mutation started on
	// one screen may complete after the user moved to another
	var cmds []tea.Cmd
	for _, v := range a.live() {
		cmds = append(cmds, v.update(msg))
	}
	return a, tea.Batch(cmds...)
}

type screen struct {
	model tea.Model
}

func (s screen) update(msg tea.Msg) tea.Cmd {
	_, cmd := s.model.Update(msg)
	return cmd
}

func (a *App) current() screen {
	switch a.currentView {
	case ViewComments:
		if a.comments != nil {
			return screen{a.comments}
		}
	case ViewTasks:
		if a.taskList != nil {
			return screen{a.taskList}
		}
	}
	return screen{a.projectList}
}

func (a *App) live() []screen {
	out := []screen{{a.projectList}}
	if a.taskList != nil {
		out = append(out, screen{a.taskList})
	}
	if a.comments != nil {
		out = append(out, screen{a.comments})
	}
	return out
}

func (a *App) View() string {
	switch a.currentView {
	case ViewComments:
		if a.comments != nil {
			return a.comments.View()
		}
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList.View()
		}
	}
	return a.projectList.View()
}
