package views

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/mutation"
	"github.com/tgienger/teamtrack/internal/ui/keys"
	"github.com/tgienger/teamtrack/internal/ui/styles"
)

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string { return i.project.Name }

func (i projectItem) Description() string {
	desc := i.project.Description
	if i.project.StartDate != nil || i.project.EndDate != nil {
		desc = fmt.Sprintf("%s → %s  %s", formatDate(i.project.StartDate), formatDate(i.project.EndDate), desc)
	}
	return desc
}

func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	titleStyle := d.styles.ListItem.Width(width)
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
	}
	descStyle := titleStyle.Foreground(styles.Current.ForegroundDim).Bold(false)

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(p.Title()), descStyle.Render(truncate(p.Description(), width-4)))
}

// ProjectListView is the project picker
type ProjectListView struct {
	deps     Deps
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	err      error

	creating bool
	newName  textinput.Model
	newDesc  textinput.Model
	newStart textinput.Model
	newEnd   textinput.Model
	focusIdx int // 0=name, 1=desc, 2=start, 3=end, 4=create
	save     mutation.Trigger

	showHelpPopup bool
}

const projectFormFields = 5

func NewProjectListView(deps Deps) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 500

	newStart := textinput.New()
	newStart.Placeholder = models.DateLayout
	newStart.CharLimit = 25

	newEnd := textinput.New()
	newEnd.Placeholder = models.DateLayout
	newEnd.CharLimit = 25

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		deps:     deps,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newDesc:  newDesc,
		newStart: newStart,
		newEnd:   newEnd,
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

type projectsLoadedMsg struct {
	projects []models.Project
	err      error
}

type projectCreatedMsg struct {
	project *models.Project
	err     error
}

func (v *ProjectListView) loadProjects() tea.Msg {
	ctx, cancel := v.deps.ctx()
	defer cancel()

	projects, err := v.deps.Data.Projects(ctx)
	return projectsLoadedMsg{projects: projects, err: err}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			v.deps.logger().Error("load projects", "error", msg.err)
			v.err = msg.err
			return v, nil
		}
		items := make([]list.Item, len(msg.projects))
		for i, p := range msg.projects {
			items[i] = projectItem{project: p}
		}
		v.err = nil
		return v, v.list.SetItems(items)

	case projectCreatedMsg:
		v.save.Finish(msg.err)
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.creating = false
		v.err = nil
		project := *msg.project
		return v, func() tea.Msg { return SelectedProject{Project: project} }

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.creating {
			return v.updateCreating(msg)
		}

		// let the list own keys while its filter prompt is open
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.startCreate()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.MyTasks):
			return v, func() tea.Msg { return OpenMyTasks{} }
		case key.Matches(msg, v.keys.Refresh):
			v.deps.Data.Invalidate(func(k cache.Key) bool { return k.Kind == cache.KindProjects })
			return v, v.loadProjects
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, func() tea.Msg {
					return SelectedProject{Project: item.project}
				}
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) startCreate() {
	v.creating = true
	v.err = nil
	v.focusIdx = 0
	v.save.Reset()
	v.newName.Reset()
	v.newDesc.Reset()
	v.newStart.Reset()
	v.newEnd.Reset()
	v.updateFocus()
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		if !v.save.Pending() {
			v.creating = false
		}
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.submitProject()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + projectFormFields - 1) % projectFormFields
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % projectFormFields
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < projectFormFields-1 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.submitProject()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	case 2:
		v.newStart, cmd = v.newStart.Update(msg)
	case 3:
		v.newEnd, cmd = v.newEnd.Update(msg)
	}
	return v, cmd
}

// submitProject validates locally then creates the project; the project list
// collection is marked stale once the store confirms
func (v *ProjectListView) submitProject() tea.Cmd {
	p, err := v.newProject()
	if err != nil {
		v.err = err
		return nil
	}
	if !v.save.Begin() {
		return nil
	}

	deps := v.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()

		project, err := deps.Projects.CreateProject(ctx, p)
		if err == nil {
			deps.Data.Apply(cache.ProjectCreated, cache.Affected{ProjectID: project.ID})
		}
		return projectCreatedMsg{project: project, err: err}
	}
}

func (v *ProjectListView) newProject() (models.NewProject, error) {
	p := models.NewProject{
		Name:        strings.TrimSpace(v.newName.Value()),
		Description: strings.TrimSpace(v.newDesc.Value()),
	}
	if p.Name == "" {
		return p, fmt.Errorf("%w: project name is required", models.ErrValidation)
	}
	for _, f := range []struct {
		in  textinput.Model
		out **time.Time
	}{{v.newStart, &p.StartDate}, {v.newEnd, &p.EndDate}} {
		raw := strings.TrimSpace(f.in.Value())
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			return p, err
		}
		*f.out = &d
	}
	return p, nil
}

func (v *ProjectListView) updateFocus() {
	inputs := []*textinput.Model{&v.newName, &v.newDesc, &v.newStart, &v.newEnd}
	for i, in := range inputs {
		if i == v.focusIdx {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderStatus() + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderStatus() string {
	if v.err == nil {
		return ""
	}
	return v.styles.Error.Render(v.err.Error()) + "\n"
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
		"",
		v.renderStatus(),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	field := func(idx int, in textinput.Model) string {
		st := s.Input
		if v.focusIdx == idx {
			st = s.InputFocused
		}
		return st.Width(inputWidth).Render(in.View())
	}

	btnStyle := s.Button
	if v.focusIdx == projectFormFields-1 {
		btnStyle = s.ButtonFocused
	}
	button := btnStyle.Render(" Create ")
	if v.save.Pending() {
		button = s.TitleMuted.Render("Creating...")
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Project"),
		"",
		"Name:",
		field(0, v.newName),
		"Description:",
		field(1, v.newDesc),
		"Start date:",
		field(2, v.newStart),
		"End date:",
		field(3, v.newEnd),
		"",
		button,
		v.renderStatus(),
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s select • %s new • %s my tasks • %s filter • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("m"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("m") + "      my tasks by priority",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("/") + "      filter",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
