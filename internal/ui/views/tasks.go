package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/teamtrack/internal/cache"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/mutation"
	"github.com/tgienger/teamtrack/internal/projection"
	"github.com/tgienger/teamtrack/internal/ui/keys"
	"github.com/tgienger/teamtrack/internal/ui/styles"
)

// Layout is how the task collection is drawn
type Layout int

const (
	LayoutList Layout = iota
	LayoutTable
	LayoutBoard
	layoutCount
)

func (l Layout) String() string {
	switch l {
	case LayoutTable:
		return "table"
	case LayoutBoard:
		return "board"
	}
	return "list"
}

// TaskListView shows either the tasks of one project or the tasks the
// current user authored or is assigned, optionally narrowed to one priority.
type TaskListView struct {
	deps    Deps
	project *models.Project // nil for the current user's tasks
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	tasks    []models.Task // as loaded
	visible  []models.Task // filtered and sorted for list and table
	columns  []projection.Column
	loaded   bool
	err      error
	layout   Layout
	priority models.Priority // zero shows every priority
	onlyMine bool

	cursor int // list and table
	col    int // board
	row    int
	table  table.Model

	statusChange     mutation.Trigger
	form             *taskForm
	confirmingDelete bool
	deleteTarget     models.Task
	deleting         mutation.Trigger
	spinner          spinner.Model

	showHelpPopup bool
}

// NewTaskListView shows the tasks of project
func NewTaskListView(deps Deps, project models.Project) *TaskListView {
	v := newTaskView(deps)
	v.project = &project
	return v
}

// NewMyTasksView shows the current user's tasks in a table, filterable by
// priority
func NewMyTasksView(deps Deps) *TaskListView {
	v := newTaskView(deps)
	v.layout = LayoutTable
	return v
}

func newTaskView(deps Deps) *TaskListView {
	s := styles.NewStyles()

	t := table.New(
		table.WithColumns(taskColumns(80)),
		table.WithFocused(true),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Current.Border).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(styles.Current.Primary).
		Background(styles.Current.Selection).
		Bold(true)
	t.SetStyles(ts)

	return &TaskListView{
		deps:    deps,
		styles:  s,
		keys:    keys.DefaultKeyMap(),
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func taskColumns(width int) []table.Column {
	rest := max(width-2-12-18-10-12-12-14, 12)
	return []table.Column{
		{Title: "Title", Width: rest},
		{Title: "Priority", Width: 10},
		{Title: "Status", Width: 18},
		{Title: "Due", Width: 12},
		{Title: "Assignee", Width: 12},
		{Title: "Tags", Width: 12},
		{Title: "Files", Width: 14},
	}
}

// attachmentLabel names the first attachment and counts the rest
func attachmentLabel(t models.Task) string {
	switch len(t.Attachments) {
	case 0:
		return ""
	case 1:
		return t.Attachments[0].FileName
	}
	return fmt.Sprintf("%s +%d", t.Attachments[0].FileName, len(t.Attachments)-1)
}

type tasksLoadedMsg struct {
	tasks []models.Task
	err   error
}

type statusChangedMsg struct {
	task *models.Task
	err  error
}

type taskDeletedMsg struct {
	id  int64
	err error
}

// Title names the collection being shown
func (v *TaskListView) Title() string {
	if v.project != nil {
		return v.project.Name
	}
	return "My Tasks"
}

func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

func (v *TaskListView) loadTasks() tea.Msg {
	ctx, cancel := v.deps.ctx()
	defer cancel()

	var (
		tasks []models.Task
		err   error
	)
	if v.project != nil {
		tasks, err = v.deps.Data.TasksByProject(ctx, v.project.ID)
	} else {
		tasks, err = v.deps.Data.TasksByUser(ctx, v.deps.User.ID)
	}
	return tasksLoadedMsg{tasks: tasks, err: err}
}

// collectionKey is the cache key this view reads
func (v *TaskListView) collectionKey() cache.Key {
	if v.project != nil {
		return cache.Key{Kind: cache.KindTasksByProject, ID: v.project.ID}
	}
	return cache.Key{Kind: cache.KindTasksByUser, ID: v.deps.User.ID}
}

// applyFilters rebuilds the derived collections from the loaded tasks
func (v *TaskListView) applyFilters() {
	tasks := v.tasks
	if v.onlyMine {
		tasks = projection.ByUser(tasks, v.deps.User.ID)
	}
	if v.priority != 0 {
		tasks = projection.ByPriority(tasks, v.priority)
	}
	v.visible = projection.SortByPriority(tasks)
	v.columns = projection.Board(v.visible)

	v.cursor = clamp(v.cursor, 0, max(len(v.visible)-1, 0))
	if len(v.columns) > 0 {
		v.col = clamp(v.col, 0, len(v.columns)-1)
		v.row = clamp(v.row, 0, max(len(v.columns[v.col].Tasks)-1, 0))
	}

	rows := make([]table.Row, len(v.visible))
	for i, t := range v.visible {
		rows[i] = table.Row{
			t.Title,
			t.Priority.String(),
			t.Status.String(),
			formatDate(t.DueDate),
			username(t.Assignee, "Unassigned"),
			strings.Join(t.TagList(), ","),
			attachmentLabel(t),
		}
	}
	v.table.SetRows(rows)
	v.table.SetCursor(v.cursor)
}

// selected is the task under the cursor in the current layout
func (v *TaskListView) selected() (models.Task, bool) {
	if v.layout == LayoutBoard {
		if v.col >= len(v.columns) || v.row >= len(v.columns[v.col].Tasks) {
			return models.Task{}, false
		}
		return v.columns[v.col].Tasks[v.row], true
	}
	if v.cursor >= len(v.visible) {
		return models.Task{}, false
	}
	return v.visible[v.cursor], true
}

func (v *TaskListView) busy() bool {
	return v.statusChange.Pending() || v.deleting.Pending() || (v.form != nil && v.form.save.Pending())
}

func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.table.SetColumns(taskColumns(contentWidth - 4))
		v.table.SetWidth(contentWidth - 4)
		v.table.SetHeight(max(msg.Height-8, 3))
		if v.form != nil {
			v.form.width = msg.Width
			v.form.desc.SetWidth(v.form.inputWidth())
		}
		return v, nil

	case tasksLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			v.deps.logger().Error("load tasks", "error", msg.err)
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		v.tasks = msg.tasks
		v.applyFilters()
		return v, nil

	case statusChangedMsg:
		v.statusChange.Finish(msg.err)
		if msg.err != nil {
			v.err = fmt.Errorf("status not changed: %w", msg.err)
			return v, nil
		}
		v.err = nil
		return v, v.loadTasks

	case taskSavedMsg:
		if v.form == nil {
			return v, nil
		}
		v.form.save.Finish(msg.err)
		if msg.err != nil {
			v.form.err = msg.err
			return v, nil
		}
		v.form = nil
		v.err = nil
		return v, v.loadTasks

	case taskDeletedMsg:
		v.deleting.Finish(msg.err)
		if msg.err != nil {
			// keep the dialog open so the failure is visible and retryable
			return v, nil
		}
		v.confirmingDelete = false
		return v, v.loadTasks

	case spinner.TickMsg:
		if !v.busy() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.form != nil {
			cmd, done := v.form.update(msg, v.deps)
			if done {
				v.form = nil
				return v, nil
			}
			return v, v.withSpinner(cmd)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

// withSpinner starts the spinner alongside cmd when a mutation is in flight
func (v *TaskListView) withSpinner(cmd tea.Cmd) tea.Cmd {
	if v.busy() {
		return tea.Batch(cmd, v.spinner.Tick)
	}
	return cmd
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Up):
		v.move(-1)
		return v, nil

	case key.Matches(msg, v.keys.Down):
		v.move(1)
		return v, nil

	case key.Matches(msg, v.keys.Left) && v.layout == LayoutBoard:
		v.moveColumn(-1)
		return v, nil

	case key.Matches(msg, v.keys.Right) && v.layout == LayoutBoard:
		v.moveColumn(1)
		return v, nil

	case key.Matches(msg, v.keys.Layout):
		v.layout = (v.layout + 1) % layoutCount
		return v, nil

	case key.Matches(msg, v.keys.Priority):
		v.priority = nextPriority(v.priority)
		v.applyFilters()
		return v, nil

	case key.Matches(msg, v.keys.MyTasks) && v.project != nil:
		v.onlyMine = !v.onlyMine
		v.applyFilters()
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		k := v.collectionKey()
		v.deps.Data.Invalidate(func(c cache.Key) bool { return c == k })
		return v, v.loadTasks

	case key.Matches(msg, v.keys.Enter):
		if t, ok := v.selected(); ok {
			return v, func() tea.Msg { return OpenComments{Task: t} }
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		if v.project == nil {
			v.err = errors.New("open a project to create tasks")
			return v, nil
		}
		v.form = newTaskForm(v.styles, v.keys, v.project.ID, nil, v.width)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selected(); ok {
			v.form = newTaskForm(v.styles, v.keys, t.ProjectID, &t, v.width)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if t, ok := v.selected(); ok {
			return v, v.withSpinner(v.changeStatus(t, t.Status.Toggled()))
		}
		return v, nil

	case key.Matches(msg, v.keys.Status):
		if t, ok := v.selected(); ok {
			return v, v.withSpinner(v.changeStatus(t, nextStatus(t.Status)))
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = t
			v.deleting.Reset()
			return v, nil
		}
		return v, nil
	}

	if v.layout == LayoutTable {
		var cmd tea.Cmd
		v.table, cmd = v.table.Update(msg)
		v.cursor = v.table.Cursor()
		return v, cmd
	}
	return v, nil
}

func (v *TaskListView) move(delta int) {
	if v.layout == LayoutBoard {
		if v.col < len(v.columns) {
			v.row = clamp(v.row+delta, 0, max(len(v.columns[v.col].Tasks)-1, 0))
		}
		return
	}
	v.cursor = clamp(v.cursor+delta, 0, max(len(v.visible)-1, 0))
	v.table.SetCursor(v.cursor)
}

func (v *TaskListView) moveColumn(delta int) {
	if len(v.columns) == 0 {
		return
	}
	v.col = clamp(v.col+delta, 0, len(v.columns)-1)
	v.row = clamp(v.row, 0, max(len(v.columns[v.col].Tasks)-1, 0))
}

func nextPriority(p models.Priority) models.Priority {
	if p == 0 {
		return models.Priorities[0]
	}
	i := indexOf(models.Priorities, p)
	if i == len(models.Priorities)-1 {
		return 0
	}
	return models.Priorities[i+1]
}

func nextStatus(s models.Status) models.Status {
	i := indexOf(models.Statuses, s)
	return models.Statuses[(i+1)%len(models.Statuses)]
}

// changeStatus issues one status change at a time; a second press while the
// first is in flight is ignored
func (v *TaskListView) changeStatus(t models.Task, to models.Status) tea.Cmd {
	if !v.statusChange.Begin() {
		return nil
	}
	deps := v.deps
	toggle := to == t.Status.Toggled()
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()

		var (
			updated *models.Task
			err     error
		)
		if toggle {
			updated, err = deps.Mutate.ToggleStatus(ctx, t)
		} else {
			updated, err = deps.Mutate.UpdateTaskStatus(ctx, t.ID, to)
		}
		return statusChangedMsg{task: updated, err: err}
	}
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.deleting.Pending() {
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Confirm):
		return v, v.withSpinner(v.deleteTask(v.deleteTarget.ID))
	case key.Matches(msg, v.keys.Cancel):
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) deleteTask(id int64) tea.Cmd {
	if !v.deleting.Begin() {
		return nil
	}
	deps := v.deps
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		return taskDeletedMsg{id: id, err: deps.Mutate.DeleteTask(ctx, id)}
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.form != nil {
		return styles.CenterView(v.form.view(v.height, v.spinner.View()), v.width, v.height)
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	var body string
	switch {
	case len(v.visible) == 0:
		body = v.renderEmpty()
	case v.layout == LayoutTable:
		body = v.table.View()
	case v.layout == LayoutBoard:
		body = v.renderBoard()
	default:
		body = v.renderList()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		v.renderHeader(),
		"",
		body,
		v.renderStatus(),
		v.renderHelp(),
	)
	return styles.CenterView(lipgloss.NewStyle().Padding(1, 2).Render(content), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	chips := []string{s.FilterChip.Render(v.layout.String())}
	label := "all priorities"
	chip := s.FilterChip
	if v.priority != 0 {
		label = v.priority.String()
		chip = s.FilterOn
	}
	chips = append(chips, chip.Render(label))
	if v.onlyMine {
		chips = append(chips, s.FilterOn.Render("mine"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		s.Title.Render(v.Title()),
		"  ",
		s.TitleMuted.Render(fmt.Sprintf("%d tasks", len(v.visible))),
		"  ",
		strings.Join(chips, " "),
	)
}

func (v *TaskListView) renderEmpty() string {
	if v.priority != 0 {
		return v.styles.TitleMuted.Render(fmt.Sprintf("No %s tasks", v.priority))
	}
	if v.project != nil {
		return v.styles.TitleMuted.Render("No tasks yet. Press 'n' to create one")
	}
	return v.styles.TitleMuted.Render("Nothing assigned to you")
}

func (v *TaskListView) renderList() string {
	s := v.styles
	width := styles.ContentWidth(v.width) - 6
	maxItems := max((v.height-10)/2, 1)
	start := clamp(v.cursor-maxItems+1, 0, max(len(v.visible)-maxItems, 0))

	var items []string
	for i := start; i < len(v.visible) && i < start+maxItems; i++ {
		items = append(items, v.renderTaskItem(v.visible[i], i == v.cursor, width))
	}
	return s.List.Padding(0).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *TaskListView) renderTaskItem(t models.Task, selected bool, width int) string {
	s := v.styles

	check := "[ ]"
	if t.Status == models.StatusCompleted {
		check = "[x]"
	}
	titleStyle := s.ListItem
	if selected {
		titleStyle = s.ListSelected
	}
	title := titleStyle.Width(width).Render(truncate(check+" "+t.Title, width-4))

	meta := []string{
		s.PriorityBadge(t.Priority),
		s.StatusBadge(t.Status),
		s.TaskMeta.Render("due " + formatDate(t.DueDate)),
		s.TaskMeta.Render("→ " + username(t.Assignee, "Unassigned")),
	}
	if files := attachmentLabel(t); files != "" {
		meta = append(meta, s.TaskMeta.Render("📎 "+files))
	}
	for _, tag := range t.TagList() {
		meta = append(meta, s.Tag.Render("#"+tag))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, s.TaskItem.PaddingLeft(6).Render(strings.Join(meta, "  ")))
}

func (v *TaskListView) renderBoard() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width) - 4
	colWidth := max(contentWidth/len(v.columns)-4, 12)
	maxCards := max(v.height-12, 1)

	cols := make([]string, len(v.columns))
	for i, c := range v.columns {
		lines := []string{
			s.ColumnTitle.Foreground(styles.StatusColor(c.Status)).Render(fmt.Sprintf("%s (%d)", c.Status, len(c.Tasks))),
		}
		for j, t := range c.Tasks {
			if j >= maxCards {
				lines = append(lines, s.TaskMeta.Render(fmt.Sprintf("+%d more", len(c.Tasks)-j)))
				break
			}
			card := s.Card
			if i == v.col && j == v.row {
				card = s.CardSelected
			}
			lines = append(lines, card.Width(colWidth).Render(truncate(t.Title, colWidth)))
			lines = append(lines, s.Badge.Foreground(styles.PriorityColor(t.Priority)).Render(t.Priority.String())+
				s.TaskMeta.Render(" "+formatDate(t.DueDate)))
		}

		st := s.Column
		if i == v.col {
			st = s.ColumnFocused
		}
		cols[i] = st.Width(colWidth + 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (v *TaskListView) renderStatus() string {
	switch {
	case v.statusChange.Pending():
		return v.styles.StatusBar.Render(v.spinner.View() + " Updating...")
	case v.err != nil:
		return v.styles.Error.Render(v.err.Error())
	}
	return ""
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(
		fmt.Sprintf("%s comments • %s new • %s edit • %s done • %s status • %s del • %s layout • %s priority • %s back",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("space"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("v"),
			s.HelpKey.Render("p"),
			s.HelpKey.Render("esc"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      comments",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("space") + "  toggle completed",
		s.HelpKey.Render("s") + "      next status",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("v") + "      list / table / board",
		s.HelpKey.Render("p") + "      filter by priority",
		s.HelpKey.Render("m") + "      only my tasks",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("esc") + "    back",
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

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	var footer string
	switch {
	case v.deleting.Pending():
		footer = s.TitleMuted.Render(v.spinner.View() + " Deleting...")
	default:
		footer = lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		)
	}
	errLine := ""
	if err := v.deleting.Err(); err != nil {
		errLine = s.Error.Render("Delete failed: " + err.Error())
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and its comments will be removed.", v.deleteTarget.Title)),
		"",
		footer,
		errLine,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
