package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/teamtrack/internal/models"
	"github.com/tgienger/teamtrack/internal/mutation"
	"github.com/tgienger/teamtrack/internal/ui/keys"
	"github.com/tgienger/teamtrack/internal/ui/styles"
)

// CommentsView shows a task with its comment thread
type CommentsView struct {
	deps   Deps
	task   models.Task
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	comments []models.Comment
	loaded   bool
	cursor   int
	err      error

	input        textarea.Model
	inputFocused bool
	post         mutation.Trigger

	confirmingDelete bool
	deleteTarget     models.Comment
	deleting         mutation.Trigger
	spinner          spinner.Model
}

type commentsLoadedMsg struct {
	taskID   int64
	comments []models.Comment
	err      error
}

type commentPostedMsg struct{ err error }

type commentDeletedMsg struct{ err error }

func NewCommentsView(deps Deps, task models.Task) *CommentsView {
	input := textarea.New()
	input.Placeholder = "Add a comment..."
	input.CharLimit = 2000
	input.SetWidth(50)
	input.SetHeight(3)
	input.ShowLineNumbers = false

	return &CommentsView{
		deps:    deps,
		task:    task,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (v *CommentsView) Init() tea.Cmd {
	return v.loadComments
}

func (v *CommentsView) loadComments() tea.Msg {
	ctx, cancel := v.deps.ctx()
	defer cancel()

	comments, err := v.deps.Data.CommentsByTask(ctx, v.task.ID)
	return commentsLoadedMsg{taskID: v.task.ID, comments: comments, err: err}
}

// canDelete reports whether the delete affordance is offered for c
func (v *CommentsView) canDelete(c models.Comment) bool {
	return v.deps.Mutate.CanDeleteComment(c)
}

func (v *CommentsView) busy() bool {
	return v.post.Pending() || v.deleting.Pending()
}

func (v *CommentsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.input.SetWidth(clamp(styles.ContentWidth(v.width)-10, 20, 70))
		return v, nil

	case commentsLoadedMsg:
		if msg.taskID != v.task.ID {
			return v, nil
		}
		v.loaded = true
		if msg.err != nil {
			v.deps.logger().Error("load comments", "error", msg.err)
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		v.comments = msg.comments
		v.cursor = clamp(v.cursor, 0, max(len(v.comments)-1, 0))
		return v, nil

	case commentPostedMsg:
		v.post.Finish(msg.err)
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		v.input.Reset()
		v.inputFocused = false
		v.input.Blur()
		return v, v.loadComments

	case commentDeletedMsg:
		v.deleting.Finish(msg.err)
		if msg.err != nil {
			return v, nil
		}
		v.confirmingDelete = false
		return v, v.loadComments

	case spinner.TickMsg:
		if !v.busy() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.inputFocused {
			return v.updateInput(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *CommentsView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToTasks{} }
	case key.Matches(msg, v.keys.Up):
		v.cursor = clamp(v.cursor-1, 0, max(len(v.comments)-1, 0))
	case key.Matches(msg, v.keys.Down):
		v.cursor = clamp(v.cursor+1, 0, max(len(v.comments)-1, 0))
	case key.Matches(msg, v.keys.New), key.Matches(msg, v.keys.Enter):
		v.inputFocused = true
		return v, v.input.Focus()
	case key.Matches(msg, v.keys.Delete):
		if v.cursor < len(v.comments) && v.canDelete(v.comments[v.cursor]) {
			v.confirmingDelete = true
			v.deleteTarget = v.comments[v.cursor]
			v.deleting.Reset()
		}
	}
	return v, nil
}

func (v *CommentsView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.post.Pending() {
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.inputFocused = false
		v.input.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Save):
		cmd := v.submitComment()
		if v.post.Pending() {
			return v, tea.Batch(cmd, v.spinner.Tick)
		}
		return v, cmd
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submitComment posts the comment. Blank input is rejected by the service
// without a round trip.
func (v *CommentsView) submitComment() tea.Cmd {
	if !v.post.Begin() {
		return nil
	}
	deps := v.deps
	taskID := v.task.ID
	content := v.input.Value()
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		_, err := deps.Mutate.AddComment(ctx, taskID, content)
		return commentPostedMsg{err: err}
	}
}

func (v *CommentsView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.deleting.Pending() {
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Confirm):
		cmd := v.deleteComment(v.deleteTarget.ID)
		if cmd == nil {
			return v, nil
		}
		return v, tea.Batch(cmd, v.spinner.Tick)
	case key.Matches(msg, v.keys.Cancel):
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *CommentsView) deleteComment(id int64) tea.Cmd {
	if !v.deleting.Begin() {
		return nil
	}
	deps := v.deps
	taskID := v.task.ID
	return func() tea.Msg {
		ctx, cancel := deps.ctx()
		defer cancel()
		return commentDeletedMsg{err: deps.Mutate.DeleteComment(ctx, taskID, id)}
	}
}

func (v *CommentsView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	s := v.styles
	t := v.task
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	label := s.TitleMuted

	desc := t.Description
	if desc == "" {
		desc = s.TitleMuted.Render("No description")
	}
	tags := s.TitleMuted.Render("None")
	if list := t.TagList(); len(list) > 0 {
		tags = ""
		for _, tag := range list {
			tags += s.Tag.Render("#" + tag)
		}
	}

	details := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(t.Title),
		fmt.Sprintf("%s  %s", s.StatusBadge(t.Status), s.PriorityBadge(t.Priority)),
		"",
		label.Render("Author ")+username(t.Author, "Unknown")+label.Render("   Assignee ")+username(t.Assignee, "Unassigned"),
		label.Render("Start ")+formatDate(t.StartDate)+label.Render("   Due ")+formatDate(t.DueDate),
		label.Render("Tags ")+tags,
		"",
		lipgloss.NewStyle().Width(textWidth).Render(desc),
	)

	inputStyle := s.Input
	if v.inputFocused {
		inputStyle = s.InputFocused
	}

	status := ""
	switch {
	case v.post.Pending():
		status = s.StatusBar.Render(v.spinner.View() + " Posting...")
	case v.err != nil:
		status = s.Error.Render(v.err.Error())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		details,
		"",
		label.Render(fmt.Sprintf("Comments (%d)", len(v.comments))),
		v.renderComments(textWidth),
		"",
		inputStyle.Render(v.input.View()),
		status,
		v.renderHelp(),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}

func (v *CommentsView) renderComments(width int) string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	if len(v.comments) == 0 {
		return s.TitleMuted.Render("No comments yet")
	}

	lines := make([]string, 0, len(v.comments))
	for i, c := range v.comments {
		header := s.HelpKey.Render(username(c.Author, "Unknown")) + " " +
			s.TitleMuted.Render(c.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"))
		body := lipgloss.NewStyle().Width(width).Render(c.Content)
		block := lipgloss.JoinVertical(lipgloss.Left, header, body)
		if i == v.cursor && !v.inputFocused {
			block = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(styles.Current.BorderFocus).
				PaddingLeft(1).
				Render(block)
		} else {
			block = lipgloss.NewStyle().PaddingLeft(2).Render(block)
		}
		lines = append(lines, block)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *CommentsView) renderHelp() string {
	s := v.styles
	if v.inputFocused {
		return s.Help.Render(fmt.Sprintf("%s submit • %s cancel",
			s.HelpKey.Render("ctrl+s"),
			s.HelpKey.Render("esc"),
		))
	}

	items := []string{s.HelpKey.Render("n") + " comment"}
	if v.cursor < len(v.comments) && v.canDelete(v.comments[v.cursor]) {
		items = append(items, s.HelpKey.Render("d")+" delete")
	}
	items = append(items, s.HelpKey.Render("esc")+" back")
	return s.Help.Render(lipgloss.JoinHorizontal(lipgloss.Left, joinBullets(items)...))
}

func joinBullets(items []string) []string {
	out := make([]string, 0, len(items)*2)
	for i, it := range items {
		if i > 0 {
			out = append(out, " • ")
		}
		out = append(out, it)
	}
	return out
}

func (v *CommentsView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	footer := lipgloss.JoinHorizontal(lipgloss.Center,
		s.ButtonPrimary.Render(" Y - Yes "),
		"  ",
		s.Button.Render(" N - No "),
	)
	if v.deleting.Pending() {
		footer = s.TitleMuted.Render(v.spinner.View() + " Deleting...")
	}
	errLine := ""
	if err := v.deleting.Err(); err != nil {
		errLine = s.Error.Render("Delete failed: " + err.Error())
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Comment?"),
		"",
		s.TitleMuted.Render(truncate(v.deleteTarget.Content, 60)),
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
