package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the views react to
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Enter  key.Binding
	Back   key.Binding
	Quit   key.Binding
	Tab    key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Save   key.Binding
	Help   key.Binding

	Toggle   key.Binding // flip completed
	Status   key.Binding // cycle status
	Layout   key.Binding // list, table, board
	Priority key.Binding // cycle priority filter
	MyTasks  key.Binding
	Refresh  key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
}

// DefaultKeyMap returns the vim-flavoured defaults
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "open")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Tab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),

		Toggle:   key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle done")),
		Status:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next status")),
		Layout:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "layout")),
		Priority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		MyTasks:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "my tasks")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Confirm:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		Cancel:   key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}
