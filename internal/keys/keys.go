package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Item actions
	ToggleComplete key.Binding
	FireTrigger    key.Binding

	// Views
	Projects    key.Binding
	Templates   key.Binding
	Instantiate key.Binding

	// Filters
	ShowCompleted key.Binding

	// Maintenance
	Backup key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open project"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		ToggleComplete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle done"),
		),
		FireTrigger: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fire trigger"),
		),
		Projects: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "projects"),
		),
		Templates: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "templates"),
		),
		Instantiate: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "new from template"),
		),
		ShowCompleted: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "show/hide completed"),
		),
		Backup: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "backup now"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Help, k.ShowCompleted},
		{k.ToggleComplete, k.FireTrigger},
		{k.Projects, k.Templates, k.Instantiate, k.Backup},
	}
}
