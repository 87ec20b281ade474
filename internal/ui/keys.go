package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding of the client
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Back    key.Binding
	Results key.Binding

	Reserve  key.Binding
	Cancel   key.Binding
	Complete key.Binding
	Reload   key.Binding
	Dismiss  key.Binding
	Details  key.Binding

	Notifications key.Binding
	MarkAll       key.Binding

	Help   key.Binding
	Logout key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Results: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "results")),

		Reserve:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reserve")),
		Cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "leave queue")),
		Complete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "done")),
		Reload:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Dismiss:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
		Details:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "details")),

		Notifications: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "notifications")),
		MarkAll:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all read")),

		Help:   key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "help")),
		Logout: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "log out")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// searchHelp is the short help of the search screen
type searchHelp struct{ k keyMap }

func (h searchHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Select, h.k.Results, h.k.Notifications, h.k.Help, h.k.Quit}
}

func (h searchHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// equipmentHelp is the short help of the equipment screen
type equipmentHelp struct{ k keyMap }

func (h equipmentHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Reserve, h.k.Cancel, h.k.Complete, h.k.Reload, h.k.Details, h.k.Back, h.k.Notifications}
}

func (h equipmentHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp(), {h.k.Dismiss, h.k.Help, h.k.Logout, h.k.Quit}}
}
