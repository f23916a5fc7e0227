package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Convert   key.Binding
	PrevVoice key.Binding
	NextVoice key.Binding
	Play      key.Binding
	Save      key.Binding
	Copy      key.Binding
	Reset     key.Binding
	Edit      key.Binding
	Help      key.Binding
	Quit      key.Binding

	// While editing the path
	Select   key.Binding
	Complete key.Binding
	Cancel   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Convert: key.NewBinding(
			key.WithKeys("c", "enter"),
			key.WithHelp("c/enter", "convert"),
		),
		PrevVoice: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev voice"),
		),
		NextVoice: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next voice"),
		),
		Play: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "play/stop"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save audio"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy link"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "/"),
			key.WithHelp("e", "choose file"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// formKeys shows the bindings available on the main form.
type formKeys struct{ keyMap }

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Convert, k.Edit, k.NextVoice, k.Play, k.Help, k.Quit}
}

func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Convert, k.Edit, k.Reset},
		{k.PrevVoice, k.NextVoice},
		{k.Play, k.Save, k.Copy},
		{k.Help, k.Quit},
	}
}

// editKeys shows the bindings available while typing a path.
type editKeys struct{ keyMap }

func (k editKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Complete, k.Cancel}
}

func (k editKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
