package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Left   key.Binding
	Right  key.Binding
	Select key.Binding
	Clear  key.Binding
	Export key.Binding
	Retry  key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "tier")),
		Right:  key.NewBinding(key.WithKeys("right", "l")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Clear:  key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("del", "clear icon")),
		Export: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "share/save")),
		Retry:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Left, k.Select, k.Export, k.Retry, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Left, k.Select},
		{k.Clear, k.Export, k.Retry, k.Cancel, k.Quit},
	}
}
