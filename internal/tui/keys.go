package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Click    key.Binding
	Buy      key.Binding
	Mode     key.Binding
	Upgrade  key.Binding
	Bell     key.Binding
	Prestige key.Binding
	Perk     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Click:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "write")),
		Buy:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "buy")),
		Mode:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "mode")),
		Upgrade:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upgrade")),
		Bell:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bell")),
		Prestige: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "ascend")),
		Perk:     key.NewBinding(key.WithKeys("f1", "f2", "f3", "!", "@", "#"), key.WithHelp("F1-F3", "perk")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "save & quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Buy, k.Mode, k.Upgrade, k.Bell, k.Prestige, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Click, k.Buy, k.Mode},
		{k.Upgrade, k.Bell, k.Perk},
		{k.Prestige, k.Help, k.Quit},
	}
}

// perkIndex maps F1-F3 and their shifted digit aliases to catalog positions.
func perkIndex(s string) int {
	switch s {
	case "f1", "!":
		return 0
	case "f2", "@":
		return 1
	case "f3", "#":
		return 2
	default:
		return -1
	}
}
