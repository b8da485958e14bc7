package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sunnygitgud/nyaaterm/browse"
)

// keyMap holds the Normal mode bindings.
type keyMap struct {
	Quit     key.Binding
	Edit     key.Binding
	Next     key.Binding
	Prev     key.Binding
	Sort     key.Binding
	Category key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Open     key.Binding
	Detail   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Edit:     key.NewBinding(key.WithKeys("tab", "i"), key.WithHelp("tab", "search")),
		Next:     key.NewBinding(key.WithKeys("j", "s", "down"), key.WithHelp("w/s/↑/↓", "nav")),
		Prev:     key.NewBinding(key.WithKeys("k", "w", "up")),
		Sort:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "sort")),
		Category: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		NextPage: key.NewBinding(key.WithKeys("d", "right"), key.WithHelp("a/d/←/→", "page")),
		PrevPage: key.NewBinding(key.WithKeys("a", "left")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Detail:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "details")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Edit, k.Next, k.Open, k.Detail, k.Sort, k.Category, k.NextPage}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Edit},
		{k.Next, k.Prev, k.NextPage, k.PrevPage},
		{k.Sort, k.Category, k.Open, k.Detail},
	}
}

// editKeyMap holds the Editing mode bindings; everything else is typed.
type editKeyMap struct {
	Cancel    key.Binding
	Submit    key.Binding
	Backspace key.Binding
}

func newEditKeyMap() editKeyMap {
	return editKeyMap{
		Cancel:    key.NewBinding(key.WithKeys("tab", "esc"), key.WithHelp("tab/esc", "list")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Backspace: key.NewBinding(key.WithKeys("backspace")),
	}
}

func (k editKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Submit}
}

func (k editKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Cancel, k.Submit, k.Backspace}}
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmds []tea.Cmd
	for _, c := range m.commandsFor(m.ctrl.State().Mode, msg) {
		if cmd := m.ctrl.Handle(c); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// commandsFor translates a key event into controller commands. A paste in
// Editing mode produces one command per rune.
func (m *model) commandsFor(mode browse.Mode, msg tea.KeyMsg) []browse.Command {
	if mode == browse.ModeEditing {
		return m.editingCommands(msg)
	}

	var kind browse.CommandKind
	switch {
	case key.Matches(msg, m.keys.Quit):
		kind = browse.CmdQuit
	case key.Matches(msg, m.keys.Edit):
		kind = browse.CmdEnterEdit
	case key.Matches(msg, m.keys.Next):
		kind = browse.CmdNext
	case key.Matches(msg, m.keys.Prev):
		kind = browse.CmdPrevious
	case key.Matches(msg, m.keys.Sort):
		kind = browse.CmdCycleSort
	case key.Matches(msg, m.keys.Category):
		kind = browse.CmdCycleCategory
	case key.Matches(msg, m.keys.NextPage):
		kind = browse.CmdNextPage
	case key.Matches(msg, m.keys.PrevPage):
		kind = browse.CmdPrevPage
	case key.Matches(msg, m.keys.Open):
		kind = browse.CmdActivate
	case key.Matches(msg, m.keys.Detail):
		kind = browse.CmdOpenDetail
	default:
		return nil
	}
	return []browse.Command{{Kind: kind}}
}

func (m *model) editingCommands(msg tea.KeyMsg) []browse.Command {
	switch {
	case key.Matches(msg, m.edit.Cancel):
		return []browse.Command{{Kind: browse.CmdCancel}}
	case key.Matches(msg, m.edit.Submit):
		return []browse.Command{{Kind: browse.CmdSubmit}}
	case key.Matches(msg, m.edit.Backspace):
		return []browse.Command{{Kind: browse.CmdBackspace}}
	}

	switch msg.Type {
	case tea.KeySpace:
		return []browse.Command{browse.Append(' ')}
	case tea.KeyRunes:
		cmds := make([]browse.Command, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			cmds = append(cmds, browse.Append(r))
		}
		return cmds
	}
	return nil
}
