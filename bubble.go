package main

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sunnygitgud/nyaaterm/browse"
	"github.com/sunnygitgud/nyaaterm/theme"
)

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick(), m.ctrl.Init())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		cmd := m.handleKey(msg)
		if m.ctrl.ShouldQuit() {
			return m, tea.Quit
		}
		return m, cmd

	case browse.SearchResultMsg:
		m.ctrl.Complete(msg)
		return m, nil

	case browse.LinkOpenedMsg:
		m.ctrl.LinkOpened(msg)
		return m, nil

	case theme.ChangedMsg:
		m.applyTheme(msg.Theme)
		m.log.Debug().Msg("Applied new theme")
		return m, nil

	case tickMsg:
		m.ctrl.Tick()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) View() string {
	return m.renderView()
}
