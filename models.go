package main

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sunnygitgud/nyaaterm/browse"
	"github.com/sunnygitgud/nyaaterm/theme"
)

// marquee speed
const tickInterval = 150 * time.Millisecond

// ----- Models -----

type model struct {
	ctrl *browse.Controller

	theme  theme.Theme
	styles styles

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	edit    editKeyMap

	width  int
	height int

	log zerolog.Logger
}

// ----- Messages -----

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newModel(ctrl *browse.Controller, th theme.Theme, logger zerolog.Logger) model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := model{
		ctrl:    ctrl,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
		edit:    newEditKeyMap(),
		log:     logger.With().Str("component", "tui").Logger(),
	}
	m.applyTheme(th)
	return m
}

func (m *model) applyTheme(th theme.Theme) {
	m.theme = th
	m.styles = newStyles(th)
	m.spinner.Style = m.styles.status
	m.help.Styles.ShortKey = m.styles.key
	m.help.Styles.ShortDesc = m.styles.muted
	m.help.Styles.ShortSeparator = m.styles.muted
}
