package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sunnygitgud/nyaaterm/browse"
	"github.com/sunnygitgud/nyaaterm/nyaa"
	"github.com/sunnygitgud/nyaaterm/theme"
	tc "github.com/sunnygitgud/nyaaterm/torrentclient"
)

const (
	dateWidth      = 10
	sizeWidth      = 10
	peersWidth     = 10
	downloadsWidth = 8
	columnGap      = 1
	minTitleWidth  = 10

	searchHeight = 3
	detailHeight = 8
	// below this the detail pane is dropped to leave room for results
	minDetailScreen = 24
)

type styles struct {
	text       lipgloss.Style
	input      lipgloss.Style
	boxTitle   lipgloss.Style
	tableTitle lipgloss.Style
	header     lipgloss.Style
	selected   lipgloss.Style
	key        lipgloss.Style
	muted      lipgloss.Style
	status     lipgloss.Style

	border      lipgloss.TerminalColor
	borderFocus lipgloss.TerminalColor
}

func newStyles(th theme.Theme) styles {
	return styles{
		text:        lipgloss.NewStyle().Foreground(th.Fg),
		input:       lipgloss.NewStyle().Foreground(th.Primary),
		boxTitle:    lipgloss.NewStyle().Foreground(th.Primary).Bold(true),
		tableTitle:  lipgloss.NewStyle().Foreground(th.Secondary),
		header:      lipgloss.NewStyle().Foreground(th.Primary).Bold(true),
		selected:    lipgloss.NewStyle().Foreground(th.Fg).Background(th.SelectionBg).Bold(true),
		key:         lipgloss.NewStyle().Foreground(th.Secondary).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(th.Border),
		status:      lipgloss.NewStyle().Foreground(th.Primary),
		border:      th.Border,
		borderFocus: th.BorderFocus,
	}
}

func (m *model) renderView() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Loading..."
	}

	st := m.ctrl.State()
	width := max(m.width-2, 20)
	height := max(m.height-2, 8)

	detail := 0
	if m.height >= minDetailScreen {
		detail = detailHeight
	}
	// search box, table, optional detail, spacer, footer
	tableHeight := max(height-searchHeight-detail-2, 4)

	sections := []string{
		m.searchView(st, width),
		m.tableView(st, width, tableHeight),
	}
	if detail > 0 {
		sections = append(sections, m.detailView(st, width, detail))
	}
	sections = append(sections, "", m.footerView(st, width))

	return lipgloss.NewStyle().Padding(1, 1).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// ----- View Components -----

func (m *model) searchView(st browse.State, width int) string {
	border := m.styles.border
	text := m.styles.text.Render(fit(st.Query, width-2))
	if st.Mode == browse.ModeEditing {
		border = m.styles.borderFocus
		text = m.styles.input.Render(fit(st.Query+"█", width-2))
	}
	return m.titledBox(" search ", m.styles.boxTitle, []string{text}, width, searchHeight, border)
}

func (m *model) tableView(st browse.State, width, height int) string {
	title := fmt.Sprintf(" results (sort: %s) (page %d) ", st.Sort.Label(), st.Page)
	if st.Category != nyaa.CategoryAll {
		title = fmt.Sprintf(" results (sort: %s) (category: %s) (page %d) ", st.Sort.Label(), st.Category.Label(), st.Page)
	}

	inner := width - 2
	rowsHeight := height - 4 // borders, header and its rule

	if len(st.Results) == 0 {
		msg := "no results"
		if strings.TrimSpace(st.Query) == "" {
			msg = "press tab and type a query"
		}
		return m.titledBox(title, m.styles.tableTitle, []string{m.styles.muted.Render(msg)}, width, height, m.styles.border)
	}

	titleWidth := titleColumnWidth(inner)
	start, end := window(st.Selected, len(st.Results), rowsHeight)

	rows := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		t := st.Results[i]
		name := marquee(t.Title, titleWidth, st.Tick, i == st.Selected)
		rows = append(rows, []string{
			fit(t.Date, dateWidth),
			fit(name, titleWidth),
			fit(t.Size, sizeWidth),
			fit(fmt.Sprintf("%d / %d", t.Seeders, t.Leechers), peersWidth),
			fit(strconv.Itoa(t.Downloads), downloadsWidth),
		})
	}

	widths := []int{dateWidth, titleWidth, sizeWidth, peersWidth, downloadsWidth}
	selectedRow := st.Selected - start

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(m.styles.border)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderRow(false).
		BorderHeader(true).
		Headers("date", "title", "size", "s / l", "dls").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == table.HeaderRow:
				s = m.styles.header
			case row == selectedRow:
				s = m.styles.selected
			case col == 1:
				s = m.styles.text.Bold(true)
			default:
				s = m.styles.text
			}
			w := widths[col]
			if col < len(widths)-1 {
				return s.Width(w + columnGap).PaddingRight(columnGap)
			}
			return s.Width(w)
		})

	body := strings.Split(tbl.Render(), "\n")
	return m.titledBox(title, m.styles.tableTitle, body, width, height, m.styles.border)
}

func (m *model) detailView(st browse.State, width, height int) string {
	inner := width - 2
	t, ok := st.SelectedTorrent()
	if !ok {
		return m.titledBox(" details ", m.styles.boxTitle, []string{m.styles.muted.Render("nothing selected")}, width, height, m.styles.border)
	}

	lines := []string{
		m.styles.text.Bold(true).Render(fit(t.Title, inner)),
		hyperlink(m.styles.status.Render(fit(t.Link, inner)), t.Link),
		m.styles.muted.Render(fit(fmt.Sprintf("%s · %s · %d seeders · %d leechers · %d downloads",
			t.Size, t.Date, t.Seeders, t.Leechers, t.Downloads), inner)),
	}

	free := height - 2 - len(lines)
	switch {
	case t.Magnet == "":
		lines = append(lines, m.styles.muted.Render("no magnet link"))
	default:
		info, err := tc.ParseMagnet(t.Magnet)
		if err != nil {
			lines = append(lines, m.styles.muted.Render(fit("magnet: "+err.Error(), inner)))
			break
		}
		for _, l := range info.Summary(trackerBudget(free, info)) {
			lines = append(lines, m.styles.text.Render(fit(l, inner)))
		}
	}

	return m.titledBox(" details ", m.styles.boxTitle, lines, width, height, m.styles.border)
}

func (m *model) footerView(st browse.State, width int) string {
	var keys string
	if st.Mode == browse.ModeEditing {
		keys = m.help.ShortHelpView(m.edit.ShortHelp())
	} else {
		keys = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	status := ""
	switch {
	case st.Loading:
		status = " " + m.spinner.View() + m.styles.status.Render("[loading...]")
	case st.LastMessage() != "":
		status = " " + m.styles.status.Render("["+st.LastMessage()+"]")
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, fit(keys+status, width))
}

// titledBox draws a rounded box of the given outer size with title set
// into its top border. Body lines are clipped to fit.
func (m *model) titledBox(title string, titleStyle lipgloss.Style, body []string, width, height int, border lipgloss.TerminalColor) string {
	b := lipgloss.RoundedBorder()
	bs := lipgloss.NewStyle().Foreground(border)
	inner := max(width-2, 1)
	innerHeight := max(height-2, 1)

	label := titleStyle.Render(fit(title, inner))
	top := bs.Render(b.TopLeft) +
		label +
		bs.Render(strings.Repeat(b.Top, max(inner-lipgloss.Width(label), 0))) +
		bs.Render(b.TopRight)

	if len(body) > innerHeight {
		body = body[:innerHeight]
	}
	for i, l := range body {
		body[i] = fit(l, inner)
	}

	box := lipgloss.NewStyle().
		Border(b).
		BorderTop(false).
		BorderForeground(border).
		Width(inner).
		Height(innerHeight).
		Render(strings.Join(body, "\n"))

	return top + "\n" + box
}

// trackerBudget is how many tracker lines fit in free rows once the
// hash, the optional size and any overflow note are placed.
func trackerBudget(free int, info tc.MagnetInfo) int {
	shown := free - 1
	if info.Length > 0 {
		shown--
	}
	if len(info.Trackers) > shown {
		shown--
	}
	return max(shown, 0)
}

func titleColumnWidth(inner int) int {
	fixed := dateWidth + sizeWidth + peersWidth + downloadsWidth + 4*columnGap
	return max(inner-fixed, minTitleWidth)
}
