// Package browse owns the search session: input mode, query text, paging,
// sorting, results and selection. Every mutation happens in Handle or
// Complete, both of which are called from the bubbletea event loop.
package browse

import (
	"context"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sunnygitgud/nyaaterm/metrics"
	"github.com/sunnygitgud/nyaaterm/nyaa"
)

// Searcher fetches one page of results. *nyaa.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, category nyaa.Category, sort nyaa.Sort, page int) ([]nyaa.Torrent, error)
}

// Opener hands a link to the platform's default handler.
type Opener func(link string) error

// ----- Commands -----

type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdEnterEdit
	CmdNext
	CmdPrevious
	CmdCycleSort
	CmdCycleCategory
	CmdNextPage
	CmdPrevPage
	CmdActivate
	CmdOpenDetail
	CmdQuit
	CmdAppend
	CmdBackspace
	CmdCancel
	CmdSubmit
)

// Command is one discrete user intent. Rune is only read for CmdAppend.
type Command struct {
	Kind CommandKind
	Rune rune
}

// Append is shorthand for a CmdAppend command.
func Append(r rune) Command { return Command{Kind: CmdAppend, Rune: r} }

// ----- Messages -----

// SearchResultMsg carries the outcome of one search back to the event loop.
type SearchResultMsg struct {
	Seq      uint64
	Torrents []nyaa.Torrent
	Err      error
}

// LinkOpenedMsg reports a finished hand-off to the opener.
type LinkOpenedMsg struct {
	Link string
	Err  error
}

// ----- Controller -----

type Options struct {
	Query    string // searched immediately by Init when non-blank
	Sort     nyaa.Sort
	Category nyaa.Category
}

type Controller struct {
	searcher Searcher
	open     Opener
	log      zerolog.Logger

	state State
	seq   uint64
	quit  bool
}

func New(searcher Searcher, open Opener, opts Options, logger zerolog.Logger) *Controller {
	mode := ModeEditing
	if strings.TrimSpace(opts.Query) != "" {
		mode = ModeNormal
	}
	return &Controller{
		searcher: searcher,
		open:     open,
		log:      logger.With().Str("component", "browse").Logger(),
		state: State{
			Query:    opts.Query,
			Mode:     mode,
			Page:     1,
			Sort:     opts.Sort,
			Category: opts.Category,
			Selected: -1,
		},
	}
}

// Init starts the search for a query given on the command line.
func (c *Controller) Init() tea.Cmd {
	return c.search()
}

// State returns a snapshot for rendering. Results are shared, not copied;
// torrents are never modified in place.
func (c *Controller) State() State {
	s := c.state
	s.Messages = append([]string(nil), c.state.Messages...)
	return s
}

func (c *Controller) ShouldQuit() bool { return c.quit }

// Tick advances the animation counter.
func (c *Controller) Tick() { c.state.Tick++ }

// Handle applies a command and returns the follow-up work, if any.
func (c *Controller) Handle(cmd Command) tea.Cmd {
	if c.quit {
		return nil
	}
	if c.state.Mode == ModeEditing {
		return c.handleEditing(cmd)
	}
	return c.handleNormal(cmd)
}

func (c *Controller) handleEditing(cmd Command) tea.Cmd {
	switch cmd.Kind {
	case CmdAppend:
		if cmd.Rune != utf8.RuneError {
			c.state.Query += string(cmd.Rune)
		}
	case CmdBackspace:
		if _, size := utf8.DecodeLastRuneInString(c.state.Query); size > 0 {
			c.state.Query = c.state.Query[:len(c.state.Query)-size]
		}
	case CmdCancel:
		c.state.Mode = ModeNormal
	case CmdSubmit:
		c.state.Mode = ModeNormal
		return c.search()
	}
	return nil
}

func (c *Controller) handleNormal(cmd Command) tea.Cmd {
	switch cmd.Kind {
	case CmdEnterEdit:
		c.state.Mode = ModeEditing
	case CmdNext:
		c.state.next()
	case CmdPrevious:
		c.state.previous()
	case CmdCycleSort:
		c.state.Sort = c.state.Sort.Next()
		c.state.Page = 1
		return c.search()
	case CmdCycleCategory:
		c.state.Category = c.state.Category.Next()
		c.state.Page = 1
		return c.search()
	case CmdNextPage:
		if len(c.state.Results) == 0 {
			return nil
		}
		c.state.Page++
		return c.search()
	case CmdPrevPage:
		if c.state.Page <= 1 {
			return nil
		}
		c.state.Page--
		return c.search()
	case CmdActivate:
		if t, ok := c.state.SelectedTorrent(); ok && t.Magnet != "" {
			return c.openLink(t.Magnet)
		}
	case CmdOpenDetail:
		if t, ok := c.state.SelectedTorrent(); ok {
			return c.openLink(t.Link)
		}
	case CmdQuit:
		c.quit = true
	}
	return nil
}

// search issues a fetch for the current query, sort, category and page.
// Blank queries are ignored.
func (c *Controller) search() tea.Cmd {
	query := strings.TrimSpace(c.state.Query)
	if query == "" {
		return nil
	}

	c.seq++
	c.state.Loading = true
	c.state.Messages = nil

	seq := c.seq
	searcher := c.searcher
	category, sort, page := c.state.Category, c.state.Sort, c.state.Page

	c.log.Debug().
		Uint64("seq", seq).
		Str("query", query).
		Str("sort", sort.Label()).
		Str("category", category.String()).
		Int("page", page).
		Msg("Starting search")

	return func() tea.Msg {
		torrents, err := searcher.Search(context.Background(), query, category, sort, page)
		return SearchResultMsg{Seq: seq, Torrents: torrents, Err: err}
	}
}

// Complete applies a search outcome. Results from anything but the most
// recent search are dropped.
func (c *Controller) Complete(msg SearchResultMsg) {
	if msg.Seq != c.seq {
		metrics.IncStaleResult()
		c.log.Debug().Uint64("seq", msg.Seq).Uint64("latest", c.seq).Msg("Discarding stale search result")
		return
	}

	c.state.Loading = false
	if msg.Err != nil {
		c.state.Messages = append(c.state.Messages, "error: "+msg.Err.Error())
		return
	}

	c.state.Results = msg.Torrents
	c.state.Selected = -1
	if len(msg.Torrents) > 0 {
		c.state.Selected = 0
	}
	c.state.Tick = 0
}

func (c *Controller) openLink(link string) tea.Cmd {
	open := c.open
	if open == nil {
		return nil
	}
	return func() tea.Msg {
		return LinkOpenedMsg{Link: link, Err: open(link)}
	}
}

// LinkOpened logs the outcome of an open; failures have no visible effect.
func (c *Controller) LinkOpened(msg LinkOpenedMsg) {
	if msg.Err != nil {
		c.log.Warn().Err(msg.Err).Str("link", msg.Link).Msg("Failed to open link")
		return
	}
	c.log.Info().Str("link", msg.Link).Msg("Opened link")
}
