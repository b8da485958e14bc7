package browse

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnygitgud/nyaaterm/nyaa"
)

type searchCall struct {
	query    string
	category nyaa.Category
	sort     nyaa.Sort
	page     int
}

type fakeSearcher struct {
	calls    []searchCall
	torrents []nyaa.Torrent
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, query string, category nyaa.Category, sort nyaa.Sort, page int) ([]nyaa.Torrent, error) {
	f.calls = append(f.calls, searchCall{query, category, sort, page})
	return f.torrents, f.err
}

func torrents(n int) []nyaa.Torrent {
	out := make([]nyaa.Torrent, n)
	for i := range out {
		out[i] = nyaa.Torrent{
			Title:  fmt.Sprintf("Show %d", i),
			Link:   fmt.Sprintf("https://nyaa.si/view/%d", i),
			Magnet: fmt.Sprintf("magnet:?xt=urn:btih:%040d", i),
		}
	}
	return out
}

func newController(t *testing.T, s Searcher, open Opener, opts Options) *Controller {
	t.Helper()
	return New(s, open, opts, zerolog.Nop())
}

// run executes a command and feeds its message back like the event loop would.
func run(c *Controller, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case SearchResultMsg:
		c.Complete(msg)
	case LinkOpenedMsg:
		c.LinkOpened(msg)
	}
}

func typeQuery(c *Controller, q string) {
	for _, r := range q {
		c.Handle(Append(r))
	}
}

// loaded returns a controller in normal mode holding n results for "test".
func loaded(t *testing.T, n int) (*Controller, *fakeSearcher) {
	t.Helper()
	s := &fakeSearcher{torrents: torrents(n)}
	c := newController(t, s, nil, Options{})
	typeQuery(c, "test")
	run(c, c.Handle(Command{Kind: CmdSubmit}))
	require.Len(t, c.State().Results, n)
	return c, s
}

func TestNewDefaults(t *testing.T) {
	c := newController(t, &fakeSearcher{}, nil, Options{})
	st := c.State()

	assert.Equal(t, ModeEditing, st.Mode)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, nyaa.SortDate, st.Sort)
	assert.Equal(t, nyaa.CategoryAll, st.Category)
	assert.Equal(t, -1, st.Selected)
	assert.Empty(t, st.Results)
	assert.False(t, st.Loading)
	assert.Nil(t, c.Init())
}

func TestInitialQuerySearchesImmediately(t *testing.T) {
	s := &fakeSearcher{torrents: torrents(2)}
	c := newController(t, s, nil, Options{Query: "frieren", Sort: nyaa.SortSeeders})

	assert.Equal(t, ModeNormal, c.State().Mode)
	run(c, c.Init())

	require.Len(t, s.calls, 1)
	assert.Equal(t, searchCall{"frieren", nyaa.CategoryAll, nyaa.SortSeeders, 1}, s.calls[0])
	assert.Len(t, c.State().Results, 2)
}

func TestEditingAppendAndBackspace(t *testing.T) {
	c := newController(t, &fakeSearcher{}, nil, Options{})

	typeQuery(c, "ab日")
	assert.Equal(t, "ab日", c.State().Query)

	c.Handle(Command{Kind: CmdBackspace})
	assert.Equal(t, "ab", c.State().Query)

	c.Handle(Command{Kind: CmdBackspace})
	c.Handle(Command{Kind: CmdBackspace})
	c.Handle(Command{Kind: CmdBackspace})
	assert.Equal(t, "", c.State().Query)
}

func TestEditingIgnoresNormalCommands(t *testing.T) {
	s := &fakeSearcher{torrents: torrents(1)}
	c := newController(t, s, nil, Options{})
	typeQuery(c, "q")

	for _, k := range []CommandKind{CmdNext, CmdCycleSort, CmdNextPage, CmdActivate, CmdQuit} {
		assert.Nil(t, c.Handle(Command{Kind: k}))
	}
	assert.False(t, c.ShouldQuit())
	assert.Empty(t, s.calls)
	assert.Equal(t, ModeEditing, c.State().Mode)
}

func TestCancelAndEnterEdit(t *testing.T) {
	c := newController(t, &fakeSearcher{}, nil, Options{})

	c.Handle(Command{Kind: CmdCancel})
	assert.Equal(t, ModeNormal, c.State().Mode)

	c.Handle(Command{Kind: CmdEnterEdit})
	assert.Equal(t, ModeEditing, c.State().Mode)
}

func TestSubmitSearches(t *testing.T) {
	s := &fakeSearcher{torrents: torrents(3)}
	c := newController(t, s, nil, Options{})
	typeQuery(c, "  one piece ")

	cmd := c.Handle(Command{Kind: CmdSubmit})
	require.NotNil(t, cmd)

	st := c.State()
	assert.Equal(t, ModeNormal, st.Mode)
	assert.True(t, st.Loading)

	run(c, cmd)
	st = c.State()
	assert.False(t, st.Loading)
	assert.Len(t, st.Results, 3)
	assert.Equal(t, 0, st.Selected)
	require.Len(t, s.calls, 1)
	assert.Equal(t, "one piece", s.calls[0].query)
}

func TestSubmitBlankQueryIsNoop(t *testing.T) {
	c, s := loaded(t, 2)
	before := c.State().Results

	c.Handle(Command{Kind: CmdEnterEdit})
	for range "test" {
		c.Handle(Command{Kind: CmdBackspace})
	}
	typeQuery(c, "   ")

	cmd := c.Handle(Command{Kind: CmdSubmit})
	assert.Nil(t, cmd)
	assert.Len(t, s.calls, 1)
	assert.Equal(t, before, c.State().Results)
	assert.False(t, c.State().Loading)
}

func TestSearchEmptyResultClearsSelection(t *testing.T) {
	c, s := loaded(t, 2)
	s.torrents = nil

	run(c, c.Handle(Command{Kind: CmdCycleSort}))
	st := c.State()
	assert.Empty(t, st.Results)
	assert.Equal(t, -1, st.Selected)
	assert.Empty(t, st.LastMessage())
}

func TestSearchFailureKeepsResults(t *testing.T) {
	c, s := loaded(t, 2)
	before := c.State().Results
	s.err = errors.New("connection refused")

	run(c, c.Handle(Command{Kind: CmdCycleSort}))
	st := c.State()
	assert.Equal(t, before, st.Results)
	assert.False(t, st.Loading)
	assert.Equal(t, "error: connection refused", st.LastMessage())

	// the next search clears the message
	s.err = nil
	run(c, c.Handle(Command{Kind: CmdCycleSort}))
	assert.Empty(t, c.State().Messages)
}

func TestNextPreviousWraparound(t *testing.T) {
	c, _ := loaded(t, 3)
	assert.Equal(t, 0, c.State().Selected)

	c.Handle(Command{Kind: CmdPrevious})
	assert.Equal(t, 2, c.State().Selected)

	c.Handle(Command{Kind: CmdNext})
	assert.Equal(t, 0, c.State().Selected)

	c.Handle(Command{Kind: CmdNext})
	c.Handle(Command{Kind: CmdNext})
	assert.Equal(t, 2, c.State().Selected)
}

func TestNextReturnsToStartAfterNSteps(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for start := 0; start < n; start++ {
			c, _ := loaded(t, n)
			for c.State().Selected != start {
				c.Handle(Command{Kind: CmdNext})
			}
			for i := 0; i < n; i++ {
				c.Handle(Command{Kind: CmdNext})
				sel := c.State().Selected
				assert.True(t, sel >= 0 && sel < n, "n=%d sel=%d", n, sel)
			}
			assert.Equal(t, start, c.State().Selected)

			for i := 0; i < n; i++ {
				c.Handle(Command{Kind: CmdPrevious})
				sel := c.State().Selected
				assert.True(t, sel >= 0 && sel < n, "n=%d sel=%d", n, sel)
			}
			assert.Equal(t, start, c.State().Selected)
		}
	}
}

func TestNextPreviousOnEmptyResultsSelectsZero(t *testing.T) {
	c := newController(t, &fakeSearcher{}, nil, Options{})
	c.Handle(Command{Kind: CmdCancel})

	c.Handle(Command{Kind: CmdNext})
	assert.Equal(t, 0, c.State().Selected)

	c.Handle(Command{Kind: CmdPrevious})
	assert.Equal(t, 0, c.State().Selected)

	_, ok := c.State().SelectedTorrent()
	assert.False(t, ok)
}

func TestSelectionChangeResetsTick(t *testing.T) {
	c, _ := loaded(t, 1)
	c.Tick()
	c.Tick()
	assert.Equal(t, 2, c.State().Tick)

	// a single result: next stays on 0, nothing changes
	c.Handle(Command{Kind: CmdNext})
	assert.Equal(t, 2, c.State().Tick)

	c, _ = loaded(t, 2)
	c.Tick()
	c.Handle(Command{Kind: CmdNext})
	assert.Equal(t, 0, c.State().Tick)
}

func TestCycleSortFourTimes(t *testing.T) {
	c, s := loaded(t, 2)
	start := c.State().Sort

	run(c, c.Handle(Command{Kind: CmdNextPage}))
	require.Equal(t, 2, c.State().Page)

	for i := 0; i < 4; i++ {
		run(c, c.Handle(Command{Kind: CmdCycleSort}))
		assert.Equal(t, 1, c.State().Page)
	}
	assert.Equal(t, start, c.State().Sort)

	sorts := []nyaa.Sort{}
	for _, call := range s.calls[2:] {
		sorts = append(sorts, call.sort)
		assert.Equal(t, 1, call.page)
	}
	assert.Equal(t, []nyaa.Sort{nyaa.SortDownloads, nyaa.SortSeeders, nyaa.SortSize, nyaa.SortDate}, sorts)
}

func TestCycleSortWithoutQueryDoesNotSearch(t *testing.T) {
	s := &fakeSearcher{}
	c := newController(t, s, nil, Options{})
	c.Handle(Command{Kind: CmdCancel})

	assert.Nil(t, c.Handle(Command{Kind: CmdCycleSort}))
	assert.Equal(t, nyaa.SortDownloads, c.State().Sort)
	assert.Empty(t, s.calls)
}

func TestCycleCategory(t *testing.T) {
	c, s := loaded(t, 1)

	run(c, c.Handle(Command{Kind: CmdCycleCategory}))
	assert.Equal(t, nyaa.CategoryAnime, c.State().Category)
	require.Len(t, s.calls, 2)
	assert.Equal(t, nyaa.CategoryAnime, s.calls[1].category)
	assert.Equal(t, 1, s.calls[1].page)
}

func TestNextPage(t *testing.T) {
	c, s := loaded(t, 2)

	run(c, c.Handle(Command{Kind: CmdNextPage}))
	assert.Equal(t, 2, c.State().Page)
	require.Len(t, s.calls, 2)
	assert.Equal(t, 2, s.calls[1].page)
}

func TestNextPageWithoutResultsIsNoop(t *testing.T) {
	c, s := loaded(t, 0)

	assert.Nil(t, c.Handle(Command{Kind: CmdNextPage}))
	assert.Equal(t, 1, c.State().Page)
	assert.Len(t, s.calls, 1)
}

func TestPrevPage(t *testing.T) {
	c, s := loaded(t, 2)

	assert.Nil(t, c.Handle(Command{Kind: CmdPrevPage}))
	assert.Equal(t, 1, c.State().Page)
	assert.Len(t, s.calls, 1)

	run(c, c.Handle(Command{Kind: CmdNextPage}))
	run(c, c.Handle(Command{Kind: CmdPrevPage}))
	assert.Equal(t, 1, c.State().Page)
	require.Len(t, s.calls, 3)
	assert.Equal(t, 1, s.calls[2].page)
}

func TestStaleResultsAreDiscarded(t *testing.T) {
	c, s := loaded(t, 1)

	s.torrents = torrents(5)
	stale := c.Handle(Command{Kind: CmdCycleSort})().(SearchResultMsg)
	s.torrents = torrents(2)
	latest := c.Handle(Command{Kind: CmdCycleSort})().(SearchResultMsg)
	require.Len(t, stale.Torrents, 5)

	c.Complete(latest)
	assert.Len(t, c.State().Results, 2)
	assert.False(t, c.State().Loading)

	c.Complete(stale)
	assert.Len(t, c.State().Results, 2)
}

func TestStaleResultDoesNotClearLoading(t *testing.T) {
	c, _ := loaded(t, 1)

	first := c.Handle(Command{Kind: CmdCycleSort})
	c.Handle(Command{Kind: CmdCycleSort})

	c.Complete(first().(SearchResultMsg))
	assert.True(t, c.State().Loading)
}

func TestActivateOpensMagnet(t *testing.T) {
	var opened []string
	open := func(link string) error {
		opened = append(opened, link)
		return nil
	}

	s := &fakeSearcher{torrents: torrents(2)}
	c := newController(t, s, open, Options{Query: "x"})
	run(c, c.Init())

	c.Handle(Command{Kind: CmdNext})
	run(c, c.Handle(Command{Kind: CmdActivate}))
	assert.Equal(t, []string{s.torrents[1].Magnet}, opened)
}

func TestActivateSkipsEmptyMagnet(t *testing.T) {
	called := false
	open := func(string) error { called = true; return nil }

	s := &fakeSearcher{torrents: []nyaa.Torrent{{Title: "A", Link: "https://nyaa.si/view/1"}}}
	c := newController(t, s, open, Options{Query: "x"})
	run(c, c.Init())

	assert.Nil(t, c.Handle(Command{Kind: CmdActivate}))
	assert.False(t, called)
}

func TestActivateWithoutResults(t *testing.T) {
	called := false
	open := func(string) error { called = true; return nil }

	c := newController(t, &fakeSearcher{}, open, Options{})
	c.Handle(Command{Kind: CmdCancel})
	c.Handle(Command{Kind: CmdNext})

	assert.Nil(t, c.Handle(Command{Kind: CmdActivate}))
	assert.False(t, called)
}

func TestOpenFailureIsIgnored(t *testing.T) {
	open := func(string) error { return errors.New("no handler") }

	s := &fakeSearcher{torrents: torrents(1)}
	c := newController(t, s, open, Options{Query: "x"})
	run(c, c.Init())

	before := c.State()
	run(c, c.Handle(Command{Kind: CmdActivate}))
	after := c.State()
	assert.Equal(t, before.Messages, after.Messages)
	assert.Equal(t, before.Results, after.Results)
}

func TestOpenDetail(t *testing.T) {
	var opened string
	open := func(link string) error { opened = link; return nil }

	s := &fakeSearcher{torrents: torrents(1)}
	c := newController(t, s, open, Options{Query: "x"})
	run(c, c.Init())

	run(c, c.Handle(Command{Kind: CmdOpenDetail}))
	assert.Equal(t, s.torrents[0].Link, opened)
}

func TestQuit(t *testing.T) {
	s := &fakeSearcher{torrents: torrents(1)}
	c := newController(t, s, nil, Options{Query: "x"})

	c.Handle(Command{Kind: CmdQuit})
	assert.True(t, c.ShouldQuit())
	assert.Nil(t, c.Handle(Command{Kind: CmdCycleSort}))
	assert.Empty(t, s.calls)
}

func TestStateSnapshotIsIsolated(t *testing.T) {
	c, s := loaded(t, 1)
	s.err = errors.New("boom")
	run(c, c.Handle(Command{Kind: CmdCycleSort}))

	snap := c.State()
	snap.Messages[0] = "changed"
	snap.Page = 99
	assert.Equal(t, "error: boom", c.State().LastMessage())
	assert.Equal(t, 1, c.State().Page)
}
