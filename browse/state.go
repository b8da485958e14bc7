package browse

import "github.com/sunnygitgud/nyaaterm/nyaa"

// Mode governs which commands the controller accepts.
type Mode int

const (
	ModeNormal Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "normal"
}

// State is the complete browsing session. Only the Controller mutates it;
// State() hands out copies.
type State struct {
	Query    string
	Mode     Mode
	Page     int
	Sort     nyaa.Sort
	Category nyaa.Category
	Results  []nyaa.Torrent
	Selected int // -1 when nothing is selected
	Loading  bool
	Messages []string

	// Tick drives presentation animations and restarts whenever the
	// selection moves.
	Tick int
}

func (s State) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1]
}

// SelectedTorrent returns the selected record, if the selection points at one.
func (s State) SelectedTorrent() (nyaa.Torrent, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Results) {
		return nyaa.Torrent{}, false
	}
	return s.Results[s.Selected], true
}

// next moves the selection forward with wraparound and reports whether it changed.
func (s *State) next() bool {
	i := 0
	if s.Selected >= 0 && s.Selected < len(s.Results)-1 {
		i = s.Selected + 1
	}
	return s.selectIndex(i)
}

// previous moves the selection backward with wraparound and reports whether it changed.
func (s *State) previous() bool {
	i := 0
	switch {
	case s.Selected < 0:
	case s.Selected == 0 || s.Selected >= len(s.Results):
		i = max(len(s.Results)-1, 0)
	default:
		i = s.Selected - 1
	}
	return s.selectIndex(i)
}

func (s *State) selectIndex(i int) bool {
	if s.Selected == i {
		return false
	}
	s.Selected = i
	s.Tick = 0
	return true
}
