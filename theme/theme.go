// Package theme loads the colour palette from theme.json.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const FileName = "theme.json"

// ANSI palette indices
var named = map[string]lipgloss.TerminalColor{
	"black":   lipgloss.Color("0"),
	"red":     lipgloss.Color("1"),
	"green":   lipgloss.Color("2"),
	"yellow":  lipgloss.Color("3"),
	"blue":    lipgloss.Color("4"),
	"magenta": lipgloss.Color("5"),
	"cyan":    lipgloss.Color("6"),
	"white":   lipgloss.Color("7"),
	"reset":   lipgloss.NoColor{},
}

var darkGray = lipgloss.Color("8")

// Theme is the resolved palette used by the renderer.
type Theme struct {
	Fg          lipgloss.TerminalColor
	Primary     lipgloss.TerminalColor
	Secondary   lipgloss.TerminalColor
	SelectionBg lipgloss.TerminalColor
	Border      lipgloss.TerminalColor
	BorderFocus lipgloss.TerminalColor
}

// file mirrors theme.json.
type file struct {
	Fg          string `json:"fg"`
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
	SelectionBg string `json:"selection_bg"`
	Border      string `json:"border"`
	BorderFocus string `json:"border_focus"`
}

func Default() Theme {
	return Theme{
		Fg:          lipgloss.NoColor{},
		Primary:     named["blue"],
		Secondary:   named["magenta"],
		SelectionBg: darkGray,
		Border:      darkGray,
		BorderFocus: named["blue"],
	}
}

// Load reads the theme at path. Unknown or malformed colours fall back to
// the default for that field; an unreadable or invalid file is an error.
func Load(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("failed to read theme: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Theme, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return Default(), fmt.Errorf("failed to decode theme: %w", err)
	}

	def := Default()
	return Theme{
		Fg:          ParseColor(f.Fg, def.Fg),
		Primary:     ParseColor(f.Primary, def.Primary),
		Secondary:   ParseColor(f.Secondary, def.Secondary),
		SelectionBg: ParseColor(f.SelectionBg, def.SelectionBg),
		Border:      ParseColor(f.Border, def.Border),
		BorderFocus: ParseColor(f.BorderFocus, def.BorderFocus),
	}, nil
}

// ParseColor accepts "#rrggbb" or one of the eight ANSI names plus "reset".
func ParseColor(s string, fallback lipgloss.TerminalColor) lipgloss.TerminalColor {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if len(s) != 7 {
			return fallback
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return fallback
		}
		return lipgloss.Color(c.Hex())
	}
	if c, ok := named[strings.ToLower(s)]; ok {
		return c
	}
	return fallback
}

// Locate picks the theme file to use: explicit, then the working directory,
// then next to the executable, then the user config dir. The last candidate
// is returned even when it does not exist yet so it can be watched.
func Locate(explicit string) string {
	if explicit != "" {
		return explicit
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, FileName))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), FileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "nyaaterm", FileName)
	}
	return ""
}
