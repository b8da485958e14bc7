package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	marqueeDelay     = 5
	marqueeSeparator = "   "
)

// marquee scrolls text that does not fit in width. Scrolling starts after
// marqueeDelay ticks and loops with a short gap between repetitions.
// Unselected rows are left for the caller to truncate.
func marquee(text string, width, tick int, selected bool) string {
	runes := []rune(text)
	if !selected || len(runes) <= width || tick <= marqueeDelay {
		return text
	}

	loop := append(runes, []rune(marqueeSeparator)...)
	start := (tick - marqueeDelay) % len(loop)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		sb.WriteRune(loop[(start+i)%len(loop)])
	}
	return sb.String()
}

// fit cuts s to at most width terminal cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// window returns the half-open range of rows to draw so that selected
// stays on screen.
func window(selected, total, height int) (int, int) {
	if height <= 0 || total <= 0 {
		return 0, 0
	}
	if total <= height {
		return 0, total
	}
	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	return start, min(start+height, total)
}

func hyperlink(text, link string) string {
	if link == "" {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", link, text)
}
