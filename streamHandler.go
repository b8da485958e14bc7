package main

import (
	"io"

	"github.com/pkg/browser"
)

func init() {
	// the TUI owns the terminal; anything the handler prints would tear it
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// openLink hands a magnet or detail page to the platform's default handler.
func openLink(link string) error {
	return browser.OpenURL(link)
}
