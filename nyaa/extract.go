package nyaa

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog"

	"github.com/sunnygitgud/nyaaterm/metrics"
)

// ErrMissingField is returned for a row that lacks a required field.
var ErrMissingField = errors.New("missing required field")

// nyaa renders "2024-01-01 23:59"; only the day is kept.
const maxDateLen = 10

const rowSelector = "table > tbody > tr"

type field int

const (
	fieldTitle field = iota
	fieldLink
	fieldMagnet
	fieldSize
	fieldDate
	fieldSeeders
	fieldLeechers
	fieldDownloads
	numFields
)

// policy decides what happens when a field is absent or unusable.
type policy int

const (
	nonEmpty policy = iota // row is dropped unless the value has text
	required               // row is dropped unless the element exists
	optional               // empty string
	count                  // zero
)

type fieldRule struct {
	name     string
	selector string
	attr     string // read this attribute instead of the text content
	policy   policy
}

var fieldRules = [numFields]fieldRule{
	fieldTitle:     {name: "title", selector: "td:nth-of-type(2) > a:not(.comments)", policy: nonEmpty},
	fieldLink:      {name: "link", selector: "td:nth-of-type(3) > a:first-child", attr: "href", policy: nonEmpty},
	fieldMagnet:    {name: "magnet", selector: "td:nth-of-type(3) > a:nth-child(2)", attr: "href", policy: optional},
	fieldSize:      {name: "size", selector: "td:nth-of-type(4)", policy: required},
	fieldDate:      {name: "date", selector: "td:nth-of-type(5)", policy: required},
	fieldSeeders:   {name: "seeders", selector: "td:nth-of-type(6)", policy: count},
	fieldLeechers:  {name: "leechers", selector: "td:nth-of-type(7)", policy: count},
	fieldDownloads: {name: "downloads", selector: "td:nth-of-type(8)", policy: count},
}

// Selectors holds every CSS selector the extractor needs, compiled once.
type Selectors struct {
	rows   cascadia.Selector
	fields [numFields]cascadia.Selector
}

func NewSelectors() (*Selectors, error) {
	rows, err := cascadia.Compile(rowSelector)
	if err != nil {
		return nil, fmt.Errorf("compiling row selector: %w", err)
	}
	s := &Selectors{rows: rows}
	for i, rule := range fieldRules {
		sel, err := cascadia.Compile(rule.selector)
		if err != nil {
			return nil, fmt.Errorf("compiling %s selector %q: %w", rule.name, rule.selector, err)
		}
		s.fields[i] = sel
	}
	return s, nil
}

// Extractor turns a results page into torrents.
type Extractor struct {
	sel *Selectors
	log zerolog.Logger
}

func NewExtractor(sel *Selectors, logger zerolog.Logger) *Extractor {
	return &Extractor{
		sel: sel,
		log: logger.With().Str("component", "extract").Logger(),
	}
}

// Extract never fails as a whole. Rows missing a required field are skipped
// and an unparseable document yields an empty slice. Detail links are
// resolved against baseURL, the site the page was fetched from.
func (e *Extractor) Extract(r io.Reader, baseURL string) []Torrent {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to parse results page")
		return []Torrent{}
	}

	rows := doc.FindMatcher(e.sel.rows)
	torrents := make([]Torrent, 0, rows.Length())
	skipped := 0
	baseURL = strings.TrimRight(baseURL, "/")

	rows.Each(func(i int, row *goquery.Selection) {
		t, err := e.row(row, baseURL)
		if err != nil {
			skipped++
			e.log.Debug().Err(err).Int("row", i).Msg("Skipping row")
			return
		}
		torrents = append(torrents, t)
	})

	metrics.AddRowsSkipped(skipped)
	metrics.ObserveRowsExtracted(len(torrents))
	e.log.Debug().
		Int("rows", rows.Length()).
		Int("count", len(torrents)).
		Int("skipped", skipped).
		Msg("Extraction completed")

	return torrents
}

func (e *Extractor) row(row *goquery.Selection, baseURL string) (Torrent, error) {
	var vals [numFields]string
	for i, rule := range fieldRules {
		v, ok := e.lookup(row, field(i))
		switch {
		case rule.policy == nonEmpty && (!ok || v == ""),
			rule.policy == required && !ok:
			return Torrent{}, fmt.Errorf("%w: %s", ErrMissingField, rule.name)
		}
		vals[i] = v
	}

	return Torrent{
		Title:     vals[fieldTitle],
		Link:      baseURL + vals[fieldLink],
		Magnet:    vals[fieldMagnet],
		Date:      truncate(vals[fieldDate], maxDateLen),
		Size:      vals[fieldSize],
		Seeders:   parseCount(vals[fieldSeeders]),
		Leechers:  parseCount(vals[fieldLeechers]),
		Downloads: parseCount(vals[fieldDownloads]),
	}, nil
}

// lookup reports whether the field's element (and attribute, if any) exists.
func (e *Extractor) lookup(row *goquery.Selection, f field) (string, bool) {
	match := row.FindMatcher(e.sel.fields[f]).First()
	if match.Length() == 0 {
		return "", false
	}
	if attr := fieldRules[f].attr; attr != "" {
		v, ok := match.Attr(attr)
		return strings.TrimSpace(v), ok
	}
	return strings.TrimSpace(match.Text()), true
}

func parseCount(s string) int {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
