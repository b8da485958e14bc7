package nyaa

import (
	"fmt"
	"strings"
)

// Torrent is one row of a nyaa results page.
type Torrent struct {
	Title     string
	Link      string
	Magnet    string
	Date      string
	Size      string
	Seeders   int
	Leechers  int
	Downloads int
}

// ----- Category -----

type Category int

const (
	CategoryAll Category = iota
	CategoryAnime
	CategoryAnimeMusicVideo
	CategoryAnimeEnglishTranslated
	CategoryAnimeNonEnglishTranslated
	CategoryAnimeRaw
)

var categories = []struct {
	code  string
	name  string
	label string
}{
	CategoryAll:                       {"0_0", "all", "All"},
	CategoryAnime:                     {"1_0", "anime", "Anime"},
	CategoryAnimeMusicVideo:           {"1_1", "amv", "Anime - Music Video"},
	CategoryAnimeEnglishTranslated:    {"1_2", "english", "Anime - English"},
	CategoryAnimeNonEnglishTranslated: {"1_3", "non-english", "Anime - Non-English"},
	CategoryAnimeRaw:                  {"1_4", "raw", "Anime - Raw"},
}

// String returns the wire code sent as the "c" query parameter.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categories) {
		return categories[CategoryAll].code
	}
	return categories[c].code
}

func (c Category) Label() string {
	if c < 0 || int(c) >= len(categories) {
		return categories[CategoryAll].label
	}
	return categories[c].label
}

func (c Category) Next() Category {
	return Category((int(c) + 1) % len(categories))
}

// ParseCategory accepts the config name ("english") or the wire code ("1_2").
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryAll, nil
	}
	for i, c := range categories {
		if s == c.name || s == c.code {
			return Category(i), nil
		}
	}
	return CategoryAll, fmt.Errorf("unknown category %q", s)
}

// ----- Sort -----

type Sort int

const (
	SortDate Sort = iota
	SortDownloads
	SortSeeders
	SortSize
)

var sorts = []struct {
	token string
	name  string
}{
	SortDate:      {"id", "date"},
	SortDownloads: {"downloads", "downloads"},
	SortSeeders:   {"seeders", "seeders"},
	SortSize:      {"size", "size"},
}

// String returns the wire token sent as the "s" query parameter.
func (s Sort) String() string {
	if s < 0 || int(s) >= len(sorts) {
		return sorts[SortDate].token
	}
	return sorts[s].token
}

func (s Sort) Label() string {
	if s < 0 || int(s) >= len(sorts) {
		return sorts[SortDate].name
	}
	return sorts[s].name
}

// Next cycles Date -> Downloads -> Seeders -> Size -> Date.
func (s Sort) Next() Sort {
	return Sort((int(s) + 1) % len(sorts))
}

func ParseSort(s string) (Sort, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortDate, nil
	}
	for i, v := range sorts {
		if s == v.name || s == v.token {
			return Sort(i), nil
		}
	}
	return SortDate, fmt.Errorf("unknown sort %q", s)
}

// ----- Filter -----

// Filter is the "f" query parameter.
type Filter int

const (
	FilterNone Filter = iota
	FilterNoRemakes
	FilterTrustedOnly
)

func (f Filter) String() string {
	switch f {
	case FilterNoRemakes:
		return "1"
	case FilterTrustedOnly:
		return "2"
	default:
		return "0"
	}
}

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "0":
		return FilterNone, nil
	case "no-remakes", "1":
		return FilterNoRemakes, nil
	case "trusted", "trusted-only", "2":
		return FilterTrustedOnly, nil
	}
	return FilterNone, fmt.Errorf("unknown filter %q", s)
}
