package torrent

import (
	"fmt"
	"strconv"

	"github.com/anacrolix/torrent/metainfo"
)

// MagnetInfo is what a magnet link says about its torrent without
// contacting any peer or tracker.
type MagnetInfo struct {
	InfoHash    string
	DisplayName string
	Trackers    []string
	Length      int64 // from the xl parameter, 0 when absent
}

// ParseMagnet decodes a magnet URI.
func ParseMagnet(uri string) (MagnetInfo, error) {
	m, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return MagnetInfo{}, fmt.Errorf("invalid magnet: %w", err)
	}

	info := MagnetInfo{
		InfoHash:    m.InfoHash.HexString(),
		DisplayName: m.DisplayName,
		Trackers:    m.Trackers,
	}
	if xl := m.Params.Get("xl"); xl != "" {
		if n, err := strconv.ParseInt(xl, 10, 64); err == nil && n > 0 {
			info.Length = n
		}
	}
	return info, nil
}

// Summary renders the magnet for the detail pane, one fact per line.
func (m MagnetInfo) Summary(maxTrackers int) []string {
	lines := []string{"hash: " + m.InfoHash}
	if m.Length > 0 {
		lines = append(lines, "size: "+FormatBytes(m.Length))
	}

	shown := m.Trackers
	if maxTrackers >= 0 && len(shown) > maxTrackers {
		shown = shown[:maxTrackers]
	}
	for _, tr := range shown {
		lines = append(lines, "tracker: "+tr)
	}
	if hidden := len(m.Trackers) - len(shown); hidden > 0 {
		lines = append(lines, fmt.Sprintf("(+%d more trackers)", hidden))
	}
	return lines
}

// FormatBytes formats bytes into human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
