package inventory

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuya-takeyama/strict-mtp-sync/pkg/transport"
)

// SkippedLine is a listing line no layout could read.
type SkippedLine struct {
	Number int
	Line   string
}

// ParseStats reports what happened to each non-blank listing line.
type ParseStats struct {
	Lines   int
	Parsed  int
	Ignored int
	Skipped []SkippedLine
}

// Parser turns raw listing output into an Inventory.
type Parser struct {
	Layouts []Layout
	// Include restricts the inventory to decoded names matching any of the
	// patterns, case-insensitively. Empty means everything.
	Include []string
}

// Parse reads raw line by line. Lines matching no layout, or whose name is not
// valid percent-encoding, are recorded in ParseStats.Skipped and never abort
// the parse.
func (p Parser) Parse(raw string) (*Inventory, ParseStats) {
	layouts := p.Layouts
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}

	inv := New()
	var stats ParseStats

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++

		encoded, size, ok := parseLine(layouts, line)
		if !ok {
			stats.Skipped = append(stats.Skipped, SkippedLine{Number: i + 1, Line: line})
			continue
		}

		name, err := transport.DecodeName(encoded)
		if err != nil {
			stats.Skipped = append(stats.Skipped, SkippedLine{Number: i + 1, Line: line})
			continue
		}

		if !Matches(p.Include, name) {
			stats.Ignored++
			continue
		}

		inv.Put(Entry{Name: name, Size: size})
		stats.Parsed++
	}

	return inv, stats
}

func parseLine(layouts []Layout, line string) (string, int64, bool) {
	for _, layout := range layouts {
		if encoded, size, ok := layout.Parse(line); ok {
			return encoded, size, true
		}
	}
	return "", 0, false
}

// Matches reports whether name matches any pattern, ignoring case. An empty
// pattern list matches every name. Invalid patterns never match.
func Matches(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(strings.ToLower(pattern), lower); err == nil && matched {
			return true
		}
	}
	return false
}
