package inventory

import (
	"strconv"
	"strings"
)

// Layout is one way of reading a listing line. Parse returns the still
// encoded name and the size, or ok=false when the line does not fit.
type Layout struct {
	Name  string
	Parse func(line string) (encodedName string, size int64, ok bool)
}

// DefaultLayouts are tried in order on every listing line.
var DefaultLayouts = []Layout{
	DelimitedLayout("\t"),
	LeadingSizeLayout(),
}

// DelimitedLayout reads "name<sep>size[<sep>...]" where the second field is
// purely numeric. This is what `gio list -l` prints.
func DelimitedLayout(sep string) Layout {
	return Layout{
		Name: "delimited",
		Parse: func(line string) (string, int64, bool) {
			parts := strings.Split(line, sep)
			if len(parts) < 2 || parts[0] == "" {
				return "", 0, false
			}
			size, ok := parseSize(parts[1])
			if !ok {
				return "", 0, false
			}
			return parts[0], size, true
		},
	}
}

// LeadingSizeLayout reads "size name" separated by whitespace where the first
// token is purely numeric.
func LeadingSizeLayout() Layout {
	return Layout{
		Name: "leading-size",
		Parse: func(line string) (string, int64, bool) {
			trimmed := strings.TrimLeft(line, " \t")
			idx := strings.IndexAny(trimmed, " \t")
			if idx <= 0 {
				return "", 0, false
			}
			size, ok := parseSize(trimmed[:idx])
			if !ok {
				return "", 0, false
			}
			name := strings.TrimSpace(trimmed[idx:])
			if name == "" {
				return "", 0, false
			}
			return name, size, true
		},
	}
}

// parseSize accepts ASCII digits only. Signs, spaces and unit suffixes are
// rejected.
func parseSize(field string) (int64, bool) {
	if field == "" {
		return 0, false
	}
	for i := 0; i < len(field); i++ {
		if field[i] < '0' || field[i] > '9' {
			return 0, false
		}
	}
	size, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, false
	}
	return size, true
}
