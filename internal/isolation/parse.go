package isolation

import "strings"

// Posture maps a priority label (e.g. "High Priority") to its findings in
// report order.
type Posture map[string][]string

// NoDataKey is the single section reported when the tool is unavailable.
const NoDataKey = "No isolation posture data"

// Unavailable returns the sentinel posture used when the report cannot be
// produced.
func Unavailable() Posture {
	return Posture{NoDataKey: {""}}
}

// ParseReport turns the tool's human-oriented output into a Posture.
//
// Report shape:
//
//	High Priority
//	   finding
//	   finding
//	Low Priority
//	   finding
//
// Only indented lines (findings) and lines mentioning "Priority" (headers)
// are considered. Findings that appear before any header are dropped.
func ParseReport(raw string) Posture {
	out := Posture{}
	current := ""

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if !indented && !strings.Contains(line, "Priority") {
			continue
		}

		if !indented {
			current = strings.TrimSpace(line)
			continue
		}
		if current == "" {
			continue
		}
		out[current] = append(out[current], strings.TrimSpace(line))
	}
	return out
}
