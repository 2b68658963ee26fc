package textfmt

import "strings"

// LineWidth is the number of characters per line in truncated (human) mode.
const LineWidth = 80

// Wrap returns value unchanged when verbose is set. Otherwise it breaks the
// value into lines of at most LineWidth characters. Width is counted in runes,
// so multi-byte characters are never split.
func Wrap(verbose bool, value string) string {
	if verbose {
		return value
	}

	runes := []rune(value)
	if len(runes) <= LineWidth {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + len(runes)/LineWidth)
	for i := 0; i < len(runes); i += LineWidth {
		if i > 0 {
			b.WriteByte('\n')
		}
		end := i + LineWidth
		if end > len(runes) {
			end = len(runes)
		}
		b.WriteString(string(runes[i:end]))
	}
	return b.String()
}

// WrapAll applies Wrap to every value of m and returns a new map.
func WrapAll(verbose bool, m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Wrap(verbose, v)
	}
	return out
}
