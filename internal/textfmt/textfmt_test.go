package textfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_ShortValuesUntouched(t *testing.T) {
	for _, n := range []int{0, 1, 79, 80} {
		s := strings.Repeat("x", n)
		assert.Equal(t, s, Wrap(false, s), "len=%d", n)
		assert.NotContains(t, Wrap(false, s), "\n")
	}
}

func TestWrap_LongValue(t *testing.T) {
	s := strings.Repeat("a", 500)

	got := Wrap(false, s)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 7)
	for i, l := range lines {
		assert.LessOrEqual(t, len(l), LineWidth, "line %d", i)
	}
	assert.Equal(t, s, strings.ReplaceAll(got, "\n", ""))

	assert.Equal(t, s, Wrap(true, s))
}

func TestWrap_ExactMultipleHasNoTrailingLine(t *testing.T) {
	s := strings.Repeat("b", 160)
	got := Wrap(false, s)
	assert.Equal(t, 2, len(strings.Split(got, "\n")))
	assert.False(t, strings.HasSuffix(got, "\n"))
}

func TestWrap_CountsRunes(t *testing.T) {
	s := strings.Repeat("é", 81)
	lines := strings.Split(Wrap(false, s), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 80, len([]rune(lines[0])))
	assert.Equal(t, "é", lines[1])
}

func TestWrapAll(t *testing.T) {
	in := map[string]string{"A": strings.Repeat("z", 100), "B": "short"}
	out := WrapAll(false, in)
	assert.Contains(t, out["A"], "\n")
	assert.Equal(t, "short", out["B"])
	assert.NotContains(t, in["A"], "\n")
}

func TestNormalizeGlyphs(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"🔴 High Priority", "[HIGH] High Priority"},
		{"🟠 Medium Priority", "[MEDIUM] Medium Priority"},
		{"🟡 Low Priority", "[Low] Low Priority"},
		{"🟢 Low Priority", "[LOW] Low Priority"},
		{"❌ seccomp", "[FAILED] seccomp"},
		{"✅ namespaces ✅", "[PASSED] namespaces [PASSED]"},
		{"plain ascii", "plain ascii"},
		{"⚠ other glyph", "⚠ other glyph"},
	}

	for _, tc := range cases {
		if got := NormalizeGlyphs(tc.in); got != tc.want {
			t.Fatalf("NormalizeGlyphs(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
