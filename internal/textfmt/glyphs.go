package textfmt

import "strings"

// Status markers emitted by the isolation report tool. The tool uses two
// different markers for low priority findings; they map to differently cased
// tags and must stay distinct.
var glyphReplacer = strings.NewReplacer(
	"🔴", "[HIGH]",
	"🟠", "[MEDIUM]",
	"🟡", "[Low]",
	"🟢", "[LOW]",
	"❌", "[FAILED]",
	"✅", "[PASSED]",
)

// NormalizeGlyphs replaces known pictographic status markers with ASCII tags.
// Anything else is left untouched.
func NormalizeGlyphs(text string) string {
	return glyphReplacer.Replace(text)
}
