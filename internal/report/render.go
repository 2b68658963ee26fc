package report

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"

	"github.com/umutbasal/whoami/internal/htmltable"
	"github.com/umutbasal/whoami/internal/isolation"
	"github.com/umutbasal/whoami/internal/negotiate"
	"github.com/umutbasal/whoami/internal/textfmt"
)

// Options tune rendering for one representation.
type Options struct {
	// NormalizeGlyphs replaces status glyphs in the isolation posture with
	// ASCII tags.
	NormalizeGlyphs bool
}

// DefaultOptions returns the stock options for mode: JSON output carries
// ASCII status tags, HTML output keeps the tool's glyphs.
func DefaultOptions(mode negotiate.Mode) Options {
	return Options{NormalizeGlyphs: mode.JSON}
}

// Render produces the response body and its content type.
func Render(snap Snapshot, mode negotiate.Mode, opts Options) (string, string) {
	if opts.NormalizeGlyphs {
		snap.Isolation = normalizePosture(snap.Isolation)
	}
	if mode.JSON {
		return RenderJSON(snap), mode.ContentType()
	}
	return RenderHTML(snap), mode.ContentType()
}

// RenderJSON writes the sections as a single object in fixed order. A value
// that cannot be encoded (for example a NaN metric) is replaced by its
// encoding error so the rest of the document is still served.
func RenderJSON(snap Snapshot) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range snap.Sections() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(s.Name())
		buf.Write(name)
		buf.WriteByte(':')

		b, err := json.Marshal(s.Value)
		if err != nil {
			b, _ = json.Marshal(err.Error())
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.String()
}

func RenderHTML(snap Snapshot) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>Whoami</title></head><body>")
	for _, s := range snap.Sections() {
		sb.WriteString("<h1>")
		sb.WriteString(html.EscapeString(s.Name()))
		sb.WriteString("</h1><pre>")
		sb.WriteString(htmltable.Format(s.Value))
		sb.WriteString("</pre>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func normalizePosture(p isolation.Posture) isolation.Posture {
	if p == nil {
		return nil
	}
	out := make(isolation.Posture, len(p))
	for k, findings := range p {
		nk := textfmt.NormalizeGlyphs(k)
		for _, f := range findings {
			out[nk] = append(out[nk], textfmt.NormalizeGlyphs(f))
		}
		if findings != nil && out[nk] == nil {
			out[nk] = []string{}
		}
	}
	return out
}
