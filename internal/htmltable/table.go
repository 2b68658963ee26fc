// Package htmltable renders JSON-shaped values as nested HTML tables.
package htmltable

import (
	"bytes"
	"encoding/json"
	"html"
	"sort"
	"strconv"
	"strings"
)

// Format renders v as HTML. v is first passed through encoding/json, so
// struct tags decide field names and any marshalable value is accepted.
// Object keys are sorted; arrays keep their order. Text is HTML-escaped and
// newlines inside strings are preserved for <pre> display.
func Format(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return html.EscapeString(err.Error())
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return html.EscapeString(err.Error())
	}

	var sb strings.Builder
	write(&sb, generic)
	return sb.String()
}

func write(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			sb.WriteString("{}")
			return
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(`<table border="1">`)
		for _, k := range keys {
			sb.WriteString("<tr><th>")
			sb.WriteString(html.EscapeString(k))
			sb.WriteString("</th><td>")
			write(sb, t[k])
			sb.WriteString("</td></tr>")
		}
		sb.WriteString("</table>")
	case []any:
		if len(t) == 0 {
			sb.WriteString("[]")
			return
		}
		sb.WriteString(`<table border="1">`)
		for _, item := range t {
			sb.WriteString("<tr><td>")
			write(sb, item)
			sb.WriteString("</td></tr>")
		}
		sb.WriteString("</table>")
	case string:
		sb.WriteString(html.EscapeString(t))
	case json.Number:
		sb.WriteString(t.String())
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case nil:
		sb.WriteString("null")
	}
}
