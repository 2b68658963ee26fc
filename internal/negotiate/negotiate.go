// Package negotiate picks the response representation for a diagnostic
// request.
package negotiate

import (
	"net/http"
	"strings"
)

// Mode is the negotiated response representation.
type Mode struct {
	JSON bool
}

var (
	HTML = Mode{}
	JSON = Mode{JSON: true}
)

// Verbose reports whether values are emitted untruncated. Machine consumers
// get exact bytes, humans get wrapped lines.
func (m Mode) Verbose() bool { return m.JSON }

func (m Mode) String() string {
	if m.JSON {
		return "json"
	}
	return "html"
}

func (m Mode) ContentType() string {
	if m.JSON {
		return "application/json"
	}
	return "text/html; charset=utf-8"
}

// Decide inspects the path, raw query, Accept and User-Agent of r.
//
// JSON is chosen when the query or path contains "j", or Accept contains
// "application/json". Otherwise curl clients default to JSON unless the query
// or path contains "h". Everything else is HTML.
//
// Matching is plain case-sensitive substring search, so a path such as
// "/john" selects JSON and "/health" suppresses the curl default. Clients
// depend on the one-letter hints, so this stays as is. The path is matched in
// its escaped form, as sent on the wire, so "/%6A" is not a "j".
func Decide(r *http.Request) Mode {
	path := r.URL.EscapedPath()
	query := r.URL.RawQuery

	if strings.Contains(query, "j") ||
		strings.Contains(path, "j") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") {
		return JSON
	}

	forceHTML := strings.Contains(query, "h") || strings.Contains(path, "h")
	if strings.Contains(r.Header.Get("User-Agent"), "curl") && !forceHTML {
		return JSON
	}
	return HTML
}
