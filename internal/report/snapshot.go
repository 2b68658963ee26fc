package report

import (
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/umutbasal/whoami/internal/isolation"
	"github.com/umutbasal/whoami/internal/publicip"
	"github.com/umutbasal/whoami/internal/sysinfo"
	"github.com/umutbasal/whoami/internal/textfmt"
)

// Input is everything collected for one request before formatting.
type Input struct {
	Headers     http.Header
	Host        string
	Environment map[string]string
	RemoteIP    string
	PublicIPs   publicip.Addresses
	Isolation   isolation.Posture
	System      sysinfo.Snapshot
}

// Snapshot is the diagnostic document for one request.
type Snapshot struct {
	Headers     map[string]string
	Environment map[string]string
	RemoteIP    string
	PublicIPs   publicip.Addresses
	Isolation   isolation.Posture
	System      sysinfo.Snapshot
}

// Build formats the collected values. When verbose is false, header and
// environment values are wrapped for human display.
func Build(in Input, verbose bool) Snapshot {
	return Snapshot{
		Headers:     textfmt.WrapAll(verbose, headerMap(in.Headers, in.Host)),
		Environment: textfmt.WrapAll(verbose, in.Environment),
		RemoteIP:    in.RemoteIP,
		PublicIPs:   in.PublicIPs,
		Isolation:   in.Isolation,
		System:      in.System,
	}
}

// headerMap flattens h into lower-cased names, the way they appear on the
// wire for HTTP/2. Repeated headers are joined with ", " and values that are
// not valid UTF-8 become empty.
func headerMap(h http.Header, host string) map[string]string {
	out := make(map[string]string, len(h)+1)
	if host != "" {
		out["host"] = host
	}

	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := strings.ToLower(name)
		v := strings.Join(h[name], ", ")
		if !utf8.ValidString(v) {
			v = ""
		}
		if prev, ok := out[key]; ok && prev != "" {
			v = prev + ", " + v
		}
		out[key] = v
	}
	return out
}
