package report

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umutbasal/whoami/internal/isolation"
	"github.com/umutbasal/whoami/internal/negotiate"
	"github.com/umutbasal/whoami/internal/publicip"
	"github.com/umutbasal/whoami/internal/sysinfo"
)

func sampleInput() Input {
	h := http.Header{}
	h.Set("test_header", "test_value")
	h.Add("Accept", "text/html")
	h.Add("Accept", "application/xml")
	return Input{
		Headers:     h,
		Host:        "example.test",
		Environment: map[string]string{"WHOAMI_VAR": "hello", "LONG": strings.Repeat("x", 200)},
		RemoteIP:    "192.0.2.10",
		PublicIPs:   publicip.Addresses{IPv4: "203.0.113.1", IPv6: "::"},
		Isolation:   isolation.Posture{"🔴 High Priority": {"❌ seccomp disabled"}},
		System:      sysinfo.Snapshot{TS: 1, Host: sysinfo.HostInfo{Hostname: "box"}},
	}
}

func TestStripOrderPrefix(t *testing.T) {
	cases := map[string]string{
		"1_headers":   "headers",
		"12_system":   "system",
		"headers":     "headers",
		"1_":          "",
		"1":           "1",
		"_x":          "_x",
		"a1_b":        "a1_b",
		"5_isolation": "isolation",
	}
	for in, want := range cases {
		if got := StripOrderPrefix(in); got != want {
			t.Fatalf("StripOrderPrefix(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestSections_FixedOrder(t *testing.T) {
	var names []string
	for _, s := range Build(sampleInput(), true).Sections() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"headers", "environment", "remote_ip", "public_ips", "isolation_posture", "system_info",
	}, names)
}

func TestBuild_Headers(t *testing.T) {
	h := http.Header{}
	h.Set("X-Bad", "\xff\xfe")
	snap := Build(Input{Headers: h, Host: "h.test"}, true)

	assert.Equal(t, "", snap.Headers["x-bad"])
	assert.Equal(t, "h.test", snap.Headers["host"])

	snap = Build(sampleInput(), true)
	assert.Equal(t, "test_value", snap.Headers["test_header"])
	assert.Equal(t, "text/html, application/xml", snap.Headers["accept"])
}

func TestBuild_WrapsOnlyWhenTerse(t *testing.T) {
	long := strings.Repeat("x", 200)

	verbose := Build(sampleInput(), true)
	assert.Equal(t, long, verbose.Environment["LONG"])

	terse := Build(sampleInput(), false)
	assert.Equal(t, 3, len(strings.Split(terse.Environment["LONG"], "\n")))
	assert.Equal(t, "hello", terse.Environment["WHOAMI_VAR"])
}

func TestRender_JSON(t *testing.T) {
	snap := Build(sampleInput(), negotiate.JSON.Verbose())
	body, ct := Render(snap, negotiate.JSON, DefaultOptions(negotiate.JSON))

	assert.Equal(t, "application/json", ct)
	assert.True(t, strings.HasPrefix(body, `{"headers":`), body)

	// keys appear in document order with prefixes stripped
	idx := func(s string) int { return strings.Index(body, s) }
	assert.Less(t, idx(`"headers":`), idx(`"environment":`))
	assert.Less(t, idx(`"environment":`), idx(`"remote_ip":`))
	assert.Less(t, idx(`"remote_ip":`), idx(`"public_ips":`))
	assert.Less(t, idx(`"public_ips":`), idx(`"isolation_posture":`))
	assert.Less(t, idx(`"isolation_posture":`), idx(`"system_info":`))
	assert.NotContains(t, body, `"1_headers"`)

	var doc struct {
		Headers     map[string]string   `json:"headers"`
		Environment map[string]string   `json:"environment"`
		RemoteIP    string              `json:"remote_ip"`
		PublicIPs   publicip.Addresses  `json:"public_ips"`
		Isolation   map[string][]string `json:"isolation_posture"`
		System      sysinfo.Snapshot    `json:"system_info"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "test_value", doc.Headers["test_header"])
	assert.Equal(t, "hello", doc.Environment["WHOAMI_VAR"])
	assert.Equal(t, strings.Repeat("x", 200), doc.Environment["LONG"])
	assert.Equal(t, "192.0.2.10", doc.RemoteIP)
	assert.Equal(t, "203.0.113.1", doc.PublicIPs.IPv4)
	assert.Equal(t, []string{"[FAILED] seccomp disabled"}, doc.Isolation["[HIGH] High Priority"])
	assert.Equal(t, "box", doc.System.Host.Hostname)
}

func TestRender_JSONDeterministic(t *testing.T) {
	snap := Build(sampleInput(), true)
	a, _ := Render(snap, negotiate.JSON, Options{})
	b, _ := Render(snap, negotiate.JSON, Options{})
	assert.Equal(t, a, b)
}

func TestRender_HTML(t *testing.T) {
	snap := Build(sampleInput(), negotiate.HTML.Verbose())
	body, ct := Render(snap, negotiate.HTML, DefaultOptions(negotiate.HTML))

	assert.Equal(t, "text/html; charset=utf-8", ct)
	assert.True(t, strings.HasPrefix(body, "<html><head><title>Whoami</title></head><body><h1>headers</h1><pre>"))
	assert.True(t, strings.HasSuffix(body, "</pre></body></html>"))
	assert.Contains(t, body, "test_header")
	assert.Contains(t, body, "test_value")
	assert.Contains(t, body, "WHOAMI_VAR")
	assert.Contains(t, body, "hello")
	assert.Contains(t, body, "🔴 High Priority", "HTML keeps glyphs by default")

	order := []string{"headers", "environment", "remote_ip", "public_ips", "isolation_posture", "system_info"}
	last := -1
	for _, name := range order {
		i := strings.Index(body, "<h1>"+name+"</h1>")
		require.Greater(t, i, last, name)
		last = i
	}
}

func TestRender_GlyphOptionPerMode(t *testing.T) {
	snap := Build(sampleInput(), false)

	body, _ := Render(snap, negotiate.HTML, Options{NormalizeGlyphs: true})
	assert.Contains(t, body, "[HIGH] High Priority")

	body, _ = Render(snap, negotiate.JSON, Options{NormalizeGlyphs: false})
	assert.Contains(t, body, "🔴 High Priority")

	// the caller's posture is not modified
	assert.Contains(t, snap.Isolation, "🔴 High Priority")
}

func TestRender_SentinelPosture(t *testing.T) {
	in := sampleInput()
	in.Isolation = isolation.Unavailable()
	body, _ := Render(Build(in, true), negotiate.JSON, DefaultOptions(negotiate.JSON))
	assert.Contains(t, body, `"isolation_posture":{"No isolation posture data":[""]}`)
}

func TestRenderJSON_UnencodableSection(t *testing.T) {
	in := sampleInput()
	in.System.Mem.UsedPercent = math.NaN()
	body := RenderJSON(Build(in, true))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.IsType(t, "", doc["system_info"])
	assert.Equal(t, "192.0.2.10", doc["remote_ip"])
}
