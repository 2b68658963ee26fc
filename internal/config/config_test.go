package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whoami.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 10*time.Second, cfg.CacheTTL.Duration())
	assert.Equal(t, SourceCommand, cfg.PublicIP.Source)
	assert.Equal(t, Argv{"am-i-isolated"}, cfg.IsolationCommand)
	assert.True(t, cfg.NormalizeGlyphsJSON)
	assert.False(t, cfg.NormalizeGlyphsHTML)
	assert.False(t, cfg.Strict)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
listen_addr: 127.0.0.1:9000
metrics_addr: 127.0.0.1:9100
cache_ttl: 30s
public_ip:
  source: stun
  stun_servers: ["stun.example.net:3478"]
isolation_command: am-i-isolated --no-color
trusted_proxies: ["10.0.0.0/8"]
normalize_glyphs_html: true
strict: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL.Duration())
	// unset keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.RefreshTimeout.Duration())
	assert.Equal(t, SourceSTUN, cfg.PublicIP.Source)
	assert.Equal(t, []string{"stun.example.net:3478"}, cfg.PublicIP.STUNServers)
	assert.Equal(t, Argv{"am-i-isolated", "--no-color"}, cfg.IsolationCommand)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
	assert.True(t, cfg.NormalizeGlyphsHTML)
	assert.True(t, cfg.Strict)
}

func TestLoad_ArgvList(t *testing.T) {
	path := writeConfig(t, `
public_ip:
  ipv4_command: ["curl", "-4", "-s", "https://ifconfig.me"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Argv{"curl", "-4", "-s", "https://ifconfig.me"}, cfg.PublicIP.IPv4Command)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "cache_ttl: 30s\nlisten_addr: 127.0.0.1:9000\n")
	t.Setenv("WHOAMI_CACHE_TTL", "2s")
	t.Setenv("WHOAMI_PUBLIC_IP_SOURCE", "off")
	t.Setenv("WHOAMI_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")
	t.Setenv("WHOAMI_NORMALIZE_GLYPHS_JSON", "false")
	t.Setenv("WHOAMI_ISOLATION_COMMAND", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.CacheTTL.Duration())
	assert.Equal(t, SourceOff, cfg.PublicIP.Source)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.TrustedProxies)
	assert.False(t, cfg.NormalizeGlyphsJSON)
	assert.Empty(t, cfg.IsolationCommand)
}

func TestLoad_BadEnvKeepsDefault(t *testing.T) {
	t.Setenv("WHOAMI_CACHE_TTL", "soon")
	t.Setenv("WHOAMI_STRICT", "maybe")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.CacheTTL.Duration())
	assert.False(t, cfg.Strict)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeConfig(t, "cache_ttl: forever\n"))
	assert.ErrorContains(t, err, "invalid duration")

	_, err = Load(writeConfig(t, "isolation_command: {a: b}\n"))
	assert.ErrorContains(t, err, "command must be a string or a list")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.ListenAddr = " "
	cfg.CacheTTL = 0
	cfg.PublicIP.Source = "carrier-pigeon"
	cfg.TrustedProxies = []string{"10.0.0.0/33"}
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "listen_addr is required")
	assert.Contains(t, msg, "cache_ttl must be positive")
	assert.Contains(t, msg, `unknown public_ip.source "carrier-pigeon"`)
	assert.Contains(t, msg, "trusted_proxies")
	assert.Contains(t, msg, `unknown log_format "xml"`)

	stun := Default()
	stun.PublicIP.Source = SourceSTUN
	stun.PublicIP.STUNServers = nil
	assert.ErrorContains(t, stun.Validate(), "stun_servers is required")

	assert.NoError(t, Default().Validate())
}

func TestValidate_TrustedProxiesTrimmed(t *testing.T) {
	cfg := Default()
	cfg.TrustedProxies = []string{" 10.0.0.0/8", "192.168.0.0/16 "}
	assert.NoError(t, cfg.Validate())

	path := writeConfig(t, "trusted_proxies: [\" 10.0.0.0/8\"]\n")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{" 10.0.0.0/8"}, loaded.TrustedProxies)
}

func TestValidate_TimeoutsFitRequestTimeout(t *testing.T) {
	cfg := Default()
	cfg.RequestTimeout = Duration(5 * time.Second)
	cfg.RefreshTimeout = Duration(5 * time.Second)
	cfg.CommandTimeout = Duration(6 * time.Second)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh_timeout 5s must be shorter than request_timeout 5s")
	assert.Contains(t, err.Error(), "command_timeout 6s must be shorter than request_timeout 5s")

	cfg.RefreshTimeout = Duration(2 * time.Second)
	cfg.CommandTimeout = Duration(3 * time.Second)
	assert.NoError(t, cfg.Validate())

	t.Setenv("WHOAMI_COMMAND_TIMEOUT", "20s")
	_, err = LoadFromEnv()
	assert.ErrorContains(t, err, "command_timeout 20s must be shorter than request_timeout 15s")
}
