package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Public IP sources.
const (
	SourceCommand = "command"
	SourceDNS     = "dns"
	SourceSTUN    = "stun"
	SourceOff     = "off"
)

type Config struct {
	ListenAddr        string   `yaml:"listen_addr"`
	MetricsAddr       string   `yaml:"metrics_addr"`
	CacheTTL          Duration `yaml:"cache_ttl"`
	RefreshTimeout    Duration `yaml:"refresh_timeout"`
	CommandTimeout    Duration `yaml:"command_timeout"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	RequestTimeout    Duration `yaml:"request_timeout"`

	PublicIP         PublicIPConfig `yaml:"public_ip"`
	IsolationCommand Argv           `yaml:"isolation_command"`
	TrustedProxies   []string       `yaml:"trusted_proxies"`

	NormalizeGlyphsJSON bool `yaml:"normalize_glyphs_json"`
	NormalizeGlyphsHTML bool `yaml:"normalize_glyphs_html"`
	Strict              bool `yaml:"strict"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type PublicIPConfig struct {
	Source        string   `yaml:"source"`
	IPv4Command   Argv     `yaml:"ipv4_command"`
	IPv6Command   Argv     `yaml:"ipv6_command"`
	DNSResolverV4 string   `yaml:"dns_resolver_v4"`
	DNSResolverV6 string   `yaml:"dns_resolver_v6"`
	STUNServers   []string `yaml:"stun_servers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:        "0.0.0.0:8080",
		CacheTTL:          Duration(10 * time.Second),
		RefreshTimeout:    Duration(5 * time.Second),
		CommandTimeout:    Duration(5 * time.Second),
		ReadHeaderTimeout: Duration(2 * time.Second),
		RequestTimeout:    Duration(15 * time.Second),
		PublicIP: PublicIPConfig{
			Source:        SourceCommand,
			IPv4Command:   []string{"curl", "-4", "-s", "https://api.ipify.org"},
			IPv6Command:   []string{"dig", "-6", "+short", "AAAA", "myip.opendns.com", "@resolver1.opendns.com"},
			DNSResolverV4: "208.67.222.222:53",
			DNSResolverV6: "[2620:119:35::35]:53",
			STUNServers:   []string{"stun.l.google.com:19302"},
		},
		IsolationCommand:    []string{"am-i-isolated"},
		NormalizeGlyphsJSON: true,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then WHOAMI_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromEnv is Load without a config file.
func LoadFromEnv() (Config, error) {
	return Load("")
}

func (c *Config) applyEnv() {
	c.ListenAddr = env("WHOAMI_LISTEN_ADDR", c.ListenAddr)
	c.MetricsAddr = env("WHOAMI_METRICS_ADDR", c.MetricsAddr)
	c.CacheTTL = Duration(envDuration("WHOAMI_CACHE_TTL", c.CacheTTL.Duration()))
	c.RefreshTimeout = Duration(envDuration("WHOAMI_REFRESH_TIMEOUT", c.RefreshTimeout.Duration()))
	c.CommandTimeout = Duration(envDuration("WHOAMI_COMMAND_TIMEOUT", c.CommandTimeout.Duration()))
	c.ReadHeaderTimeout = Duration(envDuration("WHOAMI_READ_HEADER_TIMEOUT", c.ReadHeaderTimeout.Duration()))
	c.RequestTimeout = Duration(envDuration("WHOAMI_REQUEST_TIMEOUT", c.RequestTimeout.Duration()))

	c.PublicIP.Source = env("WHOAMI_PUBLIC_IP_SOURCE", c.PublicIP.Source)
	c.PublicIP.IPv4Command = envArgv("WHOAMI_IPV4_COMMAND", c.PublicIP.IPv4Command)
	c.PublicIP.IPv6Command = envArgv("WHOAMI_IPV6_COMMAND", c.PublicIP.IPv6Command)
	c.PublicIP.DNSResolverV4 = env("WHOAMI_DNS_RESOLVER_V4", c.PublicIP.DNSResolverV4)
	c.PublicIP.DNSResolverV6 = env("WHOAMI_DNS_RESOLVER_V6", c.PublicIP.DNSResolverV6)
	if v, ok := os.LookupEnv("WHOAMI_STUN_SERVERS"); ok {
		c.PublicIP.STUNServers = splitCSV(v)
	}

	// set-but-empty disables the isolation tool
	if v, ok := os.LookupEnv("WHOAMI_ISOLATION_COMMAND"); ok {
		c.IsolationCommand = strings.Fields(v)
	}
	if v, ok := os.LookupEnv("WHOAMI_TRUSTED_PROXIES"); ok {
		c.TrustedProxies = splitCSV(v)
	}

	c.NormalizeGlyphsJSON = envBool("WHOAMI_NORMALIZE_GLYPHS_JSON", c.NormalizeGlyphsJSON)
	c.NormalizeGlyphsHTML = envBool("WHOAMI_NORMALIZE_GLYPHS_HTML", c.NormalizeGlyphsHTML)
	c.Strict = envBool("WHOAMI_STRICT", c.Strict)

	c.LogLevel = env("WHOAMI_LOG_LEVEL", c.LogLevel)
	c.LogFormat = env("WHOAMI_LOG_FORMAT", c.LogFormat)
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	durations := []struct {
		name string
		d    Duration
	}{
		{"cache_ttl", c.CacheTTL},
		{"refresh_timeout", c.RefreshTimeout},
		{"command_timeout", c.CommandTimeout},
		{"read_header_timeout", c.ReadHeaderTimeout},
		{"request_timeout", c.RequestTimeout},
	}
	for _, x := range durations {
		if x.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", x.name, x.d.Duration()))
		}
	}

	// chi's Timeout middleware answers 504 once request_timeout passes, so
	// every wait inside a request must finish before it.
	if rt := c.RequestTimeout; rt > 0 {
		if c.RefreshTimeout > 0 && c.RefreshTimeout >= rt {
			errs = append(errs, fmt.Errorf("refresh_timeout %s must be shorter than request_timeout %s",
				c.RefreshTimeout.Duration(), rt.Duration()))
		}
		if c.CommandTimeout > 0 && c.CommandTimeout >= rt {
			errs = append(errs, fmt.Errorf("command_timeout %s must be shorter than request_timeout %s",
				c.CommandTimeout.Duration(), rt.Duration()))
		}
	}

	switch c.PublicIP.Source {
	case SourceCommand, SourceDNS, SourceOff:
	case SourceSTUN:
		if len(c.PublicIP.STUNServers) == 0 {
			errs = append(errs, errors.New("public_ip.stun_servers is required for the stun source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown public_ip.source %q", c.PublicIP.Source))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Errorf("trusted_proxies: %w", err))
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envArgv(key string, def Argv) Argv {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.Fields(v)
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
