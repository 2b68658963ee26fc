// Package publicip discovers the server's public IPv4 and IPv6 addresses.
//
// Lookups are never cached. A failed lookup yields the unspecified address
// of its family so callers always have something to render.
package publicip

import (
	"context"
	"errors"
	"net"
	"strings"
)

const (
	UnspecifiedIPv4 = "0.0.0.0"
	UnspecifiedIPv6 = "::"
)

var (
	ErrNoAddress   = errors.New("no address in response")
	ErrWrongFamily = errors.New("address of the wrong family")
)

// Family is the IP address family being looked up.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Unspecified returns the sentinel reported when a lookup fails.
func (f Family) Unspecified() string {
	if f == IPv6 {
		return UnspecifiedIPv6
	}
	return UnspecifiedIPv4
}

// Lookup resolves the public address for one family.
type Lookup interface {
	Lookup(ctx context.Context, family Family) (string, error)
}

// Addresses is the pair rendered in the diagnostic document.
type Addresses struct {
	IPv4 string `json:"ipv4"`
	IPv6 string `json:"ipv6"`
}

// Resolve runs l for family and substitutes the sentinel on failure. The
// error is returned alongside for logging.
func Resolve(ctx context.Context, l Lookup, family Family) (string, error) {
	if l == nil {
		return family.Unspecified(), nil
	}
	ip, err := l.Lookup(ctx, family)
	if err != nil {
		return family.Unspecified(), err
	}
	return ip, nil
}

// Disabled never performs a lookup.
type Disabled struct{}

func (Disabled) Lookup(_ context.Context, f Family) (string, error) {
	return f.Unspecified(), nil
}

// normalize validates raw tool output and returns the canonical address.
// Lines that are not an address are skipped and the first address wins;
// `dig +short` may list a CNAME chain before it.
func normalize(raw string, family Family) (string, error) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ip := net.ParseIP(strings.Trim(line, `"`))
		if ip == nil {
			continue
		}
		if (ip.To4() != nil) != (family == IPv4) {
			return "", ErrWrongFamily
		}
		return ip.String(), nil
	}
	return "", ErrNoAddress
}
