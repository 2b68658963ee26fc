package httpserver

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// trustedProxies applies chi's RealIP only to requests whose peer address
// falls inside one of the configured networks. Forwarding headers from any
// other peer are ignored.
type trustedProxies struct {
	nets []*net.IPNet
}

func newTrustedProxies(cidrs []string) (*trustedProxies, error) {
	t := &trustedProxies{}
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(strings.TrimSpace(c))
		if err != nil {
			return nil, err
		}
		t.nets = append(t.nets, n)
	}
	return t, nil
}

func (t *trustedProxies) contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range t.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (t *trustedProxies) middleware(next http.Handler) http.Handler {
	realIP := middleware.RealIP(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t.contains(net.ParseIP(remoteIP(r))) {
			realIP.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// remoteIP returns the host part of r.RemoteAddr. RealIP rewrites RemoteAddr
// to a bare address, so a missing port is accepted as is.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
