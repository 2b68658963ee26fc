package publicip

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pion/stun"
)

// STUN discovers the mapped address by sending a Binding request to each
// server in turn until one answers over the requested family.
type STUN struct {
	Servers []string
	Timeout time.Duration
}

func (s *STUN) Lookup(ctx context.Context, family Family) (string, error) {
	if len(s.Servers) == 0 {
		return "", errors.New("no STUN servers configured")
	}
	network := "udp4"
	if family == IPv6 {
		network = "udp6"
	}

	var lastErr error
	for _, server := range s.Servers {
		ip, err := s.query(ctx, network, server)
		if err == nil {
			return ip, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%s stun lookup: %w", family, lastErr)
}

func (s *STUN) query(ctx context.Context, network, server string) (string, error) {
	d := net.Dialer{Timeout: s.Timeout}
	conn, err := d.DialContext(ctx, network, server)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", server, err)
	}
	defer conn.Close()

	var deadline time.Time
	if s.Timeout > 0 {
		deadline = time.Now().Add(s.Timeout)
	}
	if dl, ok := ctx.Deadline(); ok && (deadline.IsZero() || dl.Before(deadline)) {
		deadline = dl
	}
	if !deadline.IsZero() {
		_ = conn.SetDeadline(deadline)
	}

	req, err := stun.Build(stun.TransactionID, stun.BindingRequest)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if _, err := req.WriteTo(conn); err != nil {
		return "", fmt.Errorf("send to %s: %w", server, err)
	}

	buf := make([]byte, 1500)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("read from %s: %w", server, err)
	}
	return mappedAddress(buf[:n])
}

func mappedAddress(raw []byte) (string, error) {
	res := new(stun.Message)
	res.Raw = append([]byte(nil), raw...)
	if err := res.Decode(); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var xor stun.XORMappedAddress
	if err := xor.GetFrom(res); err == nil {
		return xor.IP.String(), nil
	}
	// RFC 3489 servers only send MAPPED-ADDRESS
	var mapped stun.MappedAddress
	if err := mapped.GetFrom(res); err != nil {
		return "", ErrNoAddress
	}
	return mapped.IP.String(), nil
}
