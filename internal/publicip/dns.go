package publicip

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

const (
	DefaultMyIPName     = "myip.opendns.com."
	DefaultResolverIPv4 = "208.67.222.222:53"
	DefaultResolverIPv6 = "[2620:119:35::35]:53"
)

// DNS asks a resolver that answers with the querier's own address (OpenDNS
// "myip"), the same query `dig +short myip.opendns.com @resolver1.opendns.com`
// performs. The query is sent over the family being looked up so the answer
// reflects that family's egress address.
type DNS struct {
	Name         string
	ResolverIPv4 string
	ResolverIPv6 string
	Timeout      time.Duration
}

func NewDNS(v4, v6 string, timeout time.Duration) *DNS {
	if v4 == "" {
		v4 = DefaultResolverIPv4
	}
	if v6 == "" {
		v6 = DefaultResolverIPv6
	}
	return &DNS{Name: DefaultMyIPName, ResolverIPv4: v4, ResolverIPv6: v6, Timeout: timeout}
}

func (d *DNS) Lookup(ctx context.Context, family Family) (string, error) {
	qtype, network, server := dns.TypeA, "udp4", d.ResolverIPv4
	if family == IPv6 {
		qtype, network, server = dns.TypeAAAA, "udp6", d.ResolverIPv6
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(d.Name), qtype)
	m.RecursionDesired = true

	c := &dns.Client{Net: network, Timeout: d.Timeout}
	resp, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return "", fmt.Errorf("%s dns lookup via %s: %w", family, server, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%s dns lookup via %s: rcode %s", family, server, dns.RcodeToString[resp.Rcode])
	}
	return answerAddress(resp, family)
}

func answerAddress(resp *dns.Msg, family Family) (string, error) {
	for _, rr := range resp.Answer {
		switch v := rr.(type) {
		case *dns.A:
			if family == IPv4 {
				return v.A.String(), nil
			}
		case *dns.AAAA:
			if family == IPv6 {
				return v.AAAA.String(), nil
			}
		}
	}
	return "", fmt.Errorf("%s dns lookup: %w", family, ErrNoAddress)
}
