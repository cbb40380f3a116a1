// internal/domain/dns.go
//
// TXT lookup abstraction for verification.
//
// Context
// -------
// Verification needs exactly one external capability: "fetch the TXT
// values for this name."  Production uses net.Resolver (respecting the
// per-call context deadline the engine applies); tests and demo mode
// inject a static map so DNS state can be scripted.
package domain

import (
	"context"
	"net"
)

// TXTLookuper fetches the TXT values published at a DNS name.
type TXTLookuper interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// NetLookuper resolves through the host's configured DNS.  The zero value
// uses the default resolver.
type NetLookuper struct {
	Resolver *net.Resolver
}

func (n *NetLookuper) LookupTXT(ctx context.Context, name string) ([]string, error) {
	r := n.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	return r.LookupTXT(ctx, name)
}

// StaticLookuper serves TXT records from a fixed map.  Missing names
// return the zero value, mimicking an empty DNS answer.
type StaticLookuper map[string][]string

func (s StaticLookuper) LookupTXT(_ context.Context, name string) ([]string, error) {
	return s[name], nil
}
