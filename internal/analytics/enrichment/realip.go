package enrichment

import (
	"net"
	"net/http"
	"strings"
)

// TrustedProxies decides whether a peer's forwarding headers are honored.
type TrustedProxies struct {
	nets []*net.IPNet
}

// NewTrustedProxies parses the given CIDRs (bare IPs are accepted as /32 or
// /128). Invalid entries are skipped.
func NewTrustedProxies(cidrs []string) *TrustedProxies {
	tp := &TrustedProxies{}
	for _, cidr := range cidrs {
		if !strings.Contains(cidr, "/") {
			if ip := net.ParseIP(cidr); ip != nil {
				if ip.To4() != nil {
					cidr += "/32"
				} else {
					cidr += "/128"
				}
			}
		}
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			tp.nets = append(tp.nets, ipNet)
		}
	}
	return tp
}

// Trusts reports whether the IP belongs to a trusted proxy.
func (tp *TrustedProxies) Trusts(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, n := range tp.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP resolves the client IP for a request. X-Forwarded-For is honored
// only when the direct peer is a trusted proxy; otherwise the peer address
// itself is the client.
func (tp *TrustedProxies) ClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	if !tp.Trusts(peer) {
		return peer
	}

	// Walk the forwarded chain right to left, skipping trusted hops; the
	// first untrusted address is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(parts[i])
			if hop == "" {
				continue
			}
			if !tp.Trusts(hop) {
				return hop
			}
			peer = hop
		}
	}

	if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
		return xrip
	}

	return peer
}
