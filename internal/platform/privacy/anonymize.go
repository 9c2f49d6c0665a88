// Package privacy strips identifying detail from values before they reach
// logs.
package privacy

import (
	"net"
	"net/netip"
)

// AnonymizeIP masks an address to its network: /24 for IPv4 and /48 for
// IPv6. It accepts a bare address or a host:port pair as found in
// http.Request.RemoteAddr, and returns "unknown" for empty input and
// "invalid" for anything unparseable.
func AnonymizeIP(addr string) string {
	if addr == "" || addr == "unknown" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return "invalid"
	}
	ip = ip.Unmap().WithZone("")

	bits := 48
	if ip.Is4() {
		bits = 24
	}
	prefix, err := ip.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
