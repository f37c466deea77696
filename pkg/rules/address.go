package rules

import "net/netip"

var loopbackPrefixes = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
}

var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("fc00::/7"),
}

// ParseAddr parses a literal IP, dropping any zone and unmapping IPv4-mapped
// IPv6 addresses so that ::ffff:127.0.0.1 is treated as 127.0.0.1.
func ParseAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.WithZone("").Unmap(), true
}

// IsLoopback reports whether addr is in 127.0.0.0/8 or is ::1.
func IsLoopback(addr netip.Addr) bool {
	return containedIn(addr, loopbackPrefixes)
}

// IsPrivate reports whether addr is in RFC 1918 space or the IPv6 unique-local range.
func IsPrivate(addr netip.Addr) bool {
	return containedIn(addr, privatePrefixes)
}

// IsLocal reports loopback or private addresses.
func IsLocal(addr netip.Addr) bool {
	return IsLoopback(addr) || IsPrivate(addr)
}

func containedIn(addr netip.Addr, prefixes []netip.Prefix) bool {
	if !addr.IsValid() {
		return false
	}
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
