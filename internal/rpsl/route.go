package rpsl

import "net/netip"

// RouteObject is the capability set route/route6 objects additionally
// expose.
type RouteObject interface {
	Object

	// Prefix returns the route's covered IP prefix.
	Prefix() netip.Prefix
}

// InetnumClassFor returns the inetnum/inet6num class matching prefix's
// address family.
func InetnumClassFor(prefix netip.Prefix) ObjectClass {
	if prefix.Addr().Is4() {
		return ClassInetnum
	}
	return ClassInet6num
}

// RouteClassFor returns the route/route6 class matching prefix's address
// family.
func RouteClassFor(prefix netip.Prefix) ObjectClass {
	if prefix.Addr().Is4() {
		return ClassRoute
	}
	return ClassRoute6
}

// LessSpecific returns the one-level less-specific prefix of p (mask
// shrunk by one bit, network-aligned), and false if p has no parent
// (mask already 0).
func LessSpecific(p netip.Prefix) (netip.Prefix, bool) {
	bits := p.Bits()
	if bits <= 0 {
		return netip.Prefix{}, false
	}
	parent := netip.PrefixFrom(p.Addr(), bits-1).Masked()
	return parent, true
}
