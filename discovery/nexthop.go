// Package discovery feeds an lpm.Table with routes discovered from the
// kernel via netlink, keeping the table in sync with the main routing
// table.
package discovery

import (
	"fmt"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// Nexthop is the payload stored per discovered route.
type Nexthop struct {
	// Gateway is the next hop address; the zero value means the route is
	// directly connected.
	Gateway netip.Addr
	// LinkIndex is the outgoing interface index.
	LinkIndex int
	// Priority is the kernel route metric.
	Priority int
}

func (m Nexthop) String() string {
	if m.Gateway.IsValid() {
		return fmt.Sprintf("via %s dev#%d metric %d", m.Gateway, m.LinkIndex, m.Priority)
	}
	return fmt.Sprintf("dev#%d metric %d", m.LinkIndex, m.Priority)
}

// routeEntry converts a netlink route into a table entry. IPv4 destinations
// are normalized to 4-byte addresses so the table maps them into the
// v4-mapped key space consistently.
func routeEntry(route netlink.Route) (netip.Prefix, Nexthop, bool) {
	nh := Nexthop{
		LinkIndex: route.LinkIndex,
		Priority:  route.Priority,
	}
	if gw, ok := netip.AddrFromSlice(route.Gw); ok {
		nh.Gateway = gw.Unmap()
	}

	if route.Dst == nil {
		// The kernel encodes the default route with a nil destination.
		if route.Family == netlink.FAMILY_V6 {
			return netip.PrefixFrom(netip.IPv6Unspecified(), 0), nh, true
		}
		return netip.PrefixFrom(netip.IPv4Unspecified(), 0), nh, true
	}

	ip := route.Dst.IP
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Prefix{}, nh, false
	}

	ones, _ := route.Dst.Mask.Size()
	return netip.PrefixFrom(addr, ones), nh, true
}
