package ipaddr

import (
	"fmt"
	"sort"
	"strings"
)

// Subnet is an IPv4 prefix as seen from one local interface: the
// interface's own address, the derived network address, the prefix
// length, and any default gateways learned for that interface.
//
// Invariant: NetworkAddress == LocalAddress & PrefixMask(PrefixLength).
type Subnet struct {
	LocalAddress   Addr
	NetworkAddress Addr
	PrefixLength   int
	Gateways       []Addr
}

// New builds a Subnet from a local address and prefix length,
// deriving the network address. prefixLen must be in [1,30]; New
// returns false otherwise.
func New(local Addr, prefixLen int, gateways []Addr) (Subnet, bool) {
	if prefixLen < 1 || prefixLen > 30 {
		return Subnet{}, false
	}
	mask := PrefixMask(prefixLen)
	gw := append([]Addr(nil), gateways...)
	return Subnet{
		LocalAddress:   local,
		NetworkAddress: Addr(uint32(local) & mask),
		PrefixLength:   prefixLen,
		Gateways:       gw,
	}, true
}

// Mask returns the prefix mask for this subnet.
func (s Subnet) Mask() uint32 {
	return PrefixMask(s.PrefixLength)
}

// Broadcast returns the directed-broadcast address for this subnet.
func (s Subnet) Broadcast() Addr {
	return Addr(uint32(s.NetworkAddress) | ^s.Mask())
}

// HostBits returns 32 - PrefixLength.
func (s Subnet) HostBits() int {
	return 32 - s.PrefixLength
}

// HostCount returns the number of usable host addresses, i.e.
// 2^HostBits - 2 (network and broadcast excluded).
func (s Subnet) HostCount() int64 {
	return (int64(1) << uint(s.HostBits())) - 2
}

// FirstHost returns the lowest usable host address (network + 1).
func (s Subnet) FirstHost() Addr {
	return s.NetworkAddress + 1
}

// LastHost returns the highest usable host address (broadcast - 1).
func (s Subnet) LastHost() Addr {
	return s.Broadcast() - 1
}

// Contains reports whether addr falls within [FirstHost, LastHost].
func (s Subnet) Contains(addr Addr) bool {
	return addr >= s.FirstHost() && addr <= s.LastHost()
}

// Key returns the (network_address, prefix_length) dedup key.
func (s Subnet) Key() string {
	return fmt.Sprintf("%d/%d", uint32(s.NetworkAddress), s.PrefixLength)
}

// String formats the subnet in diagnostic form:
// "<network>/<prefix> (local <local_ip>)" or, when gateways exist,
// "<network>/<prefix> (local <local_ip>, gateway <g1>, <g2>)".
func (s Subnet) String() string {
	base := fmt.Sprintf("%s/%d (local %s", s.NetworkAddress, s.PrefixLength, s.LocalAddress)
	if len(s.Gateways) == 0 {
		return base + ")"
	}
	parts := make([]string, len(s.Gateways))
	for i, g := range s.Gateways {
		parts[i] = g.String()
	}
	return base + ", gateway " + strings.Join(parts, ", ") + ")"
}

// SortSubnets orders subnets by (network_address, prefix_length).
func SortSubnets(subnets []Subnet) {
	sort.Slice(subnets, func(i, j int) bool {
		if subnets[i].NetworkAddress != subnets[j].NetworkAddress {
			return subnets[i].NetworkAddress < subnets[j].NetworkAddress
		}
		return subnets[i].PrefixLength < subnets[j].PrefixLength
	})
}

// DedupSubnets removes subnets sharing the same (network, prefix)
// key, keeping the first occurrence.
func DedupSubnets(subnets []Subnet) []Subnet {
	seen := make(map[string]bool, len(subnets))
	out := make([]Subnet, 0, len(subnets))
	for _, s := range subnets {
		k := s.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
