// Package hostenum expands a Subnet into the host-address sequence the
// discovery sweep probes.
//
// Small subnets (host_count <= 4096) are walked in full. Large
// subnets are sampled: up to 16 /24-aligned chunks are selected near
// the local address and gateways, and only those chunks are walked.
// Chunk selection stops as soon as 16 chunks are chosen — see
// selectChunks below.
package hostenum

import (
	"github.com/localcam/taposcan/internal/ipaddr"
)

const (
	smallSubnetThreshold = 4096
	maxChunks            = 16
	chunkSize            = 256 // a /24
)

// Enumerate returns the host addresses to probe for subnet s, with
// s.LocalAddress always excluded.
func Enumerate(s ipaddr.Subnet) []ipaddr.Addr {
	if s.HostCount() <= smallSubnetThreshold {
		return enumerateSmall(s)
	}
	return enumerateLarge(s)
}

func enumerateSmall(s ipaddr.Subnet) []ipaddr.Addr {
	first := uint32(s.FirstHost())
	last := uint32(s.LastHost())
	out := make([]ipaddr.Addr, 0, last-first+1)
	for v := first; v <= last; v++ {
		a := ipaddr.Addr(v)
		if a == s.LocalAddress {
			continue
		}
		out = append(out, a)
	}
	return out
}

func enumerateLarge(s ipaddr.Subnet) []ipaddr.Addr {
	chunkStarts := selectChunks(s)

	seen := make(map[ipaddr.Addr]bool)
	var out []ipaddr.Addr
	for _, chunkStart := range chunkStarts {
		lo := uint32(chunkStart) + 1
		hi := uint32(chunkStart) + 254
		for v := lo; v <= hi; v++ {
			a := ipaddr.Addr(v)
			if !s.Contains(a) {
				continue
			}
			if a == s.LocalAddress {
				continue
			}
			if seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// chunkOf returns the /24-aligned chunk start containing addr.
func chunkOf(addr ipaddr.Addr) ipaddr.Addr {
	return ipaddr.Addr(uint32(addr) &^ 0xFF)
}

// selectChunks applies a priority list for large-subnet chunk
// sampling: (a) local's chunk, (b) each gateway's chunk, (c) first
// host's chunk, (d) last host's chunk, (e) +-1/+-2 neighbors of any
// seed chunk, (f) evenly-strided chunks filling remaining slots.
//
// The neighbor expansion loop (e) walks seed chunks in order and, for
// each, tries to add its four neighbors; when add refuses a neighbor
// the whole selection returns at once. add refuses a new chunk only
// when maxChunks chunks are already selected, so this early return
// never leaves the selection below 16. A result with fewer than 16
// chunks comes only from step (f), when its strided candidates are
// already selected or fall outside the subnet.
func selectChunks(s ipaddr.Subnet) []ipaddr.Addr {
	var chunks []ipaddr.Addr
	present := make(map[ipaddr.Addr]bool)

	add := func(c ipaddr.Addr) bool {
		if present[c] {
			return true
		}
		if len(chunks) >= maxChunks {
			return false
		}
		present[c] = true
		chunks = append(chunks, c)
		return true
	}

	// (a) local's chunk
	add(chunkOf(s.LocalAddress))

	// (b) each gateway's chunk
	for _, gw := range s.Gateways {
		if !add(chunkOf(gw)) {
			return chunks
		}
	}

	// (c) first host's chunk
	if !add(chunkOf(s.FirstHost())) {
		return chunks
	}

	// (d) last host's chunk
	if !add(chunkOf(s.LastHost())) {
		return chunks
	}

	// (e) neighbor expansion: for each seed chunk already present
	// (snapshot before this step, since it does not recurse into
	// chunks it adds itself), try +-1 and +-2 /24 neighbors in order.
	// A neighbor refused because maxChunks chunks are already selected
	// ends the entire selection.
	seeds := append([]ipaddr.Addr(nil), chunks...)
	for _, seed := range seeds {
		for _, delta := range []int64{-2, -1, 1, 2} {
			signed := int64(uint32(seed)) + delta*chunkSize
			if signed < 0 || signed > int64(^uint32(0)) {
				continue
			}
			neighbor := ipaddr.Addr(uint32(signed))
			if !chunkInSubnetRange(s, neighbor) {
				continue
			}
			if !add(neighbor) {
				return chunks
			}
		}
	}

	// (f) evenly-strided chunks across the subnet range fill any
	// remaining slots.
	if len(chunks) < maxChunks {
		totalChunks := (uint32(s.LastHost()) - uint32(s.FirstHost())) / chunkSize
		if totalChunks == 0 {
			totalChunks = 1
		}
		remaining := maxChunks - len(chunks)
		stride := totalChunks / uint32(remaining+1)
		if stride == 0 {
			stride = 1
		}
		base := uint32(chunkOf(s.NetworkAddress))
		for i := uint32(1); i <= totalChunks && len(chunks) < maxChunks; i += stride {
			candidate := ipaddr.Addr(base + i*chunkSize)
			if !chunkInSubnetRange(s, candidate) {
				continue
			}
			add(candidate)
		}
	}

	return chunks
}

// chunkInSubnetRange reports whether any address in [chunk+1,
// chunk+254] could fall inside s's host range.
func chunkInSubnetRange(s ipaddr.Subnet, chunk ipaddr.Addr) bool {
	lo := uint32(chunk) + 1
	hi := uint32(chunk) + 254
	return hi >= uint32(s.FirstHost()) && lo <= uint32(s.LastHost())
}
