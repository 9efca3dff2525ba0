// Package ifenum derives candidate IPv4 subnets from the host's active
// network interfaces.
package ifenum

import (
	"net"
	"os/exec"
	"strings"

	"github.com/localcam/taposcan/internal/ipaddr"
)

// Enumerate returns the ordered, deduplicated set of Subnets derived
// from up-state, non-loopback, non-tunnel interfaces that carry at
// least one non-zero IPv4 default gateway. Any per-interface query
// failure is skipped silently; the whole call never fails.
func Enumerate() []ipaddr.Subnet {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	gateways := defaultGateways()

	var subnets []ipaddr.Subnet
	for _, iface := range ifaces {
		if !isEligible(iface) {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		gws := gatewaysForInterface(iface, gateways)
		if len(gws) == 0 {
			continue
		}

		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			localAddr, ok := ipaddr.FromNetIP(ipNet.IP)
			if !ok {
				continue
			}
			if localAddr.IsLoopback() || localAddr.IsAPIPA() {
				continue
			}
			ones, _ := ipNet.Mask.Size()
			if ones < 1 || ones > 30 {
				continue
			}
			subnet, ok := ipaddr.New(localAddr, ones, gws)
			if !ok {
				continue
			}
			subnets = append(subnets, subnet)
		}
	}

	subnets = ipaddr.DedupSubnets(subnets)
	ipaddr.SortSubnets(subnets)
	return subnets
}

// isEligible reports whether an interface should be considered at
// all: operationally up, not loopback, not a tunnel device.
func isEligible(iface net.Interface) bool {
	if iface.Flags&net.FlagUp == 0 {
		return false
	}
	if iface.Flags&net.FlagLoopback != 0 {
		return false
	}
	if iface.Flags&net.FlagPointToPoint != 0 {
		// Point-to-point interfaces are the common shape of tunnel
		// devices (tun/tap/wireguard); exclude them.
		return false
	}
	name := strings.ToLower(iface.Name)
	if strings.HasPrefix(name, "tun") || strings.HasPrefix(name, "tap") ||
		strings.HasPrefix(name, "wg") || strings.HasPrefix(name, "utun") {
		return false
	}
	return true
}

// gatewaysForInterface filters the globally-discovered gateways down
// to those plausible for this interface: non-zero addresses only. The
// platform route table does not reliably associate a gateway with a
// named interface across OSes, so every eligible interface is offered
// the same gateway set; ipaddr.New does not check that a gateway lies
// inside the subnet. A gateway that isn't actually reachable via this
// interface simply never responds to later probes.
func gatewaysForInterface(_ net.Interface, gateways []ipaddr.Addr) []ipaddr.Addr {
	out := make([]ipaddr.Addr, 0, len(gateways))
	for _, g := range gateways {
		if g.IsUnspecified() {
			continue
		}
		out = append(out, g)
	}
	return out
}

// defaultGateways shells out to the platform route table and returns
// every default-route gateway address found. Any spawn or parse
// failure yields an empty slice — gateway discovery is best-effort and
// skips the interface silently on failure.
func defaultGateways() []ipaddr.Addr {
	var out []ipaddr.Addr
	seen := make(map[ipaddr.Addr]bool)

	add := func(s string) {
		a, ok := ipaddr.FromString(s)
		if !ok || a.IsUnspecified() || seen[a] {
			return
		}
		seen[a] = true
		out = append(out, a)
	}

	if output, err := exec.Command("netstat", "-rn").Output(); err == nil {
		for _, line := range strings.Split(string(output), "\n") {
			fields := strings.Fields(line)
			if len(fields) >= 2 && (fields[0] == "default" || fields[0] == "0.0.0.0") {
				add(fields[1])
			}
		}
	}

	if output, err := exec.Command("route", "-n", "get", "default").Output(); err == nil {
		for _, line := range strings.Split(string(output), "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "gateway:") {
				parts := strings.Fields(line)
				if len(parts) >= 2 {
					add(parts[1])
				}
			}
		}
	}

	return out
}
