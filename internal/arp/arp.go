// Package arp resolves the OS ARP neighbor table and recognizes
// TP-Link vendor OUIs.
package arp

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
)

// arpLinePattern matches an ARP-line: IPv4 address, then a
// 17-character MAC (colon- or hyphen-separated), then a trailing word
// (the entry type column: "dynamic", "static", an interface name). This
// matches Windows-style `arp -a` output directly; on platforms whose
// `arp -a` puts the address in parentheses before the hostname (macOS,
// Linux), lines simply fail to match and contribute nothing — the
// resolver degrades to an empty table rather than misparsing.
var arpLinePattern = regexp.MustCompile(`^\s*(\d{1,3}(?:\.\d{1,3}){3})\s+([0-9a-fA-F-:]{17})\s+\w+`)

// tpLinkOUIs is the fixed set of known TP-Link MAC OUIs (uppercase
// 6-hex prefix).
var tpLinkOUIs = map[string]bool{
	"0846EA": true, "14CC20": true, "1C61B4": true, "246F28": true,
	"2C3AF2": true, "30B5C2": true, "488F5A": true, "50C7BF": true,
	"60E327": true, "74DA38": true, "84D81B": true, "8C3BA5": true,
	"98DA60": true, "A0F3C1": true, "AC84C6": true, "B0487A": true,
	"B09575": true, "C04A00": true, "C05627": true, "C46E1F": true,
	"D067E5": true, "D85D4C": true, "DC9FDB": true, "E894F6": true,
	"EC086B": true, "F4F26D": true, "FCECDA": true,
}

// Table reads the OS ARP table and returns an (ip -> normalized MAC)
// map. Any spawn or parse error yields an empty map; a cancelled
// context surfaces as an error instead.
func Table(ctx context.Context) (map[string]string, error) {
	cmd := exec.CommandContext(ctx, "arp", "-a")
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return map[string]string{}, nil
	}

	table := make(map[string]string)
	for _, line := range strings.Split(string(output), "\n") {
		m := arpLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ip, mac := m[1], normalizeMAC(m[2])
		if mac == "" {
			continue
		}
		table[ip] = mac
	}
	return table, nil
}

// normalizeMAC uppercases a MAC and rewrites its separator to ':'.
// Returns "" if the string isn't a well-formed 6-octet MAC.
func normalizeMAC(mac string) string {
	mac = strings.ToUpper(mac)
	mac = strings.ReplaceAll(mac, "-", ":")
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return ""
	}
	for _, p := range parts {
		if len(p) != 2 {
			return ""
		}
	}
	return strings.Join(parts, ":")
}

// IsTPLinkOUI reports whether a normalized MAC's first three octets
// match a known TP-Link vendor OUI.
func IsTPLinkOUI(normalizedMAC string) bool {
	oui := strings.ReplaceAll(normalizedMAC, ":", "")
	if len(oui) < 6 {
		return false
	}
	return tpLinkOUIs[strings.ToUpper(oui[:6])]
}

// Merge combines two ARP snapshots, with entries from b overriding
// matching keys in a: post-probe entries override the seed table.
func Merge(a, b map[string]string) map[string]string {
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
