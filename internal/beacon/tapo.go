package beacon

import (
	"context"
	"sync"
	"time"

	"github.com/localcam/taposcan/internal/ipaddr"
	"github.com/localcam/taposcan/internal/probe"
)

const (
	tapoPlainPort      = 20002
	tapoLegacyPort     = 9999
	tapoBroadcastWindow = 2200 * time.Millisecond
	tapoUnicastWindow  = 260 * time.Millisecond
	legacyObfuscateKey = byte(0xAB)
)

// tapoPayloads are the three discovery payloads tried in order against
// both the plain and legacy ports.
var tapoPayloads = [][]byte{
	[]byte(`{"system":{"get_sysinfo":{}}}`),
	[]byte(`{"method":"getDeviceInfo","params":null}`),
	[]byte(`{"method":"multipleRequest","params":{"requests":[{"method":"getDeviceInfo","params":null}]}}`),
}

// ObfuscateLegacy implements the TP-Link legacy XOR-chain cipher:
// k starts at 0xAB, c[i] = b[i] XOR k, k = c[i].
func ObfuscateLegacy(payload []byte) []byte {
	out := make([]byte, len(payload))
	k := legacyObfuscateKey
	for i, b := range payload {
		out[i] = b ^ k
		k = out[i]
	}
	return out
}

// DeobfuscateLegacy reverses ObfuscateLegacy: the previous ciphertext
// byte is the key for the next plaintext byte.
func DeobfuscateLegacy(cipher []byte) []byte {
	out := make([]byte, len(cipher))
	k := legacyObfuscateKey
	for i, c := range cipher {
		out[i] = c ^ k
		k = c
	}
	return out
}

// BroadcastHints sends every Tapo/TP-Link discovery payload (plain to
// port 20002, obfuscated to port 9999) to the global broadcast address
// and each subnet's directed broadcast, collecting hints for 2.2s.
// Hint aggregation mirrors ONVIFHints: sender address plus any IPv4
// literal in the payload, added unconditionally.
func BroadcastHints(ctx context.Context, subnets []ipaddr.Subnet) []ipaddr.Addr {
	ctx, cancel := context.WithTimeout(ctx, tapoBroadcastWindow)
	defer cancel()

	targets := map[string]bool{"255.255.255.255": true}
	for _, s := range subnets {
		targets[s.Broadcast().String()] = true
	}

	var mu sync.Mutex
	seen := make(map[ipaddr.Addr]bool)
	var hints []ipaddr.Addr
	record := func(addrs []ipaddr.Addr) {
		mu.Lock()
		defer mu.Unlock()
		for _, a := range addrs {
			if !seen[a] {
				seen[a] = true
				hints = append(hints, a)
			}
		}
	}

	var wg sync.WaitGroup
	for target := range targets {
		target := target
		for _, payload := range tapoPayloads {
			plain := payload
			wg.Add(1)
			go func() {
				defer wg.Done()
				record(collectBroadcast(ctx, target, tapoPlainPort, plain))
			}()

			obfuscated := ObfuscateLegacy(payload)
			wg.Add(1)
			go func() {
				defer wg.Done()
				record(collectBroadcast(ctx, target, tapoLegacyPort, obfuscated))
			}()
		}
	}
	wg.Wait()

	return hints
}

func collectBroadcast(ctx context.Context, target string, port int, payload []byte) []ipaddr.Addr {
	results := probe.UDPBroadcast(ctx, target, port, payload, tapoBroadcastWindow)
	var out []ipaddr.Addr
	for _, r := range results {
		sender, ok := ipaddr.FromString(r.FromAddr)
		if ok {
			out = append(out, hintsFromDatagram(sender.NetIP(), r.Payload)...)
		}
	}
	return out
}

// UnicastHit probes ip directly on both Tapo ports, one payload at a
// time, and reports true on the first response whose source equals ip,
// short-circuiting on first hit.
func UnicastHit(ctx context.Context, ip string) bool {
	for _, payload := range tapoPayloads {
		result := probe.UDPSendRecv(ctx, ip, tapoPlainPort, payload, tapoUnicastWindow)
		if result.Responded && result.FromAddr == ip {
			return true
		}

		obfuscated := ObfuscateLegacy(payload)
		result = probe.UDPSendRecv(ctx, ip, tapoLegacyPort, obfuscated, tapoUnicastWindow)
		if result.Responded && result.FromAddr == ip {
			return true
		}
	}
	return false
}
