package probe

import (
	"context"
	"testing"
	"time"
)

// ICMPEcho depends on OS-level privilege to open an ICMP socket (even
// the unprivileged "udp4" network requires a permissive
// net.ipv4.ping_group_range on Linux). This test only pins the
// contract that matters across environments: it never panics and
// never blocks past its timeout, regardless of whether the sandbox
// permits raw/datagram ICMP.
func TestICMPEchoNeverBlocksPastTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	_ = ICMPEcho(ctx, "127.0.0.1", 300*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("ICMPEcho took %v, expected to respect its timeout window", elapsed)
	}
}

func TestICMPEchoInvalidTarget(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if ICMPEcho(ctx, "not-an-ip", 200*time.Millisecond) {
		t.Fatal("expected false for an unresolvable target")
	}
}
