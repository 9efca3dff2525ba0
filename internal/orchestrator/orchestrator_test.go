package orchestrator

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/localcam/taposcan/internal/ipaddr"
)

func TestUnionTargetsDeduplicates(t *testing.T) {
	hostA := ipaddr.MustParse("192.168.1.5")
	hostB := ipaddr.MustParse("192.168.1.6")

	targets := unionTargets(
		[]ipaddr.Addr{hostA, hostB},
		map[string]string{"192.168.1.6": "AA:AA:AA:AA:AA:AA", "192.168.1.9": "BB:BB:BB:BB:BB:BB"},
		[]ipaddr.Addr{hostA},
		[]ipaddr.Addr{ipaddr.MustParse("192.168.1.9")},
	)

	seen := make(map[string]int)
	for _, a := range targets {
		seen[a.String()]++
	}
	for ip, count := range seen {
		if count != 1 {
			t.Errorf("ip %s appeared %d times, want 1", ip, count)
		}
	}
	for _, want := range []string{"192.168.1.5", "192.168.1.6", "192.168.1.9"} {
		if seen[want] == 0 {
			t.Errorf("expected %s in union", want)
		}
	}
}

func TestArpPrimeRespectsCancellation(t *testing.T) {
	logger := zap.NewNop().Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		arpPrime(ctx, []ipaddr.Addr{ipaddr.MustParse("10.0.0.1")}, logger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("arpPrime did not return promptly after context cancellation")
	}
}

func TestBuildFingerprintEmptyForUnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	openSet := map[int]bool{8080: true}
	fp := buildFingerprint(ctx, "203.0.113.1", openSet)
	if fp != "" {
		t.Errorf("unreachable host should yield empty fingerprint, got %q", fp)
	}
}

func TestReverseLookupReturnsEmptyOnFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if name := reverseLookup(ctx, "203.0.113.254"); name != "" {
		t.Errorf("expected empty hostname for unresolvable reserved address, got %q", name)
	}
}

func TestCountTapoUnicast(t *testing.T) {
	results := []Result{
		{IP: "10.0.0.1", SeenViaTapoUnicast: true},
		{IP: "10.0.0.2", SeenViaTapoUnicast: false},
		{IP: "10.0.0.3", SeenViaTapoUnicast: true},
	}
	if got := countTapoUnicast(results); got != 2 {
		t.Errorf("countTapoUnicast = %d, want 2", got)
	}
}

func TestAddrSetMembership(t *testing.T) {
	set := addrSet([]ipaddr.Addr{ipaddr.MustParse("10.0.0.1"), ipaddr.MustParse("10.0.0.2")})
	if !set[ipaddr.MustParse("10.0.0.1")] {
		t.Error("expected 10.0.0.1 present")
	}
	if set[ipaddr.MustParse("10.0.0.9")] {
		t.Error("did not expect 10.0.0.9 present")
	}
}

func TestProbeHostDropsUnresponsiveTarget(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// 203.0.113.0/24 (TEST-NET-3) is non-routable documentation space;
	// nothing should answer any probe.
	_, ok := probeHost(ctx, ipaddr.MustParse("203.0.113.77"), false, false)
	if ok {
		t.Error("expected an unresponsive host to be dropped")
	}
}
