package ipaddr

import (
	"net"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []string{"0.0.0.0", "255.255.255.255", "192.168.1.9", "10.0.0.5", "172.16.0.7"}
	for _, s := range cases {
		a, ok := FromString(s)
		if !ok {
			t.Fatalf("FromString(%q) failed", s)
		}
		if got := a.String(); got != s {
			t.Errorf("round trip: got %q, want %q", got, s)
		}
	}
}

func TestFromNetIPRejectsIPv6(t *testing.T) {
	_, ok := FromNetIP(net.ParseIP("::1"))
	if ok {
		t.Fatal("expected IPv6 address to be rejected")
	}
}

func TestPredicates(t *testing.T) {
	loopback := MustParse("127.0.0.1")
	if !loopback.IsLoopback() {
		t.Error("127.0.0.1 should be loopback")
	}
	apipa := MustParse("169.254.1.1")
	if !apipa.IsAPIPA() {
		t.Error("169.254.1.1 should be APIPA")
	}
	normal := MustParse("192.168.1.1")
	if normal.IsLoopback() || normal.IsAPIPA() {
		t.Error("192.168.1.1 should be neither loopback nor APIPA")
	}
}

func TestOrdering(t *testing.T) {
	a := MustParse("192.168.1.1")
	b := MustParse("192.168.1.2")
	if !a.Less(b) {
		t.Error("192.168.1.1 should be less than 192.168.1.2")
	}
	if b.Less(a) {
		t.Error("192.168.1.2 should not be less than 192.168.1.1")
	}
}

func TestPrefixMask(t *testing.T) {
	if PrefixMask(24) != 0xFFFFFF00 {
		t.Errorf("PrefixMask(24) = %x, want 0xffffff00", PrefixMask(24))
	}
	if PrefixMask(1) != 0x80000000 {
		t.Errorf("PrefixMask(1) = %x, want 0x80000000", PrefixMask(1))
	}
}
