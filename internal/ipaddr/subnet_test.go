package ipaddr

import "testing"

func TestSubnetInvariant(t *testing.T) {
	local := MustParse("192.168.1.50")
	gw := MustParse("192.168.1.1")
	s, ok := New(local, 24, []Addr{gw})
	if !ok {
		t.Fatal("New returned false for valid /24")
	}
	if s.NetworkAddress != MustParse("192.168.1.0") {
		t.Errorf("network address = %s, want 192.168.1.0", s.NetworkAddress)
	}
	if s.Broadcast() != MustParse("192.168.1.255") {
		t.Errorf("broadcast = %s, want 192.168.1.255", s.Broadcast())
	}
	if s.FirstHost() != MustParse("192.168.1.1") {
		t.Errorf("first host = %s, want 192.168.1.1", s.FirstHost())
	}
	if s.LastHost() != MustParse("192.168.1.254") {
		t.Errorf("last host = %s, want 192.168.1.254", s.LastHost())
	}
}

func TestSubnetRejectsOutOfRangePrefix(t *testing.T) {
	local := MustParse("192.168.1.50")
	if _, ok := New(local, 0, nil); ok {
		t.Error("prefix 0 should be rejected")
	}
	if _, ok := New(local, 31, nil); ok {
		t.Error("prefix 31 should be rejected")
	}
	if _, ok := New(local, 32, nil); ok {
		t.Error("prefix 32 should be rejected")
	}
}

func TestSubnetString(t *testing.T) {
	local := MustParse("192.168.1.50")
	s, _ := New(local, 24, nil)
	want := "192.168.1.0/24 (local 192.168.1.50)"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	gw1 := MustParse("192.168.1.1")
	gw2 := MustParse("192.168.1.2")
	s2, _ := New(local, 24, []Addr{gw1, gw2})
	want2 := "192.168.1.0/24 (local 192.168.1.50, gateway 192.168.1.1, 192.168.1.2)"
	if got := s2.String(); got != want2 {
		t.Errorf("String() = %q, want %q", got, want2)
	}
}

func TestHostCountAndBits(t *testing.T) {
	local := MustParse("192.168.0.50")
	s, _ := New(local, 16, []Addr{MustParse("192.168.0.1")})
	if s.HostBits() != 16 {
		t.Errorf("HostBits() = %d, want 16", s.HostBits())
	}
	want := int64(1<<16) - 2
	if s.HostCount() != want {
		t.Errorf("HostCount() = %d, want %d", s.HostCount(), want)
	}
}

func TestDedupAndSortSubnets(t *testing.T) {
	s1, _ := New(MustParse("192.168.1.1"), 24, nil)
	s2, _ := New(MustParse("192.168.1.2"), 24, nil) // same network/prefix as s1
	s3, _ := New(MustParse("10.0.0.1"), 8, nil)

	deduped := DedupSubnets([]Subnet{s1, s2, s3})
	if len(deduped) != 2 {
		t.Fatalf("expected 2 deduped subnets, got %d", len(deduped))
	}

	SortSubnets(deduped)
	if deduped[0].NetworkAddress != MustParse("10.0.0.0") {
		t.Errorf("first subnet after sort = %s, want 10.0.0.0", deduped[0].NetworkAddress)
	}
}
