package probe

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestUDPSendRecvGetsReply(t *testing.T) {
	server, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		t.Fatalf("failed to start UDP server: %v", err)
	}
	defer server.Close()

	go func() {
		buf := make([]byte, 512)
		n, addr, err := server.ReadFromUDP(buf)
		if err != nil {
			return
		}
		_, _ = server.WriteToUDP(buf[:n], addr)
	}()

	port := server.LocalAddr().(*net.UDPAddr).Port
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := UDPSendRecv(ctx, "127.0.0.1", port, []byte("ping"), 500*time.Millisecond)
	if !result.Responded {
		t.Fatal("expected a response from the echo server")
	}
	if result.FromAddr != "127.0.0.1" {
		t.Errorf("FromAddr = %q, want 127.0.0.1", result.FromAddr)
	}
}

func TestUDPSendRecvNoReply(t *testing.T) {
	// Reserve a port nothing is listening on.
	server, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	port := server.LocalAddr().(*net.UDPAddr).Port
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := UDPSendRecv(ctx, "127.0.0.1", port, []byte("ping"), 150*time.Millisecond)
	if result.Responded {
		t.Fatal("expected no response when nothing is listening")
	}
}
