package probe

import (
	"context"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// ICMPEcho sends a single echo request to ip and reports whether a
// matching echo reply arrived within timeout. Any error (including
// permission errors from a non-privileged process) yields false; this
// primitive never escalates.
func ICMPEcho(ctx context.Context, ip string, timeout time.Duration) bool {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return false
	}
	defer conn.Close()

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  1,
			Data: []byte("taposcan-echo"),
		},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return false
	}

	dst, err := net.ResolveIPAddr("ip4", ip)
	if err != nil {
		return false
	}

	if _, err := conn.WriteTo(wire, &net.UDPAddr{IP: dst.IP}); err != nil {
		return false
	}

	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return false
	}

	reply := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		n, peer, err := conn.ReadFrom(reply)
		if err != nil {
			return false
		}

		udpPeer, ok := peer.(*net.UDPAddr)
		if !ok || !udpPeer.IP.Equal(dst.IP) {
			continue
		}

		parsed, err := icmp.ParseMessage(1 /* ipv4.ICMPTypeEchoReply.Protocol() */, reply[:n])
		if err != nil {
			continue
		}
		if parsed.Type == ipv4.ICMPTypeEchoReply {
			return true
		}
	}
}
