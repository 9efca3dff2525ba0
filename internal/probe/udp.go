package probe

import (
	"context"
	"net"
	"time"
)

// UDPResult is the outcome of a single UDP send/recv round.
type UDPResult struct {
	Responded bool
	FromAddr  string // source address of the first usable datagram
	Payload   []byte
}

// UDPSendRecv binds an ephemeral socket on 0.0.0.0, sends payload to
// target:port, and waits up to window for any datagram whose source
// is usable. The socket is always closed before return.
func UDPSendRecv(ctx context.Context, target string, port int, payload []byte, window time.Duration) UDPResult {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return UDPResult{}
	}
	defer conn.Close()

	return sendRecvOn(ctx, conn, &net.UDPAddr{IP: net.ParseIP(target), Port: port}, payload, window)
}

// UDPBroadcast sends payload to dst (expected to be a broadcast
// address) from a socket with SO_BROADCAST enabled, and collects every
// response that arrives within window. Unlike UDPSendRecv it does not
// stop at the first reply — broadcast discovery expects multiple
// senders.
func UDPBroadcast(ctx context.Context, dst string, port int, payload []byte, window time.Duration) []UDPResult {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil
	}
	defer conn.Close()

	// Best-effort: some platforms allow broadcast writes on a UDP
	// socket without SO_BROADCAST; a failed set here still lets the
	// send below be attempted.
	_ = ipv4PacketConnBroadcast(conn)

	target := &net.UDPAddr{IP: net.ParseIP(dst), Port: port}
	if _, err := conn.WriteToUDP(payload, target); err != nil {
		return nil
	}

	deadline := time.Now().Add(window)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil
	}

	var results []UDPResult
	buf := make([]byte, 8192)
	for {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return results
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		results = append(results, UDPResult{
			Responded: true,
			FromAddr:  addr.IP.String(),
			Payload:   data,
		})
	}
}

func sendRecvOn(ctx context.Context, conn *net.UDPConn, target *net.UDPAddr, payload []byte, window time.Duration) UDPResult {
	if _, err := conn.WriteToUDP(payload, target); err != nil {
		return UDPResult{}
	}

	deadline := time.Now().Add(window)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return UDPResult{}
	}

	buf := make([]byte, 8192)
	for {
		select {
		case <-ctx.Done():
			return UDPResult{}
		default:
		}

		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return UDPResult{}
		}
		if addr.IP == nil {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		return UDPResult{Responded: true, FromAddr: addr.IP.String(), Payload: data}
	}
}

// ipv4PacketConnBroadcast enables SO_BROADCAST on conn. It returns
// whether the option was applied; callers treat failure as non-fatal.
func ipv4PacketConnBroadcast(conn *net.UDPConn) bool {
	file, err := conn.File()
	if err != nil {
		return false
	}
	defer file.Close()
	return setBroadcastOption(file.Fd())
}
