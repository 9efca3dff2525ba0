// Package probe implements the low-level, per-host evidence primitives:
// TCP-connect, ICMP echo, UDP send/recv, and HTTP banner fetch. Every
// primitive absorbs its own network errors into a boolean/empty result
// and respects the caller's context for cancellation.
package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

const (
	tcpPrimaryTimeout = 450 * time.Millisecond
	tcpRetryDelay     = 40 * time.Millisecond
	tcpRetryTimeout   = 1300 * time.Millisecond
)

// TCPConnect attempts a TCP three-way-handshake against host:port with
// a 450ms primary timeout; on failure it waits 40ms and retries once
// with a 1300ms timeout. Any error, RST, or timeout yields false.
// Sockets are always closed before returning.
func TCPConnect(ctx context.Context, ip string, port int) bool {
	if dialOnce(ctx, ip, port, tcpPrimaryTimeout) {
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(tcpRetryDelay):
	}

	return dialOnce(ctx, ip, port, tcpRetryTimeout)
}

func dialOnce(ctx context.Context, ip string, port int, timeout time.Duration) bool {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
