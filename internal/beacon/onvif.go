// Package beacon implements the two active discovery protocols: ONVIF
// WS-Discovery multicast probing, and the TP-Link/Tapo UDP discovery
// broadcast + unicast.
package beacon

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/localcam/taposcan/internal/ipaddr"
)

const (
	onvifMulticastAddr = "239.255.255.250:3702"
	onvifWindow        = 1800 * time.Millisecond
)

// onvifProbeTemplate is the SOAP 1.2 WS-Discovery Probe envelope,
// trimmed to exactly the fields a NetworkVideoTransmitter probe
// needs.
const onvifProbeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<e:Envelope xmlns:e="http://www.w3.org/2003/05/soap-envelope"
            xmlns:w="http://schemas.xmlsoap.org/ws/2004/08/addressing"
            xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery"
            xmlns:dn="http://www.onvif.org/ver10/network/wsdl">
  <e:Header>
    <w:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</w:Action>
    <w:MessageID>uuid:%s</w:MessageID>
    <w:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</w:To>
  </e:Header>
  <e:Body>
    <d:Probe>
      <d:Types>dn:NetworkVideoTransmitter</d:Types>
    </d:Probe>
  </e:Body>
</e:Envelope>`

var ipv4Literal = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// ONVIFHints runs a WS-Discovery probe from each given local address
// and returns every hinted IPv4 address: the sender of each reply
// datagram (if routable, non-loopback, non-APIPA) plus any IPv4
// literal found anywhere in the reply payload text. Hints are added
// unconditionally, with no subnet-membership filter.
func ONVIFHints(ctx context.Context, localAddrs []ipaddr.Addr) []ipaddr.Addr {
	ctx, cancel := context.WithTimeout(ctx, onvifWindow)
	defer cancel()

	dst, err := net.ResolveUDPAddr("udp4", onvifMulticastAddr)
	if err != nil {
		return nil
	}

	var mu sync.Mutex
	seen := make(map[ipaddr.Addr]bool)
	var hints []ipaddr.Addr

	var wg sync.WaitGroup
	for _, local := range localAddrs {
		local := local
		wg.Add(1)
		go func() {
			defer wg.Done()
			found := probeOneONVIF(ctx, local, dst)

			mu.Lock()
			defer mu.Unlock()
			for _, a := range found {
				if !seen[a] {
					seen[a] = true
					hints = append(hints, a)
				}
			}
		}()
	}
	wg.Wait()

	return hints
}

func probeOneONVIF(ctx context.Context, local ipaddr.Addr, dst *net.UDPAddr) []ipaddr.Addr {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: local.NetIP(), Port: 0})
	if err != nil {
		return nil
	}
	defer conn.Close()

	payload := []byte(fmt.Sprintf(onvifProbeTemplate, uuid.New().String()))
	if _, err := conn.WriteToUDP(payload, dst); err != nil {
		return nil
	}

	deadline := time.Now().Add(onvifWindow)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil
	}

	var found []ipaddr.Addr
	buf := make([]byte, 8192)
	for {
		select {
		case <-ctx.Done():
			return found
		default:
		}
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return found
		}
		found = append(found, hintsFromDatagram(addr.IP, buf[:n])...)
	}
}

func hintsFromDatagram(sender net.IP, payload []byte) []ipaddr.Addr {
	var out []ipaddr.Addr

	if a, ok := ipaddr.FromNetIP(sender); ok && isRoutableHint(a) {
		out = append(out, a)
	}

	for _, lit := range ipv4Literal.FindAllString(string(payload), -1) {
		if a, ok := ipaddr.FromString(lit); ok {
			out = append(out, a)
		}
	}

	return out
}

func isRoutableHint(a ipaddr.Addr) bool {
	return !a.IsLoopback() && !a.IsAPIPA() && !a.IsUnspecified()
}
