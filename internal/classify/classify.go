// Package classify implements the weighted evidence scorer that turns
// a single host's probe evidence into a LIKELY/UNLIKELY verdict, a
// numeric confidence, and a human-readable justification. It is a pure
// function of its input: no I/O, no shared state.
package classify

import (
	"math"
	"strconv"
	"strings"
)

// Evidence is the per-host input to the classifier: the raw probe
// results plus the two enrichment fields (MAC, hostname) that are
// resolved separately from the probe fan-out.
type Evidence struct {
	OpenPorts            []int
	HTTPFingerprint      string
	SeenViaONVIF         bool
	SeenViaTapoBroadcast bool
	SeenViaTapoUnicast   bool
	MAC                  string
	Hostname             string
	MACIsTPLinkOUI       bool
}

// Verdict is the classifier's output for one host.
type Verdict struct {
	IsLikely bool
	Score    float64
	Reason   string
}

func hasPort(ports []int, want ...int) bool {
	wantSet := make(map[int]bool, len(want))
	for _, p := range want {
		wantSet[p] = true
	}
	for _, p := range ports {
		if wantSet[p] {
			return true
		}
	}
	return false
}

func containsFold(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// Classify scores a host's evidence and renders the final verdict
// using a fixed-order evidence table and decision predicate.
func Classify(e Evidence) Verdict {
	var score float64
	var clauses []string

	rtsp := hasPort(e.OpenPorts, 554, 8554)
	onvifPort := hasPort(e.OpenPorts, 2020)
	controlPort := hasPort(e.OpenPorts, 20002, 9999)
	webPort := hasPort(e.OpenPorts, 80, 443, 8080, 8443)
	fingerprintRepeater := containsFold(e.HTTPFingerprint, "tplinkrepeater", "mwlogin", "repeater")
	// A repeater UI banner ("TPLinkRepeater") also contains "tplink"; it
	// counts as repeater evidence only, not as a Tapo/TP-Link marker.
	fingerprintTPLink := !fingerprintRepeater && containsFold(e.HTTPFingerprint, "tapo", "tp-link", "tplink")
	hostnameTPLink := containsFold(e.Hostname, "tapo", "tp-link", "tplink")

	if rtsp {
		score += 2.0
		clauses = append(clauses, "RTSP service port is open")
	}
	if onvifPort {
		score += 1.5
		clauses = append(clauses, "ONVIF port 2020 is open")
	}
	if e.SeenViaONVIF {
		score += 2.0
		clauses = append(clauses, "Responded to ONVIF WS-Discovery probe")
	}
	if e.SeenViaTapoBroadcast {
		score += 2.0
		clauses = append(clauses, "Responded to TP-Link/Tapo local discovery probe")
	}
	if e.SeenViaTapoUnicast {
		score += 2.5
		clauses = append(clauses, "Responded to direct TP-Link/Tapo UDP probe")
	}
	if controlPort {
		score += 1.0
		clauses = append(clauses, "TP-Link/Tapo control port is open (20002/9999)")
	}
	if webPort {
		score += 0.5
		clauses = append(clauses, "Web management port is open")
	}
	if fingerprintTPLink {
		score += 3.0
		clauses = append(clauses, "HTTP endpoint reports Tapo/TP-Link markers")
	}
	if fingerprintRepeater {
		score -= 3.0
		clauses = append(clauses, "HTTP endpoint looks like TP-Link repeater/router UI")
	}
	if hostnameTPLink {
		score += 2.0
		clauses = append(clauses, strconv.Quote(e.Hostname))
	}
	if e.MACIsTPLinkOUI {
		score += 1.0
		clauses = append(clauses, "MAC OUI is assigned to TP-Link")
	}

	tpLinkSignal := e.MACIsTPLinkOUI || hostnameTPLink || fingerprintTPLink
	cameraService := rtsp || onvifPort || controlPort || e.SeenViaONVIF || e.SeenViaTapoBroadcast || e.SeenViaTapoUnicast

	likely := fingerprintTPLink ||
		hostnameTPLink ||
		(cameraService && tpLinkSignal) ||
		(rtsp && onvifPort) ||
		(e.SeenViaONVIF && rtsp) ||
		(e.SeenViaTapoBroadcast && (rtsp || onvifPort || webPort)) ||
		(e.SeenViaTapoUnicast && (rtsp || onvifPort || webPort || tpLinkSignal)) ||
		(controlPort && tpLinkSignal && !fingerprintRepeater) ||
		(rtsp && webPort && score >= 2.5)

	if fingerprintRepeater && !(rtsp || onvifPort || e.SeenViaONVIF || e.SeenViaTapoUnicast) {
		likely = false
	}

	reason := "No Tapo-specific markers were found."
	if len(clauses) > 0 {
		reason = strings.Join(clauses, "; ")
	}

	return Verdict{
		IsLikely: likely,
		Score:    round2(score),
		Reason:   reason,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
