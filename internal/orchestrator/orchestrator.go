// Package orchestrator runs the full discovery sweep: it sequences ARP
// priming, beacon listening, per-host probing, and reverse-DNS lookup,
// fans out bounded-parallelism per-host probes through a buffered-
// channel worker pool, and assembles the final ordered diagnostics and
// detections.
package orchestrator

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/localcam/taposcan/internal/arp"
	"github.com/localcam/taposcan/internal/beacon"
	"github.com/localcam/taposcan/internal/classify"
	"github.com/localcam/taposcan/internal/hostenum"
	"github.com/localcam/taposcan/internal/ifenum"
	"github.com/localcam/taposcan/internal/ipaddr"
	"github.com/localcam/taposcan/internal/probe"
)

// observedPorts is the fixed probe set, in ascending order (the order
// open_ports is reported in once sorted).
var observedPorts = []int{80, 443, 554, 2020, 8080, 8443, 8554, 9999, 20002}

const (
	arpPrimeLimit     = 2048
	arpPrimeFanout    = 192
	arpPrimeTimeout   = 170 * time.Millisecond
	hostPingTimeout   = 450 * time.Millisecond
	reverseDNSTimeout = 700 * time.Millisecond
	defaultParallelism = 64
)

// Options configures one sweep. MaxParallelism must be >= 1.
type Options struct {
	MaxParallelism int
}

// Result is the per-host outcome fed to the Classifier, plus the
// enrichment fields resolved in phase 7.
type Result struct {
	IP                   string
	OpenPorts            []int
	HTTPFingerprint      string
	SeenViaONVIF         bool
	SeenViaTapoBroadcast bool
	SeenViaTapoUnicast   bool
	MAC                  string
	Hostname             string
	Verdict              classify.Verdict
}

// Diagnostics summarizes one sweep.
type Diagnostics struct {
	SubnetsScanned         []string
	EnumeratedHostCount    int
	ARPSeedCount           int
	ONVIFHintCount         int
	TapoBroadcastHintCount int
	TapoUnicastHintCount   int
	ResponsiveHostCount    int
	Results                []Result
}

// Run executes the full discovery sweep end to end. The returned
// Diagnostics.Results is ordered by ascending IP (callers wanting the
// is_likely/confidence/ip diagnostics ordering or the ip-only
// detections ordering re-sort as needed — see the camscan facade).
func Run(ctx context.Context, opts Options, logger *zap.SugaredLogger) (Diagnostics, error) {
	if opts.MaxParallelism < 1 {
		opts.MaxParallelism = defaultParallelism
	}

	subnets := ifenum.Enumerate()
	subnetStrings := make([]string, 0, len(subnets))
	for _, s := range subnets {
		subnetStrings = append(subnetStrings, s.String())
	}
	logger.Infow("enumerated local subnets", "count", len(subnets))

	var hosts []ipaddr.Addr
	seenHost := make(map[ipaddr.Addr]bool)
	for _, s := range subnets {
		for _, h := range hostenum.Enumerate(s) {
			if !seenHost[h] {
				seenHost[h] = true
				hosts = append(hosts, h)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return Diagnostics{}, err
	}

	arpPrime(ctx, hosts, logger)

	var onvifHints, tapoHints []ipaddr.Addr
	var seedTable map[string]string
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		localAddrs := make([]ipaddr.Addr, 0, len(subnets))
		for _, s := range subnets {
			localAddrs = append(localAddrs, s.LocalAddress)
		}
		onvifHints = beacon.ONVIFHints(ctx, localAddrs)
	}()
	go func() {
		defer wg.Done()
		tapoHints = beacon.BroadcastHints(ctx, subnets)
	}()
	go func() {
		defer wg.Done()
		t, err := arp.Table(ctx)
		if err == nil {
			seedTable = t
		}
	}()
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return Diagnostics{}, err
	}

	targets := unionTargets(hosts, seedTable, onvifHints, tapoHints)

	results := fanOutProbe(ctx, targets, onvifHints, tapoHints, opts.MaxParallelism, logger)
	if err := ctx.Err(); err != nil {
		return Diagnostics{}, err
	}

	postTable, err := arp.Table(ctx)
	if err != nil {
		return Diagnostics{}, err
	}
	finalARP := arp.Merge(seedTable, postTable)

	sort.Slice(results, func(i, j int) bool { return ipaddr.MustParse(results[i].IP).Less(ipaddr.MustParse(results[j].IP)) })

	for i := range results {
		if err := ctx.Err(); err != nil {
			return Diagnostics{}, err
		}
		r := &results[i]
		r.MAC = finalARP[r.IP]
		r.Hostname = reverseLookup(ctx, r.IP)
		r.Verdict = classify.Classify(classify.Evidence{
			OpenPorts:            r.OpenPorts,
			HTTPFingerprint:      r.HTTPFingerprint,
			SeenViaONVIF:         r.SeenViaONVIF,
			SeenViaTapoBroadcast: r.SeenViaTapoBroadcast,
			SeenViaTapoUnicast:   r.SeenViaTapoUnicast,
			MAC:                  r.MAC,
			Hostname:             r.Hostname,
			MACIsTPLinkOUI:       arp.IsTPLinkOUI(r.MAC),
		})
	}

	return Diagnostics{
		SubnetsScanned:         subnetStrings,
		EnumeratedHostCount:    len(hosts),
		ARPSeedCount:           len(seedTable),
		ONVIFHintCount:         len(onvifHints),
		TapoBroadcastHintCount: len(tapoHints),
		TapoUnicastHintCount:   countTapoUnicast(results),
		ResponsiveHostCount:    len(results),
		Results:                results,
	}, nil
}

func countTapoUnicast(results []Result) int {
	n := 0
	for _, r := range results {
		if r.SeenViaTapoUnicast {
			n++
		}
	}
	return n
}

// arpPrime best-effort pings the first arpPrimeLimit addresses of H
// with a small fanout so the OS neighbor cache is warm before the
// first ARP table read. Errors are ignored; this phase exists purely
// as a side effect on the kernel's ARP cache.
func arpPrime(ctx context.Context, hosts []ipaddr.Addr, logger *zap.SugaredLogger) {
	limit := len(hosts)
	if limit > arpPrimeLimit {
		limit = arpPrimeLimit
	}

	limiter := rateLimiterFor(arpPrimeFanout * 4)
	jobs := make(chan string, arpPrimeFanout*2)
	var wg sync.WaitGroup
	for i := 0; i < arpPrimeFanout; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ip := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				probe.ICMPEcho(ctx, ip, arpPrimeTimeout)
			}
		}()
	}

feed:
	for i := 0; i < limit; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- hosts[i].String():
		}
	}
	close(jobs)
	wg.Wait()
	logger.Debugw("arp prime complete", "attempted", limit)
}

func unionTargets(hosts []ipaddr.Addr, arpSeed map[string]string, onvifHints, tapoHints []ipaddr.Addr) []ipaddr.Addr {
	seen := make(map[string]bool)
	var out []ipaddr.Addr
	add := func(a ipaddr.Addr) {
		s := a.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, a)
		}
	}
	for _, h := range hosts {
		add(h)
	}
	for ipStr := range arpSeed {
		if a, ok := ipaddr.FromString(ipStr); ok {
			add(a)
		}
	}
	for _, h := range onvifHints {
		add(h)
	}
	for _, h := range tapoHints {
		add(h)
	}
	return out
}

// fanOutProbe runs bounded-parallelism per-host probing: a buffered
// job channel drained by a fixed number of workers, joined with a
// WaitGroup.
func fanOutProbe(ctx context.Context, targets []ipaddr.Addr, onvifHints, tapoHints []ipaddr.Addr, parallelism int, logger *zap.SugaredLogger) []Result {
	onvifSet := addrSet(onvifHints)
	tapoSet := addrSet(tapoHints)

	jobs := make(chan ipaddr.Addr, parallelism*2)
	var mu sync.Mutex
	var results []Result

	var workers sync.WaitGroup
	for i := 0; i < parallelism; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for addr := range jobs {
				r, ok := probeHost(ctx, addr, onvifSet[addr], tapoSet[addr])
				if !ok {
					continue
				}
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, t := range targets {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- t:
		}
	}
	close(jobs)
	workers.Wait()

	logger.Infow("probe fan-out complete", "targets", len(targets), "responsive", len(results))
	return results
}

func addrSet(addrs []ipaddr.Addr) map[ipaddr.Addr]bool {
	m := make(map[ipaddr.Addr]bool, len(addrs))
	for _, a := range addrs {
		m[a] = true
	}
	return m
}

// probeHost runs every probe for one address concurrently: ICMP echo,
// all nine fixed TCP ports, and the Tapo-unicast probe. It then builds
// the HTTP fingerprint (sequentially, in priority order, against only
// the ports observed open) and reports whether any evidence survived.
func probeHost(ctx context.Context, addr ipaddr.Addr, sawONVIFHint, sawTapoHint bool) (Result, bool) {
	ip := addr.String()

	var mu sync.Mutex
	var wg sync.WaitGroup
	var pingOK bool
	openSet := make(map[int]bool)
	var tapoUnicastHit bool

	wg.Add(1)
	go func() {
		defer wg.Done()
		ok := probe.ICMPEcho(ctx, ip, hostPingTimeout)
		mu.Lock()
		pingOK = ok
		mu.Unlock()
	}()

	for _, port := range observedPorts {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			if probe.TCPConnect(ctx, ip, port) {
				mu.Lock()
				openSet[port] = true
				mu.Unlock()
			}
		}(port)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		hit := beacon.UnicastHit(ctx, ip)
		mu.Lock()
		tapoUnicastHit = hit
		mu.Unlock()
	}()

	wg.Wait()

	if !pingOK && len(openSet) == 0 && !sawONVIFHint && !sawTapoHint && !tapoUnicastHit {
		return Result{}, false
	}

	openPorts := make([]int, 0, len(openSet))
	for _, p := range observedPorts {
		if openSet[p] {
			openPorts = append(openPorts, p)
		}
	}

	fingerprint := buildFingerprint(ctx, ip, openSet)

	return Result{
		IP:                   ip,
		OpenPorts:            openPorts,
		HTTPFingerprint:      fingerprint,
		SeenViaONVIF:         sawONVIFHint,
		SeenViaTapoBroadcast: sawTapoHint,
		SeenViaTapoUnicast:   tapoUnicastHit,
	}, true
}

// httpFingerprintOrder is the fixed priority order for HTTP banner
// fetches: stop at the first non-empty fingerprint.
var httpFingerprintOrder = []struct {
	port int
	tls  bool
}{
	{80, false},
	{8080, false},
	{443, true},
	{8443, true},
}

func buildFingerprint(ctx context.Context, ip string, openSet map[int]bool) string {
	for _, candidate := range httpFingerprintOrder {
		if !openSet[candidate.port] {
			continue
		}
		if fp := probe.HTTPBanner(ctx, ip, candidate.port, candidate.tls); fp != "" {
			return fp
		}
	}
	return ""
}

// reverseLookup does a best-effort PTR lookup bounded by
// reverseDNSTimeout; any failure yields no hostname.
func reverseLookup(ctx context.Context, ip string) string {
	lctx, cancel := context.WithTimeout(ctx, reverseDNSTimeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(lctx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}

// rateLimiterFor paces the ARP-prime fan-out so it does not flood the
// local link with ICMP echoes.
func rateLimiterFor(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = arpPrimeFanout
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond)
}
