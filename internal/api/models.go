// Package api provides the HTTP control plane for the discovery engine.
package api

// ScanRequest is the body of POST /api/v1/scan. MaxParallelism is
// optional; zero means "use the server's configured default".
type ScanRequest struct {
	MaxParallelism int  `json:"max_parallelism"`
	Publish        bool `json:"publish"`
}

// DetectionView is the wire shape of one LIKELY camera detection.
type DetectionView struct {
	IP         string  `json:"ip"`
	Hostname   string  `json:"hostname,omitempty"`
	MAC        string  `json:"mac,omitempty"`
	OpenPorts  []int   `json:"open_ports"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// ScanResponse is the body of a completed POST /api/v1/scan.
type ScanResponse struct {
	RequestID              string          `json:"request_id"`
	Detections             []DetectionView `json:"detections"`
	SubnetsScanned         []string        `json:"subnets_scanned"`
	EnumeratedHostCount    int             `json:"enumerated_host_count"`
	ResponsiveHostCount    int             `json:"responsive_host_count"`
	ARPSeedCount           int             `json:"arp_seed_count"`
	ONVIFHintCount         int             `json:"onvif_hint_count"`
	TapoBroadcastHintCount int             `json:"tapo_broadcast_hint_count"`
	TapoUnicastHintCount   int             `json:"tapo_unicast_hint_count"`
	PublishFailures        int             `json:"publish_failures,omitempty"`
}
