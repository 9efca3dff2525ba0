package camscan

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/localcam/taposcan/internal/orchestrator"
)

// ErrInvalidArgument is returned when Scan's options are malformed
// before any I/O is attempted.
var ErrInvalidArgument = errors.New("camscan: invalid argument")

// Option configures a Scan call.
type Option func(*scanConfig)

type scanConfig struct {
	maxParallelism int
	logger         *zap.SugaredLogger
}

// WithMaxParallelism bounds concurrent per-host probing. Must be >= 1;
// Scan rejects anything less with ErrInvalidArgument. Defaults to 64.
func WithMaxParallelism(n int) Option {
	return func(c *scanConfig) { c.maxParallelism = n }
}

// WithLogger supplies a zap.SugaredLogger for the sweep. Defaults to a
// no-op logger if omitted.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *scanConfig) { c.logger = logger }
}

// Scan runs one full discovery-and-classification sweep: it enumerates
// local subnets, probes candidate hosts, and classifies
// every responsive host. It returns the LIKELY detections and the full
// per-host diagnostics. A cancelled ctx surfaces as ctx.Err(); no
// partial results are returned on cancellation.
func Scan(ctx context.Context, opts ...Option) ([]Detection, ScanDiagnostics, error) {
	cfg := scanConfig{maxParallelism: 64, logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxParallelism < 1 {
		return nil, ScanDiagnostics{}, ErrInvalidArgument
	}

	diag, err := orchestrator.Run(ctx, orchestrator.Options{MaxParallelism: cfg.maxParallelism}, cfg.logger)
	if err != nil {
		return nil, ScanDiagnostics{}, err
	}

	candidates := make([]CandidateDiagnostics, 0, len(diag.Results))
	var detections []Detection
	for _, r := range diag.Results {
		cd := CandidateDiagnostics{
			IP:                   r.IP,
			Hostname:             r.Hostname,
			MAC:                  r.MAC,
			OpenPorts:            r.OpenPorts,
			Confidence:           r.Verdict.Score,
			Reason:               r.Verdict.Reason,
			IsLikely:             r.Verdict.IsLikely,
			SeenViaONVIF:         r.SeenViaONVIF,
			SeenViaTapoBroadcast: r.SeenViaTapoBroadcast,
			SeenViaTapoUnicast:   r.SeenViaTapoUnicast,
		}
		candidates = append(candidates, cd)
		if r.Verdict.IsLikely {
			detections = append(detections, Detection{
				IP:         r.IP,
				Hostname:   r.Hostname,
				MAC:        r.MAC,
				OpenPorts:  r.OpenPorts,
				Confidence: r.Verdict.Score,
				Reason:     r.Verdict.Reason,
			})
		}
	}

	SortCandidates(candidates)
	SortDetections(detections)

	return detections, ScanDiagnostics{
		SubnetsScanned:         diag.SubnetsScanned,
		EnumeratedHostCount:    diag.EnumeratedHostCount,
		ARPSeedCount:           diag.ARPSeedCount,
		ONVIFHintCount:         diag.ONVIFHintCount,
		TapoBroadcastHintCount: diag.TapoBroadcastHintCount,
		TapoUnicastHintCount:   diag.TapoUnicastHintCount,
		ResponsiveHostCount:    diag.ResponsiveHostCount,
		Candidates:             candidates,
	}, nil
}
