// Command taposcan-cli runs one discovery sweep directly (no HTTP
// control plane) and renders the diagnostics as a text table. It
// carries no classification logic of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/localcam/taposcan"
)

func main() {
	maxParallelism := flag.Int("max-parallelism", 64, "bounded concurrency for per-host probing")
	verbose := flag.Bool("verbose", false, "log at debug level instead of info")
	flag.Parse()

	logCfg := zap.NewProductionConfig()
	if *verbose {
		logCfg.Level.SetLevel(zap.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		sugar.Info("cancellation requested, stopping sweep")
		cancel()
	}()

	detections, diag, err := camscan.Scan(ctx,
		camscan.WithMaxParallelism(*maxParallelism),
		camscan.WithLogger(sugar),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}

	printSummary(diag)
	printCandidates(diag.Candidates)

	if len(detections) == 0 {
		fmt.Println("\nno LIKELY Tapo cameras found")
	}
}

func printSummary(diag camscan.ScanDiagnostics) {
	fmt.Printf("subnets scanned:        %v\n", diag.SubnetsScanned)
	fmt.Printf("hosts enumerated:       %d\n", diag.EnumeratedHostCount)
	fmt.Printf("arp seed entries:       %d\n", diag.ARPSeedCount)
	fmt.Printf("onvif hints:            %d\n", diag.ONVIFHintCount)
	fmt.Printf("tapo broadcast hints:   %d\n", diag.TapoBroadcastHintCount)
	fmt.Printf("tapo unicast hits:      %d\n", diag.TapoUnicastHintCount)
	fmt.Printf("responsive hosts:       %d\n\n", diag.ResponsiveHostCount)
}

func printCandidates(candidates []camscan.CandidateDiagnostics) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "LIKELY\tIP\tCONFIDENCE\tOPEN PORTS\tMAC\tHOSTNAME\tREASON")
	for _, c := range candidates {
		likely := "no"
		if c.IsLikely {
			likely = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%v\t%s\t%s\t%s\n",
			likely, c.IP, c.Confidence, c.OpenPorts, c.MAC, c.Hostname, c.Reason)
	}
}
