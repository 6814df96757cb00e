package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/netsim-project/netsim"
	"github.com/netsim-project/netsim/internal/metrics"
)

// metricsShutdownTimeout bounds how long the metrics HTTP server is
// given to drain in-flight scrapes once the simulation completes or the
// operator interrupts the run.
const metricsShutdownTimeout = 2 * time.Second

func runCmd() *cobra.Command {
	var (
		noGraph      bool
		outputFolder string
		metricsAddr  string
	)

	cmd := &cobra.Command{
		Use:   "run <topology.xml>",
		Short: "Run the simulation described by a topology file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel()
			return runSimulation(args[0], !noGraph, outputFolder, metricsAddr)
		},
	}

	cmd.Flags().BoolVarP(&noGraph, "no-graph", "G", false,
		"do not persist telemetry to an output folder at the end of the run")
	cmd.Flags().StringVarP(&outputFolder, "output-folder", "o", "",
		"directory to write persisted telemetry CSV files to")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"address to expose Prometheus metrics on (disabled if empty)")
	cmd.MarkFlagsMutuallyExclusive("no-graph", "output-folder")

	return cmd
}

// runSimulation loads topology, runs it to completion (or until an
// operator interrupt), and persists telemetry to outputFolder unless
// wantGraph is false. If metricsAddr is non-empty, a Prometheus metrics
// HTTP server runs alongside the simulation loop via an errgroup and is
// unwound cleanly when the simulation ends or the operator interrupts.
func runSimulation(topologyPath string, wantGraph bool, outputFolder, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	net, err := netsim.LoadTopology(topologyPath, log.Log, netsim.TickStep)
	if err != nil {
		return fmt.Errorf("load topology: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var metricsSrv *http.Server
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector := metrics.NewCollector(reg)
		net.Subscribe(collector.Observe)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			log.Infof("netsim: metrics listening on %s", metricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer stop()
		net.Run(func() bool {
			select {
			case <-gctx.Done():
				return true
			default:
				return false
			}
		})
		log.Info("netsim: simulation complete")
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if metricsSrv == nil {
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if !wantGraph {
		return nil
	}
	if outputFolder == "" {
		return nil
	}
	return persistTelemetry(net, outputFolder)
}

// persistTelemetry writes one CSV file per telemetry kind to dir,
// matching the header-line + x,y row persisted format described by
// spec.md §6.
func persistTelemetry(net *netsim.Network, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	events := net.Telemetry()

	files := []struct {
		name                  string
		title, xLabel, yLabel string
		graphType             netsim.GraphType
		series                netsim.Series
	}{
		{"window_size.csv", "Congestion Window", "time (ms)", "cwnd (packets)", netsim.GraphOverlay, netsim.WindowSizeSeries(events)},
		{"link_buffer.csv", "Link Buffer Occupancy", "time (ms)", "packets", netsim.GraphOverlay, netsim.LinkBufferSizeSeries(events)},
		{"link_throughput.csv", "Link Throughput", "time (ms)", "bits/sec", netsim.GraphOverlay, netsim.LinkThroughputSeries(events)},
		{"flow_throughput.csv", "Flow Throughput", "time (ms)", "bits/sec", netsim.GraphOverlay, netsim.FlowThroughputSeries(events)},
		{"drops.csv", "Dropped Packets", "time (ms)", "cumulative drops", netsim.GraphBar, netsim.DroppedPacketSeries(events)},
		{"rtt.csv", "Round-Trip Time", "time (ms)", "rtt (ms)", netsim.GraphSubplot, netsim.RTTSeries(events)},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		fh, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		err = netsim.WriteSeries(fh, f.title, f.xLabel, f.yLabel, f.graphType, f.series)
		closeErr := fh.Close()
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if closeErr != nil {
			return fmt.Errorf("close %s: %w", path, closeErr)
		}
	}
	log.Infof("netsim: telemetry written to %s", dir)
	return nil
}
