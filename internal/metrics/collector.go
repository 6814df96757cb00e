// Package metrics mirrors netsim's in-memory telemetry stream as
// Prometheus gauges and counters, for netsim run --metrics-addr.
//
// Grounded on github.com/dantte-lp/gobfd's internal/metrics.Collector:
// the same namespace/subsystem constant pair, the same
// NewCollector(registerer)-constructs-and-registers shape, and the same
// one-struct-field-per-metric layout. This is a second, independent
// telemetry consumer alongside [netsim.Scheduler.Telemetry]; it never
// feeds back into simulation state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/netsim-project/netsim"
)

const (
	namespace = "netsim"
	subsystem = "sim"
)

// Label names shared by the metrics below.
const (
	labelFlowID = "flow_id"
	labelLinkID = "link_id"
)

// Collector holds every Prometheus metric netsim's telemetry stream
// feeds, one per [netsim.TelemetryEvent] variant.
type Collector struct {
	WindowSize     *prometheus.GaugeVec
	LinkBufferSize *prometheus.GaugeVec
	LinkThroughput *prometheus.GaugeVec
	FlowThroughput *prometheus.GaugeVec
	PacketsDropped *prometheus.CounterVec
	RTT            *prometheus.GaugeVec
}

// NewCollector creates a [Collector] and registers its metrics against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		WindowSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cwnd_packets",
			Help:      "Sender-side congestion window, in packets.",
		}, []string{labelFlowID}),

		LinkBufferSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "link_buffer_packets",
			Help:      "Combined buffer occupancy of a link, in packets.",
		}, []string{labelLinkID}),

		LinkThroughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "link_throughput_bits_per_second",
			Help:      "Instantaneous link throughput.",
		}, []string{labelLinkID}),

		FlowThroughput: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "flow_throughput_bits_per_second",
			Help:      "Instantaneous flow throughput, measured at the receiver.",
		}, []string{labelFlowID}),

		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_dropped_total",
			Help:      "Packets dropped by a link's buffer because it was full.",
		}, []string{labelLinkID}),

		RTT: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rtt_milliseconds",
			Help:      "Most recently measured round-trip time for a flow.",
		}, []string{labelFlowID}),
	}

	reg.MustRegister(
		c.WindowSize,
		c.LinkBufferSize,
		c.LinkThroughput,
		c.FlowThroughput,
		c.PacketsDropped,
		c.RTT,
	)

	return c
}

// Observe applies one telemetry event to the corresponding metric. It
// has the shape [netsim.Scheduler.Subscribe] expects, so the usual
// wiring is net.Subscribe(collector.Observe).
func (c *Collector) Observe(event netsim.TelemetryEvent) {
	switch e := event.(type) {
	case *netsim.WindowSizeEvent:
		c.WindowSize.WithLabelValues(e.FlowID).Set(e.Cwnd)
	case *netsim.LinkBufferSizeEvent:
		c.LinkBufferSize.WithLabelValues(e.LinkID).Set(e.PacketsInBuffer)
	case *netsim.LinkThroughputEvent:
		c.LinkThroughput.WithLabelValues(e.LinkID).Set(e.BitsPerSec)
	case *netsim.FlowThroughputEvent:
		c.FlowThroughput.WithLabelValues(e.FlowID).Set(e.BitsPerSec)
	case *netsim.DroppedPacketEvent:
		c.PacketsDropped.WithLabelValues(e.LinkID).Add(float64(e.Count))
	case *netsim.RTTEvent:
		c.RTT.WithLabelValues(e.FlowID).Set(e.Ms)
	}
}
