package netsim

//
// Telemetry: the ordered stream of metric events external renderers
// consume. Grounded on events/event_types/graph_events/*.py of the
// original simulator, which defined exactly these six record shapes.
//
// Every type here implements [TelemetryEvent]; the [Scheduler] appends
// them to its telemetry stream as it pops them off the queue and never
// routes them back into simulation state -- telemetry is append-only.
//

import "github.com/montanaflynn/stats"

// WindowSizeEvent reports a flow's sender-side congestion window.
type WindowSizeEvent struct {
	At     Time
	FlowID string
	Cwnd   float64
}

// Time implements Event.
func (e *WindowSizeEvent) Time() Time { return e.At }

func (*WindowSizeEvent) isTelemetryEvent() {}

// LinkBufferSizeEvent reports a link's current combined buffer
// occupancy, in packets (bytes / [FlowPacketSize]).
type LinkBufferSizeEvent struct {
	At              Time
	LinkID          string
	PacketsInBuffer float64
}

// Time implements Event.
func (e *LinkBufferSizeEvent) Time() Time { return e.At }

func (*LinkBufferSizeEvent) isTelemetryEvent() {}

// LinkThroughputEvent reports a link's instantaneous throughput.
type LinkThroughputEvent struct {
	At         Time
	LinkID     string
	BitsPerSec float64
}

// Time implements Event.
func (e *LinkThroughputEvent) Time() Time { return e.At }

func (*LinkThroughputEvent) isTelemetryEvent() {}

// FlowThroughputEvent reports a flow's instantaneous throughput, as
// measured at the receiving host.
type FlowThroughputEvent struct {
	At         Time
	FlowID     string
	BitsPerSec float64
}

// Time implements Event.
func (e *FlowThroughputEvent) Time() Time { return e.At }

func (*FlowThroughputEvent) isTelemetryEvent() {}

// DroppedPacketEvent reports packets dropped by a link's buffer because
// it was full.
type DroppedPacketEvent struct {
	At     Time
	LinkID string
	Count  int
}

// Time implements Event.
func (e *DroppedPacketEvent) Time() Time { return e.At }

func (*DroppedPacketEvent) isTelemetryEvent() {}

// RTTEvent reports a flow's measured round-trip time for one
// FlowPacket/AckPacket pair.
type RTTEvent struct {
	At     Time
	FlowID string
	Ms     float64
}

// Time implements Event.
func (e *RTTEvent) Time() Time { return e.At }

func (*RTTEvent) isTelemetryEvent() {}

var (
	_ TelemetryEvent = &WindowSizeEvent{}
	_ TelemetryEvent = &LinkBufferSizeEvent{}
	_ TelemetryEvent = &LinkThroughputEvent{}
	_ TelemetryEvent = &FlowThroughputEvent{}
	_ TelemetryEvent = &DroppedPacketEvent{}
	_ TelemetryEvent = &RTTEvent{}
)

// BucketWidth is the width, in simulated milliseconds, of the buckets an
// external renderer groups telemetry into before averaging.
const BucketWidth Time = 75

// Bucket groups a series of samples into fixed-width, non-overlapping
// windows along X and averages the Y values within each window. It is a
// convenience for external consumers (CSV export, plotting) of the
// telemetry stream; the simulator itself never buckets.
func Bucket(samples []Sample, width Time) []Sample {
	if width <= 0 || len(samples) == 0 {
		return nil
	}
	buckets := map[int64][]float64{}
	order := []int64{}
	for _, s := range samples {
		idx := int64(s.X / float64(width))
		if _, ok := buckets[idx]; !ok {
			order = append(order, idx)
		}
		buckets[idx] = append(buckets[idx], s.Y)
	}
	out := make([]Sample, 0, len(order))
	for _, idx := range order {
		// every bucket holds at least one value, so Mean cannot fail
		mean := Must1(stats.Mean(buckets[idx]))
		out = append(out, Sample{X: float64(idx) * float64(width), Y: mean})
	}
	return out
}

// SeriesStats summarizes one identifier's samples for an external
// renderer's legend or caption.
type SeriesStats struct {
	Mean   float64
	Median float64
	Max    float64
}

// Summarize computes summary statistics over samples' Y values. ok is
// false when samples is empty.
func Summarize(samples []Sample) (SeriesStats, bool) {
	if len(samples) == 0 {
		return SeriesStats{}, false
	}
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		values = append(values, s.Y)
	}
	return SeriesStats{
		Mean:   Must1(stats.Mean(values)),
		Median: Must1(stats.Median(values)),
		Max:    Must1(stats.Max(values)),
	}, true
}
