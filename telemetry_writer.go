package netsim

//
// Persisted telemetry: the header-line + per-identifier x,y row format
// described in spec.md §6, grounded on utils/csv_processor.py and
// utils/grapher.py of the original simulator. The original pivots every
// identifier's series into sibling columns of one CSV file; that layout
// is awkward to reproduce faithfully once column counts differ across
// identifiers, so the Go writer instead emits one `# <identifier>`
// block per series, each followed by its x,y rows -- the same header
// contract and x,y pair semantics, laid out the way encoding/csv reads
// best back. See DESIGN.md for this as a recorded Open Question
// decision.
//

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// GraphType names how an external renderer should plot a persisted
// telemetry series.
type GraphType string

const (
	// GraphSubplot renders one subplot per identifier.
	GraphSubplot GraphType = "Subplot"

	// GraphBar renders a bar chart.
	GraphBar GraphType = "Bar"

	// GraphOverlay renders every identifier's series on one shared axes.
	GraphOverlay GraphType = "Overlay"
)

// Sample is one (x, y) telemetry data point for one identifier.
type Sample struct {
	X, Y float64
}

// Series maps an identifier (flowId or linkId) to its ordered samples.
type Series map[string][]Sample

// WriteSeries writes series to w in the persisted telemetry format: a
// header line naming title, axis labels and graphType, followed by one
// "# <identifier>" block per series (identifiers in sorted order, for a
// reproducible file across runs) and that identifier's x,y rows.
func WriteSeries(w io.Writer, title, xLabel, yLabel string, graphType GraphType, series Series) error {
	if _, err := fmt.Fprintf(w, "title: %s, x-label: %s, y-label: %s, graph-type: %s\n",
		title, xLabel, yLabel, graphType); err != nil {
		return fmt.Errorf("netsim: write telemetry header: %w", err)
	}

	ids := make([]string, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cw := csv.NewWriter(w)
	for _, id := range ids {
		if err := cw.Write([]string{"#", id}); err != nil {
			return fmt.Errorf("netsim: write telemetry block %q: %w", id, err)
		}
		for _, s := range series[id] {
			row := []string{
				strconv.FormatFloat(s.X, 'f', -1, 64),
				strconv.FormatFloat(s.Y, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("netsim: write telemetry row %q: %w", id, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SeriesFromTelemetry buckets events into per-identifier [Series] using
// extractID and extractValue, which together decide whether an event
// belongs to this series at all (extractID's ok return) and what x,y
// pair it contributes.
func SeriesFromTelemetry(
	events []TelemetryEvent,
	extractID func(TelemetryEvent) (id string, ok bool),
	extractValue func(TelemetryEvent) float64,
) Series {
	out := Series{}
	for _, e := range events {
		id, ok := extractID(e)
		if !ok {
			continue
		}
		out[id] = append(out[id], Sample{X: float64(e.Time()), Y: extractValue(e)})
	}
	return out
}

// WindowSizeSeries extracts every [WindowSizeEvent] into a per-flow
// [Series] of congestion window over time.
func WindowSizeSeries(events []TelemetryEvent) Series {
	return SeriesFromTelemetry(events,
		func(e TelemetryEvent) (string, bool) {
			w, ok := e.(*WindowSizeEvent)
			if !ok {
				return "", false
			}
			return w.FlowID, true
		},
		func(e TelemetryEvent) float64 { return e.(*WindowSizeEvent).Cwnd })
}

// LinkBufferSizeSeries extracts every [LinkBufferSizeEvent] into a
// per-link [Series] of buffer occupancy over time.
func LinkBufferSizeSeries(events []TelemetryEvent) Series {
	return SeriesFromTelemetry(events,
		func(e TelemetryEvent) (string, bool) {
			b, ok := e.(*LinkBufferSizeEvent)
			if !ok {
				return "", false
			}
			return b.LinkID, true
		},
		func(e TelemetryEvent) float64 { return e.(*LinkBufferSizeEvent).PacketsInBuffer })
}

// LinkThroughputSeries extracts every [LinkThroughputEvent] into a
// per-link [Series] of throughput over time.
func LinkThroughputSeries(events []TelemetryEvent) Series {
	return SeriesFromTelemetry(events,
		func(e TelemetryEvent) (string, bool) {
			l, ok := e.(*LinkThroughputEvent)
			if !ok {
				return "", false
			}
			return l.LinkID, true
		},
		func(e TelemetryEvent) float64 { return e.(*LinkThroughputEvent).BitsPerSec })
}

// FlowThroughputSeries extracts every [FlowThroughputEvent] into a
// per-flow [Series] of throughput over time.
func FlowThroughputSeries(events []TelemetryEvent) Series {
	return SeriesFromTelemetry(events,
		func(e TelemetryEvent) (string, bool) {
			f, ok := e.(*FlowThroughputEvent)
			if !ok {
				return "", false
			}
			return f.FlowID, true
		},
		func(e TelemetryEvent) float64 { return e.(*FlowThroughputEvent).BitsPerSec })
}

// DroppedPacketSeries extracts every [DroppedPacketEvent] into a
// per-link [Series] of cumulative drop count over time.
func DroppedPacketSeries(events []TelemetryEvent) Series {
	totals := map[string]float64{}
	return SeriesFromTelemetry(events,
		func(e TelemetryEvent) (string, bool) {
			d, ok := e.(*DroppedPacketEvent)
			if !ok {
				return "", false
			}
			return d.LinkID, true
		},
		func(e TelemetryEvent) float64 {
			d := e.(*DroppedPacketEvent)
			totals[d.LinkID] += float64(d.Count)
			return totals[d.LinkID]
		})
}

// RTTSeries extracts every [RTTEvent] into a per-flow [Series] of
// measured round-trip time over time.
func RTTSeries(events []TelemetryEvent) Series {
	return SeriesFromTelemetry(events,
		func(e TelemetryEvent) (string, bool) {
			r, ok := e.(*RTTEvent)
			if !ok {
				return "", false
			}
			return r.FlowID, true
		},
		func(e TelemetryEvent) float64 { return e.(*RTTEvent).Ms })
}
