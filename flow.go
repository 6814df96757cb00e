package netsim

//
// Flow: the application-level transfer a [Host] drives over the
// network. Grounded on components/flow.py of the original simulator for
// the entity's identity and lifecycle data -- not for flow.py's eager
// all-packets-up-front send loop, which the sliding-window sender in
// host.go replaces entirely.
//

import "math"

// CongestionMode names a pluggable congestion-control strategy a [Flow]
// uses, selected per flow in the topology file.
type CongestionMode string

const (
	// CongestionNull disables congestion control: the window is held at
	// an effectively unbounded size.
	CongestionNull CongestionMode = "null"

	// CongestionTahoe is TCP Tahoe: slow start, congestion avoidance, and
	// a full window reset to the initial value on timeout.
	CongestionTahoe CongestionMode = "tahoe"

	// CongestionReno is TCP Reno: Tahoe plus fast retransmit on a run of
	// duplicate acknowledgments.
	CongestionReno CongestionMode = "reno"

	// CongestionFAST is FAST TCP: an RTT-based window update, applied on
	// ACK arrival at most once per update interval, instead of an
	// ACK-clocked additive increase.
	CongestionFAST CongestionMode = "fast"
)

// Flow is one application-level transfer: totalBytes worth of data sent
// from Src to Dest, starting at StartMs, governed by Mode's congestion
// strategy.
type Flow struct {
	// ID is this flow's identifier, used as the FlowID of every packet it
	// produces.
	ID string

	// Src and Dest are the sending and receiving hosts' identifiers.
	Src, Dest string

	// TotalBytes is the total application payload this flow transfers.
	TotalBytes int

	// StartMs is the simulated time, in milliseconds, at which the flow
	// begins sending.
	StartMs Time

	// Mode selects the congestion-control strategy the sending host uses
	// for this flow.
	Mode CongestionMode
}

// PacketCount returns the number of FlowPackets needed to carry
// TotalBytes, each but possibly the last filling [FlowPacketSize] bytes.
func (f *Flow) PacketCount() int {
	return int(math.Ceil(float64(f.TotalBytes) / float64(FlowPacketSize)))
}
